package tracking

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/audit"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/catalog"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/notify"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/schema"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/db"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/db/models"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/errors"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/logger"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/metrics"
)

// Known column spellings across deployed schema generations. The probe
// result is cached for the process lifetime.
var (
	orderTableCandidates   = []string{"ordenservico", "ordemservico", "ordensservico"}
	locationColCandidates  = []string{"id_local", "id_scanner"}
	updatedColCandidates   = []string{"data_atualizacao", "atualizado_em"}
	createdColCandidates   = []string{"data_criacao", "criado_em"}
	statusColName          = "id_status_os"
	activeColName          = "status"
	versionColName         = "version"
	benchStartCol          = "data_inicio_reparo"
	benchEndCol            = "data_fim_reparo"
	benchMinutesCol        = "tempo_servico"
	bindingTableName       = models.TagBinding{}.TableName()
	locationTableName      = models.Location{}.TableName()
	customerTableName      = models.Customer{}.TableName()
	equipmentTagTableName  = models.Tag{}.TableName()
)

// orderSchema is the shape of the order table discovered at runtime.
// Optional columns are empty strings / false when absent; the pipeline
// degrades feature by feature instead of failing.
type orderSchema struct {
	table       string
	pk          string
	locationCol string
	statusCol   string
	activeCol   string
	versionCol  string
	updatedCol  string
	createdCol  string
	hasBench    bool
	hasBindings bool
}

// Service executes the scan-to-state pipeline and the tag binding
// operations.
type Service struct {
	client  *db.Client
	prober  schema.Prober
	catalog *catalog.Service
	audit   audit.Recorder
	notify  notify.Dispatcher
	metrics *metrics.RFIDMetrics
	logg    *logger.Logger
	now     func() time.Time

	schemaOnce sync.Once
	schemaInfo orderSchema
	schemaErr  error
}

func NewService(
	client *db.Client,
	prober schema.Prober,
	cat *catalog.Service,
	recorder audit.Recorder,
	dispatcher notify.Dispatcher,
	m *metrics.RFIDMetrics,
	logg *logger.Logger,
) (*Service, error) {
	if client == nil {
		return nil, errors.New(errors.CodeInternal, "tracking: db client is required")
	}
	if prober == nil {
		return nil, errors.New(errors.CodeInternal, "tracking: schema prober is required")
	}
	if cat == nil {
		return nil, errors.New(errors.CodeInternal, "tracking: catalog service is required")
	}
	if logg == nil {
		return nil, errors.New(errors.CodeInternal, "tracking: logger is required")
	}
	if recorder == nil {
		recorder = audit.Noop{}
	}
	if dispatcher == nil {
		dispatcher = notify.Noop{}
	}
	return &Service{
		client:  client,
		prober:  prober,
		catalog: cat,
		audit:   recorder,
		notify:  dispatcher,
		metrics: m,
		logg:    logg,
		now:     time.Now,
	}, nil
}

func (s *Service) orderSchema(ctx context.Context) (orderSchema, error) {
	s.schemaOnce.Do(func() {
		s.schemaInfo, s.schemaErr = s.probeOrderSchema(ctx)
	})
	return s.schemaInfo, s.schemaErr
}

func (s *Service) probeOrderSchema(ctx context.Context) (orderSchema, error) {
	var sc orderSchema
	table, ok, err := s.prober.PickTable(ctx, orderTableCandidates...)
	if err != nil {
		return sc, err
	}
	if !ok {
		return sc, errors.New(errors.CodePrecondition, "no order table found in the database")
	}
	sc.table = table

	pk, ok, err := s.prober.PrimaryKey(ctx, table)
	if err != nil {
		return sc, err
	}
	if !ok {
		pk = "id_os"
	}
	sc.pk = pk

	if sc.locationCol, ok, err = s.prober.PickColumn(ctx, table, locationColCandidates...); err != nil {
		return sc, err
	} else if !ok {
		return sc, errors.New(errors.CodePrecondition,
			fmt.Sprintf("order table %q has no location column", table))
	}
	if sc.updatedCol, _, err = s.prober.PickColumn(ctx, table, updatedColCandidates...); err != nil {
		return sc, err
	}
	if sc.createdCol, _, err = s.prober.PickColumn(ctx, table, createdColCandidates...); err != nil {
		return sc, err
	}
	for col, dst := range map[string]*string{
		statusColName:  &sc.statusCol,
		activeColName:  &sc.activeCol,
		versionColName: &sc.versionCol,
	} {
		has, err := s.prober.HasColumn(ctx, table, col)
		if err != nil {
			return sc, err
		}
		if has {
			*dst = col
		}
	}

	hasStart, err := s.prober.HasColumn(ctx, table, benchStartCol)
	if err != nil {
		return sc, err
	}
	hasEnd, err := s.prober.HasColumn(ctx, table, benchEndCol)
	if err != nil {
		return sc, err
	}
	hasMinutes, err := s.prober.HasColumn(ctx, table, benchMinutesCol)
	if err != nil {
		return sc, err
	}
	sc.hasBench = hasStart && hasEnd && hasMinutes

	if sc.hasBindings, err = s.prober.HasTable(ctx, bindingTableName); err != nil {
		return sc, err
	}
	return sc, nil
}

// ReaderIdentity is the authenticated device submitting a scan.
type ReaderIdentity struct {
	Code      string
	ScannerID string
}

type EventInput struct {
	UID    string
	Reader ReaderIdentity
}

// EventResult reports what a scan changed.
type EventResult struct {
	UID         string `json:"uid"`
	Reader      string `json:"reader"`
	OrderID     int64  `json:"orderId"`
	NewLocation string `json:"newLocation"`
	NewStatus   *int64 `json:"newStatus,omitempty"`
}

type orderRow struct {
	id         int64
	customerID int64
	location   string
	statusID   *int64
	timer      benchTimer
	version    int64
}

// ProcessEvent runs the full scan pipeline: resolve the reader's location,
// resolve the tag's order, advance location, workflow status and repair
// timer in one transaction, then notify the customer after commit.
func (s *Service) ProcessEvent(ctx context.Context, in EventInput) (*EventResult, error) {
	started := s.now()
	result, err := s.processEvent(ctx, in)
	s.metrics.ObserveEvent(in.Reader.Code, outcomeLabel(err), s.now().Sub(started))
	return result, err
}

func (s *Service) processEvent(ctx context.Context, in EventInput) (*EventResult, error) {
	uid, err := NormalizeUID(in.UID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Reader.ScannerID) == "" {
		return nil, errors.New(errors.CodePrecondition, "reader has no location assigned")
	}
	sc, err := s.orderSchema(ctx)
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithReader(ctx, in.Reader.Code)
	now := s.now().UTC().Truncate(time.Second)

	var result *EventResult
	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		loc, err := s.catalog.ResolveByScanner(ctx, tx, in.Reader.ScannerID)
		if err != nil {
			return err
		}
		orderID, err := s.resolveOrder(ctx, tx, sc, uid)
		if err != nil {
			return err
		}
		row, err := s.loadOrderRow(tx, sc, orderID)
		if err != nil {
			return err
		}

		newStatusID, err := s.catalog.StatusIDForLocation(ctx, tx, loc)
		if err != nil {
			return err
		}
		wasBench := false
		if row.location != "" && row.location != loc.ScannerID {
			wasBench = s.isBenchScanner(tx, row.location)
		} else if row.location == loc.ScannerID {
			wasBench = IsBench(loc.Label)
		}
		tr := applyBench(wasBench, IsBench(loc.Label), row.timer, now)

		if err := s.updateOrderRow(tx, sc, row, loc.ScannerID, newStatusID, tr, now); err != nil {
			return err
		}
		if sc.hasBindings {
			scanner := loc.ScannerID
			move := models.TagBinding{
				UID: uid, OrderID: orderID, LocationID: &scanner,
				Type: models.BindingTypeMove, EventAt: &now,
			}
			if err := tx.Create(&move).Error; err != nil {
				return errors.Wrap(errors.CodeDependency, err, "tracking: recording movement")
			}
		}
		if err := s.recordEventAudit(ctx, tx, sc, row, loc, uid, in.Reader.Code, newStatusID, tr, now); err != nil {
			return err
		}

		result = &EventResult{
			UID: uid, Reader: in.Reader.Code, OrderID: orderID,
			NewLocation: loc.ScannerID,
		}
		if newStatusID != nil {
			result.NewStatus = newStatusID
		} else {
			result.NewStatus = row.statusID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyAfterCommit(ctx, sc, result)
	return result, nil
}

func (s *Service) loadOrderRow(tx *gorm.DB, sc orderSchema, orderID int64) (orderRow, error) {
	row := orderRow{id: orderID}
	sel := []string{sc.pk, "id_cliente", sc.locationCol}
	var locNull, activeNull sql.NullString
	var statusNull, minutesNull, versionNull sql.NullInt64
	var startNull, endNull sql.NullTime
	scan := []any{&row.id, &row.customerID, &locNull}
	if sc.statusCol != "" {
		sel = append(sel, sc.statusCol)
		scan = append(scan, &statusNull)
	}
	if sc.activeCol != "" {
		sel = append(sel, sc.activeCol)
		scan = append(scan, &activeNull)
	}
	if sc.hasBench {
		sel = append(sel, benchStartCol, benchEndCol, benchMinutesCol)
		scan = append(scan, &startNull, &endNull, &minutesNull)
	}
	if sc.versionCol != "" {
		sel = append(sel, sc.versionCol)
		scan = append(scan, &versionNull)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", strings.Join(sel, ", "), sc.table, sc.pk)
	sqlRow := tx.Raw(query, orderID).Row()
	if err := sqlRow.Scan(scan...); err != nil {
		if err == sql.ErrNoRows {
			return row, errors.New(errors.CodeNotFound, fmt.Sprintf("order %d not found", orderID))
		}
		return row, errors.Wrap(errors.CodeDependency, err, "tracking: loading order")
	}
	row.location = locNull.String
	if statusNull.Valid {
		v := statusNull.Int64
		row.statusID = &v
	}
	if startNull.Valid {
		t := startNull.Time
		row.timer.StartedAt = &t
	}
	if endNull.Valid {
		t := endNull.Time
		row.timer.FinishedAt = &t
	}
	if minutesNull.Valid {
		v := minutesNull.Int64
		row.timer.Minutes = &v
	}
	if versionNull.Valid {
		row.version = versionNull.Int64
	}
	return row, nil
}

func (s *Service) updateOrderRow(tx *gorm.DB, sc orderSchema, row orderRow, newLocation string, newStatusID *int64, tr benchTransition, now time.Time) error {
	sets := []string{sc.locationCol + " = ?"}
	args := []any{newLocation}
	if newStatusID != nil && sc.statusCol != "" {
		sets = append(sets, sc.statusCol+" = ?")
		args = append(args, *newStatusID)
	}
	if sc.updatedCol != "" {
		sets = append(sets, sc.updatedCol+" = ?")
		args = append(args, now)
	}
	if tr.changed && sc.hasBench {
		sets = append(sets,
			benchStartCol+" = ?", benchEndCol+" = ?", benchMinutesCol+" = ?")
		args = append(args, timeArg(tr.timer.StartedAt), timeArg(tr.timer.FinishedAt), intArg(tr.timer.Minutes))
	}

	where := sc.pk + " = ?"
	whereArgs := []any{row.id}
	if sc.versionCol != "" {
		sets = append(sets, sc.versionCol+" = "+sc.versionCol+" + 1")
		where += " AND " + sc.versionCol + " = ?"
		whereArgs = append(whereArgs, row.version)
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", sc.table, strings.Join(sets, ", "), where)
	res := tx.Exec(query, append(args, whereArgs...)...)
	if res.Error != nil {
		return errors.Wrap(errors.CodeDependency, res.Error, "tracking: updating order")
	}
	if res.RowsAffected == 0 {
		return errors.New(errors.CodeConflict, fmt.Sprintf("order %d was modified concurrently", row.id))
	}
	return nil
}

func (s *Service) recordEventAudit(ctx context.Context, tx *gorm.DB, sc orderSchema, row orderRow, loc *models.Location, uid, readerCode string, newStatusID *int64, tr benchTransition, now time.Time) error {
	if row.location != loc.ScannerID {
		err := s.audit.Record(ctx, tx, audit.Entry{
			EntityType: "ordem", EntityID: row.id,
			Action: "location_change", Field: sc.locationCol,
			OldValue: row.location, NewValue: loc.ScannerID,
			Note: fmt.Sprintf("RFID %s → %s (%s)", uid, loc.Label, readerCode),
		})
		if err != nil {
			return err
		}
	}
	if newStatusID != nil && sc.statusCol != "" && (row.statusID == nil || *row.statusID != *newStatusID) {
		oldLabel := s.statusLabel(tx, row.statusID)
		newLabel := s.statusLabel(tx, newStatusID)
		err := s.audit.Record(ctx, tx, audit.Entry{
			EntityType: "ordem", EntityID: row.id,
			Action: "status_change", Field: sc.statusCol,
			OldValue: statusIDValue(row.statusID), NewValue: statusIDValue(newStatusID),
			Note: fmt.Sprintf("%s → %s (RFID)", oldLabel, newLabel),
		})
		if err != nil {
			return err
		}
	}
	if tr.started {
		err := s.audit.Record(ctx, tx, audit.Entry{
			EntityType: "ordem", EntityID: row.id,
			Action: "timer_start", Field: benchStartCol,
			NewValue: now.Format(time.RFC3339),
			Note:     fmt.Sprintf("bancada: %s", loc.Label),
		})
		if err != nil {
			return err
		}
	}
	if tr.stopped {
		var minutes int64
		if tr.timer.Minutes != nil {
			minutes = *tr.timer.Minutes
		}
		err := s.audit.Record(ctx, tx, audit.Entry{
			EntityType: "ordem", EntityID: row.id,
			Action: "timer_stop", Field: benchMinutesCol,
			NewValue: fmt.Sprintf("%d", minutes),
			Note:     fmt.Sprintf("tempo acumulado: %d min", minutes),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func statusIDValue(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

func (s *Service) statusLabel(tx *gorm.DB, id *int64) string {
	if id == nil {
		return ""
	}
	var label string
	err := tx.Raw("SELECT descricao FROM status_os WHERE id_status = ?", *id).Scan(&label).Error
	if err != nil || label == "" {
		return fmt.Sprintf("%d", *id)
	}
	return label
}

func (s *Service) isBenchScanner(tx *gorm.DB, scannerID string) bool {
	var label string
	err := tx.Raw(
		fmt.Sprintf("SELECT local_instalado FROM %s WHERE id_scanner = ?", locationTableName),
		scannerID,
	).Scan(&label).Error
	if err != nil {
		return false
	}
	return IsBench(label)
}

// notifyAfterCommit looks up the customer and fires a best-effort
// notification. Failures are logged and never surface to the reader.
func (s *Service) notifyAfterCommit(ctx context.Context, sc orderSchema, result *EventResult) {
	query := fmt.Sprintf(
		"SELECT c.nome, c.celular, c.telefone FROM %s c JOIN %s o ON o.id_cliente = c.id_cliente WHERE o.%s = ?",
		customerTableName, sc.table, sc.pk,
	)
	var name string
	var mobile, phone sql.NullString
	err := s.client.Raw(ctx, query, result.OrderID).Row().Scan(&name, &mobile, &phone)
	if err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("tracking: customer lookup for order %d failed, skipping notification", result.OrderID))
		return
	}
	destination := mobile.String
	if destination == "" {
		destination = phone.String
	}

	var label, statusLabel string
	_ = s.client.Raw(ctx,
		fmt.Sprintf("SELECT local_instalado FROM %s WHERE id_scanner = ?", locationTableName),
		result.NewLocation,
	).Scan(&label).Error
	if result.NewStatus != nil {
		_ = s.client.Raw(ctx, "SELECT descricao FROM status_os WHERE id_status = ?", *result.NewStatus).Scan(&statusLabel).Error
	}

	_, err = s.notify.NotifyLocationChange(ctx, notify.LocationChange{
		OrderID:       result.OrderID,
		CustomerName:  name,
		Phone:         destination,
		LocationID:    result.NewLocation,
		LocationLabel: label,
		StatusLabel:   statusLabel,
	})
	if err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("tracking: notification for order %d failed", result.OrderID))
	}
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if appErr := errors.As(err); appErr != nil {
		switch appErr.Code() {
		case errors.CodeValidation:
			return "invalid"
		case errors.CodePrecondition:
			return "precondition"
		case errors.CodeConflict:
			return "conflict"
		case errors.CodeNotFound:
			return "not_found"
		}
	}
	return "error"
}

func timeArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func intArg(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
