package orders

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/audit"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/catalog"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/db"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/db/models"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/errors"
)

const statusActive = "ativo"
const statusInactive = "inativo"

// Workflow steps that drive the repair timer on manual edits.
const (
	statusDescDiagnosis = "Em Diagnóstico"
	statusDescDone      = "Finalizado"
	statusDescCancelled = "Cancelado"
)

// Service manages repair orders edited through the back office. Scanner
// driven movements go through the tracking pipeline instead.
type Service struct {
	client  *db.Client
	catalog *catalog.Service
	audit   audit.Recorder
	now     func() time.Time
}

func NewService(client *db.Client, cat *catalog.Service, recorder audit.Recorder) (*Service, error) {
	if client == nil {
		return nil, errors.New(errors.CodeInternal, "orders: db client is required")
	}
	if cat == nil {
		return nil, errors.New(errors.CodeInternal, "orders: catalog service is required")
	}
	if recorder == nil {
		recorder = audit.Noop{}
	}
	return &Service{client: client, catalog: cat, audit: recorder, now: time.Now}, nil
}

type ListFilter struct {
	Search          string
	StatusID        int64
	CustomerID      int64
	IncludeInactive bool
	Limit           int
	Offset          int
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]models.Order, error) {
	q := s.client.DB().WithContext(ctx).Model(&models.Order{})
	if !f.IncludeInactive {
		q = q.Where("ordenservico.status = ?", statusActive)
	}
	if f.StatusID > 0 {
		q = q.Where("id_status_os = ?", f.StatusID)
	}
	if f.CustomerID > 0 {
		q = q.Where("ordenservico.id_cliente = ?", f.CustomerID)
	}
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		q = q.Joins("JOIN cliente ON cliente.id_cliente = ordenservico.id_cliente").
			Where("LOWER(cliente.nome) LIKE ? OR LOWER(descricao_problema) LIKE ?", like, like)
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []models.Order
	err := q.Order("data_atualizacao DESC, data_criacao DESC").Limit(limit).Offset(f.Offset).Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "orders: listing orders")
	}
	return rows, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.client.DB().WithContext(ctx).First(&order, "id_os = ?", id).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New(errors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "orders: loading order")
	}
	return &order, nil
}

type CreateInput struct {
	CustomerID         int64
	EquipmentID        int64
	TechnicianID       *int64
	ProblemDescription string
	LocationID         string
	StatusID           *int64
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Order, error) {
	if in.CustomerID <= 0 || in.EquipmentID <= 0 {
		return nil, errors.New(errors.CodeValidation, "customer and equipment are required")
	}
	if strings.TrimSpace(in.ProblemDescription) == "" {
		return nil, errors.New(errors.CodeValidation, "problem description is required")
	}

	order := models.Order{
		CustomerID:         in.CustomerID,
		EquipmentID:        in.EquipmentID,
		TechnicianID:       in.TechnicianID,
		ProblemDescription: strings.TrimSpace(in.ProblemDescription),
		LocationID:         strings.ToUpper(strings.TrimSpace(in.LocationID)),
		StatusID:           in.StatusID,
		Active:             statusActive,
		CreatedAt:          s.now().UTC(),
	}
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Equipment{}).
			Where("id_equipamento = ? AND id_cliente = ?", in.EquipmentID, in.CustomerID).
			Count(&count).Error; err != nil {
			return errors.Wrap(errors.CodeDependency, err, "orders: checking equipment")
		}
		if count == 0 {
			return errors.New(errors.CodeValidation, "equipment does not belong to the customer")
		}
		if err := tx.Create(&order).Error; err != nil {
			return errors.Wrap(errors.CodeDependency, err, "orders: creating order")
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			EntityType: "ordem", EntityID: order.ID, Action: "create",
			Note: order.ProblemDescription,
		})
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

type UpdateInput struct {
	TechnicianID       *int64
	ProblemDescription *string
	ServiceDescription *string
	LocationID         *string
	StatusID           *int64
	// ExpectedVersion enables optimistic concurrency from the UI. Nil skips
	// the check.
	ExpectedVersion *int64
}

// Update applies a back-office edit. Workflow status transitions drive the
// repair timer the same way bench scans do: entering diagnosis opens the
// clock when closed, finishing or cancelling closes it and accrues the
// elapsed minutes.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*models.Order, error) {
	var updated models.Order
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		var order models.Order
		err := tx.First(&order, "id_os = ?", id).Error
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New(errors.CodeNotFound, "order not found")
		}
		if err != nil {
			return errors.Wrap(errors.CodeDependency, err, "orders: loading order")
		}
		if in.ExpectedVersion != nil && *in.ExpectedVersion != order.Version {
			return errors.New(errors.CodeConflict,
				fmt.Sprintf("order %d was modified concurrently", id))
		}

		prevLocation := order.LocationID
		prevStatusID := order.StatusID

		if in.TechnicianID != nil {
			order.TechnicianID = in.TechnicianID
		}
		if in.ProblemDescription != nil {
			order.ProblemDescription = strings.TrimSpace(*in.ProblemDescription)
		}
		if in.ServiceDescription != nil {
			order.ServiceDescription = in.ServiceDescription
		}
		if in.LocationID != nil {
			order.LocationID = strings.ToUpper(strings.TrimSpace(*in.LocationID))
		}
		if in.StatusID != nil {
			order.StatusID = in.StatusID
			if err := s.applyTimerForStatus(tx, &order, *in.StatusID); err != nil {
				return err
			}
		}
		order.Version++
		order.UpdatedAt = s.now().UTC()
		if err := tx.Save(&order).Error; err != nil {
			return errors.Wrap(errors.CodeDependency, err, "orders: saving order")
		}

		if in.LocationID != nil && prevLocation != order.LocationID {
			err := s.audit.Record(ctx, tx, audit.Entry{
				EntityType: "ordem", EntityID: order.ID,
				Action: "location_change", Field: "id_local",
				OldValue: prevLocation, NewValue: order.LocationID,
				Note: "alteração manual",
			})
			if err != nil {
				return err
			}
		}
		if in.StatusID != nil && (prevStatusID == nil || *prevStatusID != *in.StatusID) {
			err := s.audit.Record(ctx, tx, audit.Entry{
				EntityType: "ordem", EntityID: order.ID,
				Action: "status_change", Field: "id_status_os",
				OldValue: statusValue(prevStatusID), NewValue: statusValue(in.StatusID),
				Note: "alteração manual",
			})
			if err != nil {
				return err
			}
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Service) applyTimerForStatus(tx *gorm.DB, order *models.Order, statusID int64) error {
	var desc string
	if err := tx.Raw("SELECT descricao FROM status_os WHERE id_status = ?", statusID).Scan(&desc).Error; err != nil {
		return errors.Wrap(errors.CodeDependency, err, "orders: resolving status")
	}
	now := s.now().UTC().Truncate(time.Second)
	switch desc {
	case statusDescDiagnosis:
		if order.RepairStartedAt == nil {
			order.RepairStartedAt = &now
			order.RepairFinishedAt = nil
		}
	case statusDescDone, statusDescCancelled:
		if order.RepairFinishedAt == nil {
			reference := order.CreatedAt
			if order.RepairStartedAt != nil {
				reference = *order.RepairStartedAt
			}
			elapsed := int64(now.Sub(reference).Minutes())
			if elapsed < 0 {
				elapsed = 0
			}
			total := elapsed
			if order.ServiceMinutes != nil {
				total += *order.ServiceMinutes
			}
			order.ServiceMinutes = &total
			order.RepairFinishedAt = &now
			order.RepairStartedAt = nil
		}
	}
	return nil
}

func (s *Service) SoftDelete(ctx context.Context, id int64, reason string) error {
	return s.setActive(ctx, id, false, reason)
}

func (s *Service) Reactivate(ctx context.Context, id int64) error {
	return s.setActive(ctx, id, true, "")
}

func (s *Service) setActive(ctx context.Context, id int64, active bool, reason string) error {
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		var order models.Order
		err := tx.First(&order, "id_os = ?", id).Error
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New(errors.CodeNotFound, "order not found")
		}
		if err != nil {
			return errors.Wrap(errors.CodeDependency, err, "orders: loading order")
		}
		old := order.Active
		if active {
			order.Active = statusActive
		} else {
			order.Active = statusInactive
		}
		order.Version++
		if err := tx.Save(&order).Error; err != nil {
			return errors.Wrap(errors.CodeDependency, err, "orders: saving order")
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			EntityType: "ordem", EntityID: order.ID, Action: "status_change",
			Field: "status", OldValue: old, NewValue: order.Active, Note: reason,
		})
	})
}

func statusValue(id *int64) string {
	if id == nil {
		return ""
	}
	return fmt.Sprintf("%d", *id)
}
