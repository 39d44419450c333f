package watcher

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/notify"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/config"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/db"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/db/models"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/errors"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/logger"
)

// Watcher periodically sweeps active orders and messages customers whose
// order moved since the last sweep. Checkpoints live in the database so
// replicas share them and restarts do not re-send.
type Watcher struct {
	client     *db.Client
	dispatcher notify.Dispatcher
	logg       *logger.Logger
	interval   time.Duration
	bootstrap  bool
	now        func() time.Time

	firstSweep bool
}

func New(client *db.Client, dispatcher notify.Dispatcher, logg *logger.Logger, cfg config.WatcherConfig) (*Watcher, error) {
	if client == nil {
		return nil, errors.New(errors.CodeInternal, "watcher: db client is required")
	}
	if dispatcher == nil {
		return nil, errors.New(errors.CodeInternal, "watcher: dispatcher is required")
	}
	if logg == nil {
		return nil, errors.New(errors.CodeInternal, "watcher: logger is required")
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Watcher{
		client:     client,
		dispatcher: dispatcher,
		logg:       logg,
		interval:   interval,
		bootstrap:  cfg.Bootstrap,
		now:        time.Now,
		firstSweep: true,
	}, nil
}

// Run sweeps until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		if _, err := w.RunOnce(ctx); err != nil {
			w.logg.Error(ctx, "watcher: sweep failed", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

type orderSnapshot struct {
	OrderID       int64  `gorm:"column:id_os"`
	LocationID    string `gorm:"column:id_local"`
	LocationLabel string `gorm:"column:local_instalado"`
	StatusLabel   string `gorm:"column:descricao"`
	CustomerName  string `gorm:"column:nome"`
	Mobile        string `gorm:"column:celular"`
	Phone         string `gorm:"column:telefone"`
}

// RunOnce performs a single sweep and returns the number of messages sent.
// The first sweep in bootstrap mode only seeds checkpoints so a fresh
// deployment does not blast every customer at once.
func (w *Watcher) RunOnce(ctx context.Context) (int, error) {
	const q = `
		SELECT o.id_os, o.id_local,
		       COALESCE(l.local_instalado, '') AS local_instalado,
		       COALESCE(s.descricao, '') AS descricao,
		       c.nome,
		       COALESCE(c.celular, '') AS celular,
		       COALESCE(c.telefone, '') AS telefone
		FROM ordenservico o
		JOIN cliente c ON c.id_cliente = o.id_cliente
		LEFT JOIN local l ON l.id_scanner = o.id_local
		LEFT JOIN status_os s ON s.id_status = o.id_status_os
		WHERE o.status = 'ativo' AND o.id_local <> ''`
	var rows []orderSnapshot
	if err := w.client.Raw(ctx, q).Scan(&rows).Error; err != nil {
		return 0, errors.Wrap(errors.CodeDependency, err, "watcher: loading order snapshots")
	}

	var checkpoints []models.NotifyCheckpoint
	if err := w.client.DB().WithContext(ctx).Find(&checkpoints).Error; err != nil {
		return 0, errors.Wrap(errors.CodeDependency, err, "watcher: loading checkpoints")
	}
	known := make(map[int64]models.NotifyCheckpoint, len(checkpoints))
	for _, cp := range checkpoints {
		known[cp.OrderID] = cp
	}

	seedOnly := w.firstSweep && w.bootstrap
	w.firstSweep = false

	sent := 0
	for _, row := range rows {
		cp, seen := known[row.OrderID]
		if seen && cp.LastLocation != nil && *cp.LastLocation == row.LocationID {
			continue
		}
		if !seen && seedOnly {
			if err := w.saveCheckpoint(ctx, row); err != nil {
				return sent, err
			}
			continue
		}
		if err := w.send(ctx, row); err != nil {
			w.logg.Warn(ctx, fmt.Sprintf("watcher: notification for order %d failed, will retry next sweep", row.OrderID))
			continue
		}
		if err := w.saveCheckpoint(ctx, row); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

func (w *Watcher) send(ctx context.Context, row orderSnapshot) error {
	destination := row.Mobile
	if destination == "" {
		destination = row.Phone
	}
	change := notify.LocationChange{
		OrderID:       row.OrderID,
		CustomerName:  row.CustomerName,
		Phone:         destination,
		LocationID:    row.LocationID,
		LocationLabel: row.LocationLabel,
		StatusLabel:   row.StatusLabel,
	}
	result, err := w.dispatcher.NotifyLocationChange(ctx, change)
	if err != nil {
		return err
	}
	if result != notify.ResultOK {
		return nil
	}
	log := models.SendLog{
		OrderID:     row.OrderID,
		LocationID:  row.LocationID,
		Destination: destination,
		Message:     notify.RenderMessage(change),
		SentAt:      w.now().UTC(),
	}
	if err := w.client.DB().WithContext(ctx).Create(&log).Error; err != nil {
		return errors.Wrap(errors.CodeDependency, err, "watcher: recording send")
	}
	return nil
}

func (w *Watcher) saveCheckpoint(ctx context.Context, row orderSnapshot) error {
	location := row.LocationID
	var status *string
	if row.StatusLabel != "" {
		status = &row.StatusLabel
	}
	cp := models.NotifyCheckpoint{
		OrderID: row.OrderID, LastLocation: &location, LastStatus: status,
		UpdatedAt: w.now().UTC(),
	}
	err := w.client.DB().WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id_os"}},
		DoUpdates: clause.AssignmentColumns([]string{"ultimo_local", "ultimo_status", "atualizado_em"}),
	}).Create(&cp).Error
	if err != nil {
		return errors.Wrap(errors.CodeDependency, err, "watcher: saving checkpoint")
	}
	return nil
}
