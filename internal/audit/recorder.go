package audit

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/db"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/db/models"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/errors"
)

// Entry is a single change record for a business entity.
type Entry struct {
	EntityType string
	EntityID   int64
	Action     string
	Field      string
	OldValue   string
	NewValue   string
	Note       string
	ActorID    *int64
}

// Recorder persists audit entries. Record runs inside the caller's
// transaction when tx is non-nil so entries share the mutation's fate.
type Recorder interface {
	Record(ctx context.Context, tx *gorm.DB, e Entry) error
	ListByEntity(ctx context.Context, entityType string, entityID int64, limit, offset int) ([]models.AuditEntry, error)
}

type gormRecorder struct {
	client *db.Client
	now    func() time.Time
}

func NewRecorder(client *db.Client) (Recorder, error) {
	if client == nil {
		return nil, errors.New(errors.CodeInternal, "audit: db client is required")
	}
	return &gormRecorder{client: client, now: time.Now}, nil
}

func (r *gormRecorder) Record(ctx context.Context, tx *gorm.DB, e Entry) error {
	conn := tx
	if conn == nil {
		conn = r.client.DB().WithContext(ctx)
	}
	row := models.AuditEntry{
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Action:     e.Action,
		Field:      optional(e.Field),
		OldValue:   optional(e.OldValue),
		NewValue:   optional(e.NewValue),
		Note:       optional(e.Note),
		UserID:     e.ActorID,
		CreatedAt:  r.now().UTC(),
	}
	if err := conn.Create(&row).Error; err != nil {
		return errors.Wrap(errors.CodeDependency, err, "audit: inserting entry")
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *gormRecorder) ListByEntity(ctx context.Context, entityType string, entityID int64, limit, offset int) ([]models.AuditEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []models.AuditEntry
	err := r.client.DB().WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC, id_log DESC").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "audit: listing entries")
	}
	return rows, nil
}

// Noop discards every entry. Used when auditing is disabled.
type Noop struct{}

func (Noop) Record(context.Context, *gorm.DB, Entry) error { return nil }

func (Noop) ListByEntity(context.Context, string, int64, int, int) ([]models.AuditEntry, error) {
	return nil, nil
}
