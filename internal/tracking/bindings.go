package tracking

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/audit"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/db/models"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/errors"
)

// Bind associates a tag UID with an order, closing any previously open
// association first so at most one open bind exists per UID. Re-binding a
// UID to the same order is allowed and leaves the UID pointing at that
// order, same as before.
func (s *Service) Bind(ctx context.Context, rawUID string, orderID int64, locationID *string) (*models.TagBinding, error) {
	uid, err := NormalizeUID(rawUID)
	if err != nil {
		return nil, err
	}
	sc, err := s.orderSchema(ctx)
	if err != nil {
		return nil, err
	}
	if !sc.hasBindings {
		return nil, errors.New(errors.CodePrecondition, "tag tracking table is not installed")
	}

	now := s.now().UTC().Truncate(time.Second)
	var binding models.TagBinding
	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.ensureOrderExists(tx, sc, orderID); err != nil {
			return err
		}
		res := tx.Model(&models.TagBinding{}).
			Where("uid = ? AND tipo = ? AND desvinculado_em IS NULL", uid, models.BindingTypeBind).
			Update("desvinculado_em", now)
		if res.Error != nil {
			return errors.Wrap(errors.CodeDependency, res.Error, "tracking: closing previous bind")
		}

		binding = models.TagBinding{
			UID: uid, OrderID: orderID, LocationID: locationID,
			Type: models.BindingTypeBind, EventAt: &now, BoundAt: &now,
		}
		if err := tx.Create(&binding).Error; err != nil {
			return errors.Wrap(errors.CodeDependency, err, "tracking: creating bind")
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			EntityType: "ordem", EntityID: orderID,
			Action: "tag_bind", Field: "uid", NewValue: uid,
			Note: fmt.Sprintf("RFID %s vinculada", uid),
		})
	})
	if err != nil {
		return nil, err
	}
	return &binding, nil
}

// Unbind closes the open association of a UID. Unbinding a tag that has no
// open bind is a not-found error, not a silent success.
func (s *Service) Unbind(ctx context.Context, rawUID string) (*models.TagBinding, error) {
	uid, err := NormalizeUID(rawUID)
	if err != nil {
		return nil, err
	}
	sc, err := s.orderSchema(ctx)
	if err != nil {
		return nil, err
	}
	if !sc.hasBindings {
		return nil, errors.New(errors.CodePrecondition, "tag tracking table is not installed")
	}

	now := s.now().UTC().Truncate(time.Second)
	var binding models.TagBinding
	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		err := tx.Where("uid = ? AND tipo = ? AND desvinculado_em IS NULL", uid, models.BindingTypeBind).
			Order("COALESCE(vinculado_em, evento_em) DESC").
			First(&binding).Error
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New(errors.CodeNotFound, fmt.Sprintf("tag %s has no open bind", uid))
		}
		if err != nil {
			return errors.Wrap(errors.CodeDependency, err, "tracking: loading bind")
		}
		binding.UnboundAt = &now
		if err := tx.Save(&binding).Error; err != nil {
			return errors.Wrap(errors.CodeDependency, err, "tracking: closing bind")
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			EntityType: "ordem", EntityID: binding.OrderID,
			Action: "tag_unbind", Field: "uid", OldValue: uid,
			Note: fmt.Sprintf("RFID %s desvinculada", uid),
		})
	})
	if err != nil {
		return nil, err
	}
	return &binding, nil
}

// CurrentBind returns the open association of a UID, if any.
func (s *Service) CurrentBind(ctx context.Context, rawUID string) (*models.TagBinding, error) {
	uid, err := NormalizeUID(rawUID)
	if err != nil {
		return nil, err
	}
	var binding models.TagBinding
	err = s.client.DB().WithContext(ctx).
		Where("uid = ? AND tipo = ? AND desvinculado_em IS NULL", uid, models.BindingTypeBind).
		Order("COALESCE(vinculado_em, evento_em) DESC").
		First(&binding).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New(errors.CodeNotFound, fmt.Sprintf("tag %s has no open bind", uid))
	}
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "tracking: loading bind")
	}
	return &binding, nil
}

// BindingFilter narrows ListBindings. Zero values mean "no filter".
type BindingFilter struct {
	UID     string
	OrderID int64
	Type    string
	Limit   int
	Offset  int
}

// ListBindings returns the tracking log, newest first.
func (s *Service) ListBindings(ctx context.Context, f BindingFilter) ([]models.TagBinding, error) {
	q := s.client.DB().WithContext(ctx).Model(&models.TagBinding{})
	if f.UID != "" {
		uid, err := NormalizeUID(f.UID)
		if err != nil {
			return nil, err
		}
		q = q.Where("uid = ?", uid)
	}
	if f.OrderID > 0 {
		q = q.Where("id_os = ?", f.OrderID)
	}
	if f.Type != "" {
		q = q.Where("tipo = ?", f.Type)
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows []models.TagBinding
	err := q.Order("id_log DESC").Limit(limit).Offset(f.Offset).Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "tracking: listing bindings")
	}
	return rows, nil
}

func (s *Service) ensureOrderExists(tx *gorm.DB, sc orderSchema, orderID int64) error {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", sc.pk, sc.table, sc.pk)
	args := []any{orderID}
	if sc.activeCol != "" {
		query += fmt.Sprintf(" AND %s = ?", sc.activeCol)
		args = append(args, "ativo")
	}
	var id sql.NullInt64
	if err := tx.Raw(query, args...).Row().Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return errors.New(errors.CodeNotFound, fmt.Sprintf("active order %d not found", orderID))
		}
		return errors.Wrap(errors.CodeDependency, err, "tracking: checking order")
	}
	return nil
}
