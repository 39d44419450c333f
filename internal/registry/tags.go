package registry

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/audit"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/tracking"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/db"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/db/models"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/errors"
)

// Service manages the master data end of the shop: RFID tags, customers,
// equipment and technicians.
type Service struct {
	client *db.Client
	audit  audit.Recorder
}

func NewService(client *db.Client, recorder audit.Recorder) (*Service, error) {
	if client == nil {
		return nil, errors.New(errors.CodeInternal, "registry: db client is required")
	}
	if recorder == nil {
		recorder = audit.Noop{}
	}
	return &Service{client: client, audit: recorder}, nil
}

type TagInput struct {
	UID         string
	EquipmentID int64
	TagCode     *string
	Notes       *string
}

// RegisterTag points a physical tag at the equipment it travels with.
// Registering an already known UID re-points it.
func (s *Service) RegisterTag(ctx context.Context, in TagInput) (*models.Tag, error) {
	uid, err := tracking.NormalizeUID(in.UID)
	if err != nil {
		return nil, err
	}
	if in.EquipmentID <= 0 {
		return nil, errors.New(errors.CodeValidation, "equipment id is required")
	}

	var tag models.Tag
	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Equipment{}).
			Where("id_equipamento = ?", in.EquipmentID).Count(&count).Error; err != nil {
			return errors.Wrap(errors.CodeDependency, err, "registry: checking equipment")
		}
		if count == 0 {
			return errors.New(errors.CodeNotFound, fmt.Sprintf("equipment %d not found", in.EquipmentID))
		}

		err := tx.Where("uid_hex = ?", uid).First(&tag).Error
		switch {
		case stderrors.Is(err, gorm.ErrRecordNotFound):
			tag = models.Tag{UID: uid, EquipmentID: in.EquipmentID, TagCode: in.TagCode, Notes: in.Notes}
			if err := tx.Create(&tag).Error; err != nil {
				return errors.Wrap(errors.CodeDependency, err, "registry: creating tag")
			}
		case err != nil:
			return errors.Wrap(errors.CodeDependency, err, "registry: loading tag")
		default:
			tag.EquipmentID = in.EquipmentID
			if in.TagCode != nil {
				tag.TagCode = in.TagCode
			}
			if in.Notes != nil {
				tag.Notes = in.Notes
			}
			if err := tx.Save(&tag).Error; err != nil {
				return errors.Wrap(errors.CodeDependency, err, "registry: updating tag")
			}
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			EntityType: "equipamento", EntityID: in.EquipmentID,
			Action: "tag_register", Field: "uid_hex", NewValue: uid,
		})
	})
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

func (s *Service) GetTag(ctx context.Context, rawUID string) (*models.Tag, error) {
	uid, err := tracking.NormalizeUID(rawUID)
	if err != nil {
		return nil, err
	}
	var tag models.Tag
	err = s.client.DB().WithContext(ctx).First(&tag, "uid_hex = ?", uid).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New(errors.CodeNotFound, "tag not registered")
	}
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "registry: loading tag")
	}
	return &tag, nil
}

func (s *Service) ListTags(ctx context.Context, equipmentID int64) ([]models.Tag, error) {
	q := s.client.DB().WithContext(ctx).Model(&models.Tag{})
	if equipmentID > 0 {
		q = q.Where("id_equipamento = ?", equipmentID)
	}
	var rows []models.Tag
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "registry: listing tags")
	}
	return rows, nil
}

func (s *Service) DeleteTag(ctx context.Context, rawUID string) error {
	uid, err := tracking.NormalizeUID(rawUID)
	if err != nil {
		return err
	}
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		var tag models.Tag
		err := tx.Where("uid_hex = ?", uid).First(&tag).Error
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New(errors.CodeNotFound, "tag not registered")
		}
		if err != nil {
			return errors.Wrap(errors.CodeDependency, err, "registry: loading tag")
		}
		if err := tx.Delete(&tag).Error; err != nil {
			return errors.Wrap(errors.CodeDependency, err, "registry: deleting tag")
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			EntityType: "equipamento", EntityID: tag.EquipmentID,
			Action: "tag_remove", Field: "uid_hex", OldValue: uid,
		})
	})
}

// ReserveTagCode allocates a short printable code not yet taken by any
// tag. The code is later submitted together with the UID when the tag is
// physically written.
func (s *Service) ReserveTagCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			return "", errors.Wrap(errors.CodeInternal, err, "registry: generating tag code")
		}
		code := strings.ToUpper(hex.EncodeToString(buf))
		var count int64
		err := s.client.DB().WithContext(ctx).Model(&models.Tag{}).
			Where("tag_code = ?", code).Count(&count).Error
		if err != nil {
			return "", errors.Wrap(errors.CodeDependency, err, "registry: checking tag code")
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", errors.New(errors.CodeInternal, "registry: could not allocate a unique tag code")
}
