package readers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/audit"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/config"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/db"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/db/models"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/errors"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/security"
)

const statusActive = "ativo"
const statusInactive = "inativo"

// Identity is what a successfully authenticated device is allowed to act
// as: its code plus the scanner id of the location it reports for.
type Identity struct {
	Code      string
	ScannerID string
}

// Service manages scan devices and their API keys.
type Service struct {
	client *db.Client
	keys   config.ReaderKeyConfig
	audit  audit.Recorder
	now    func() time.Time
}

func NewService(client *db.Client, keys config.ReaderKeyConfig, recorder audit.Recorder) (*Service, error) {
	if client == nil {
		return nil, errors.New(errors.CodeInternal, "readers: db client is required")
	}
	if recorder == nil {
		recorder = audit.Noop{}
	}
	return &Service{client: client, keys: keys, audit: recorder, now: time.Now}, nil
}

type UpsertInput struct {
	Code       string
	Name       *string
	ScannerID  *string
	LocationID *int64
}

// Registered is the result of creating or rotating a reader. Key carries
// the plaintext API key exactly once; only its hash is stored.
type Registered struct {
	Reader models.Reader
	Key    string
}

// Upsert registers a device or updates its location assignment. A brand
// new reader gets a fresh key; existing readers keep theirs.
func (s *Service) Upsert(ctx context.Context, in UpsertInput) (*Registered, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" {
		return nil, errors.New(errors.CodeValidation, "reader code is required")
	}

	var out Registered
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		var reader models.Reader
		err := tx.Where("codigo = ?", code).First(&reader).Error
		switch {
		case stderrors.Is(err, gorm.ErrRecordNotFound):
			key, hash, genErr := s.newKey()
			if genErr != nil {
				return genErr
			}
			reader = models.Reader{
				Code: code, Name: in.Name,
				ScannerID: in.ScannerID, LocationID: in.LocationID,
				APIKeyHash: hash, Active: statusActive,
			}
			if err := tx.Create(&reader).Error; err != nil {
				return errors.Wrap(errors.CodeDependency, err, "readers: creating reader")
			}
			out.Key = key
		case err != nil:
			return errors.Wrap(errors.CodeDependency, err, "readers: loading reader")
		default:
			if in.Name != nil {
				reader.Name = in.Name
			}
			if in.ScannerID != nil {
				reader.ScannerID = in.ScannerID
			}
			if in.LocationID != nil {
				reader.LocationID = in.LocationID
			}
			reader.Active = statusActive
			if err := tx.Save(&reader).Error; err != nil {
				return errors.Wrap(errors.CodeDependency, err, "readers: updating reader")
			}
		}
		out.Reader = reader
		return s.audit.Record(ctx, tx, audit.Entry{
			EntityType: "local", EntityID: reader.ID, Action: "reader_upsert",
			NewValue: code,
		})
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetKey rotates the API key of a reader and returns the new plaintext.
func (s *Service) ResetKey(ctx context.Context, code string) (*Registered, error) {
	var out Registered
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		var reader models.Reader
		err := tx.Where("codigo = ?", code).First(&reader).Error
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New(errors.CodeNotFound, fmt.Sprintf("reader %q not found", code))
		}
		if err != nil {
			return errors.Wrap(errors.CodeDependency, err, "readers: loading reader")
		}
		key, hash, genErr := s.newKey()
		if genErr != nil {
			return genErr
		}
		reader.APIKeyHash = hash
		if err := tx.Save(&reader).Error; err != nil {
			return errors.Wrap(errors.CodeDependency, err, "readers: saving key")
		}
		out = Registered{Reader: reader, Key: key}
		return s.audit.Record(ctx, tx, audit.Entry{
			EntityType: "local", EntityID: reader.ID, Action: "reader_key_reset",
			NewValue: code,
		})
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Authenticate checks a code/key pair and resolves the scanner id the
// device reports for. A reader may carry the scanner id directly or point
// at a location row.
func (s *Service) Authenticate(ctx context.Context, code, key string) (*Identity, error) {
	if strings.TrimSpace(code) == "" || strings.TrimSpace(key) == "" {
		return nil, errors.New(errors.CodeUnauthorized, "reader credentials required")
	}
	var reader models.Reader
	err := s.client.DB().WithContext(ctx).Where("codigo = ? AND status = ?", code, statusActive).First(&reader).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New(errors.CodeUnauthorized, "unknown reader")
	}
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "readers: loading reader")
	}
	ok, err := security.VerifyKey(key, reader.APIKeyHash)
	if err != nil || !ok {
		return nil, errors.New(errors.CodeUnauthorized, "invalid reader key")
	}

	identity := Identity{Code: reader.Code}
	if reader.ScannerID != nil && *reader.ScannerID != "" {
		identity.ScannerID = *reader.ScannerID
	} else if reader.LocationID != nil {
		var loc models.Location
		err := s.client.DB().WithContext(ctx).First(&loc, "id_local = ?", *reader.LocationID).Error
		if err == nil {
			identity.ScannerID = loc.ScannerID
		}
	}
	return &identity, nil
}

func (s *Service) List(ctx context.Context, includeInactive bool) ([]models.Reader, error) {
	q := s.client.DB().WithContext(ctx).Model(&models.Reader{})
	if !includeInactive {
		q = q.Where("status = ?", statusActive)
	}
	var rows []models.Reader
	if err := q.Order("codigo ASC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "readers: listing readers")
	}
	return rows, nil
}

func (s *Service) Deactivate(ctx context.Context, code string) error {
	res := s.client.DB().WithContext(ctx).Model(&models.Reader{}).
		Where("codigo = ?", code).Update("status", statusInactive)
	if res.Error != nil {
		return errors.Wrap(errors.CodeDependency, res.Error, "readers: deactivating reader")
	}
	if res.RowsAffected == 0 {
		return errors.New(errors.CodeNotFound, fmt.Sprintf("reader %q not found", code))
	}
	return nil
}

// TouchLastSeen records the most recent UID a reader scanned. Last write
// wins; failures here never block the scan itself.
func (s *Service) TouchLastSeen(ctx context.Context, readerCode, uid string) error {
	row := models.LastSeenUID{ReaderCode: readerCode, UID: uid, SeenAt: s.now().UTC()}
	err := s.client.DB().WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "leitor_codigo"}},
		DoUpdates: clause.AssignmentColumns([]string{"uid", "lido_em"}),
	}).Create(&row).Error
	if err != nil {
		return errors.Wrap(errors.CodeDependency, err, "readers: saving last uid")
	}
	return nil
}

// LastSeen returns the latest UID a reader scanned within maxAge.
func (s *Service) LastSeen(ctx context.Context, readerCode string, maxAge time.Duration) (*models.LastSeenUID, error) {
	var row models.LastSeenUID
	err := s.client.DB().WithContext(ctx).Where("leitor_codigo = ?", readerCode).First(&row).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New(errors.CodeNotFound, "no recent scan for reader")
	}
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "readers: loading last uid")
	}
	if maxAge > 0 && s.now().Sub(row.SeenAt) > maxAge {
		return nil, errors.New(errors.CodeNotFound, "last scan is too old")
	}
	return &row, nil
}

func (s *Service) newKey() (plaintext, hash string, err error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", "", errors.Wrap(errors.CodeInternal, err, "readers: generating key")
	}
	plaintext = hex.EncodeToString(buf)
	hash, err = security.HashKey(plaintext, s.keys)
	if err != nil {
		return "", "", errors.Wrap(errors.CodeInternal, err, "readers: hashing key")
	}
	return plaintext, hash, nil
}
