package catalog

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/audit"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/db"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/db/models"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/errors"
)

const StatusActive = "ativo"
const StatusInactive = "inativo"

// Service resolves scanner ids to locations and workflow statuses, and
// manages the location registry.
type Service struct {
	client   *db.Client
	audit    audit.Recorder
	fallback map[string]int64
}

func NewService(client *db.Client, recorder audit.Recorder, statusFallback map[string]int64) (*Service, error) {
	if client == nil {
		return nil, errors.New(errors.CodeInternal, "catalog: db client is required")
	}
	if recorder == nil {
		recorder = audit.Noop{}
	}
	return &Service{client: client, audit: recorder, fallback: statusFallback}, nil
}

// ResolveByScanner returns the active location registered for a scanner id.
func (s *Service) ResolveByScanner(ctx context.Context, tx *gorm.DB, scannerID string) (*models.Location, error) {
	conn := tx
	if conn == nil {
		conn = s.client.DB().WithContext(ctx)
	}
	var loc models.Location
	err := conn.Where("id_scanner = ?", scannerID).First(&loc).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New(errors.CodeNotFound, fmt.Sprintf("location %q is not registered", scannerID))
	}
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "catalog: loading location")
	}
	if loc.Active != StatusActive {
		return nil, errors.New(errors.CodePrecondition, fmt.Sprintf("location %q is inactive", scannerID))
	}
	return &loc, nil
}

// StatusIDForLocation maps a location to a workflow status id. Order of
// preference: the location's internal status label matched against
// status_os descriptions, then the configured scanner fallback map. Both
// misses return (nil, nil): callers keep the order's current status.
func (s *Service) StatusIDForLocation(ctx context.Context, tx *gorm.DB, loc *models.Location) (*int64, error) {
	conn := tx
	if conn == nil {
		conn = s.client.DB().WithContext(ctx)
	}
	if loc.InternalStatus != nil && strings.TrimSpace(*loc.InternalStatus) != "" {
		var st models.WorkflowStatus
		err := conn.Where("descricao = ?", strings.TrimSpace(*loc.InternalStatus)).First(&st).Error
		if err == nil {
			return &st.ID, nil
		}
		if !stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(errors.CodeDependency, err, "catalog: resolving status label")
		}
	}
	if id, ok := s.fallback[strings.ToUpper(loc.ScannerID)]; ok {
		return &id, nil
	}
	return nil, nil
}

type ListLocationsFilter struct {
	Search          string
	IncludeInactive bool
}

func (s *Service) ListLocations(ctx context.Context, f ListLocationsFilter) ([]models.Location, error) {
	q := s.client.DB().WithContext(ctx).Model(&models.Location{})
	if !f.IncludeInactive {
		q = q.Where("status = ?", StatusActive)
	}
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("LOWER(local_instalado) LIKE ? OR LOWER(id_scanner) LIKE ?", like, like)
	}
	var rows []models.Location
	if err := q.Order("id_local ASC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "catalog: listing locations")
	}
	return rows, nil
}

func (s *Service) GetLocation(ctx context.Context, id int64) (*models.Location, error) {
	var loc models.Location
	err := s.client.DB().WithContext(ctx).First(&loc, "id_local = ?", id).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New(errors.CodeNotFound, "location not found")
	}
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "catalog: loading location")
	}
	return &loc, nil
}

type LocationInput struct {
	ScannerID      string
	Label          string
	InternalStatus *string
}

func (s *Service) CreateLocation(ctx context.Context, in LocationInput) (*models.Location, error) {
	loc := models.Location{
		ScannerID:      strings.ToUpper(strings.TrimSpace(in.ScannerID)),
		Label:          strings.TrimSpace(in.Label),
		InternalStatus: in.InternalStatus,
		Active:         StatusActive,
	}
	if loc.ScannerID == "" || loc.Label == "" {
		return nil, errors.New(errors.CodeValidation, "scanner id and label are required")
	}
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Location{}).Where("id_scanner = ?", loc.ScannerID).Count(&count).Error; err != nil {
			return errors.Wrap(errors.CodeDependency, err, "catalog: checking scanner id")
		}
		if count > 0 {
			return errors.New(errors.CodeConflict, fmt.Sprintf("scanner id %q already registered", loc.ScannerID))
		}
		if err := tx.Create(&loc).Error; err != nil {
			return errors.Wrap(errors.CodeDependency, err, "catalog: creating location")
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			EntityType: "local", EntityID: loc.ID, Action: "create",
			NewValue: loc.Label,
		})
	})
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

func (s *Service) UpdateLocation(ctx context.Context, id int64, in LocationInput) (*models.Location, error) {
	var loc models.Location
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&loc, "id_local = ?", id).Error; err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New(errors.CodeNotFound, "location not found")
			}
			return errors.Wrap(errors.CodeDependency, err, "catalog: loading location")
		}
		old := loc.Label
		if in.Label != "" {
			loc.Label = strings.TrimSpace(in.Label)
		}
		if in.InternalStatus != nil {
			loc.InternalStatus = in.InternalStatus
		}
		if err := tx.Save(&loc).Error; err != nil {
			return errors.Wrap(errors.CodeDependency, err, "catalog: updating location")
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			EntityType: "local", EntityID: loc.ID, Action: "update",
			Field: "local_instalado", OldValue: old, NewValue: loc.Label,
		})
	})
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

func (s *Service) DeactivateLocation(ctx context.Context, id int64, reason string) error {
	return s.setLocationActive(ctx, id, false, reason)
}

func (s *Service) ReactivateLocation(ctx context.Context, id int64) error {
	return s.setLocationActive(ctx, id, true, "")
}

func (s *Service) setLocationActive(ctx context.Context, id int64, active bool, reason string) error {
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		var loc models.Location
		if err := tx.First(&loc, "id_local = ?", id).Error; err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New(errors.CodeNotFound, "location not found")
			}
			return errors.Wrap(errors.CodeDependency, err, "catalog: loading location")
		}
		old := loc.Active
		if active {
			loc.Active = StatusActive
			loc.DeactivationReason = nil
		} else {
			loc.Active = StatusInactive
			if reason != "" {
				loc.DeactivationReason = &reason
			}
		}
		if err := tx.Save(&loc).Error; err != nil {
			return errors.Wrap(errors.CodeDependency, err, "catalog: updating location")
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			EntityType: "local", EntityID: loc.ID, Action: "status_change",
			Field: "status", OldValue: old, NewValue: loc.Active, Note: reason,
		})
	})
}

// ListStatuses returns the workflow steps in id order.
func (s *Service) ListStatuses(ctx context.Context) ([]models.WorkflowStatus, error) {
	var rows []models.WorkflowStatus
	if err := s.client.DB().WithContext(ctx).Order("id_status ASC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "catalog: listing statuses")
	}
	return rows, nil
}

// StatusByDescription does an exact match lookup on status_os.
func (s *Service) StatusByDescription(ctx context.Context, tx *gorm.DB, description string) (*models.WorkflowStatus, error) {
	conn := tx
	if conn == nil {
		conn = s.client.DB().WithContext(ctx)
	}
	var st models.WorkflowStatus
	err := conn.Where("descricao = ?", description).First(&st).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New(errors.CodeNotFound, fmt.Sprintf("status %q not found", description))
	}
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "catalog: loading status")
	}
	return &st, nil
}
