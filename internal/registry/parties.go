package registry

import (
	"context"
	stderrors "errors"
	"strings"

	"gorm.io/gorm"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/audit"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/db/models"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/errors"
)

const statusActive = "ativo"
const statusInactive = "inativo"

type CustomerInput struct {
	Name     string
	Document *string
	Phone    *string
	Mobile   *string
	Email    *string
}

func (s *Service) ListCustomers(ctx context.Context, search string, includeInactive bool) ([]models.Customer, error) {
	q := s.client.DB().WithContext(ctx).Model(&models.Customer{})
	if !includeInactive {
		q = q.Where("status = ?", statusActive)
	}
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(nome) LIKE ? OR cpf LIKE ?", like, "%"+search+"%")
	}
	var rows []models.Customer
	if err := q.Order("nome ASC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "registry: listing customers")
	}
	return rows, nil
}

func (s *Service) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	var row models.Customer
	err := s.client.DB().WithContext(ctx).First(&row, "id_cliente = ?", id).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New(errors.CodeNotFound, "customer not found")
	}
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "registry: loading customer")
	}
	return &row, nil
}

func (s *Service) CreateCustomer(ctx context.Context, in CustomerInput) (*models.Customer, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, errors.New(errors.CodeValidation, "customer name is required")
	}
	row := models.Customer{
		Name: strings.TrimSpace(in.Name), Document: in.Document,
		Phone: in.Phone, Mobile: in.Mobile, Email: in.Email,
		Active: statusActive,
	}
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return errors.Wrap(errors.CodeDependency, err, "registry: creating customer")
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			EntityType: "cliente", EntityID: row.ID, Action: "create", NewValue: row.Name,
		})
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, id int64, in CustomerInput) (*models.Customer, error) {
	var row models.Customer
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&row, "id_cliente = ?", id).Error; err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New(errors.CodeNotFound, "customer not found")
			}
			return errors.Wrap(errors.CodeDependency, err, "registry: loading customer")
		}
		if strings.TrimSpace(in.Name) != "" {
			row.Name = strings.TrimSpace(in.Name)
		}
		if in.Document != nil {
			row.Document = in.Document
		}
		if in.Phone != nil {
			row.Phone = in.Phone
		}
		if in.Mobile != nil {
			row.Mobile = in.Mobile
		}
		if in.Email != nil {
			row.Email = in.Email
		}
		if err := tx.Save(&row).Error; err != nil {
			return errors.Wrap(errors.CodeDependency, err, "registry: updating customer")
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			EntityType: "cliente", EntityID: row.ID, Action: "update",
		})
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Service) SetCustomerActive(ctx context.Context, id int64, active bool, reason string) error {
	return s.setPartyActive(ctx, "cliente", &models.Customer{}, "id_cliente", id, active, reason)
}

type EquipmentInput struct {
	CustomerID   int64
	Kind         string
	Brand        *string
	Model        *string
	SerialNumber *string
	Notes        *string
}

func (s *Service) ListEquipment(ctx context.Context, customerID int64, includeInactive bool) ([]models.Equipment, error) {
	q := s.client.DB().WithContext(ctx).Model(&models.Equipment{})
	if !includeInactive {
		q = q.Where("status = ?", statusActive)
	}
	if customerID > 0 {
		q = q.Where("id_cliente = ?", customerID)
	}
	var rows []models.Equipment
	if err := q.Order("id_equipamento DESC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "registry: listing equipment")
	}
	return rows, nil
}

func (s *Service) GetEquipment(ctx context.Context, id int64) (*models.Equipment, error) {
	var row models.Equipment
	err := s.client.DB().WithContext(ctx).First(&row, "id_equipamento = ?", id).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New(errors.CodeNotFound, "equipment not found")
	}
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "registry: loading equipment")
	}
	return &row, nil
}

func (s *Service) CreateEquipment(ctx context.Context, in EquipmentInput) (*models.Equipment, error) {
	if in.CustomerID <= 0 {
		return nil, errors.New(errors.CodeValidation, "customer id is required")
	}
	if strings.TrimSpace(in.Kind) == "" {
		return nil, errors.New(errors.CodeValidation, "equipment kind is required")
	}
	row := models.Equipment{
		CustomerID: in.CustomerID, Kind: strings.TrimSpace(in.Kind),
		Brand: in.Brand, Model: in.Model, SerialNumber: in.SerialNumber,
		Notes: in.Notes, Active: statusActive,
	}
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Customer{}).
			Where("id_cliente = ? AND status = ?", in.CustomerID, statusActive).
			Count(&count).Error; err != nil {
			return errors.Wrap(errors.CodeDependency, err, "registry: checking customer")
		}
		if count == 0 {
			return errors.New(errors.CodeValidation, "customer not found or inactive")
		}
		if err := tx.Create(&row).Error; err != nil {
			return errors.Wrap(errors.CodeDependency, err, "registry: creating equipment")
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			EntityType: "equipamento", EntityID: row.ID, Action: "create", NewValue: row.Kind,
		})
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Service) UpdateEquipment(ctx context.Context, id int64, in EquipmentInput) (*models.Equipment, error) {
	var row models.Equipment
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&row, "id_equipamento = ?", id).Error; err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New(errors.CodeNotFound, "equipment not found")
			}
			return errors.Wrap(errors.CodeDependency, err, "registry: loading equipment")
		}
		if strings.TrimSpace(in.Kind) != "" {
			row.Kind = strings.TrimSpace(in.Kind)
		}
		if in.Brand != nil {
			row.Brand = in.Brand
		}
		if in.Model != nil {
			row.Model = in.Model
		}
		if in.SerialNumber != nil {
			row.SerialNumber = in.SerialNumber
		}
		if in.Notes != nil {
			row.Notes = in.Notes
		}
		if err := tx.Save(&row).Error; err != nil {
			return errors.Wrap(errors.CodeDependency, err, "registry: updating equipment")
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			EntityType: "equipamento", EntityID: row.ID, Action: "update",
		})
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Service) SetEquipmentActive(ctx context.Context, id int64, active bool, reason string) error {
	return s.setPartyActive(ctx, "equipamento", &models.Equipment{}, "id_equipamento", id, active, reason)
}

type TechnicianInput struct {
	Name      string
	Document  *string
	Phone     *string
	Specialty *string
}

func (s *Service) ListTechnicians(ctx context.Context, includeInactive bool) ([]models.Technician, error) {
	q := s.client.DB().WithContext(ctx).Model(&models.Technician{})
	if !includeInactive {
		q = q.Where("status = ?", statusActive)
	}
	var rows []models.Technician
	if err := q.Order("nome ASC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "registry: listing technicians")
	}
	return rows, nil
}

func (s *Service) CreateTechnician(ctx context.Context, in TechnicianInput) (*models.Technician, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, errors.New(errors.CodeValidation, "technician name is required")
	}
	row := models.Technician{
		Name: strings.TrimSpace(in.Name), Document: in.Document,
		Phone: in.Phone, Specialty: in.Specialty, Active: statusActive,
	}
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return errors.Wrap(errors.CodeDependency, err, "registry: creating technician")
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			EntityType: "tecnico", EntityID: row.ID, Action: "create", NewValue: row.Name,
		})
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Service) UpdateTechnician(ctx context.Context, id int64, in TechnicianInput) (*models.Technician, error) {
	var row models.Technician
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&row, "id_tecnico = ?", id).Error; err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New(errors.CodeNotFound, "technician not found")
			}
			return errors.Wrap(errors.CodeDependency, err, "registry: loading technician")
		}
		if strings.TrimSpace(in.Name) != "" {
			row.Name = strings.TrimSpace(in.Name)
		}
		if in.Document != nil {
			row.Document = in.Document
		}
		if in.Phone != nil {
			row.Phone = in.Phone
		}
		if in.Specialty != nil {
			row.Specialty = in.Specialty
		}
		if err := tx.Save(&row).Error; err != nil {
			return errors.Wrap(errors.CodeDependency, err, "registry: updating technician")
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			EntityType: "tecnico", EntityID: row.ID, Action: "update",
		})
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Service) SetTechnicianActive(ctx context.Context, id int64, active bool, reason string) error {
	return s.setPartyActive(ctx, "tecnico", &models.Technician{}, "id_tecnico", id, active, reason)
}

func (s *Service) setPartyActive(ctx context.Context, entity string, model any, pkColumn string, id int64, active bool, reason string) error {
	next := statusInactive
	updates := map[string]any{"status": statusInactive}
	if active {
		next = statusActive
		updates = map[string]any{"status": statusActive, "motivo_inativacao": nil}
	} else if reason != "" {
		updates["motivo_inativacao"] = reason
	}
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		res := tx.Model(model).Where(pkColumn+" = ?", id).Updates(updates)
		if res.Error != nil {
			return errors.Wrap(errors.CodeDependency, res.Error, "registry: updating "+entity)
		}
		if res.RowsAffected == 0 {
			return errors.New(errors.CodeNotFound, entity+" not found")
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			EntityType: entity, EntityID: id, Action: "status_change",
			Field: "status", NewValue: next, Note: reason,
		})
	})
}
