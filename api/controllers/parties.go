package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/api/responses"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/api/validators"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/registry"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/logger"
)

type customerRequest struct {
	Name     string  `json:"name" validate:"required,min=2,max=120"`
	Document *string `json:"document,omitempty" validate:"omitempty,min=11,max=18"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Mobile   *string `json:"mobile,omitempty" validate:"omitempty,max=20"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
}

func (req customerRequest) toInput() registry.CustomerInput {
	return registry.CustomerInput{
		Name: req.Name, Document: req.Document,
		Phone: req.Phone, Mobile: req.Mobile, Email: req.Email,
	}
}

type equipmentRequest struct {
	CustomerID   int64   `json:"customerId" validate:"required,gt=0"`
	Kind         string  `json:"kind" validate:"required,min=2,max=80"`
	Brand        *string `json:"brand,omitempty" validate:"omitempty,max=80"`
	Model        *string `json:"model,omitempty" validate:"omitempty,max=120"`
	SerialNumber *string `json:"serialNumber,omitempty" validate:"omitempty,max=80"`
	Notes        *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

func (req equipmentRequest) toInput() registry.EquipmentInput {
	return registry.EquipmentInput{
		CustomerID: req.CustomerID, Kind: req.Kind, Brand: req.Brand,
		Model: req.Model, SerialNumber: req.SerialNumber, Notes: req.Notes,
	}
}

type technicianRequest struct {
	Name      string  `json:"name" validate:"required,min=2,max=120"`
	Document  *string `json:"document,omitempty" validate:"omitempty,min=11,max=18"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Specialty *string `json:"specialty,omitempty" validate:"omitempty,max=80"`
}

func (req technicianRequest) toInput() registry.TechnicianInput {
	return registry.TechnicianInput{
		Name: req.Name, Document: req.Document,
		Phone: req.Phone, Specialty: req.Specialty,
	}
}

func ListCustomers(svc *registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeInactive := validators.ParseQueryBool(r, "includeInactive")
		rows, err := svc.ListCustomers(r.Context(), r.URL.Query().Get("search"), includeInactive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func GetCustomer(svc *registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := svc.GetCustomer(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

func CreateCustomer(svc *registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req customerRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := svc.CreateCustomer(r.Context(), req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, row)
	}
}

func UpdateCustomer(svc *registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req customerRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := svc.UpdateCustomer(r.Context(), id, req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

func DeactivateCustomer(svc *registry.Service, logg *logger.Logger) http.HandlerFunc {
	return setPartyActiveHandler(logg, false, svc.SetCustomerActive)
}

func ReactivateCustomer(svc *registry.Service, logg *logger.Logger) http.HandlerFunc {
	return setPartyActiveHandler(logg, true, svc.SetCustomerActive)
}

func ListEquipment(svc *registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeInactive := validators.ParseQueryBool(r, "includeInactive")
		var customerID int64
		if raw := r.URL.Query().Get("customerId"); raw != "" {
			id, err := validators.PathID(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			customerID = id
		}
		rows, err := svc.ListEquipment(r.Context(), customerID, includeInactive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func GetEquipment(svc *registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := svc.GetEquipment(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

func CreateEquipment(svc *registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req equipmentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := svc.CreateEquipment(r.Context(), req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, row)
	}
}

func UpdateEquipment(svc *registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req equipmentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := svc.UpdateEquipment(r.Context(), id, req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

func DeactivateEquipment(svc *registry.Service, logg *logger.Logger) http.HandlerFunc {
	return setPartyActiveHandler(logg, false, svc.SetEquipmentActive)
}

func ReactivateEquipment(svc *registry.Service, logg *logger.Logger) http.HandlerFunc {
	return setPartyActiveHandler(logg, true, svc.SetEquipmentActive)
}

func ListTechnicians(svc *registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeInactive := validators.ParseQueryBool(r, "includeInactive")
		rows, err := svc.ListTechnicians(r.Context(), includeInactive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func CreateTechnician(svc *registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req technicianRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := svc.CreateTechnician(r.Context(), req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, row)
	}
}

func UpdateTechnician(svc *registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req technicianRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := svc.UpdateTechnician(r.Context(), id, req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

func DeactivateTechnician(svc *registry.Service, logg *logger.Logger) http.HandlerFunc {
	return setPartyActiveHandler(logg, false, svc.SetTechnicianActive)
}

func ReactivateTechnician(svc *registry.Service, logg *logger.Logger) http.HandlerFunc {
	return setPartyActiveHandler(logg, true, svc.SetTechnicianActive)
}

// setPartyActiveHandler shares the activate/deactivate plumbing between
// customers, equipment and technicians. Deactivation requires a reason.
func setPartyActiveHandler(logg *logger.Logger, active bool, apply func(ctx context.Context, id int64, active bool, reason string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var reason string
		if !active {
			var req deactivateRequest
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			reason = req.Reason
		}
		if err := apply(r.Context(), id, active, reason); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := "inativo"
		if active {
			status = "ativo"
		}
		responses.WriteSuccess(w, map[string]any{"id": id, "status": status})
	}
}
