package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/api/responses"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/api/validators"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/orders"
	pkgerrors "github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/errors"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/logger"
)

type createOrderRequest struct {
	CustomerID         int64  `json:"customerId" validate:"required,gt=0"`
	EquipmentID        int64  `json:"equipmentId" validate:"required,gt=0"`
	TechnicianID       *int64 `json:"technicianId,omitempty" validate:"omitempty,gt=0"`
	ProblemDescription string `json:"problemDescription" validate:"required,min=3,max=2000"`
	LocationID         string `json:"locationId" validate:"required,min=2,max=32"`
	StatusID           *int64 `json:"statusId,omitempty" validate:"omitempty,gt=0"`
}

type updateOrderRequest struct {
	TechnicianID       *int64  `json:"technicianId,omitempty" validate:"omitempty,gt=0"`
	ProblemDescription *string `json:"problemDescription,omitempty" validate:"omitempty,min=3,max=2000"`
	ServiceDescription *string `json:"serviceDescription,omitempty" validate:"omitempty,max=4000"`
	LocationID         *string `json:"locationId,omitempty" validate:"omitempty,min=2,max=32"`
	StatusID           *int64  `json:"statusId,omitempty" validate:"omitempty,gt=0"`
}

func ListOrders(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 500)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		includeInactive := validators.ParseQueryBool(r, "includeInactive")
		filter := orders.ListFilter{
			Search:          r.URL.Query().Get("search"),
			IncludeInactive: includeInactive,
			Limit:           limit,
			Offset:          offset,
		}
		for key, dst := range map[string]*int64{"statusId": &filter.StatusID, "customerId": &filter.CustomerID} {
			raw := r.URL.Query().Get(key)
			if raw == "" {
				continue
			}
			id, err := validators.PathID(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			*dst = id
		}
		rows, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// GetOrder returns an order with its current version in the ETag header
// so edits can be conditional.
func GetOrder(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.Header().Set("ETag", fmt.Sprintf("%q", strconv.FormatInt(order.Version, 10)))
		responses.WriteSuccess(w, order)
	}
}

func CreateOrder(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Create(r.Context(), orders.CreateInput{
			CustomerID:         req.CustomerID,
			EquipmentID:        req.EquipmentID,
			TechnicianID:       req.TechnicianID,
			ProblemDescription: req.ProblemDescription,
			LocationID:         req.LocationID,
			StatusID:           req.StatusID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// UpdateOrder applies a back-office edit. When If-Match carries a version
// the update is rejected with a conflict if the row moved on.
func UpdateOrder(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		in := orders.UpdateInput{
			TechnicianID:       req.TechnicianID,
			ProblemDescription: req.ProblemDescription,
			ServiceDescription: req.ServiceDescription,
			LocationID:         req.LocationID,
			StatusID:           req.StatusID,
		}
		if match := r.Header.Get("If-Match"); match != "" {
			version, err := parseVersionTag(match)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			in.ExpectedVersion = &version
		}
		order, err := svc.Update(r.Context(), id, in)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.Header().Set("ETag", fmt.Sprintf("%q", strconv.FormatInt(order.Version, 10)))
		responses.WriteSuccess(w, order)
	}
}

func DeleteOrder(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req deactivateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.SoftDelete(r.Context(), id, req.Reason); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"id": id, "status": "inativo"})
	}
}

func ReactivateOrder(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Reactivate(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"id": id, "status": "ativo"})
	}
}

func parseVersionTag(raw string) (int64, error) {
	trimmed := strings.Trim(strings.TrimSpace(raw), `"`)
	trimmed = strings.TrimPrefix(trimmed, "W/")
	trimmed = strings.Trim(trimmed, `"`)
	version, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || version < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "If-Match must carry a numeric version")
	}
	return version, nil
}
