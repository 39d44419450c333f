package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/api/responses"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/api/validators"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/catalog"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/logger"
)

type locationRequest struct {
	ScannerID      string  `json:"scannerId" validate:"required,min=2,max=32"`
	Label          string  `json:"label" validate:"required,min=2,max=120"`
	InternalStatus *string `json:"internalStatus,omitempty" validate:"omitempty,max=60"`
}

func (req locationRequest) toInput() catalog.LocationInput {
	return catalog.LocationInput{
		ScannerID:      req.ScannerID,
		Label:          req.Label,
		InternalStatus: req.InternalStatus,
	}
}

type deactivateRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=200"`
}

// ListLocations returns physical spots of the shop floor.
func ListLocations(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeInactive := validators.ParseQueryBool(r, "includeInactive")
		rows, err := svc.ListLocations(r.Context(), catalog.ListLocationsFilter{
			Search:          r.URL.Query().Get("search"),
			IncludeInactive: includeInactive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func GetLocation(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		loc, err := svc.GetLocation(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, loc)
	}
}

func CreateLocation(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req locationRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		loc, err := svc.CreateLocation(r.Context(), req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, loc)
	}
}

func UpdateLocation(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req locationRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		loc, err := svc.UpdateLocation(r.Context(), id, req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, loc)
	}
}

// DeactivateLocation takes a spot out of rotation, keeping its history.
func DeactivateLocation(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
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
		if err := svc.DeactivateLocation(r.Context(), id, req.Reason); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"id": id, "status": catalog.StatusInactive})
	}
}

func ReactivateLocation(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.ReactivateLocation(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"id": id, "status": catalog.StatusActive})
	}
}

// ListStatuses returns the workflow catalog used by the board UI.
func ListStatuses(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.ListStatuses(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
