package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/api/responses"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/api/validators"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/readers"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/db/models"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/logger"
)

type upsertReaderRequest struct {
	Code       string  `json:"code" validate:"required,min=2,max=32"`
	Name       *string `json:"name,omitempty" validate:"omitempty,max=120"`
	ScannerID  *string `json:"scannerId,omitempty" validate:"omitempty,min=1,max=32"`
	LocationID *int64  `json:"locationId,omitempty" validate:"omitempty,gt=0"`
}

type registeredReaderResponse struct {
	Reader models.Reader `json:"reader"`
	Key    string        `json:"key,omitempty"`
}

// UpsertReader registers a scanning device or moves it to another
// location. The plaintext key appears in the response only when a new
// reader is created.
func UpsertReader(svc *readers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req upsertReaderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := svc.Upsert(r.Context(), readers.UpsertInput{
			Code:       req.Code,
			Name:       req.Name,
			ScannerID:  req.ScannerID,
			LocationID: req.LocationID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, registeredReaderResponse{Reader: out.Reader, Key: out.Key})
	}
}

// ResetReaderKey rotates the API key of a reader and returns the new
// plaintext exactly once.
func ResetReaderKey(svc *readers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		out, err := svc.ResetKey(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, registeredReaderResponse{Reader: out.Reader, Key: out.Key})
	}
}

// ListReaders returns registered devices.
func ListReaders(svc *readers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeInactive := validators.ParseQueryBool(r, "includeInactive")
		rows, err := svc.List(r.Context(), includeInactive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// DeactivateReader disables a device so its key stops authenticating.
func DeactivateReader(svc *readers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		if err := svc.Deactivate(r.Context(), code); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"code": code, "status": "inativo"})
	}
}
