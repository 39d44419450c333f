package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/api/responses"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/api/validators"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/registry"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/logger"
)

type registerTagRequest struct {
	UID         string  `json:"uid" validate:"required,min=8"`
	EquipmentID int64   `json:"equipmentId" validate:"required,gt=0"`
	TagCode     *string `json:"tagCode,omitempty" validate:"omitempty,min=4,max=32"`
	Notes       *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// RegisterTag links a physical tag to the equipment it travels with.
func RegisterTag(svc *registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerTagRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tag, err := svc.RegisterTag(r.Context(), registry.TagInput{
			UID:         req.UID,
			EquipmentID: req.EquipmentID,
			TagCode:     req.TagCode,
			Notes:       req.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, tag)
	}
}

func GetTag(svc *registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tag, err := svc.GetTag(r.Context(), chi.URLParam(r, "uid"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tag)
	}
}

func ListTags(svc *registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var equipmentID int64
		if raw := r.URL.Query().Get("equipmentId"); raw != "" {
			id, err := validators.PathID(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			equipmentID = id
		}
		rows, err := svc.ListTags(r.Context(), equipmentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func DeleteTag(svc *registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := chi.URLParam(r, "uid")
		if err := svc.DeleteTag(r.Context(), uid); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"uid": uid, "deleted": "true"})
	}
}

// ReserveTagCode hands the UI a short printable code not yet in use.
func ReserveTagCode(svc *registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, err := svc.ReserveTagCode(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"tagCode": code})
	}
}
