package controllers

import (
	"net/http"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/api/responses"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/api/validators"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/tracking"
	pkgerrors "github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/errors"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/logger"
)

type bindRequest struct {
	UID        string  `json:"uid" validate:"required,min=8"`
	OrderID    int64   `json:"orderId" validate:"required,gt=0"`
	LocationID *string `json:"locationId,omitempty" validate:"omitempty,min=1"`
}

type unbindRequest struct {
	UID string `json:"uid" validate:"required,min=8"`
}

// BindTag attaches a tag to an order, closing any previous open bind for
// the same tag.
func BindTag(svc *tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bindRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		binding, err := svc.Bind(r.Context(), req.UID, req.OrderID, req.LocationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, binding)
	}
}

// UnbindTag closes the open bind of a tag.
func UnbindTag(svc *tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req unbindRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		binding, err := svc.Unbind(r.Context(), req.UID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, binding)
	}
}

// CurrentBind returns the open bind for a tag, if any.
func CurrentBind(svc *tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := r.URL.Query().Get("uid")
		if uid == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "uid query parameter is required"))
			return
		}
		binding, err := svc.CurrentBind(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, binding)
	}
}

// ListBindings returns the movement log filtered by uid, order or type.
func ListBindings(svc *tracking.Service, logg *logger.Logger) http.HandlerFunc {
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
		filter := tracking.BindingFilter{
			UID:    r.URL.Query().Get("uid"),
			Type:   r.URL.Query().Get("type"),
			Limit:  limit,
			Offset: offset,
		}
		if raw := r.URL.Query().Get("orderId"); raw != "" {
			id, err := validators.PathID(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			filter.OrderID = id
		}
		rows, err := svc.ListBindings(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
