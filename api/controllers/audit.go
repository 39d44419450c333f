package controllers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/api/responses"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/api/validators"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/audit"
	pkgerrors "github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/errors"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/logger"
)

var auditEntities = map[string]bool{
	"ordem":       true,
	"cliente":     true,
	"equipamento": true,
	"local":       true,
	"tecnico":     true,
	"usuario":     true,
}

// AuditTrail returns the change history of one entity, newest first.
func AuditTrail(rec audit.Recorder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity := chi.URLParam(r, "entity")
		if !auditEntities[entity] {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("unknown audit entity %q", entity)))
			return
		}
		id, err := validators.PathID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := rec.ListByEntity(r.Context(), entity, id, limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
