package controllers

import (
	"net/http"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/api/responses"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/config"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/db"
	pkgerrors "github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/errors"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/logger"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-SAT-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady answers ready only when the database responds.
func HealthReady(cfg *config.Config, pinger db.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-SAT-Env", cfg.App.Env)
		if err := pinger.Ping(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unreachable"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
