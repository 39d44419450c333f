package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/api/middleware"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/api/responses"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/api/validators"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/readers"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/tracking"
	pkgerrors "github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/errors"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/logger"
)

type scanRequest struct {
	UID string `json:"uid" validate:"required,min=8"`
}

// ScanEvent handles a tag read reported by an authenticated device and
// runs the full movement pipeline.
func ScanEvent(svc *tracking.Service, readersSvc *readers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middleware.ReaderFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "reader context missing"))
			return
		}

		var req scanRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if uid, err := tracking.NormalizeUID(req.UID); err == nil {
			if err := readersSvc.TouchLastSeen(r.Context(), identity.Code, uid); err != nil {
				logg.Warn(r.Context(), "scan: recording last uid failed")
			}
		}

		result, err := svc.ProcessEvent(r.Context(), tracking.EventInput{
			UID: req.UID,
			Reader: tracking.ReaderIdentity{
				Code:      identity.Code,
				ScannerID: identity.ScannerID,
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// PushUID stores a read without moving anything, so the UI can auto-fill
// the UID field while registering tags.
func PushUID(readersSvc *readers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middleware.ReaderFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "reader context missing"))
			return
		}

		var req scanRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		uid, err := tracking.NormalizeUID(req.UID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := readersSvc.TouchLastSeen(r.Context(), identity.Code, uid); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"uid": uid, "reader": identity.Code})
	}
}

// LastUID returns the most recent scan of a reader for UI auto-fill.
func LastUID(readersSvc *readers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.TrimSpace(r.URL.Query().Get("reader"))
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "reader query parameter is required"))
			return
		}
		maxAgeSeconds, err := validators.ParseQueryInt(r, "maxAge", 15, 1, 3600)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := readersSvc.LastSeen(r.Context(), code, time.Duration(maxAgeSeconds)*time.Second)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}
