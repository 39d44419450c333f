package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/api/responses"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/readers"
	pkgerrors "github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/errors"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/logger"
)

const (
	readerCodeHeader = "X-Reader-Code"
	readerKeyHeader  = "X-Reader-Key"
)

type readerAuthenticator interface {
	Authenticate(ctx context.Context, code, key string) (*readers.Identity, error)
}

// ReaderAuth validates the device headers and seeds the request context
// with the reader identity.
func ReaderAuth(svc readerAuthenticator, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := strings.TrimSpace(r.Header.Get(readerCodeHeader))
			key := strings.TrimSpace(r.Header.Get(readerKeyHeader))
			if code == "" || key == "" {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeUnauthorized, "reader credentials required"))
				return
			}

			identity, err := svc.Authenticate(r.Context(), code, key)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithReader(r.Context(), *identity)
			if logg != nil {
				ctx = logg.WithReader(ctx, identity.Code)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
