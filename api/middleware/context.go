package middleware

import (
	"context"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/readers"
)

type contextKey string

const ctxReader contextKey = "reader"

// WithReader seeds the authenticated device identity.
func WithReader(ctx context.Context, id readers.Identity) context.Context {
	return context.WithValue(ctx, ctxReader, id)
}

// ReaderFromContext returns the authenticated device identity seeded by
// ReaderAuth.
func ReaderFromContext(ctx context.Context) (readers.Identity, bool) {
	id, ok := ctx.Value(ctxReader).(readers.Identity)
	return id, ok
}
