package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// Ctx retrieves the logger from the context.
// If no logger is found, the global logger is returned.
func Ctx(ctx context.Context) zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return l
	}
	return L()
}

// WithConnection derives a logger for a realtime connection and stores it in ctx.
func WithConnection(ctx context.Context, connID, organizationID, memberID string) context.Context {
	base := Ctx(ctx)
	child := base.With().
		Str(FieldConnID, connID).
		Str(FieldOrganizationID, organizationID).
		Str(FieldMemberID, memberID).
		Logger()
	return WithLogger(ctx, child)
}
