package domain

import (
	"context"

	"github.com/google/uuid"
)

// OperatorID identifies the authenticated operator that requested a scan.
// It is a thin wrapper around uuid.UUID to provide type safety at the domain layer.
type OperatorID uuid.UUID

// String returns the canonical UUID form.
func (id OperatorID) String() string { return uuid.UUID(id).String() }

type operatorKey struct{}

// WithOperator returns a context carrying the operator ID.
func WithOperator(ctx context.Context, id OperatorID) context.Context {
	return context.WithValue(ctx, operatorKey{}, id)
}

// OperatorFromContext returns the operator ID stored in ctx, if any.
func OperatorFromContext(ctx context.Context) (OperatorID, bool) {
	id, ok := ctx.Value(operatorKey{}).(OperatorID)

	return id, ok
}
