package middleware

import "context"

// ctxKey is a typed context key; value returns the zero T when unset.
type ctxKey[T any] struct{ name string }

func (k ctxKey[T]) value(ctx context.Context) T {
	var zero T
	if ctx == nil {
		return zero
	}
	if v, ok := ctx.Value(k).(T); ok {
		return v
	}
	return zero
}

var (
	ctxOwnerID = ctxKey[string]{"owner_id"}
	ctxTokenID = ctxKey[string]{"token_id"}
)

// OwnerIDFromContext returns the authenticated contractor id, or "".
func OwnerIDFromContext(ctx context.Context) string { return ctxOwnerID.value(ctx) }

func TokenIDFromContext(ctx context.Context) string { return ctxTokenID.value(ctx) }

// WithOwnerID is used by tests and internal callers that bypass Auth.
func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxOwnerID, ownerID)
}
