package db

import "context"

// RetryOnUniqueViolation reruns fn while it fails on the named unique
// constraint, up to attempts times. fn must open its own transaction so each
// attempt starts clean.
func RetryOnUniqueViolation(ctx context.Context, attempts int, constraintName string, fn func() error) error {
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = fn()
		if err == nil || !IsUniqueViolation(err, constraintName) {
			return err
		}
	}
	return err
}
