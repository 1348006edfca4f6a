package db

import (
	"context"
	"time"

	"predpraznik_backend/platform/apperr"

	"github.com/sethvargo/go-retry"
)

const (
	retryBaseDelay  = 100 * time.Millisecond
	retryMaxRetries = 3
)

// Retry runs fn with exponential backoff. Only transient failures are retried;
// permission and auth errors, and every other kind, return immediately.
func Retry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(retryMaxRetries, retry.NewExponential(retryBaseDelay))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if apperr.Is(err, apperr.KindTransient) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// RetryValue is Retry for functions returning a value.
func RetryValue[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := Retry(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
