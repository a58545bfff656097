package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/reelbase/reelbase-api/internal/api/metrics"
)

// HeaderIdempotencyKey lets a client make a mutating call safe to retry.
const HeaderIdempotencyKey = "Idempotency-Key"

const maxIdempotencyKeyLen = 255

// IdempotencyStore is implemented by the Redis-backed store.
type IdempotencyStore interface {
	Claim(ctx context.Context, scope, key string) (bool, error)
	Release(ctx context.Context, scope, key string) error
}

// Idempotency rejects a repeated Idempotency-Key from the same user with 409.
// It must run after Auth. Requests without the header, safe methods and a nil
// store pass straight through. A key whose request failed is released so the
// client can retry with it. When the store is unreachable the request is
// processed anyway.
func Idempotency(store IdempotencyStore, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get(HeaderIdempotencyKey)
			if store == nil || key == "" || !mutating(c.Request().Method) {
				return next(c)
			}
			if len(key) > maxIdempotencyKeyLen {
				return echo.NewHTTPError(http.StatusBadRequest, "Idempotency-Key is too long")
			}

			scope, _ := c.Get(ContextUserID).(string)
			if scope == "" {
				scope = "anonymous"
			}

			ctx := c.Request().Context()
			first, err := store.Claim(ctx, scope, key)
			if err != nil {
				metrics.IdempotencyChecksTotal.WithLabelValues("error").Inc()
				log.Warn().Err(err).Str("path", c.Path()).Msg("idempotency check failed, processing anyway")
				return next(c)
			}
			if !first {
				metrics.IdempotencyChecksTotal.WithLabelValues("hit").Inc()
				return echo.NewHTTPError(http.StatusConflict, "Duplicate request")
			}
			metrics.IdempotencyChecksTotal.WithLabelValues("miss").Inc()

			err = next(c)
			if err != nil || c.Response().Status >= http.StatusBadRequest {
				if relErr := store.Release(context.WithoutCancel(ctx), scope, key); relErr != nil {
					log.Warn().Err(relErr).Msg("failed to release idempotency key")
				}
			}
			return err
		}
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
