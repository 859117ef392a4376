// Package contention reintenta operaciones transaccionales que fallan por bloqueo
// (lock timeout, deadlock o serialización). La tx fallida ya hizo rollback, así que repetirla es seguro.
package contention

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/jhoicas/backoffice-api/internal/domain"
)

// Policy reintentos adicionales y paso del backoff lineal (intento n espera n*Backoff).
type Policy struct {
	MaxRetries int
	Backoff    time.Duration
}

// DefaultPolicy la que usa el catálogo si no se configura otra.
var DefaultPolicy = Policy{MaxRetries: 3, Backoff: 50 * time.Millisecond}

// Do ejecuta fn y la repite ante domain.ErrContention. onContention (puede ser nil) se invoca
// en cada contención, incluida la última. Agotados los reintentos devuelve el ErrContention original.
func (p Policy) Do(ctx context.Context, log zerolog.Logger, op string, onContention func(), fn func() error) error {
	return retry.Do(ctx, p.backoff(log, op), func(context.Context) error {
		err := fn()
		if err == nil || !errors.Is(err, domain.ErrContention) {
			return err
		}
		if onContention != nil {
			onContention()
		}
		return retry.RetryableError(err)
	})
}

func (p Policy) backoff(log zerolog.Logger, op string) retry.Backoff {
	attempt := 0
	linear := retry.BackoffFunc(func() (time.Duration, bool) {
		attempt++
		wait := time.Duration(attempt) * p.Backoff
		log.Warn().Str("op", op).Int("attempt", attempt).Dur("backoff", wait).Msg("contención, reintentando")
		return wait, false
	})
	return retry.WithMaxRetries(uint64(max(p.MaxRetries, 0)), linear)
}
