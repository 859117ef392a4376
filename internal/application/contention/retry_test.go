package contention

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/backoffice-api/internal/domain"
)

func busy() error { return fmt.Errorf("%w: lock timeout", domain.ErrContention) }

func TestDo_ContencionTransitoriaSeReintenta(t *testing.T) {
	p := Policy{MaxRetries: 3, Backoff: time.Millisecond}
	calls, seen := 0, 0

	err := p.Do(context.Background(), zerolog.Nop(), "test", func() { seen++ }, func() error {
		calls++
		if calls < 3 {
			return busy()
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, seen)
}

func TestDo_AgotaReintentosYDevuelveContencion(t *testing.T) {
	p := Policy{MaxRetries: 2, Backoff: time.Millisecond}
	calls, seen := 0, 0

	err := p.Do(context.Background(), zerolog.Nop(), "test", func() { seen++ }, func() error {
		calls++
		return busy()
	})
	require.ErrorIs(t, err, domain.ErrContention)
	assert.Equal(t, 3, calls, "intento original más dos reintentos")
	assert.Equal(t, 3, seen)
	assert.NotContains(t, err.Error(), "retryable")
}

func TestDo_SinReintentos(t *testing.T) {
	calls := 0
	err := Policy{}.Do(context.Background(), zerolog.Nop(), "test", nil, func() error {
		calls++
		return busy()
	})
	require.ErrorIs(t, err, domain.ErrContention)
	assert.Equal(t, 1, calls)
}

func TestDo_OtrosErroresNoSeReintentan(t *testing.T) {
	p := Policy{MaxRetries: 5, Backoff: time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), zerolog.Nop(), "test", nil, func() error {
		calls++
		return domain.ErrInsufficientStock
	})
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
	assert.Equal(t, 1, calls)
}

func TestDo_CancelacionCortaElBackoff(t *testing.T) {
	p := Policy{MaxRetries: 5, Backoff: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := p.Do(ctx, zerolog.Nop(), "test", nil, func() error {
		calls++
		cancel()
		return busy()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
