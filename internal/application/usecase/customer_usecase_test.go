package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/memory"
)

func TestCustomerUseCase_CrearYConsultar(t *testing.T) {
	uc := NewCustomerUseCase(memory.New(time.Second).Customers())
	ctx := context.Background()

	c, err := uc.Create(ctx, dto.CreateCustomerRequest{Name: "  Ana Souza ", Document: "123"})
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", c.Name)

	got, err := uc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = uc.Create(ctx, dto.CreateCustomerRequest{Name: "Otra", Document: "123"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = uc.Create(ctx, dto.CreateCustomerRequest{Name: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Get(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := uc.List(ctx, dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
