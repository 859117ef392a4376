package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

func seedProduct(t *testing.T, s *Store, id string, qty int) {
	t.Helper()
	require.NoError(t, s.Products().Create(context.Background(), &entity.Product{ID: id, SKU: "SKU-" + id, Name: id, Quantity: qty}))
}

func TestRun_ErrorDescartaCambios(t *testing.T) {
	s := New(time.Second)
	seedProduct(t, s, "p1", 5)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.Run(ctx, func(movRepo repository.StockMovementRepository, productRepo repository.ProductRepository) error {
		require.NoError(t, productRepo.UpdateBalance(ctx, "p1", 2, 3, time.Now()))
		require.NoError(t, movRepo.Create(ctx, &entity.StockMovement{ID: "m1", ProductID: "p1"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	p, err := s.Products().GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 5, p.Quantity)
	assert.Equal(t, 0, p.Reserved)
	movs, err := s.Movements().ListByProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, movs)
}

func TestRun_CommitPublicaCambios(t *testing.T) {
	s := New(time.Second)
	seedProduct(t, s, "p1", 5)
	ctx := context.Background()

	err := s.Run(ctx, func(_ repository.StockMovementRepository, productRepo repository.ProductRepository) error {
		locked, err := productRepo.LockForUpdate(ctx, []string{"p1", "nope"})
		require.NoError(t, err)
		assert.Len(t, locked, 1)
		return productRepo.UpdateBalance(ctx, "p1", 2, 3, time.Now())
	})
	require.NoError(t, err)

	p, _ := s.Products().GetByID(ctx, "p1")
	assert.Equal(t, 2, p.Quantity)
	assert.Equal(t, 3, p.Reserved)
}

func TestRun_EsperaAcotadaDevuelveContencion(t *testing.T) {
	s := New(30 * time.Millisecond)
	ctx := context.Background()

	holding := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = s.Run(ctx, func(repository.StockMovementRepository, repository.ProductRepository) error {
			close(holding)
			<-done
			return nil
		})
	}()
	<-holding

	err := s.Run(ctx, func(repository.StockMovementRepository, repository.ProductRepository) error { return nil })
	close(done)
	assert.ErrorIs(t, err, domain.ErrContention)
}

func TestUpdateBalance_SaldoNegativoEsViolacion(t *testing.T) {
	s := New(time.Second)
	seedProduct(t, s, "p1", 1)
	err := s.Products().UpdateBalance(context.Background(), "p1", -1, 0, time.Now())
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)
}

func TestSaleRepo_DraftDuplicadoYCodigos(t *testing.T) {
	s := New(time.Second)
	ctx := context.Background()

	c1, err := s.Sales().NextCode(ctx)
	require.NoError(t, err)
	c2, err := s.Sales().NextCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, "PED-000001", c1)
	assert.Equal(t, "PED-000002", c2)

	require.NoError(t, s.Sales().Create(ctx, &entity.Sale{ID: "s1", DraftID: "d1", Status: entity.SaleStatusPending}))
	err = s.Sales().Create(ctx, &entity.Sale{ID: "s2", DraftID: "d1"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	got, err := s.Sales().GetByDraftID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)
}

func TestSaleRepo_ListFiltra(t *testing.T) {
	s := New(time.Second)
	ctx := context.Background()
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	yes := true

	require.NoError(t, s.Sales().Create(ctx, &entity.Sale{ID: "s1", Code: "PED-000001", ClientID: "c1", Status: entity.SaleStatusPending, RequiresApproval: true, CreatedAt: base}))
	require.NoError(t, s.Sales().Create(ctx, &entity.Sale{ID: "s2", Code: "PED-000002", ClientID: "c2", Status: entity.SaleStatusDelivered, CreatedAt: base.Add(time.Hour)}))

	all, err := s.Sales().List(ctx, repository.SaleFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "s2", all[0].ID)

	pending, _ := s.Sales().List(ctx, repository.SaleFilter{RequiresApproval: &yes})
	require.Len(t, pending, 1)
	assert.Equal(t, "s1", pending[0].ID)

	from := base.Add(30 * time.Minute)
	recent, _ := s.Sales().List(ctx, repository.SaleFilter{From: &from})
	require.Len(t, recent, 1)
	assert.Equal(t, "s2", recent[0].ID)

	byClient, _ := s.Sales().List(ctx, repository.SaleFilter{ClientID: "c1", Status: entity.SaleStatusPending})
	assert.Len(t, byClient, 1)
}
