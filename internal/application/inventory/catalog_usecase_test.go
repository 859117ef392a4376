package inventory

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/backoffice-api/internal/application/contention"
	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/memory"
)

var (
	admin  = entity.Actor{UserID: "u-admin", Role: entity.RoleAdmin}
	seller = entity.Actor{UserID: "u-seller", Role: entity.RoleVendedor}
)

func newCatalog() (*CatalogUseCase, *memory.Store) {
	store := memory.New(time.Second)
	return NewCatalogUseCase(store, store.Products(), store.Movements(), zerolog.Nop()), store
}

func createProduct(t *testing.T, uc *CatalogUseCase, qty int) *dto.ProductResponse {
	t.Helper()
	p, err := uc.CreateProduct(context.Background(), seller, dto.CreateProductRequest{
		Name:            "Mesa de Cedro",
		Price:           decimal.NewFromInt(100),
		FactoryCost:     decimal.NewFromInt(40),
		InitialQuantity: qty,
	})
	require.NoError(t, err)
	return p
}

// ── CreateProduct ─────────────────────────────────────────────────────────────

func TestCreateProduct_GeneraSKUYSaldoInicial(t *testing.T) {
	uc, _ := newCatalog()
	p := createProduct(t, uc, 5)

	assert.True(t, strings.HasPrefix(p.SKU, "MESA-"), p.SKU)
	assert.Equal(t, 5, p.Quantity)
	assert.Equal(t, 0, p.Reserved)

	hist, err := uc.Movements(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, hist.Items, 1)
	assert.Equal(t, entity.MovementKindOpening, hist.Items[0].Kind)
	assert.Equal(t, seller.UserID, hist.Items[0].Actor)
	assert.True(t, hist.Consistent)
}

func TestCreateProduct_SinCantidadNoRegistraMovimiento(t *testing.T) {
	uc, _ := newCatalog()
	p := createProduct(t, uc, 0)

	hist, err := uc.Movements(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Empty(t, hist.Items)
	assert.True(t, hist.Consistent)
}

func TestCreateProduct_SKUDuplicadoYValidaciones(t *testing.T) {
	uc, _ := newCatalog()
	ctx := context.Background()

	_, err := uc.CreateProduct(ctx, admin, dto.CreateProductRequest{Name: "A", SKU: "X-1"})
	require.NoError(t, err)
	_, err = uc.CreateProduct(ctx, admin, dto.CreateProductRequest{Name: "B", SKU: "X-1"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = uc.CreateProduct(ctx, admin, dto.CreateProductRequest{Name: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.CreateProduct(ctx, admin, dto.CreateProductRequest{Name: "C", Price: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.CreateProduct(ctx, admin, dto.CreateProductRequest{Name: "C", InitialQuantity: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetProduct_CostoSoloParaAdmin(t *testing.T) {
	uc, _ := newCatalog()
	p := createProduct(t, uc, 1)
	ctx := context.Background()

	asSeller, err := uc.GetProduct(ctx, seller, p.ID)
	require.NoError(t, err)
	assert.Nil(t, asSeller.FactoryCost)

	asAdmin, err := uc.GetProduct(ctx, admin, p.ID)
	require.NoError(t, err)
	require.NotNil(t, asAdmin.FactoryCost)
	assert.True(t, decimal.NewFromInt(40).Equal(*asAdmin.FactoryCost))

	_, err = uc.GetProduct(ctx, admin, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := uc.ListProducts(ctx, seller, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Nil(t, list.Items[0].FactoryCost)
	assert.Equal(t, 20, list.Page.Limit)
}

// ── AdjustStock ───────────────────────────────────────────────────────────────

func TestAdjustStock_EntradaYSalida(t *testing.T) {
	uc, _ := newCatalog()
	p := createProduct(t, uc, 2)
	ctx := context.Background()

	out, err := uc.AdjustStock(ctx, admin, p.ID, dto.AdjustStockRequest{Type: entity.MovementTypeIn, Amount: 3, Note: "compra"})
	require.NoError(t, err)
	assert.Equal(t, 5, out.Quantity)

	out, err = uc.AdjustStock(ctx, admin, p.ID, dto.AdjustStockRequest{Type: entity.MovementTypeOut, Amount: 5, Note: "avaria"})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Quantity)

	_, err = uc.AdjustStock(ctx, admin, p.ID, dto.AdjustStockRequest{Type: entity.MovementTypeOut, Amount: 1})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	hist, err := uc.Movements(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, hist.Items, 3)
	assert.Equal(t, "avaria", hist.Items[2].Note)
	assert.True(t, hist.Consistent)
}

func TestAdjustStock_Restricciones(t *testing.T) {
	uc, _ := newCatalog()
	p := createProduct(t, uc, 2)
	ctx := context.Background()

	_, err := uc.AdjustStock(ctx, seller, p.ID, dto.AdjustStockRequest{Type: entity.MovementTypeIn, Amount: 1})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = uc.AdjustStock(ctx, admin, p.ID, dto.AdjustStockRequest{Type: "transfer", Amount: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.AdjustStock(ctx, admin, p.ID, dto.AdjustStockRequest{Type: entity.MovementTypeIn, Amount: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = uc.AdjustStock(ctx, admin, "nope", dto.AdjustStockRequest{Type: entity.MovementTypeIn, Amount: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAdjustStock_EntradaConCostoRecalculaPromedio(t *testing.T) {
	uc, _ := newCatalog()
	p := createProduct(t, uc, 2) // 2 a 40
	ctx := context.Background()

	cost := decimal.NewFromInt(70)
	out, err := uc.AdjustStock(ctx, admin, p.ID, dto.AdjustStockRequest{Type: entity.MovementTypeIn, Amount: 1, UnitCost: &cost})
	require.NoError(t, err)
	require.NotNil(t, out.FactoryCost)
	assert.Equal(t, "50", out.FactoryCost.String())

	got, err := uc.GetProduct(ctx, admin, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "50", got.FactoryCost.String())
	assert.Equal(t, 3, got.Quantity)

	_, err = uc.AdjustStock(ctx, admin, p.ID, dto.AdjustStockRequest{Type: entity.MovementTypeOut, Amount: 1, UnitCost: &cost})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	neg := decimal.NewFromInt(-1)
	_, err = uc.AdjustStock(ctx, admin, p.ID, dto.AdjustStockRequest{Type: entity.MovementTypeIn, Amount: 1, UnitCost: &neg})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAdjustStock_LimitesDeCantidadYCosto(t *testing.T) {
	uc, _ := newCatalog()
	p := createProduct(t, uc, 2)
	ctx := context.Background()

	_, err := uc.AdjustStock(ctx, admin, p.ID, dto.AdjustStockRequest{Type: entity.MovementTypeIn, Amount: entity.MaxQuantity + 1})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = uc.AdjustStock(ctx, admin, p.ID, dto.AdjustStockRequest{Type: entity.MovementTypeIn, Amount: entity.MaxQuantity})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	cost := decimal.RequireFromString("4.005")
	_, err = uc.AdjustStock(ctx, admin, p.ID, dto.AdjustStockRequest{Type: entity.MovementTypeIn, Amount: 1, UnitCost: &cost})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	got, err := uc.GetProduct(ctx, admin, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Quantity)
	assert.True(t, decimal.NewFromInt(40).Equal(*got.FactoryCost))
}

// contendedRunner falla con ErrContention las primeras failures veces y luego delega.
type contendedRunner struct {
	inner    TxRunner
	failures int
	calls    int
}

func (r *contendedRunner) Run(ctx context.Context, fn func(repository.StockMovementRepository, repository.ProductRepository) error) error {
	r.calls++
	if r.calls <= r.failures {
		return fmt.Errorf("%w: lock timeout", domain.ErrContention)
	}
	return r.inner.Run(ctx, fn)
}

func TestAdjustStockYDelete_ReintentanContencion(t *testing.T) {
	store := memory.New(time.Second)
	runner := &contendedRunner{inner: store}
	uc := NewCatalogUseCase(runner, store.Products(), store.Movements(), zerolog.Nop()).
		WithRetry(contention.Policy{MaxRetries: 2, Backoff: time.Millisecond})
	ctx := context.Background()

	p := createProduct(t, uc, 1)

	runner.calls, runner.failures = 0, 2
	out, err := uc.AdjustStock(ctx, admin, p.ID, dto.AdjustStockRequest{Type: entity.MovementTypeOut, Amount: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Quantity)
	assert.Equal(t, 3, runner.calls)

	hist, err := uc.Movements(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, hist.Items, 2, "el ajuste se aplica una sola vez")

	runner.calls, runner.failures = 0, 3
	err = uc.DeleteProduct(ctx, admin, p.ID)
	require.ErrorIs(t, err, domain.ErrContention)
	assert.Equal(t, 3, runner.calls)

	runner.calls, runner.failures = 0, 1
	require.NoError(t, uc.DeleteProduct(ctx, admin, p.ID))
	_, err = uc.GetProduct(ctx, admin, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateProduct_MontosYCantidadFueraDeRango(t *testing.T) {
	uc, _ := newCatalog()
	ctx := context.Background()

	_, err := uc.CreateProduct(ctx, admin, dto.CreateProductRequest{Name: "A", Price: decimal.RequireFromString("1.005")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.CreateProduct(ctx, admin, dto.CreateProductRequest{Name: "A", Price: decimal.NewFromInt(1), FactoryCost: decimal.RequireFromString("0.333")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.CreateProduct(ctx, admin, dto.CreateProductRequest{Name: "A", InitialQuantity: entity.MaxQuantity + 1})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

// ── DeleteProduct ─────────────────────────────────────────────────────────────

func TestDeleteProduct_SoloSinSaldo(t *testing.T) {
	uc, store := newCatalog()
	p := createProduct(t, uc, 1)
	ctx := context.Background()

	err := uc.DeleteProduct(ctx, admin, p.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = uc.AdjustStock(ctx, admin, p.ID, dto.AdjustStockRequest{Type: entity.MovementTypeOut, Amount: 1})
	require.NoError(t, err)

	// una reserva también impide la baja
	err = store.Run(ctx, func(movRepo repository.StockMovementRepository, productRepo repository.ProductRepository) error {
		return productRepo.UpdateBalance(ctx, p.ID, 0, 1, time.Now())
	})
	require.NoError(t, err)
	assert.ErrorIs(t, uc.DeleteProduct(ctx, admin, p.ID), domain.ErrInvalidState)

	err = store.Run(ctx, func(movRepo repository.StockMovementRepository, productRepo repository.ProductRepository) error {
		return productRepo.UpdateBalance(ctx, p.ID, 0, 0, time.Now())
	})
	require.NoError(t, err)
	require.NoError(t, uc.DeleteProduct(ctx, admin, p.ID))

	_, err = uc.GetProduct(ctx, admin, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, uc.DeleteProduct(ctx, admin, p.ID), domain.ErrNotFound)
}

func TestMovements_DetectaSaldoInconsistente(t *testing.T) {
	uc, store := newCatalog()
	p := createProduct(t, uc, 3)
	ctx := context.Background()

	err := store.Run(ctx, func(_ repository.StockMovementRepository, productRepo repository.ProductRepository) error {
		return productRepo.UpdateBalance(ctx, p.ID, 7, 0, time.Now())
	})
	require.NoError(t, err)

	hist, err := uc.Movements(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, hist.Consistent)
	assert.Equal(t, 3, hist.ReplayedQuantity)
}
