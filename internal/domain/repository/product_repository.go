package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Product, error)
	// LockForUpdate bloquea las filas (SELECT ... FOR UPDATE) en orden ascendente de id.
	// Los ids inexistentes simplemente no aparecen en el resultado.
	LockForUpdate(ctx context.Context, ids []string) (map[string]*entity.Product, error)
	// UpdateBalance es el único escritor de quantity/reserved. Solo lo invoca el ledger.
	UpdateBalance(ctx context.Context, id string, quantity, reserved int, updatedAt time.Time) error
	UpdateFactoryCost(ctx context.Context, id string, cost decimal.Decimal, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}
