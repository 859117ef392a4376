package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un ítem del catálogo con su saldo en el ledger.
// Quantity es lo disponible para vender; Reserved lo comprometido por ventas pendientes.
// Ambos solo se escriben a través del ledger (ProductRepository.UpdateBalance).
type Product struct {
	ID          string
	SKU         string // único
	Name        string
	Description string
	ImageRef    string
	Price       decimal.Decimal // precio de venta unitario
	FactoryCost decimal.Decimal // costo de fábrica, visible solo para admin
	Quantity    int
	Reserved    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Deletable indica si el producto puede eliminarse (sin saldo ni reservas).
func (p *Product) Deletable() bool {
	return p.Quantity == 0 && p.Reserved == 0
}
