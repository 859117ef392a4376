// Package ledger contiene las transiciones puras del saldo de un producto.
// Cada transición valida, muta Quantity/Reserved del producto y devuelve el
// movimiento inmutable que la describe. La persistencia la hace la capa de aplicación.
package ledger

import (
	"fmt"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// Reserve pasa qty de disponible a reservado. Requiere Quantity >= qty.
func Reserve(p *entity.Product, qty int) (entity.StockMovement, error) {
	if qty <= 0 || qty > entity.MaxQuantity {
		return entity.StockMovement{}, fmt.Errorf("%w: reserva de %d", domain.ErrInvalidQuantity, qty)
	}
	if p.Quantity < qty {
		return entity.StockMovement{}, fmt.Errorf("%w: producto %s (disponible %d, solicitado %d)",
			domain.ErrInsufficientStock, p.SKU, p.Quantity, qty)
	}
	p.Quantity -= qty
	p.Reserved += qty
	return movement(p, entity.MovementTypeOut, entity.MovementKindReserve, qty, -qty, qty), nil
}

// Release da salida a lo reservado (entrega). Quantity no cambia.
func Release(p *entity.Product, qty int) (entity.StockMovement, error) {
	if qty <= 0 {
		return entity.StockMovement{}, fmt.Errorf("%w: liberación de %d", domain.ErrInvalidQuantity, qty)
	}
	if p.Reserved < qty {
		return entity.StockMovement{}, violation(p, qty)
	}
	p.Reserved -= qty
	return movement(p, entity.MovementTypeOut, entity.MovementKindRelease, qty, 0, -qty), nil
}

// Restore devuelve qty de reservado a disponible (cancelación o edición a la baja).
func Restore(p *entity.Product, qty int) (entity.StockMovement, error) {
	if qty <= 0 {
		return entity.StockMovement{}, fmt.Errorf("%w: estorno de %d", domain.ErrInvalidQuantity, qty)
	}
	if p.Reserved < qty {
		return entity.StockMovement{}, violation(p, qty)
	}
	p.Reserved -= qty
	p.Quantity += qty
	return movement(p, entity.MovementTypeIn, entity.MovementKindRestore, qty, qty, -qty), nil
}

// Adjust aplica un ajuste manual. Una saida no puede dejar Quantity negativo
// y una entrada no puede llevar Quantity+Reserved por encima de entity.MaxQuantity.
func Adjust(p *entity.Product, movType string, amount int) (entity.StockMovement, error) {
	if amount <= 0 || amount > entity.MaxQuantity {
		return entity.StockMovement{}, fmt.Errorf("%w: ajuste de %d", domain.ErrInvalidQuantity, amount)
	}
	switch movType {
	case entity.MovementTypeIn:
		if p.Quantity+p.Reserved > entity.MaxQuantity-amount {
			return entity.StockMovement{}, fmt.Errorf("%w: producto %s excedería %d unidades",
				domain.ErrInvalidQuantity, p.SKU, entity.MaxQuantity)
		}
		p.Quantity += amount
		return movement(p, movType, entity.MovementKindAdjust, amount, amount, 0), nil
	case entity.MovementTypeOut:
		if p.Quantity < amount {
			return entity.StockMovement{}, fmt.Errorf("%w: producto %s (disponible %d, solicitado %d)",
				domain.ErrInsufficientStock, p.SKU, p.Quantity, amount)
		}
		p.Quantity -= amount
		return movement(p, movType, entity.MovementKindAdjust, amount, -amount, 0), nil
	default:
		return entity.StockMovement{}, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, movType)
	}
}

// Opening registra el saldo inicial de un producto recién creado.
func Opening(p *entity.Product, qty int) (entity.StockMovement, error) {
	if qty <= 0 || qty > entity.MaxQuantity {
		return entity.StockMovement{}, fmt.Errorf("%w: saldo inicial %d", domain.ErrInvalidQuantity, qty)
	}
	p.Quantity += qty
	return movement(p, entity.MovementTypeIn, entity.MovementKindOpening, qty, qty, 0), nil
}

// Balance saldo reconstruido de un producto.
type Balance struct {
	Quantity int
	Reserved int
}

// Replay reconstruye el saldo sumando los deltas del log en orden.
func Replay(movs []*entity.StockMovement) Balance {
	var b Balance
	for _, m := range movs {
		b.Quantity += m.QuantityDelta
		b.Reserved += m.ReservedDelta
	}
	return b
}

func movement(p *entity.Product, movType, kind string, amount, dq, dr int) entity.StockMovement {
	return entity.StockMovement{
		ProductID:     p.ID,
		Type:          movType,
		Kind:          kind,
		Amount:        amount,
		QuantityDelta: dq,
		ReservedDelta: dr,
	}
}

func violation(p *entity.Product, qty int) error {
	return fmt.Errorf("%w: producto %s (reservado %d, solicitado %d)",
		domain.ErrInvariantViolation, p.SKU, p.Reserved, qty)
}
