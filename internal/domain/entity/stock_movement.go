package entity

import "time"

// Dirección del movimiento.
const (
	MovementTypeIn  = "entrada"
	MovementTypeOut = "saida"
)

// Origen del movimiento en el ledger.
const (
	MovementKindOpening = "inicial"   // saldo inicial al crear el producto
	MovementKindAdjust  = "ajuste"    // ajuste manual entrada/saida
	MovementKindReserve = "reserva"   // quantity -> reserved
	MovementKindRelease = "liberacao" // reserved sale por entrega
	MovementKindRestore = "estorno"   // reserved -> quantity por cancelación o edición
)

// StockMovement registro inmutable de un cambio en el ledger de un producto.
// QuantityDelta y ReservedDelta permiten reconstruir el saldo (ledger.Replay).
type StockMovement struct {
	ID            string
	ProductID     string
	SaleID        string // vacío para ajustes manuales
	Type          string // entrada, saida
	Kind          string
	Amount        int // siempre > 0
	QuantityDelta int
	ReservedDelta int
	Note          string
	Actor         string // UserID
	CreatedAt     time.Time
}
