package entity

import (
	"math"

	"github.com/shopspring/decimal"
)

// Límites de las columnas: cantidades INTEGER y montos NUMERIC(14, 2).
const MaxQuantity = math.MaxInt32

// MaxAmount mayor monto representable.
var MaxAmount = decimal.RequireFromString("999999999999.99")

// ValidMoney no negativo, a lo sumo dos decimales y dentro de MaxAmount.
func ValidMoney(d decimal.Decimal) bool {
	return !d.IsNegative() && d.Equal(d.Round(2)) && d.LessThanOrEqual(MaxAmount)
}
