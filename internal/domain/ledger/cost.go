package ledger

import "github.com/shopspring/decimal"

// WeightedCost costo promedio ponderado tras una entrada:
// (onHand*current + inQty*inCost) / (onHand + inQty), redondeado a centavos.
// onHand es el stock físico (disponible + reservado).
func WeightedCost(onHand int, current decimal.Decimal, inQty int, inCost decimal.Decimal) decimal.Decimal {
	if onHand < 0 {
		onHand = 0
	}
	total := onHand + inQty
	if total <= 0 {
		return decimal.Zero
	}
	num := decimal.NewFromInt(int64(onHand)).Mul(current).
		Add(decimal.NewFromInt(int64(inQty)).Mul(inCost))
	return num.Div(decimal.NewFromInt(int64(total))).Round(2)
}
