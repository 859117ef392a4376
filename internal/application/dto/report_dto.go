package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatusSummary cantidad y valor de ventas en un estado.
type StatusSummary struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// SummaryResponse resumen financiero de un período.
type SummaryResponse struct {
	From             time.Time                  `json:"from"`
	To               time.Time                  `json:"to"`
	ByStatus         map[string]StatusSummary   `json:"by_status"`
	RevenueByMethod  map[string]decimal.Decimal `json:"revenue_by_method"`
	Revenue          decimal.Decimal            `json:"revenue"`
	CostOfGoods      decimal.Decimal            `json:"cost_of_goods"`
	GrossMargin      decimal.Decimal            `json:"gross_margin"`
	PendingApprovals int                        `json:"pending_approvals"`
}
