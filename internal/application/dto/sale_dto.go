package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleItemRequest línea de venta. Con is_custom=false se requiere product_id;
// con is_custom=true, custom_name y unit_price.
type SaleItemRequest struct {
	IsCustom   bool             `json:"is_custom"`
	ProductID  string           `json:"product_id,omitempty"`
	CustomName string           `json:"custom_name,omitempty"`
	CustomSKU  string           `json:"custom_sku,omitempty"`
	Quantity   int              `json:"quantity"`
	UnitPrice  *decimal.Decimal `json:"unit_price,omitempty"`
	Discount   decimal.Decimal  `json:"discount"`
}

// PaymentRequest pago declarado.
type PaymentRequest struct {
	Method       string          `json:"method"` // pix, cartao_credito, cartao_debito, dinheiro
	Amount       decimal.Decimal `json:"amount"`
	Installments int             `json:"installments"`
}

// CreateSaleRequest entrada para crear una venta. draft_id hace el create idempotente.
type CreateSaleRequest struct {
	DraftID      string            `json:"draft_id"`
	ClientID     string            `json:"client_id"`
	Items        []SaleItemRequest `json:"items"`
	Payments     []PaymentRequest  `json:"payments"`
	Discount     decimal.Decimal   `json:"discount"`
	Note         string            `json:"note"`
	DeliveryDate *time.Time        `json:"delivery_date,omitempty"`
}

// UpdateSaleRequest entrada para editar una venta pendiente. client_id, si viene, debe coincidir.
type UpdateSaleRequest struct {
	ClientID     string            `json:"client_id,omitempty"`
	Items        []SaleItemRequest `json:"items"`
	Payments     []PaymentRequest  `json:"payments"`
	Discount     decimal.Decimal   `json:"discount"`
	Note         string            `json:"note"`
	DeliveryDate *time.Time        `json:"delivery_date,omitempty"`
}

// SaleItemResponse línea de venta.
type SaleItemResponse struct {
	ID               string          `json:"id"`
	Position         int             `json:"position"`
	IsCustom         bool            `json:"is_custom"`
	ProductID        string          `json:"product_id,omitempty"`
	Name             string          `json:"name"`
	SKU              string          `json:"sku"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Discount         decimal.Decimal `json:"discount"`
	LineTotal        decimal.Decimal `json:"line_total"`
	RequiresApproval bool            `json:"requires_approval"`
}

// PaymentResponse pago de una venta.
type PaymentResponse struct {
	ID           string          `json:"id"`
	Method       string          `json:"method"`
	Amount       decimal.Decimal `json:"amount"`
	Installments int             `json:"installments"`
}

// SaleResponse salida de una venta.
type SaleResponse struct {
	ID               string             `json:"id"`
	Code             string             `json:"code"`
	DraftID          string             `json:"draft_id,omitempty"`
	ClientID         string             `json:"client_id"`
	Status           string             `json:"status"`
	RequiresApproval bool               `json:"requires_approval"`
	Items            []SaleItemResponse `json:"items"`
	Payments         []PaymentResponse  `json:"payments"`
	Subtotal         decimal.Decimal    `json:"subtotal"`
	Discount         decimal.Decimal    `json:"discount"`
	Total            decimal.Decimal    `json:"total"`
	Note             string             `json:"note,omitempty"`
	DeliveryDate     *time.Time         `json:"delivery_date,omitempty"`
	CreatedBy        string             `json:"created_by"`
	ApprovedBy       string             `json:"approved_by,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
	DeliveredAt      *time.Time         `json:"delivered_at,omitempty"`
	CancelledAt      *time.Time         `json:"cancelled_at,omitempty"`
	ApprovedAt       *time.Time         `json:"approved_at,omitempty"`
}

// SaleListResponse lista paginada de ventas.
type SaleListResponse struct {
	Items []SaleResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// SaleListQuery filtros del listado.
type SaleListQuery struct {
	Status           string
	ClientID         string
	RequiresApproval *bool
	From             *time.Time
	To               *time.Time
	PageRequest
}
