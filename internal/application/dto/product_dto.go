package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto. SKU vacío se genera desde el nombre.
type CreateProductRequest struct {
	SKU             string          `json:"sku"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	ImageRef        string          `json:"image_ref"`
	Price           decimal.Decimal `json:"price"`
	FactoryCost     decimal.Decimal `json:"factory_cost"`
	InitialQuantity int             `json:"initial_quantity"`
}

// ProductResponse salida de un producto. FactoryCost solo se incluye para admin.
type ProductResponse struct {
	ID          string           `json:"id"`
	SKU         string           `json:"sku"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	ImageRef    string           `json:"image_ref,omitempty"`
	Price       decimal.Decimal  `json:"price"`
	FactoryCost *decimal.Decimal `json:"factory_cost,omitempty"`
	Quantity    int              `json:"quantity"`
	Reserved    int              `json:"reserved"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// AdjustStockRequest ajuste manual: type entrada|saida, amount > 0.
// UnitCost solo aplica a entradas y recalcula el costo de fábrica por promedio ponderado.
type AdjustStockRequest struct {
	Type     string           `json:"type"`
	Amount   int              `json:"amount"`
	Note     string           `json:"note"`
	UnitCost *decimal.Decimal `json:"unit_cost,omitempty"`
}

// MovementResponse movimiento del ledger.
type MovementResponse struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	SaleID        string    `json:"sale_id,omitempty"`
	Type          string    `json:"type"`
	Kind          string    `json:"kind"`
	Amount        int       `json:"amount"`
	QuantityDelta int       `json:"quantity_delta"`
	ReservedDelta int       `json:"reserved_delta"`
	Note          string    `json:"note,omitempty"`
	Actor         string    `json:"actor"`
	CreatedAt     time.Time `json:"created_at"`
}

// MovementHistoryResponse historial de un producto con el saldo reconstruido.
// Consistent indica si el replay coincide con el saldo actual.
type MovementHistoryResponse struct {
	ProductID        string             `json:"product_id"`
	Items            []MovementResponse `json:"items"`
	ReplayedQuantity int                `json:"replayed_quantity"`
	ReplayedReserved int                `json:"replayed_reserved"`
	Consistent       bool               `json:"consistent"`
}
