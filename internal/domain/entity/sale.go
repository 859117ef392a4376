package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de Sale. entregue y cancelada son terminales.
const (
	SaleStatusPending   = "pendente"
	SaleStatusDelivered = "entregue"
	SaleStatusCancelled = "cancelada"
)

// ItemKind discrimina el tipo de línea.
type ItemKind string

const (
	ItemKindCatalog ItemKind = "catalogo"
	ItemKindCustom  ItemKind = "personalizado"
)

// Métodos de pago aceptados.
const (
	PaymentPix        = "pix"
	PaymentCreditCard = "cartao_credito"
	PaymentDebitCard  = "cartao_debito"
	PaymentCash       = "dinheiro"
)

// ValidPaymentMethod indica si el método es conocido.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentPix, PaymentCreditCard, PaymentDebitCard, PaymentCash:
		return true
	}
	return false
}

// Sale agregado de venta: posee sus líneas y pagos.
type Sale struct {
	ID               string
	Code             string // código público, ej. PED-000001
	DraftID          string // clave de idempotencia enviada por el cliente
	ClientID         string
	Items            []SaleItem
	Payments         []Payment
	Subtotal         decimal.Decimal
	Discount         decimal.Decimal // ya acotado a [0, Subtotal]
	Total            decimal.Decimal
	Note             string
	DeliveryDate     *time.Time
	Status           string
	RequiresApproval bool
	CreatedBy        string
	ApprovedBy       string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeliveredAt      *time.Time
	CancelledAt      *time.Time
	ApprovedAt       *time.Time
}

// IsTerminal indica si la venta ya no admite transiciones.
func (s *Sale) IsTerminal() bool {
	return s.Status == SaleStatusDelivered || s.Status == SaleStatusCancelled
}

// SaleItem línea de venta. Para ItemKindCatalog se usan ProductID/ProductName/ProductSKU
// (snapshot al momento de la venta); para ItemKindCustom, CustomName/CustomSKU.
type SaleItem struct {
	ID               string
	SaleID           string
	Position         int
	Kind             ItemKind
	ProductID        string
	ProductName      string
	ProductSKU       string
	CustomName       string
	CustomSKU        string
	Quantity         int
	UnitPrice        decimal.Decimal
	Discount         decimal.Decimal // descuento por unidad
	RequiresApproval bool
}

// IsCustom indica si la línea es personalizada (fuera de catálogo).
func (i SaleItem) IsCustom() bool { return i.Kind == ItemKindCustom }

// DisplayName nombre a mostrar según el tipo de línea.
func (i SaleItem) DisplayName() string {
	if i.IsCustom() {
		return i.CustomName
	}
	return i.ProductName
}

// DisplaySKU SKU a mostrar según el tipo de línea.
func (i SaleItem) DisplaySKU() string {
	if i.IsCustom() {
		return i.CustomSKU
	}
	return i.ProductSKU
}

// NetUnit precio unitario neto: max(0, UnitPrice - Discount).
func (i SaleItem) NetUnit() decimal.Decimal {
	n := i.UnitPrice.Sub(i.Discount)
	if n.IsNegative() {
		return decimal.Zero
	}
	return n
}

// LineTotal cantidad × neto unitario.
func (i SaleItem) LineTotal() decimal.Decimal {
	return i.NetUnit().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Payment pago declarado de una venta.
type Payment struct {
	ID           string
	SaleID       string
	Method       string
	Amount       decimal.Decimal
	Installments int
}
