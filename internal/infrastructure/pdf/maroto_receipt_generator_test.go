package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "R$ 0,00", formatMoney(decimal.Zero))
	assert.Equal(t, "R$ 25,50", formatMoney(decimal.RequireFromString("25.5")))
	assert.Equal(t, "R$ 1.234.567,89", formatMoney(decimal.RequireFromString("1234567.89")))
	assert.Equal(t, "-R$ 1.000,00", formatMoney(decimal.NewFromInt(-1000)))
}

func TestGenerateSaleReceipt_GeneraPDF(t *testing.T) {
	sale := &entity.Sale{
		Code:      "PED-000042",
		Status:    entity.SaleStatusPending,
		CreatedAt: time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
		Items: []entity.SaleItem{
			{Kind: entity.ItemKindCatalog, ProductName: "Caneca", ProductSKU: "CANE-AB12C", Quantity: 2, UnitPrice: decimal.NewFromInt(30)},
			{Kind: entity.ItemKindCustom, CustomName: "Caneca gravada", Quantity: 1, UnitPrice: decimal.NewFromInt(50), RequiresApproval: true},
		},
		Payments:         []entity.Payment{{Method: entity.PaymentCreditCard, Amount: decimal.NewFromInt(110), Installments: 3}},
		Subtotal:         decimal.NewFromInt(110),
		Total:            decimal.NewFromInt(110),
		RequiresApproval: true,
	}
	customer := &entity.Customer{Name: "Maria", Document: "123.456.789-00"}

	out, err := NewMarotoReceiptGenerator("Loja Centro").GenerateSaleReceipt(context.Background(), sale, customer)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
