// Package pdf genera el comprobante de venta (pedido) en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + estado     │  Código del pedido + Fecha   │
//	│  CLIENTE: Nombre + documento + contacto                     │
//	│  TABLA: Cant | Descripción | SKU | P.Unit | Desc | Total    │
//	│  PAGOS: método, cuotas, monto                               │
//	│  TOTALES: Subtotal / Descuento / TOTAL                      │
//	│  FOOTER: QR con el código + observaciones                   │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/backoffice-api/internal/application/sales"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

var _ sales.ReceiptGenerator = (*MarotoReceiptGenerator)(nil)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// MarotoReceiptGenerator implementa sales.ReceiptGenerator usando Maroto v2.
type MarotoReceiptGenerator struct {
	storeName string
}

// NewMarotoReceiptGenerator construye el generador. storeName aparece en el encabezado.
func NewMarotoReceiptGenerator(storeName string) *MarotoReceiptGenerator {
	return &MarotoReceiptGenerator{storeName: storeName}
}

// GenerateSaleReceipt genera el PDF y devuelve sus bytes.
func (g *MarotoReceiptGenerator) GenerateSaleReceipt(_ context.Context, sale *entity.Sale, customer *entity.Customer) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Pedido "+sale.Code, true).
		WithAuthor(g.storeName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(g.storeName, sale))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(customerRow(customer))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(itemRows(sale.Items)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(paymentRows(sale.Payments)...)
	m.AddRows(totalsRow(sale))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(sale))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar comprobante: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(storeName string, sale *entity.Sale) core.Row {
	status := statusLabel(sale.Status)
	if sale.RequiresApproval {
		status += " (aguardando aprovação)"
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New(storeName, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Status: "+status, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("PEDIDO DE VENDA", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(sale.Code, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Data: "+sale.CreatedAt.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func customerRow(customer *entity.Customer) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("CLIENTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(customer.Name, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("Documento: %s   |   Email: %s   |   Tel: %s",
				nonEmpty(customer.Document, "-"),
				nonEmpty(customer.Email, "-"),
				nonEmpty(customer.Phone, "-"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Qtd.", 1, align.Center),
		h("Descrição", 4, align.Left),
		h("SKU", 2, align.Left),
		h("Preço Unit.", 2, align.Right),
		h("Desc.", 1, align.Right),
		h("Total", 2, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

func itemRows(items []entity.SaleItem) []core.Row {
	out := make([]core.Row, 0, len(items))
	for _, it := range items {
		name := it.DisplayName()
		if it.IsCustom() {
			name += " *"
		}
		out = append(out, row.New(7).Add(
			col.New(1).Add(text.New(fmt.Sprintf("%d", it.Quantity),
				props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(4).Add(text.New(name,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(2).Add(text.New(nonEmpty(it.DisplaySKU(), "-"),
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1, Color: colorGray})),
			col.New(2).Add(text.New(formatMoney(it.UnitPrice),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(formatMoney(it.Discount),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(formatMoney(it.LineTotal()),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return out
}

func paymentRows(payments []entity.Payment) []core.Row {
	out := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("PAGAMENTOS", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
		)),
	}
	for _, p := range payments {
		method := methodLabel(p.Method)
		if p.Method == entity.PaymentCreditCard && p.Installments > 1 {
			method = fmt.Sprintf("%s (%dx)", method, p.Installments)
		}
		out = append(out, row.New(5).Add(
			col.New(6).Add(text.New(method, props.Text{Size: 8, Left: 2})),
			col.New(6).Add(text.New(formatMoney(p.Amount), props.Text{Size: 8, Align: align.Right, Right: 1})),
		))
	}
	return out
}

func totalsRow(sale *entity.Sale) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	grand := func(s string, right float64) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: right, Top: 10,
		})
	}
	return row.New(20).Add(
		col.New(6),
		col.New(3).Add(
			label("Subtotal:"),
			text.New("Desconto:", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: 5}),
			grand("TOTAL:", 2),
		),
		col.New(3).Add(
			value(formatMoney(sale.Subtotal)),
			text.New("- "+formatMoney(sale.Discount), props.Text{Size: 9, Align: align.Right, Right: 1, Top: 5}),
			grand(formatMoney(sale.Total), 1),
		),
	)
}

// footerRow: QR con el código del pedido + observaciones.
func footerRow(sale *entity.Sale) core.Row {
	notes := "Itens marcados com * são personalizados e exigem aprovação."
	if sale.Note != "" {
		notes = "Obs.: " + sale.Note + "\n" + notes
	}
	if sale.DeliveryDate != nil {
		notes = "Entrega prevista: " + sale.DeliveryDate.Format("02/01/2006") + "\n" + notes
	}
	return row.New(40).Add(
		col.New(3).Add(code.NewQr(sale.Code, props.Rect{Percent: 90, Center: true})),
		col.New(9).Add(text.New(notes, props.Text{Size: 8, Top: 4, Left: 3, Color: colorGray})),
	)
}

func statusLabel(status string) string {
	switch status {
	case entity.SaleStatusPending:
		return "Pendente"
	case entity.SaleStatusDelivered:
		return "Entregue"
	case entity.SaleStatusCancelled:
		return "Cancelada"
	}
	return status
}

func methodLabel(method string) string {
	switch method {
	case entity.PaymentPix:
		return "PIX"
	case entity.PaymentCreditCard:
		return "Cartão de crédito"
	case entity.PaymentDebitCard:
		return "Cartão de débito"
	case entity.PaymentCash:
		return "Dinheiro"
	}
	return method
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney formato BRL: "R$ 1.234,56".
func formatMoney(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	return sign + "R$ " + string(buf) + "," + frac
}
