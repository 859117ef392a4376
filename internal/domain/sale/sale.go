// Package sale valida borradores de venta y calcula totales sin tocar persistencia.
package sale

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// DefaultPaymentTolerance diferencia máxima aceptada entre pagos y total.
var DefaultPaymentTolerance = decimal.NewFromFloat(0.05)

// Draft propuesta de venta (creación o edición).
type Draft struct {
	DraftID      string
	ClientID     string
	Items        []DraftItem
	Payments     []DraftPayment
	Discount     decimal.Decimal
	Note         string
	DeliveryDate *time.Time
}

// DraftItem línea propuesta. UnitPrice nil en una línea de catálogo toma el precio del producto.
type DraftItem struct {
	Kind       entity.ItemKind
	ProductID  string
	CustomName string
	CustomSKU  string
	Quantity   int
	UnitPrice  *decimal.Decimal
	Discount   decimal.Decimal // por unidad
}

// DraftPayment pago propuesto.
type DraftPayment struct {
	Method       string
	Amount       decimal.Decimal
	Installments int
}

// Requirement cantidad total pedida de un producto de catálogo.
type Requirement struct {
	ProductID string
	Quantity  int
}

// Evaluation resultado de validar un borrador contra el catálogo.
type Evaluation struct {
	Items            []entity.SaleItem
	Payments         []entity.Payment
	Subtotal         decimal.Decimal
	Discount         decimal.Decimal
	Total            decimal.Decimal
	RequiresApproval bool
	Requested        []Requirement // ordenado por ProductID
}

// CatalogIDs ids de producto referenciados por el borrador, sin repetir y ordenados.
func (d Draft) CatalogIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, it := range d.Items {
		if it.Kind != entity.ItemKindCatalog || it.ProductID == "" {
			continue
		}
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	sort.Strings(ids)
	return ids
}

// Evaluate valida el borrador y arma líneas, pagos y totales.
// catalog debe contener los productos referenciados (idealmente ya bloqueados).
func Evaluate(d Draft, catalog map[string]*entity.Product, tolerance decimal.Decimal) (*Evaluation, error) {
	if len(d.Items) == 0 {
		return nil, fmt.Errorf("%w: la venta no tiene ítems", domain.ErrInvalidItem)
	}
	if !d.Discount.IsNegative() && !entity.ValidMoney(d.Discount) {
		return nil, fmt.Errorf("%w: descuento %s fuera de rango o con más de dos decimales", domain.ErrInvalidItem, d.Discount.String())
	}

	ev := &Evaluation{}
	for i, in := range d.Items {
		item, err := buildItem(i, in, catalog)
		if err != nil {
			return nil, err
		}
		if item.IsCustom() {
			ev.RequiresApproval = true
		}
		ev.Items = append(ev.Items, item)
	}

	ev.Subtotal, ev.Discount, ev.Total = Totals(ev.Items, d.Discount)
	if ev.Subtotal.GreaterThan(entity.MaxAmount) {
		return nil, fmt.Errorf("%w: subtotal %s excede el máximo", domain.ErrInvalidItem, ev.Subtotal.String())
	}

	paid := decimal.Zero
	for i, in := range d.Payments {
		p, err := buildPayment(i, in)
		if err != nil {
			return nil, err
		}
		paid = paid.Add(p.Amount)
		ev.Payments = append(ev.Payments, p)
	}
	if paid.Sub(ev.Total).Abs().GreaterThan(tolerance) {
		return nil, fmt.Errorf("%w: pagado %s, total %s", domain.ErrPaymentMismatch, paid.StringFixed(2), ev.Total.StringFixed(2))
	}

	ev.Requested = Requirements(ev.Items)
	return ev, nil
}

func buildItem(pos int, in DraftItem, catalog map[string]*entity.Product) (entity.SaleItem, error) {
	if in.Discount.IsNegative() {
		return entity.SaleItem{}, fmt.Errorf("%w: ítem %d con descuento negativo", domain.ErrInvalidItem, pos+1)
	}
	if !entity.ValidMoney(in.Discount) {
		return entity.SaleItem{}, fmt.Errorf("%w: ítem %d descuento %s fuera de rango o con más de dos decimales", domain.ErrInvalidItem, pos+1, in.Discount.String())
	}
	if in.UnitPrice != nil && !in.UnitPrice.IsNegative() && !entity.ValidMoney(*in.UnitPrice) {
		return entity.SaleItem{}, fmt.Errorf("%w: ítem %d precio %s fuera de rango o con más de dos decimales", domain.ErrInvalidItem, pos+1, in.UnitPrice.String())
	}
	if in.Quantity > entity.MaxQuantity {
		return entity.SaleItem{}, fmt.Errorf("%w: ítem %d cantidad %d", domain.ErrInvalidQuantity, pos+1, in.Quantity)
	}
	item := entity.SaleItem{Position: pos, Kind: in.Kind, Quantity: in.Quantity, Discount: in.Discount}

	switch in.Kind {
	case entity.ItemKindCatalog:
		if in.ProductID == "" {
			return entity.SaleItem{}, fmt.Errorf("%w: ítem %d sin producto", domain.ErrInvalidItem, pos+1)
		}
		if in.Quantity <= 0 {
			return entity.SaleItem{}, fmt.Errorf("%w: ítem %d cantidad %d", domain.ErrInvalidQuantity, pos+1, in.Quantity)
		}
		p, ok := catalog[in.ProductID]
		if !ok || p == nil {
			return entity.SaleItem{}, fmt.Errorf("%w: producto %s no existe", domain.ErrInvalidItem, in.ProductID)
		}
		item.ProductID = p.ID
		item.ProductName = p.Name
		item.ProductSKU = p.SKU
		item.UnitPrice = p.Price
		if in.UnitPrice != nil {
			if in.UnitPrice.IsNegative() {
				return entity.SaleItem{}, fmt.Errorf("%w: ítem %d con precio negativo", domain.ErrInvalidItem, pos+1)
			}
			item.UnitPrice = *in.UnitPrice
		}
	case entity.ItemKindCustom:
		name := strings.TrimSpace(in.CustomName)
		if name == "" || in.UnitPrice == nil || !in.UnitPrice.IsPositive() {
			return entity.SaleItem{}, fmt.Errorf("%w: ítem %d requiere nombre y precio mayor a cero", domain.ErrInvalidCustomItem, pos+1)
		}
		if in.Quantity <= 0 {
			return entity.SaleItem{}, fmt.Errorf("%w: ítem %d cantidad %d", domain.ErrInvalidQuantity, pos+1, in.Quantity)
		}
		item.CustomName = name
		item.CustomSKU = strings.TrimSpace(in.CustomSKU)
		item.UnitPrice = *in.UnitPrice
		item.RequiresApproval = true
	default:
		return entity.SaleItem{}, fmt.Errorf("%w: ítem %d tipo %q", domain.ErrInvalidItem, pos+1, in.Kind)
	}
	return item, nil
}

func buildPayment(pos int, in DraftPayment) (entity.Payment, error) {
	if !entity.ValidPaymentMethod(in.Method) {
		return entity.Payment{}, fmt.Errorf("%w: pago %d método %q", domain.ErrInvalidPayment, pos+1, in.Method)
	}
	if !in.Amount.IsPositive() || !entity.ValidMoney(in.Amount) {
		return entity.Payment{}, fmt.Errorf("%w: pago %d monto %s", domain.ErrInvalidPayment, pos+1, in.Amount.String())
	}
	installments := 1
	if in.Method == entity.PaymentCreditCard {
		switch {
		case in.Installments == 0:
			installments = 1
		case in.Installments < 1:
			return entity.Payment{}, fmt.Errorf("%w: pago %d con %d cuotas", domain.ErrInvalidPayment, pos+1, in.Installments)
		default:
			installments = in.Installments
		}
	}
	return entity.Payment{Method: in.Method, Amount: in.Amount, Installments: installments}, nil
}

// Totals subtotal = Σ líneas; descuento acotado a [0, subtotal]; total = subtotal - descuento.
func Totals(items []entity.SaleItem, discount decimal.Decimal) (subtotal, clamped, total decimal.Decimal) {
	subtotal = decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal())
	}
	clamped = discount
	if clamped.IsNegative() {
		clamped = decimal.Zero
	}
	if clamped.GreaterThan(subtotal) {
		clamped = subtotal
	}
	return subtotal, clamped, subtotal.Sub(clamped)
}

// Requirements agrega por producto las cantidades de las líneas de catálogo.
func Requirements(items []entity.SaleItem) []Requirement {
	byProduct := make(map[string]int)
	for _, it := range items {
		if it.Kind == entity.ItemKindCatalog {
			byProduct[it.ProductID] += it.Quantity
		}
	}
	out := make([]Requirement, 0, len(byProduct))
	for id, q := range byProduct {
		out = append(out, Requirement{ProductID: id, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

// CarryApprovals conserva la aprobación de las líneas personalizadas que no cambiaron
// (mismo nombre, sku, cantidad, precio y descuento). Devuelve si la venta sigue requiriendo aprobación.
func CarryApprovals(previous, next []entity.SaleItem) bool {
	used := make([]bool, len(previous))
	requires := false
	for i := range next {
		if !next[i].IsCustom() {
			continue
		}
		next[i].RequiresApproval = true
		for j, prev := range previous {
			if used[j] || !prev.IsCustom() || prev.RequiresApproval {
				continue
			}
			if sameCustomLine(prev, next[i]) {
				used[j] = true
				next[i].RequiresApproval = false
				break
			}
		}
		if next[i].RequiresApproval {
			requires = true
		}
	}
	return requires
}

func sameCustomLine(a, b entity.SaleItem) bool {
	return a.CustomName == b.CustomName &&
		a.CustomSKU == b.CustomSKU &&
		a.Quantity == b.Quantity &&
		a.UnitPrice.Equal(b.UnitPrice) &&
		a.Discount.Equal(b.Discount)
}
