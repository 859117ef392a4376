package sales

import (
	"sort"

	"github.com/jhoicas/backoffice-api/internal/domain/sale"
)

// reservationDelta cambio neto de reserva de un producto. Delta > 0 reserva más; < 0 devuelve.
type reservationDelta struct {
	ProductID string
	Delta     int
}

// diffReservations compara lo que la venta retiene con lo pedido y devuelve solo los cambios
// distintos de cero, ordenados por ProductID.
func diffReservations(held, requested []sale.Requirement) []reservationDelta {
	net := make(map[string]int)
	for _, h := range held {
		net[h.ProductID] -= h.Quantity
	}
	for _, r := range requested {
		net[r.ProductID] += r.Quantity
	}
	out := make([]reservationDelta, 0, len(net))
	for id, d := range net {
		if d != 0 {
			out = append(out, reservationDelta{ProductID: id, Delta: d})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

// unionIDs ids de ambos conjuntos sin repetir, ordenados.
func unionIDs(a []sale.Requirement, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, r := range a {
		if _, ok := seen[r.ProductID]; !ok {
			seen[r.ProductID] = struct{}{}
			out = append(out, r.ProductID)
		}
	}
	for _, id := range b {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
