package sales

import (
	"context"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

// TxRunner ejecuta fn en una transacción con los repositorios de ledger y ventas atados a ella.
type TxRunner interface {
	RunSales(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
		saleRepo repository.SaleRepository,
	) error) error
}

// Recorder recibe eventos para métricas. outcome es "ok" o el código de error de dominio.
type Recorder interface {
	Transition(op, outcome string)
	Contention(op string)
}

type nopRecorder struct{}

func (nopRecorder) Transition(string, string) {}
func (nopRecorder) Contention(string)         {}

// ReceiptGenerator genera el comprobante PDF de una venta.
type ReceiptGenerator interface {
	GenerateSaleReceipt(ctx context.Context, sale *entity.Sale, customer *entity.Customer) ([]byte, error)
}
