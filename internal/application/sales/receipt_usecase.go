package sales

import (
	"context"
	"fmt"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

// ReceiptUseCase genera el comprobante PDF de una venta.
type ReceiptUseCase struct {
	saleRepo     repository.SaleRepository
	customerRepo repository.CustomerRepository
	generator    ReceiptGenerator
}

// NewReceiptUseCase construye el caso de uso.
func NewReceiptUseCase(saleRepo repository.SaleRepository, customerRepo repository.CustomerRepository, generator ReceiptGenerator) *ReceiptUseCase {
	return &ReceiptUseCase{saleRepo: saleRepo, customerRepo: customerRepo, generator: generator}
}

// Receipt devuelve los bytes del PDF y el nombre de archivo sugerido.
func (uc *ReceiptUseCase) Receipt(ctx context.Context, saleID string) ([]byte, string, error) {
	s, err := uc.saleRepo.GetByID(ctx, saleID)
	if err != nil {
		return nil, "", err
	}
	if s == nil {
		return nil, "", fmt.Errorf("%w: venta %s", domain.ErrNotFound, saleID)
	}
	customer, err := uc.customerRepo.GetByID(ctx, s.ClientID)
	if err != nil {
		return nil, "", err
	}
	if customer == nil {
		return nil, "", fmt.Errorf("%w: cliente %s", domain.ErrNotFound, s.ClientID)
	}
	pdf, err := uc.generator.GenerateSaleReceipt(ctx, s, customer)
	if err != nil {
		return nil, "", err
	}
	return pdf, s.Code + ".pdf", nil
}
