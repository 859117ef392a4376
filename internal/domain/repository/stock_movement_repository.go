package repository

import (
	"context"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// StockMovementRepository persistencia append-only del log de movimientos.
type StockMovementRepository interface {
	Create(ctx context.Context, m *entity.StockMovement) error
	// ListByProduct devuelve los movimientos en orden cronológico.
	ListByProduct(ctx context.Context, productID string) ([]*entity.StockMovement, error)
	ListBySale(ctx context.Context, saleID string) ([]*entity.StockMovement, error)
}
