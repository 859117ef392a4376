package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo log append-only de movimientos (usable con pool o tx).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create inserta el movimiento. seq (BIGSERIAL) fija el orden cronológico dentro de una misma tx.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (id, product_id, sale_id, type, kind, amount, quantity_delta, reserved_delta, note, actor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.ProductID, nullString(m.SaleID), m.Type, m.Kind, m.Amount,
		m.QuantityDelta, m.ReservedDelta, m.Note, m.Actor, m.CreatedAt,
	)
	return mapError("insert stock movement", err)
}

// ListByProduct historial del producto en orden de inserción.
func (r *StockMovementRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.StockMovement, error) {
	return r.list(ctx, `WHERE product_id = $1`, productID)
}

// ListBySale movimientos causados por una venta.
func (r *StockMovementRepo) ListBySale(ctx context.Context, saleID string) ([]*entity.StockMovement, error) {
	return r.list(ctx, `WHERE sale_id = $1`, saleID)
}

func (r *StockMovementRepo) list(ctx context.Context, where string, arg any) ([]*entity.StockMovement, error) {
	query := `
		SELECT id, product_id, sale_id, type, kind, amount, quantity_delta, reserved_delta, note, actor, created_at
		FROM stock_movements ` + where + ` ORDER BY seq`
	rows, err := r.q.Query(ctx, query, arg)
	if err != nil {
		return nil, mapError("list stock movements", err)
	}
	defer rows.Close()
	out := []*entity.StockMovement{}
	for rows.Next() {
		var m entity.StockMovement
		var saleID *string
		if err := rows.Scan(&m.ID, &m.ProductID, &saleID, &m.Type, &m.Kind, &m.Amount,
			&m.QuantityDelta, &m.ReservedDelta, &m.Note, &m.Actor, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		m.SaleID = derefString(saleID)
		out = append(out, &m)
	}
	return out, rows.Err()
}
