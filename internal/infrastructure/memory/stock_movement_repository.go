package memory

import (
	"context"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

// StockMovementRepo implementa repository.StockMovementRepository (append-only).
type StockMovementRepo struct{ b binding }

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	cp := *m
	return r.b.write(ctx, func(st *state) error {
		st.movements = append(st.movements, &cp)
		return nil
	})
}

func (r *StockMovementRepo) ListByProduct(_ context.Context, productID string) ([]*entity.StockMovement, error) {
	return r.filter(func(m *entity.StockMovement) bool { return m.ProductID == productID })
}

func (r *StockMovementRepo) ListBySale(_ context.Context, saleID string) ([]*entity.StockMovement, error) {
	return r.filter(func(m *entity.StockMovement) bool { return m.SaleID == saleID })
}

func (r *StockMovementRepo) filter(keep func(*entity.StockMovement) bool) ([]*entity.StockMovement, error) {
	out := []*entity.StockMovement{}
	err := r.b.read(func(st *state) error {
		for _, m := range st.movements {
			if keep(m) {
				cp := *m
				out = append(out, &cp)
			}
		}
		return nil
	})
	return out, err
}
