package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

// ProductRepo implementa repository.ProductRepository.
type ProductRepo struct{ b binding }

var _ repository.ProductRepository = (*ProductRepo)(nil)

func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	return r.b.write(ctx, func(st *state) error {
		if _, ok := st.products[p.ID]; ok {
			return fmt.Errorf("%w: producto %s", domain.ErrDuplicate, p.ID)
		}
		for _, other := range st.products {
			if other.SKU == p.SKU {
				return fmt.Errorf("%w: sku %s", domain.ErrDuplicate, p.SKU)
			}
		}
		cp := *p
		st.products[p.ID] = &cp
		return nil
	})
}

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.b.read(func(st *state) error {
		if p, ok := st.products[id]; ok {
			cp := *p
			out = &cp
		}
		return nil
	})
	return out, err
}

func (r *ProductRepo) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	var out *entity.Product
	err := r.b.read(func(st *state) error {
		for _, p := range st.products {
			if p.SKU == sku {
				cp := *p
				out = &cp
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *ProductRepo) List(_ context.Context, limit, offset int) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.b.read(func(st *state) error {
		for _, p := range st.products {
			cp := *p
			out = append(out, &cp)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return page(out, limit, offset), err
}

// LockForUpdate: dentro de una tx el semáforo ya da exclusión; devuelve copias.
func (r *ProductRepo) LockForUpdate(_ context.Context, ids []string) (map[string]*entity.Product, error) {
	out := make(map[string]*entity.Product, len(ids))
	err := r.b.read(func(st *state) error {
		for _, id := range ids {
			if p, ok := st.products[id]; ok {
				cp := *p
				out[id] = &cp
			}
		}
		return nil
	})
	return out, err
}

func (r *ProductRepo) UpdateBalance(ctx context.Context, id string, quantity, reserved int, updatedAt time.Time) error {
	if quantity < 0 || reserved < 0 {
		return fmt.Errorf("%w: saldo negativo en %s (quantity %d, reserved %d)", domain.ErrInvariantViolation, id, quantity, reserved)
	}
	return r.b.write(ctx, func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
		}
		p.Quantity = quantity
		p.Reserved = reserved
		p.UpdatedAt = updatedAt
		return nil
	})
}

func (r *ProductRepo) UpdateFactoryCost(ctx context.Context, id string, cost decimal.Decimal, updatedAt time.Time) error {
	return r.b.write(ctx, func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
		}
		p.FactoryCost = cost
		p.UpdatedAt = updatedAt
		return nil
	})
}

func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	return r.b.write(ctx, func(st *state) error {
		if _, ok := st.products[id]; !ok {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
		}
		delete(st.products, id)
		return nil
	})
}
