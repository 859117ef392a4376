package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

// CustomerRepo implementa repository.CustomerRepository.
type CustomerRepo struct{ b binding }

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

func (r *CustomerRepo) Create(ctx context.Context, c *entity.Customer) error {
	cp := *c
	return r.b.write(ctx, func(st *state) error {
		if _, ok := st.customers[c.ID]; ok {
			return fmt.Errorf("%w: cliente %s", domain.ErrDuplicate, c.ID)
		}
		if c.Document != "" {
			for _, other := range st.customers {
				if other.Document == c.Document {
					return fmt.Errorf("%w: documento %s", domain.ErrDuplicate, c.Document)
				}
			}
		}
		st.customers[c.ID] = &cp
		return nil
	})
}

func (r *CustomerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	var out *entity.Customer
	err := r.b.read(func(st *state) error {
		if c, ok := st.customers[id]; ok {
			cp := *c
			out = &cp
		}
		return nil
	})
	return out, err
}

func (r *CustomerRepo) List(_ context.Context, limit, offset int) ([]*entity.Customer, error) {
	var out []*entity.Customer
	err := r.b.read(func(st *state) error {
		for _, c := range st.customers {
			cp := *c
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
