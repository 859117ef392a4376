package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

// SaleRepo implementa repository.SaleRepository.
type SaleRepo struct{ b binding }

var _ repository.SaleRepository = (*SaleRepo)(nil)

func copySale(s *entity.Sale) *entity.Sale {
	cp := *s
	cp.Items = slices.Clone(s.Items)
	cp.Payments = slices.Clone(s.Payments)
	return &cp
}

func (r *SaleRepo) NextCode(ctx context.Context) (string, error) {
	var code string
	err := r.b.write(ctx, func(st *state) error {
		st.saleSeq++
		code = fmt.Sprintf("PED-%06d", st.saleSeq)
		return nil
	})
	return code, err
}

func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	return r.b.write(ctx, func(st *state) error {
		if _, ok := st.sales[s.ID]; ok {
			return fmt.Errorf("%w: venta %s", domain.ErrDuplicate, s.ID)
		}
		if s.DraftID != "" {
			for _, other := range st.sales {
				if other.DraftID == s.DraftID {
					return fmt.Errorf("%w: draft %s", domain.ErrDuplicate, s.DraftID)
				}
			}
		}
		st.sales[s.ID] = copySale(s)
		return nil
	})
}

// Update solo toca la cabecera; líneas y pagos se conservan.
func (r *SaleRepo) Update(ctx context.Context, s *entity.Sale) error {
	return r.b.write(ctx, func(st *state) error {
		cur, ok := st.sales[s.ID]
		if !ok {
			return fmt.Errorf("%w: venta %s", domain.ErrNotFound, s.ID)
		}
		next := *s
		next.Items = cur.Items
		next.Payments = cur.Payments
		st.sales[s.ID] = &next
		return nil
	})
}

func (r *SaleRepo) ReplaceLines(ctx context.Context, s *entity.Sale) error {
	return r.b.write(ctx, func(st *state) error {
		cur, ok := st.sales[s.ID]
		if !ok {
			return fmt.Errorf("%w: venta %s", domain.ErrNotFound, s.ID)
		}
		cur.Items = slices.Clone(s.Items)
		cur.Payments = slices.Clone(s.Payments)
		return nil
	})
}

func (r *SaleRepo) MarkItemsApproved(ctx context.Context, saleID string) error {
	return r.b.write(ctx, func(st *state) error {
		cur, ok := st.sales[saleID]
		if !ok {
			return fmt.Errorf("%w: venta %s", domain.ErrNotFound, saleID)
		}
		for i := range cur.Items {
			cur.Items[i].RequiresApproval = false
		}
		return nil
	})
}

func (r *SaleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	var out *entity.Sale
	err := r.b.read(func(st *state) error {
		if s, ok := st.sales[id]; ok {
			out = copySale(s)
		}
		return nil
	})
	return out, err
}

func (r *SaleRepo) GetByDraftID(_ context.Context, draftID string) (*entity.Sale, error) {
	var out *entity.Sale
	err := r.b.read(func(st *state) error {
		for _, s := range st.sales {
			if s.DraftID == draftID {
				out = copySale(s)
				return nil
			}
		}
		return nil
	})
	return out, err
}

// GetForUpdate: dentro de una tx el semáforo ya da exclusión.
func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.GetByID(ctx, id)
}

func (r *SaleRepo) List(_ context.Context, f repository.SaleFilter) ([]*entity.Sale, error) {
	var out []*entity.Sale
	err := r.b.read(func(st *state) error {
		for _, s := range st.sales {
			if matches(s, f) {
				out = append(out, copySale(s))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Code > out[j].Code
	})
	return page(out, f.Limit, f.Offset), err
}

func matches(s *entity.Sale, f repository.SaleFilter) bool {
	if f.Status != "" && s.Status != f.Status {
		return false
	}
	if f.ClientID != "" && s.ClientID != f.ClientID {
		return false
	}
	if f.RequiresApproval != nil && s.RequiresApproval != *f.RequiresApproval {
		return false
	}
	if f.From != nil && s.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !s.CreatedAt.Before(*f.To) {
		return false
	}
	return true
}
