package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

// ReportUseCase resumen financiero de ventas (solo admin).
type ReportUseCase struct {
	saleRepo    repository.SaleRepository
	productRepo repository.ProductRepository
}

// NewReportUseCase construye el caso de uso.
func NewReportUseCase(saleRepo repository.SaleRepository, productRepo repository.ProductRepository) *ReportUseCase {
	return &ReportUseCase{saleRepo: saleRepo, productRepo: productRepo}
}

// Summary agrega las ventas creadas en [from, to).
// Revenue y RevenueByMethod cuentan solo ventas entregues; CostOfGoods usa el costo de fábrica actual.
func (uc *ReportUseCase) Summary(ctx context.Context, actor entity.Actor, from, to time.Time) (*dto.SummaryResponse, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if !to.After(from) {
		return nil, fmt.Errorf("%w: período vacío", domain.ErrInvalidInput)
	}
	list, err := uc.saleRepo.List(ctx, repository.SaleFilter{From: &from, To: &to})
	if err != nil {
		return nil, err
	}

	out := &dto.SummaryResponse{
		From:            from,
		To:              to,
		ByStatus:        make(map[string]dto.StatusSummary),
		RevenueByMethod: make(map[string]decimal.Decimal),
		Revenue:         decimal.Zero,
		CostOfGoods:     decimal.Zero,
	}
	costs := make(map[string]decimal.Decimal)
	for _, s := range list {
		st := out.ByStatus[s.Status]
		st.Count++
		st.Total = st.Total.Add(s.Total)
		out.ByStatus[s.Status] = st

		if s.Status == entity.SaleStatusPending && s.RequiresApproval {
			out.PendingApprovals++
		}
		if s.Status != entity.SaleStatusDelivered {
			continue
		}
		out.Revenue = out.Revenue.Add(s.Total)
		for _, p := range s.Payments {
			out.RevenueByMethod[p.Method] = out.RevenueByMethod[p.Method].Add(p.Amount)
		}
		for _, it := range s.Items {
			if it.IsCustom() {
				continue
			}
			cost, err := uc.factoryCost(ctx, costs, it.ProductID)
			if err != nil {
				return nil, err
			}
			out.CostOfGoods = out.CostOfGoods.Add(cost.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
	}
	out.GrossMargin = out.Revenue.Sub(out.CostOfGoods)
	return out, nil
}

func (uc *ReportUseCase) factoryCost(ctx context.Context, cache map[string]decimal.Decimal, productID string) (decimal.Decimal, error) {
	if c, ok := cache[productID]; ok {
		return c, nil
	}
	p, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	c := decimal.Zero
	if p != nil {
		c = p.FactoryCost
	}
	cache[productID] = c
	return c, nil
}
