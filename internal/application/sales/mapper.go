package sales

import (
	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
	"github.com/jhoicas/backoffice-api/internal/domain/sale"
)

// DraftFromCreate adapta el request HTTP al borrador de dominio.
func DraftFromCreate(in dto.CreateSaleRequest) sale.Draft {
	return sale.Draft{
		DraftID:      in.DraftID,
		ClientID:     in.ClientID,
		Items:        draftItems(in.Items),
		Payments:     draftPayments(in.Payments),
		Discount:     in.Discount,
		Note:         in.Note,
		DeliveryDate: in.DeliveryDate,
	}
}

// DraftFromUpdate adapta el request de edición al borrador de dominio.
func DraftFromUpdate(in dto.UpdateSaleRequest) sale.Draft {
	return sale.Draft{
		ClientID:     in.ClientID,
		Items:        draftItems(in.Items),
		Payments:     draftPayments(in.Payments),
		Discount:     in.Discount,
		Note:         in.Note,
		DeliveryDate: in.DeliveryDate,
	}
}

func draftItems(in []dto.SaleItemRequest) []sale.DraftItem {
	out := make([]sale.DraftItem, 0, len(in))
	for _, it := range in {
		kind := entity.ItemKindCatalog
		if it.IsCustom {
			kind = entity.ItemKindCustom
		}
		out = append(out, sale.DraftItem{
			Kind:       kind,
			ProductID:  it.ProductID,
			CustomName: it.CustomName,
			CustomSKU:  it.CustomSKU,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			Discount:   it.Discount,
		})
	}
	return out
}

func draftPayments(in []dto.PaymentRequest) []sale.DraftPayment {
	out := make([]sale.DraftPayment, 0, len(in))
	for _, p := range in {
		out = append(out, sale.DraftPayment{Method: p.Method, Amount: p.Amount, Installments: p.Installments})
	}
	return out
}

// FilterFromQuery adapta los filtros del listado.
func FilterFromQuery(q dto.SaleListQuery) repository.SaleFilter {
	q.DefaultPage()
	return repository.SaleFilter{
		Status:           q.Status,
		ClientID:         q.ClientID,
		RequiresApproval: q.RequiresApproval,
		From:             q.From,
		To:               q.To,
		Limit:            q.Limit,
		Offset:           q.Offset,
	}
}

// ToSaleResponse mapea el agregado a la respuesta HTTP.
func ToSaleResponse(s *entity.Sale) dto.SaleResponse {
	out := dto.SaleResponse{
		ID:               s.ID,
		Code:             s.Code,
		DraftID:          s.DraftID,
		ClientID:         s.ClientID,
		Status:           s.Status,
		RequiresApproval: s.RequiresApproval,
		Items:            make([]dto.SaleItemResponse, 0, len(s.Items)),
		Payments:         make([]dto.PaymentResponse, 0, len(s.Payments)),
		Subtotal:         s.Subtotal,
		Discount:         s.Discount,
		Total:            s.Total,
		Note:             s.Note,
		DeliveryDate:     s.DeliveryDate,
		CreatedBy:        s.CreatedBy,
		ApprovedBy:       s.ApprovedBy,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
		DeliveredAt:      s.DeliveredAt,
		CancelledAt:      s.CancelledAt,
		ApprovedAt:       s.ApprovedAt,
	}
	for _, it := range s.Items {
		out.Items = append(out.Items, dto.SaleItemResponse{
			ID:               it.ID,
			Position:         it.Position,
			IsCustom:         it.IsCustom(),
			ProductID:        it.ProductID,
			Name:             it.DisplayName(),
			SKU:              it.DisplaySKU(),
			Quantity:         it.Quantity,
			UnitPrice:        it.UnitPrice,
			Discount:         it.Discount,
			LineTotal:        it.LineTotal(),
			RequiresApproval: it.RequiresApproval,
		})
	}
	for _, p := range s.Payments {
		out.Payments = append(out.Payments, dto.PaymentResponse{
			ID:           p.ID,
			Method:       p.Method,
			Amount:       p.Amount,
			Installments: p.Installments,
		})
	}
	return out
}
