package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo persistencia del agregado Sale: sales, sale_items y sale_payments.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

const saleColumns = `id, code, draft_id, client_id, subtotal, discount, total, note, delivery_date, status,
	requires_approval, created_by, approved_by, created_at, updated_at, delivered_at, cancelled_at, approved_at`

// NextCode toma el siguiente valor de sale_code_seq.
func (r *SaleRepo) NextCode(ctx context.Context) (string, error) {
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT nextval('sale_code_seq')`).Scan(&n); err != nil {
		return "", mapError("next sale code", err)
	}
	return fmt.Sprintf("PED-%06d", n), nil
}

// Create inserta cabecera, líneas y pagos. El índice único de draft_id da ErrDuplicate.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	query := `INSERT INTO sales (` + saleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.Code, nullString(s.DraftID), s.ClientID, s.Subtotal, s.Discount, s.Total, s.Note, s.DeliveryDate,
		s.Status, s.RequiresApproval, s.CreatedBy, nullString(s.ApprovedBy), s.CreatedAt, s.UpdatedAt,
		s.DeliveredAt, s.CancelledAt, s.ApprovedAt,
	)
	if err != nil {
		return mapError("insert sale", err)
	}
	return r.insertLines(ctx, s)
}

// Update actualiza la cabecera; líneas y pagos no se tocan.
func (r *SaleRepo) Update(ctx context.Context, s *entity.Sale) error {
	query := `
		UPDATE sales SET client_id = $2, subtotal = $3, discount = $4, total = $5, note = $6, delivery_date = $7,
			status = $8, requires_approval = $9, approved_by = $10, updated_at = $11,
			delivered_at = $12, cancelled_at = $13, approved_at = $14
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		s.ID, s.ClientID, s.Subtotal, s.Discount, s.Total, s.Note, s.DeliveryDate,
		s.Status, s.RequiresApproval, nullString(s.ApprovedBy), s.UpdatedAt,
		s.DeliveredAt, s.CancelledAt, s.ApprovedAt,
	)
	if err != nil {
		return mapError("update sale", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: venta %s", domain.ErrNotFound, s.ID)
	}
	return nil
}

// ReplaceLines borra y reinserta líneas y pagos.
func (r *SaleRepo) ReplaceLines(ctx context.Context, s *entity.Sale) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM sale_items WHERE sale_id = $1`, s.ID); err != nil {
		return mapError("delete sale items", err)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM sale_payments WHERE sale_id = $1`, s.ID); err != nil {
		return mapError("delete sale payments", err)
	}
	return r.insertLines(ctx, s)
}

func (r *SaleRepo) insertLines(ctx context.Context, s *entity.Sale) error {
	for _, it := range s.Items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO sale_items (id, sale_id, position, kind, product_id, product_name, product_sku,
				custom_name, custom_sku, quantity, unit_price, discount, requires_approval)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			it.ID, s.ID, it.Position, string(it.Kind), nullString(it.ProductID), it.ProductName, it.ProductSKU,
			it.CustomName, it.CustomSKU, it.Quantity, it.UnitPrice, it.Discount, it.RequiresApproval,
		)
		if err != nil {
			return mapError("insert sale item", err)
		}
	}
	for _, p := range s.Payments {
		_, err := r.q.Exec(ctx, `
			INSERT INTO sale_payments (id, sale_id, method, amount, installments)
			VALUES ($1, $2, $3, $4, $5)`,
			p.ID, s.ID, p.Method, p.Amount, p.Installments,
		)
		if err != nil {
			return mapError("insert sale payment", err)
		}
	}
	return nil
}

// MarkItemsApproved limpia la marca de aprobación de las líneas.
func (r *SaleRepo) MarkItemsApproved(ctx context.Context, saleID string) error {
	_, err := r.q.Exec(ctx, `UPDATE sale_items SET requires_approval = false WHERE sale_id = $1`, saleID)
	return mapError("approve sale items", err)
}

// GetByID obtiene la venta con sus líneas.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	return r.getOne(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
}

// GetByDraftID busca por clave de idempotencia.
func (r *SaleRepo) GetByDraftID(ctx context.Context, draftID string) (*entity.Sale, error) {
	return r.getOne(ctx, `SELECT `+saleColumns+` FROM sales WHERE draft_id = $1`, draftID)
}

// GetForUpdate bloquea la fila de la venta hasta el fin de la tx.
func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.getOne(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, id)
}

func (r *SaleRepo) getOne(ctx context.Context, query string, arg any) (*entity.Sale, error) {
	s, err := scanSale(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get sale", err)
	}
	if err := r.loadLines(ctx, []*entity.Sale{s}); err != nil {
		return nil, err
	}
	return s, nil
}

// List aplica los filtros no vacíos; orden: más recientes primero.
func (r *SaleRepo) List(ctx context.Context, f repository.SaleFilter) ([]*entity.Sale, error) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.ClientID != "" {
		add("client_id = $%d", f.ClientID)
	}
	if f.RequiresApproval != nil {
		add("requires_approval = $%d", *f.RequiresApproval)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at < $%d", *f.To)
	}

	query := `SELECT ` + saleColumns + ` FROM sales`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, code DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("list sales", err)
	}
	var out []*entity.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		out = append(out, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, mapError("list sales", err)
	}
	if err := r.loadLines(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var s entity.Sale
	var draftID, approvedBy *string
	err := row.Scan(&s.ID, &s.Code, &draftID, &s.ClientID, &s.Subtotal, &s.Discount, &s.Total, &s.Note,
		&s.DeliveryDate, &s.Status, &s.RequiresApproval, &s.CreatedBy, &approvedBy, &s.CreatedAt, &s.UpdatedAt,
		&s.DeliveredAt, &s.CancelledAt, &s.ApprovedAt)
	if err != nil {
		return nil, err
	}
	s.DraftID = derefString(draftID)
	s.ApprovedBy = derefString(approvedBy)
	return &s, nil
}

// loadLines carga líneas y pagos de varias ventas con dos consultas.
func (r *SaleRepo) loadLines(ctx context.Context, sales []*entity.Sale) error {
	if len(sales) == 0 {
		return nil
	}
	ids := make([]string, len(sales))
	byID := make(map[string]*entity.Sale, len(sales))
	for i, s := range sales {
		ids[i] = s.ID
		byID[s.ID] = s
	}

	rows, err := r.q.Query(ctx, `
		SELECT id, sale_id, position, kind, product_id, product_name, product_sku,
			custom_name, custom_sku, quantity, unit_price, discount, requires_approval
		FROM sale_items WHERE sale_id = ANY($1) ORDER BY sale_id, position`, ids)
	if err != nil {
		return mapError("load sale items", err)
	}
	for rows.Next() {
		var it entity.SaleItem
		var kind string
		var productID *string
		if err := rows.Scan(&it.ID, &it.SaleID, &it.Position, &kind, &productID, &it.ProductName, &it.ProductSKU,
			&it.CustomName, &it.CustomSKU, &it.Quantity, &it.UnitPrice, &it.Discount, &it.RequiresApproval); err != nil {
			rows.Close()
			return fmt.Errorf("scan sale item: %w", err)
		}
		it.Kind = entity.ItemKind(kind)
		it.ProductID = derefString(productID)
		s := byID[it.SaleID]
		s.Items = append(s.Items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return mapError("load sale items", err)
	}

	rows, err = r.q.Query(ctx, `
		SELECT id, sale_id, method, amount, installments
		FROM sale_payments WHERE sale_id = ANY($1) ORDER BY sale_id, seq`, ids)
	if err != nil {
		return mapError("load sale payments", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p entity.Payment
		if err := rows.Scan(&p.ID, &p.SaleID, &p.Method, &p.Amount, &p.Installments); err != nil {
			return fmt.Errorf("scan sale payment: %w", err)
		}
		s := byID[p.SaleID]
		s.Payments = append(s.Payments, p)
	}
	return rows.Err()
}
