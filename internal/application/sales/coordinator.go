package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/backoffice-api/internal/application/contention"
	"github.com/jhoicas/backoffice-api/internal/application/inventory"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
	"github.com/jhoicas/backoffice-api/internal/domain/sale"
)

// Operaciones (etiqueta de logs y métricas).
const (
	OpCreate  = "create"
	OpEdit    = "edit"
	OpDeliver = "deliver"
	OpCancel  = "cancel"
	OpApprove = "approve"
)

// Config parámetros del coordinador.
type Config struct {
	MaxRetries       int           // reintentos adicionales ante ErrContention
	Backoff          time.Duration // backoff lineal: intento n espera n*Backoff
	PaymentTolerance decimal.Decimal
}

// Coordinator orquesta el ciclo de vida de la venta: valida contra el ledger, aplica
// ledger y venta en una sola transacción y conduce la máquina de estados.
type Coordinator struct {
	txRunner     TxRunner
	customerRepo repository.CustomerRepository
	saleRepo     repository.SaleRepository
	log          zerolog.Logger
	cfg          Config
	metrics      Recorder
	now          func() time.Time
}

// NewCoordinator construye el coordinador. metrics puede ser nil.
func NewCoordinator(
	txRunner TxRunner,
	customerRepo repository.CustomerRepository,
	saleRepo repository.SaleRepository,
	log zerolog.Logger,
	cfg Config,
	metrics Recorder,
) *Coordinator {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	if cfg.PaymentTolerance.IsZero() {
		cfg.PaymentTolerance = sale.DefaultPaymentTolerance
	}
	return &Coordinator{
		txRunner:     txRunner,
		customerRepo: customerRepo,
		saleRepo:     saleRepo,
		log:          log,
		cfg:          cfg,
		metrics:      metrics,
		now:          time.Now,
	}
}

// CreateSale valida el borrador, reserva cada producto y persiste la venta pendente.
// Un borrador reintentado con el mismo DraftID devuelve la venta ya creada sin reservar de nuevo.
func (c *Coordinator) CreateSale(ctx context.Context, actor entity.Actor, d sale.Draft) (*entity.Sale, error) {
	s, err := c.create(ctx, actor, d)
	c.finish(OpCreate, s, err)
	return s, err
}

func (c *Coordinator) create(ctx context.Context, actor entity.Actor, d sale.Draft) (*entity.Sale, error) {
	if d.ClientID == "" {
		return nil, fmt.Errorf("%w: cliente requerido", domain.ErrInvalidInput)
	}
	customer, err := c.customerRepo.GetByID(ctx, d.ClientID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, fmt.Errorf("%w: cliente %s", domain.ErrNotFound, d.ClientID)
	}
	if existing, err := c.byDraft(ctx, d); existing != nil || err != nil {
		return existing, err
	}

	var out *entity.Sale
	err = c.withRetry(ctx, OpCreate, func() error {
		out = nil
		return c.txRunner.RunSales(ctx, func(movRepo repository.StockMovementRepository, productRepo repository.ProductRepository, saleRepo repository.SaleRepository) error {
			if d.DraftID != "" {
				existing, err := saleRepo.GetByDraftID(ctx, d.DraftID)
				if err != nil {
					return err
				}
				if existing != nil {
					out = existing
					return nil
				}
			}

			now := c.now()
			lg := inventory.NewLedger(productRepo, movRepo, c.log, actor.UserID, now)
			locked, err := lg.Lock(ctx, d.CatalogIDs())
			if err != nil {
				return err
			}
			ev, err := sale.Evaluate(d, locked, c.cfg.PaymentTolerance)
			if err != nil {
				return err
			}
			code, err := saleRepo.NextCode(ctx)
			if err != nil {
				return err
			}

			s := &entity.Sale{
				ID:               uuid.New().String(),
				Code:             code,
				DraftID:          d.DraftID,
				ClientID:         d.ClientID,
				Note:             d.Note,
				DeliveryDate:     d.DeliveryDate,
				Status:           entity.SaleStatusPending,
				RequiresApproval: ev.RequiresApproval,
				CreatedBy:        actor.UserID,
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			applyEvaluation(s, ev)

			for _, req := range ev.Requested {
				if err := lg.Reserve(ctx, locked[req.ProductID], req.Quantity, s.ID, "reserva "+code); err != nil {
					return err
				}
			}
			if err := saleRepo.Create(ctx, s); err != nil {
				return err
			}
			out = s
			return nil
		})
	})
	if err != nil && errors.Is(err, domain.ErrDuplicate) && d.DraftID != "" {
		// Otra petición con el mismo draft ganó la carrera entre la lectura y el insert.
		if existing, rerr := c.byDraft(ctx, d); existing != nil {
			return existing, nil
		} else if rerr != nil {
			return nil, rerr
		}
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Coordinator) byDraft(ctx context.Context, d sale.Draft) (*entity.Sale, error) {
	if d.DraftID == "" {
		return nil, nil
	}
	existing, err := c.saleRepo.GetByDraftID(ctx, d.DraftID)
	if err != nil || existing == nil {
		return nil, err
	}
	if existing.ClientID != d.ClientID {
		return nil, fmt.Errorf("%w: draft %s pertenece a otra venta", domain.ErrDuplicate, d.DraftID)
	}
	return existing, nil
}

// EditSale (admin, solo pendente) reemplaza líneas, pagos y datos de la venta aplicando en el
// ledger únicamente la diferencia neta por producto.
func (c *Coordinator) EditSale(ctx context.Context, actor entity.Actor, saleID string, d sale.Draft) (*entity.Sale, error) {
	s, err := c.edit(ctx, actor, saleID, d)
	c.finish(OpEdit, s, err)
	return s, err
}

func (c *Coordinator) edit(ctx context.Context, actor entity.Actor, saleID string, d sale.Draft) (*entity.Sale, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	var out *entity.Sale
	err := c.withRetry(ctx, OpEdit, func() error {
		out = nil
		return c.txRunner.RunSales(ctx, func(movRepo repository.StockMovementRepository, productRepo repository.ProductRepository, saleRepo repository.SaleRepository) error {
			s, err := lockPending(ctx, saleRepo, saleID)
			if err != nil {
				return err
			}
			if d.ClientID != "" && d.ClientID != s.ClientID {
				return fmt.Errorf("%w: el cliente de la venta no puede cambiar", domain.ErrInvalidInput)
			}
			d.ClientID = s.ClientID

			now := c.now()
			lg := inventory.NewLedger(productRepo, movRepo, c.log, actor.UserID, now)
			held := sale.Requirements(s.Items)
			locked, err := lg.Lock(ctx, unionIDs(held, d.CatalogIDs()))
			if err != nil {
				return err
			}
			ev, err := sale.Evaluate(d, locked, c.cfg.PaymentTolerance)
			if err != nil {
				return err
			}

			note := "edición " + s.Code
			for _, delta := range diffReservations(held, ev.Requested) {
				p, err := c.present(locked, delta.ProductID, s)
				if err != nil {
					return err
				}
				if delta.Delta > 0 {
					err = lg.Reserve(ctx, p, delta.Delta, s.ID, note)
				} else {
					err = lg.Restore(ctx, p, -delta.Delta, s.ID, note)
				}
				if err != nil {
					return err
				}
			}

			requires := sale.CarryApprovals(s.Items, ev.Items)
			applyEvaluation(s, ev)
			s.Note = d.Note
			s.DeliveryDate = d.DeliveryDate
			s.UpdatedAt = now
			if requires && !s.RequiresApproval {
				s.ApprovedAt = nil
				s.ApprovedBy = ""
			}
			s.RequiresApproval = requires

			if err := saleRepo.Update(ctx, s); err != nil {
				return err
			}
			if err := saleRepo.ReplaceLines(ctx, s); err != nil {
				return err
			}
			out = s
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ConfirmDelivery libera la reserva de cada línea de catálogo y marca la venta entregue.
// Requiere pendente y sin aprobación pendiente.
func (c *Coordinator) ConfirmDelivery(ctx context.Context, actor entity.Actor, saleID string) (*entity.Sale, error) {
	s, err := c.settle(ctx, actor, saleID, OpDeliver)
	c.finish(OpDeliver, s, err)
	return s, err
}

// CancelSale (admin) devuelve al disponible todo lo reservado y marca la venta cancelada.
func (c *Coordinator) CancelSale(ctx context.Context, actor entity.Actor, saleID string) (*entity.Sale, error) {
	if !actor.IsAdmin() {
		c.finish(OpCancel, nil, domain.ErrForbidden)
		return nil, domain.ErrForbidden
	}
	s, err := c.settle(ctx, actor, saleID, OpCancel)
	c.finish(OpCancel, s, err)
	return s, err
}

// settle cierra la venta: entrega (release) o cancelación (restore).
func (c *Coordinator) settle(ctx context.Context, actor entity.Actor, saleID, op string) (*entity.Sale, error) {
	var out *entity.Sale
	err := c.withRetry(ctx, op, func() error {
		out = nil
		return c.txRunner.RunSales(ctx, func(movRepo repository.StockMovementRepository, productRepo repository.ProductRepository, saleRepo repository.SaleRepository) error {
			s, err := lockPending(ctx, saleRepo, saleID)
			if err != nil {
				return err
			}
			if op == OpDeliver && s.RequiresApproval {
				return fmt.Errorf("%w: venta %s tiene ítems personalizados sin aprobar", domain.ErrApprovalRequired, s.Code)
			}

			now := c.now()
			lg := inventory.NewLedger(productRepo, movRepo, c.log, actor.UserID, now)
			held := sale.Requirements(s.Items)
			ids := make([]string, 0, len(held))
			for _, h := range held {
				ids = append(ids, h.ProductID)
			}
			locked, err := lg.Lock(ctx, ids)
			if err != nil {
				return err
			}
			for _, h := range held {
				p, err := c.present(locked, h.ProductID, s)
				if err != nil {
					return err
				}
				if op == OpDeliver {
					err = lg.Release(ctx, p, h.Quantity, s.ID, "entrega "+s.Code)
				} else {
					err = lg.Restore(ctx, p, h.Quantity, s.ID, "cancelación "+s.Code)
				}
				if err != nil {
					return err
				}
			}

			if op == OpDeliver {
				s.Status = entity.SaleStatusDelivered
				s.DeliveredAt = &now
			} else {
				s.Status = entity.SaleStatusCancelled
				s.CancelledAt = &now
			}
			s.UpdatedAt = now
			if err := saleRepo.Update(ctx, s); err != nil {
				return err
			}
			out = s
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ApproveSale (admin) libera la compuerta de aprobación. Sin efecto en el ledger; idempotente.
func (c *Coordinator) ApproveSale(ctx context.Context, actor entity.Actor, saleID string) (*entity.Sale, error) {
	s, err := c.approve(ctx, actor, saleID)
	c.finish(OpApprove, s, err)
	return s, err
}

func (c *Coordinator) approve(ctx context.Context, actor entity.Actor, saleID string) (*entity.Sale, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	var out *entity.Sale
	err := c.withRetry(ctx, OpApprove, func() error {
		out = nil
		return c.txRunner.RunSales(ctx, func(_ repository.StockMovementRepository, _ repository.ProductRepository, saleRepo repository.SaleRepository) error {
			s, err := saleRepo.GetForUpdate(ctx, saleID)
			if err != nil {
				return err
			}
			if s == nil {
				return fmt.Errorf("%w: venta %s", domain.ErrNotFound, saleID)
			}
			if !s.RequiresApproval {
				out = s
				return nil
			}
			if s.IsTerminal() {
				return fmt.Errorf("%w: venta %s está %s", domain.ErrInvalidState, s.Code, s.Status)
			}
			now := c.now()
			s.RequiresApproval = false
			s.ApprovedAt = &now
			s.ApprovedBy = actor.UserID
			s.UpdatedAt = now
			for i := range s.Items {
				s.Items[i].RequiresApproval = false
			}
			if err := saleRepo.Update(ctx, s); err != nil {
				return err
			}
			if err := saleRepo.MarkItemsApproved(ctx, s.ID); err != nil {
				return err
			}
			out = s
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetSale lee una venta.
func (c *Coordinator) GetSale(ctx context.Context, saleID string) (*entity.Sale, error) {
	s, err := c.saleRepo.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: venta %s", domain.ErrNotFound, saleID)
	}
	return s, nil
}

// ListSales lista ventas con filtros.
func (c *Coordinator) ListSales(ctx context.Context, f repository.SaleFilter) ([]*entity.Sale, error) {
	return c.saleRepo.List(ctx, f)
}

func lockPending(ctx context.Context, saleRepo repository.SaleRepository, saleID string) (*entity.Sale, error) {
	s, err := saleRepo.GetForUpdate(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: venta %s", domain.ErrNotFound, saleID)
	}
	if s.Status != entity.SaleStatusPending {
		return nil, fmt.Errorf("%w: venta %s está %s", domain.ErrInvalidState, s.Code, s.Status)
	}
	return s, nil
}

// present exige que un producto retenido por la venta siga existiendo.
func (c *Coordinator) present(locked map[string]*entity.Product, productID string, s *entity.Sale) (*entity.Product, error) {
	if p := locked[productID]; p != nil {
		return p, nil
	}
	err := fmt.Errorf("%w: producto %s reservado por %s no existe", domain.ErrInvariantViolation, productID, s.Code)
	c.log.Error().Err(err).Str("sale_id", s.ID).Str("product_id", productID).Msg("ledger: invariante violada")
	return nil, err
}

func applyEvaluation(s *entity.Sale, ev *sale.Evaluation) {
	s.Items = ev.Items
	for i := range s.Items {
		s.Items[i].ID = uuid.New().String()
		s.Items[i].SaleID = s.ID
	}
	s.Payments = ev.Payments
	for i := range s.Payments {
		s.Payments[i].ID = uuid.New().String()
		s.Payments[i].SaleID = s.ID
	}
	s.Subtotal = ev.Subtotal
	s.Discount = ev.Discount
	s.Total = ev.Total
}

// withRetry reintenta fn ante ErrContention con backoff lineal. La tx fallida ya hizo rollback.
func (c *Coordinator) withRetry(ctx context.Context, op string, fn func() error) error {
	p := contention.Policy{MaxRetries: c.cfg.MaxRetries, Backoff: c.cfg.Backoff}
	return p.Do(ctx, c.log, op, func() { c.metrics.Contention(op) }, fn)
}

func (c *Coordinator) finish(op string, s *entity.Sale, err error) {
	if err != nil {
		c.metrics.Transition(op, domain.ErrorCode(err))
		ev := c.log.Info()
		if errors.Is(err, domain.ErrInvariantViolation) {
			ev = c.log.Error()
		}
		ev.Err(err).Str("op", op).Msg("venta: operación rechazada")
		return
	}
	c.metrics.Transition(op, "ok")
	c.log.Info().
		Str("op", op).
		Str("sale_id", s.ID).
		Str("code", s.Code).
		Str("status", s.Status).
		Bool("requires_approval", s.RequiresApproval).
		Msg("venta: transición aplicada")
}
