package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/ledger"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

// Ledger aplica las transiciones de saldo dentro de una transacción ya abierta.
// Es el único camino hacia ProductRepository.UpdateBalance; cada cambio deja un StockMovement.
type Ledger struct {
	products  repository.ProductRepository
	movements repository.StockMovementRepository
	log       zerolog.Logger
	actor     string
	now       time.Time
}

// NewLedger ata el ledger a los repositorios de la transacción en curso.
func NewLedger(
	productRepo repository.ProductRepository,
	movRepo repository.StockMovementRepository,
	log zerolog.Logger,
	actor string,
	now time.Time,
) *Ledger {
	return &Ledger{products: productRepo, movements: movRepo, log: log, actor: actor, now: now}
}

// Lock bloquea los productos en orden ascendente de id. Los ids inexistentes no aparecen en el mapa.
func (l *Ledger) Lock(ctx context.Context, ids []string) (map[string]*entity.Product, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	return l.products.LockForUpdate(ctx, sorted)
}

// Reserve: quantity -= qty; reserved += qty.
func (l *Ledger) Reserve(ctx context.Context, p *entity.Product, qty int, saleID, note string) error {
	mov, err := ledger.Reserve(p, qty)
	return l.apply(ctx, p, mov, err, saleID, note)
}

// Release: reserved -= qty (entrega).
func (l *Ledger) Release(ctx context.Context, p *entity.Product, qty int, saleID, note string) error {
	mov, err := ledger.Release(p, qty)
	return l.apply(ctx, p, mov, err, saleID, note)
}

// Restore: reserved -= qty; quantity += qty.
func (l *Ledger) Restore(ctx context.Context, p *entity.Product, qty int, saleID, note string) error {
	mov, err := ledger.Restore(p, qty)
	return l.apply(ctx, p, mov, err, saleID, note)
}

// Adjust ajuste manual entrada/saida.
func (l *Ledger) Adjust(ctx context.Context, p *entity.Product, movType string, amount int, note string) error {
	mov, err := ledger.Adjust(p, movType, amount)
	return l.apply(ctx, p, mov, err, "", note)
}

// Open registra el saldo inicial de un producto nuevo.
func (l *Ledger) Open(ctx context.Context, p *entity.Product, qty int) error {
	mov, err := ledger.Opening(p, qty)
	return l.apply(ctx, p, mov, err, "", "saldo inicial")
}

func (l *Ledger) apply(ctx context.Context, p *entity.Product, mov entity.StockMovement, err error, saleID, note string) error {
	if err != nil {
		if errors.Is(err, domain.ErrInvariantViolation) {
			l.log.Error().Err(err).
				Str("product_id", p.ID).
				Str("sale_id", saleID).
				Int("quantity", p.Quantity).
				Int("reserved", p.Reserved).
				Msg("ledger: invariante violada")
		}
		return err
	}
	p.UpdatedAt = l.now
	if err := l.products.UpdateBalance(ctx, p.ID, p.Quantity, p.Reserved, l.now); err != nil {
		return fmt.Errorf("ledger: actualizar saldo %s: %w", p.ID, err)
	}
	mov.ID = uuid.New().String()
	mov.SaleID = saleID
	mov.Note = note
	mov.Actor = l.actor
	mov.CreatedAt = l.now
	if err := l.movements.Create(ctx, &mov); err != nil {
		return fmt.Errorf("ledger: registrar movimiento %s: %w", p.ID, err)
	}
	return nil
}
