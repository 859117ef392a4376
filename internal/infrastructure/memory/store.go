// Package memory implementa los repositorios y los TxRunner sobre un estado en memoria.
// Se usa en modo demo (STORAGE_DRIVER=memory) y en tests. Las transacciones se serializan
// con un semáforo tomado con espera acotada; cada transacción trabaja sobre una copia del
// estado que solo se publica si fn no devuelve error.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

type state struct {
	products  map[string]*entity.Product
	movements []*entity.StockMovement
	sales     map[string]*entity.Sale
	customers map[string]*entity.Customer
	users     map[string]*entity.User
	saleSeq   int
}

func newState() *state {
	return &state{
		products:  make(map[string]*entity.Product),
		sales:     make(map[string]*entity.Sale),
		customers: make(map[string]*entity.Customer),
		users:     make(map[string]*entity.User),
	}
}

// clone copia lo mutable; movimientos, clientes y usuarios son inmutables una vez creados.
func (st *state) clone() *state {
	c := &state{
		products:  make(map[string]*entity.Product, len(st.products)),
		movements: slices.Clone(st.movements),
		sales:     make(map[string]*entity.Sale, len(st.sales)),
		customers: maps.Clone(st.customers),
		users:     maps.Clone(st.users),
		saleSeq:   st.saleSeq,
	}
	for id, p := range st.products {
		cp := *p
		c.products[id] = &cp
	}
	for id, s := range st.sales {
		c.sales[id] = copySale(s)
	}
	return c
}

// Store estado compartido más el semáforo de transacciones.
type Store struct {
	mu          sync.RWMutex
	st          *state
	sem         chan struct{}
	lockTimeout time.Duration
}

// New crea un store vacío. lockTimeout <= 0 espera indefinidamente (salvo cancelación del ctx).
func New(lockTimeout time.Duration) *Store {
	return &Store{st: newState(), sem: make(chan struct{}, 1), lockTimeout: lockTimeout}
}

func (s *Store) acquire(ctx context.Context) error {
	if s.lockTimeout <= 0 {
		select {
		case s.sem <- struct{}{}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: espera de bloqueo superó %s", domain.ErrContention, s.lockTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release() { <-s.sem }

// atomic ejecuta fn sobre una copia del estado y la publica si no hubo error.
func (s *Store) atomic(ctx context.Context, fn func(st *state) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	s.mu.RLock()
	work := s.st.clone()
	s.mu.RUnlock()

	if err := fn(work); err != nil {
		return err
	}
	s.mu.Lock()
	s.st = work
	s.mu.Unlock()
	return nil
}

func (s *Store) read(fn func(st *state) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.st)
}

// binding decide si un repositorio opera dentro de una tx (tx != nil) o en autocommit.
type binding struct {
	store *Store
	tx    *state
}

func (b binding) read(fn func(st *state) error) error {
	if b.tx != nil {
		return fn(b.tx)
	}
	return b.store.read(fn)
}

func (b binding) write(ctx context.Context, fn func(st *state) error) error {
	if b.tx != nil {
		return fn(b.tx)
	}
	return b.store.atomic(ctx, fn)
}

// Run implementa inventory.TxRunner.
func (s *Store) Run(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
) error) error {
	return s.atomic(ctx, func(st *state) error {
		b := binding{store: s, tx: st}
		return fn(&StockMovementRepo{b}, &ProductRepo{b})
	})
}

// RunSales implementa sales.TxRunner.
func (s *Store) RunSales(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
) error) error {
	return s.atomic(ctx, func(st *state) error {
		b := binding{store: s, tx: st}
		return fn(&StockMovementRepo{b}, &ProductRepo{b}, &SaleRepo{b})
	})
}

// Products repositorio en autocommit.
func (s *Store) Products() *ProductRepo { return &ProductRepo{binding{store: s}} }

// Movements repositorio en autocommit.
func (s *Store) Movements() *StockMovementRepo { return &StockMovementRepo{binding{store: s}} }

// Sales repositorio en autocommit.
func (s *Store) Sales() *SaleRepo { return &SaleRepo{binding{store: s}} }

// Customers repositorio en autocommit.
func (s *Store) Customers() *CustomerRepo { return &CustomerRepo{binding{store: s}} }

// Users repositorio en autocommit.
func (s *Store) Users() *UserRepo { return &UserRepo{binding{store: s}} }

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
