package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/backoffice-api/internal/application/contention"
	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/ledger"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
	"github.com/jhoicas/backoffice-api/pkg/sku"
)

const skuAttempts = 3

// CatalogUseCase casos de uso del catálogo: alta/baja de productos, ajustes y consulta del log.
type CatalogUseCase struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
	movRepo     repository.StockMovementRepository
	log         zerolog.Logger
	retry       contention.Policy
	now         func() time.Time
}

// NewCatalogUseCase construye el caso de uso.
func NewCatalogUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	movRepo repository.StockMovementRepository,
	log zerolog.Logger,
) *CatalogUseCase {
	return &CatalogUseCase{
		txRunner:    txRunner,
		productRepo: productRepo,
		movRepo:     movRepo,
		log:         log,
		retry:       contention.DefaultPolicy,
		now:         time.Now,
	}
}

// WithRetry reemplaza la política de reintentos ante contención de ajustes y bajas.
func (uc *CatalogUseCase) WithRetry(p contention.Policy) *CatalogUseCase {
	uc.retry = p
	return uc
}

// CreateProduct crea el producto y, si hay cantidad inicial, registra el movimiento "inicial".
func (uc *CatalogUseCase) CreateProduct(ctx context.Context, actor entity.Actor, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: nombre requerido", domain.ErrInvalidInput)
	}
	if in.Price.IsNegative() || in.FactoryCost.IsNegative() || in.InitialQuantity < 0 {
		return nil, fmt.Errorf("%w: precio, costo y cantidad inicial deben ser >= 0", domain.ErrInvalidInput)
	}
	if !entity.ValidMoney(in.Price) || !entity.ValidMoney(in.FactoryCost) {
		return nil, fmt.Errorf("%w: precio y costo admiten a lo sumo dos decimales", domain.ErrInvalidInput)
	}
	if in.InitialQuantity > entity.MaxQuantity {
		return nil, fmt.Errorf("%w: cantidad inicial %d", domain.ErrInvalidQuantity, in.InitialQuantity)
	}

	code, err := uc.resolveSKU(ctx, strings.TrimSpace(in.SKU), name)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	product := &entity.Product{
		ID:          uuid.New().String(),
		SKU:         code,
		Name:        name,
		Description: in.Description,
		ImageRef:    in.ImageRef,
		Price:       in.Price,
		FactoryCost: in.FactoryCost,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = uc.txRunner.Run(ctx, func(movRepo repository.StockMovementRepository, productRepo repository.ProductRepository) error {
		if err := productRepo.Create(ctx, product); err != nil {
			return err
		}
		if in.InitialQuantity == 0 {
			return nil
		}
		return NewLedger(productRepo, movRepo, uc.log, actor.UserID, now).Open(ctx, product, in.InitialQuantity)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("product_id", product.ID).Str("sku", product.SKU).Int("quantity", product.Quantity).Msg("producto creado")
	out := ToProductResponse(product, true)
	return &out, nil
}

// resolveSKU valida el SKU indicado o genera uno libre a partir del nombre.
func (uc *CatalogUseCase) resolveSKU(ctx context.Context, requested, name string) (string, error) {
	if requested != "" {
		existing, err := uc.productRepo.GetBySKU(ctx, requested)
		if err != nil {
			return "", err
		}
		if existing != nil {
			return "", fmt.Errorf("%w: sku %s", domain.ErrDuplicate, requested)
		}
		return requested, nil
	}
	for i := 0; i < skuAttempts; i++ {
		candidate := sku.Generate(name)
		existing, err := uc.productRepo.GetBySKU(ctx, candidate)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: no se pudo generar un sku libre", domain.ErrDuplicate)
}

// GetProduct devuelve el producto; el costo de fábrica solo se expone a admin.
func (uc *CatalogUseCase) GetProduct(ctx context.Context, actor entity.Actor, id string) (*dto.ProductResponse, error) {
	p, err := uc.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
	}
	out := ToProductResponse(p, actor.IsAdmin())
	return &out, nil
}

// ListProducts lista paginada.
func (uc *CatalogUseCase) ListProducts(ctx context.Context, actor entity.Actor, page dto.PageRequest) (*dto.ProductListResponse, error) {
	page.DefaultPage()
	list, err := uc.productRepo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := &dto.ProductListResponse{
		Items: make([]dto.ProductResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, p := range list {
		out.Items = append(out.Items, ToProductResponse(p, actor.IsAdmin()))
	}
	return out, nil
}

// AdjustStock ajuste manual (solo admin). Una saida no puede dejar quantity negativo.
func (uc *CatalogUseCase) AdjustStock(ctx context.Context, actor entity.Actor, productID string, in dto.AdjustStockRequest) (*dto.ProductResponse, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if in.Type != entity.MovementTypeIn && in.Type != entity.MovementTypeOut {
		return nil, fmt.Errorf("%w: tipo debe ser entrada o saida", domain.ErrInvalidInput)
	}
	if in.Amount <= 0 || in.Amount > entity.MaxQuantity {
		return nil, fmt.Errorf("%w: cantidad fuera de rango (1..%d)", domain.ErrInvalidQuantity, entity.MaxQuantity)
	}
	if in.UnitCost != nil {
		if in.Type != entity.MovementTypeIn {
			return nil, fmt.Errorf("%w: unit_cost solo aplica a entradas", domain.ErrInvalidInput)
		}
		if !entity.ValidMoney(*in.UnitCost) {
			return nil, fmt.Errorf("%w: unit_cost negativo, fuera de rango o con más de dos decimales", domain.ErrInvalidInput)
		}
	}

	var product *entity.Product
	err := uc.retry.Do(ctx, uc.log, "adjust_stock", nil, func() error {
		return uc.txRunner.Run(ctx, func(movRepo repository.StockMovementRepository, productRepo repository.ProductRepository) error {
			lg := NewLedger(productRepo, movRepo, uc.log, actor.UserID, uc.now())
			locked, err := lg.Lock(ctx, []string{productID})
			if err != nil {
				return err
			}
			product = locked[productID]
			if product == nil {
				return fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
			}
			if in.UnitCost != nil {
				cost := ledger.WeightedCost(product.Quantity+product.Reserved, product.FactoryCost, in.Amount, *in.UnitCost)
				if err := productRepo.UpdateFactoryCost(ctx, productID, cost, uc.now()); err != nil {
					return err
				}
				product.FactoryCost = cost
			}
			return lg.Adjust(ctx, product, in.Type, in.Amount, in.Note)
		})
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("product_id", productID).Str("type", in.Type).Int("amount", in.Amount).Msg("ajuste de stock")
	out := ToProductResponse(product, true)
	return &out, nil
}

// DeleteProduct elimina el producto solo si no tiene saldo ni reservas.
func (uc *CatalogUseCase) DeleteProduct(ctx context.Context, actor entity.Actor, productID string) error {
	err := uc.retry.Do(ctx, uc.log, "delete_product", nil, func() error {
		return uc.txRunner.Run(ctx, func(movRepo repository.StockMovementRepository, productRepo repository.ProductRepository) error {
			locked, err := NewLedger(productRepo, movRepo, uc.log, actor.UserID, uc.now()).Lock(ctx, []string{productID})
			if err != nil {
				return err
			}
			p := locked[productID]
			if p == nil {
				return fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
			}
			if !p.Deletable() {
				return fmt.Errorf("%w: producto %s con saldo (quantity %d, reserved %d)",
					domain.ErrInvalidState, p.SKU, p.Quantity, p.Reserved)
			}
			return productRepo.Delete(ctx, productID)
		})
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("product_id", productID).Str("actor", actor.UserID).Msg("producto eliminado")
	return nil
}

// Movements devuelve el historial del producto y verifica que el replay coincida con el saldo.
func (uc *CatalogUseCase) Movements(ctx context.Context, productID string) (*dto.MovementHistoryResponse, error) {
	p, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
	}
	movs, err := uc.movRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	bal := ledger.Replay(movs)
	out := &dto.MovementHistoryResponse{
		ProductID:        productID,
		Items:            make([]dto.MovementResponse, 0, len(movs)),
		ReplayedQuantity: bal.Quantity,
		ReplayedReserved: bal.Reserved,
		Consistent:       bal.Quantity == p.Quantity && bal.Reserved == p.Reserved,
	}
	for _, m := range movs {
		out.Items = append(out.Items, ToMovementResponse(m))
	}
	if !out.Consistent {
		uc.log.Error().Str("product_id", productID).
			Int("quantity", p.Quantity).Int("reserved", p.Reserved).
			Int("replayed_quantity", bal.Quantity).Int("replayed_reserved", bal.Reserved).
			Msg("ledger: el log no reproduce el saldo")
	}
	return out, nil
}

// ToProductResponse mapea la entidad; withCost expone el costo de fábrica.
func ToProductResponse(p *entity.Product, withCost bool) dto.ProductResponse {
	out := dto.ProductResponse{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		ImageRef:    p.ImageRef,
		Price:       p.Price,
		Quantity:    p.Quantity,
		Reserved:    p.Reserved,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if withCost {
		cost := p.FactoryCost
		out.FactoryCost = &cost
	}
	return out
}

// ToMovementResponse mapea un movimiento.
func ToMovementResponse(m *entity.StockMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:            m.ID,
		ProductID:     m.ProductID,
		SaleID:        m.SaleID,
		Type:          m.Type,
		Kind:          m.Kind,
		Amount:        m.Amount,
		QuantityDelta: m.QuantityDelta,
		ReservedDelta: m.ReservedDelta,
		Note:          m.Note,
		Actor:         m.Actor,
		CreatedAt:     m.CreatedAt,
	}
}
