package repository

import (
	"context"
	"time"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// SaleFilter filtros de listado. Campos vacíos/nil no filtran.
type SaleFilter struct {
	Status           string
	ClientID         string
	RequiresApproval *bool
	From             *time.Time
	To               *time.Time
	Limit            int
	Offset           int
}

// SaleRepository define el puerto de persistencia del agregado Sale (cabecera, líneas y pagos).
type SaleRepository interface {
	// NextCode reserva el siguiente código público (PED-000001, ...).
	NextCode(ctx context.Context) (string, error)
	// Create inserta cabecera, líneas y pagos. ErrDuplicate si el draft_id ya existe.
	Create(ctx context.Context, sale *entity.Sale) error
	// Update actualiza solo la cabecera (estado, totales, aprobación, fechas).
	Update(ctx context.Context, sale *entity.Sale) error
	// ReplaceLines reemplaza líneas y pagos de la venta.
	ReplaceLines(ctx context.Context, sale *entity.Sale) error
	MarkItemsApproved(ctx context.Context, saleID string) error
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	GetByDraftID(ctx context.Context, draftID string) (*entity.Sale, error)
	// GetForUpdate lee la venta bloqueando su fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Sale, error)
	List(ctx context.Context, f SaleFilter) ([]*entity.Sale, error)
}
