package repository

import (
	"context"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

// ShiftRepository puerto de turnos de caja.
type ShiftRepository interface {
	Create(ctx context.Context, shift *entity.CashShift) error
	GetByID(ctx context.Context, id string) (*entity.CashShift, error)
	GetForUpdate(ctx context.Context, id string) (*entity.CashShift, error)
	// GetOpen turno abierto del cajero en la tienda; nil, nil si no hay.
	GetOpen(ctx context.Context, storeID, cashierID string) (*entity.CashShift, error)
	Update(ctx context.Context, shift *entity.CashShift) error
}
