package repository

import (
	"context"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

// SaleRepository puerto de persistencia de ventas y sus líneas.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	// GetByID lectura sin bloqueo (para mostrar). Devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	// GetForUpdate bloquea la fila de la venta; toda mutación empieza aquí.
	GetForUpdate(ctx context.Context, id string) (*entity.Sale, error)
	Update(ctx context.Context, sale *entity.Sale) error

	ListItems(ctx context.Context, saleID string) ([]*entity.SaleItem, error)
	CreateItem(ctx context.Context, item *entity.SaleItem) error
	UpdateItem(ctx context.Context, item *entity.SaleItem) error
	DeleteItem(ctx context.Context, saleID, itemID string) error
}
