package repository

import (
	"context"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ProductRepository puerto de lectura del catálogo. UpdateCost lo usa el motor de inventario.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	UpdateCost(ctx context.Context, productID string, cost decimal.Decimal) error
}
