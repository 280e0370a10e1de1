package repository

import (
	"context"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

// StoreRepository puerto de lectura de tiendas.
type StoreRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Store, error)
}
