package repository

import (
	"context"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

// InventoryMovementRepository puerto del libro de movimientos (solo inserción).
type InventoryMovementRepository interface {
	Create(ctx context.Context, movement *entity.InventoryMovement) error
	ListByReference(ctx context.Context, storeID, reference string) ([]*entity.InventoryMovement, error)
	// SumByReference suma de cantidades por producto para una referencia y tipo.
	SumByReference(ctx context.Context, storeID, reference string, movementType entity.MovementType) (map[string]int, error)
}
