package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

// InventoryMovementRepo implementación sobre PostgreSQL (usable con pool o tx).
type InventoryMovementRepo struct {
	q Querier
}

// NewInventoryMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryMovementRepository(q Querier) *InventoryMovementRepo {
	return &InventoryMovementRepo{q: q}
}

// Create persiste un movimiento de inventario.
func (r *InventoryMovementRepo) Create(ctx context.Context, m *entity.InventoryMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO inventory_movements (id, store_id, product_id, movement_type, quantity, unit_cost, reference, reason, actor_id, batch_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.StoreID, m.ProductID, m.Type, m.Quantity, m.UnitCost,
		m.Reference, m.Reason, nullable(m.ActorID), nullable(m.BatchID), m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert inventory movement: %w", err)
	}
	return nil
}

// ListByReference movimientos de un documento (venta, devolución, lote) en orden cronológico.
func (r *InventoryMovementRepo) ListByReference(ctx context.Context, storeID, reference string) ([]*entity.InventoryMovement, error) {
	query := `
		SELECT id, store_id, product_id, movement_type, quantity, unit_cost, reference, reason, actor_id, batch_id, created_at
		FROM inventory_movements WHERE store_id = $1 AND reference = $2
		ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, storeID, reference)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryMovement
	for rows.Next() {
		var m entity.InventoryMovement
		var actor, batch *string
		if err := rows.Scan(
			&m.ID, &m.StoreID, &m.ProductID, &m.Type, &m.Quantity, &m.UnitCost,
			&m.Reference, &m.Reason, &actor, &batch, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		m.ActorID, m.BatchID = deref(actor), deref(batch)
		list = append(list, &m)
	}
	return list, rows.Err()
}

// SumByReference suma con signo por producto de los movimientos de un tipo para una referencia.
func (r *InventoryMovementRepo) SumByReference(ctx context.Context, storeID, reference string, t entity.MovementType) (map[string]int, error) {
	query := `
		SELECT product_id, COALESCE(SUM(quantity), 0)::int
		FROM inventory_movements
		WHERE store_id = $1 AND reference = $2 AND movement_type = $3
		GROUP BY product_id`
	rows, err := r.q.Query(ctx, query, storeID, reference, t)
	if err != nil {
		return nil, fmt.Errorf("sum movements: %w", err)
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var productID string
		var qty int
		if err := rows.Scan(&productID, &qty); err != nil {
			return nil, err
		}
		out[productID] = qty
	}
	return out, rows.Err()
}
