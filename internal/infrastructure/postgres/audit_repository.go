package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

// AuditRepo bitácora de auditoría. Se usa con el pool, fuera de la transacción de negocio.
type AuditRepo struct {
	q Querier
}

// NewAuditRepository construye el adaptador.
func NewAuditRepository(q Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

// Create inserta el evento.
func (r *AuditRepo) Create(ctx context.Context, e *entity.AuditEntry) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO audit_log (id, actor_id, store_id, action, entity_type, entity_id, before, after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, nullable(e.ActorID), nullable(e.StoreID), e.Action, e.EntityType, e.EntityID,
		jsonOrNil(e.Before), jsonOrNil(e.After), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func jsonOrNil(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
