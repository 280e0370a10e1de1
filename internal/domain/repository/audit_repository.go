package repository

import (
	"context"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

// AuditRepository puerto de la bitácora de auditoría.
type AuditRepository interface {
	Create(ctx context.Context, entry *entity.AuditEntry) error
}
