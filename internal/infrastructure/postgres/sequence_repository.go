package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

// SequenceRepo contador de documentos.
type SequenceRepo struct {
	q Querier
}

// NewSequenceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

// Increment upsert atómico: crea la fila en 1 o incrementa y devuelve el número, con la
// fila bloqueada hasta el fin de la transacción. Dos primeras creaciones simultáneas se
// serializan en la restricción de la clave primaria.
func (r *SequenceRepo) Increment(ctx context.Context, storeID, prefix string, year int) (int64, error) {
	query := `
		INSERT INTO sequences (store_id, prefix, year, next_number)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (store_id, prefix, year)
		DO UPDATE SET next_number = sequences.next_number + 1
		RETURNING next_number`
	var n int64
	if err := r.q.QueryRow(ctx, query, storeID, prefix, year).Scan(&n); err != nil {
		return 0, fmt.Errorf("increment sequence: %w", err)
	}
	return n, nil
}
