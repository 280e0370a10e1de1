package repository

import "context"

// SequenceRepository puerto del contador de documentos.
type SequenceRepository interface {
	// Increment incrementa de forma atómica el contador (creándolo en 1 si no existe)
	// y devuelve el número asignado.
	Increment(ctx context.Context, storeID, prefix string, year int) (int64, error)
}
