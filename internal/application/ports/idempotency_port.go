package ports

import (
	"context"
	"errors"
	"time"
)

// ErrRequestInFlight otra petición con la misma clave de idempotencia se está procesando.
var ErrRequestInFlight = errors.New("petición con la misma clave en curso")

// StoredResponse respuesta guardada de una operación idempotente.
type StoredResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// IdempotencyStore define el puerto de salida para las claves de idempotencia de pagos
// y devoluciones. Los adaptadores (Redis, memoria) deben implementar esta interfaz.
type IdempotencyStore interface {
	// Get devuelve la respuesta guardada o nil, nil si la clave no se usó.
	Get(ctx context.Context, key string) (*StoredResponse, error)
	// Save guarda la respuesta por ttl.
	Save(ctx context.Context, key string, resp StoredResponse, ttl time.Duration) error
	// Lock toma la clave mientras se procesa la petición. Devuelve ErrRequestInFlight si
	// otra petición la tiene.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
