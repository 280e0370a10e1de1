package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/ventas-api/internal/application/dto"
	"github.com/jhoicas/ventas-api/internal/application/ports"
	"github.com/jhoicas/ventas-api/pkg/logger"
)

const (
	// IdempotencyKeyHeader header con la clave de idempotencia.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayedHeader marca las respuestas servidas desde la caché.
	IdempotencyReplayedHeader = "X-Idempotency-Replayed"
)

// Idempotency evita procesar dos veces un pago o una devolución enviados con la misma
// Idempotency-Key. Solo se guardan respuestas 2xx; un error permite reintentar con la
// misma clave. La clave se acota por tienda, usuario y ruta. Sin header se procesa normal.
// Debe ir después de AuthMiddleware.
func Idempotency(store ports.IdempotencyStore, ttl time.Duration, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(IdempotencyKeyHeader)
		if header == "" || store == nil {
			return c.Next()
		}
		if len(header) > 200 {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_IDEMPOTENCY_KEY", Message: "Idempotency-Key demasiado larga"})
		}
		key := GetStoreID(c) + ":" + GetUserID(c) + ":" + c.Method() + " " + c.Path() + ":" + header
		ctx := c.UserContext()

		if cached, err := store.Get(ctx, key); err != nil {
			log.Warn().Err(err).Str("idempotency_key", header).Msg("idempotencia: lectura fallida")
		} else if cached != nil {
			return replay(c, cached)
		}

		unlock, err := store.Lock(ctx, key)
		if err != nil {
			if errors.Is(err, ports.ErrRequestInFlight) {
				return respondError(c, log, err)
			}
			log.Warn().Err(err).Str("idempotency_key", header).Msg("idempotencia: no se pudo bloquear la clave")
			return c.Next()
		}
		defer unlock()

		// Otra petición pudo terminar entre Get y Lock.
		if cached, err := store.Get(ctx, key); err == nil && cached != nil {
			return replay(c, cached)
		}

		if err := c.Next(); err != nil {
			return err
		}
		status := c.Response().StatusCode()
		if status < 200 || status >= 300 {
			return nil
		}
		body := append([]byte(nil), c.Response().Body()...)
		resp := ports.StoredResponse{
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        body,
		}
		if err := store.Save(ctx, key, resp, ttl); err != nil {
			log.Warn().Err(err).Str("idempotency_key", header).Msg("idempotencia: no se pudo guardar la respuesta")
		}
		return nil
	}
}

func replay(c *fiber.Ctx, cached *ports.StoredResponse) error {
	c.Set(IdempotencyReplayedHeader, "true")
	if cached.ContentType != "" {
		c.Set(fiber.HeaderContentType, cached.ContentType)
	}
	return c.Status(cached.Status).Send(cached.Body)
}
