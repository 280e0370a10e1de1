// Package redis adaptadores sobre Redis: respuestas de operaciones idempotentes y
// bloqueo distribuido por clave.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/jhoicas/ventas-api/internal/application/ports"
	"github.com/jhoicas/ventas-api/pkg/config"
	"github.com/jhoicas/ventas-api/pkg/logger"
	goredis "github.com/redis/go-redis/v9"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

const (
	keyPrefix  = "idem:"
	lockPrefix = "idem-lock:"
	lockTTL    = 30 * time.Second
)

// NewClient crea el cliente y verifica la conexión.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: 50,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// IdempotencyStore respuestas guardadas en Redis con TTL; el bloqueo usa redislock.
type IdempotencyStore struct {
	rdb    goredis.UniversalClient
	locker *redislock.Client
	log    *logger.Logger
}

// NewIdempotencyStore construye el adaptador.
func NewIdempotencyStore(rdb goredis.UniversalClient, log *logger.Logger) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, locker: redislock.New(rdb), log: log}
}

// Get devuelve la respuesta guardada; nil, nil si no existe.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (*ports.StoredResponse, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var resp ports.StoredResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode stored response: %w", err)
	}
	return &resp, nil
}

// Save guarda la respuesta por ttl.
func (s *IdempotencyStore) Save(ctx context.Context, key string, resp ports.StoredResponse, ttl time.Duration) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, keyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Lock obtiene el candado de la clave sin esperar.
func (s *IdempotencyStore) Lock(ctx context.Context, key string) (func(), error) {
	lock, err := s.locker.Obtain(ctx, lockPrefix+key, lockTTL, nil)
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, ports.ErrRequestInFlight
		}
		return nil, fmt.Errorf("redis lock: %w", err)
	}
	return func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			s.log.Warn().Err(err).Str("key", key).Msg("no se pudo liberar el candado de idempotencia")
		}
	}, nil
}
