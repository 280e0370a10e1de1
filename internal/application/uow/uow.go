// Package uow define la unidad de trabajo transaccional que usan los casos de uso
// y el reintento acotado ante conflictos de bloqueo.
package uow

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
	"github.com/jhoicas/ventas-api/pkg/logger"
)

// TxRunner ejecuta fn dentro de una transacción de BD, pasando repositorios atados a
// esa tx. Commit si fn devuelve nil, Rollback en cualquier otro caso.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) error
}

// RetryPolicy reintentos ante domain.ErrConcurrencyConflict.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy 4 intentos con backoff exponencial desde 20ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 4, BaseDelay: 20 * time.Millisecond, MaxDelay: 500 * time.Millisecond}
}

// Runner envuelve un TxRunner con reintento acotado. Solo se reintenta la
// transacción completa; nunca queda una escritura parcial.
type Runner struct {
	tx     TxRunner
	policy RetryPolicy
	log    *logger.Logger
}

// NewRunner construye el runner con reintentos.
func NewRunner(tx TxRunner, policy RetryPolicy, log *logger.Logger) *Runner {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Runner{tx: tx, policy: policy, log: log}
}

// Run ejecuta fn en una transacción, reintentando si falla por conflicto de concurrencia.
func (r *Runner) Run(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) error {
	delay := r.policy.BaseDelay
	var err error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		err = r.tx.Run(ctx, fn)
		if err == nil || !errors.Is(err, domain.ErrConcurrencyConflict) {
			return err
		}
		if attempt == r.policy.MaxAttempts {
			break
		}
		r.log.For(ctx).Warn().Err(err).Int("attempt", attempt).Dur("backoff", delay).Msg("conflicto de bloqueo, reintentando transacción")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if r.policy.MaxDelay > 0 && delay > r.policy.MaxDelay {
			delay = r.policy.MaxDelay
		}
	}
	return err
}
