package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/ventas-api/internal/application/uow"
	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

var _ uow.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL READ COMMITTED con
// lock_timeout local, de modo que ninguna espera de bloqueo es indefinida.
type TxRunner struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewTxRunner construye el runner con el pool. lockTimeout 0 deja el valor del servidor.
func NewTxRunner(pool *pgxpool.Pool, lockTimeout time.Duration) *TxRunner {
	return &TxRunner{pool: pool, lockTimeout: lockTimeout}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Los errores de bloqueo (timeout, deadlock, serialización) salen como domain.ErrConcurrencyConflict.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", classify(err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if r.lockTimeout > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())); err != nil {
			return fmt.Errorf("set lock_timeout: %w", err)
		}
	}

	if err := fn(ctx, Repos(tx)); err != nil {
		return classifyWrapped(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", classify(err))
	}
	return nil
}

// classifyWrapped conserva el error de dominio si ya lo es.
func classifyWrapped(err error) error {
	if errors.Is(err, domain.ErrConcurrencyConflict) {
		return err
	}
	return classify(err)
}

// Repos repositorios atados a q (pool o tx).
func Repos(q Querier) repository.Repos {
	return repository.Repos{
		Stores:       NewStoreRepository(q),
		Products:     NewProductRepository(q),
		Customers:    NewCustomerRepository(q),
		Sales:        NewSaleRepository(q),
		Stock:        NewStockRepository(q),
		Reservations: NewReservationRepository(q),
		Movements:    NewInventoryMovementRepository(q),
		Payments:     NewPaymentRepository(q),
		Refunds:      NewRefundRepository(q),
		Shifts:       NewShiftRepository(q),
		Sequences:    NewSequenceRepository(q),
		Credit:       NewCreditRepository(q),
	}
}
