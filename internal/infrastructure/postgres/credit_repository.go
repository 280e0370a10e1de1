package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

var _ repository.CreditRepository = (*CreditRepo)(nil)

// CreditRepo cuentas de crédito de clientes.
type CreditRepo struct {
	q Querier
}

// NewCreditRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCreditRepository(q Querier) *CreditRepo {
	return &CreditRepo{q: q}
}

// GetAccountForUpdate cuenta del cliente con bloqueo de fila; nil, nil si no tiene.
func (r *CreditRepo) GetAccountForUpdate(ctx context.Context, storeID, customerID string) (*entity.CreditAccount, error) {
	var a entity.CreditAccount
	err := r.q.QueryRow(ctx, `
		SELECT id, store_id, customer_id, credit_limit, balance, updated_at
		FROM credit_accounts WHERE store_id = $1 AND customer_id = $2 FOR UPDATE`, storeID, customerID).
		Scan(&a.ID, &a.StoreID, &a.CustomerID, &a.CreditLimit, &a.Balance, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get credit account: %w", err)
	}
	return &a, nil
}

// UpdateAccount persiste el saldo.
func (r *CreditRepo) UpdateAccount(ctx context.Context, a *entity.CreditAccount) error {
	tag, err := r.q.Exec(ctx, `UPDATE credit_accounts SET balance = $2, updated_at = $3 WHERE id = $1`,
		a.ID, a.Balance, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update credit account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CreateEntry inserta un movimiento de la cuenta.
func (r *CreditRepo) CreateEntry(ctx context.Context, e *entity.CreditLedgerEntry) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO credit_ledger_entries (id, account_id, amount, reference, balance_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.AccountID, e.Amount, e.Reference, e.BalanceAfter, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert credit entry: %w", err)
	}
	return nil
}
