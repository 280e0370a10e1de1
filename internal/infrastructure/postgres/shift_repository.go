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

var _ repository.ShiftRepository = (*ShiftRepo)(nil)

// ShiftRepo turnos de caja.
type ShiftRepo struct {
	q Querier
}

// NewShiftRepository construye el adaptador. Pasar pool o tx (Querier).
func NewShiftRepository(q Querier) *ShiftRepo {
	return &ShiftRepo{q: q}
}

const shiftColumns = `
	id, store_id, cashier_id, status, opening_float,
	cash_total, mobile_money_total, bank_transfer_total, credit_total, cheque_total, cash_refunds,
	expected_cash, closing_cash, variance, opened_at, closed_at`

func scanShift(row pgx.Row) (*entity.CashShift, error) {
	var s entity.CashShift
	err := row.Scan(
		&s.ID, &s.StoreID, &s.CashierID, &s.Status, &s.OpeningFloat,
		&s.CashTotal, &s.MobileMoneyTotal, &s.BankTransferTotal, &s.CreditTotal, &s.ChequeTotal, &s.CashRefunds,
		&s.ExpectedCash, &s.ClosingCash, &s.Variance, &s.OpenedAt, &s.ClosedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ShiftRepo) one(ctx context.Context, op, query string, args ...any) (*entity.CashShift, error) {
	s, err := scanShift(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

// Create abre un turno. El índice único parcial impide dos turnos abiertos por cajero y tienda.
func (r *ShiftRepo) Create(ctx context.Context, s *entity.CashShift) error {
	query := `INSERT INTO cash_shifts (` + shiftColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.StoreID, s.CashierID, s.Status, s.OpeningFloat,
		s.CashTotal, s.MobileMoneyTotal, s.BankTransferTotal, s.CreditTotal, s.ChequeTotal, s.CashRefunds,
		s.ExpectedCash, s.ClosingCash, s.Variance, s.OpenedAt, s.ClosedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert cash shift: %w", err)
	}
	return nil
}

// GetByID turno por id; nil, nil si no existe.
func (r *ShiftRepo) GetByID(ctx context.Context, id string) (*entity.CashShift, error) {
	return r.one(ctx, "get cash shift", `SELECT `+shiftColumns+` FROM cash_shifts WHERE id = $1`, id)
}

// GetForUpdate turno por id con bloqueo de fila.
func (r *ShiftRepo) GetForUpdate(ctx context.Context, id string) (*entity.CashShift, error) {
	return r.one(ctx, "get cash shift for update", `SELECT `+shiftColumns+` FROM cash_shifts WHERE id = $1 FOR UPDATE`, id)
}

// GetOpen turno abierto del cajero en la tienda.
func (r *ShiftRepo) GetOpen(ctx context.Context, storeID, cashierID string) (*entity.CashShift, error) {
	return r.one(ctx, "get open cash shift",
		`SELECT `+shiftColumns+` FROM cash_shifts WHERE store_id = $1 AND cashier_id = $2 AND status = 'OPEN'`,
		storeID, cashierID)
}

// Update persiste acumulados y arqueo.
func (r *ShiftRepo) Update(ctx context.Context, s *entity.CashShift) error {
	query := `
		UPDATE cash_shifts SET
			status = $2, cash_total = $3, mobile_money_total = $4, bank_transfer_total = $5,
			credit_total = $6, cheque_total = $7, cash_refunds = $8,
			expected_cash = $9, closing_cash = $10, variance = $11, closed_at = $12
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		s.ID, s.Status, s.CashTotal, s.MobileMoneyTotal, s.BankTransferTotal,
		s.CreditTotal, s.ChequeTotal, s.CashRefunds,
		s.ExpectedCash, s.ClosingCash, s.Variance, s.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("update cash shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
