package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

var (
	_ repository.PaymentRepository = (*PaymentRepo)(nil)
	_ repository.RefundRepository  = (*RefundRepo)(nil)
)

// PaymentRepo pagos (solo inserción).
type PaymentRepo struct {
	q Querier
}

// NewPaymentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPaymentRepository(q Querier) *PaymentRepo {
	return &PaymentRepo{q: q}
}

// Create persiste un pago.
func (r *PaymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	query := `
		INSERT INTO payments (id, sale_id, store_id, cashier_id, shift_id, method, amount, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.SaleID, p.StoreID, p.CashierID, p.ShiftID, p.Method, p.Amount, p.Reference, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// ListBySale pagos de la venta en orden cronológico.
func (r *PaymentRepo) ListBySale(ctx context.Context, saleID string) ([]*entity.Payment, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, sale_id, store_id, cashier_id, shift_id, method, amount, reference, created_at
		FROM payments WHERE sale_id = $1 ORDER BY created_at, id`, saleID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	var list []*entity.Payment
	for rows.Next() {
		var p entity.Payment
		if err := rows.Scan(&p.ID, &p.SaleID, &p.StoreID, &p.CashierID, &p.ShiftID, &p.Method, &p.Amount, &p.Reference, &p.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

// RefundRepo devoluciones (solo inserción).
type RefundRepo struct {
	q Querier
}

// NewRefundRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRefundRepository(q Querier) *RefundRepo {
	return &RefundRepo{q: q}
}

// Create persiste una devolución.
func (r *RefundRepo) Create(ctx context.Context, v *entity.Refund) error {
	query := `
		INSERT INTO refunds (id, number, sale_id, store_id, amount, reason, method, approved_by, processed_by, shift_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		v.ID, v.Number, v.SaleID, v.StoreID, v.Amount, v.Reason, v.Method, v.ApprovedBy, v.ProcessedBy, v.ShiftID, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert refund: %w", err)
	}
	return nil
}

// ListBySale devoluciones de la venta.
func (r *RefundRepo) ListBySale(ctx context.Context, saleID string) ([]*entity.Refund, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, number, sale_id, store_id, amount, reason, method, approved_by, processed_by, shift_id, created_at
		FROM refunds WHERE sale_id = $1 ORDER BY created_at, id`, saleID)
	if err != nil {
		return nil, fmt.Errorf("list refunds: %w", err)
	}
	defer rows.Close()
	var list []*entity.Refund
	for rows.Next() {
		var v entity.Refund
		if err := rows.Scan(&v.ID, &v.Number, &v.SaleID, &v.StoreID, &v.Amount, &v.Reason, &v.Method,
			&v.ApprovedBy, &v.ProcessedBy, &v.ShiftID, &v.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &v)
	}
	return list, rows.Err()
}
