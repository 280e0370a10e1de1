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

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo implementación de SaleRepository (usable con pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

const saleColumns = `
	id, store_id, seller_id, customer_id, invoice_number, status,
	subtotal, discount_amount, discount_percent, tax_amount, total, amount_paid, amount_due,
	is_credit_sale, reserve_stock, cancel_reason, cancelled_by,
	created_at, updated_at, submitted_at, paid_at, cancelled_at, restocked_at`

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var s entity.Sale
	err := row.Scan(
		&s.ID, &s.StoreID, &s.SellerID, &s.CustomerID, &s.InvoiceNumber, &s.Status,
		&s.Subtotal, &s.DiscountAmount, &s.DiscountPercent, &s.TaxAmount, &s.Total, &s.AmountPaid, &s.AmountDue,
		&s.IsCreditSale, &s.ReserveStock, &s.CancelReason, &s.CancelledBy,
		&s.CreatedAt, &s.UpdatedAt, &s.SubmittedAt, &s.PaidAt, &s.CancelledAt, &s.RestockedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create persiste una venta nueva.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	query := `INSERT INTO sales (` + saleColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.StoreID, s.SellerID, s.CustomerID, s.InvoiceNumber, s.Status,
		s.Subtotal, s.DiscountAmount, s.DiscountPercent, s.TaxAmount, s.Total, s.AmountPaid, s.AmountDue,
		s.IsCreditSale, s.ReserveStock, s.CancelReason, s.CancelledBy,
		s.CreatedAt, s.UpdatedAt, s.SubmittedAt, s.PaidAt, s.CancelledAt, s.RestockedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

// GetByID lectura sin bloqueo; nil, nil si no existe.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	s, err := scanSale(r.q.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	return s, nil
}

// GetForUpdate obtiene la venta y bloquea la fila (SELECT FOR UPDATE).
func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	s, err := scanSale(r.q.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale for update: %w", err)
	}
	return s, nil
}

// Update persiste cabecera, totales y estado.
func (r *SaleRepo) Update(ctx context.Context, s *entity.Sale) error {
	query := `
		UPDATE sales SET
			customer_id = $2, invoice_number = $3, status = $4,
			subtotal = $5, discount_amount = $6, discount_percent = $7, tax_amount = $8, total = $9,
			amount_paid = $10, amount_due = $11, cancel_reason = $12, cancelled_by = $13,
			updated_at = $14, submitted_at = $15, paid_at = $16, cancelled_at = $17, restocked_at = $18
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		s.ID, s.CustomerID, s.InvoiceNumber, s.Status,
		s.Subtotal, s.DiscountAmount, s.DiscountPercent, s.TaxAmount, s.Total,
		s.AmountPaid, s.AmountDue, s.CancelReason, s.CancelledBy,
		s.UpdatedAt, s.SubmittedAt, s.PaidAt, s.CancelledAt, s.RestockedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListItems líneas de la venta en orden de creación.
func (r *SaleRepo) ListItems(ctx context.Context, saleID string) ([]*entity.SaleItem, error) {
	query := `
		SELECT id, sale_id, product_id, quantity, unit_price, cost_price, discount_amount, line_total, created_at, updated_at
		FROM sale_items WHERE sale_id = $1 ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, saleID)
	if err != nil {
		return nil, fmt.Errorf("list sale items: %w", err)
	}
	defer rows.Close()
	var list []*entity.SaleItem
	for rows.Next() {
		var it entity.SaleItem
		if err := rows.Scan(
			&it.ID, &it.SaleID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.CostPrice,
			&it.DiscountAmount, &it.LineTotal, &it.CreatedAt, &it.UpdatedAt,
		); err != nil {
			return nil, err
		}
		list = append(list, &it)
	}
	return list, rows.Err()
}

// CreateItem inserta una línea.
func (r *SaleRepo) CreateItem(ctx context.Context, it *entity.SaleItem) error {
	query := `
		INSERT INTO sale_items (id, sale_id, product_id, quantity, unit_price, cost_price, discount_amount, line_total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		it.ID, it.SaleID, it.ProductID, it.Quantity, it.UnitPrice, it.CostPrice,
		it.DiscountAmount, it.LineTotal, it.CreatedAt, it.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert sale item: %w", err)
	}
	return nil
}

// UpdateItem actualiza cantidad, descuento y total de la línea.
func (r *SaleRepo) UpdateItem(ctx context.Context, it *entity.SaleItem) error {
	query := `
		UPDATE sale_items SET quantity = $3, discount_amount = $4, line_total = $5, updated_at = $6
		WHERE id = $1 AND sale_id = $2`
	tag, err := r.q.Exec(ctx, query, it.ID, it.SaleID, it.Quantity, it.DiscountAmount, it.LineTotal, it.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update sale item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteItem borra una línea de la venta.
func (r *SaleRepo) DeleteItem(ctx context.Context, saleID, itemID string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM sale_items WHERE id = $1 AND sale_id = $2`, itemID, saleID)
	if err != nil {
		return fmt.Errorf("delete sale item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
