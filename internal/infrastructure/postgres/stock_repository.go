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

var (
	_ repository.StockRepository       = (*StockRepo)(nil)
	_ repository.ReservationRepository = (*ReservationRepo)(nil)
)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const stockColumns = `store_id, product_id, quantity, reserved_qty, min_qty, updated_at`

func scanStock(row pgx.Row) (*entity.ProductStock, error) {
	var s entity.ProductStock
	if err := row.Scan(&s.StoreID, &s.ProductID, &s.Quantity, &s.ReservedQty, &s.MinQty, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// Get obtiene el stock actual de un producto en una tienda; nil, nil si no hay fila.
func (r *StockRepo) Get(ctx context.Context, storeID, productID string) (*entity.ProductStock, error) {
	s, err := scanStock(r.q.QueryRow(ctx,
		`SELECT `+stockColumns+` FROM product_stock WHERE store_id = $1 AND product_id = $2`, storeID, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return s, nil
}

// GetForUpdate obtiene el stock y bloquea la fila para update (SELECT FOR UPDATE).
func (r *StockRepo) GetForUpdate(ctx context.Context, storeID, productID string) (*entity.ProductStock, error) {
	s, err := scanStock(r.q.QueryRow(ctx,
		`SELECT `+stockColumns+` FROM product_stock WHERE store_id = $1 AND product_id = $2 FOR UPDATE`, storeID, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock for update: %w", err)
	}
	return s, nil
}

// Create inicializa la fila de stock.
func (r *StockRepo) Create(ctx context.Context, s *entity.ProductStock) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO product_stock (`+stockColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		s.StoreID, s.ProductID, s.Quantity, s.ReservedQty, s.MinQty, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert stock: %w", err)
	}
	return nil
}

// Update persiste cantidades; los CHECK de la tabla impiden valores negativos.
func (r *StockRepo) Update(ctx context.Context, s *entity.ProductStock) error {
	query := `
		UPDATE product_stock SET quantity = $3, reserved_qty = $4, min_qty = $5, updated_at = $6
		WHERE store_id = $1 AND product_id = $2`
	tag, err := r.q.Exec(ctx, query, s.StoreID, s.ProductID, s.Quantity, s.ReservedQty, s.MinQty, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update stock: %w", classify(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListBelowMin filas con disponible por debajo del mínimo.
func (r *StockRepo) ListBelowMin(ctx context.Context, storeID string) ([]*entity.ProductStock, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+stockColumns+` FROM product_stock
		WHERE store_id = $1 AND quantity - reserved_qty < min_qty
		ORDER BY product_id`, storeID)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	defer rows.Close()
	var list []*entity.ProductStock
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// ReservationRepo reservas por venta y producto.
type ReservationRepo struct {
	q Querier
}

// NewReservationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReservationRepository(q Querier) *ReservationRepo {
	return &ReservationRepo{q: q}
}

const reservationColumns = `sale_id, store_id, product_id, reserved_qty, fulfilled_qty, created_at, updated_at`

func scanReservation(row pgx.Row) (*entity.StockReservation, error) {
	var res entity.StockReservation
	if err := row.Scan(&res.SaleID, &res.StoreID, &res.ProductID, &res.ReservedQty, &res.FulfilledQty, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetForUpdate bloquea la reserva; nil, nil si no existe.
func (r *ReservationRepo) GetForUpdate(ctx context.Context, saleID, productID string) (*entity.StockReservation, error) {
	res, err := scanReservation(r.q.QueryRow(ctx,
		`SELECT `+reservationColumns+` FROM stock_reservations WHERE sale_id = $1 AND product_id = $2 FOR UPDATE`,
		saleID, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return res, nil
}

// Upsert inserta o actualiza la reserva de la venta sobre el producto.
func (r *ReservationRepo) Upsert(ctx context.Context, res *entity.StockReservation) error {
	query := `
		INSERT INTO stock_reservations (` + reservationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (sale_id, product_id)
		DO UPDATE SET reserved_qty = EXCLUDED.reserved_qty, fulfilled_qty = EXCLUDED.fulfilled_qty, updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		res.SaleID, res.StoreID, res.ProductID, res.ReservedQty, res.FulfilledQty, res.CreatedAt, res.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert reservation: %w", err)
	}
	return nil
}

// ListBySale reservas de la venta ordenadas por producto.
func (r *ReservationRepo) ListBySale(ctx context.Context, saleID string) ([]*entity.StockReservation, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+reservationColumns+` FROM stock_reservations WHERE sale_id = $1 ORDER BY product_id`, saleID)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockReservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, res)
	}
	return list, rows.Err()
}
