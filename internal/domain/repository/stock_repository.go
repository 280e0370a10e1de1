package repository

import (
	"context"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

// StockRepository puerto de existencias por tienda+producto.
// Las escrituras solo se hacen dentro de transacciones del StockLedger.
type StockRepository interface {
	// Get devuelve nil, nil si no existe la fila (stock no inicializado).
	Get(ctx context.Context, storeID, productID string) (*entity.ProductStock, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE). Devuelve nil, nil si no existe.
	GetForUpdate(ctx context.Context, storeID, productID string) (*entity.ProductStock, error)
	Create(ctx context.Context, stock *entity.ProductStock) error
	Update(ctx context.Context, stock *entity.ProductStock) error
	// ListBelowMin filas con disponible < mínimo.
	ListBelowMin(ctx context.Context, storeID string) ([]*entity.ProductStock, error)
}

// ReservationRepository puerto de reservas por venta y producto.
type ReservationRepository interface {
	// GetForUpdate devuelve nil, nil si la venta no tiene reserva del producto.
	GetForUpdate(ctx context.Context, saleID, productID string) (*entity.StockReservation, error)
	Upsert(ctx context.Context, r *entity.StockReservation) error
	ListBySale(ctx context.Context, saleID string) ([]*entity.StockReservation, error)
}
