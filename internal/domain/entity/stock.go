package entity

import "time"

// ProductStock existencias de un producto en una tienda.
// Solo el StockLedger la modifica; Quantity nunca se persiste negativa.
type ProductStock struct {
	StoreID     string
	ProductID   string
	Quantity    int // en mano
	ReservedQty int // retenido por ventas con reserva
	MinQty      int
	UpdatedAt   time.Time
}

// Available cantidad disponible para nuevas ventas.
func (s *ProductStock) Available() int {
	return s.Quantity - s.ReservedQty
}

// StockReservation retención de una venta sobre un producto. Cada venta tiene su
// propia fila, de modo que liberar una reserva nunca toca la de otra venta.
type StockReservation struct {
	SaleID       string
	StoreID      string
	ProductID    string
	ReservedQty  int // retención vigente
	FulfilledQty int // ya descontado del stock por pagos de la venta
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
