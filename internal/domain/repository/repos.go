package repository

// Repos agrupa los repositorios atados a una misma transacción.
type Repos struct {
	Stores       StoreRepository
	Products     ProductRepository
	Customers    CustomerRepository
	Sales        SaleRepository
	Stock        StockRepository
	Reservations ReservationRepository
	Movements    InventoryMovementRepository
	Payments     PaymentRepository
	Refunds      RefundRepository
	Shifts       ShiftRepository
	Sequences    SequenceRepository
	Credit       CreditRepository
}
