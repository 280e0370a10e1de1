package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Refund devolución de dinero sobre una venta. Inmutable; nunca modifica pagos previos.
type Refund struct {
	ID          string
	Number      string // AVR-{tienda}-{año}-{consecutivo}
	SaleID      string
	StoreID     string
	Amount      decimal.Decimal
	Reason      string
	Method      PaymentMethod
	ApprovedBy  string
	ProcessedBy *string
	ShiftID     *string
	CreatedAt   time.Time
}
