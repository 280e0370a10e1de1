package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod método de pago normalizado.
type PaymentMethod string

// Métodos de pago.
const (
	PaymentCash         PaymentMethod = "CASH"
	PaymentMobileMoney  PaymentMethod = "MOBILE_MONEY"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentCredit       PaymentMethod = "CREDIT"
	PaymentCheque       PaymentMethod = "CHEQUE"
)

// Payment pago aplicado a una venta dentro de un turno. Inmutable.
type Payment struct {
	ID        string
	SaleID    string
	StoreID   string
	CashierID string
	ShiftID   string
	Method    PaymentMethod
	Amount    decimal.Decimal // monto aplicado a la venta (> 0)
	Reference string
	CreatedAt time.Time
}
