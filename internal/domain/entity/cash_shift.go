package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShiftStatus estado del turno de caja.
type ShiftStatus string

// Estados del turno.
const (
	ShiftOpen   ShiftStatus = "OPEN"
	ShiftClosed ShiftStatus = "CLOSED"
)

// CashShift sesión de un cajero. Se abre una vez, se cierra una vez y queda de solo lectura.
type CashShift struct {
	ID                string
	StoreID           string
	CashierID         string
	Status            ShiftStatus
	OpeningFloat      decimal.Decimal
	CashTotal         decimal.Decimal
	MobileMoneyTotal  decimal.Decimal
	BankTransferTotal decimal.Decimal
	CreditTotal       decimal.Decimal
	ChequeTotal       decimal.Decimal
	CashRefunds       decimal.Decimal
	ExpectedCash      *decimal.Decimal // se fija al cerrar
	ClosingCash       *decimal.Decimal
	Variance          *decimal.Decimal // ClosingCash − ExpectedCash
	OpenedAt          time.Time
	ClosedAt          *time.Time
}

// IsOpenFor informa si el turno está abierto y pertenece al cajero.
func (s *CashShift) IsOpenFor(cashierID string) bool {
	return s.Status == ShiftOpen && s.CashierID == cashierID
}

// Add acumula un pago en el total del método.
func (s *CashShift) Add(method PaymentMethod, amount decimal.Decimal) {
	switch method {
	case PaymentCash:
		s.CashTotal = s.CashTotal.Add(amount)
	case PaymentMobileMoney:
		s.MobileMoneyTotal = s.MobileMoneyTotal.Add(amount)
	case PaymentBankTransfer:
		s.BankTransferTotal = s.BankTransferTotal.Add(amount)
	case PaymentCredit:
		s.CreditTotal = s.CreditTotal.Add(amount)
	case PaymentCheque:
		s.ChequeTotal = s.ChequeTotal.Add(amount)
	}
}

// ExpectedDrawer efectivo esperado en caja: fondo inicial + cobros en efectivo − devoluciones en efectivo.
func (s *CashShift) ExpectedDrawer() decimal.Decimal {
	return s.OpeningFloat.Add(s.CashTotal).Sub(s.CashRefunds)
}

// Close cierra el turno registrando el arqueo.
func (s *CashShift) Close(closingCash decimal.Decimal, now time.Time) {
	expected := s.ExpectedDrawer()
	variance := closingCash.Sub(expected)
	s.ExpectedCash = &expected
	s.ClosingCash = &closingCash
	s.Variance = &variance
	s.Status = ShiftClosed
	s.ClosedAt = &now
}
