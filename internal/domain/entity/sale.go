package entity

import (
	"time"

	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/money"
	"github.com/shopspring/decimal"
)

// SaleStatus estado de una venta.
type SaleStatus string

// Estados de la venta. DRAFT → PENDING_PAYMENT → {PARTIALLY_PAID → PAID} | CANCELLED | REFUNDED.
const (
	SaleStatusDraft          SaleStatus = "DRAFT"
	SaleStatusPendingPayment SaleStatus = "PENDING_PAYMENT"
	SaleStatusPartiallyPaid  SaleStatus = "PARTIALLY_PAID"
	SaleStatusPaid           SaleStatus = "PAID"
	SaleStatusCancelled      SaleStatus = "CANCELLED"
	SaleStatusRefunded       SaleStatus = "REFUNDED"
)

// IsTerminal informa si el estado es final. PAID es final pero aún admite pasar a REFUNDED.
func (s SaleStatus) IsTerminal() bool {
	switch s {
	case SaleStatusPaid, SaleStatusCancelled, SaleStatusRefunded:
		return true
	}
	return false
}

// Valid informa si el valor es uno de los estados conocidos.
func (s SaleStatus) Valid() bool {
	switch s {
	case SaleStatusDraft, SaleStatusPendingPayment, SaleStatusPartiallyPaid,
		SaleStatusPaid, SaleStatusCancelled, SaleStatusRefunded:
		return true
	}
	return false
}

// Sale cabecera de una venta (agregado). Los importes se mantienen en 2 decimales.
// Invariantes: AmountDue = max(Total − AmountPaid, 0); Total = max(Subtotal − DiscountAmount + TaxAmount, 0).
type Sale struct {
	ID              string
	StoreID         string
	SellerID        string
	CustomerID      *string
	InvoiceNumber   *string // nil hasta la emisión; único por tienda
	Status          SaleStatus
	Subtotal        decimal.Decimal
	DiscountAmount  decimal.Decimal
	DiscountPercent decimal.Decimal // > 0 = descuento porcentual, se recalcula sobre el subtotal
	TaxAmount       decimal.Decimal
	Total           decimal.Decimal
	AmountPaid      decimal.Decimal
	AmountDue       decimal.Decimal
	IsCreditSale    bool
	ReserveStock    bool
	CancelReason    string
	CancelledBy     *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	SubmittedAt     *time.Time
	PaidAt          *time.Time
	CancelledAt     *time.Time
	RestockedAt     *time.Time // devolución a inventario ya aplicada (una sola vez por venta)
}

// HasCustomer informa si la venta tiene cliente asignado.
func (s *Sale) HasCustomer() bool {
	return s.CustomerID != nil && *s.CustomerID != ""
}

// EnsureDraft falla con ErrInvalidState si la venta ya no es editable.
func (s *Sale) EnsureDraft() error {
	if s.Status != SaleStatusDraft {
		return domain.ErrInvalidState
	}
	return nil
}

// IsPayable informa si la venta admite pagos.
func (s *Sale) IsPayable() bool {
	return s.Status == SaleStatusPendingPayment || s.Status == SaleStatusPartiallyPaid
}

// IsRefundable informa si la venta admite devoluciones.
func (s *Sale) IsRefundable() bool {
	return s.Status == SaleStatusPaid || s.Status == SaleStatusPartiallyPaid
}

// CanCancel informa si la venta puede anularse.
func (s *Sale) CanCancel() bool {
	switch s.Status {
	case SaleStatusDraft, SaleStatusPendingPayment, SaleStatusPartiallyPaid:
		return true
	}
	return false
}

// RefreshDue recalcula AmountDue a partir de Total y AmountPaid.
func (s *Sale) RefreshDue() {
	s.AmountDue = money.MaxZero(s.Total.Sub(s.AmountPaid))
}

// Submit pasa la venta a PENDING_PAYMENT con el número de factura asignado.
func (s *Sale) Submit(invoiceNumber string, now time.Time) {
	s.InvoiceNumber = &invoiceNumber
	s.Status = SaleStatusPendingPayment
	s.SubmittedAt = &now
	s.UpdatedAt = now
}

// ApplyPayment suma el monto aplicado y ajusta el estado. Devuelve true si la venta
// quedó pagada con este pago.
func (s *Sale) ApplyPayment(applied decimal.Decimal, now time.Time) (becamePaid bool) {
	s.AmountPaid = money.Round(s.AmountPaid.Add(applied))
	s.RefreshDue()
	s.UpdatedAt = now
	if s.AmountDue.IsZero() {
		if s.Status != SaleStatusPaid {
			becamePaid = true
			s.PaidAt = &now
		}
		s.Status = SaleStatusPaid
		return becamePaid
	}
	s.Status = SaleStatusPartiallyPaid
	return false
}

// ApplyRefund descuenta el monto devuelto. Con keepOpen=false (comportamiento histórico)
// cualquier devolución deja la venta en REFUNDED; con keepOpen=true solo la devolución
// total es terminal y una parcial devuelve la venta a PARTIALLY_PAID.
func (s *Sale) ApplyRefund(amount decimal.Decimal, keepOpen bool, now time.Time) {
	s.AmountPaid = money.MaxZero(money.Round(s.AmountPaid.Sub(amount)))
	s.RefreshDue()
	s.UpdatedAt = now
	if !keepOpen || s.AmountPaid.IsZero() {
		s.Status = SaleStatusRefunded
		return
	}
	if s.AmountDue.IsPositive() {
		s.Status = SaleStatusPartiallyPaid
		s.PaidAt = nil
	}
}

// Cancel anula la venta.
func (s *Sale) Cancel(actor, reason string, now time.Time) {
	s.Status = SaleStatusCancelled
	s.CancelReason = reason
	s.CancelledBy = &actor
	s.CancelledAt = &now
	s.UpdatedAt = now
}

// SaleItem línea de una venta. UnitPrice y CostPrice se fijan al agregar la línea.
type SaleItem struct {
	ID             string
	SaleID         string
	ProductID      string
	Quantity       int
	UnitPrice      decimal.Decimal
	CostPrice      decimal.Decimal
	DiscountAmount decimal.Decimal
	LineTotal      decimal.Decimal // max(UnitPrice*Quantity − DiscountAmount, 0)
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Recompute recalcula LineTotal.
func (i *SaleItem) Recompute() {
	gross := i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
	i.LineTotal = money.Round(money.MaxZero(gross.Sub(i.DiscountAmount)))
}
