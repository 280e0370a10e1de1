package dto

import (
	"time"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// PaymentLineRequest una forma de pago dentro de un cobro.
type PaymentLineRequest struct {
	Method    string          `json:"method" validate:"required,max=40"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty" validate:"max=120"`
}

// ProcessPaymentRequest body para POST /api/sales/:id/payments.
type ProcessPaymentRequest struct {
	ShiftID string               `json:"shift_id" validate:"required,uuid"`
	Lines   []PaymentLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// PaymentResponse pago registrado.
type PaymentResponse struct {
	ID        string          `json:"id"`
	Method    string          `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"`
	ShiftID   string          `json:"shift_id"`
	CreatedAt time.Time       `json:"created_at"`
}

// ProcessPaymentResponse resultado del cobro. Change es el vuelto (monto recibido − aplicado).
type ProcessPaymentResponse struct {
	Sale     SaleResponse      `json:"sale"`
	Payments []PaymentResponse `json:"payments"`
	Change   decimal.Decimal   `json:"change"`
}

// PaymentsFromEntities convierte la lista de pagos.
func PaymentsFromEntities(list []*entity.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(list))
	for _, p := range list {
		out = append(out, PaymentResponse{
			ID:        p.ID,
			Method:    string(p.Method),
			Amount:    p.Amount,
			Reference: p.Reference,
			ShiftID:   p.ShiftID,
			CreatedAt: p.CreatedAt,
		})
	}
	return out
}

// CreateRefundRequest body para POST /api/sales/:id/refunds.
type CreateRefundRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Reason      string          `json:"reason" validate:"required,max=500"`
	Method      string          `json:"method,omitempty" validate:"max=40"`
	ProcessedBy *string         `json:"processed_by,omitempty" validate:"omitempty,uuid"`
	ShiftID     *string         `json:"shift_id,omitempty" validate:"omitempty,uuid"`
}

// RefundResponse devolución registrada.
type RefundResponse struct {
	ID         string          `json:"id"`
	Number     string          `json:"number"`
	SaleID     string          `json:"sale_id"`
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason"`
	Method     string          `json:"method"`
	ApprovedBy string          `json:"approved_by"`
	CreatedAt  time.Time       `json:"created_at"`
}

// CreateRefundResponse devolución, venta resultante y stock repuesto (si hubo).
type CreateRefundResponse struct {
	Refund    RefundResponse  `json:"refund"`
	Sale      SaleResponse    `json:"sale"`
	Restocked []StockResponse `json:"restocked,omitempty"`
}

// RefundFromEntity arma la respuesta de devolución.
func RefundFromEntity(r *entity.Refund) RefundResponse {
	return RefundResponse{
		ID:         r.ID,
		Number:     r.Number,
		SaleID:     r.SaleID,
		Amount:     r.Amount,
		Reason:     r.Reason,
		Method:     string(r.Method),
		ApprovedBy: r.ApprovedBy,
		CreatedAt:  r.CreatedAt,
	}
}
