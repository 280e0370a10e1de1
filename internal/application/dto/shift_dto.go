package dto

import (
	"time"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// OpenShiftRequest body para POST /api/shifts.
type OpenShiftRequest struct {
	OpeningFloat decimal.Decimal `json:"opening_float"`
}

// CloseShiftRequest body para POST /api/shifts/:id/close.
type CloseShiftRequest struct {
	ClosingCash decimal.Decimal `json:"closing_cash"`
}

// ShiftResponse turno de caja con sus acumulados.
type ShiftResponse struct {
	ID                string           `json:"id"`
	StoreID           string           `json:"store_id"`
	CashierID         string           `json:"cashier_id"`
	Status            string           `json:"status"`
	OpeningFloat      decimal.Decimal  `json:"opening_float"`
	CashTotal         decimal.Decimal  `json:"cash_total"`
	MobileMoneyTotal  decimal.Decimal  `json:"mobile_money_total"`
	BankTransferTotal decimal.Decimal  `json:"bank_transfer_total"`
	CreditTotal       decimal.Decimal  `json:"credit_total"`
	ChequeTotal       decimal.Decimal  `json:"cheque_total"`
	CashRefunds       decimal.Decimal  `json:"cash_refunds"`
	ExpectedCash      *decimal.Decimal `json:"expected_cash,omitempty"`
	ClosingCash       *decimal.Decimal `json:"closing_cash,omitempty"`
	Variance          *decimal.Decimal `json:"variance,omitempty"`
	OpenedAt          time.Time        `json:"opened_at"`
	ClosedAt          *time.Time       `json:"closed_at,omitempty"`
}

// ShiftFromEntity arma la respuesta del turno.
func ShiftFromEntity(s *entity.CashShift) ShiftResponse {
	return ShiftResponse{
		ID:                s.ID,
		StoreID:           s.StoreID,
		CashierID:         s.CashierID,
		Status:            string(s.Status),
		OpeningFloat:      s.OpeningFloat,
		CashTotal:         s.CashTotal,
		MobileMoneyTotal:  s.MobileMoneyTotal,
		BankTransferTotal: s.BankTransferTotal,
		CreditTotal:       s.CreditTotal,
		ChequeTotal:       s.ChequeTotal,
		CashRefunds:       s.CashRefunds,
		ExpectedCash:      s.ExpectedCash,
		ClosingCash:       s.ClosingCash,
		Variance:          s.Variance,
		OpenedAt:          s.OpenedAt,
		ClosedAt:          s.ClosedAt,
	}
}
