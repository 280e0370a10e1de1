package dto

import (
	"time"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// CreateSaleRequest body para POST /api/sales.
type CreateSaleRequest struct {
	CustomerID   *string `json:"customer_id,omitempty" validate:"omitempty,uuid"`
	ReserveStock bool    `json:"reserve_stock"`
	IsCreditSale bool    `json:"is_credit_sale"`
}

// AddItemRequest body para POST /api/sales/:id/items.
// UnitPrice opcional: si no se envía se usa el precio de lista del producto.
type AddItemRequest struct {
	ProductID string           `json:"product_id" validate:"required,uuid"`
	Quantity  int              `json:"quantity" validate:"required,min=1"`
	Discount  decimal.Decimal  `json:"discount"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

// UpdateItemRequest body para PATCH /api/sales/:id/items/:itemId.
type UpdateItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// SetCustomerRequest body para PUT /api/sales/:id/customer.
type SetCustomerRequest struct {
	CustomerID string `json:"customer_id" validate:"required,uuid"`
}

// SetDiscountRequest body para PUT /api/sales/:id/discount. Percent > 0 tiene prioridad sobre Amount.
type SetDiscountRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	Percent decimal.Decimal `json:"percent"`
}

// CancelSaleRequest body para POST /api/sales/:id/cancel.
type CancelSaleRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// SaleResponse cabecera de venta.
type SaleResponse struct {
	ID              string          `json:"id"`
	StoreID         string          `json:"store_id"`
	SellerID        string          `json:"seller_id"`
	CustomerID      *string         `json:"customer_id,omitempty"`
	InvoiceNumber   *string         `json:"invoice_number,omitempty"`
	Status          string          `json:"status"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	Total           decimal.Decimal `json:"total"`
	AmountPaid      decimal.Decimal `json:"amount_paid"`
	AmountDue       decimal.Decimal `json:"amount_due"`
	IsCreditSale    bool            `json:"is_credit_sale"`
	ReserveStock    bool            `json:"reserve_stock"`
	CancelReason    string          `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	SubmittedAt     *time.Time      `json:"submitted_at,omitempty"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
}

// SaleItemResponse línea de venta.
type SaleItemResponse struct {
	ID             string          `json:"id"`
	ProductID      string          `json:"product_id"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	LineTotal      decimal.Decimal `json:"line_total"`
}

// SaleDetailResponse venta con sus líneas.
type SaleDetailResponse struct {
	SaleResponse
	Items []SaleItemResponse `json:"items"`
}

// SaleFromEntity arma la respuesta de cabecera.
func SaleFromEntity(s *entity.Sale) SaleResponse {
	return SaleResponse{
		ID:              s.ID,
		StoreID:         s.StoreID,
		SellerID:        s.SellerID,
		CustomerID:      s.CustomerID,
		InvoiceNumber:   s.InvoiceNumber,
		Status:          string(s.Status),
		Subtotal:        s.Subtotal,
		DiscountAmount:  s.DiscountAmount,
		DiscountPercent: s.DiscountPercent,
		TaxAmount:       s.TaxAmount,
		Total:           s.Total,
		AmountPaid:      s.AmountPaid,
		AmountDue:       s.AmountDue,
		IsCreditSale:    s.IsCreditSale,
		ReserveStock:    s.ReserveStock,
		CancelReason:    s.CancelReason,
		CreatedAt:       s.CreatedAt,
		SubmittedAt:     s.SubmittedAt,
		PaidAt:          s.PaidAt,
		CancelledAt:     s.CancelledAt,
	}
}

// SaleDetailFromEntity arma la respuesta con líneas.
func SaleDetailFromEntity(s *entity.Sale, items []*entity.SaleItem) SaleDetailResponse {
	out := SaleDetailResponse{SaleResponse: SaleFromEntity(s), Items: make([]SaleItemResponse, 0, len(items))}
	for _, it := range items {
		out.Items = append(out.Items, SaleItemResponse{
			ID:             it.ID,
			ProductID:      it.ProductID,
			Quantity:       it.Quantity,
			UnitPrice:      it.UnitPrice,
			DiscountAmount: it.DiscountAmount,
			LineTotal:      it.LineTotal,
		})
	}
	return out
}
