package dto

import (
	"time"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// AdjustmentLineRequest una línea del ajuste. Delta con signo; UnitCost solo para PURCHASE.
type AdjustmentLineRequest struct {
	ProductID string           `json:"product_id" validate:"required,uuid"`
	Delta     int              `json:"delta" validate:"required"`
	Type      string           `json:"type,omitempty" validate:"omitempty,oneof=PURCHASE ADJUST DAMAGE TRANSFER RETURN"`
	UnitCost  *decimal.Decimal `json:"unit_cost,omitempty"`
}

// StockAdjustmentRequest body para POST /api/stock/adjustments.
type StockAdjustmentRequest struct {
	Reason string                  `json:"reason" validate:"required,max=500"`
	Lines  []AdjustmentLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// StockAdjustmentResponse resultado del lote de ajustes.
type StockAdjustmentResponse struct {
	BatchID string          `json:"batch_id"`
	Stocks  []StockResponse `json:"stocks"`
}

// SetMinQtyRequest body para PUT /api/stock/:productId/min.
type SetMinQtyRequest struct {
	MinQty int `json:"min_qty" validate:"min=0"`
}

// StockResponse existencias de un producto en la tienda.
type StockResponse struct {
	ProductID   string    `json:"product_id"`
	Quantity    int       `json:"quantity"`
	ReservedQty int       `json:"reserved_qty"`
	Available   int       `json:"available"`
	MinQty      int       `json:"min_qty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StocksFromEntities convierte la lista de existencias.
func StocksFromEntities(list []*entity.ProductStock) []StockResponse {
	out := make([]StockResponse, 0, len(list))
	for _, s := range list {
		out = append(out, StockFromEntity(s))
	}
	return out
}

// StockFromEntity arma la respuesta de existencias.
func StockFromEntity(s *entity.ProductStock) StockResponse {
	return StockResponse{
		ProductID:   s.ProductID,
		Quantity:    s.Quantity,
		ReservedQty: s.ReservedQty,
		Available:   s.Available(),
		MinQty:      s.MinQty,
		UpdatedAt:   s.UpdatedAt,
	}
}

// MovementResponse movimiento del libro de inventario.
type MovementResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Type      string          `json:"type"`
	Quantity  int             `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	Reference string          `json:"reference"`
	Reason    string          `json:"reason,omitempty"`
	BatchID   string          `json:"batch_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// MovementsFromEntities convierte la lista de movimientos.
func MovementsFromEntities(list []*entity.InventoryMovement) []MovementResponse {
	out := make([]MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, MovementResponse{
			ID:        m.ID,
			ProductID: m.ProductID,
			Type:      string(m.Type),
			Quantity:  m.Quantity,
			UnitCost:  m.UnitCost,
			Reference: m.Reference,
			Reason:    m.Reason,
			BatchID:   m.BatchID,
			CreatedAt: m.CreatedAt,
		})
	}
	return out
}
