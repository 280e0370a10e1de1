package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/ventas-api/internal/application/dto"
	"github.com/jhoicas/ventas-api/internal/application/stock"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/pkg/logger"
)

// StockHandler ajustes y consultas de existencias de la tienda del token.
type StockHandler struct {
	ledger *stock.Ledger
	log    *logger.Logger
}

// NewStockHandler construye el handler.
func NewStockHandler(ledger *stock.Ledger, log *logger.Logger) *StockHandler {
	return &StockHandler{ledger: ledger, log: log}
}

// Adjust godoc
// @Summary      Ajuste de inventario por lote
// @Description  Todas las líneas se aplican o ninguna. El motivo es obligatorio.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StockAdjustmentRequest  true  "motivo y líneas"
// @Success      201   {object}  dto.StockAdjustmentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/adjustments [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	var in dto.StockAdjustmentRequest
	if err := bind(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	lines := make([]stock.AdjustLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, stock.AdjustLine{
			ProductID: l.ProductID,
			Delta:     l.Delta,
			Type:      entity.MovementType(l.Type),
			UnitCost:  l.UnitCost,
		})
	}
	res, err := h.ledger.AdjustBatch(c.UserContext(), GetStoreID(c), lines, in.Reason, GetUserID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.StockAdjustmentResponse{
		BatchID: res.BatchID,
		Stocks:  dto.StocksFromEntities(res.Stocks),
	})
}

// LowStock godoc
// @Summary      Productos en o bajo el mínimo
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.StockResponse
// @Router       /api/stock/low [get]
func (h *StockHandler) LowStock(c *fiber.Ctx) error {
	list, err := h.ledger.LowStock(c.UserContext(), GetStoreID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.StocksFromEntities(list))
}

// Get godoc
// @Summary      Existencias de un producto
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        productId  path  string  true  "ID del producto"
// @Success      200  {object}  dto.StockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{productId} [get]
func (h *StockHandler) Get(c *fiber.Ctx) error {
	st, err := h.ledger.Get(c.UserContext(), GetStoreID(c), c.Params("productId"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.StockFromEntity(st))
}

// SetMinQty godoc
// @Summary      Fijar el mínimo de un producto
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        productId  path  string                true  "ID del producto"
// @Param        body       body  dto.SetMinQtyRequest  true  "mínimo"
// @Success      200  {object}  dto.StockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/{productId}/min [put]
func (h *StockHandler) SetMinQty(c *fiber.Ctx) error {
	var in dto.SetMinQtyRequest
	if err := bind(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	st, err := h.ledger.SetMinQty(c.UserContext(), GetStoreID(c), c.Params("productId"), in.MinQty)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.StockFromEntity(st))
}

// Movements godoc
// @Summary      Movimientos de inventario de un documento
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        reference  query  string  true  "ID de la venta, devolución o lote"
// @Success      200  {array}   dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/movements [get]
func (h *StockHandler) Movements(c *fiber.Ctx) error {
	list, err := h.ledger.Movements(c.UserContext(), GetStoreID(c), c.Query("reference"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.MovementsFromEntities(list))
}
