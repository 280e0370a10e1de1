package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/ventas-api/internal/application/dto"
	"github.com/jhoicas/ventas-api/internal/application/sales"
	"github.com/jhoicas/ventas-api/pkg/logger"
)

// SaleHandler maneja el ciclo de vida de la venta (borrador, emisión, anulación).
type SaleHandler struct {
	svc *sales.Service
	log *logger.Logger
}

// NewSaleHandler construye el handler.
func NewSaleHandler(svc *sales.Service, log *logger.Logger) *SaleHandler {
	return &SaleHandler{svc: svc, log: log}
}

// Create godoc
// @Summary      Crear venta en borrador
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSaleRequest  true  "cliente opcional, reserva de stock, venta a crédito"
// @Success      201   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSaleRequest
	if err := bind(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	sale, err := h.svc.Create(c.UserContext(), actorFrom(c), sales.CreateInput{
		CustomerID:   in.CustomerID,
		ReserveStock: in.ReserveStock,
		IsCreditSale: in.IsCreditSale,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SaleFromEntity(sale))
}

// Get godoc
// @Summary      Obtener venta con sus líneas
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleDetailResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) Get(c *fiber.Ctx) error {
	d, err := h.svc.Get(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SaleDetailFromEntity(d.Sale, d.Items))
}

// AddItem godoc
// @Summary      Agregar producto a la venta
// @Description  Si el producto ya está en la venta se suman cantidad y descuento.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID de la venta"
// @Param        body  body  dto.AddItemRequest   true  "producto, cantidad, descuento, precio opcional"
// @Success      200   {object}  dto.SaleDetailResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/items [post]
func (h *SaleHandler) AddItem(c *fiber.Ctx) error {
	var in dto.AddItemRequest
	if err := bind(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	d, err := h.svc.AddItem(c.UserContext(), actorFrom(c), c.Params("id"), sales.AddItemInput{
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		Discount:  in.Discount,
		UnitPrice: in.UnitPrice,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SaleDetailFromEntity(d.Sale, d.Items))
}

// UpdateItem godoc
// @Summary      Cambiar la cantidad de una línea
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id      path  string                  true  "ID de la venta"
// @Param        itemId  path  string                  true  "ID de la línea"
// @Param        body    body  dto.UpdateItemRequest   true  "cantidad"
// @Success      200     {object}  dto.SaleDetailResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Failure      409     {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/items/{itemId} [patch]
func (h *SaleHandler) UpdateItem(c *fiber.Ctx) error {
	var in dto.UpdateItemRequest
	if err := bind(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	d, err := h.svc.UpdateItemQuantity(c.UserContext(), actorFrom(c), c.Params("id"), c.Params("itemId"), in.Quantity)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SaleDetailFromEntity(d.Sale, d.Items))
}

// RemoveItem godoc
// @Summary      Quitar una línea de la venta
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id      path  string  true  "ID de la venta"
// @Param        itemId  path  string  true  "ID de la línea"
// @Success      200     {object}  dto.SaleDetailResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/items/{itemId} [delete]
func (h *SaleHandler) RemoveItem(c *fiber.Ctx) error {
	d, err := h.svc.RemoveItem(c.UserContext(), actorFrom(c), c.Params("id"), c.Params("itemId"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SaleDetailFromEntity(d.Sale, d.Items))
}

// SetCustomer godoc
// @Summary      Asignar cliente a la venta
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID de la venta"
// @Param        body  body  dto.SetCustomerRequest  true  "cliente"
// @Success      200   {object}  dto.SaleResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/customer [put]
func (h *SaleHandler) SetCustomer(c *fiber.Ctx) error {
	var in dto.SetCustomerRequest
	if err := bind(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	sale, err := h.svc.SetCustomer(c.UserContext(), actorFrom(c), c.Params("id"), in.CustomerID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SaleFromEntity(sale))
}

// SetDiscount godoc
// @Summary      Fijar el descuento de la venta
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID de la venta"
// @Param        body  body  dto.SetDiscountRequest  true  "monto o porcentaje"
// @Success      200   {object}  dto.SaleDetailResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/discount [put]
func (h *SaleHandler) SetDiscount(c *fiber.Ctx) error {
	var in dto.SetDiscountRequest
	if err := bind(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	d, err := h.svc.SetDiscount(c.UserContext(), actorFrom(c), c.Params("id"), in.Amount, in.Percent)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SaleDetailFromEntity(d.Sale, d.Items))
}

// Submit godoc
// @Summary      Emitir la venta
// @Description  Asigna número de factura y deja la venta pendiente de pago.
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleDetailResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/submit [post]
func (h *SaleHandler) Submit(c *fiber.Ctx) error {
	d, err := h.svc.Submit(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SaleDetailFromEntity(d.Sale, d.Items))
}

// Cancel godoc
// @Summary      Anular la venta
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID de la venta"
// @Param        body  body  dto.CancelSaleRequest  true  "motivo"
// @Success      200   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/cancel [post]
func (h *SaleHandler) Cancel(c *fiber.Ctx) error {
	var in dto.CancelSaleRequest
	if err := bind(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	sale, err := h.svc.Cancel(c.UserContext(), actorFrom(c), c.Params("id"), in.Reason)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SaleFromEntity(sale))
}
