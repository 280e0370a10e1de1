package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/ventas-api/internal/application/dto"
	"github.com/jhoicas/ventas-api/internal/application/payment"
	"github.com/jhoicas/ventas-api/internal/application/refund"
	"github.com/jhoicas/ventas-api/pkg/logger"
)

// PaymentHandler cobros y devoluciones de una venta.
type PaymentHandler struct {
	allocator *payment.Allocator
	refunds   *refund.Processor
	log       *logger.Logger
}

// NewPaymentHandler construye el handler.
func NewPaymentHandler(allocator *payment.Allocator, refunds *refund.Processor, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{allocator: allocator, refunds: refunds, log: log}
}

// ProcessPayment godoc
// @Summary      Registrar pago (una o varias formas de pago)
// @Description  Enviar Idempotency-Key para reintentos seguros.
// @Tags         payments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id               path    string                     true   "ID de la venta"
// @Param        Idempotency-Key  header  string                     false  "clave de idempotencia"
// @Param        body             body    dto.ProcessPaymentRequest  true   "turno y líneas de pago"
// @Success      200   {object}  dto.ProcessPaymentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/payments [post]
func (h *PaymentHandler) ProcessPayment(c *fiber.Ctx) error {
	var in dto.ProcessPaymentRequest
	if err := bind(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	lines := make([]payment.Line, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, payment.Line{Method: l.Method, Amount: l.Amount, Reference: l.Reference})
	}
	res, err := h.allocator.ProcessPayment(c.UserContext(), actorFrom(c), payment.Input{
		SaleID:  c.Params("id"),
		ShiftID: in.ShiftID,
		Lines:   lines,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ProcessPaymentResponse{
		Sale:     dto.SaleFromEntity(res.Sale),
		Payments: dto.PaymentsFromEntities(res.Payments),
		Change:   res.Change,
	})
}

// CreateRefund godoc
// @Summary      Registrar devolución
// @Description  La devolución total repone el inventario de la venta una sola vez.
// @Tags         payments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id               path    string                   true   "ID de la venta"
// @Param        Idempotency-Key  header  string                   false  "clave de idempotencia"
// @Param        body             body    dto.CreateRefundRequest  true   "monto, motivo, método"
// @Success      201   {object}  dto.CreateRefundResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/refunds [post]
func (h *PaymentHandler) CreateRefund(c *fiber.Ctx) error {
	var in dto.CreateRefundRequest
	if err := bind(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	res, err := h.refunds.CreateRefund(c.UserContext(), actorFrom(c), refund.Input{
		SaleID:      c.Params("id"),
		Amount:      in.Amount,
		Reason:      in.Reason,
		Method:      in.Method,
		ProcessedBy: in.ProcessedBy,
		ShiftID:     in.ShiftID,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	out := dto.CreateRefundResponse{
		Refund: dto.RefundFromEntity(res.Refund),
		Sale:   dto.SaleFromEntity(res.Sale),
	}
	if len(res.Restocked) > 0 {
		out.Restocked = dto.StocksFromEntities(res.Restocked)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
