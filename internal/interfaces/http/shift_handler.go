package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/ventas-api/internal/application/dto"
	"github.com/jhoicas/ventas-api/internal/application/shift"
	"github.com/jhoicas/ventas-api/pkg/logger"
)

// ShiftHandler apertura y cierre de turnos de caja.
type ShiftHandler struct {
	ledger *shift.Ledger
	log    *logger.Logger
}

// NewShiftHandler construye el handler.
func NewShiftHandler(ledger *shift.Ledger, log *logger.Logger) *ShiftHandler {
	return &ShiftHandler{ledger: ledger, log: log}
}

// Open godoc
// @Summary      Abrir turno de caja
// @Tags         shifts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OpenShiftRequest  true  "fondo inicial"
// @Success      201   {object}  dto.ShiftResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/shifts [post]
func (h *ShiftHandler) Open(c *fiber.Ctx) error {
	var in dto.OpenShiftRequest
	if err := bind(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	sh, err := h.ledger.Open(c.UserContext(), actorFrom(c), in.OpeningFloat)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ShiftFromEntity(sh))
}

// Current godoc
// @Summary      Turno abierto del cajero
// @Tags         shifts
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ShiftResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/shifts/current [get]
func (h *ShiftHandler) Current(c *fiber.Ctx) error {
	sh, err := h.ledger.Current(c.UserContext(), actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ShiftFromEntity(sh))
}

// Close godoc
// @Summary      Cerrar turno de caja
// @Description  Calcula el efectivo esperado y la diferencia contra el conteo.
// @Tags         shifts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del turno"
// @Param        body  body  dto.CloseShiftRequest  true  "efectivo contado"
// @Success      200   {object}  dto.ShiftResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/shifts/{id}/close [post]
func (h *ShiftHandler) Close(c *fiber.Ctx) error {
	var in dto.CloseShiftRequest
	if err := bind(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	sh, err := h.ledger.Close(c.UserContext(), actorFrom(c), c.Params("id"), in.ClosingCash)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ShiftFromEntity(sh))
}
