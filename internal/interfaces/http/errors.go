package http

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/ventas-api/internal/application/dto"
	"github.com/jhoicas/ventas-api/internal/application/ports"
	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/pkg/logger"
)

var validate = validator.New()

type errorMapping struct {
	target error
	status int
	code   string
}

// Orden: los sub-tipos antes que su categoría.
var errorMappings = []errorMapping{
	{domain.ErrConcurrencyConflict, fiber.StatusConflict, "CONCURRENCY_CONFLICT"},
	{ports.ErrRequestInFlight, fiber.StatusConflict, "REQUEST_IN_FLIGHT"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrNotSubmittable, fiber.StatusUnprocessableEntity, "NOT_SUBMITTABLE"},
	{domain.ErrStockNotInitialized, fiber.StatusConflict, "STOCK_NOT_INITIALIZED"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrCreditLimitExceeded, fiber.StatusUnprocessableEntity, "CREDIT_LIMIT_EXCEEDED"},
	{domain.ErrInsufficientFunds, fiber.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS"},
	{domain.ErrNoOpenShift, fiber.StatusConflict, "NO_OPEN_SHIFT"},
	{domain.ErrSaleNotPayable, fiber.StatusConflict, "SALE_NOT_PAYABLE"},
	{domain.ErrSaleNotRefundable, fiber.StatusConflict, "SALE_NOT_REFUNDABLE"},
	{domain.ErrInvalidState, fiber.StatusConflict, "INVALID_STATE"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrValidation, fiber.StatusBadRequest, "VALIDATION"},
}

// respondError traduce errores de dominio a status HTTP y ErrorResponse.
// Los no reconocidos se registran y responden 500 sin detalle.
func respondError(c *fiber.Ctx, log *logger.Logger, err error) error {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			if m.target == domain.ErrConcurrencyConflict || m.target == ports.ErrRequestInFlight {
				c.Set(fiber.HeaderRetryAfter, "1")
			}
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: err.Error()})
		}
	}
	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error no controlado")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

// bind parsea el body y valida los tags `validate`. Los fallos se devuelven como ErrValidation.
func bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fmt.Errorf("%w: cuerpo JSON inválido", domain.ErrValidation)
	}
	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: campos inválidos: %s", domain.ErrValidation, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}
