package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/ventas-api/internal/application/payment"
	"github.com/jhoicas/ventas-api/internal/application/ports"
	"github.com/jhoicas/ventas-api/internal/application/refund"
	"github.com/jhoicas/ventas-api/internal/application/sales"
	"github.com/jhoicas/ventas-api/internal/application/shift"
	"github.com/jhoicas/ventas-api/internal/application/stock"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Sales          *sales.Service
	Payments       *payment.Allocator
	Refunds        *refund.Processor
	Shifts         *shift.Ledger
	Stock          *stock.Ledger
	Idempotency    ports.IdempotencyStore
	IdempotencyTTL time.Duration
	RateLimiter    *StoreRateLimiter // nil = sin límite
	JWTSecret      string
	Log            *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	api := app.Group("/api")

	// Todas las rutas requieren Bearer Token
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	if deps.RateLimiter != nil {
		protected.Use(deps.RateLimiter.Middleware())
	}

	anyRole := RequireRole(entity.RoleAdmin, entity.RoleManager, entity.RoleCashier, entity.RoleSeller)
	cashiers := RequireRole(entity.RoleAdmin, entity.RoleManager, entity.RoleCashier)
	approvers := RequireRole(entity.RoleAdmin, entity.RoleManager)
	idem := Idempotency(deps.Idempotency, deps.IdempotencyTTL, log)

	// Ventas
	saleHandler := NewSaleHandler(deps.Sales, log)
	paymentHandler := NewPaymentHandler(deps.Payments, deps.Refunds, log)
	salesGroup := protected.Group("/sales")
	salesGroup.Post("/", anyRole, saleHandler.Create)
	salesGroup.Get("/:id", anyRole, saleHandler.Get)
	salesGroup.Post("/:id/items", anyRole, saleHandler.AddItem)
	salesGroup.Patch("/:id/items/:itemId", anyRole, saleHandler.UpdateItem)
	salesGroup.Delete("/:id/items/:itemId", anyRole, saleHandler.RemoveItem)
	salesGroup.Put("/:id/customer", anyRole, saleHandler.SetCustomer)
	salesGroup.Put("/:id/discount", anyRole, saleHandler.SetDiscount)
	salesGroup.Post("/:id/submit", anyRole, saleHandler.Submit)
	salesGroup.Post("/:id/cancel", anyRole, saleHandler.Cancel)
	salesGroup.Post("/:id/payments", cashiers, idem, paymentHandler.ProcessPayment)
	salesGroup.Post("/:id/refunds", approvers, idem, paymentHandler.CreateRefund)

	// Turnos de caja
	shiftHandler := NewShiftHandler(deps.Shifts, log)
	shifts := protected.Group("/shifts", cashiers)
	shifts.Post("/", shiftHandler.Open)
	shifts.Get("/current", shiftHandler.Current)
	shifts.Post("/:id/close", shiftHandler.Close)

	// Existencias
	stockHandler := NewStockHandler(deps.Stock, log)
	stockGroup := protected.Group("/stock")
	stockGroup.Post("/adjustments", approvers, stockHandler.Adjust)
	stockGroup.Get("/low", anyRole, stockHandler.LowStock)
	stockGroup.Get("/movements", anyRole, stockHandler.Movements)
	stockGroup.Get("/:productId", anyRole, stockHandler.Get)
	stockGroup.Put("/:productId/min", approvers, stockHandler.SetMinQty)
}
