package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
// Los tipos de error son centinelas comparables con errors.Is; los sub-tipos
// envuelven a su tipo para que el caller pueda distinguir el motivo exacto
// o tratar solo la categoría.
var (
	ErrNotFound  = errors.New("recurso no encontrado")
	ErrForbidden = errors.New("acceso denegado")
	ErrDuplicate = errors.New("recurso duplicado")

	// ErrInvalidState operación no permitida en el estado actual de la venta o del turno.
	ErrInvalidState = errors.New("estado inválido para la operación")
	// ErrValidation entrada estructuralmente inválida (cantidad < 1, motivo vacío, etc.).
	ErrValidation = errors.New("entrada inválida")
	// ErrNotSubmittable la venta no cumple las condiciones para emitirse.
	ErrNotSubmittable = errors.New("la venta no se puede emitir")
	// ErrInsufficientStock cantidad solicitada mayor al disponible (incluye stock no inicializado).
	ErrInsufficientStock = errors.New("stock insuficiente")
	// ErrInsufficientFunds el pago a crédito excede el crédito disponible.
	ErrInsufficientFunds = errors.New("fondos insuficientes")
	// ErrNoOpenShift pago sin turno de caja abierto para el cajero.
	ErrNoOpenShift = errors.New("no hay turno de caja abierto")
	// ErrSaleNotPayable la venta no admite pagos en su estado actual.
	ErrSaleNotPayable = errors.New("la venta no admite pagos")
	// ErrSaleNotRefundable la venta no admite devoluciones en su estado actual.
	ErrSaleNotRefundable = errors.New("la venta no admite devoluciones")
	// ErrConcurrencyConflict fallo al adquirir un bloqueo; el caller puede reintentar.
	ErrConcurrencyConflict = errors.New("conflicto de concurrencia")
)

// Sub-tipos con motivo específico.
var (
	ErrMissingCustomer        = fmt.Errorf("%w: la venta no tiene cliente", ErrValidation)
	ErrCreditRequiresCustomer = fmt.Errorf("%w: el pago a crédito requiere cliente", ErrValidation)
	ErrMissingReason          = fmt.Errorf("%w: el motivo es obligatorio", ErrValidation)
	ErrInvalidQuantity        = fmt.Errorf("%w: la cantidad debe ser mayor o igual a 1", ErrValidation)
	ErrInvalidAmount          = fmt.Errorf("%w: el monto debe ser mayor a cero", ErrValidation)
	ErrUnknownPaymentMethod   = fmt.Errorf("%w: método de pago desconocido", ErrValidation)
	ErrInactiveProduct        = fmt.Errorf("%w: el producto no está activo", ErrValidation)
	ErrCreditLimitExceeded    = fmt.Errorf("%w: límite de crédito excedido", ErrInsufficientFunds)
	ErrStockNotInitialized    = fmt.Errorf("%w: stock no inicializado", ErrInsufficientStock)
)
