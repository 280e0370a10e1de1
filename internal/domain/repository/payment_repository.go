package repository

import (
	"context"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

// PaymentRepository puerto de pagos (solo inserción).
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	ListBySale(ctx context.Context, saleID string) ([]*entity.Payment, error)
}

// RefundRepository puerto de devoluciones (solo inserción).
type RefundRepository interface {
	Create(ctx context.Context, refund *entity.Refund) error
	ListBySale(ctx context.Context, saleID string) ([]*entity.Refund, error)
}
