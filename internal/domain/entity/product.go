package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product producto del catálogo (solo lectura para el núcleo de ventas).
// CostPrice es el costo promedio ponderado; se actualiza con las compras.
type Product struct {
	ID           string
	TenantID     string
	SKU          string // código único por tenant
	Name         string
	Active       bool
	TrackStock   bool // false = servicio, no se controla inventario
	SellingPrice decimal.Decimal
	CostPrice    decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
