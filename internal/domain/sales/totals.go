// Package sales contiene los servicios de dominio puros de la venta: recálculo de
// totales, normalización de métodos de pago y cálculo del cumplimiento de stock.
package sales

import (
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/money"
	"github.com/shopspring/decimal"
)

// Totals resultado del recálculo.
type Totals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
	AmountDue      decimal.Decimal
}

// Discount configuración de descuento de la venta. Percent > 0 tiene prioridad y
// se recalcula sobre el subtotal en cada llamada; si no, Amount se acota a [0, subtotal].
type Discount struct {
	Amount  decimal.Decimal
	Percent decimal.Decimal
}

// RecalculateTotals calcula los totales a partir de las líneas, el descuento, la
// configuración fiscal de la tienda y lo ya pagado. Es pura e idempotente.
func RecalculateTotals(items []*entity.SaleItem, discount Discount, cfg entity.StoreConfig, amountPaid decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		line := *it
		line.Recompute()
		subtotal = subtotal.Add(line.LineTotal)
	}
	subtotal = money.Round(subtotal)

	var discountAmount decimal.Decimal
	if discount.Percent.IsPositive() {
		pct := money.Clamp(discount.Percent.Round(money.AmountPlaces), decimal.Zero, decimal.NewFromInt(100))
		discountAmount = money.Percent(subtotal, pct)
	} else {
		discountAmount = money.Round(money.Clamp(discount.Amount, decimal.Zero, subtotal))
	}

	taxAmount := decimal.Zero
	if cfg.TaxEnabled && cfg.TaxRate.IsPositive() {
		taxAmount = money.Percent(subtotal.Sub(discountAmount), cfg.TaxRate)
	}

	total := money.MaxZero(subtotal.Sub(discountAmount).Add(taxAmount))
	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		TaxAmount:      taxAmount,
		Total:          total,
		AmountDue:      money.MaxZero(total.Sub(amountPaid)),
	}
}

// Apply recalcula y escribe los totales en la venta.
func Apply(sale *entity.Sale, items []*entity.SaleItem, cfg entity.StoreConfig) {
	t := RecalculateTotals(items, Discount{Amount: sale.DiscountAmount, Percent: sale.DiscountPercent}, cfg, sale.AmountPaid)
	sale.Subtotal = t.Subtotal
	sale.DiscountAmount = t.DiscountAmount
	sale.TaxAmount = t.TaxAmount
	sale.Total = t.Total
	sale.AmountDue = t.AmountDue
}
