package sales

import (
	"github.com/shopspring/decimal"
)

const ratioPlaces = 4

// FulfillmentTarget cantidad de una línea que debe estar descontada del stock dado
// lo pagado: floor(qty × min(pagado/total, 1)), con la razón a cuatro decimales.
// Con la venta pagada es qty completa.
func FulfillmentTarget(qty int, amountPaid, total decimal.Decimal, paid bool) int {
	if paid || !total.IsPositive() {
		return qty
	}
	if !amountPaid.IsPositive() {
		return 0
	}
	ratio := decimal.Min(amountPaid.Div(total).Round(ratioPlaces), decimal.NewFromInt(1))
	return int(decimal.NewFromInt(int64(qty)).Mul(ratio).Floor().IntPart())
}
