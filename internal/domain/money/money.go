// Package money concentra el redondeo de importes: 2 decimales para moneda y porcentajes.
package money

import "github.com/shopspring/decimal"

// AmountPlaces decimales de todo campo monetario o porcentual.
const AmountPlaces int32 = 2

var hundred = decimal.NewFromInt(100)

// Round redondea un importe a 2 decimales (half-up, como NUMERIC(14,2)).
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountPlaces)
}

// MaxZero devuelve d o cero si d es negativo.
func MaxZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Clamp limita d al intervalo [lo, hi].
func Clamp(d, lo, hi decimal.Decimal) decimal.Decimal {
	if d.LessThan(lo) {
		return lo
	}
	if d.GreaterThan(hi) {
		return hi
	}
	return d
}

// Percent aplica un porcentaje (ej. 18.00) sobre base y redondea a moneda.
func Percent(base, pct decimal.Decimal) decimal.Decimal {
	return Round(base.Mul(pct).Div(hundred))
}
