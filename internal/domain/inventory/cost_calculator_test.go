package inventory_test

import (
	"testing"

	"github.com/jhoicas/ventas-api/internal/domain/inventory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCostCalculator_PromedioPonderado(t *testing.T) {
	// (10 × 100 + 10 × 200) / 20 = 150
	got := inventory.CostCalculator(10, decimal.NewFromInt(100), 10, decimal.NewFromInt(200))
	assert.True(t, decimal.NewFromInt(150).Equal(got))
}

func TestCostCalculator_SinStockUsaCostoDeEntrada(t *testing.T) {
	got := inventory.CostCalculator(0, decimal.NewFromInt(100), 5, decimal.RequireFromString("80.555"))
	assert.True(t, decimal.RequireFromString("80.56").Equal(got))
}
