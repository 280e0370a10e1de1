package entity_test

import (
	"testing"
	"time"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCashShift_CierreCalculaDiferencia(t *testing.T) {
	sh := &entity.CashShift{Status: entity.ShiftOpen, CashierID: "c1", OpeningFloat: decimal.NewFromInt(10000)}
	sh.Add(entity.PaymentCash, decimal.NewFromInt(50000))
	sh.Add(entity.PaymentMobileMoney, decimal.NewFromInt(7000))
	sh.CashRefunds = decimal.NewFromInt(5000)

	assert.True(t, decimal.NewFromInt(55000).Equal(sh.ExpectedDrawer()), "los cobros no efectivo no van al cajón")

	sh.Close(decimal.NewFromInt(54000), time.Now())
	assert.Equal(t, entity.ShiftClosed, sh.Status)
	assert.True(t, decimal.NewFromInt(-1000).Equal(*sh.Variance))
	assert.False(t, sh.IsOpenFor("c1"))
}

func TestProductStock_Available(t *testing.T) {
	st := entity.ProductStock{Quantity: 10, ReservedQty: 4}
	assert.Equal(t, 6, st.Available())
}

func TestCreditAccount_Available(t *testing.T) {
	acc := entity.CreditAccount{CreditLimit: decimal.NewFromInt(100), Balance: decimal.NewFromInt(130)}
	assert.True(t, acc.Available().IsZero())
}
