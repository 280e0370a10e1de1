package shift_test

import (
	"context"
	"testing"

	"github.com/jhoicas/ventas-api/internal/application/apptest"
	"github.com/jhoicas/ventas-api/internal/application/audit"
	"github.com/jhoicas/ventas-api/internal/application/refund"
	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestOpen_UnTurnoAbiertoPorCajero(t *testing.T) {
	f := apptest.New(t)
	ctx := context.Background()

	sh, err := f.Shifts.Open(ctx, f.Cashier, dec(50000))
	require.NoError(t, err)
	assert.Equal(t, entity.ShiftOpen, sh.Status)
	assert.True(t, dec(50000).Equal(sh.OpeningFloat))

	_, err = f.Shifts.Open(ctx, f.Cashier, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	// Otro cajero de la misma tienda sí puede abrir el suyo.
	_, err = f.Shifts.Open(ctx, f.Manager, decimal.Zero)
	assert.NoError(t, err)

	cur, err := f.Shifts.Current(ctx, f.Cashier)
	require.NoError(t, err)
	assert.Equal(t, sh.ID, cur.ID)

	_, err = f.Shifts.Open(ctx, f.Seller, dec(-1))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestCurrent_SinTurno(t *testing.T) {
	f := apptest.New(t)
	_, err := f.Shifts.Current(context.Background(), f.Cashier)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClose_Arqueo(t *testing.T) {
	f := apptest.New(t)
	ctx := context.Background()
	sh, err := f.Shifts.Open(ctx, f.Cashier, dec(20000))
	require.NoError(t, err)

	sale := f.SubmittedSale(t, false, apptest.Line{ProductID: f.Widget, Qty: 2})
	f.Pay(t, sale.Sale.ID, sh.ID, "cash", 30000)
	f.Pay(t, sale.Sale.ID, sh.ID, "momo", 20000)
	_, err = f.Refunds.CreateRefund(ctx, f.Manager, refund.Input{
		SaleID: sale.Sale.ID, Amount: dec(5000), Reason: "rayón", ShiftID: &sh.ID,
	})
	require.NoError(t, err)

	closed, err := f.Shifts.Close(ctx, f.Cashier, sh.ID, dec(44000))
	require.NoError(t, err)
	assert.Equal(t, entity.ShiftClosed, closed.Status)
	require.NotNil(t, closed.ExpectedCash)
	// 20.000 de fondo + 30.000 en efectivo − 5.000 devueltos
	assert.True(t, dec(45000).Equal(*closed.ExpectedCash))
	assert.True(t, dec(-1000).Equal(*closed.Variance))
	assert.True(t, dec(20000).Equal(closed.MobileMoneyTotal))
	assert.NotNil(t, closed.ClosedAt)

	_, err = f.Shifts.Close(ctx, f.Cashier, sh.ID, dec(44000))
	assert.ErrorIs(t, err, domain.ErrInvalidState, "un turno se cierra una sola vez")

	entries := f.Mem.AuditEntries()
	require.NotEmpty(t, entries)
	assert.Equal(t, audit.ActionShiftClosed, entries[len(entries)-1].Action)
}

func TestClose_Permisos(t *testing.T) {
	f := apptest.New(t)
	ctx := context.Background()
	sh := f.OpenShift(t)

	_, err := f.Shifts.Close(ctx, f.Seller, sh.ID, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	outsider := f.Manager
	outsider.StoreID = "otra-tienda"
	_, err = f.Shifts.Close(ctx, outsider, sh.ID, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.Shifts.Close(ctx, f.Manager, sh.ID, decimal.Zero)
	assert.NoError(t, err, "un manager de la tienda puede cerrar el turno de otro")
}
