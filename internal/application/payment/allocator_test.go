package payment_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jhoicas/ventas-api/internal/application/apptest"
	"github.com/jhoicas/ventas-api/internal/application/payment"
	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func saleMovements(f *apptest.Fixture, saleID string) []entity.InventoryMovement {
	var out []entity.InventoryMovement
	for _, m := range f.Mem.Movements() {
		if m.Reference == saleID && m.Type == entity.MovementSale {
			out = append(out, m)
		}
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Pago parcial y total: 2 × 25.000 pagados en dos mitades
// ──────────────────────────────────────────────────────────────────────────────

func TestPagoEnDosMitades_SinReserva(t *testing.T) {
	f := apptest.New(t)
	sh := f.OpenShift(t)
	d := f.SubmittedSale(t, false, apptest.Line{ProductID: f.Widget, Qty: 2})

	res := f.Pay(t, d.Sale.ID, sh.ID, "cash", 25000)
	assert.Equal(t, entity.SaleStatusPartiallyPaid, res.Sale.Status)
	assert.True(t, dec(25000).Equal(res.Sale.AmountDue))
	assert.Equal(t, 10, f.Mem.Stock(f.StoreID, f.Widget).Quantity, "sin reserva no descuenta hasta quedar pagada")

	res = f.Pay(t, d.Sale.ID, sh.ID, "efectivo", 25000)
	assert.Equal(t, entity.SaleStatusPaid, res.Sale.Status)
	assert.True(t, res.Sale.AmountDue.IsZero())
	assert.NotNil(t, res.Sale.PaidAt)
	assert.Equal(t, 8, f.Mem.Stock(f.StoreID, f.Widget).Quantity)

	movs := saleMovements(f, d.Sale.ID)
	require.Len(t, movs, 1)
	assert.Equal(t, -2, movs[0].Quantity)

	assert.True(t, dec(50000).Equal(f.Mem.Shift(sh.ID).CashTotal))
	assert.Len(t, f.Mem.Payments(), 2)
}

func TestPagoEnDosMitades_ConReserva(t *testing.T) {
	f := apptest.New(t)
	sh := f.OpenShift(t)
	d := f.SubmittedSale(t, true, apptest.Line{ProductID: f.Widget, Qty: 2})

	f.Pay(t, d.Sale.ID, sh.ID, "cash", 25000)
	st := f.Mem.Stock(f.StoreID, f.Widget)
	assert.Equal(t, 9, st.Quantity, "la mitad pagada entrega una unidad")
	assert.Equal(t, 1, st.ReservedQty)
	assert.Equal(t, 8, st.Available())

	res := f.Pay(t, d.Sale.ID, sh.ID, "cash", 25000)
	assert.Equal(t, entity.SaleStatusPaid, res.Sale.Status)
	st = f.Mem.Stock(f.StoreID, f.Widget)
	assert.Equal(t, 8, st.Quantity)
	assert.Equal(t, 0, st.ReservedQty)

	total := 0
	for _, m := range saleMovements(f, d.Sale.ID) {
		total += m.Quantity
	}
	assert.Equal(t, -2, total, "el descuento acumulado es exactamente la cantidad vendida")
	assert.Equal(t, 2, f.Mem.Reservation(d.Sale.ID, f.Widget).FulfilledQty)
}

func TestReservasIndependientes_DosVentasIntercaladas(t *testing.T) {
	f := apptest.New(t)
	sh := f.OpenShift(t)
	a := f.SubmittedSale(t, true, apptest.Line{ProductID: f.Widget, Qty: 2}) // 50.000
	b := f.SubmittedSale(t, true, apptest.Line{ProductID: f.Widget, Qty: 3}) // 75.000

	st := f.Mem.Stock(f.StoreID, f.Widget)
	require.Equal(t, 10, st.Quantity)
	require.Equal(t, 5, st.ReservedQty)

	holdB := func() int { return f.Mem.Reservation(b.Sale.ID, f.Widget).ReservedQty }

	f.Pay(t, a.Sale.ID, sh.ID, "cash", 25000)
	assert.Equal(t, 3, holdB(), "cobrar A no toca la reserva de B")
	assert.Equal(t, 1, f.Mem.Reservation(a.Sale.ID, f.Widget).ReservedQty)

	// un tercio de B aún no completa una unidad
	f.Pay(t, b.Sale.ID, sh.ID, "cash", 25000)
	assert.Equal(t, 3, holdB())
	assert.Equal(t, 0, f.Mem.Reservation(b.Sale.ID, f.Widget).FulfilledQty)

	res := f.Pay(t, a.Sale.ID, sh.ID, "cash", 25000)
	assert.Equal(t, entity.SaleStatusPaid, res.Sale.Status)
	assert.Equal(t, 3, holdB(), "completar A no toca la reserva de B")
	assert.Equal(t, 0, f.Mem.Reservation(a.Sale.ID, f.Widget).ReservedQty)
	assert.Equal(t, 2, f.Mem.Reservation(a.Sale.ID, f.Widget).FulfilledQty)

	sumA := 0
	for _, m := range saleMovements(f, a.Sale.ID) {
		sumA += m.Quantity
	}
	assert.Equal(t, -2, sumA)
	assert.Empty(t, saleMovements(f, b.Sale.ID))

	st = f.Mem.Stock(f.StoreID, f.Widget)
	assert.Equal(t, 8, st.Quantity)
	assert.Equal(t, holdB(), st.ReservedQty, "solo queda retenido lo pendiente de B")
	assert.Equal(t, 5, st.Available())
}

// ──────────────────────────────────────────────────────────────────────────────
// Vuelto y pagos divididos
// ──────────────────────────────────────────────────────────────────────────────

func TestSobrepago_DevuelveVueltoSinRegistrarExceso(t *testing.T) {
	f := apptest.New(t)
	sh := f.OpenShift(t)
	d := f.SubmittedSale(t, false, apptest.Line{ProductID: f.Service, Qty: 2})

	res := f.Pay(t, d.Sale.ID, sh.ID, "Espèces", 10500)
	assert.True(t, dec(500).Equal(res.Change))
	require.Len(t, res.Payments, 1)
	assert.True(t, dec(10000).Equal(res.Payments[0].Amount))
	assert.Equal(t, entity.PaymentCash, res.Payments[0].Method)
	assert.True(t, dec(10000).Equal(res.Sale.AmountPaid))
	assert.True(t, dec(10000).Equal(f.Mem.Shift(sh.ID).CashTotal))
}

func TestPagoDividido(t *testing.T) {
	f := apptest.New(t)
	sh := f.OpenShift(t)
	d := f.SubmittedSale(t, false, apptest.Line{ProductID: f.Widget, Qty: 2})

	res, err := f.Payments.ProcessPayment(context.Background(), f.Cashier, payment.Input{
		SaleID:  d.Sale.ID,
		ShiftID: sh.ID,
		Lines: []payment.Line{
			{Method: "mobile-money", Amount: dec(20000), Reference: "MM-1"},
			{Method: "credit", Amount: dec(20000)},
			{Method: "cash", Amount: dec(20000)},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Payments, 3)
	assert.True(t, dec(10000).Equal(res.Payments[2].Amount), "la última línea solo aplica el saldo")
	assert.True(t, dec(10000).Equal(res.Change))
	assert.Equal(t, entity.SaleStatusPaid, res.Sale.Status)

	shift := f.Mem.Shift(sh.ID)
	assert.True(t, dec(20000).Equal(shift.MobileMoneyTotal))
	assert.True(t, dec(20000).Equal(shift.CreditTotal))
	assert.True(t, dec(10000).Equal(shift.CashTotal))

	acc := f.Mem.CreditAccount(f.StoreID, f.CustomerID)
	assert.True(t, dec(20000).Equal(acc.Balance))
}

func TestLineaSinSaldoNoCreaPago(t *testing.T) {
	f := apptest.New(t)
	sh := f.OpenShift(t)
	d := f.SubmittedSale(t, false, apptest.Line{ProductID: f.Service, Qty: 1})

	res, err := f.Payments.ProcessPayment(context.Background(), f.Cashier, payment.Input{
		SaleID:  d.Sale.ID,
		ShiftID: sh.ID,
		Lines:   []payment.Line{{Method: "cash", Amount: dec(5000)}, {Method: "credit", Amount: dec(3000)}},
	})
	require.NoError(t, err)
	assert.Len(t, res.Payments, 1)
	assert.True(t, dec(3000).Equal(res.Change))
	assert.True(t, f.Mem.CreditAccount(f.StoreID, f.CustomerID).Balance.IsZero(), "el crédito no se debita si no aplica")
}

// ──────────────────────────────────────────────────────────────────────────────
// Rechazos: nada se persiste
// ──────────────────────────────────────────────────────────────────────────────

func TestCreditoSinCliente(t *testing.T) {
	f := apptest.New(t)
	sh := f.OpenShift(t)
	d := f.SubmittedSale(t, false, apptest.Line{ProductID: f.Service, Qty: 1})

	// Venta heredada sin cliente: la emisión actual lo exige, se fuerza por repositorio.
	require.NoError(t, f.Runner.Run(context.Background(), func(ctx context.Context, repos repository.Repos) error {
		s, err := repos.Sales.GetForUpdate(ctx, d.Sale.ID)
		if err != nil {
			return err
		}
		s.CustomerID = nil
		return repos.Sales.Update(ctx, s)
	}))

	_, err := f.Payments.ProcessPayment(context.Background(), f.Cashier, payment.Input{
		SaleID: d.Sale.ID, ShiftID: sh.ID,
		Lines: []payment.Line{{Method: "cash", Amount: dec(1000)}, {Method: "credit", Amount: dec(4000)}},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, err, domain.ErrCreditRequiresCustomer)
	assert.Empty(t, f.Mem.Payments(), "la línea en efectivo también se revierte")
	assert.True(t, f.Mem.Shift(sh.ID).CashTotal.IsZero())
}

func TestCreditoSobreElLimite(t *testing.T) {
	f := apptest.New(t)
	sh := f.OpenShift(t)
	d := f.SubmittedSale(t, false, apptest.Line{ProductID: f.Widget, Qty: 5})

	_, err := f.Payments.ProcessPayment(context.Background(), f.Cashier, payment.Input{
		SaleID: d.Sale.ID, ShiftID: sh.ID,
		Lines: []payment.Line{{Method: "credit", Amount: dec(125000)}},
	})
	assert.ErrorIs(t, err, domain.ErrCreditLimitExceeded)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.True(t, f.Mem.CreditAccount(f.StoreID, f.CustomerID).Balance.IsZero())
	assert.Equal(t, 10, f.Mem.Stock(f.StoreID, f.Widget).Quantity)
}

func TestSinTurnoAbierto(t *testing.T) {
	f := apptest.New(t)
	ctx := context.Background()
	d := f.SubmittedSale(t, false, apptest.Line{ProductID: f.Service, Qty: 1})
	in := payment.Input{SaleID: d.Sale.ID, Lines: []payment.Line{{Method: "cash", Amount: dec(5000)}}}

	_, err := f.Payments.ProcessPayment(ctx, f.Cashier, in)
	assert.ErrorIs(t, err, domain.ErrNoOpenShift)

	sh := f.OpenShift(t)
	_, err = f.Shifts.Close(ctx, f.Cashier, sh.ID, decimal.Zero)
	require.NoError(t, err)
	in.ShiftID = sh.ID
	_, err = f.Payments.ProcessPayment(ctx, f.Cashier, in)
	assert.ErrorIs(t, err, domain.ErrNoOpenShift, "turno cerrado")

	other := f.OpenShift(t)
	in.ShiftID = other.ID
	_, err = f.Payments.ProcessPayment(ctx, f.Manager, in)
	assert.ErrorIs(t, err, domain.ErrNoOpenShift, "el turno es de otro cajero")
	assert.Empty(t, f.Mem.Payments())
}

func TestVentaNoCobrable(t *testing.T) {
	f := apptest.New(t)
	ctx := context.Background()
	sh := f.OpenShift(t)
	draft := f.DraftSale(t, false, apptest.Line{ProductID: f.Service, Qty: 1})

	_, err := f.Payments.ProcessPayment(ctx, f.Cashier, payment.Input{
		SaleID: draft.Sale.ID, ShiftID: sh.ID, Lines: []payment.Line{{Method: "cash", Amount: dec(5000)}},
	})
	assert.ErrorIs(t, err, domain.ErrSaleNotPayable)

	paid := f.SubmittedSale(t, false, apptest.Line{ProductID: f.Service, Qty: 1})
	f.Pay(t, paid.Sale.ID, sh.ID, "cash", 5000)
	_, err = f.Payments.ProcessPayment(ctx, f.Cashier, payment.Input{
		SaleID: paid.Sale.ID, ShiftID: sh.ID, Lines: []payment.Line{{Method: "cash", Amount: dec(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrSaleNotPayable)
}

func TestLineasInvalidas(t *testing.T) {
	f := apptest.New(t)
	ctx := context.Background()
	sh := f.OpenShift(t)
	d := f.SubmittedSale(t, false, apptest.Line{ProductID: f.Service, Qty: 1})

	_, err := f.Payments.ProcessPayment(ctx, f.Cashier, payment.Input{SaleID: d.Sale.ID, ShiftID: sh.ID})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.Payments.ProcessPayment(ctx, f.Cashier, payment.Input{
		SaleID: d.Sale.ID, ShiftID: sh.ID, Lines: []payment.Line{{Method: "bitcoin", Amount: dec(5000)}},
	})
	assert.ErrorIs(t, err, domain.ErrUnknownPaymentMethod)

	_, err = f.Payments.ProcessPayment(ctx, f.Cashier, payment.Input{
		SaleID: d.Sale.ID, ShiftID: sh.ID, Lines: []payment.Line{{Method: "cash", Amount: dec(-5)}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestStockInsuficienteAlCobrarRevierteTodo(t *testing.T) {
	f := apptest.New(t)
	sh := f.OpenShift(t)
	d := f.SubmittedSale(t, false, apptest.Line{ProductID: f.Widget, Qty: 3})

	// Otra operación consume el stock entre la emisión y el cobro.
	f.Mem.PutStock(entity.ProductStock{StoreID: f.StoreID, ProductID: f.Widget, Quantity: 2})

	_, err := f.Payments.ProcessPayment(context.Background(), f.Cashier, payment.Input{
		SaleID: d.Sale.ID, ShiftID: sh.ID, Lines: []payment.Line{{Method: "cash", Amount: dec(75000)}},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Empty(t, f.Mem.Payments())
	assert.True(t, f.Mem.Shift(sh.ID).CashTotal.IsZero())

	got, err := f.Sales.Get(context.Background(), f.Seller, d.Sale.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusPendingPayment, got.Sale.Status)
}

func TestFalloDeAuditoriaNoRevierteElPago(t *testing.T) {
	f := apptest.New(t)
	sh := f.OpenShift(t)
	d := f.SubmittedSale(t, false, apptest.Line{ProductID: f.Service, Qty: 1})

	f.Mem.AuditErr = errors.New("bitácora no disponible")
	res := f.Pay(t, d.Sale.ID, sh.ID, "cash", 5000)
	assert.Equal(t, entity.SaleStatusPaid, res.Sale.Status)
	assert.Len(t, f.Mem.Payments(), 1)
}
