package sales_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jhoicas/ventas-api/internal/application/apptest"
	"github.com/jhoicas/ventas-api/internal/application/audit"
	"github.com/jhoicas/ventas-api/internal/application/sales"
	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// assertTotals verifica las igualdades de la cabecera.
func assertTotals(t *testing.T, s *entity.Sale) {
	t.Helper()
	assert.True(t, s.Total.Equal(decimal.Max(s.Subtotal.Sub(s.DiscountAmount).Add(s.TaxAmount), decimal.Zero)),
		"total %s", s.Total)
	assert.True(t, s.AmountDue.Equal(decimal.Max(s.Total.Sub(s.AmountPaid), decimal.Zero)),
		"saldo %s", s.AmountDue)
}

// ──────────────────────────────────────────────────────────────────────────────
// Borrador
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_EnBorrador(t *testing.T) {
	f := apptest.New(t)
	sale, err := f.Sales.Create(context.Background(), f.Seller, sales.CreateInput{})
	require.NoError(t, err)

	assert.Equal(t, entity.SaleStatusDraft, sale.Status)
	assert.Equal(t, f.StoreID, sale.StoreID)
	assert.Equal(t, f.Seller.UserID, sale.SellerID)
	assert.Nil(t, sale.InvoiceNumber)
	assert.Nil(t, sale.CustomerID)
}

func TestCreate_ClienteDeOtroTenant(t *testing.T) {
	f := apptest.New(t)
	other := "cliente-inexistente"
	_, err := f.Sales.Create(context.Background(), f.Seller, sales.CreateInput{CustomerID: &other})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddItem_FusionaLineaDelMismoProducto(t *testing.T) {
	f := apptest.New(t)
	ctx := context.Background()
	d := f.DraftSale(t, false, apptest.Line{ProductID: f.Widget, Qty: 2})

	d, err := f.Sales.AddItem(ctx, f.Seller, d.Sale.ID, sales.AddItemInput{ProductID: f.Widget, Quantity: 3, Discount: dec(1000)})
	require.NoError(t, err)

	require.Len(t, d.Items, 1)
	it := d.Items[0]
	assert.Equal(t, 5, it.Quantity)
	assert.True(t, dec(25000).Equal(it.UnitPrice), "conserva el precio original")
	assert.True(t, dec(124000).Equal(it.LineTotal), "5 × 25.000 − 1.000")
	assert.True(t, dec(124000).Equal(d.Sale.Total))
	assertTotals(t, d.Sale)
}

func TestAddItem_VerificaCantidadResultante(t *testing.T) {
	f := apptest.New(t)
	d := f.DraftSale(t, false, apptest.Line{ProductID: f.Widget, Qty: 8})

	// 8 + 3 supera las 10 en stock aunque el incremento solo no lo haga.
	_, err := f.Sales.AddItem(context.Background(), f.Seller, d.Sale.ID, sales.AddItemInput{ProductID: f.Widget, Quantity: 3})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	got, err := f.Sales.Get(context.Background(), f.Seller, d.Sale.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 8, got.Items[0].Quantity, "la línea no cambia si falla la verificación")
}

func TestAddItem_Validaciones(t *testing.T) {
	f := apptest.New(t)
	ctx := context.Background()
	d := f.DraftSale(t, false)

	_, err := f.Sales.AddItem(ctx, f.Seller, d.Sale.ID, sales.AddItemInput{ProductID: f.Widget, Quantity: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.Sales.AddItem(ctx, f.Seller, d.Sale.ID, sales.AddItemInput{ProductID: "no-existe", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	p := f.Mem.Product(f.Gadget)
	p.Active = false
	f.Mem.PutProduct(p)
	_, err = f.Sales.AddItem(ctx, f.Seller, d.Sale.ID, sales.AddItemInput{ProductID: f.Gadget, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInactiveProduct)
}

func TestAddItem_ProductoSinInventarioNoConsultaStock(t *testing.T) {
	f := apptest.New(t)
	d := f.DraftSale(t, false, apptest.Line{ProductID: f.Service, Qty: 40})
	require.Len(t, d.Items, 1)
	assert.True(t, dec(200000).Equal(d.Sale.Total))
}

func TestAddItem_PrecioManual(t *testing.T) {
	f := apptest.New(t)
	d := f.DraftSale(t, false)
	price := dec(20000)
	d, err := f.Sales.AddItem(context.Background(), f.Seller, d.Sale.ID, sales.AddItemInput{ProductID: f.Widget, Quantity: 1, UnitPrice: &price})
	require.NoError(t, err)
	assert.True(t, price.Equal(d.Items[0].UnitPrice))
	assert.True(t, dec(15000).Equal(d.Items[0].CostPrice), "el costo se congela del catálogo")
}

func TestUpdateItemQuantityYRemoveItem(t *testing.T) {
	f := apptest.New(t)
	ctx := context.Background()
	d := f.DraftSale(t, false, apptest.Line{ProductID: f.Widget, Qty: 1}, apptest.Line{ProductID: f.Gadget, Qty: 1})
	var widgetItem, gadgetItem string
	for _, it := range d.Items {
		if it.ProductID == f.Widget {
			widgetItem = it.ID
		} else {
			gadgetItem = it.ID
		}
	}

	d, err := f.Sales.UpdateItemQuantity(ctx, f.Seller, d.Sale.ID, widgetItem, 4)
	require.NoError(t, err)
	assert.True(t, dec(101000).Equal(d.Sale.Total))

	_, err = f.Sales.UpdateItemQuantity(ctx, f.Seller, d.Sale.ID, widgetItem, 11)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	d, err = f.Sales.RemoveItem(ctx, f.Seller, d.Sale.ID, gadgetItem)
	require.NoError(t, err)
	require.Len(t, d.Items, 1)
	assert.True(t, dec(100000).Equal(d.Sale.Total))
	assertTotals(t, d.Sale)

	_, err = f.Sales.RemoveItem(ctx, f.Seller, d.Sale.ID, gadgetItem)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetDiscount(t *testing.T) {
	f := apptest.New(t)
	ctx := context.Background()
	d := f.DraftSale(t, false, apptest.Line{ProductID: f.Widget, Qty: 2})

	d, err := f.Sales.SetDiscount(ctx, f.Seller, d.Sale.ID, decimal.Zero, dec(10))
	require.NoError(t, err)
	assert.True(t, dec(5000).Equal(d.Sale.DiscountAmount))
	assert.True(t, dec(45000).Equal(d.Sale.Total))

	// El porcentual se recalcula al cambiar el subtotal.
	d, err = f.Sales.AddItem(ctx, f.Seller, d.Sale.ID, sales.AddItemInput{ProductID: f.Widget, Quantity: 2})
	require.NoError(t, err)
	assert.True(t, dec(10000).Equal(d.Sale.DiscountAmount))

	// Un monto fijo mayor al subtotal se acota.
	d, err = f.Sales.SetDiscount(ctx, f.Seller, d.Sale.ID, dec(999999), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, dec(100000).Equal(d.Sale.DiscountAmount))
	assert.True(t, d.Sale.Total.IsZero())
	assertTotals(t, d.Sale)

	_, err = f.Sales.SetDiscount(ctx, f.Seller, d.Sale.ID, decimal.Zero, dec(101))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestTotalesConImpuesto(t *testing.T) {
	f := apptest.New(t, apptest.Options{TaxRate: dec(19)})
	d := f.DraftSale(t, false, apptest.Line{ProductID: f.Gadget, Qty: 2})
	d, err := f.Sales.SetDiscount(context.Background(), f.Seller, d.Sale.ID, dec(200), decimal.Zero)
	require.NoError(t, err)

	assert.True(t, dec(2000).Equal(d.Sale.Subtotal))
	assert.True(t, dec(342).Equal(d.Sale.TaxAmount), "19% sobre 1.800")
	assert.True(t, dec(2142).Equal(d.Sale.Total))
	assertTotals(t, d.Sale)
}

// ──────────────────────────────────────────────────────────────────────────────
// Emisión
// ──────────────────────────────────────────────────────────────────────────────

func TestSubmit_AsignaNumeroYPasaAPendiente(t *testing.T) {
	f := apptest.New(t)
	d := f.SubmittedSale(t, false, apptest.Line{ProductID: f.Widget, Qty: 2})

	assert.Equal(t, entity.SaleStatusPendingPayment, d.Sale.Status)
	require.NotNil(t, d.Sale.InvoiceNumber)
	assert.Equal(t, fmt.Sprintf("FAC-BQC-%d-000001", time.Now().Year()), *d.Sale.InvoiceNumber)
	assert.NotNil(t, d.Sale.SubmittedAt)
	assert.True(t, dec(50000).Equal(d.Sale.AmountDue))
	assert.Equal(t, 10, f.Mem.Stock(f.StoreID, f.Widget).Quantity, "emitir sin reserva no toca el stock")

	entries := f.Mem.AuditEntries()
	require.NotEmpty(t, entries)
	assert.Equal(t, audit.ActionSaleSubmitted, entries[len(entries)-1].Action)
}

func TestSubmit_Rechazos(t *testing.T) {
	f := apptest.New(t)
	ctx := context.Background()

	empty := f.DraftSale(t, false)
	_, err := f.Sales.Submit(ctx, f.Seller, empty.Sale.ID)
	assert.ErrorIs(t, err, domain.ErrNotSubmittable)

	noCustomer, err := f.Sales.Create(ctx, f.Seller, sales.CreateInput{})
	require.NoError(t, err)
	_, err = f.Sales.AddItem(ctx, f.Seller, noCustomer.ID, sales.AddItemInput{ProductID: f.Widget, Quantity: 1})
	require.NoError(t, err)
	_, err = f.Sales.Submit(ctx, f.Seller, noCustomer.ID)
	assert.ErrorIs(t, err, domain.ErrMissingCustomer)

	free := f.DraftSale(t, false, apptest.Line{ProductID: f.Gadget, Qty: 1})
	_, err = f.Sales.SetDiscount(ctx, f.Seller, free.Sale.ID, dec(1000), decimal.Zero)
	require.NoError(t, err)
	_, err = f.Sales.Submit(ctx, f.Seller, free.Sale.ID)
	assert.ErrorIs(t, err, domain.ErrNotSubmittable, "total cero no se emite")

	// Ningún rechazo consume número.
	ok := f.SubmittedSale(t, false, apptest.Line{ProductID: f.Gadget, Qty: 1})
	assert.Equal(t, fmt.Sprintf("FAC-BQC-%d-000001", time.Now().Year()), *ok.Sale.InvoiceNumber)
}

func TestSubmit_ConReservaRetieneStock(t *testing.T) {
	f := apptest.New(t)
	d := f.SubmittedSale(t, true, apptest.Line{ProductID: f.Widget, Qty: 3}, apptest.Line{ProductID: f.Service, Qty: 1})

	st := f.Mem.Stock(f.StoreID, f.Widget)
	assert.Equal(t, 10, st.Quantity)
	assert.Equal(t, 3, st.ReservedQty)
	assert.Equal(t, 3, f.Mem.Reservation(d.Sale.ID, f.Widget).ReservedQty)
}

func TestEdicionDespuesDeEmitir(t *testing.T) {
	f := apptest.New(t)
	ctx := context.Background()
	d := f.SubmittedSale(t, false, apptest.Line{ProductID: f.Widget, Qty: 1})

	_, err := f.Sales.AddItem(ctx, f.Seller, d.Sale.ID, sales.AddItemInput{ProductID: f.Gadget, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = f.Sales.UpdateItemQuantity(ctx, f.Seller, d.Sale.ID, d.Items[0].ID, 2)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = f.Sales.RemoveItem(ctx, f.Seller, d.Sale.ID, d.Items[0].ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = f.Sales.SetDiscount(ctx, f.Seller, d.Sale.ID, dec(1), decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = f.Sales.Submit(ctx, f.Seller, d.Sale.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

// ──────────────────────────────────────────────────────────────────────────────
// Anulación y aislamiento
// ──────────────────────────────────────────────────────────────────────────────

func TestCancel_LiberaReservas(t *testing.T) {
	f := apptest.New(t)
	ctx := context.Background()
	d := f.SubmittedSale(t, true, apptest.Line{ProductID: f.Widget, Qty: 4})

	_, err := f.Sales.Cancel(ctx, f.Seller, d.Sale.ID, "")
	assert.ErrorIs(t, err, domain.ErrMissingReason)
	_, err = f.Sales.Cancel(ctx, f.Seller, d.Sale.ID, "   \t")
	assert.ErrorIs(t, err, domain.ErrMissingReason, "un motivo en blanco no cuenta")

	sale, err := f.Sales.Cancel(ctx, f.Seller, d.Sale.ID, "cliente desistió")
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusCancelled, sale.Status)
	assert.Equal(t, "cliente desistió", sale.CancelReason)
	require.NotNil(t, sale.CancelledBy)
	assert.Equal(t, f.Seller.UserID, *sale.CancelledBy)
	assert.NotNil(t, sale.CancelledAt)

	st := f.Mem.Stock(f.StoreID, f.Widget)
	assert.Equal(t, 0, st.ReservedQty)
	assert.Equal(t, 10, st.Quantity)
	assert.Empty(t, f.Mem.Movements())

	_, err = f.Sales.Cancel(ctx, f.Seller, d.Sale.ID, "otra vez")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestVentaDeOtraTiendaNoExiste(t *testing.T) {
	f := apptest.New(t)
	ctx := context.Background()
	d := f.DraftSale(t, false, apptest.Line{ProductID: f.Widget, Qty: 1})

	intruder := f.Seller
	intruder.StoreID = "otra-tienda"
	_, err := f.Sales.Get(ctx, intruder, d.Sale.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.Sales.AddItem(ctx, intruder, d.Sale.ID, sales.AddItemInput{ProductID: f.Widget, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.Sales.Cancel(ctx, intruder, d.Sale.ID, "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
