// Package apptest arma los casos de uso sobre el almacén en memoria con una tienda,
// productos y actores sembrados, para las pruebas de aplicación y de HTTP.
package apptest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/ventas-api/internal/application/audit"
	"github.com/jhoicas/ventas-api/internal/application/payment"
	"github.com/jhoicas/ventas-api/internal/application/refund"
	"github.com/jhoicas/ventas-api/internal/application/sales"
	"github.com/jhoicas/ventas-api/internal/application/sequence"
	"github.com/jhoicas/ventas-api/internal/application/shift"
	"github.com/jhoicas/ventas-api/internal/application/stock"
	"github.com/jhoicas/ventas-api/internal/application/uow"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/infrastructure/memory"
	"github.com/jhoicas/ventas-api/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Options ajustes del fixture.
type Options struct {
	Policy  refund.Policy
	Log     *logger.Logger
	TaxRate decimal.Decimal // 0 = sin impuesto
}

// Fixture casos de uso cableados sobre memory.Store.
type Fixture struct {
	Mem      *memory.Store
	Runner   *uow.Runner
	Audit    *audit.Recorder
	Stock    *stock.Ledger
	Seq      *sequence.Generator
	Shifts   *shift.Ledger
	Sales    *sales.Service
	Payments *payment.Allocator
	Refunds  *refund.Processor

	TenantID   string
	StoreID    string
	CustomerID string

	// Productos: Widget (25.000, stock 10), Gadget (1.000, stock 5, bajo mínimo), Service (5.000, sin inventario).
	Widget  string
	Gadget  string
	Service string

	Seller  entity.Actor
	Cashier entity.Actor
	Manager entity.Actor
}

// New siembra la tienda BQC con sus productos y un cliente con cuenta de crédito de 100.000.
func New(t testing.TB, opts ...Options) *Fixture {
	t.Helper()
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	log := o.Log
	if log == nil {
		log = logger.Nop()
	}

	mem := memory.New()
	runner := uow.NewRunner(mem, uow.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}, log)
	rec := audit.NewRecorder(mem.AuditRepository(), log)
	ledger := stock.NewLedger(runner, rec, log)
	seq := sequence.NewGenerator(runner)
	shifts := shift.NewLedger(runner, rec, log)

	f := &Fixture{
		Mem:        mem,
		Runner:     runner,
		Audit:      rec,
		Stock:      ledger,
		Seq:        seq,
		Shifts:     shifts,
		Sales:      sales.NewService(runner, ledger, seq, rec, log),
		Payments:   payment.NewAllocator(runner, ledger, shifts, rec, log),
		Refunds:    refund.NewProcessor(runner, ledger, shifts, seq, rec, o.Policy, log),
		TenantID:   uuid.New().String(),
		StoreID:    uuid.New().String(),
		CustomerID: uuid.New().String(),
		Widget:     uuid.New().String(),
		Gadget:     uuid.New().String(),
		Service:    uuid.New().String(),
	}
	f.Seller = f.actor(entity.RoleSeller)
	f.Cashier = f.actor(entity.RoleCashier)
	f.Manager = f.actor(entity.RoleManager)

	now := time.Now()
	mem.PutStore(entity.Store{
		ID: f.StoreID, TenantID: f.TenantID, Code: "BQC", Name: "Tienda Centro",
		TaxEnabled: o.TaxRate.IsPositive(), TaxRate: o.TaxRate, CreatedAt: now, UpdatedAt: now,
	})
	f.putProduct(f.Widget, "WID-1", decimal.NewFromInt(25000), decimal.NewFromInt(15000), true)
	f.putProduct(f.Gadget, "GAD-1", decimal.NewFromInt(1000), decimal.NewFromInt(600), true)
	f.putProduct(f.Service, "SRV-1", decimal.NewFromInt(5000), decimal.Zero, false)
	mem.PutStock(entity.ProductStock{StoreID: f.StoreID, ProductID: f.Widget, Quantity: 10, MinQty: 2, UpdatedAt: now})
	mem.PutStock(entity.ProductStock{StoreID: f.StoreID, ProductID: f.Gadget, Quantity: 5, MinQty: 6, UpdatedAt: now})
	mem.PutCustomer(entity.Customer{ID: f.CustomerID, TenantID: f.TenantID, Name: "Cliente Frecuente", CreatedAt: now, UpdatedAt: now})
	mem.PutCreditAccount(entity.CreditAccount{
		ID: uuid.New().String(), StoreID: f.StoreID, CustomerID: f.CustomerID,
		CreditLimit: decimal.NewFromInt(100000), UpdatedAt: now,
	})
	return f
}

func (f *Fixture) actor(role string) entity.Actor {
	return entity.Actor{UserID: uuid.New().String(), StoreID: f.StoreID, TenantID: f.TenantID, Role: role}
}

func (f *Fixture) putProduct(id, sku string, price, cost decimal.Decimal, track bool) {
	now := time.Now()
	f.Mem.PutProduct(entity.Product{
		ID: id, TenantID: f.TenantID, SKU: sku, Name: sku, Active: true, TrackStock: track,
		SellingPrice: price, CostPrice: cost, CreatedAt: now, UpdatedAt: now,
	})
}

// Line producto y cantidad para armar una venta.
type Line struct {
	ProductID string
	Qty       int
}

// DraftSale crea una venta con cliente y las líneas dadas.
func (f *Fixture) DraftSale(t testing.TB, reserve bool, lines ...Line) *sales.Detail {
	t.Helper()
	ctx := context.Background()
	customer := f.CustomerID
	sale, err := f.Sales.Create(ctx, f.Seller, sales.CreateInput{CustomerID: &customer, ReserveStock: reserve})
	require.NoError(t, err)
	d := &sales.Detail{Sale: sale}
	for _, l := range lines {
		d, err = f.Sales.AddItem(ctx, f.Seller, sale.ID, sales.AddItemInput{ProductID: l.ProductID, Quantity: l.Qty})
		require.NoError(t, err)
	}
	return d
}

// SubmittedSale crea y emite una venta.
func (f *Fixture) SubmittedSale(t testing.TB, reserve bool, lines ...Line) *sales.Detail {
	t.Helper()
	d := f.DraftSale(t, reserve, lines...)
	out, err := f.Sales.Submit(context.Background(), f.Seller, d.Sale.ID)
	require.NoError(t, err)
	return out
}

// OpenShift abre un turno del cajero con fondo cero.
func (f *Fixture) OpenShift(t testing.TB) *entity.CashShift {
	t.Helper()
	sh, err := f.Shifts.Open(context.Background(), f.Cashier, decimal.Zero)
	require.NoError(t, err)
	return sh
}

// Pay cobra amount con el método dado en el turno indicado.
func (f *Fixture) Pay(t testing.TB, saleID, shiftID, method string, amount int64) *payment.Result {
	t.Helper()
	res, err := f.Payments.ProcessPayment(context.Background(), f.Cashier, payment.Input{
		SaleID:  saleID,
		ShiftID: shiftID,
		Lines:   []payment.Line{{Method: method, Amount: decimal.NewFromInt(amount)}},
	})
	require.NoError(t, err)
	return res
}
