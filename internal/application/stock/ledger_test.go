package stock_test

import (
	"context"
	"sync"
	"testing"

	"github.com/jhoicas/ventas-api/internal/application/apptest"
	"github.com/jhoicas/ventas-api/internal/application/audit"
	"github.com/jhoicas/ventas-api/internal/application/stock"
	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ──────────────────────────────────────────────────────────────────────────────
// Movimientos sueltos
// ──────────────────────────────────────────────────────────────────────────────

func TestRegisterMovement_CompraActualizaCostoPromedio(t *testing.T) {
	f := apptest.New(t)
	cost := decimal.NewFromInt(25000)

	st, err := f.Stock.RegisterMovement(context.Background(), stock.Movement{
		StoreID: f.StoreID, ProductID: f.Widget, Type: entity.MovementPurchase, UnitCost: &cost, Reason: "compra",
	}, 10)
	require.NoError(t, err)
	assert.Equal(t, 20, st.Quantity)

	// (10 × 15.000 + 10 × 25.000) / 20
	var p *entity.Product
	require.NoError(t, f.Runner.Run(context.Background(), func(ctx context.Context, repos repository.Repos) error {
		var err error
		p, err = repos.Products.GetByID(ctx, f.Widget)
		return err
	}))
	assert.True(t, decimal.NewFromInt(20000).Equal(p.CostPrice))

	movs := f.Mem.Movements()
	require.Len(t, movs, 1)
	assert.Equal(t, 10, movs[0].Quantity)
	assert.Equal(t, entity.MovementPurchase, movs[0].Type)
}

func TestRegisterMovement_SignoInvalidoParaElTipo(t *testing.T) {
	f := apptest.New(t)
	ctx := context.Background()

	_, err := f.Stock.RegisterMovement(ctx, stock.Movement{StoreID: f.StoreID, ProductID: f.Widget, Type: entity.MovementDamage}, 2)
	assert.ErrorIs(t, err, domain.ErrValidation, "una merma no puede sumar")

	_, err = f.Stock.RegisterMovement(ctx, stock.Movement{StoreID: f.StoreID, ProductID: f.Widget, Type: entity.MovementPurchase}, -2)
	assert.ErrorIs(t, err, domain.ErrValidation, "una compra no puede restar")

	_, err = f.Stock.RegisterMovement(ctx, stock.Movement{StoreID: f.StoreID, ProductID: f.Widget, Type: entity.MovementAdjust}, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.Empty(t, f.Mem.Movements())
}

func TestRegisterMovement_NuncaDejaStockNegativo(t *testing.T) {
	f := apptest.New(t)
	ctx := context.Background()

	_, err := f.Stock.RegisterMovement(ctx, stock.Movement{StoreID: f.StoreID, ProductID: f.Gadget, Type: entity.MovementDamage, Reason: "rotura"}, -6)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = f.Stock.RegisterMovement(ctx, stock.Movement{StoreID: f.StoreID, ProductID: f.Gadget, Type: entity.MovementAdjust, Reason: "conteo"}, -6)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	st := f.Mem.Stock(f.StoreID, f.Gadget)
	assert.Equal(t, 5, st.Quantity)
	assert.Empty(t, f.Mem.Movements())
}

func TestDecrement_SinFilaDeStock(t *testing.T) {
	f := apptest.New(t)
	err := f.Runner.Run(context.Background(), func(ctx context.Context, repos repository.Repos) error {
		_, err := f.Stock.Decrement(ctx, repos, stock.Movement{StoreID: f.StoreID, ProductID: f.Service, Quantity: 1, Type: entity.MovementSale})
		return err
	})
	assert.ErrorIs(t, err, domain.ErrStockNotInitialized)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestDecrementosConcurrentesNoSobrevenden(t *testing.T) {
	f := apptest.New(t)
	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.Stock.RegisterMovement(context.Background(), stock.Movement{
				StoreID: f.StoreID, ProductID: f.Widget, Type: entity.MovementDamage, Reason: "merma",
			}, -1)
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	st := f.Mem.Stock(f.StoreID, f.Widget)
	assert.Equal(t, 0, st.Quantity)
}

// ──────────────────────────────────────────────────────────────────────────────
// Reservas
// ──────────────────────────────────────────────────────────────────────────────

func TestReservas_IndependientesPorVenta(t *testing.T) {
	f := apptest.New(t)
	ctx := context.Background()
	run := func(fn func(ctx context.Context, repos repository.Repos) error) error {
		return f.Runner.Run(ctx, fn)
	}

	require.NoError(t, run(func(ctx context.Context, repos repository.Repos) error {
		if err := f.Stock.Reserve(ctx, repos, f.StoreID, f.Widget, 4, "sale-a"); err != nil {
			return err
		}
		return f.Stock.Reserve(ctx, repos, f.StoreID, f.Widget, 5, "sale-b")
	}))
	st := f.Mem.Stock(f.StoreID, f.Widget)
	assert.Equal(t, 9, st.ReservedQty)
	assert.Equal(t, 1, st.Available())

	// Una tercera venta no puede tomar lo reservado por otras.
	err := run(func(ctx context.Context, repos repository.Repos) error {
		return f.Stock.Reserve(ctx, repos, f.StoreID, f.Widget, 2, "sale-c")
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	// Liberar de más en A no toca la reserva de B.
	var released int
	require.NoError(t, run(func(ctx context.Context, repos repository.Repos) error {
		var err error
		released, err = f.Stock.Release(ctx, repos, f.StoreID, f.Widget, 10, "sale-a")
		return err
	}))
	assert.Equal(t, 4, released)
	assert.Equal(t, 5, f.Mem.Reservation("sale-b", f.Widget).ReservedQty)
	assert.Equal(t, 5, f.Mem.Stock(f.StoreID, f.Widget).ReservedQty)
	assert.Equal(t, 10, f.Mem.Stock(f.StoreID, f.Widget).Quantity)
}

func TestFulfill_MueveReservaAStockDescontado(t *testing.T) {
	f := apptest.New(t)
	ctx := context.Background()

	require.NoError(t, f.Runner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		if err := f.Stock.Reserve(ctx, repos, f.StoreID, f.Widget, 4, "sale-a"); err != nil {
			return err
		}
		if err := f.Stock.Fulfill(ctx, repos, "sale-a", f.StoreID, f.Widget, 1, "cajero"); err != nil {
			return err
		}
		// Objetivo repetido: no descuenta de nuevo.
		return f.Stock.Fulfill(ctx, repos, "sale-a", f.StoreID, f.Widget, 1, "cajero")
	}))
	st := f.Mem.Stock(f.StoreID, f.Widget)
	assert.Equal(t, 9, st.Quantity)
	assert.Equal(t, 3, st.ReservedQty)
	assert.Equal(t, 6, st.Available(), "cumplir parte de una reserva no cambia el disponible")

	res := f.Mem.Reservation("sale-a", f.Widget)
	assert.Equal(t, 1, res.FulfilledQty)
	assert.Equal(t, 3, res.ReservedQty)
	assert.Len(t, f.Mem.Movements(), 1)
}

// ──────────────────────────────────────────────────────────────────────────────
// Ajustes en lote
// ──────────────────────────────────────────────────────────────────────────────

func TestAdjustBatch_TodoONada(t *testing.T) {
	f := apptest.New(t)
	_, err := f.Stock.AdjustBatch(context.Background(), f.StoreID, []stock.AdjustLine{
		{ProductID: f.Widget, Delta: 3},
		{ProductID: f.Gadget, Delta: -9},
	}, "conteo físico", f.Manager.UserID)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, 10, f.Mem.Stock(f.StoreID, f.Widget).Quantity, "la línea válida se revierte")
	assert.Empty(t, f.Mem.Movements())
}

func TestAdjustBatch_LoteCompartidoYAuditoria(t *testing.T) {
	f := apptest.New(t)
	res, err := f.Stock.AdjustBatch(context.Background(), f.StoreID, []stock.AdjustLine{
		{ProductID: f.Gadget, Delta: -2, Type: entity.MovementDamage},
		{ProductID: f.Widget, Delta: 3},
	}, "conteo físico", f.Manager.UserID)
	require.NoError(t, err)
	require.Len(t, res.Stocks, 2)

	movs := f.Mem.Movements()
	require.Len(t, movs, 2)
	for _, m := range movs {
		assert.Equal(t, res.BatchID, m.BatchID)
		assert.Equal(t, "conteo físico", m.Reason)
	}
	assert.Equal(t, 13, f.Mem.Stock(f.StoreID, f.Widget).Quantity)
	assert.Equal(t, 3, f.Mem.Stock(f.StoreID, f.Gadget).Quantity)

	entries := f.Mem.AuditEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionStockAdjusted, entries[0].Action)
}

func TestAdjustBatch_MotivoObligatorio(t *testing.T) {
	f := apptest.New(t)
	_, err := f.Stock.AdjustBatch(context.Background(), f.StoreID, []stock.AdjustLine{{ProductID: f.Widget, Delta: 1}}, "", f.Manager.UserID)
	assert.ErrorIs(t, err, domain.ErrMissingReason)
}

func TestLowStockYMinimo(t *testing.T) {
	f := apptest.New(t)
	ctx := context.Background()

	low, err := f.Stock.LowStock(ctx, f.StoreID)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, f.Gadget, low[0].ProductID)

	_, err = f.Stock.SetMinQty(ctx, f.StoreID, f.Widget, 12)
	require.NoError(t, err)
	low, err = f.Stock.LowStock(ctx, f.StoreID)
	require.NoError(t, err)
	assert.Len(t, low, 2)

	_, err = f.Stock.SetMinQty(ctx, f.StoreID, f.Widget, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}
