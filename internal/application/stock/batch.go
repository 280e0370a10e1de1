package stock

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/jhoicas/ventas-api/internal/application/audit"
	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
	"github.com/jhoicas/ventas-api/pkg/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// AdjustLine una línea de ajuste en lote. Type vacío equivale a ADJUST.
type AdjustLine struct {
	ProductID string
	Delta     int
	Type      entity.MovementType
	UnitCost  *decimal.Decimal // solo PURCHASE
}

// BatchResult resultado de AdjustBatch.
type BatchResult struct {
	BatchID string
	Stocks  []*entity.ProductStock
}

// AdjustBatch aplica varios ajustes con signo en una sola transacción. Las filas se
// bloquean en orden ascendente de producto y todas las líneas comparten batch_id.
// Si una línea falla no se aplica ninguna.
func (l *Ledger) AdjustBatch(ctx context.Context, storeID string, lines []AdjustLine, reason, actorID string) (out *BatchResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "stock", "adjust_batch",
		attribute.String("store_id", storeID), attribute.Int("lines", len(lines)))
	defer func() { telemetry.End(span, err) }()

	if storeID == "" || len(lines) == 0 {
		return nil, domain.ErrValidation
	}
	if reason == "" {
		return nil, domain.ErrMissingReason
	}
	sorted := make([]AdjustLine, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })
	for i := range sorted {
		if sorted[i].ProductID == "" || sorted[i].Delta == 0 {
			return nil, domain.ErrInvalidQuantity
		}
		if sorted[i].Type == "" {
			sorted[i].Type = entity.MovementAdjust
		}
	}

	out = &BatchResult{BatchID: uuid.New().String()}
	err = l.runner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		out.Stocks = out.Stocks[:0]
		for _, line := range sorted {
			st, err := l.apply(ctx, repos, Movement{
				StoreID:   storeID,
				ProductID: line.ProductID,
				Quantity:  abs(line.Delta),
				Type:      line.Type,
				UnitCost:  line.UnitCost,
				Reason:    reason,
				ActorID:   actorID,
				Reference: out.BatchID,
				BatchID:   out.BatchID,
			}, line.Delta)
			if err != nil {
				return err
			}
			out.Stocks = append(out.Stocks, st)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.log.Info().Str("store_id", storeID).Str("batch_id", out.BatchID).Int("lines", len(sorted)).Msg("ajuste de inventario aplicado")
	l.audit.Record(ctx, audit.Event{
		ActorID: actorID, StoreID: storeID, Action: audit.ActionStockAdjusted,
		EntityType: "stock_batch", EntityID: out.BatchID, Before: sorted, After: out.Stocks,
	})
	return out, nil
}

// LowStock filas con disponible por debajo del mínimo, ordenadas por producto.
func (l *Ledger) LowStock(ctx context.Context, storeID string) (list []*entity.ProductStock, err error) {
	ctx, span := telemetry.StartSpan(ctx, "stock", "low_stock", attribute.String("store_id", storeID))
	defer func() { telemetry.End(span, err) }()

	err = l.runner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		list, err = repos.Stock.ListBelowMin(ctx, storeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ProductID < list[j].ProductID })
	return list, nil
}

// SetMinQty fija el mínimo de reposición; crea la fila en cero si no existe.
func (l *Ledger) SetMinQty(ctx context.Context, storeID, productID string, minQty int) (st *entity.ProductStock, err error) {
	ctx, span := telemetry.StartSpan(ctx, "stock", "set_min_qty",
		attribute.String("store_id", storeID), attribute.String("product_id", productID))
	defer func() { telemetry.End(span, err) }()

	if minQty < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	err = l.runner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		p, err := repos.Products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrNotFound
		}
		st, err = repos.Stock.GetForUpdate(ctx, storeID, productID)
		if err != nil {
			return err
		}
		now := l.now()
		if st == nil {
			st = &entity.ProductStock{StoreID: storeID, ProductID: productID, MinQty: minQty, UpdatedAt: now}
			return createRow(ctx, repos, st)
		}
		st.MinQty = minQty
		st.UpdatedAt = now
		return repos.Stock.Update(ctx, st)
	})
	return st, err
}

// Get existencias actuales; ErrNotFound si no hay fila.
func (l *Ledger) Get(ctx context.Context, storeID, productID string) (st *entity.ProductStock, err error) {
	err = l.runner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		st, err = repos.Stock.Get(ctx, storeID, productID)
		if err == nil && st == nil {
			err = domain.ErrNotFound
		}
		return err
	})
	return st, err
}

// Movements movimientos de un documento (venta, devolución o lote) en orden cronológico.
func (l *Ledger) Movements(ctx context.Context, storeID, reference string) (list []*entity.InventoryMovement, err error) {
	if reference == "" {
		return nil, domain.ErrValidation
	}
	err = l.runner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		list, err = repos.Movements.ListByReference(ctx, storeID, reference)
		return err
	})
	return list, err
}
