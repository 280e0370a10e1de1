// Package stock implementa el libro de existencias por tienda: verificación de
// disponible, descuentos, entradas, reservas por venta y ajustes en lote.
//
// Los métodos que reciben repository.Repos se ejecutan dentro de la transacción del
// caller (ventas, pagos, devoluciones); el resto abre su propia unidad de trabajo.
package stock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/ventas-api/internal/application/audit"
	"github.com/jhoicas/ventas-api/internal/application/uow"
	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/inventory"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
	"github.com/jhoicas/ventas-api/pkg/logger"
	"github.com/jhoicas/ventas-api/pkg/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// Ledger motor de inventario. Toda escritura bloquea la fila (store, product) con
// SELECT FOR UPDATE antes de leerla.
type Ledger struct {
	runner *uow.Runner
	audit  *audit.Recorder
	log    *logger.Logger
	now    func() time.Time
}

// NewLedger construye el libro de existencias. rec registra los ajustes en lote.
func NewLedger(runner *uow.Runner, rec *audit.Recorder, log *logger.Logger) *Ledger {
	return &Ledger{runner: runner, audit: rec, log: log, now: time.Now}
}

// Movement entrada de un movimiento. Quantity siempre positiva; el signo lo da la operación.
type Movement struct {
	StoreID   string
	ProductID string
	Quantity  int
	Type      entity.MovementType
	UnitCost  *decimal.Decimal // solo PURCHASE: recalcula el costo promedio del producto
	Reason    string
	ActorID   string
	Reference string
	BatchID   string
}

func (m Movement) validate() error {
	if m.StoreID == "" || m.ProductID == "" {
		return domain.ErrValidation
	}
	if m.Quantity < 1 {
		return domain.ErrInvalidQuantity
	}
	if !m.Type.Valid() {
		return fmt.Errorf("%w: tipo de movimiento %q", domain.ErrValidation, m.Type)
	}
	if m.UnitCost != nil && m.UnitCost.IsNegative() {
		return domain.ErrInvalidAmount
	}
	return nil
}

// CheckAvailable falla con ErrInsufficientStock si no hay fila o el disponible es menor a qty.
// Lectura sin bloqueo: solo orienta al vendedor, el descuento real vuelve a verificar.
func (l *Ledger) CheckAvailable(ctx context.Context, repos repository.Repos, storeID, productID string, qty int) error {
	st, err := repos.Stock.Get(ctx, storeID, productID)
	if err != nil {
		return err
	}
	if st == nil {
		return domain.ErrStockNotInitialized
	}
	if st.Available() < qty {
		return fmt.Errorf("%w: producto %s disponible %d, solicitado %d", domain.ErrInsufficientStock, productID, st.Available(), qty)
	}
	return nil
}

// Decrement descuenta m.Quantity del stock y registra un movimiento negativo.
// El disponible (en mano menos reservado) debe cubrir la cantidad, así una venta sin
// reserva nunca consume lo retenido por otra.
func (l *Ledger) Decrement(ctx context.Context, repos repository.Repos, m Movement) (*entity.ProductStock, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	st, err := repos.Stock.GetForUpdate(ctx, m.StoreID, m.ProductID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, domain.ErrStockNotInitialized
	}
	if st.Available() < m.Quantity {
		return nil, fmt.Errorf("%w: producto %s disponible %d, solicitado %d", domain.ErrInsufficientStock, m.ProductID, st.Available(), m.Quantity)
	}
	now := l.now()
	st.Quantity -= m.Quantity
	st.UpdatedAt = now
	if err := repos.Stock.Update(ctx, st); err != nil {
		return nil, err
	}
	cost, err := costOf(ctx, repos, m.ProductID)
	if err != nil {
		return nil, err
	}
	if err := l.record(ctx, repos, m, -m.Quantity, cost, now); err != nil {
		return nil, err
	}
	return st, nil
}

// Increment suma m.Quantity, creando la fila si no existe. Las compras con costo
// actualizan el costo promedio ponderado del producto.
func (l *Ledger) Increment(ctx context.Context, repos repository.Repos, m Movement) (*entity.ProductStock, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	st, err := repos.Stock.GetForUpdate(ctx, m.StoreID, m.ProductID)
	if err != nil {
		return nil, err
	}
	now := l.now()
	created := st == nil
	if created {
		st = &entity.ProductStock{StoreID: m.StoreID, ProductID: m.ProductID}
	}

	product, err := repos.Products.GetByID(ctx, m.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	unitCost := product.CostPrice
	if m.Type == entity.MovementPurchase && m.UnitCost != nil {
		unitCost = *m.UnitCost
		newCost := inventory.CostCalculator(st.Quantity, product.CostPrice, m.Quantity, unitCost)
		if err := repos.Products.UpdateCost(ctx, m.ProductID, newCost); err != nil {
			return nil, err
		}
	}

	st.Quantity += m.Quantity
	st.UpdatedAt = now
	if created {
		err = createRow(ctx, repos, st)
	} else {
		err = repos.Stock.Update(ctx, st)
	}
	if err != nil {
		return nil, err
	}
	if err := l.record(ctx, repos, m, m.Quantity, unitCost, now); err != nil {
		return nil, err
	}
	return st, nil
}

func (l *Ledger) record(ctx context.Context, repos repository.Repos, m Movement, signed int, unitCost decimal.Decimal, now time.Time) error {
	return repos.Movements.Create(ctx, &entity.InventoryMovement{
		ID:        uuid.New().String(),
		StoreID:   m.StoreID,
		ProductID: m.ProductID,
		Type:      m.Type,
		Quantity:  signed,
		UnitCost:  unitCost,
		Reference: m.Reference,
		Reason:    m.Reason,
		ActorID:   m.ActorID,
		BatchID:   m.BatchID,
		CreatedAt: now,
	})
}

// Reserve retiene qty para la venta. Solo cambia reserved_qty y la reserva de esa venta.
func (l *Ledger) Reserve(ctx context.Context, repos repository.Repos, storeID, productID string, qty int, saleID string) error {
	if qty < 1 {
		return domain.ErrInvalidQuantity
	}
	st, err := repos.Stock.GetForUpdate(ctx, storeID, productID)
	if err != nil {
		return err
	}
	if st == nil {
		return domain.ErrStockNotInitialized
	}
	if st.Available() < qty {
		return fmt.Errorf("%w: producto %s disponible %d, a reservar %d", domain.ErrInsufficientStock, productID, st.Available(), qty)
	}
	res, err := repos.Reservations.GetForUpdate(ctx, saleID, productID)
	if err != nil {
		return err
	}
	now := l.now()
	if res == nil {
		res = &entity.StockReservation{SaleID: saleID, StoreID: storeID, ProductID: productID, CreatedAt: now}
	}
	res.ReservedQty += qty
	res.UpdatedAt = now
	st.ReservedQty += qty
	st.UpdatedAt = now
	if err := repos.Stock.Update(ctx, st); err != nil {
		return err
	}
	return repos.Reservations.Upsert(ctx, res)
}

// Release libera hasta qty de la reserva de la venta y devuelve lo liberado.
// Nunca libera más de lo que esa venta tiene retenido.
func (l *Ledger) Release(ctx context.Context, repos repository.Repos, storeID, productID string, qty int, saleID string) (int, error) {
	if qty < 1 {
		return 0, domain.ErrInvalidQuantity
	}
	st, err := repos.Stock.GetForUpdate(ctx, storeID, productID)
	if err != nil {
		return 0, err
	}
	res, err := repos.Reservations.GetForUpdate(ctx, saleID, productID)
	if err != nil {
		return 0, err
	}
	if st == nil || res == nil || res.ReservedQty == 0 {
		return 0, nil
	}
	n := min(qty, res.ReservedQty)
	now := l.now()
	res.ReservedQty -= n
	res.UpdatedAt = now
	st.ReservedQty = max(st.ReservedQty-n, 0)
	st.UpdatedAt = now
	if err := repos.Stock.Update(ctx, st); err != nil {
		return 0, err
	}
	if err := repos.Reservations.Upsert(ctx, res); err != nil {
		return 0, err
	}
	return n, nil
}

// Fulfill lleva la cantidad entregada de la reserva de la venta hasta target:
// libera el delta de la reserva y lo descuenta del stock, así el disponible no cambia.
func (l *Ledger) Fulfill(ctx context.Context, repos repository.Repos, saleID, storeID, productID string, target int, actorID string) error {
	res, err := repos.Reservations.GetForUpdate(ctx, saleID, productID)
	if err != nil {
		return err
	}
	fulfilled := 0
	if res != nil {
		fulfilled = res.FulfilledQty
	}
	delta := target - fulfilled
	if delta <= 0 {
		return nil
	}
	if _, err := l.Release(ctx, repos, storeID, productID, delta, saleID); err != nil {
		return err
	}
	if _, err := l.Decrement(ctx, repos, Movement{
		StoreID:   storeID,
		ProductID: productID,
		Quantity:  delta,
		Type:      entity.MovementSale,
		Reason:    "venta",
		ActorID:   actorID,
		Reference: saleID,
	}); err != nil {
		return err
	}
	res, err = repos.Reservations.GetForUpdate(ctx, saleID, productID)
	if err != nil {
		return err
	}
	if res == nil {
		res = &entity.StockReservation{SaleID: saleID, StoreID: storeID, ProductID: productID, CreatedAt: l.now()}
	}
	res.FulfilledQty = target
	res.UpdatedAt = l.now()
	return repos.Reservations.Upsert(ctx, res)
}

// ReleaseSale libera todo lo retenido por la venta, en orden ascendente de producto.
func (l *Ledger) ReleaseSale(ctx context.Context, repos repository.Repos, saleID string) error {
	list, err := repos.Reservations.ListBySale(ctx, saleID)
	if err != nil {
		return err
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ProductID < list[j].ProductID })
	for _, r := range list {
		if r.ReservedQty == 0 {
			continue
		}
		if _, err := l.Release(ctx, repos, r.StoreID, r.ProductID, r.ReservedQty, saleID); err != nil {
			return err
		}
	}
	return nil
}

// RegisterMovement registra un movimiento suelto en su propia transacción:
// PURCHASE y RETURN suman, DAMAGE y TRANSFER restan, ADJUST según el signo de delta.
func (l *Ledger) RegisterMovement(ctx context.Context, m Movement, delta int) (st *entity.ProductStock, err error) {
	ctx, span := telemetry.StartSpan(ctx, "stock", "register_movement",
		attribute.String("store_id", m.StoreID), attribute.String("product_id", m.ProductID))
	defer func() { telemetry.End(span, err) }()

	if delta == 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if m.BatchID == "" {
		m.BatchID = uuid.New().String()
	}
	m.Quantity = abs(delta)
	err = l.runner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		st, err = l.apply(ctx, repos, m, delta)
		return err
	})
	return st, err
}

func (l *Ledger) apply(ctx context.Context, repos repository.Repos, m Movement, delta int) (*entity.ProductStock, error) {
	switch m.Type {
	case entity.MovementPurchase, entity.MovementReturn:
		if delta < 0 {
			return nil, domain.ErrInvalidQuantity
		}
		return l.Increment(ctx, repos, m)
	case entity.MovementDamage, entity.MovementTransfer, entity.MovementSale:
		if delta > 0 {
			return nil, domain.ErrInvalidQuantity
		}
		return l.Decrement(ctx, repos, m)
	case entity.MovementAdjust:
		if delta > 0 {
			return l.Increment(ctx, repos, m)
		}
		return l.adjustDown(ctx, repos, m)
	}
	return nil, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrValidation, m.Type)
}

// adjustDown corrección de conteo: solo exige que el stock en mano no quede negativo.
func (l *Ledger) adjustDown(ctx context.Context, repos repository.Repos, m Movement) (*entity.ProductStock, error) {
	st, err := repos.Stock.GetForUpdate(ctx, m.StoreID, m.ProductID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, domain.ErrStockNotInitialized
	}
	if st.Quantity < m.Quantity {
		return nil, fmt.Errorf("%w: producto %s en mano %d, ajuste -%d", domain.ErrInsufficientStock, m.ProductID, st.Quantity, m.Quantity)
	}
	now := l.now()
	st.Quantity -= m.Quantity
	st.UpdatedAt = now
	if err := repos.Stock.Update(ctx, st); err != nil {
		return nil, err
	}
	cost, err := costOf(ctx, repos, m.ProductID)
	if err != nil {
		return nil, err
	}
	return st, l.record(ctx, repos, m, -m.Quantity, cost, now)
}

// costOf costo vigente del producto; cero si el catálogo no lo tiene.
func costOf(ctx context.Context, repos repository.Repos, productID string) (decimal.Decimal, error) {
	p, err := repos.Products.GetByID(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	if p == nil {
		return decimal.Zero, nil
	}
	return p.CostPrice, nil
}

// createRow inserta la fila de existencias. Si otra transacción la creó primero se
// devuelve ErrConcurrencyConflict para que el runner repita con la fila ya visible.
func createRow(ctx context.Context, repos repository.Repos, st *entity.ProductStock) error {
	err := repos.Stock.Create(ctx, st)
	if errors.Is(err, domain.ErrDuplicate) {
		return fmt.Errorf("%w: fila de stock %s creada en paralelo", domain.ErrConcurrencyConflict, st.ProductID)
	}
	return err
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
