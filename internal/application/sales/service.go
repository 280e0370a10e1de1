// Package sales casos de uso del agregado Venta: creación, edición de líneas en
// borrador, emisión con número de factura y anulación.
package sales

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/ventas-api/internal/application/audit"
	"github.com/jhoicas/ventas-api/internal/application/sequence"
	"github.com/jhoicas/ventas-api/internal/application/stock"
	"github.com/jhoicas/ventas-api/internal/application/uow"
	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/money"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
	domainsales "github.com/jhoicas/ventas-api/internal/domain/sales"
	"github.com/jhoicas/ventas-api/pkg/logger"
	"github.com/jhoicas/ventas-api/pkg/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// Detail venta con sus líneas.
type Detail struct {
	Sale  *entity.Sale
	Items []*entity.SaleItem
}

// Service casos de uso de la venta. Cada mutación bloquea primero la fila de la venta.
type Service struct {
	runner *uow.Runner
	ledger *stock.Ledger
	seq    *sequence.Generator
	audit  *audit.Recorder
	log    *logger.Logger
	now    func() time.Time
}

// NewService construye el servicio de ventas.
func NewService(runner *uow.Runner, ledger *stock.Ledger, seq *sequence.Generator, rec *audit.Recorder, log *logger.Logger) *Service {
	return &Service{runner: runner, ledger: ledger, seq: seq, audit: rec, log: log, now: time.Now}
}

// CreateInput datos de una venta nueva.
type CreateInput struct {
	CustomerID   *string
	ReserveStock bool
	IsCreditSale bool
}

// Create abre una venta en DRAFT en la tienda del actor.
func (s *Service) Create(ctx context.Context, actor entity.Actor, in CreateInput) (sale *entity.Sale, err error) {
	ctx, span := telemetry.StartSpan(ctx, "sales", "create", attribute.String("store_id", actor.StoreID))
	defer func() { telemetry.End(span, err) }()

	if actor.StoreID == "" || actor.UserID == "" {
		return nil, domain.ErrForbidden
	}
	err = s.runner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		store, err := repos.Stores.GetByID(ctx, actor.StoreID)
		if err != nil {
			return err
		}
		if store == nil {
			return domain.ErrNotFound
		}
		if store.TenantID != actor.TenantID {
			return domain.ErrForbidden
		}
		if in.CustomerID != nil && *in.CustomerID != "" {
			if err := checkCustomer(ctx, repos, *in.CustomerID, actor.TenantID); err != nil {
				return err
			}
		} else {
			in.CustomerID = nil
		}
		now := s.now()
		sale = &entity.Sale{
			ID:           uuid.New().String(),
			StoreID:      actor.StoreID,
			SellerID:     actor.UserID,
			CustomerID:   in.CustomerID,
			Status:       entity.SaleStatusDraft,
			IsCreditSale: in.IsCreditSale,
			ReserveStock: in.ReserveStock,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return repos.Sales.Create(ctx, sale)
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// Get venta con líneas; las ventas de otra tienda se reportan como inexistentes.
func (s *Service) Get(ctx context.Context, actor entity.Actor, saleID string) (d *Detail, err error) {
	err = s.runner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		sale, err := repos.Sales.GetByID(ctx, saleID)
		if err != nil {
			return err
		}
		if sale == nil || sale.StoreID != actor.StoreID {
			return domain.ErrNotFound
		}
		items, err := repos.Sales.ListItems(ctx, saleID)
		if err != nil {
			return err
		}
		d = &Detail{Sale: sale, Items: items}
		return nil
	})
	return d, err
}

// lockSale bloquea la fila de la venta del actor.
func lockSale(ctx context.Context, repos repository.Repos, actor entity.Actor, saleID string) (*entity.Sale, error) {
	sale, err := repos.Sales.GetForUpdate(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale == nil || sale.StoreID != actor.StoreID {
		return nil, domain.ErrNotFound
	}
	return sale, nil
}

func checkCustomer(ctx context.Context, repos repository.Repos, customerID, tenantID string) error {
	c, err := repos.Customers.GetByID(ctx, customerID)
	if err != nil {
		return err
	}
	if c == nil || c.TenantID != tenantID {
		return domain.ErrNotFound
	}
	return nil
}

// recalculate recalcula y persiste los totales con la configuración de la tienda.
func (s *Service) recalculate(ctx context.Context, repos repository.Repos, sale *entity.Sale) ([]*entity.SaleItem, error) {
	store, err := repos.Stores.GetByID(ctx, sale.StoreID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, domain.ErrNotFound
	}
	items, err := repos.Sales.ListItems(ctx, sale.ID)
	if err != nil {
		return nil, err
	}
	domainsales.Apply(sale, items, store.Config())
	sale.UpdatedAt = s.now()
	if err := repos.Sales.Update(ctx, sale); err != nil {
		return nil, err
	}
	return items, nil
}

// AddItemInput línea a agregar. UnitPrice nil usa el precio de venta del catálogo.
type AddItemInput struct {
	ProductID string
	Quantity  int
	Discount  decimal.Decimal
	UnitPrice *decimal.Decimal
}

// AddItem agrega una línea a la venta en borrador. Si el producto ya está en la venta
// las líneas se fusionan (cantidad y descuento sumados, precios originales) y el
// disponible se verifica contra la cantidad resultante.
func (s *Service) AddItem(ctx context.Context, actor entity.Actor, saleID string, in AddItemInput) (d *Detail, err error) {
	ctx, span := telemetry.StartSpan(ctx, "sales", "add_item",
		attribute.String("sale_id", saleID), attribute.String("product_id", in.ProductID))
	defer func() { telemetry.End(span, err) }()

	if in.Quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	if in.Discount.IsNegative() || (in.UnitPrice != nil && in.UnitPrice.IsNegative()) {
		return nil, domain.ErrInvalidAmount
	}
	err = s.runner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		sale, err := lockSale(ctx, repos, actor, saleID)
		if err != nil {
			return err
		}
		if err := sale.EnsureDraft(); err != nil {
			return err
		}
		product, err := repos.Products.GetByID(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if product == nil || product.TenantID != actor.TenantID {
			return domain.ErrNotFound
		}
		if !product.Active {
			return domain.ErrInactiveProduct
		}

		items, err := repos.Sales.ListItems(ctx, saleID)
		if err != nil {
			return err
		}
		var existing *entity.SaleItem
		for _, it := range items {
			if it.ProductID == in.ProductID {
				existing = it
				break
			}
		}
		resulting := in.Quantity
		if existing != nil {
			resulting += existing.Quantity
		}
		if product.TrackStock {
			if err := s.ledger.CheckAvailable(ctx, repos, sale.StoreID, product.ID, resulting); err != nil {
				return err
			}
		}

		now := s.now()
		if existing != nil {
			existing.Quantity = resulting
			existing.DiscountAmount = money.Round(existing.DiscountAmount.Add(in.Discount))
			existing.UpdatedAt = now
			existing.Recompute()
			if err := repos.Sales.UpdateItem(ctx, existing); err != nil {
				return err
			}
		} else {
			price := product.SellingPrice
			if in.UnitPrice != nil {
				price = *in.UnitPrice
			}
			item := &entity.SaleItem{
				ID:             uuid.New().String(),
				SaleID:         saleID,
				ProductID:      product.ID,
				Quantity:       in.Quantity,
				UnitPrice:      money.Round(price),
				CostPrice:      product.CostPrice,
				DiscountAmount: money.Round(in.Discount),
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			item.Recompute()
			if err := repos.Sales.CreateItem(ctx, item); err != nil {
				return err
			}
		}
		items, err = s.recalculate(ctx, repos, sale)
		if err != nil {
			return err
		}
		d = &Detail{Sale: sale, Items: items}
		return nil
	})
	return d, err
}

// findItem línea de la venta por id.
func findItem(ctx context.Context, repos repository.Repos, saleID, itemID string) (*entity.SaleItem, error) {
	items, err := repos.Sales.ListItems(ctx, saleID)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if it.ID == itemID {
			return it, nil
		}
	}
	return nil, domain.ErrNotFound
}

// RemoveItem quita una línea de la venta en borrador.
func (s *Service) RemoveItem(ctx context.Context, actor entity.Actor, saleID, itemID string) (d *Detail, err error) {
	ctx, span := telemetry.StartSpan(ctx, "sales", "remove_item", attribute.String("sale_id", saleID))
	defer func() { telemetry.End(span, err) }()

	err = s.runner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		sale, err := lockSale(ctx, repos, actor, saleID)
		if err != nil {
			return err
		}
		if err := sale.EnsureDraft(); err != nil {
			return err
		}
		if _, err := findItem(ctx, repos, saleID, itemID); err != nil {
			return err
		}
		if err := repos.Sales.DeleteItem(ctx, saleID, itemID); err != nil {
			return err
		}
		items, err := s.recalculate(ctx, repos, sale)
		if err != nil {
			return err
		}
		d = &Detail{Sale: sale, Items: items}
		return nil
	})
	return d, err
}

// UpdateItemQuantity cambia la cantidad de una línea y vuelve a verificar el disponible.
func (s *Service) UpdateItemQuantity(ctx context.Context, actor entity.Actor, saleID, itemID string, qty int) (d *Detail, err error) {
	ctx, span := telemetry.StartSpan(ctx, "sales", "update_item_quantity", attribute.String("sale_id", saleID))
	defer func() { telemetry.End(span, err) }()

	if qty < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	err = s.runner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		sale, err := lockSale(ctx, repos, actor, saleID)
		if err != nil {
			return err
		}
		if err := sale.EnsureDraft(); err != nil {
			return err
		}
		item, err := findItem(ctx, repos, saleID, itemID)
		if err != nil {
			return err
		}
		product, err := repos.Products.GetByID(ctx, item.ProductID)
		if err != nil {
			return err
		}
		if product != nil && product.TrackStock {
			if err := s.ledger.CheckAvailable(ctx, repos, sale.StoreID, item.ProductID, qty); err != nil {
				return err
			}
		}
		item.Quantity = qty
		item.UpdatedAt = s.now()
		item.Recompute()
		if err := repos.Sales.UpdateItem(ctx, item); err != nil {
			return err
		}
		items, err := s.recalculate(ctx, repos, sale)
		if err != nil {
			return err
		}
		d = &Detail{Sale: sale, Items: items}
		return nil
	})
	return d, err
}

// SetCustomer asigna el cliente de la venta en borrador.
func (s *Service) SetCustomer(ctx context.Context, actor entity.Actor, saleID, customerID string) (sale *entity.Sale, err error) {
	if customerID == "" {
		return nil, domain.ErrMissingCustomer
	}
	err = s.runner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		sale, err = lockSale(ctx, repos, actor, saleID)
		if err != nil {
			return err
		}
		if err := sale.EnsureDraft(); err != nil {
			return err
		}
		if err := checkCustomer(ctx, repos, customerID, actor.TenantID); err != nil {
			return err
		}
		sale.CustomerID = &customerID
		sale.UpdatedAt = s.now()
		return repos.Sales.Update(ctx, sale)
	})
	return sale, err
}

// SetDiscount fija el descuento: percent > 0 es porcentual sobre el subtotal, si no
// amount es un monto fijo acotado al subtotal.
func (s *Service) SetDiscount(ctx context.Context, actor entity.Actor, saleID string, amount, percent decimal.Decimal) (d *Detail, err error) {
	if amount.IsNegative() || percent.IsNegative() || percent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, domain.ErrInvalidAmount
	}
	err = s.runner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		sale, err := lockSale(ctx, repos, actor, saleID)
		if err != nil {
			return err
		}
		if err := sale.EnsureDraft(); err != nil {
			return err
		}
		sale.DiscountPercent = percent.Round(money.AmountPlaces)
		sale.DiscountAmount = money.Round(amount)
		items, err := s.recalculate(ctx, repos, sale)
		if err != nil {
			return err
		}
		d = &Detail{Sale: sale, Items: items}
		return nil
	})
	return d, err
}

// Submit emite la venta: exige cliente, al menos una línea y total positivo. Asigna
// el número de factura en la misma transacción y, si la venta reserva stock, retiene
// la cantidad completa de cada línea.
func (s *Service) Submit(ctx context.Context, actor entity.Actor, saleID string) (d *Detail, err error) {
	ctx, span := telemetry.StartSpan(ctx, "sales", "submit", attribute.String("sale_id", saleID))
	defer func() { telemetry.End(span, err) }()

	var before entity.Sale
	err = s.runner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		sale, err := lockSale(ctx, repos, actor, saleID)
		if err != nil {
			return err
		}
		if err := sale.EnsureDraft(); err != nil {
			return err
		}
		before = *sale
		if !sale.HasCustomer() {
			return domain.ErrMissingCustomer
		}
		items, err := s.recalculate(ctx, repos, sale)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return fmt.Errorf("%w: la venta no tiene líneas", domain.ErrNotSubmittable)
		}
		if !sale.Total.IsPositive() {
			return fmt.Errorf("%w: el total debe ser mayor a cero", domain.ErrNotSubmittable)
		}

		if sale.ReserveStock {
			if err := s.reserveItems(ctx, repos, sale, items); err != nil {
				return err
			}
		}

		store, err := repos.Stores.GetByID(ctx, sale.StoreID)
		if err != nil {
			return err
		}
		number, err := s.seq.NextInTx(ctx, repos, sale.StoreID, store.Config().InvoicePrefix)
		if err != nil {
			return err
		}
		sale.Submit(number, s.now())
		if err := repos.Sales.Update(ctx, sale); err != nil {
			return err
		}
		d = &Detail{Sale: sale, Items: items}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("sale_id", saleID).Str("store_id", d.Sale.StoreID).Str("invoice_number", *d.Sale.InvoiceNumber).Msg("venta emitida")
	s.audit.Record(ctx, audit.Event{
		ActorID: actor.UserID, StoreID: d.Sale.StoreID, Action: audit.ActionSaleSubmitted,
		EntityType: "sale", EntityID: saleID, Before: before, After: d.Sale,
	})
	return d, nil
}

// reserveItems reserva la cantidad completa de cada línea con inventario controlado,
// en orden ascendente de producto.
func (s *Service) reserveItems(ctx context.Context, repos repository.Repos, sale *entity.Sale, items []*entity.SaleItem) error {
	sorted := make([]*entity.SaleItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })
	for _, it := range sorted {
		p, err := repos.Products.GetByID(ctx, it.ProductID)
		if err != nil {
			return err
		}
		if p == nil || !p.TrackStock {
			continue
		}
		if err := s.ledger.Reserve(ctx, repos, sale.StoreID, it.ProductID, it.Quantity, sale.ID); err != nil {
			return err
		}
	}
	return nil
}

// Cancel anula la venta. No revierte pagos ni stock ya descontado; libera las reservas pendientes.
func (s *Service) Cancel(ctx context.Context, actor entity.Actor, saleID, reason string) (sale *entity.Sale, err error) {
	ctx, span := telemetry.StartSpan(ctx, "sales", "cancel", attribute.String("sale_id", saleID))
	defer func() { telemetry.End(span, err) }()

	if strings.TrimSpace(reason) == "" {
		return nil, domain.ErrMissingReason
	}
	var before entity.Sale
	err = s.runner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		sale, err = lockSale(ctx, repos, actor, saleID)
		if err != nil {
			return err
		}
		if !sale.CanCancel() {
			return domain.ErrInvalidState
		}
		before = *sale
		if err := s.ledger.ReleaseSale(ctx, repos, sale.ID); err != nil {
			return err
		}
		sale.Cancel(actor.UserID, reason, s.now())
		return repos.Sales.Update(ctx, sale)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("sale_id", saleID).Str("store_id", sale.StoreID).Str("reason", reason).Msg("venta anulada")
	s.audit.Record(ctx, audit.Event{
		ActorID: actor.UserID, StoreID: sale.StoreID, Action: audit.ActionSaleCancelled,
		EntityType: "sale", EntityID: saleID, Before: before, After: sale,
	})
	return sale, nil
}
