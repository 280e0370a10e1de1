// Package payment aplica pagos (posiblemente divididos en varios métodos) a una venta
// emitida, descontando stock y acumulando en el turno de caja en una sola transacción.
package payment

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/ventas-api/internal/application/audit"
	"github.com/jhoicas/ventas-api/internal/application/shift"
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

// Line una línea del pago tal como la entrega la caja. Method admite alias.
type Line struct {
	Method    string
	Amount    decimal.Decimal
	Reference string
}

// Input pago sobre una venta dentro de un turno.
type Input struct {
	SaleID  string
	ShiftID string
	Lines   []Line
}

// Result pagos persistidos, la venta resultante y el vuelto (solo informativo).
type Result struct {
	Sale     *entity.Sale
	Payments []*entity.Payment
	Change   decimal.Decimal
}

// Allocator asigna pagos a ventas.
type Allocator struct {
	runner *uow.Runner
	ledger *stock.Ledger
	shifts *shift.Ledger
	audit  *audit.Recorder
	log    *logger.Logger
	now    func() time.Time
}

// NewAllocator construye el asignador de pagos.
func NewAllocator(runner *uow.Runner, ledger *stock.Ledger, shifts *shift.Ledger, rec *audit.Recorder, log *logger.Logger) *Allocator {
	return &Allocator{runner: runner, ledger: ledger, shifts: shifts, audit: rec, log: log, now: time.Now}
}

type normalizedLine struct {
	method    entity.PaymentMethod
	amount    decimal.Decimal
	reference string
}

func normalize(lines []Line) ([]normalizedLine, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: el pago no tiene líneas", domain.ErrValidation)
	}
	out := make([]normalizedLine, 0, len(lines))
	for _, l := range lines {
		m, err := domainsales.NormalizeMethod(l.Method)
		if err != nil {
			return nil, err
		}
		amount := money.Round(l.Amount)
		if !amount.IsPositive() {
			return nil, domain.ErrInvalidAmount
		}
		out = append(out, normalizedLine{method: m, amount: amount, reference: l.Reference})
	}
	return out, nil
}

// ProcessPayment aplica las líneas a la venta. Cada línea aplica como máximo lo que
// resta por pagar; el exceso se devuelve como vuelto y no se registra. Cualquier
// fallo revierte la transacción completa.
func (a *Allocator) ProcessPayment(ctx context.Context, actor entity.Actor, in Input) (res *Result, err error) {
	ctx, span := telemetry.StartSpan(ctx, "payment", "process",
		attribute.String("sale_id", in.SaleID), attribute.String("shift_id", in.ShiftID),
		attribute.Int("lines", len(in.Lines)))
	defer func() { telemetry.End(span, err) }()

	lines, err := normalize(in.Lines)
	if err != nil {
		return nil, err
	}

	var before entity.Sale
	err = a.runner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		res = &Result{}
		// Orden de bloqueo: venta, turno, cuenta de crédito, filas de stock por producto.
		sale, err := repos.Sales.GetForUpdate(ctx, in.SaleID)
		if err != nil {
			return err
		}
		if sale == nil || sale.StoreID != actor.StoreID {
			return domain.ErrNotFound
		}
		sh, err := a.shifts.LockOpen(ctx, repos, in.ShiftID, sale.StoreID, actor.UserID)
		if err != nil {
			return err
		}
		if !sale.IsPayable() {
			return domain.ErrSaleNotPayable
		}
		before = *sale

		now := a.now()
		remaining := sale.AmountDue
		tendered := decimal.Zero
		applied := decimal.Zero
		for _, l := range lines {
			tendered = tendered.Add(l.amount)
			part := decimal.Min(l.amount, remaining)
			if l.method == entity.PaymentCredit {
				if !sale.HasCustomer() {
					return domain.ErrCreditRequiresCustomer
				}
				if part.IsPositive() {
					if err := a.debitCredit(ctx, repos, sale, part, now); err != nil {
						return err
					}
				}
			}
			if !part.IsPositive() {
				continue
			}
			remaining = remaining.Sub(part)
			applied = applied.Add(part)
			p := &entity.Payment{
				ID:        uuid.New().String(),
				SaleID:    sale.ID,
				StoreID:   sale.StoreID,
				CashierID: actor.UserID,
				ShiftID:   sh.ID,
				Method:    l.method,
				Amount:    part,
				Reference: l.reference,
				CreatedAt: now,
			}
			if err := repos.Payments.Create(ctx, p); err != nil {
				return err
			}
			if err := a.shifts.Accumulate(ctx, repos, sh, l.method, part); err != nil {
				return err
			}
			res.Payments = append(res.Payments, p)
		}

		becamePaid := sale.ApplyPayment(applied, now)
		if err := a.fulfillStock(ctx, repos, sale, becamePaid, actor.UserID); err != nil {
			return err
		}
		if err := repos.Sales.Update(ctx, sale); err != nil {
			return err
		}
		res.Sale = sale
		res.Change = money.MaxZero(tendered.Sub(applied))
		return nil
	})
	if err != nil {
		return nil, err
	}
	a.log.Info().
		Str("sale_id", res.Sale.ID).
		Str("store_id", res.Sale.StoreID).
		Str("status", string(res.Sale.Status)).
		Str("amount_paid", res.Sale.AmountPaid.StringFixed(2)).
		Str("change", res.Change.StringFixed(2)).
		Int("payments", len(res.Payments)).
		Msg("pago aplicado")
	a.audit.Record(ctx, audit.Event{
		ActorID: actor.UserID, StoreID: res.Sale.StoreID, Action: audit.ActionPaymentReceived,
		EntityType: "sale", EntityID: res.Sale.ID, Before: before, After: res.Sale,
	})
	return res, nil
}

// debitCredit valida el crédito disponible del cliente y registra el débito.
func (a *Allocator) debitCredit(ctx context.Context, repos repository.Repos, sale *entity.Sale, amount decimal.Decimal, now time.Time) error {
	acc, err := repos.Credit.GetAccountForUpdate(ctx, sale.StoreID, *sale.CustomerID)
	if err != nil {
		return err
	}
	if acc == nil || acc.Available().LessThan(amount) {
		return domain.ErrCreditLimitExceeded
	}
	acc.Balance = money.Round(acc.Balance.Add(amount))
	acc.UpdatedAt = now
	if err := repos.Credit.UpdateAccount(ctx, acc); err != nil {
		return err
	}
	return repos.Credit.CreateEntry(ctx, &entity.CreditLedgerEntry{
		ID:           uuid.New().String(),
		AccountID:    acc.ID,
		Amount:       amount,
		Reference:    sale.ID,
		BalanceAfter: acc.Balance,
		CreatedAt:    now,
	})
}

// fulfillStock descuenta el stock de la venta. Sin reserva: todo de una vez al pasar a
// PAID. Con reserva: cada pago lleva lo entregado a la proporción pagada.
func (a *Allocator) fulfillStock(ctx context.Context, repos repository.Repos, sale *entity.Sale, becamePaid bool, actorID string) error {
	if !sale.ReserveStock && !becamePaid {
		return nil
	}
	items, err := repos.Sales.ListItems(ctx, sale.ID)
	if err != nil {
		return err
	}
	// Lo ya descontado por la venta: una venta que vuelve a PAID tras una devolución
	// parcial no descuenta de nuevo.
	var done map[string]int
	if !sale.ReserveStock {
		if done, err = repos.Movements.SumByReference(ctx, sale.StoreID, sale.ID, entity.MovementSale); err != nil {
			return err
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	for _, it := range items {
		p, err := repos.Products.GetByID(ctx, it.ProductID)
		if err != nil {
			return err
		}
		if p == nil || !p.TrackStock {
			continue
		}
		if !sale.ReserveStock {
			pending := it.Quantity + done[it.ProductID]
			if pending <= 0 {
				continue
			}
			if _, err := a.ledger.Decrement(ctx, repos, stock.Movement{
				StoreID:   sale.StoreID,
				ProductID: it.ProductID,
				Quantity:  pending,
				Type:      entity.MovementSale,
				Reason:    "venta",
				ActorID:   actorID,
				Reference: sale.ID,
			}); err != nil {
				return err
			}
			continue
		}
		target := domainsales.FulfillmentTarget(it.Quantity, sale.AmountPaid, sale.Total, sale.Status == entity.SaleStatusPaid)
		if err := a.ledger.Fulfill(ctx, repos, sale.ID, sale.StoreID, it.ProductID, target, actorID); err != nil {
			return err
		}
	}
	return nil
}
