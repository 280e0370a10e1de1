// Package refund devoluciones de dinero sobre ventas pagadas y reingreso del stock
// cuando la venta queda totalmente devuelta.
package refund

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/ventas-api/internal/application/audit"
	"github.com/jhoicas/ventas-api/internal/application/sequence"
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

// Policy comportamiento configurable de las devoluciones.
type Policy struct {
	// PartialRefundKeepsSaleOpen con true una devolución parcial deja la venta en
	// PARTIALLY_PAID; con false (por defecto) cualquier devolución la deja REFUNDED.
	PartialRefundKeepsSaleOpen bool
}

// Input datos de la devolución. Method vacío equivale a efectivo.
type Input struct {
	SaleID      string
	Amount      decimal.Decimal
	Reason      string
	Method      string
	ProcessedBy *string
	ShiftID     *string
}

// Result devolución registrada, la venta resultante y el stock reingresado (si hubo).
type Result struct {
	Refund    *entity.Refund
	Sale      *entity.Sale
	Restocked []*entity.ProductStock
}

// Processor procesa devoluciones.
type Processor struct {
	runner *uow.Runner
	ledger *stock.Ledger
	shifts *shift.Ledger
	seq    *sequence.Generator
	audit  *audit.Recorder
	policy Policy
	log    *logger.Logger
	now    func() time.Time
}

// NewProcessor construye el procesador de devoluciones.
func NewProcessor(runner *uow.Runner, ledger *stock.Ledger, shifts *shift.Ledger, seq *sequence.Generator, rec *audit.Recorder, policy Policy, log *logger.Logger) *Processor {
	return &Processor{runner: runner, ledger: ledger, shifts: shifts, seq: seq, audit: rec, policy: policy, log: log, now: time.Now}
}

// CreateRefund registra una devolución aprobada por actor. Cuando lo pagado llega a
// cero la venta reingresa al inventario exactamente lo que descontó, una sola vez.
func (p *Processor) CreateRefund(ctx context.Context, actor entity.Actor, in Input) (res *Result, err error) {
	ctx, span := telemetry.StartSpan(ctx, "refund", "create",
		attribute.String("sale_id", in.SaleID), attribute.String("amount", in.Amount.StringFixed(2)))
	defer func() { telemetry.End(span, err) }()

	if strings.TrimSpace(in.Reason) == "" {
		return nil, domain.ErrMissingReason
	}
	amount := money.Round(in.Amount)
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	method := entity.PaymentCash
	if in.Method != "" {
		if method, err = domainsales.NormalizeMethod(in.Method); err != nil {
			return nil, err
		}
	}

	var before entity.Sale
	err = p.runner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		res = &Result{}
		sale, err := repos.Sales.GetForUpdate(ctx, in.SaleID)
		if err != nil {
			return err
		}
		if sale == nil || sale.StoreID != actor.StoreID {
			return domain.ErrNotFound
		}
		if !sale.IsRefundable() {
			return domain.ErrSaleNotRefundable
		}
		if amount.GreaterThan(sale.AmountPaid) {
			return fmt.Errorf("%w: la devolución excede lo pagado (%s)", domain.ErrInvalidAmount, sale.AmountPaid.StringFixed(2))
		}
		before = *sale
		now := p.now()

		if in.ShiftID != nil && *in.ShiftID != "" && method == entity.PaymentCash {
			if err := p.shifts.AccumulateRefund(ctx, repos, *in.ShiftID, sale.StoreID, amount); err != nil {
				return err
			}
		}
		if method == entity.PaymentCredit && sale.HasCustomer() {
			if err := p.creditBack(ctx, repos, sale, amount, now); err != nil {
				return err
			}
		}

		store, err := repos.Stores.GetByID(ctx, sale.StoreID)
		if err != nil {
			return err
		}
		if store == nil {
			return domain.ErrNotFound
		}
		number, err := p.seq.NextInTx(ctx, repos, sale.StoreID, store.Config().RefundPrefix)
		if err != nil {
			return err
		}
		r := &entity.Refund{
			ID:          uuid.New().String(),
			Number:      number,
			SaleID:      sale.ID,
			StoreID:     sale.StoreID,
			Amount:      amount,
			Reason:      in.Reason,
			Method:      method,
			ApprovedBy:  actor.UserID,
			ProcessedBy: in.ProcessedBy,
			ShiftID:     in.ShiftID,
			CreatedAt:   now,
		}
		if err := repos.Refunds.Create(ctx, r); err != nil {
			return err
		}

		sale.ApplyRefund(amount, p.policy.PartialRefundKeepsSaleOpen, now)
		if sale.AmountPaid.IsZero() && sale.RestockedAt == nil {
			restocked, err := p.restock(ctx, repos, sale, r, actor.UserID)
			if err != nil {
				return err
			}
			sale.RestockedAt = &now
			res.Restocked = restocked
		} else if sale.Status == entity.SaleStatusRefunded {
			// REFUNDED es terminal: lo que siga reservado no se entregará nunca.
			if err := p.ledger.ReleaseSale(ctx, repos, sale.ID); err != nil {
				return err
			}
		}
		if err := repos.Sales.Update(ctx, sale); err != nil {
			return err
		}
		res.Refund = r
		res.Sale = sale
		return nil
	})
	if err != nil {
		return nil, err
	}
	p.log.Info().
		Str("sale_id", res.Sale.ID).
		Str("refund_number", res.Refund.Number).
		Str("amount", amount.StringFixed(2)).
		Str("status", string(res.Sale.Status)).
		Int("restocked_products", len(res.Restocked)).
		Msg("devolución registrada")
	p.audit.Record(ctx, audit.Event{
		ActorID: actor.UserID, StoreID: res.Sale.StoreID, Action: audit.ActionSaleRefunded,
		EntityType: "sale", EntityID: res.Sale.ID, Before: before, After: res.Sale,
	})
	return res, nil
}

// restock reingresa por producto la cantidad que los movimientos SALE de la venta
// descontaron y libera lo que quede reservado.
func (p *Processor) restock(ctx context.Context, repos repository.Repos, sale *entity.Sale, r *entity.Refund, actorID string) ([]*entity.ProductStock, error) {
	sums, err := repos.Movements.SumByReference(ctx, sale.StoreID, sale.ID, entity.MovementSale)
	if err != nil {
		return nil, err
	}
	products := make([]string, 0, len(sums))
	for id := range sums {
		products = append(products, id)
	}
	sort.Strings(products)

	var out []*entity.ProductStock
	for _, productID := range products {
		qty := -sums[productID]
		if qty <= 0 {
			continue
		}
		st, err := p.ledger.Increment(ctx, repos, stock.Movement{
			StoreID:   sale.StoreID,
			ProductID: productID,
			Quantity:  qty,
			Type:      entity.MovementReturn,
			Reason:    r.Reason,
			ActorID:   actorID,
			Reference: r.ID,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	if err := p.ledger.ReleaseSale(ctx, repos, sale.ID); err != nil {
		return nil, err
	}
	return out, nil
}

// creditBack reduce la deuda del cliente cuando la devolución se abona a su crédito.
func (p *Processor) creditBack(ctx context.Context, repos repository.Repos, sale *entity.Sale, amount decimal.Decimal, now time.Time) error {
	acc, err := repos.Credit.GetAccountForUpdate(ctx, sale.StoreID, *sale.CustomerID)
	if err != nil {
		return err
	}
	if acc == nil {
		return nil
	}
	credit := decimal.Min(amount, acc.Balance)
	if !credit.IsPositive() {
		return nil
	}
	acc.Balance = money.Round(acc.Balance.Sub(credit))
	acc.UpdatedAt = now
	if err := repos.Credit.UpdateAccount(ctx, acc); err != nil {
		return err
	}
	return repos.Credit.CreateEntry(ctx, &entity.CreditLedgerEntry{
		ID:           uuid.New().String(),
		AccountID:    acc.ID,
		Amount:       credit.Neg(),
		Reference:    sale.ID,
		BalanceAfter: acc.Balance,
		CreatedAt:    now,
	})
}
