// Package shift turnos de caja: apertura, acumulado por método de pago, devoluciones
// en efectivo y arqueo de cierre.
package shift

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/ventas-api/internal/application/audit"
	"github.com/jhoicas/ventas-api/internal/application/uow"
	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/money"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
	"github.com/jhoicas/ventas-api/pkg/logger"
	"github.com/jhoicas/ventas-api/pkg/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// Ledger libro de turnos de caja.
type Ledger struct {
	runner *uow.Runner
	audit  *audit.Recorder
	log    *logger.Logger
	now    func() time.Time
}

// NewLedger construye el libro de turnos.
func NewLedger(runner *uow.Runner, rec *audit.Recorder, log *logger.Logger) *Ledger {
	return &Ledger{runner: runner, audit: rec, log: log, now: time.Now}
}

// Open abre un turno para el cajero. Falla con ErrInvalidState si ya tiene uno abierto en la tienda.
func (l *Ledger) Open(ctx context.Context, actor entity.Actor, openingFloat decimal.Decimal) (sh *entity.CashShift, err error) {
	ctx, span := telemetry.StartSpan(ctx, "shift", "open",
		attribute.String("store_id", actor.StoreID), attribute.String("cashier_id", actor.UserID))
	defer func() { telemetry.End(span, err) }()

	if openingFloat.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}
	err = l.runner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		open, err := repos.Shifts.GetOpen(ctx, actor.StoreID, actor.UserID)
		if err != nil {
			return err
		}
		if open != nil {
			return domain.ErrInvalidState
		}
		sh = &entity.CashShift{
			ID:           uuid.New().String(),
			StoreID:      actor.StoreID,
			CashierID:    actor.UserID,
			Status:       entity.ShiftOpen,
			OpeningFloat: money.Round(openingFloat),
			OpenedAt:     l.now(),
		}
		return repos.Shifts.Create(ctx, sh)
	})
	// El índice único parcial (store, cashier) WHERE OPEN resuelve dos aperturas simultáneas.
	if errors.Is(err, domain.ErrDuplicate) {
		err = domain.ErrInvalidState
	}
	if err != nil {
		return nil, err
	}
	l.audit.Record(ctx, audit.Event{
		ActorID: actor.UserID, StoreID: actor.StoreID, Action: audit.ActionShiftOpened,
		EntityType: "cash_shift", EntityID: sh.ID, After: sh,
	})
	return sh, nil
}

// Current turno abierto del cajero en la tienda, o ErrNotFound.
func (l *Ledger) Current(ctx context.Context, actor entity.Actor) (sh *entity.CashShift, err error) {
	err = l.runner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		sh, err = repos.Shifts.GetOpen(ctx, actor.StoreID, actor.UserID)
		if err == nil && sh == nil {
			err = domain.ErrNotFound
		}
		return err
	})
	return sh, err
}

// LockOpen bloquea el turno y verifica que esté abierto, sea del cajero y de la tienda.
func (l *Ledger) LockOpen(ctx context.Context, repos repository.Repos, shiftID, storeID, cashierID string) (*entity.CashShift, error) {
	if shiftID == "" {
		return nil, domain.ErrNoOpenShift
	}
	sh, err := repos.Shifts.GetForUpdate(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if sh == nil || sh.StoreID != storeID || !sh.IsOpenFor(cashierID) {
		return nil, domain.ErrNoOpenShift
	}
	return sh, nil
}

// Accumulate suma un cobro al total del método en la transacción del caller.
func (l *Ledger) Accumulate(ctx context.Context, repos repository.Repos, sh *entity.CashShift, method entity.PaymentMethod, amount decimal.Decimal) error {
	if sh.Status != entity.ShiftOpen {
		return domain.ErrNoOpenShift
	}
	sh.Add(method, money.Round(amount))
	return repos.Shifts.Update(ctx, sh)
}

// AccumulateRefund suma una devolución en efectivo al turno indicado.
func (l *Ledger) AccumulateRefund(ctx context.Context, repos repository.Repos, shiftID, storeID string, amount decimal.Decimal) error {
	sh, err := repos.Shifts.GetForUpdate(ctx, shiftID)
	if err != nil {
		return err
	}
	if sh == nil || sh.StoreID != storeID || sh.Status != entity.ShiftOpen {
		return domain.ErrNoOpenShift
	}
	sh.CashRefunds = money.Round(sh.CashRefunds.Add(amount))
	return repos.Shifts.Update(ctx, sh)
}

// Close cierra el turno con el efectivo contado. Solo una vez; después queda de solo lectura.
// El cajero dueño o un admin/manager de la tienda pueden cerrarlo.
func (l *Ledger) Close(ctx context.Context, actor entity.Actor, shiftID string, closingCash decimal.Decimal) (sh *entity.CashShift, err error) {
	ctx, span := telemetry.StartSpan(ctx, "shift", "close", attribute.String("shift_id", shiftID))
	defer func() { telemetry.End(span, err) }()

	if closingCash.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}
	var before entity.CashShift
	err = l.runner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		sh, err = repos.Shifts.GetForUpdate(ctx, shiftID)
		if err != nil {
			return err
		}
		if sh == nil || sh.StoreID != actor.StoreID {
			return domain.ErrNotFound
		}
		if sh.CashierID != actor.UserID && actor.Role != entity.RoleAdmin && actor.Role != entity.RoleManager {
			return domain.ErrForbidden
		}
		if sh.Status != entity.ShiftOpen {
			return domain.ErrInvalidState
		}
		before = *sh
		sh.Close(money.Round(closingCash), l.now())
		return repos.Shifts.Update(ctx, sh)
	})
	if err != nil {
		return nil, err
	}
	l.log.Info().Str("shift_id", sh.ID).Str("store_id", sh.StoreID).
		Str("expected_cash", sh.ExpectedCash.StringFixed(2)).
		Str("variance", sh.Variance.StringFixed(2)).
		Msg("turno cerrado")
	l.audit.Record(ctx, audit.Event{
		ActorID: actor.UserID, StoreID: sh.StoreID, Action: audit.ActionShiftClosed,
		EntityType: "cash_shift", EntityID: sh.ID, Before: before, After: sh,
	})
	return sh, nil
}
