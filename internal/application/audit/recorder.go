// Package audit registra eventos de auditoría después del commit. Un fallo al
// registrar se loguea y nunca revierte la operación de negocio.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
	"github.com/jhoicas/ventas-api/pkg/logger"
)

// Acciones auditadas.
const (
	ActionSaleSubmitted   = "sale.submitted"
	ActionSaleCancelled   = "sale.cancelled"
	ActionPaymentReceived = "sale.payment_received"
	ActionSaleRefunded    = "sale.refunded"
	ActionShiftOpened     = "shift.opened"
	ActionShiftClosed     = "shift.closed"
	ActionStockAdjusted   = "stock.adjusted"
)

// Event datos de un evento. Before y After se serializan a JSON.
type Event struct {
	ActorID    string
	StoreID    string
	Action     string
	EntityType string
	EntityID   string
	Before     any
	After      any
}

// Recorder escribe en la bitácora fuera de la transacción de negocio.
type Recorder struct {
	repo repository.AuditRepository
	log  *logger.Logger
}

// NewRecorder construye el registrador. repo nil deshabilita la auditoría.
func NewRecorder(repo repository.AuditRepository, log *logger.Logger) *Recorder {
	return &Recorder{repo: repo, log: log}
}

// Record guarda el evento. Se desacopla de la cancelación del request: la operación ya
// está confirmada.
func (r *Recorder) Record(ctx context.Context, ev Event) {
	if r == nil || r.repo == nil {
		return
	}
	entry := &entity.AuditEntry{
		ID:         uuid.New().String(),
		ActorID:    ev.ActorID,
		StoreID:    ev.StoreID,
		Action:     ev.Action,
		EntityType: ev.EntityType,
		EntityID:   ev.EntityID,
		Before:     r.marshal(ev.Before),
		After:      r.marshal(ev.After),
		CreatedAt:  time.Now(),
	}
	if err := r.repo.Create(context.WithoutCancel(ctx), entry); err != nil {
		r.log.For(ctx).Error().Err(err).
			Str("action", ev.Action).
			Str("entity_type", ev.EntityType).
			Str("entity_id", ev.EntityID).
			Msg("no se pudo registrar auditoría")
	}
}

func (r *Recorder) marshal(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		r.log.Warn().Err(err).Msg("auditoría: payload no serializable")
		return nil
	}
	return b
}
