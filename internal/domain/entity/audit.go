package entity

import (
	"encoding/json"
	"time"
)

// AuditEntry evento de auditoría de una operación sobre una entidad.
type AuditEntry struct {
	ID         string
	ActorID    string
	StoreID    string
	Action     string
	EntityType string
	EntityID   string
	Before     json.RawMessage
	After      json.RawMessage
	CreatedAt  time.Time
}
