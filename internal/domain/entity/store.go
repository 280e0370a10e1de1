package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Prefijos de documentos por defecto.
const (
	DefaultInvoicePrefix = "FAC"
	DefaultRefundPrefix  = "AVR"
)

// Store tienda de un tenant (multi-tenant). Code aparece en los números de documento.
type Store struct {
	ID            string
	TenantID      string
	Code          string // ej. BQC
	Name          string
	TaxEnabled    bool
	TaxRate       decimal.Decimal // porcentaje, ej. 18.00
	InvoicePrefix string
	RefundPrefix  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// StoreConfig valor inmutable con la configuración fiscal y de numeración que
// necesitan el recálculo de totales y la emisión.
type StoreConfig struct {
	StoreID       string
	StoreCode     string
	TaxEnabled    bool
	TaxRate       decimal.Decimal
	InvoicePrefix string
	RefundPrefix  string
}

// Config construye el StoreConfig de la tienda aplicando valores por defecto.
func (s *Store) Config() StoreConfig {
	prefix := s.InvoicePrefix
	if prefix == "" {
		prefix = DefaultInvoicePrefix
	}
	refund := s.RefundPrefix
	if refund == "" {
		refund = DefaultRefundPrefix
	}
	return StoreConfig{
		StoreID:       s.ID,
		StoreCode:     s.Code,
		TaxEnabled:    s.TaxEnabled,
		TaxRate:       s.TaxRate,
		InvoicePrefix: prefix,
		RefundPrefix:  refund,
	}
}
