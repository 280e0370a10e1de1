package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jhoicas/ventas-api/internal/domain"
)

// Códigos SQLSTATE relevantes.
const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03" // lock_timeout
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

// classify traduce errores de bloqueo a domain.ErrConcurrencyConflict y los CHECK de
// stock no negativo a domain.ErrInsufficientStock; el resto se devuelve igual.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
		return fmt.Errorf("%w: %s (%s)", domain.ErrConcurrencyConflict, pgErr.Message, pgErr.Code)
	case codeCheckViolation:
		if pgErr.ConstraintName == "product_stock_quantity_check" || pgErr.ConstraintName == "product_stock_reserved_qty_check" {
			return fmt.Errorf("%w: %s", domain.ErrInsufficientStock, pgErr.ConstraintName)
		}
	}
	return err
}

// nullable convierte "" en NULL para columnas UUID opcionales.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// deref inverso de nullable.
func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
