package repository

import (
	"context"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

// CreditRepository puerto de cuentas de crédito de clientes.
type CreditRepository interface {
	// GetAccountForUpdate devuelve nil, nil si el cliente no tiene cuenta en la tienda.
	GetAccountForUpdate(ctx context.Context, storeID, customerID string) (*entity.CreditAccount, error)
	UpdateAccount(ctx context.Context, account *entity.CreditAccount) error
	CreateEntry(ctx context.Context, entry *entity.CreditLedgerEntry) error
}
