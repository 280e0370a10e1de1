package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditAccount cuenta de crédito de un cliente en una tienda.
type CreditAccount struct {
	ID          string
	StoreID     string
	CustomerID  string
	CreditLimit decimal.Decimal
	Balance     decimal.Decimal // deuda vigente
	UpdatedAt   time.Time
}

// Available crédito disponible (nunca negativo).
func (a *CreditAccount) Available() decimal.Decimal {
	avail := a.CreditLimit.Sub(a.Balance)
	if avail.IsNegative() {
		return decimal.Zero
	}
	return avail
}

// CreditLedgerEntry débito en la cuenta de crédito generado por un pago a crédito.
type CreditLedgerEntry struct {
	ID           string
	AccountID    string
	Amount       decimal.Decimal
	Reference    string
	BalanceAfter decimal.Decimal
	CreatedAt    time.Time
}
