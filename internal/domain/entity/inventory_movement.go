package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento de inventario.
type MovementType string

// Tipos de movimiento de inventario.
const (
	MovementSale     MovementType = "SALE"     // salida por venta
	MovementReturn   MovementType = "RETURN"   // reingreso por devolución
	MovementPurchase MovementType = "PURCHASE" // entrada por compra
	MovementAdjust   MovementType = "ADJUST"   // ajuste de conteo
	MovementDamage   MovementType = "DAMAGE"   // merma
	MovementTransfer MovementType = "TRANSFER" // traslado entre tiendas
)

// Valid informa si el tipo es conocido.
func (t MovementType) Valid() bool {
	switch t {
	case MovementSale, MovementReturn, MovementPurchase, MovementAdjust, MovementDamage, MovementTransfer:
		return true
	}
	return false
}

// InventoryMovement fila del libro de movimientos: solo inserción, nunca se actualiza ni borra.
type InventoryMovement struct {
	ID        string
	StoreID   string
	ProductID string
	Type      MovementType
	Quantity  int // positivo entrada, negativo salida
	UnitCost  decimal.Decimal
	Reference string // id de la venta, devolución o documento origen
	Reason    string
	ActorID   string
	BatchID   string // agrupa las líneas de una misma operación
	CreatedAt time.Time
}
