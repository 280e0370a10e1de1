// Package memory implementación en memoria de los repositorios y de la unidad de
// trabajo. Serializa las transacciones con un mutex y restaura una copia del estado
// si fn falla, así los tests de casos de uso ven la misma atomicidad que en postgres.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

type stockKey struct{ store, product string }
type reservationKey struct{ sale, product string }
type sequenceKey struct {
	store, prefix string
	year          int
}
type creditKey struct{ store, customer string }

type state struct {
	stores        map[string]entity.Store
	products      map[string]entity.Product
	customers     map[string]entity.Customer
	sales         map[string]entity.Sale
	items         map[string][]entity.SaleItem
	stock         map[stockKey]entity.ProductStock
	reservations  map[reservationKey]entity.StockReservation
	movements     []entity.InventoryMovement
	payments      []entity.Payment
	refunds       []entity.Refund
	shifts        map[string]entity.CashShift
	sequences     map[sequenceKey]int64
	accounts      map[creditKey]entity.CreditAccount
	creditEntries []entity.CreditLedgerEntry
}

func newState() *state {
	return &state{
		stores:       map[string]entity.Store{},
		products:     map[string]entity.Product{},
		customers:    map[string]entity.Customer{},
		sales:        map[string]entity.Sale{},
		items:        map[string][]entity.SaleItem{},
		stock:        map[stockKey]entity.ProductStock{},
		reservations: map[reservationKey]entity.StockReservation{},
		shifts:       map[string]entity.CashShift{},
		sequences:    map[sequenceKey]int64{},
		accounts:     map[creditKey]entity.CreditAccount{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *state) clone() *state {
	items := make(map[string][]entity.SaleItem, len(s.items))
	for k, v := range s.items {
		items[k] = append([]entity.SaleItem(nil), v...)
	}
	return &state{
		stores:        cloneMap(s.stores),
		products:      cloneMap(s.products),
		customers:     cloneMap(s.customers),
		sales:         cloneMap(s.sales),
		items:         items,
		stock:         cloneMap(s.stock),
		reservations:  cloneMap(s.reservations),
		movements:     append([]entity.InventoryMovement(nil), s.movements...),
		payments:      append([]entity.Payment(nil), s.payments...),
		refunds:       append([]entity.Refund(nil), s.refunds...),
		shifts:        cloneMap(s.shifts),
		sequences:     cloneMap(s.sequences),
		accounts:      cloneMap(s.accounts),
		creditEntries: append([]entity.CreditLedgerEntry(nil), s.creditEntries...),
	}
}

// Store base de datos en memoria.
type Store struct {
	mu    sync.Mutex
	st    *state
	audit []entity.AuditEntry

	// AuditErr si no es nil, Create de auditoría falla con este error.
	AuditErr error
}

// New crea un store vacío.
func New() *Store {
	return &Store{st: newState()}
}

// Run implementa uow.TxRunner.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := s.st.clone()
	defer func() {
		if p := recover(); p != nil {
			s.st = snapshot
			panic(p)
		}
		if err != nil {
			s.st = snapshot
		}
	}()
	return fn(ctx, s.repos())
}

func (s *Store) repos() repository.Repos {
	return repository.Repos{
		Stores:       storeRepo{s},
		Products:     productRepo{s},
		Customers:    customerRepo{s},
		Sales:        saleRepo{s},
		Stock:        stockRepo{s},
		Reservations: reservationRepo{s},
		Movements:    movementRepo{s},
		Payments:     paymentRepo{s},
		Refunds:      refundRepo{s},
		Shifts:       shiftRepo{s},
		Sequences:    sequenceRepo{s},
		Credit:       creditRepo{s},
	}
}

// AuditRepository repositorio de auditoría fuera de transacción.
func (s *Store) AuditRepository() repository.AuditRepository {
	return auditRepo{s}
}

// Semillas e inspección para tests.

// PutStore registra una tienda.
func (s *Store) PutStore(v entity.Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.stores[v.ID] = v
}

// PutProduct registra un producto.
func (s *Store) PutProduct(v entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.products[v.ID] = v
}

// PutCustomer registra un cliente.
func (s *Store) PutCustomer(v entity.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.customers[v.ID] = v
}

// PutStock fija las existencias de un producto.
func (s *Store) PutStock(v entity.ProductStock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.stock[stockKey{v.StoreID, v.ProductID}] = v
}

// PutCreditAccount registra una cuenta de crédito.
func (s *Store) PutCreditAccount(v entity.CreditAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.accounts[creditKey{v.StoreID, v.CustomerID}] = v
}

// Product producto por id.
func (s *Store) Product(id string) entity.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.products[id]
}

// Stock existencias actuales (cero si no hay fila).
func (s *Store) Stock(storeID, productID string) entity.ProductStock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.stock[stockKey{storeID, productID}]
}

// Reservation reserva de la venta sobre el producto.
func (s *Store) Reservation(saleID, productID string) entity.StockReservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.reservations[reservationKey{saleID, productID}]
}

// Movements copia del libro de movimientos.
func (s *Store) Movements() []entity.InventoryMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.InventoryMovement(nil), s.st.movements...)
}

// Payments copia de los pagos.
func (s *Store) Payments() []entity.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.Payment(nil), s.st.payments...)
}

// CreditAccount cuenta del cliente en la tienda.
func (s *Store) CreditAccount(storeID, customerID string) entity.CreditAccount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.accounts[creditKey{storeID, customerID}]
}

// Shift turno por id.
func (s *Store) Shift(id string) entity.CashShift {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.shifts[id]
}

// AuditEntries copia de la bitácora.
func (s *Store) AuditEntries() []entity.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.AuditEntry(nil), s.audit...)
}

func errDuplicate(what string) error {
	return fmt.Errorf("%w: %s", errDup, what)
}
