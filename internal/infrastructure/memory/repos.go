package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Los repositorios operan con el mutex ya tomado por Run y devuelven copias.

var errDup = domain.ErrDuplicate

type storeRepo struct{ s *Store }

func (r storeRepo) GetByID(_ context.Context, id string) (*entity.Store, error) {
	v, ok := r.s.st.stores[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

type productRepo struct{ s *Store }

func (r productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	v, ok := r.s.st.products[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (r productRepo) UpdateCost(_ context.Context, productID string, cost decimal.Decimal) error {
	v, ok := r.s.st.products[productID]
	if !ok {
		return domain.ErrNotFound
	}
	v.CostPrice = cost
	r.s.st.products[productID] = v
	return nil
}

type customerRepo struct{ s *Store }

func (r customerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	v, ok := r.s.st.customers[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

type saleRepo struct{ s *Store }

func (r saleRepo) Create(_ context.Context, sale *entity.Sale) error {
	if _, ok := r.s.st.sales[sale.ID]; ok {
		return errDuplicate("sale " + sale.ID)
	}
	r.s.st.sales[sale.ID] = *sale
	return nil
}

func (r saleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	v, ok := r.s.st.sales[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (r saleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.GetByID(ctx, id)
}

func (r saleRepo) Update(_ context.Context, sale *entity.Sale) error {
	if _, ok := r.s.st.sales[sale.ID]; !ok {
		return domain.ErrNotFound
	}
	if sale.InvoiceNumber != nil {
		for id, other := range r.s.st.sales {
			if id != sale.ID && other.StoreID == sale.StoreID && other.InvoiceNumber != nil && *other.InvoiceNumber == *sale.InvoiceNumber {
				return errDuplicate("invoice_number " + *sale.InvoiceNumber)
			}
		}
	}
	r.s.st.sales[sale.ID] = *sale
	return nil
}

func (r saleRepo) ListItems(_ context.Context, saleID string) ([]*entity.SaleItem, error) {
	list := r.s.st.items[saleID]
	out := make([]*entity.SaleItem, 0, len(list))
	for i := range list {
		v := list[i]
		out = append(out, &v)
	}
	return out, nil
}

func (r saleRepo) CreateItem(_ context.Context, item *entity.SaleItem) error {
	r.s.st.items[item.SaleID] = append(r.s.st.items[item.SaleID], *item)
	return nil
}

func (r saleRepo) UpdateItem(_ context.Context, item *entity.SaleItem) error {
	list := r.s.st.items[item.SaleID]
	for i := range list {
		if list[i].ID == item.ID {
			list[i] = *item
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r saleRepo) DeleteItem(_ context.Context, saleID, itemID string) error {
	list := r.s.st.items[saleID]
	for i := range list {
		if list[i].ID == itemID {
			r.s.st.items[saleID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

type stockRepo struct{ s *Store }

func (r stockRepo) Get(_ context.Context, storeID, productID string) (*entity.ProductStock, error) {
	v, ok := r.s.st.stock[stockKey{storeID, productID}]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (r stockRepo) GetForUpdate(ctx context.Context, storeID, productID string) (*entity.ProductStock, error) {
	return r.Get(ctx, storeID, productID)
}

func (r stockRepo) Create(_ context.Context, st *entity.ProductStock) error {
	k := stockKey{st.StoreID, st.ProductID}
	if _, ok := r.s.st.stock[k]; ok {
		return errDuplicate("product_stock")
	}
	r.s.st.stock[k] = *st
	return nil
}

func (r stockRepo) Update(_ context.Context, st *entity.ProductStock) error {
	if st.Quantity < 0 || st.ReservedQty < 0 {
		return domain.ErrInsufficientStock
	}
	r.s.st.stock[stockKey{st.StoreID, st.ProductID}] = *st
	return nil
}

func (r stockRepo) ListBelowMin(_ context.Context, storeID string) ([]*entity.ProductStock, error) {
	var out []*entity.ProductStock
	for k, v := range r.s.st.stock {
		if k.store == storeID && v.Available() < v.MinQty {
			v := v
			out = append(out, &v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

type reservationRepo struct{ s *Store }

func (r reservationRepo) GetForUpdate(_ context.Context, saleID, productID string) (*entity.StockReservation, error) {
	v, ok := r.s.st.reservations[reservationKey{saleID, productID}]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (r reservationRepo) Upsert(_ context.Context, res *entity.StockReservation) error {
	r.s.st.reservations[reservationKey{res.SaleID, res.ProductID}] = *res
	return nil
}

func (r reservationRepo) ListBySale(_ context.Context, saleID string) ([]*entity.StockReservation, error) {
	var out []*entity.StockReservation
	for k, v := range r.s.st.reservations {
		if k.sale == saleID {
			v := v
			out = append(out, &v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

type movementRepo struct{ s *Store }

func (r movementRepo) Create(_ context.Context, m *entity.InventoryMovement) error {
	r.s.st.movements = append(r.s.st.movements, *m)
	return nil
}

func (r movementRepo) ListByReference(_ context.Context, storeID, reference string) ([]*entity.InventoryMovement, error) {
	var out []*entity.InventoryMovement
	for _, m := range r.s.st.movements {
		if m.StoreID == storeID && m.Reference == reference {
			m := m
			out = append(out, &m)
		}
	}
	return out, nil
}

func (r movementRepo) SumByReference(_ context.Context, storeID, reference string, t entity.MovementType) (map[string]int, error) {
	out := map[string]int{}
	for _, m := range r.s.st.movements {
		if m.StoreID == storeID && m.Reference == reference && m.Type == t {
			out[m.ProductID] += m.Quantity
		}
	}
	return out, nil
}

type paymentRepo struct{ s *Store }

func (r paymentRepo) Create(_ context.Context, p *entity.Payment) error {
	r.s.st.payments = append(r.s.st.payments, *p)
	return nil
}

func (r paymentRepo) ListBySale(_ context.Context, saleID string) ([]*entity.Payment, error) {
	var out []*entity.Payment
	for _, p := range r.s.st.payments {
		if p.SaleID == saleID {
			p := p
			out = append(out, &p)
		}
	}
	return out, nil
}

type refundRepo struct{ s *Store }

func (r refundRepo) Create(_ context.Context, v *entity.Refund) error {
	r.s.st.refunds = append(r.s.st.refunds, *v)
	return nil
}

func (r refundRepo) ListBySale(_ context.Context, saleID string) ([]*entity.Refund, error) {
	var out []*entity.Refund
	for _, v := range r.s.st.refunds {
		if v.SaleID == saleID {
			v := v
			out = append(out, &v)
		}
	}
	return out, nil
}

type shiftRepo struct{ s *Store }

func (r shiftRepo) Create(_ context.Context, sh *entity.CashShift) error {
	if sh.Status == entity.ShiftOpen {
		for _, other := range r.s.st.shifts {
			if other.Status == entity.ShiftOpen && other.StoreID == sh.StoreID && other.CashierID == sh.CashierID {
				return errDuplicate("open cash_shift")
			}
		}
	}
	r.s.st.shifts[sh.ID] = *sh
	return nil
}

func (r shiftRepo) GetByID(_ context.Context, id string) (*entity.CashShift, error) {
	v, ok := r.s.st.shifts[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (r shiftRepo) GetForUpdate(ctx context.Context, id string) (*entity.CashShift, error) {
	return r.GetByID(ctx, id)
}

func (r shiftRepo) GetOpen(_ context.Context, storeID, cashierID string) (*entity.CashShift, error) {
	for _, v := range r.s.st.shifts {
		if v.Status == entity.ShiftOpen && v.StoreID == storeID && v.CashierID == cashierID {
			v := v
			return &v, nil
		}
	}
	return nil, nil
}

func (r shiftRepo) Update(_ context.Context, sh *entity.CashShift) error {
	if _, ok := r.s.st.shifts[sh.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.st.shifts[sh.ID] = *sh
	return nil
}

type sequenceRepo struct{ s *Store }

func (r sequenceRepo) Increment(_ context.Context, storeID, prefix string, year int) (int64, error) {
	k := sequenceKey{storeID, prefix, year}
	r.s.st.sequences[k]++
	return r.s.st.sequences[k], nil
}

type creditRepo struct{ s *Store }

func (r creditRepo) GetAccountForUpdate(_ context.Context, storeID, customerID string) (*entity.CreditAccount, error) {
	v, ok := r.s.st.accounts[creditKey{storeID, customerID}]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (r creditRepo) UpdateAccount(_ context.Context, acc *entity.CreditAccount) error {
	r.s.st.accounts[creditKey{acc.StoreID, acc.CustomerID}] = *acc
	return nil
}

func (r creditRepo) CreateEntry(_ context.Context, e *entity.CreditLedgerEntry) error {
	r.s.st.creditEntries = append(r.s.st.creditEntries, *e)
	return nil
}

type auditRepo struct{ s *Store }

func (r auditRepo) Create(_ context.Context, e *entity.AuditEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.AuditErr != nil {
		return r.s.AuditErr
	}
	r.s.audit = append(r.s.audit, *e)
	return nil
}
