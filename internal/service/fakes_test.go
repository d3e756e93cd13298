package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"tailorshop/internal/events"
	"tailorshop/internal/model"
	"tailorshop/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// memDB backs every repository interface with maps. Transactions are serialized and
// rolled back by restoring a snapshot, which is enough to observe atomicity in tests.
type memDB struct {
	txMu sync.Mutex
	mu   sync.Mutex
	s    memState

	failures map[string]int
}

type memState struct {
	orders       map[string]model.Order
	items        map[string][]model.Item
	fabrics      []model.Fabric
	measurements []model.Measurement
	transactions []model.Transaction
	products     map[uuid.UUID]model.ProductInventory
	fabricStock  map[uuid.UUID]model.FabricInventory
	movements    []model.InventoryMovement
	customers    map[uuid.UUID]model.Customer
	salesPersons map[uuid.UUID]model.SalesPerson
	tailors      map[uuid.UUID]model.Tailor
	suppliers    map[uuid.UUID]model.Supplier
	sections     map[string]model.Section
	services     map[string]model.Service
	audits       []model.AuditLog
}

func newMemDB() *memDB {
	return &memDB{
		s: memState{
			orders:       map[string]model.Order{},
			items:        map[string][]model.Item{},
			products:     map[uuid.UUID]model.ProductInventory{},
			fabricStock:  map[uuid.UUID]model.FabricInventory{},
			customers:    map[uuid.UUID]model.Customer{},
			salesPersons: map[uuid.UUID]model.SalesPerson{},
			tailors:      map[uuid.UUID]model.Tailor{},
			suppliers:    map[uuid.UUID]model.Supplier{},
			sections:     map[string]model.Section{},
			services:     map[string]model.Service{},
		},
		failures: map[string]int{},
	}
}

func (s memState) clone() memState {
	c := memState{
		orders:       make(map[string]model.Order, len(s.orders)),
		items:        make(map[string][]model.Item, len(s.items)),
		fabrics:      append([]model.Fabric(nil), s.fabrics...),
		measurements: append([]model.Measurement(nil), s.measurements...),
		transactions: append([]model.Transaction(nil), s.transactions...),
		products:     make(map[uuid.UUID]model.ProductInventory, len(s.products)),
		fabricStock:  make(map[uuid.UUID]model.FabricInventory, len(s.fabricStock)),
		movements:    append([]model.InventoryMovement(nil), s.movements...),
		customers:    make(map[uuid.UUID]model.Customer, len(s.customers)),
		salesPersons: make(map[uuid.UUID]model.SalesPerson, len(s.salesPersons)),
		tailors:      make(map[uuid.UUID]model.Tailor, len(s.tailors)),
		suppliers:    make(map[uuid.UUID]model.Supplier, len(s.suppliers)),
		sections:     make(map[string]model.Section, len(s.sections)),
		services:     make(map[string]model.Service, len(s.services)),
		audits:       append([]model.AuditLog(nil), s.audits...),
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.items {
		c.items[k] = append([]model.Item(nil), v...)
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.fabricStock {
		c.fabricStock[k] = v
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.salesPersons {
		c.salesPersons[k] = v
	}
	for k, v := range s.tailors {
		c.tailors[k] = v
	}
	for k, v := range s.suppliers {
		c.suppliers[k] = v
	}
	for k, v := range s.sections {
		c.sections[k] = v
	}
	for k, v := range s.services {
		c.services[k] = v
	}
	return c
}

type memTxKey struct{}

// do runs fn against the state. Calls outside a transaction take the transaction lock
// so they never interleave with a transaction that may still roll back.
func (db *memDB) do(ctx context.Context, fn func(s *memState) error) error {
	if ctx.Value(memTxKey{}) == nil {
		db.txMu.Lock()
		defer db.txMu.Unlock()
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	return fn(&db.s)
}

// failNext makes the next n calls of op fail
func (db *memDB) failNext(op string, n int) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.failures[op] = n
}

// injected must be called with mu held
func (db *memDB) injected(op string) error {
	if db.failures[op] > 0 {
		db.failures[op]--
		return fmt.Errorf("injected %s failure", op)
	}
	return nil
}

func (db *memDB) snapshot() memState {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.s.clone()
}

func (db *memDB) restore(s memState) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.s = s
}

func (db *memDB) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		snap := db.snapshot()
		if err := fn(ctx); err != nil {
			db.restore(snap)
			return err
		}
		return nil
	}

	db.txMu.Lock()
	defer db.txMu.Unlock()
	snap := db.snapshot()
	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		db.restore(snap)
		return err
	}
	return nil
}

func (db *memDB) read(fn func(s *memState)) {
	db.mu.Lock()
	defer db.mu.Unlock()
	fn(&db.s)
}

func paginate[T any](rows []T, page, limit int) []T {
	start := (page - 1) * limit
	if start >= len(rows) {
		return []T{}
	}
	end := start + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// ---- orders ----

type memOrders struct{ db *memDB }

func (r memOrders) Create(ctx context.Context, order *model.Order) error {
	return r.db.do(ctx, func(s *memState) error {
		if err := r.db.injected("orders.create"); err != nil {
			return err
		}
		if _, ok := s.orders[order.InvoiceID]; ok {
			return fmt.Errorf("orders_pkey: %w", gorm.ErrDuplicatedKey)
		}
		row := *order
		row.Items, row.Fabrics, row.Measurements, row.Transactions = nil, nil, nil, nil
		s.orders[order.InvoiceID] = row
		return nil
	})
}

func (r memOrders) CreateItems(ctx context.Context, items []model.Item) error {
	return r.db.do(ctx, func(s *memState) error {
		for _, it := range items {
			s.items[it.OrderInvoiceID] = append(s.items[it.OrderInvoiceID], it)
		}
		return nil
	})
}

func (r memOrders) Exists(ctx context.Context, invoiceID string) (bool, error) {
	var ok bool
	err := r.db.do(ctx, func(s *memState) error {
		// a stale read lets a concurrent create with the same id slip past the check
		if r.db.failures["orders.exists.stale"] > 0 {
			r.db.failures["orders.exists.stale"]--
			return nil
		}
		_, ok = s.orders[invoiceID]
		return nil
	})
	return ok, err
}

func (s *memState) assemble(invoiceID string, full bool) (*model.Order, error) {
	row, ok := s.orders[invoiceID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	o := row
	o.Items = append([]model.Item(nil), s.items[invoiceID]...)
	for _, f := range s.fabrics {
		if f.OrderInvoiceID == invoiceID {
			o.Fabrics = append(o.Fabrics, f)
		}
	}
	if full {
		for _, m := range s.measurements {
			if m.OrderInvoiceID == invoiceID {
				o.Measurements = append(o.Measurements, m)
			}
		}
		for _, t := range s.transactions {
			if t.OrderInvoiceID == invoiceID {
				o.Transactions = append(o.Transactions, t)
			}
		}
	}
	return &o, nil
}

func (r memOrders) FindByInvoiceID(ctx context.Context, invoiceID string) (*model.Order, error) {
	var o *model.Order
	err := r.db.do(ctx, func(s *memState) (err error) {
		o, err = s.assemble(invoiceID, true)
		return err
	})
	return o, err
}

func (r memOrders) FindForUpdate(ctx context.Context, invoiceID string) (*model.Order, error) {
	var o *model.Order
	err := r.db.do(ctx, func(s *memState) (err error) {
		o, err = s.assemble(invoiceID, false)
		return err
	})
	return o, err
}

func (r memOrders) FindByTrackingToken(ctx context.Context, token string) (*model.Order, error) {
	var o *model.Order
	err := r.db.do(ctx, func(s *memState) error {
		for id, row := range s.orders {
			if row.TrackingToken == token {
				var err error
				o, err = s.assemble(id, true)
				return err
			}
		}
		return gorm.ErrRecordNotFound
	})
	return o, err
}

func (r memOrders) List(ctx context.Context, filter repository.OrderFilter, page, limit int) ([]model.Order, int64, error) {
	var out []model.Order
	err := r.db.do(ctx, func(s *memState) error {
		for _, row := range s.orders {
			if filter.CustomerID != nil && row.CustomerID != *filter.CustomerID {
				continue
			}
			if filter.SalesPersonID != nil && row.SalesPersonID != *filter.SalesPersonID {
				continue
			}
			if filter.AssignedTo != nil && (row.AssignedTo == nil || *row.AssignedTo != *filter.AssignedTo) {
				continue
			}
			if filter.Status != "" && row.Status != filter.Status {
				continue
			}
			out = append(out, row)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].InvoiceID > out[j].InvoiceID })
	return paginate(out, page, limit), int64(len(out)), err
}

func (r memOrders) Update(ctx context.Context, invoiceID string, updates map[string]interface{}) error {
	return r.db.do(ctx, func(s *memState) error {
		o, ok := s.orders[invoiceID]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		for k, v := range updates {
			switch k {
			case "status":
				o.Status = v.(string)
			case "branch":
				o.Branch = v.(string)
			case "notes":
				o.Notes = v.(string)
			case "delivery_date":
				d := v.(time.Time)
				o.DeliveryDate = &d
			case "assigned_to":
				id := v.(uuid.UUID)
				o.AssignedTo = &id
			case "relations_status":
				o.RelationsStatus = v.(string)
			case "relations_error":
				o.RelationsError = v.(string)
			case "paid_amount":
				o.PaidAmount = v.(decimal.Decimal)
			case "pending_amount":
				o.PendingAmount = v.(decimal.Decimal)
			case "payment_status":
				o.PaymentStatus = v.(string)
			case "payment_date":
				d := v.(time.Time)
				o.PaymentDate = &d
			default:
				return fmt.Errorf("memOrders: unsupported column %q", k)
			}
		}
		s.orders[invoiceID] = o
		return nil
	})
}

func (r memOrders) SwapStatsApplied(ctx context.Context, invoiceID string, from, to bool) (bool, error) {
	var swapped bool
	err := r.db.do(ctx, func(s *memState) error {
		o, ok := s.orders[invoiceID]
		if !ok || o.StatsApplied != from {
			return nil
		}
		o.StatsApplied = to
		s.orders[invoiceID] = o
		swapped = true
		return nil
	})
	return swapped, err
}

func (r memOrders) Delete(ctx context.Context, invoiceID string) error {
	return r.db.do(ctx, func(s *memState) error {
		if _, ok := s.orders[invoiceID]; !ok {
			return gorm.ErrRecordNotFound
		}
		delete(s.orders, invoiceID)
		delete(s.items, invoiceID)
		s.fabrics = without(s.fabrics, func(f model.Fabric) bool { return f.OrderInvoiceID == invoiceID })
		s.measurements = without(s.measurements, func(m model.Measurement) bool { return m.OrderInvoiceID == invoiceID })
		s.transactions = without(s.transactions, func(t model.Transaction) bool { return t.OrderInvoiceID == invoiceID })
		return nil
	})
}

func without[T any](rows []T, drop func(T) bool) []T {
	out := rows[:0:0]
	for _, r := range rows {
		if !drop(r) {
			out = append(out, r)
		}
	}
	return out
}

func (r memOrders) LockInvoicePrefix(context.Context, string) error { return nil }

func (r memOrders) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	var n int64
	err := r.db.do(ctx, func(s *memState) error {
		for id := range s.orders {
			if strings.HasPrefix(id, prefix) {
				n++
			}
		}
		return nil
	})
	return n, err
}

// ---- order relations ----

type memFabrics struct{ db *memDB }

func (r memFabrics) FindByReference(ctx context.Context, reference string) (*model.Fabric, error) {
	var out *model.Fabric
	err := r.db.do(ctx, func(s *memState) error {
		for _, f := range s.fabrics {
			if f.Reference == reference {
				f := f
				out = &f
				return nil
			}
		}
		return gorm.ErrRecordNotFound
	})
	return out, err
}

func (r memFabrics) Create(ctx context.Context, fabric *model.Fabric) error {
	return r.db.do(ctx, func(s *memState) error {
		if err := r.db.injected("fabrics.create"); err != nil {
			return err
		}
		if fabric.ID == uuid.Nil {
			fabric.ID = uuid.New()
		}
		s.fabrics = append(s.fabrics, *fabric)
		return nil
	})
}

func (r memFabrics) ListByOrder(ctx context.Context, invoiceID string) ([]model.Fabric, error) {
	var out []model.Fabric
	err := r.db.do(ctx, func(s *memState) error {
		for _, f := range s.fabrics {
			if f.OrderInvoiceID == invoiceID {
				out = append(out, f)
			}
		}
		return nil
	})
	return out, err
}

func (r memFabrics) ListByOrderStatus(ctx context.Context, statuses []string) ([]model.Fabric, error) {
	var out []model.Fabric
	err := r.db.do(ctx, func(s *memState) error {
		for _, f := range s.fabrics {
			for _, st := range statuses {
				if s.orders[f.OrderInvoiceID].Status == st {
					out = append(out, f)
					break
				}
			}
		}
		return nil
	})
	return out, err
}

type memMeasurements struct{ db *memDB }

func (r memMeasurements) CreateIfAbsent(ctx context.Context, m *model.Measurement) (bool, error) {
	var created bool
	err := r.db.do(ctx, func(s *memState) error {
		for _, existing := range s.measurements {
			if existing.Reference == m.Reference {
				return nil
			}
		}
		m.ID = uuid.New()
		s.measurements = append(s.measurements, *m)
		created = true
		return nil
	})
	return created, err
}

func (r memMeasurements) ListByOrder(ctx context.Context, invoiceID string) ([]model.Measurement, error) {
	var out []model.Measurement
	err := r.db.do(ctx, func(s *memState) error {
		for _, m := range s.measurements {
			if m.OrderInvoiceID == invoiceID {
				out = append(out, m)
			}
		}
		return nil
	})
	return out, err
}

type memTransactions struct{ db *memDB }

func (r memTransactions) CreateIfAbsent(ctx context.Context, t *model.Transaction) (bool, error) {
	var created bool
	err := r.db.do(ctx, func(s *memState) error {
		if err := r.db.injected("transactions.create"); err != nil {
			return err
		}
		for _, existing := range s.transactions {
			if existing.Reference == t.Reference {
				return nil
			}
		}
		t.ID = uuid.New()
		s.transactions = append(s.transactions, *t)
		created = true
		return nil
	})
	return created, err
}

func (r memTransactions) ListByOrder(ctx context.Context, invoiceID string) ([]model.Transaction, error) {
	var out []model.Transaction
	err := r.db.do(ctx, func(s *memState) error {
		for _, t := range s.transactions {
			if t.OrderInvoiceID == invoiceID {
				out = append(out, t)
			}
		}
		return nil
	})
	return out, err
}

func (r memTransactions) SumByOrder(ctx context.Context, invoiceID string) (decimal.Decimal, error) {
	rows, err := r.ListByOrder(ctx, invoiceID)
	total := decimal.Zero
	for _, t := range rows {
		total = total.Add(t.Amount)
	}
	return total, err
}

// ---- parties ----

type memCustomers struct{ db *memDB }

func (r memCustomers) FindByName(ctx context.Context, name string) (*model.Customer, error) {
	var out *model.Customer
	err := r.db.do(ctx, func(s *memState) error {
		for _, c := range s.customers {
			if c.Name == name && (out == nil || c.CreatedAt.Before(out.CreatedAt)) {
				c := c
				out = &c
			}
		}
		if out == nil {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return out, err
}

func (r memCustomers) FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var out *model.Customer
	err := r.db.do(ctx, func(s *memState) error {
		c, ok := s.customers[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		out = &c
		return nil
	})
	return out, err
}

func (r memCustomers) Create(ctx context.Context, customer *model.Customer) error {
	return r.db.do(ctx, func(s *memState) error {
		customer.ID = uuid.New()
		// strictly increasing so "oldest" is deterministic
		customer.CreatedAt = time.Date(2026, 1, 1, 0, 0, len(s.customers), 0, time.UTC)
		s.customers[customer.ID] = *customer
		return nil
	})
}

func (r memCustomers) sorted() []model.Customer {
	var out []model.Customer
	r.db.read(func(s *memState) {
		for _, c := range s.customers {
			out = append(out, c)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r memCustomers) List(_ context.Context, page, limit int, search string) ([]model.Customer, int64, error) {
	var out []model.Customer
	for _, c := range r.sorted() {
		if search == "" || strings.Contains(strings.ToLower(c.Name), strings.ToLower(search)) {
			out = append(out, c)
		}
	}
	return paginate(out, page, limit), int64(len(out)), nil
}

func (r memCustomers) ListDistinctByPhone(context.Context) ([]model.Customer, error) {
	seen := map[string]bool{}
	var out []model.Customer
	for _, c := range r.sorted() {
		if seen[c.Phone] {
			continue
		}
		seen[c.Phone] = true
		out = append(out, c)
	}
	return out, nil
}

type memSalesPersons struct{ db *memDB }

func (r memSalesPersons) FindByName(ctx context.Context, name string) (*model.SalesPerson, error) {
	var out *model.SalesPerson
	err := r.db.do(ctx, func(s *memState) error {
		for _, sp := range s.salesPersons {
			if sp.Name == name {
				sp := sp
				out = &sp
				return nil
			}
		}
		return gorm.ErrRecordNotFound
	})
	return out, err
}

func (r memSalesPersons) Create(ctx context.Context, sp *model.SalesPerson) error {
	return r.db.do(ctx, func(s *memState) error {
		sp.ID = uuid.New()
		sp.CreatedAt = time.Now()
		s.salesPersons[sp.ID] = *sp
		return nil
	})
}

func (r memSalesPersons) FindByID(ctx context.Context, id uuid.UUID) (*model.SalesPerson, error) {
	var out *model.SalesPerson
	err := r.db.do(ctx, func(s *memState) error {
		sp, ok := s.salesPersons[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		out = &sp
		return nil
	})
	return out, err
}

func (r memSalesPersons) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	return r.db.do(ctx, func(s *memState) error {
		sp, ok := s.salesPersons[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		for k, v := range updates {
			switch k {
			case "name":
				sp.Name = v.(string)
			case "phone":
				sp.Phone = v.(string)
			default:
				return fmt.Errorf("memSalesPersons: unsupported column %q", k)
			}
		}
		s.salesPersons[id] = sp
		return nil
	})
}

func (r memSalesPersons) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.do(ctx, func(s *memState) error {
		if _, ok := s.salesPersons[id]; !ok {
			return gorm.ErrRecordNotFound
		}
		delete(s.salesPersons, id)
		return nil
	})
}

func (r memSalesPersons) HasOrders(ctx context.Context, id uuid.UUID) (bool, error) {
	var found bool
	err := r.db.do(ctx, func(s *memState) error {
		for _, o := range s.orders {
			if o.SalesPersonID == id {
				found = true
			}
		}
		return nil
	})
	return found, err
}

func (r memSalesPersons) List(ctx context.Context) ([]model.SalesPerson, error) {
	var out []model.SalesPerson
	err := r.db.do(ctx, func(s *memState) error {
		for _, sp := range s.salesPersons {
			out = append(out, sp)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

type memTailors struct{ db *memDB }

func (r memTailors) FindByID(ctx context.Context, id uuid.UUID) (*model.Tailor, error) {
	var out *model.Tailor
	err := r.db.do(ctx, func(s *memState) error {
		tailor, ok := s.tailors[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		out = &tailor
		return nil
	})
	return out, err
}

func (r memTailors) Create(ctx context.Context, tailor *model.Tailor) error {
	return r.db.do(ctx, func(s *memState) error {
		tailor.ID = uuid.New()
		s.tailors[tailor.ID] = *tailor
		return nil
	})
}

func (r memTailors) List(ctx context.Context) ([]model.Tailor, error) {
	var out []model.Tailor
	err := r.db.do(ctx, func(s *memState) error {
		for _, tailor := range s.tailors {
			out = append(out, tailor)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

type memSuppliers struct{ db *memDB }

func (r memSuppliers) FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	var out *model.Supplier
	err := r.db.do(ctx, func(s *memState) error {
		sup, ok := s.suppliers[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		out = &sup
		return nil
	})
	return out, err
}

func (r memSuppliers) ExistsByName(ctx context.Context, name string) (bool, error) {
	var found bool
	err := r.db.do(ctx, func(s *memState) error {
		for _, sup := range s.suppliers {
			if sup.Name == name {
				found = true
			}
		}
		return nil
	})
	return found, err
}

func (r memSuppliers) Create(ctx context.Context, supplier *model.Supplier) error {
	return r.db.do(ctx, func(s *memState) error {
		supplier.ID = uuid.New()
		s.suppliers[supplier.ID] = *supplier
		return nil
	})
}

func (r memSuppliers) List(ctx context.Context) ([]model.Supplier, error) {
	var out []model.Supplier
	err := r.db.do(ctx, func(s *memState) error {
		for _, sup := range s.suppliers {
			out = append(out, sup)
		}
		return nil
	})
	return out, err
}

// ---- catalogue ----

type memCatalog struct{ db *memDB }

func (r memCatalog) FindServiceByName(ctx context.Context, name string) (*model.Service, error) {
	var out *model.Service
	err := r.db.do(ctx, func(s *memState) error {
		svc, ok := s.services[name]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		out = &svc
		return nil
	})
	return out, err
}

func (r memCatalog) CreateService(ctx context.Context, svc *model.Service) error {
	return r.db.do(ctx, func(s *memState) error {
		svc.ID = uuid.New()
		s.services[svc.Name] = *svc
		return nil
	})
}

func (r memCatalog) ListServices(ctx context.Context, sectionName string) ([]model.Service, error) {
	var out []model.Service
	err := r.db.do(ctx, func(s *memState) error {
		for _, svc := range s.services {
			if sectionName == "" || svc.SectionName == sectionName {
				out = append(out, svc)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (r memCatalog) FindSectionByName(ctx context.Context, name string) (*model.Section, error) {
	var out *model.Section
	err := r.db.do(ctx, func(s *memState) error {
		sec, ok := s.sections[name]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		out = &sec
		return nil
	})
	return out, err
}

func (r memCatalog) CreateSection(ctx context.Context, section *model.Section) error {
	return r.db.do(ctx, func(s *memState) error {
		section.ID = uuid.New()
		s.sections[section.Name] = *section
		return nil
	})
}

func (r memCatalog) ListSections(ctx context.Context) ([]model.Section, error) {
	var out []model.Section
	err := r.db.do(ctx, func(s *memState) error {
		for _, sec := range s.sections {
			out = append(out, sec)
		}
		return nil
	})
	return out, err
}

// ---- inventory ----

type memInventory struct{ db *memDB }

func (s *memState) findStock(sku model.SKU) (model.StockLevel, error) {
	if sku.Kind == model.SKUKindFabric {
		for id, f := range s.fabricStock {
			if f.FabricName == sku.Name && f.Type == sku.Type && f.Color == sku.Color {
				return model.StockLevel{InventoryID: id, SKU: sku, QuantityAvailable: f.QuantityAvailable, ReorderPoint: f.ReorderPoint}, nil
			}
		}
		return model.StockLevel{}, gorm.ErrRecordNotFound
	}
	for id, p := range s.products {
		if p.ProductName == sku.Name {
			return model.StockLevel{InventoryID: id, SKU: sku, QuantityAvailable: p.QuantityAvailable, ReorderPoint: p.ReorderPoint}, nil
		}
	}
	return model.StockLevel{}, gorm.ErrRecordNotFound
}

func (r memInventory) LockStock(ctx context.Context, sku model.SKU) (model.StockLevel, error) {
	return r.GetStock(ctx, sku)
}

func (r memInventory) GetStock(ctx context.Context, sku model.SKU) (model.StockLevel, error) {
	var level model.StockLevel
	err := r.db.do(ctx, func(s *memState) (err error) {
		level, err = s.findStock(sku)
		return err
	})
	return level, err
}

func (r memInventory) GetStockByID(ctx context.Context, id uuid.UUID) (model.StockLevel, error) {
	var level model.StockLevel
	err := r.db.do(ctx, func(s *memState) error {
		if p, ok := s.products[id]; ok {
			level = model.StockLevel{InventoryID: id, SKU: model.ProductSKU(p.ProductName), QuantityAvailable: p.QuantityAvailable, ReorderPoint: p.ReorderPoint}
			return nil
		}
		if f, ok := s.fabricStock[id]; ok {
			level = model.StockLevel{InventoryID: id, SKU: model.FabricSKU(f.FabricName, f.Type, f.Color), QuantityAvailable: f.QuantityAvailable, ReorderPoint: f.ReorderPoint}
			return nil
		}
		return gorm.ErrRecordNotFound
	})
	return level, err
}

func (r memInventory) SetStock(ctx context.Context, level model.StockLevel) error {
	return r.db.do(ctx, func(s *memState) error {
		if level.QuantityAvailable < 0 {
			return errors.New("check constraint violated: quantity_available >= 0")
		}
		if p, ok := s.products[level.InventoryID]; ok {
			p.QuantityAvailable, p.ReorderPoint = level.QuantityAvailable, level.ReorderPoint
			s.products[level.InventoryID] = p
			return nil
		}
		if f, ok := s.fabricStock[level.InventoryID]; ok {
			f.QuantityAvailable, f.ReorderPoint = level.QuantityAvailable, level.ReorderPoint
			s.fabricStock[level.InventoryID] = f
			return nil
		}
		return gorm.ErrRecordNotFound
	})
}

func (r memInventory) CreateProduct(ctx context.Context, inv *model.ProductInventory) error {
	return r.db.do(ctx, func(s *memState) error {
		inv.ID = uuid.New()
		s.products[inv.ID] = *inv
		return nil
	})
}

func (r memInventory) CreateFabric(ctx context.Context, inv *model.FabricInventory) error {
	return r.db.do(ctx, func(s *memState) error {
		inv.ID = uuid.New()
		s.fabricStock[inv.ID] = *inv
		return nil
	})
}

func (r memInventory) ListProducts(ctx context.Context) ([]model.ProductInventory, error) {
	var out []model.ProductInventory
	err := r.db.do(ctx, func(s *memState) error {
		for _, p := range s.products {
			out = append(out, p)
		}
		return nil
	})
	return out, err
}

func (r memInventory) ListFabrics(ctx context.Context) ([]model.FabricInventory, error) {
	var out []model.FabricInventory
	err := r.db.do(ctx, func(s *memState) error {
		for _, f := range s.fabricStock {
			out = append(out, f)
		}
		return nil
	})
	return out, err
}

func (r memInventory) ListLowStock(ctx context.Context) ([]model.StockLevel, error) {
	var out []model.StockLevel
	err := r.db.do(ctx, func(s *memState) error {
		for id, p := range s.products {
			if p.QuantityAvailable <= p.ReorderPoint {
				out = append(out, model.StockLevel{InventoryID: id, SKU: model.ProductSKU(p.ProductName), QuantityAvailable: p.QuantityAvailable, ReorderPoint: p.ReorderPoint})
			}
		}
		for id, f := range s.fabricStock {
			if f.QuantityAvailable <= f.ReorderPoint {
				out = append(out, model.StockLevel{InventoryID: id, SKU: model.FabricSKU(f.FabricName, f.Type, f.Color), QuantityAvailable: f.QuantityAvailable, ReorderPoint: f.ReorderPoint})
			}
		}
		return nil
	})
	return out, err
}

type memMovements struct{ db *memDB }

func (r memMovements) Create(ctx context.Context, movement *model.InventoryMovement) error {
	return r.db.do(ctx, func(s *memState) error {
		movement.ID = uuid.New()
		movement.CreatedAt = time.Now()
		s.movements = append(s.movements, *movement)
		return nil
	})
}

func (r memMovements) ListByInventory(ctx context.Context, inventoryID uuid.UUID) ([]model.InventoryMovement, error) {
	var out []model.InventoryMovement
	err := r.db.do(ctx, func(s *memState) error {
		for _, m := range s.movements {
			if m.InventoryID == inventoryID {
				out = append(out, m)
			}
		}
		return nil
	})
	return out, err
}

func (r memMovements) ListByOrder(ctx context.Context, invoiceID string) ([]model.InventoryMovement, error) {
	var out []model.InventoryMovement
	err := r.db.do(ctx, func(s *memState) error {
		for _, m := range s.movements {
			if m.OrderInvoiceID != nil && *m.OrderInvoiceID == invoiceID {
				out = append(out, m)
			}
		}
		return nil
	})
	return out, err
}

// ---- statistics and audit ----

type memStats struct{ db *memDB }

func (r memStats) Apply(ctx context.Context, entity model.StatEntity, delta model.StatDelta) error {
	return r.db.do(ctx, func(s *memState) error {
		if err := r.db.injected("stats.apply"); err != nil {
			return err
		}
		switch entity.Kind {
		case model.StatCustomer:
			c, ok := s.customers[uuid.MustParse(entity.Key)]
			if !ok {
				return gorm.ErrRecordNotFound
			}
			c.TotalOrders += delta.Orders
			c.TotalSpent = c.TotalSpent.Add(delta.Amount)
			s.customers[c.ID] = c
		case model.StatSalesPerson:
			sp, ok := s.salesPersons[uuid.MustParse(entity.Key)]
			if !ok {
				return gorm.ErrRecordNotFound
			}
			sp.TotalOrders += delta.Orders
			sp.TotalSalesAmount = sp.TotalSalesAmount.Add(delta.Amount)
			s.salesPersons[sp.ID] = sp
		case model.StatService:
			svc, ok := s.services[entity.Key]
			if !ok {
				return gorm.ErrRecordNotFound
			}
			svc.TotalQuantitySold += delta.Quantity
			svc.TotalSalesAmount = svc.TotalSalesAmount.Add(delta.Amount)
			s.services[entity.Key] = svc
		case model.StatSection:
			sec, ok := s.sections[entity.Key]
			if !ok {
				return gorm.ErrRecordNotFound
			}
			sec.TotalQuantitySold += delta.Quantity
			sec.TotalSalesAmount = sec.TotalSalesAmount.Add(delta.Amount)
			s.sections[entity.Key] = sec
		default:
			return fmt.Errorf("unknown statistics entity kind %q", entity.Kind)
		}
		return nil
	})
}

type memAudit struct{ db *memDB }

func (r memAudit) Log(ctx context.Context, entry *model.AuditLog) error {
	return r.db.do(ctx, func(s *memState) error {
		entry.ID = uuid.New()
		entry.CreatedAt = time.Now()
		s.audits = append(s.audits, *entry)
		return nil
	})
}

func (r memAudit) List(ctx context.Context, page, limit int, action string) ([]model.AuditLog, int64, error) {
	var out []model.AuditLog
	err := r.db.do(ctx, func(s *memState) error {
		for i := len(s.audits) - 1; i >= 0; i-- {
			if action == "" || s.audits[i].Action == action {
				out = append(out, s.audits[i])
			}
		}
		return nil
	})
	return paginate(out, page, limit), int64(len(out)), err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.OrderEvent) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return true
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}
