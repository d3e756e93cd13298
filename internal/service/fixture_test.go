package service

import (
	"context"
	"testing"
	"time"

	"tailorshop/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	db        *memDB
	orders    OrderService
	inventory InventoryService
	payments  PaymentService
	catalog   CatalogService
	audit     AuditService
	events    *recordingPublisher
	now       time.Time

	customer    model.Customer
	salesPerson model.SalesPerson
	supplier    model.Supplier
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func intPtr(i int) *int { return &i }

// newFixture wires every service over one memDB and seeds a small shop:
// Shirt x10, Trousers x3 and Kurta x5 ready-made, a tailored Suit, and 20 units of white plain linen.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newMemDB()
	logger := zap.NewNop()
	audit := NewAuditService(memAudit{db}, logger)
	inventory := NewInventoryService(memInventory{db}, memMovements{db}, memSuppliers{db}, memFabrics{db}, db, audit, logger)
	catalog := NewCatalogService(memCatalog{db}, memInventory{db}, memCustomers{db}, memSalesPersons{db}, memTailors{db}, db, audit)
	pub := &recordingPublisher{}
	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

	orders, err := NewOrderService(OrderServiceDeps{
		Orders:       memOrders{db},
		Fabrics:      memFabrics{db},
		Measurements: memMeasurements{db},
		Transactions: memTransactions{db},
		Customers:    memCustomers{db},
		SalesPersons: memSalesPersons{db},
		Tailors:      memTailors{db},
		Catalog:      memCatalog{db},
		Inventory:    memInventory{db},
		TxManager:    db,
		Ledger:       inventory,
		Statistics:   NewStatisticsService(memStats{db}),
		Audit:        audit,
		Events:       pub,
		Logger:       logger,
		Clock:        func() time.Time { return now },
	})
	require.NoError(t, err)
	payments := NewPaymentService(memOrders{db}, memTransactions{db}, db, audit, pub, logger)

	f := &fixture{
		db:        db,
		orders:    orders,
		inventory: inventory,
		payments:  payments,
		catalog:   catalog,
		audit:     audit,
		events:    pub,
		now:       now,
	}

	ctx := context.Background()
	for _, name := range []string{"Men", "Kids"} {
		_, err := catalog.AddSection(ctx, "admin", AddSectionRequest{Name: name})
		require.NoError(t, err)
	}
	for _, svc := range []AddServiceRequest{
		{Name: "Shirt", Type: model.ServiceTypeReadyMade, Price: dec("50"), SectionName: "Men", ReorderPoint: 2},
		{Name: "Trousers", Type: model.ServiceTypeReadyMade, Price: dec("80"), SectionName: "Men"},
		{Name: "Suit", Type: model.ServiceTypeCustomTailored, Price: dec("300"), SectionName: "Men"},
		{Name: "Kurta", Type: model.ServiceTypeBoth, Price: dec("120"), SectionName: "Kids"},
	} {
		_, err := catalog.AddService(ctx, "admin", svc)
		require.NoError(t, err)
	}

	f.supplier, err = inventory.AddSupplier(ctx, "admin", AddSupplierRequest{Name: "Acme Textiles"})
	require.NoError(t, err)
	for name, qty := range map[string]int{"Shirt": 10, "Trousers": 3, "Kurta": 5} {
		_, err := inventory.Restock(ctx, "admin", RestockRequest{SKU: model.ProductSKU(name), Quantity: qty, SupplierID: f.supplier.ID})
		require.NoError(t, err)
	}
	_, err = inventory.AddFabric(ctx, "admin", AddFabricRequest{FabricName: "Linen", Type: "Plain", Color: "White", QuantityAvailable: 20, ReorderPoint: 5})
	require.NoError(t, err)

	f.customer, err = catalog.AddCustomer(ctx, "admin", AddCustomerRequest{Name: "Alice Smith", Phone: "555-0100", Location: "Downtown"})
	require.NoError(t, err)
	f.salesPerson, err = catalog.AddSalesPerson(ctx, "admin", AddSalesPersonRequest{Name: "Bob"})
	require.NoError(t, err)

	return f
}

func (f *fixture) stock(t *testing.T, sku model.SKU) int {
	t.Helper()
	var level model.StockLevel
	var err error
	f.db.read(func(s *memState) { level, err = s.findStock(sku) })
	require.NoError(t, err)
	return level.QuantityAvailable
}

func (f *fixture) customerRow(t *testing.T) model.Customer {
	t.Helper()
	var c model.Customer
	f.db.read(func(s *memState) { c = s.customers[f.customer.ID] })
	return c
}

func (f *fixture) salesPersonRow(t *testing.T) model.SalesPerson {
	t.Helper()
	var sp model.SalesPerson
	f.db.read(func(s *memState) { sp = s.salesPersons[f.salesPerson.ID] })
	return sp
}

func (f *fixture) serviceRow(name string) model.Service {
	var svc model.Service
	f.db.read(func(s *memState) { svc = s.services[name] })
	return svc
}

func (f *fixture) sectionRow(name string) model.Section {
	var sec model.Section
	f.db.read(func(s *memState) { sec = s.sections[name] })
	return sec
}

func (f *fixture) orderCount() int {
	var n int
	f.db.read(func(s *memState) { n = len(s.orders) })
	return n
}

func (f *fixture) auditActions() []string {
	var out []string
	f.db.read(func(s *memState) {
		for _, a := range s.audits {
			out = append(out, a.Action)
		}
	})
	return out
}

func (f *fixture) movementsFor(invoiceID string) []model.InventoryMovement {
	var out []model.InventoryMovement
	f.db.read(func(s *memState) {
		for _, m := range s.movements {
			if m.OrderInvoiceID != nil && *m.OrderInvoiceID == invoiceID {
				out = append(out, m)
			}
		}
	})
	return out
}

func (f *fixture) shirtOrder(qty int) CreateOrderRequest {
	return CreateOrderRequest{
		CustomerName:    "Alice Smith",
		SalesPersonName: "Bob",
		TotalAmount:     dec("50").Mul(decimal.NewFromInt(int64(qty))),
		Items:           []OrderItemRequest{{ProductName: "Shirt", Quantity: qty}},
	}
}

var linen = model.FabricSKU("Linen", "Plain", "White")

func newUUIDPtr(id uuid.UUID) *uuid.UUID { return &id }
