package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"tailorshop/internal/events"
	"tailorshop/internal/model"
	"tailorshop/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// DTOs
type OrderItemRequest struct {
	ProductName string          `json:"product_name"`
	SectionName string          `json:"section_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"` // zero takes the catalogue price
	Quantity    int             `json:"quantity"`
	Type        string          `json:"type"` // READY_MADE, CUSTOM_TAILORED; empty derives from the service
}

type TransactionRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	PaymentType   string          `json:"payment_type"`
	PaidAt        *time.Time      `json:"paid_at"`
}

type FabricRequest struct {
	ItemIndex  *int   `json:"item_index"`
	FabricName string `json:"fabric_name"`
	Type       string `json:"type"`
	Color      string `json:"color"`
	Quantity   int    `json:"quantity"`
}

type MeasurementRequest struct {
	FabricIndex   int    `json:"fabric_index"`
	ProductName   string `json:"product_name"`
	Chest         string `json:"chest"`
	EndOfShow     string `json:"end_of_show"`
	LengthBehind  string `json:"length_behind"`
	LengthInFront string `json:"length_in_front"`
	Shoulder      string `json:"shoulder"`
	Neck          string `json:"neck"`
	Hands         string `json:"hands"`
	Middle        string `json:"middle"`
	Notes         string `json:"notes"`
}

type CreateOrderRequest struct {
	InvoiceID       string               `json:"invoice_id"` // empty generates INV-YYYYMMDD-NNNNN
	Branch          string               `json:"branch"`
	CustomerName    string               `json:"customer_name"`
	SalesPersonName string               `json:"sales_person_name"`
	TotalAmount     decimal.Decimal      `json:"total_amount"`
	Notes           string               `json:"notes"`
	DeliveryDate    *time.Time           `json:"delivery_date"`
	Items           []OrderItemRequest   `json:"items"`
	Transactions    []TransactionRequest `json:"transactions"`
	Fabrics         []FabricRequest      `json:"fabrics"`
	Measurements    []MeasurementRequest `json:"measurements"`
}

type UpdateOrderRequest struct {
	Branch       *string    `json:"branch"`
	Notes        *string    `json:"notes"`
	DeliveryDate *time.Time `json:"delivery_date"`
	Status       *string    `json:"status"`
	AssignedTo   *uuid.UUID `json:"assigned_to"` // tailor to hand the order to
}

type ProductOption struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	SectionName string          `json:"section_name"`
	Price       decimal.Decimal `json:"price"`
}

type CustomerOption struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
}

type SalesPersonOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DistinctValues is the reference data an order-entry form needs
type DistinctValues struct {
	Products     []ProductOption     `json:"products"`
	Customers    []CustomerOption    `json:"customers"`
	SalesPersons []SalesPersonOption `json:"sales_persons"`
}

// OrderEventPublisher receives lifecycle notifications. Implementations must not block.
type OrderEventPublisher interface {
	Publish(ctx context.Context, event events.OrderEvent) bool
}

type OrderService interface {
	CreateOrder(ctx context.Context, actorID string, req CreateOrderRequest) (*model.Order, error)
	CancelOrder(ctx context.Context, actorID, invoiceID string) (*model.Order, error)
	UpdateOrder(ctx context.Context, actorID, invoiceID string, req UpdateOrderRequest) (*model.Order, error)
	DeleteOrder(ctx context.Context, actorID, invoiceID string) error
	GetOrderByID(ctx context.Context, invoiceID string) (*model.Order, error)
	TrackOrder(ctx context.Context, token string) (*model.Order, error)
	ListOrders(ctx context.Context, filter repository.OrderFilter, page, limit int) ([]model.Order, int64, error)
	ListOrdersByTailor(ctx context.Context, tailorID uuid.UUID, page, limit int) ([]model.Order, int64, error)
	GetAllDistinctValues(ctx context.Context) (DistinctValues, error)
}

type OrderServiceDeps struct {
	Orders       repository.OrderRepository
	Fabrics      repository.FabricRepository
	Measurements repository.MeasurementRepository
	Transactions repository.TransactionRepository
	Customers    repository.CustomerRepository
	SalesPersons repository.SalesPersonRepository
	Tailors      repository.TailorRepository
	Catalog      repository.CatalogRepository
	Inventory    repository.InventoryRepository
	TxManager    repository.TransactionManager
	Ledger       InventoryService
	Statistics   StatisticsService
	Audit        AuditService
	Events       OrderEventPublisher
	Logger       *zap.Logger
	Tracer       trace.Tracer
	Clock        func() time.Time
	TokenFunc    func(customerName string, now time.Time) string
}

type orderService struct {
	orders       repository.OrderRepository
	fabrics      repository.FabricRepository
	measurements repository.MeasurementRepository
	transactions repository.TransactionRepository
	customers    repository.CustomerRepository
	salesPersons repository.SalesPersonRepository
	tailors      repository.TailorRepository
	catalog      repository.CatalogRepository
	inventory    repository.InventoryRepository
	txManager    repository.TransactionManager
	ledger       InventoryService
	stats        StatisticsService
	audit        AuditService
	events       OrderEventPublisher
	logger       *zap.Logger
	tracer       trace.Tracer
	clock        func() time.Time
	newToken     func(string, time.Time) string
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, events.OrderEvent) bool { return true }

func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	switch {
	case deps.Orders == nil:
		return nil, errors.New("order service: order repository is required")
	case deps.TxManager == nil:
		return nil, errors.New("order service: transaction manager is required")
	case deps.Ledger == nil:
		return nil, errors.New("order service: inventory ledger is required")
	case deps.Statistics == nil:
		return nil, errors.New("order service: statistics service is required")
	case deps.Audit == nil:
		return nil, errors.New("order service: audit service is required")
	case deps.Fabrics == nil || deps.Measurements == nil || deps.Transactions == nil:
		return nil, errors.New("order service: order relation repositories are required")
	case deps.Customers == nil || deps.SalesPersons == nil || deps.Tailors == nil || deps.Catalog == nil || deps.Inventory == nil:
		return nil, errors.New("order service: lookup repositories are required")
	}

	svc := &orderService{
		orders:       deps.Orders,
		fabrics:      deps.Fabrics,
		measurements: deps.Measurements,
		transactions: deps.Transactions,
		customers:    deps.Customers,
		salesPersons: deps.SalesPersons,
		tailors:      deps.Tailors,
		catalog:      deps.Catalog,
		inventory:    deps.Inventory,
		txManager:    deps.TxManager,
		ledger:       deps.Ledger,
		stats:        deps.Statistics,
		audit:        deps.Audit,
		events:       deps.Events,
		logger:       deps.Logger,
		tracer:       deps.Tracer,
		clock:        deps.Clock,
		newToken:     deps.TokenFunc,
	}
	if svc.events == nil {
		svc.events = noopPublisher{}
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if svc.tracer == nil {
		svc.tracer = otel.Tracer("tailorshop/service")
	}
	if svc.clock == nil {
		svc.clock = time.Now
	}
	if svc.newToken == nil {
		svc.newToken = NewTrackingToken
	}
	return svc, nil
}

// CreateOrder commits the order, its items and the ready-made stock it consumes atomically,
// then expands it with fabrics, measurements, transactions and statistics.
// A *SecondaryPhaseError is returned together with the committed order when that expansion fails twice.
func (s *orderService) CreateOrder(ctx context.Context, actorID string, req CreateOrderRequest) (*model.Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.create")
	defer span.End()

	if err := validateCreateOrder(req); err != nil {
		failSpan(span, err)
		return nil, err
	}

	order, err := s.commitOrder(ctx, req)
	if err != nil {
		failSpan(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("order.invoice_id", order.InvoiceID))
	s.logger.Info("order committed",
		zap.String("invoice_id", order.InvoiceID),
		zap.String("type", order.Type),
		zap.String("payment_status", order.PaymentStatus),
		zap.String("total_amount", order.TotalAmount.StringFixed(2)))

	phaseErr := s.completeRelations(ctx, actorID, order, req)
	s.publish(ctx, events.OrderCreated, order)
	if phaseErr != nil {
		failSpan(span, phaseErr)
		return order, phaseErr
	}
	return order, nil
}

func validateCreateOrder(req CreateOrderRequest) error {
	verr := &ValidationError{}

	if len(req.InvoiceID) > 50 {
		verr.add("invoice_id", "must be at most 50 characters")
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		verr.add("customer_name", "is required")
	}
	if strings.TrimSpace(req.SalesPersonName) == "" {
		verr.add("sales_person_name", "is required")
	}
	if !req.TotalAmount.IsPositive() {
		verr.add("total_amount", "must be greater than 0")
	}
	if len(req.Items) == 0 {
		verr.add("items", "at least one item is required")
	}
	for i, item := range req.Items {
		field := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(item.ProductName) == "" {
			verr.add(field+".product_name", "is required")
		}
		if item.Quantity <= 0 {
			verr.add(field+".quantity", "must be greater than 0")
		}
		if item.UnitPrice.IsNegative() {
			verr.add(field+".unit_price", "must not be negative")
		}
		if item.Type != "" && item.Type != model.ItemTypeReadyMade && item.Type != model.ItemTypeCustomTailored {
			verr.add(field+".type", "must be READY_MADE or CUSTOM_TAILORED")
		}
	}

	paid := decimal.Zero
	for i, t := range req.Transactions {
		if !t.Amount.IsPositive() {
			verr.add(fmt.Sprintf("transactions[%d].amount", i), "must be greater than 0")
			continue
		}
		paid = paid.Add(t.Amount)
	}
	if req.TotalAmount.IsPositive() && paid.GreaterThan(req.TotalAmount) {
		verr.add("transactions", "total paid %s exceeds total amount %s", paid.StringFixed(2), req.TotalAmount.StringFixed(2))
	}

	for i, f := range req.Fabrics {
		field := fmt.Sprintf("fabrics[%d]", i)
		if strings.TrimSpace(f.FabricName) == "" {
			verr.add(field+".fabric_name", "is required")
		}
		if f.Quantity <= 0 {
			verr.add(field+".quantity", "must be greater than 0")
		}
		if f.ItemIndex != nil && (*f.ItemIndex < 0 || *f.ItemIndex >= len(req.Items)) {
			verr.add(field+".item_index", "does not reference an item")
		}
	}
	for i, m := range req.Measurements {
		field := fmt.Sprintf("measurements[%d]", i)
		if m.FabricIndex < 0 || m.FabricIndex >= len(req.Fabrics) {
			verr.add(field+".fabric_index", "does not reference a fabric")
		}
		if strings.TrimSpace(m.ProductName) == "" {
			verr.add(field+".product_name", "is required")
		}
	}

	return verr.orNil()
}

// commitOrder is the all-or-nothing part of order creation.
func (s *orderService) commitOrder(ctx context.Context, req CreateOrderRequest) (*model.Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.critical_path")
	defer span.End()

	var order *model.Order
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoiceID, err := s.resolveInvoiceID(txCtx, strings.TrimSpace(req.InvoiceID))
		if err != nil {
			return err
		}

		customer, err := s.customers.FindByName(txCtx, strings.TrimSpace(req.CustomerName))
		if err != nil {
			return notFoundOr(err, "customer", req.CustomerName)
		}
		salesPerson, err := s.salesPersons.FindByName(txCtx, strings.TrimSpace(req.SalesPersonName))
		if err != nil {
			return notFoundOr(err, "salesperson", req.SalesPersonName)
		}

		items, err := s.buildItems(txCtx, invoiceID, req.Items)
		if err != nil {
			return err
		}
		if err := validateTailoring(req, items); err != nil {
			return err
		}

		now := s.clock()
		paid := decimal.Zero
		for _, t := range req.Transactions {
			paid = paid.Add(t.Amount)
		}
		paymentStatus, paymentDate := paymentState(paid, req.TotalAmount, now)

		o := &model.Order{
			InvoiceID:       invoiceID,
			Branch:          req.Branch,
			CustomerID:      customer.ID,
			CustomerName:    customer.Name,
			SalesPersonID:   salesPerson.ID,
			SalesPersonName: salesPerson.Name,
			Type:            orderType(items),
			TotalAmount:     req.TotalAmount,
			PaidAmount:      paid,
			PendingAmount:   req.TotalAmount.Sub(paid),
			PaymentStatus:   paymentStatus,
			PaymentDate:     paymentDate,
			Status:          model.OrderStatusConfirmed,
			TrackingToken:   s.newToken(customer.Name, now),
			Notes:           req.Notes,
			DeliveryDate:    req.DeliveryDate,
			RelationsStatus: model.RelationsPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		if err := s.reserveReadyMade(txCtx, invoiceID, items); err != nil {
			return err
		}
		if err := s.orders.Create(txCtx, o); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &ConflictError{Entity: "order", Key: invoiceID, Reason: "invoice already exists"}
			}
			return fmt.Errorf("failed to create order: %w", err)
		}
		if err := s.orders.CreateItems(txCtx, items); err != nil {
			return fmt.Errorf("failed to create order items: %w", err)
		}
		o.Items = items
		order = o
		return nil
	})
	if err != nil {
		err = txErr(err)
		failSpan(span, err)
		return nil, err
	}
	return order, nil
}

func (s *orderService) resolveInvoiceID(ctx context.Context, requested string) (string, error) {
	if requested != "" {
		exists, err := s.orders.Exists(ctx, requested)
		if err != nil {
			return "", err
		}
		if exists {
			return "", &ConflictError{Entity: "order", Key: requested, Reason: "invoice already exists"}
		}
		return requested, nil
	}

	prefix := "INV-" + s.clock().Format("20060102") + "-"
	if err := s.orders.LockInvoicePrefix(ctx, prefix); err != nil {
		return "", fmt.Errorf("failed to lock invoice sequence: %w", err)
	}
	count, err := s.orders.CountByPrefix(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to count invoices: %w", err)
	}
	for seq := count + 1; ; seq++ {
		candidate := fmt.Sprintf("%s%05d", prefix, seq)
		exists, err := s.orders.Exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
}

// buildItems resolves every item against the service catalogue
func (s *orderService) buildItems(ctx context.Context, invoiceID string, reqs []OrderItemRequest) ([]model.Item, error) {
	items := make([]model.Item, 0, len(reqs))
	verr := &ValidationError{}
	for i, r := range reqs {
		name := strings.TrimSpace(r.ProductName)
		svc, err := s.catalog.FindServiceByName(ctx, name)
		if err != nil {
			return nil, notFoundOr(err, "service", name)
		}

		itemType := r.Type
		if itemType == "" {
			itemType = model.ItemTypeReadyMade
			if svc.Type == model.ServiceTypeCustomTailored {
				itemType = model.ItemTypeCustomTailored
			}
		}
		if (itemType == model.ItemTypeReadyMade && svc.Type == model.ServiceTypeCustomTailored) ||
			(itemType == model.ItemTypeCustomTailored && svc.Type == model.ServiceTypeReadyMade) {
			verr.add(fmt.Sprintf("items[%d].type", i), "service %s is not offered as %s", name, itemType)
			continue
		}

		section := strings.TrimSpace(r.SectionName)
		if section == "" {
			section = svc.SectionName
		} else if section != svc.SectionName {
			if _, err := s.catalog.FindSectionByName(ctx, section); err != nil {
				return nil, notFoundOr(err, "section", section)
			}
		}

		price := r.UnitPrice
		if price.IsZero() {
			price = svc.Price
		}

		items = append(items, model.Item{
			ID:             uuid.New(),
			OrderInvoiceID: invoiceID,
			ProductName:    name,
			SectionName:    section,
			UnitPrice:      price,
			Quantity:       r.Quantity,
			Type:           itemType,
		})
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return items, nil
}

// validateTailoring checks that fabrics and measurements only hang off custom-tailored items.
// Item types are known only after catalogue resolution, so this runs after buildItems.
func validateTailoring(req CreateOrderRequest, items []model.Item) error {
	verr := &ValidationError{}

	tailored := map[string]bool{}
	for _, item := range items {
		if item.Type == model.ItemTypeCustomTailored {
			tailored[item.ProductName] = true
		}
	}

	for i, f := range req.Fabrics {
		field := fmt.Sprintf("fabrics[%d].item_index", i)
		if f.ItemIndex == nil {
			if len(tailored) == 0 {
				verr.add(field, "order has no custom-tailored item to cut fabric for")
			}
			continue
		}
		if item := items[*f.ItemIndex]; item.Type != model.ItemTypeCustomTailored {
			verr.add(field, "item %s is %s, fabric is only reserved for custom-tailored items", item.ProductName, item.Type)
		}
	}

	for i, m := range req.Measurements {
		field := fmt.Sprintf("measurements[%d].product_name", i)
		name := strings.TrimSpace(m.ProductName)
		if !tailored[name] {
			verr.add(field, "%s is not a custom-tailored item of this order", name)
			continue
		}
		if idx := req.Fabrics[m.FabricIndex].ItemIndex; idx != nil && items[*idx].ProductName != name {
			verr.add(field, "fabric %d is cut for %s, not %s", m.FabricIndex, items[*idx].ProductName, name)
		}
	}

	return verr.orNil()
}

// reserveReadyMade locks every ready-made stock row in name order and checks all of them
// before decrementing any, so one short product leaves every row untouched.
func (s *orderService) reserveReadyMade(ctx context.Context, invoiceID string, items []model.Item) error {
	requested := map[string]int{}
	for _, item := range items {
		if item.Type == model.ItemTypeReadyMade {
			requested[item.ProductName] += item.Quantity
		}
	}
	names := make([]string, 0, len(requested))
	for name := range requested {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		level, err := s.inventory.LockStock(ctx, model.ProductSKU(name))
		if err != nil {
			return notFoundOr(err, "inventory", name)
		}
		if level.QuantityAvailable < requested[name] {
			return &InsufficientStockError{SKU: name, Requested: requested[name], Available: level.QuantityAvailable}
		}
	}
	for _, name := range names {
		if _, err := s.ledger.Reserve(ctx, model.ProductSKU(name), requested[name], invoiceID); err != nil {
			return err
		}
	}
	return nil
}

func paymentState(paid, total decimal.Decimal, now time.Time) (string, *time.Time) {
	switch {
	case paid.GreaterThanOrEqual(total):
		return model.PaymentStatusFull, &now
	case paid.IsPositive():
		return model.PaymentStatusPartial, nil
	default:
		return model.PaymentStatusNone, nil
	}
}

func orderType(items []model.Item) string {
	var ready, custom bool
	for _, item := range items {
		if item.Type == model.ItemTypeCustomTailored {
			custom = true
		} else {
			ready = true
		}
	}
	switch {
	case ready && custom:
		return model.OrderTypeMixed
	case custom:
		return model.OrderTypeCustomTailored
	default:
		return model.OrderTypeReadyMade
	}
}

// completeRelations runs the secondary phase: once concurrently, then once more sequentially.
func (s *orderService) completeRelations(ctx context.Context, actorID string, order *model.Order, req CreateOrderRequest) error {
	const attempts = 2

	var cause error
	for attempt := 1; attempt <= attempts; attempt++ {
		cause = s.runRelations(ctx, order, req, attempt)
		if cause == nil {
			break
		}
		s.logger.Warn("order relations attempt failed",
			zap.String("invoice_id", order.InvoiceID),
			zap.Int("attempt", attempt),
			zap.Error(cause))
	}

	summary := map[string]interface{}{
		"type":           order.Type,
		"total_amount":   order.TotalAmount,
		"paid_amount":    order.PaidAmount,
		"payment_status": order.PaymentStatus,
		"items":          len(order.Items),
		"fabrics":        len(req.Fabrics),
		"transactions":   len(req.Transactions),
	}

	if cause == nil {
		order.RelationsStatus = model.RelationsComplete
		if err := s.orders.Update(ctx, order.InvoiceID, map[string]interface{}{
			"relations_status": model.RelationsComplete,
			"relations_error":  "",
		}); err != nil {
			s.logger.Warn("failed to mark order relations complete", zap.String("invoice_id", order.InvoiceID), zap.Error(err))
		}
		summary["relations_status"] = model.RelationsComplete
		s.audit.Record(ctx, actorID, model.ActionOrderCreated, order.InvoiceID, order.CustomerName, summary)
		return nil
	}

	order.RelationsStatus = model.RelationsIncomplete
	order.RelationsError = cause.Error()
	if err := s.orders.Update(ctx, order.InvoiceID, map[string]interface{}{
		"relations_status": model.RelationsIncomplete,
		"relations_error":  order.RelationsError,
	}); err != nil {
		s.logger.Error("failed to flag order relations incomplete", zap.String("invoice_id", order.InvoiceID), zap.Error(err))
	}
	summary["relations_status"] = model.RelationsIncomplete
	s.audit.Record(ctx, actorID, model.ActionOrderCreated, order.InvoiceID, order.CustomerName, summary)
	s.audit.Record(ctx, actorID, model.ActionOrderRelationsFailed, order.InvoiceID, order.CustomerName, map[string]interface{}{
		"attempts": attempts,
		"error":    cause.Error(),
	})
	s.logger.Error("order relations not fully processed", zap.String("invoice_id", order.InvoiceID), zap.Error(cause))

	return &SecondaryPhaseError{InvoiceID: order.InvoiceID, Attempts: attempts, Cause: cause}
}

// runRelations is one attempt. Every step is keyed so that repeating it is a no-op.
// The fabric chain, transactions and statistics touch disjoint rows and run in parallel on the
// first attempt; the retry runs them one after another.
func (s *orderService) runRelations(ctx context.Context, order *model.Order, req CreateOrderRequest, attempt int) error {
	concurrent := attempt == 1
	ctx, span := s.tracer.Start(ctx, "order.secondary_phase", trace.WithAttributes(
		attribute.String("order.invoice_id", order.InvoiceID),
		attribute.Int("attempt", attempt),
		attribute.Bool("concurrent", concurrent),
	))
	defer span.End()

	steps := []func(context.Context) error{
		func(ctx context.Context) error {
			fabricIDs, err := s.reserveFabrics(ctx, order, req.Fabrics)
			if err != nil {
				return err
			}
			return s.recordMeasurements(ctx, order, req.Measurements, fabricIDs)
		},
		func(ctx context.Context) error {
			return s.recordTransactions(ctx, order, req.Transactions)
		},
		func(ctx context.Context) error {
			return s.applyOrderStatistics(ctx, order)
		},
	}

	var err error
	if concurrent {
		g, gctx := errgroup.WithContext(ctx)
		for _, step := range steps {
			step := step
			g.Go(func() error { return step(gctx) })
		}
		err = g.Wait()
	} else {
		for _, step := range steps {
			if err = step(ctx); err != nil {
				break
			}
		}
	}
	if err != nil {
		failSpan(span, err)
	}
	return err
}

// lockLiveOrder row-locks the order and reports whether it is still open.
// Relation steps take this lock first so a concurrent cancellation cannot interleave with them.
func (s *orderService) lockLiveOrder(ctx context.Context, invoiceID string) (bool, error) {
	o, err := s.orders.FindForUpdate(ctx, invoiceID)
	if err != nil {
		return false, notFoundOr(err, "order", invoiceID)
	}
	return o.Status != model.OrderStatusCancelled, nil
}

func (s *orderService) reserveFabrics(ctx context.Context, order *model.Order, reqs []FabricRequest) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(reqs))
	for i, r := range reqs {
		ref := fmt.Sprintf("%s:f%d", order.InvoiceID, i)
		err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			live, err := s.lockLiveOrder(txCtx, order.InvoiceID)
			if err != nil || !live {
				return err
			}

			existing, err := s.fabrics.FindByReference(txCtx, ref)
			if err == nil {
				ids[i] = existing.ID
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			fabric := model.Fabric{
				ID:             uuid.New(),
				Reference:      ref,
				OrderInvoiceID: order.InvoiceID,
				FabricName:     strings.TrimSpace(r.FabricName),
				Type:           strings.TrimSpace(r.Type),
				Color:          strings.TrimSpace(r.Color),
				Quantity:       r.Quantity,
			}
			if r.ItemIndex != nil {
				itemID := order.Items[*r.ItemIndex].ID
				fabric.ItemID = &itemID
			}
			if _, err := s.ledger.Reserve(txCtx, fabric.SKU(), fabric.Quantity, order.InvoiceID); err != nil {
				return err
			}
			if err := s.fabrics.Create(txCtx, &fabric); err != nil {
				return fmt.Errorf("failed to record fabric %s: %w", fabric.SKU(), err)
			}
			ids[i] = fabric.ID
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("fabric %d: %w", i, txErr(err))
		}
	}
	return ids, nil
}

func (s *orderService) recordMeasurements(ctx context.Context, order *model.Order, reqs []MeasurementRequest, fabricIDs []uuid.UUID) error {
	if len(reqs) == 0 {
		return nil
	}
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for i, r := range reqs {
			fabricID := fabricIDs[r.FabricIndex]
			if fabricID == uuid.Nil {
				// fabric skipped because the order was cancelled meanwhile
				continue
			}
			m := model.Measurement{
				Reference:      fmt.Sprintf("%s:m%d", order.InvoiceID, i),
				OrderInvoiceID: order.InvoiceID,
				FabricID:       fabricID,
				ProductName:    strings.TrimSpace(r.ProductName),
				Chest:          r.Chest,
				EndOfShow:      r.EndOfShow,
				LengthBehind:   r.LengthBehind,
				LengthInFront:  r.LengthInFront,
				Shoulder:       r.Shoulder,
				Neck:           r.Neck,
				Hands:          r.Hands,
				Middle:         r.Middle,
				Notes:          r.Notes,
			}
			if _, err := s.measurements.CreateIfAbsent(txCtx, &m); err != nil {
				return fmt.Errorf("failed to record measurement %d: %w", i, err)
			}
		}
		return nil
	})
	return txErr(err)
}

func (s *orderService) recordTransactions(ctx context.Context, order *model.Order, reqs []TransactionRequest) error {
	if len(reqs) == 0 {
		return nil
	}
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for i, r := range reqs {
			paidAt := order.CreatedAt
			if r.PaidAt != nil {
				paidAt = *r.PaidAt
			}
			t := model.Transaction{
				Reference:      fmt.Sprintf("%s:t%d", order.InvoiceID, i),
				OrderInvoiceID: order.InvoiceID,
				CustomerID:     order.CustomerID,
				CustomerName:   order.CustomerName,
				Amount:         r.Amount,
				PaymentMethod:  r.PaymentMethod,
				PaymentType:    r.PaymentType,
				PaidAt:         paidAt,
			}
			if _, err := s.transactions.CreateIfAbsent(txCtx, &t); err != nil {
				return fmt.Errorf("failed to record transaction %d: %w", i, err)
			}
		}
		return nil
	})
	return txErr(err)
}

// applyOrderStatistics adds the order to the running totals at most once
func (s *orderService) applyOrderStatistics(ctx context.Context, order *model.Order) error {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		live, err := s.lockLiveOrder(txCtx, order.InvoiceID)
		if err != nil || !live {
			return err
		}
		swapped, err := s.orders.SwapStatsApplied(txCtx, order.InvoiceID, false, true)
		if err != nil || !swapped {
			return err
		}
		return s.stats.ApplyOrderSnapshot(txCtx, order, 1)
	})
	return txErr(err)
}

// CancelOrder returns stock and fabric to inventory and reverses the order's statistics atomically.
func (s *orderService) CancelOrder(ctx context.Context, actorID, invoiceID string) (*model.Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.cancel", trace.WithAttributes(attribute.String("order.invoice_id", invoiceID)))
	defer span.End()

	var order *model.Order
	statsReversed := false
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		o, err := s.orders.FindForUpdate(txCtx, invoiceID)
		if err != nil {
			return notFoundOr(err, "order", invoiceID)
		}
		if o.Status == model.OrderStatusCancelled {
			return &AlreadyCancelledError{InvoiceID: invoiceID}
		}

		if err := s.orders.Update(txCtx, invoiceID, map[string]interface{}{"status": model.OrderStatusCancelled}); err != nil {
			return fmt.Errorf("failed to cancel order: %w", err)
		}

		returned := map[string]int{}
		for _, item := range o.Items {
			if item.Type == model.ItemTypeReadyMade {
				returned[item.ProductName] += item.Quantity
			}
		}
		names := make([]string, 0, len(returned))
		for name := range returned {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if _, err := s.ledger.Release(txCtx, model.ProductSKU(name), returned[name], invoiceID); err != nil {
				return err
			}
		}

		fabrics := append([]model.Fabric(nil), o.Fabrics...)
		sort.Slice(fabrics, func(i, j int) bool { return fabrics[i].SKU().String() < fabrics[j].SKU().String() })
		for _, f := range fabrics {
			if _, err := s.ledger.Release(txCtx, f.SKU(), f.Quantity, invoiceID); err != nil {
				return err
			}
		}

		swapped, err := s.orders.SwapStatsApplied(txCtx, invoiceID, true, false)
		if err != nil {
			return err
		}
		if swapped {
			if err := s.stats.ApplyOrderSnapshot(txCtx, o, -1); err != nil {
				return err
			}
			statsReversed = true
		}

		o.Status = model.OrderStatusCancelled
		order = o
		return nil
	})
	if err != nil {
		err = txErr(err)
		failSpan(span, err)
		return nil, err
	}

	s.audit.Record(ctx, actorID, model.ActionOrderCancelled, order.InvoiceID, order.CustomerName, map[string]interface{}{
		"items":          len(order.Items),
		"fabrics":        len(order.Fabrics),
		"stats_reversed": statsReversed,
	})
	s.logger.Info("order cancelled", zap.String("invoice_id", order.InvoiceID), zap.Bool("stats_reversed", statsReversed))
	s.publish(ctx, events.OrderCancelled, order)
	return order, nil
}

var statusRank = map[string]int{
	model.OrderStatusConfirmed:  0,
	model.OrderStatusProcessing: 1,
	model.OrderStatusTailoring:  2,
	model.OrderStatusDelivered:  3,
}

// UpdateOrder edits descriptive fields and moves the status forward. Cancellation has its own operation.
func (s *orderService) UpdateOrder(ctx context.Context, actorID, invoiceID string, req UpdateOrderRequest) (*model.Order, error) {
	if req.Status != nil {
		if _, ok := statusRank[*req.Status]; !ok {
			verr := &ValidationError{}
			verr.add("status", "must be one of confirmed, processing, tailoring, delivered")
			return nil, verr
		}
	}

	updates := map[string]interface{}{}
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		o, err := s.orders.FindForUpdate(txCtx, invoiceID)
		if err != nil {
			return notFoundOr(err, "order", invoiceID)
		}
		if o.Status == model.OrderStatusCancelled {
			return &ConflictError{Entity: "order", Key: invoiceID, Reason: "cancelled orders cannot be updated"}
		}

		if req.Status != nil && *req.Status != o.Status {
			if statusRank[*req.Status] < statusRank[o.Status] {
				return &ConflictError{Entity: "order", Key: invoiceID, Reason: fmt.Sprintf("status cannot move from %s back to %s", o.Status, *req.Status)}
			}
			updates["status"] = *req.Status
		}
		if req.Branch != nil {
			updates["branch"] = *req.Branch
		}
		if req.Notes != nil {
			updates["notes"] = *req.Notes
		}
		if req.DeliveryDate != nil {
			updates["delivery_date"] = *req.DeliveryDate
		}
		if req.AssignedTo != nil && (o.AssignedTo == nil || *o.AssignedTo != *req.AssignedTo) {
			if _, err := s.tailors.FindByID(txCtx, *req.AssignedTo); err != nil {
				return notFoundOr(err, "tailor", req.AssignedTo.String())
			}
			updates["assigned_to"] = *req.AssignedTo
		}
		if len(updates) == 0 {
			return nil
		}
		return s.orders.Update(txCtx, invoiceID, updates)
	})
	if err != nil {
		return nil, txErr(err)
	}

	if len(updates) > 0 {
		s.audit.Record(ctx, actorID, model.ActionOrderUpdated, invoiceID, "", updates)
	}
	return s.GetOrderByID(ctx, invoiceID)
}

// DeleteOrder removes a cancelled order with everything it owns. Stock movements stay.
func (s *orderService) DeleteOrder(ctx context.Context, actorID, invoiceID string) error {
	var order *model.Order
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		o, err := s.orders.FindForUpdate(txCtx, invoiceID)
		if err != nil {
			return notFoundOr(err, "order", invoiceID)
		}
		if o.Status != model.OrderStatusCancelled {
			return &ConflictError{Entity: "order", Key: invoiceID, Reason: "order must be cancelled before it is deleted"}
		}
		if err := s.orders.Delete(txCtx, invoiceID); err != nil {
			return notFoundOr(err, "order", invoiceID)
		}
		order = o
		return nil
	})
	if err != nil {
		return txErr(err)
	}

	s.audit.Record(ctx, actorID, model.ActionOrderDeleted, invoiceID, order.CustomerName, nil)
	s.publish(ctx, events.OrderDeleted, order)
	return nil
}

func (s *orderService) GetOrderByID(ctx context.Context, invoiceID string) (*model.Order, error) {
	order, err := s.orders.FindByInvoiceID(ctx, invoiceID)
	if err != nil {
		return nil, notFoundOr(err, "order", invoiceID)
	}
	return order, nil
}

func (s *orderService) TrackOrder(ctx context.Context, token string) (*model.Order, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		verr := &ValidationError{}
		verr.add("tracking_token", "is required")
		return nil, verr
	}
	order, err := s.orders.FindByTrackingToken(ctx, token)
	if err != nil {
		return nil, notFoundOr(err, "order", token)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter repository.OrderFilter, page, limit int) ([]model.Order, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.orders.List(ctx, filter, page, limit)
}

// ListOrdersByTailor is the work queue of one tailor, newest first
func (s *orderService) ListOrdersByTailor(ctx context.Context, tailorID uuid.UUID, page, limit int) ([]model.Order, int64, error) {
	if _, err := s.tailors.FindByID(ctx, tailorID); err != nil {
		return nil, 0, notFoundOr(err, "tailor", tailorID.String())
	}
	return s.ListOrders(ctx, repository.OrderFilter{AssignedTo: &tailorID}, page, limit)
}

func (s *orderService) GetAllDistinctValues(ctx context.Context) (DistinctValues, error) {
	services, err := s.catalog.ListServices(ctx, "")
	if err != nil {
		return DistinctValues{}, err
	}
	customers, err := s.customers.ListDistinctByPhone(ctx)
	if err != nil {
		return DistinctValues{}, err
	}
	salesPersons, err := s.salesPersons.List(ctx)
	if err != nil {
		return DistinctValues{}, err
	}

	out := DistinctValues{
		Products:     make([]ProductOption, 0, len(services)),
		Customers:    make([]CustomerOption, 0, len(customers)),
		SalesPersons: make([]SalesPersonOption, 0, len(salesPersons)),
	}
	for _, svc := range services {
		out.Products = append(out.Products, ProductOption{ID: svc.ID.String(), Name: svc.Name, SectionName: svc.SectionName, Price: svc.Price})
	}
	for _, c := range customers {
		out.Customers = append(out.Customers, CustomerOption{ID: c.ID.String(), Name: c.Name, Phone: c.Phone, Location: c.Location})
	}
	for _, sp := range salesPersons {
		out.SalesPersons = append(out.SalesPersons, SalesPersonOption{ID: sp.ID.String(), Name: sp.Name})
	}
	return out, nil
}

func (s *orderService) publish(ctx context.Context, eventType string, order *model.Order) {
	s.events.Publish(ctx, orderEvent(eventType, order, s.clock()))
}

func orderEvent(eventType string, order *model.Order, at time.Time) events.OrderEvent {
	return events.OrderEvent{
		Type:          eventType,
		InvoiceID:     order.InvoiceID,
		TrackingToken: order.TrackingToken,
		CustomerID:    order.CustomerID.String(),
		CustomerName:  order.CustomerName,
		Status:        order.Status,
		TotalAmount:   order.TotalAmount,
		At:            at.UTC(),
	}
}

func failSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
