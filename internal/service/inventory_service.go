package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tailorshop/internal/model"
	"tailorshop/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DTOs
type RestockRequest struct {
	SKU          model.SKU  `json:"sku"`
	Quantity     int        `json:"quantity"`
	SupplierID   uuid.UUID  `json:"supplier_id"`
	Date         *time.Time `json:"date"`
	ReorderPoint *int       `json:"reorder_point"`
}

type AddFabricRequest struct {
	FabricName        string          `json:"fabric_name"`
	Type              string          `json:"type"`
	Color             string          `json:"color"`
	QuantityAvailable int             `json:"quantity_available"`
	ReorderPoint      int             `json:"reorder_point"`
	CostingPrice      decimal.Decimal `json:"costing_price"`
	SellingPrice      decimal.Decimal `json:"selling_price"`
}

type AddSupplierRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// InventoryService is the ledger over product and fabric stock. Every quantity change
// writes exactly one movement in the same transaction. Calls made with a transaction
// context join that transaction.
type InventoryService interface {
	CheckAvailability(ctx context.Context, sku model.SKU, quantity int) (bool, error)
	Reserve(ctx context.Context, sku model.SKU, quantity int, invoiceID string) (model.InventoryMovement, error)
	Release(ctx context.Context, sku model.SKU, quantity int, invoiceID string) (model.InventoryMovement, error)
	Restock(ctx context.Context, actorID string, req RestockRequest) (model.InventoryMovement, error)

	AddFabric(ctx context.Context, actorID string, req AddFabricRequest) (model.FabricInventory, error)
	AddSupplier(ctx context.Context, actorID string, req AddSupplierRequest) (model.Supplier, error)
	ListSuppliers(ctx context.Context) ([]model.Supplier, error)
	ListProductInventory(ctx context.Context) ([]model.ProductInventory, error)
	ListFabricInventory(ctx context.Context) ([]model.FabricInventory, error)
	ListMovements(ctx context.Context, inventoryID uuid.UUID) ([]model.InventoryMovement, error)
	ListReservedFabrics(ctx context.Context) ([]model.Fabric, error)
	ListLowStock(ctx context.Context) ([]model.StockLevel, error)
}

type inventoryService struct {
	inventoryRepo repository.InventoryRepository
	movementRepo  repository.MovementRepository
	supplierRepo  repository.SupplierRepository
	fabricRepo    repository.FabricRepository
	txManager     repository.TransactionManager
	audit         AuditService
	logger        *zap.Logger
	clock         func() time.Time
}

func NewInventoryService(
	inventoryRepo repository.InventoryRepository,
	movementRepo repository.MovementRepository,
	supplierRepo repository.SupplierRepository,
	fabricRepo repository.FabricRepository,
	txManager repository.TransactionManager,
	audit AuditService,
	logger *zap.Logger,
) InventoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &inventoryService{
		inventoryRepo: inventoryRepo,
		movementRepo:  movementRepo,
		supplierRepo:  supplierRepo,
		fabricRepo:    fabricRepo,
		txManager:     txManager,
		audit:         audit,
		logger:        logger,
		clock:         time.Now,
	}
}

func (s *inventoryService) CheckAvailability(ctx context.Context, sku model.SKU, quantity int) (bool, error) {
	level, err := s.inventoryRepo.GetStock(ctx, sku)
	if err != nil {
		return false, notFoundOr(err, "inventory", sku.String())
	}
	return level.QuantityAvailable >= quantity, nil
}

func (s *inventoryService) Reserve(ctx context.Context, sku model.SKU, quantity int, invoiceID string) (model.InventoryMovement, error) {
	if quantity <= 0 {
		return model.InventoryMovement{}, invalidQuantity(quantity)
	}
	return s.move(ctx, movementSpec{sku: sku, movementType: model.MovementSale, delta: -quantity, invoiceID: invoiceID})
}

func (s *inventoryService) Release(ctx context.Context, sku model.SKU, quantity int, invoiceID string) (model.InventoryMovement, error) {
	if quantity <= 0 {
		return model.InventoryMovement{}, invalidQuantity(quantity)
	}
	return s.move(ctx, movementSpec{sku: sku, movementType: model.MovementReturn, delta: quantity, invoiceID: invoiceID})
}

func (s *inventoryService) Restock(ctx context.Context, actorID string, req RestockRequest) (model.InventoryMovement, error) {
	verr := &ValidationError{}
	if req.Quantity <= 0 {
		verr.add("quantity", "must be greater than 0")
	}
	if req.SupplierID == uuid.Nil {
		verr.add("supplier_id", "is required")
	}
	if req.ReorderPoint != nil && *req.ReorderPoint < 0 {
		verr.add("reorder_point", "must not be negative")
	}
	if err := verr.orNil(); err != nil {
		return model.InventoryMovement{}, err
	}

	var movement model.InventoryMovement
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.supplierRepo.FindByID(txCtx, req.SupplierID); err != nil {
			return notFoundOr(err, "supplier", req.SupplierID.String())
		}

		supplierID := req.SupplierID
		var err error
		movement, err = s.move(txCtx, movementSpec{
			sku:          req.SKU,
			movementType: model.MovementRestock,
			delta:        req.Quantity,
			supplierID:   &supplierID,
			date:         req.Date,
			reorderPoint: req.ReorderPoint,
		})
		return err
	})
	if err != nil {
		return model.InventoryMovement{}, txErr(err)
	}

	s.audit.Record(ctx, actorID, model.ActionInventoryRestocked, movement.InventoryID.String(), req.SKU.String(), req)
	s.logger.Info("inventory restocked",
		zap.String("sku", req.SKU.String()),
		zap.Int("quantity", req.Quantity),
		zap.Int("stock_after", movement.StockAfter))
	return movement, nil
}

type movementSpec struct {
	sku          model.SKU
	movementType string
	delta        int
	invoiceID    string
	supplierID   *uuid.UUID
	date         *time.Time
	reorderPoint *int
}

// move locks the stock row, applies the delta, and appends the movement record.
func (s *inventoryService) move(ctx context.Context, spec movementSpec) (model.InventoryMovement, error) {
	sku, delta := spec.sku, spec.delta
	var movement model.InventoryMovement
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		level, err := s.inventoryRepo.LockStock(txCtx, sku)
		if err != nil {
			return notFoundOr(err, "inventory", sku.String())
		}

		if level.QuantityAvailable+delta < 0 {
			return &InsufficientStockError{SKU: sku.String(), Requested: -delta, Available: level.QuantityAvailable}
		}
		level.QuantityAvailable += delta
		if spec.reorderPoint != nil {
			level.ReorderPoint = *spec.reorderPoint
		}
		if err := s.inventoryRepo.SetStock(txCtx, level); err != nil {
			return fmt.Errorf("failed to update stock for %s: %w", sku, err)
		}

		quantity := delta
		if quantity < 0 {
			quantity = -quantity
		}
		movement = model.InventoryMovement{
			InventoryID:  level.InventoryID,
			SKUKind:      sku.Kind,
			SKUName:      sku.String(),
			MovementType: spec.movementType,
			Quantity:     quantity,
			StockAfter:   level.QuantityAvailable,
			SupplierID:   spec.supplierID,
			MovementDate: s.clock(),
		}
		if spec.date != nil {
			movement.MovementDate = *spec.date
		}
		if spec.invoiceID != "" {
			ref := spec.invoiceID
			movement.OrderInvoiceID = &ref
		}
		if err := s.movementRepo.Create(txCtx, &movement); err != nil {
			return fmt.Errorf("failed to record %s movement for %s: %w", spec.movementType, sku, err)
		}
		return nil
	})
	if err != nil {
		return model.InventoryMovement{}, txErr(err)
	}
	return movement, nil
}

func (s *inventoryService) AddFabric(ctx context.Context, actorID string, req AddFabricRequest) (model.FabricInventory, error) {
	verr := &ValidationError{}
	if strings.TrimSpace(req.FabricName) == "" {
		verr.add("fabric_name", "is required")
	}
	if req.QuantityAvailable < 0 {
		verr.add("quantity_available", "must not be negative")
	}
	if req.ReorderPoint < 0 {
		verr.add("reorder_point", "must not be negative")
	}
	if err := verr.orNil(); err != nil {
		return model.FabricInventory{}, err
	}

	inv := model.FabricInventory{
		FabricName:        strings.TrimSpace(req.FabricName),
		Type:              strings.TrimSpace(req.Type),
		Color:             strings.TrimSpace(req.Color),
		QuantityAvailable: req.QuantityAvailable,
		ReorderPoint:      req.ReorderPoint,
		CostingPrice:      req.CostingPrice,
		SellingPrice:      req.SellingPrice,
	}
	sku := model.FabricSKU(inv.FabricName, inv.Type, inv.Color)

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		_, err := s.inventoryRepo.GetStock(txCtx, sku)
		if err == nil {
			return &ConflictError{Entity: "fabric", Key: sku.String(), Reason: "already exists"}
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := s.inventoryRepo.CreateFabric(txCtx, &inv); err != nil {
			return fmt.Errorf("failed to create fabric: %w", err)
		}
		if inv.QuantityAvailable > 0 {
			opening := model.InventoryMovement{
				InventoryID:  inv.ID,
				SKUKind:      sku.Kind,
				SKUName:      sku.String(),
				MovementType: model.MovementRestock,
				Quantity:     inv.QuantityAvailable,
				StockAfter:   inv.QuantityAvailable,
				MovementDate: s.clock(),
			}
			if err := s.movementRepo.Create(txCtx, &opening); err != nil {
				return fmt.Errorf("failed to record opening stock: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return model.FabricInventory{}, txErr(err)
	}

	s.audit.Record(ctx, actorID, model.ActionFabricAdded, inv.ID.String(), sku.String(), req)
	return inv, nil
}

func (s *inventoryService) AddSupplier(ctx context.Context, actorID string, req AddSupplierRequest) (model.Supplier, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		verr := &ValidationError{}
		verr.add("name", "is required")
		return model.Supplier{}, verr
	}

	supplier := model.Supplier{Name: name, Phone: req.Phone, Email: req.Email, Address: req.Address}
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		exists, err := s.supplierRepo.ExistsByName(txCtx, name)
		if err != nil {
			return err
		}
		if exists {
			return &ConflictError{Entity: "supplier", Key: name, Reason: "already exists"}
		}
		return s.supplierRepo.Create(txCtx, &supplier)
	})
	if err != nil {
		return model.Supplier{}, txErr(err)
	}

	s.audit.Record(ctx, actorID, model.ActionSupplierAdded, supplier.ID.String(), supplier.Name, req)
	return supplier, nil
}

func (s *inventoryService) ListSuppliers(ctx context.Context) ([]model.Supplier, error) {
	return s.supplierRepo.List(ctx)
}

func (s *inventoryService) ListProductInventory(ctx context.Context) ([]model.ProductInventory, error) {
	return s.inventoryRepo.ListProducts(ctx)
}

func (s *inventoryService) ListFabricInventory(ctx context.Context) ([]model.FabricInventory, error) {
	return s.inventoryRepo.ListFabrics(ctx)
}

func (s *inventoryService) ListMovements(ctx context.Context, inventoryID uuid.UUID) ([]model.InventoryMovement, error) {
	if _, err := s.inventoryRepo.GetStockByID(ctx, inventoryID); err != nil {
		return nil, notFoundOr(err, "inventory", inventoryID.String())
	}
	return s.movementRepo.ListByInventory(ctx, inventoryID)
}

// ListReservedFabrics returns fabric held by orders that have not reached tailoring yet
func (s *inventoryService) ListReservedFabrics(ctx context.Context) ([]model.Fabric, error) {
	return s.fabricRepo.ListByOrderStatus(ctx, []string{model.OrderStatusConfirmed, model.OrderStatusProcessing})
}

func (s *inventoryService) ListLowStock(ctx context.Context) ([]model.StockLevel, error) {
	return s.inventoryRepo.ListLowStock(ctx)
}

func invalidQuantity(quantity int) error {
	verr := &ValidationError{}
	verr.add("quantity", "must be greater than 0, got %d", quantity)
	return verr
}
