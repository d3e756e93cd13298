package repository

import (
	"context"
	"errors"
	"fmt"

	"tailorshop/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryRepository interface {
	LockStock(ctx context.Context, sku model.SKU) (model.StockLevel, error)
	GetStock(ctx context.Context, sku model.SKU) (model.StockLevel, error)
	GetStockByID(ctx context.Context, id uuid.UUID) (model.StockLevel, error)
	SetStock(ctx context.Context, level model.StockLevel) error
	CreateProduct(ctx context.Context, inv *model.ProductInventory) error
	CreateFabric(ctx context.Context, inv *model.FabricInventory) error
	ListProducts(ctx context.Context) ([]model.ProductInventory, error)
	ListFabrics(ctx context.Context) ([]model.FabricInventory, error)
	ListLowStock(ctx context.Context) ([]model.StockLevel, error)
}

type inventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) LockStock(ctx context.Context, sku model.SKU) (model.StockLevel, error) {
	return r.findStock(GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), sku)
}

func (r *inventoryRepository) GetStock(ctx context.Context, sku model.SKU) (model.StockLevel, error) {
	return r.findStock(GetDB(ctx, r.db), sku)
}

func (r *inventoryRepository) findStock(db *gorm.DB, sku model.SKU) (model.StockLevel, error) {
	switch sku.Kind {
	case model.SKUKindProduct:
		var inv model.ProductInventory
		if err := db.Where("product_name = ?", sku.Name).First(&inv).Error; err != nil {
			return model.StockLevel{}, err
		}
		return productLevel(inv), nil
	case model.SKUKindFabric:
		var inv model.FabricInventory
		if err := db.Where("fabric_name = ? AND type = ? AND color = ?", sku.Name, sku.Type, sku.Color).
			First(&inv).Error; err != nil {
			return model.StockLevel{}, err
		}
		return fabricLevel(inv), nil
	default:
		return model.StockLevel{}, fmt.Errorf("unknown sku kind %q", sku.Kind)
	}
}

func (r *inventoryRepository) GetStockByID(ctx context.Context, id uuid.UUID) (model.StockLevel, error) {
	db := GetDB(ctx, r.db)

	var product model.ProductInventory
	err := db.First(&product, "id = ?", id).Error
	if err == nil {
		return productLevel(product), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return model.StockLevel{}, err
	}

	var fabric model.FabricInventory
	if err := db.First(&fabric, "id = ?", id).Error; err != nil {
		return model.StockLevel{}, err
	}
	return fabricLevel(fabric), nil
}

func (r *inventoryRepository) SetStock(ctx context.Context, level model.StockLevel) error {
	updates := map[string]interface{}{
		"quantity_available": level.QuantityAvailable,
		"reorder_point":      level.ReorderPoint,
	}

	var res *gorm.DB
	switch level.SKU.Kind {
	case model.SKUKindProduct:
		res = GetDB(ctx, r.db).Model(&model.ProductInventory{}).Where("id = ?", level.InventoryID).Updates(updates)
	case model.SKUKindFabric:
		res = GetDB(ctx, r.db).Model(&model.FabricInventory{}).Where("id = ?", level.InventoryID).Updates(updates)
	default:
		return fmt.Errorf("unknown sku kind %q", level.SKU.Kind)
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *inventoryRepository) CreateProduct(ctx context.Context, inv *model.ProductInventory) error {
	return GetDB(ctx, r.db).Create(inv).Error
}

func (r *inventoryRepository) CreateFabric(ctx context.Context, inv *model.FabricInventory) error {
	return GetDB(ctx, r.db).Create(inv).Error
}

func (r *inventoryRepository) ListProducts(ctx context.Context) ([]model.ProductInventory, error) {
	var rows []model.ProductInventory
	if err := GetDB(ctx, r.db).Order("product_name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *inventoryRepository) ListFabrics(ctx context.Context) ([]model.FabricInventory, error) {
	var rows []model.FabricInventory
	if err := GetDB(ctx, r.db).Order("fabric_name, type, color").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *inventoryRepository) ListLowStock(ctx context.Context) ([]model.StockLevel, error) {
	db := GetDB(ctx, r.db)

	var products []model.ProductInventory
	if err := db.Where("quantity_available <= reorder_point").Order("product_name").Find(&products).Error; err != nil {
		return nil, err
	}
	var fabrics []model.FabricInventory
	if err := db.Where("quantity_available <= reorder_point").Order("fabric_name").Find(&fabrics).Error; err != nil {
		return nil, err
	}

	levels := make([]model.StockLevel, 0, len(products)+len(fabrics))
	for _, p := range products {
		levels = append(levels, productLevel(p))
	}
	for _, f := range fabrics {
		levels = append(levels, fabricLevel(f))
	}
	return levels, nil
}

func productLevel(inv model.ProductInventory) model.StockLevel {
	return model.StockLevel{
		InventoryID:       inv.ID,
		SKU:               model.ProductSKU(inv.ProductName),
		QuantityAvailable: inv.QuantityAvailable,
		ReorderPoint:      inv.ReorderPoint,
	}
}

func fabricLevel(inv model.FabricInventory) model.StockLevel {
	return model.StockLevel{
		InventoryID:       inv.ID,
		SKU:               model.FabricSKU(inv.FabricName, inv.Type, inv.Color),
		QuantityAvailable: inv.QuantityAvailable,
		ReorderPoint:      inv.ReorderPoint,
	}
}
