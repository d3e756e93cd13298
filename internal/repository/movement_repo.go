package repository

import (
	"context"

	"tailorshop/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovementRepository only appends and reads; movements are never updated or deleted.
type MovementRepository interface {
	Create(ctx context.Context, movement *model.InventoryMovement) error
	ListByInventory(ctx context.Context, inventoryID uuid.UUID) ([]model.InventoryMovement, error)
	ListByOrder(ctx context.Context, invoiceID string) ([]model.InventoryMovement, error)
}

type movementRepository struct {
	db *gorm.DB
}

func NewMovementRepository(db *gorm.DB) MovementRepository {
	return &movementRepository{db: db}
}

func (r *movementRepository) Create(ctx context.Context, movement *model.InventoryMovement) error {
	return GetDB(ctx, r.db).Create(movement).Error
}

func (r *movementRepository) ListByInventory(ctx context.Context, inventoryID uuid.UUID) ([]model.InventoryMovement, error) {
	var movements []model.InventoryMovement
	if err := GetDB(ctx, r.db).Where("inventory_id = ?", inventoryID).
		Order("created_at ASC").Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

func (r *movementRepository) ListByOrder(ctx context.Context, invoiceID string) ([]model.InventoryMovement, error) {
	var movements []model.InventoryMovement
	if err := GetDB(ctx, r.db).Where("order_invoice_id = ?", invoiceID).
		Order("created_at ASC").Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}
