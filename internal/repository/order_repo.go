package repository

import (
	"context"

	"tailorshop/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderFilter narrows List; zero values mean "any"
type OrderFilter struct {
	CustomerID    *uuid.UUID
	SalesPersonID *uuid.UUID
	AssignedTo    *uuid.UUID
	Status        string
}

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	CreateItems(ctx context.Context, items []model.Item) error
	Exists(ctx context.Context, invoiceID string) (bool, error)
	FindByInvoiceID(ctx context.Context, invoiceID string) (*model.Order, error)
	FindForUpdate(ctx context.Context, invoiceID string) (*model.Order, error)
	FindByTrackingToken(ctx context.Context, token string) (*model.Order, error)
	List(ctx context.Context, filter OrderFilter, page, limit int) ([]model.Order, int64, error)
	Update(ctx context.Context, invoiceID string, updates map[string]interface{}) error
	SwapStatsApplied(ctx context.Context, invoiceID string, from, to bool) (bool, error)
	Delete(ctx context.Context, invoiceID string) error
	LockInvoicePrefix(ctx context.Context, prefix string) error
	CountByPrefix(ctx context.Context, prefix string) (int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Create(order).Error
}

func (r *orderRepository) CreateItems(ctx context.Context, items []model.Item) error {
	if len(items) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Create(&items).Error
}

func (r *orderRepository) Exists(ctx context.Context, invoiceID string) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Order{}).Where("invoice_id = ?", invoiceID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *orderRepository) FindByInvoiceID(ctx context.Context, invoiceID string) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Fabrics").
		Preload("Measurements").
		Preload("Transactions").
		First(&order, "invoice_id = ?", invoiceID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindForUpdate(ctx context.Context, invoiceID string) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items").
		Preload("Fabrics").
		First(&order, "invoice_id = ?", invoiceID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByTrackingToken(ctx context.Context, token string) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).Preload("Items").Where("tracking_token = ?", token).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, filter OrderFilter, page, limit int) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	filtered := func() *gorm.DB {
		q := GetDB(ctx, r.db).Model(&model.Order{})
		if filter.CustomerID != nil {
			q = q.Where("customer_id = ?", *filter.CustomerID)
		}
		if filter.SalesPersonID != nil {
			q = q.Where("sales_person_id = ?", *filter.SalesPersonID)
		}
		if filter.AssignedTo != nil {
			q = q.Where("assigned_to = ?", *filter.AssignedTo)
		}
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		return q
	}

	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := filtered().
		Preload("Items").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *orderRepository) Update(ctx context.Context, invoiceID string, updates map[string]interface{}) error {
	res := GetDB(ctx, r.db).Model(&model.Order{}).Where("invoice_id = ?", invoiceID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SwapStatsApplied flips stats_applied from `from` to `to` and reports whether this call did it.
func (r *orderRepository) SwapStatsApplied(ctx context.Context, invoiceID string, from, to bool) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.Order{}).
		Where("invoice_id = ? AND stats_applied = ?", invoiceID, from).
		Update("stats_applied", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *orderRepository) Delete(ctx context.Context, invoiceID string) error {
	db := GetDB(ctx, r.db)
	for _, owned := range []interface{}{&model.Measurement{}, &model.Fabric{}, &model.Transaction{}, &model.Item{}} {
		if err := db.Where("order_invoice_id = ?", invoiceID).Delete(owned).Error; err != nil {
			return err
		}
	}
	res := db.Where("invoice_id = ?", invoiceID).Delete(&model.Order{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// LockInvoicePrefix takes a transaction-scoped advisory lock so generated invoice numbers stay unique
func (r *orderRepository) LockInvoicePrefix(ctx context.Context, prefix string) error {
	return GetDB(ctx, r.db).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix).Error
}

func (r *orderRepository) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Order{}).Where("invoice_id LIKE ?", prefix+"%").Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
