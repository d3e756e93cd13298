package repository

import (
	"context"
	"fmt"

	"tailorshop/internal/model"

	"gorm.io/gorm"
)

// StatisticsRepository adjusts the denormalized running totals on customers, salespersons,
// services and sections. Updates are expressed as in-place increments so concurrent writers
// never lose each other's changes.
type StatisticsRepository interface {
	Apply(ctx context.Context, entity model.StatEntity, delta model.StatDelta) error
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) Apply(ctx context.Context, entity model.StatEntity, delta model.StatDelta) error {
	var (
		target  interface{}
		keyCol  string
		updates map[string]interface{}
	)

	switch entity.Kind {
	case model.StatCustomer:
		target, keyCol = &model.Customer{}, "id"
		updates = map[string]interface{}{
			"total_orders": gorm.Expr("total_orders + ?", delta.Orders),
			"total_spent":  gorm.Expr("total_spent + ?", delta.Amount),
		}
	case model.StatSalesPerson:
		target, keyCol = &model.SalesPerson{}, "id"
		updates = map[string]interface{}{
			"total_orders":       gorm.Expr("total_orders + ?", delta.Orders),
			"total_sales_amount": gorm.Expr("total_sales_amount + ?", delta.Amount),
		}
	case model.StatService:
		target, keyCol = &model.Service{}, "name"
		updates = map[string]interface{}{
			"total_quantity_sold": gorm.Expr("total_quantity_sold + ?", delta.Quantity),
			"total_sales_amount":  gorm.Expr("total_sales_amount + ?", delta.Amount),
		}
	case model.StatSection:
		target, keyCol = &model.Section{}, "name"
		updates = map[string]interface{}{
			"total_quantity_sold": gorm.Expr("total_quantity_sold + ?", delta.Quantity),
			"total_sales_amount":  gorm.Expr("total_sales_amount + ?", delta.Amount),
		}
	default:
		return fmt.Errorf("unknown statistics entity kind %q", entity.Kind)
	}

	res := GetDB(ctx, r.db).Model(target).Where(keyCol+" = ?", entity.Key).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to apply statistics to %s %s: %w", entity.Kind, entity.Key, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
