package repository

import (
	"context"

	"tailorshop/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Rows below carry a caller-derived Reference so that replaying an insert is a no-op.

type FabricRepository interface {
	FindByReference(ctx context.Context, reference string) (*model.Fabric, error)
	Create(ctx context.Context, fabric *model.Fabric) error
	ListByOrder(ctx context.Context, invoiceID string) ([]model.Fabric, error)
	ListByOrderStatus(ctx context.Context, statuses []string) ([]model.Fabric, error)
}

type fabricRepository struct {
	db *gorm.DB
}

func NewFabricRepository(db *gorm.DB) FabricRepository {
	return &fabricRepository{db: db}
}

func (r *fabricRepository) FindByReference(ctx context.Context, reference string) (*model.Fabric, error) {
	var fabric model.Fabric
	if err := GetDB(ctx, r.db).Where("reference = ?", reference).First(&fabric).Error; err != nil {
		return nil, err
	}
	return &fabric, nil
}

func (r *fabricRepository) Create(ctx context.Context, fabric *model.Fabric) error {
	return GetDB(ctx, r.db).Create(fabric).Error
}

func (r *fabricRepository) ListByOrder(ctx context.Context, invoiceID string) ([]model.Fabric, error) {
	var fabrics []model.Fabric
	if err := GetDB(ctx, r.db).Where("order_invoice_id = ?", invoiceID).Order("created_at").Find(&fabrics).Error; err != nil {
		return nil, err
	}
	return fabrics, nil
}

func (r *fabricRepository) ListByOrderStatus(ctx context.Context, statuses []string) ([]model.Fabric, error) {
	var fabrics []model.Fabric
	if err := GetDB(ctx, r.db).
		Joins("JOIN orders ON orders.invoice_id = fabrics.order_invoice_id").
		Where("orders.status IN ?", statuses).
		Order("fabrics.created_at DESC").
		Find(&fabrics).Error; err != nil {
		return nil, err
	}
	return fabrics, nil
}

type MeasurementRepository interface {
	CreateIfAbsent(ctx context.Context, m *model.Measurement) (bool, error)
	ListByOrder(ctx context.Context, invoiceID string) ([]model.Measurement, error)
}

type measurementRepository struct {
	db *gorm.DB
}

func NewMeasurementRepository(db *gorm.DB) MeasurementRepository {
	return &measurementRepository{db: db}
}

func (r *measurementRepository) CreateIfAbsent(ctx context.Context, m *model.Measurement) (bool, error) {
	res := GetDB(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "reference"}}, DoNothing: true}).
		Create(m)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *measurementRepository) ListByOrder(ctx context.Context, invoiceID string) ([]model.Measurement, error) {
	var rows []model.Measurement
	if err := GetDB(ctx, r.db).Where("order_invoice_id = ?", invoiceID).Order("created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

type TransactionRepository interface {
	CreateIfAbsent(ctx context.Context, t *model.Transaction) (bool, error)
	ListByOrder(ctx context.Context, invoiceID string) ([]model.Transaction, error)
	SumByOrder(ctx context.Context, invoiceID string) (decimal.Decimal, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) CreateIfAbsent(ctx context.Context, t *model.Transaction) (bool, error) {
	res := GetDB(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "reference"}}, DoNothing: true}).
		Create(t)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *transactionRepository) ListByOrder(ctx context.Context, invoiceID string) ([]model.Transaction, error) {
	var rows []model.Transaction
	if err := GetDB(ctx, r.db).Where("order_invoice_id = ?", invoiceID).Order("paid_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *transactionRepository) SumByOrder(ctx context.Context, invoiceID string) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := GetDB(ctx, r.db).Model(&model.Transaction{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("order_invoice_id = ?", invoiceID).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}
