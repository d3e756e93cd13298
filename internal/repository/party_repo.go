package repository

import (
	"context"

	"tailorshop/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CustomerRepository interface {
	FindByName(ctx context.Context, name string) (*model.Customer, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	Create(ctx context.Context, customer *model.Customer) error
	List(ctx context.Context, page, limit int, search string) ([]model.Customer, int64, error)
	ListDistinctByPhone(ctx context.Context) ([]model.Customer, error)
}

type customerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

// FindByName returns the oldest customer with this exact name
func (r *customerRepository) FindByName(ctx context.Context, name string) (*model.Customer, error) {
	var customer model.Customer
	if err := GetDB(ctx, r.db).Where("name = ?", name).Order("created_at").First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var customer model.Customer
	if err := GetDB(ctx, r.db).First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) Create(ctx context.Context, customer *model.Customer) error {
	return GetDB(ctx, r.db).Create(customer).Error
}

func (r *customerRepository) List(ctx context.Context, page, limit int, search string) ([]model.Customer, int64, error) {
	var customers []model.Customer
	var total int64

	filtered := func() *gorm.DB {
		q := GetDB(ctx, r.db).Model(&model.Customer{})
		if search != "" {
			q = q.Where("name ILIKE ? OR phone ILIKE ?", "%"+search+"%", "%"+search+"%")
		}
		return q
	}

	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	if err := filtered().Order("name").Offset(offset).Limit(limit).Find(&customers).Error; err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

// ListDistinctByPhone returns one customer per phone number, the earliest registered
func (r *customerRepository) ListDistinctByPhone(ctx context.Context) ([]model.Customer, error) {
	var rows []model.Customer
	if err := GetDB(ctx, r.db).Model(&model.Customer{}).
		Select("DISTINCT ON (phone) id, name, phone, location").
		Order("phone, created_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

type SalesPersonRepository interface {
	FindByName(ctx context.Context, name string) (*model.SalesPerson, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.SalesPerson, error)
	Create(ctx context.Context, sp *model.SalesPerson) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
	HasOrders(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context) ([]model.SalesPerson, error)
}

type salesPersonRepository struct {
	db *gorm.DB
}

func NewSalesPersonRepository(db *gorm.DB) SalesPersonRepository {
	return &salesPersonRepository{db: db}
}

func (r *salesPersonRepository) FindByName(ctx context.Context, name string) (*model.SalesPerson, error) {
	var sp model.SalesPerson
	if err := GetDB(ctx, r.db).Where("name = ?", name).Order("created_at").First(&sp).Error; err != nil {
		return nil, err
	}
	return &sp, nil
}

func (r *salesPersonRepository) Create(ctx context.Context, sp *model.SalesPerson) error {
	return GetDB(ctx, r.db).Create(sp).Error
}

func (r *salesPersonRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.SalesPerson, error) {
	var sp model.SalesPerson
	if err := GetDB(ctx, r.db).First(&sp, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sp, nil
}

func (r *salesPersonRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	res := GetDB(ctx, r.db).Model(&model.SalesPerson{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *salesPersonRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.SalesPerson{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// HasOrders reports whether any order still names this salesperson
func (r *salesPersonRepository) HasOrders(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Order{}).Where("sales_person_id = ?", id).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *salesPersonRepository) List(ctx context.Context) ([]model.SalesPerson, error) {
	var rows []model.SalesPerson
	if err := GetDB(ctx, r.db).Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

type TailorRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Tailor, error)
	Create(ctx context.Context, tailor *model.Tailor) error
	List(ctx context.Context) ([]model.Tailor, error)
}

type tailorRepository struct {
	db *gorm.DB
}

func NewTailorRepository(db *gorm.DB) TailorRepository {
	return &tailorRepository{db: db}
}

func (r *tailorRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Tailor, error) {
	var tailor model.Tailor
	if err := GetDB(ctx, r.db).First(&tailor, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tailor, nil
}

func (r *tailorRepository) Create(ctx context.Context, tailor *model.Tailor) error {
	return GetDB(ctx, r.db).Create(tailor).Error
}

func (r *tailorRepository) List(ctx context.Context) ([]model.Tailor, error) {
	var rows []model.Tailor
	if err := GetDB(ctx, r.db).Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

type SupplierRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, supplier *model.Supplier) error
	List(ctx context.Context) ([]model.Supplier, error)
}

type supplierRepository struct {
	db *gorm.DB
}

func NewSupplierRepository(db *gorm.DB) SupplierRepository {
	return &supplierRepository{db: db}
}

func (r *supplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	var supplier model.Supplier
	if err := GetDB(ctx, r.db).First(&supplier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *supplierRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Supplier{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *supplierRepository) Create(ctx context.Context, supplier *model.Supplier) error {
	return GetDB(ctx, r.db).Create(supplier).Error
}

func (r *supplierRepository) List(ctx context.Context) ([]model.Supplier, error) {
	var rows []model.Supplier
	if err := GetDB(ctx, r.db).Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
