package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer carries denormalized order totals maintained by the statistics aggregator
type Customer struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null;index" json:"name"`
	Phone       string          `gorm:"type:varchar(50);index" json:"phone"`
	Location    string          `gorm:"type:varchar(255)" json:"location"`
	TotalOrders int             `gorm:"type:int;not null;default:0" json:"total_orders"`
	TotalSpent  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_spent"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// SalesPerson carries denormalized sales totals
type SalesPerson struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name             string          `gorm:"type:varchar(255);not null;index" json:"name"`
	Phone            string          `gorm:"type:varchar(50)" json:"phone"`
	TotalOrders      int             `gorm:"type:int;not null;default:0" json:"total_orders"`
	TotalSalesAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_sales_amount"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Tailor is an employee orders are assigned to
type Tailor struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Phone     string    `gorm:"type:varchar(50)" json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Supplier is referenced by restock movements
type Supplier struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Phone     string    `gorm:"type:varchar(50)" json:"phone"`
	Email     string    `gorm:"type:varchar(255)" json:"email"`
	Address   string    `gorm:"type:text" json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
