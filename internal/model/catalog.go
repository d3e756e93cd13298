package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ServiceType enum constants
const (
	ServiceTypeReadyMade      = "READY_MADE"
	ServiceTypeCustomTailored = "CUSTOM_TAILORED"
	ServiceTypeBoth           = "BOTH"
)

// Section groups services (e.g. "Men", "Kids") and tracks its sales totals
type Section struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name              string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Description       string          `gorm:"type:text" json:"description"`
	TotalQuantitySold int             `gorm:"type:int;not null;default:0" json:"total_quantity_sold"`
	TotalSalesAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_sales_amount"`
	Services          []Service       `gorm:"foreignKey:SectionName;references:Name" json:"services,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Service is a sellable product or tailoring service
type Service struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name              string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Type              string          `gorm:"type:varchar(20);not null" json:"type"` // READY_MADE, CUSTOM_TAILORED, BOTH
	Price             decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"price"`
	SectionName       string          `gorm:"type:varchar(255);not null;index" json:"section_name"`
	TotalQuantitySold int             `gorm:"type:int;not null;default:0" json:"total_quantity_sold"`
	TotalSalesAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_sales_amount"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}
