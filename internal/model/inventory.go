package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SKU kinds
const (
	SKUKindProduct = "PRODUCT"
	SKUKindFabric  = "FABRIC"
)

// SKU identifies one inventory line: a ready-made product by name, or a fabric by name/type/color
type SKU struct {
	Kind  string `json:"kind"`
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	Color string `json:"color,omitempty"`
}

func ProductSKU(name string) SKU {
	return SKU{Kind: SKUKindProduct, Name: name}
}

func FabricSKU(name, fabricType, color string) SKU {
	return SKU{Kind: SKUKindFabric, Name: name, Type: fabricType, Color: color}
}

func (s SKU) String() string {
	if s.Kind == SKUKindFabric {
		return fmt.Sprintf("%s (%s-%s)", s.Name, s.Type, s.Color)
	}
	return s.Name
}

// ProductInventory is the stock line of a ready-made product
type ProductInventory struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductName       string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"product_name"`
	QuantityAvailable int             `gorm:"type:int;not null;default:0;check:quantity_available >= 0" json:"quantity_available"`
	ReorderPoint      int             `gorm:"type:int;not null;default:0" json:"reorder_point"`
	CostingPrice      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"costing_price"`
	SellingPrice      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"selling_price"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// FabricInventory is the stock line of one fabric name/type/color combination
type FabricInventory struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FabricName        string          `gorm:"type:varchar(255);not null;uniqueIndex:idx_fabric_sku,priority:1" json:"fabric_name"`
	Type              string          `gorm:"type:varchar(100);not null;default:'';uniqueIndex:idx_fabric_sku,priority:2" json:"type"`
	Color             string          `gorm:"type:varchar(100);not null;default:'';uniqueIndex:idx_fabric_sku,priority:3" json:"color"`
	QuantityAvailable int             `gorm:"type:int;not null;default:0;check:quantity_available >= 0" json:"quantity_available"`
	ReorderPoint      int             `gorm:"type:int;not null;default:0" json:"reorder_point"`
	CostingPrice      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"costing_price"`
	SellingPrice      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"selling_price"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// StockLevel is the kind-independent view of an inventory row used by the ledger
type StockLevel struct {
	InventoryID       uuid.UUID `json:"inventory_id"`
	SKU               SKU       `json:"sku"`
	QuantityAvailable int       `json:"quantity_available"`
	ReorderPoint      int       `json:"reorder_point"`
}

// MovementType Enum Simulation
const (
	MovementRestock = "RESTOCK"
	MovementSale    = "SALE"
	MovementReturn  = "RETURN"
)

// InventoryMovement is the stock card: one immutable row per quantity change
type InventoryMovement struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InventoryID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"inventory_id"`
	SKUKind        string     `gorm:"type:varchar(10);not null" json:"sku_kind"` // PRODUCT, FABRIC
	SKUName        string     `gorm:"type:varchar(255);not null" json:"sku_name"`
	MovementType   string     `gorm:"type:varchar(10);not null" json:"movement_type"` // RESTOCK, SALE, RETURN
	Quantity       int        `gorm:"type:int;not null" json:"quantity"`
	StockAfter     int        `gorm:"type:int;not null" json:"stock_after"`
	OrderInvoiceID *string    `gorm:"type:varchar(50);index" json:"order_invoice_id"` // Nullable for restocks
	SupplierID     *uuid.UUID `gorm:"type:uuid" json:"supplier_id"`
	MovementDate   time.Time  `gorm:"not null" json:"movement_date"`
	CreatedAt      time.Time  `json:"created_at"`
}
