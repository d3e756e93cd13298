package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderType enum constants
const (
	OrderTypeReadyMade      = "READY_MADE"
	OrderTypeCustomTailored = "CUSTOM_TAILORED"
	OrderTypeMixed          = "MIXED"
)

// ItemType enum constants
const (
	ItemTypeReadyMade      = "READY_MADE"
	ItemTypeCustomTailored = "CUSTOM_TAILORED"
)

// OrderStatus constants
const (
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusTailoring  = "tailoring"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// PaymentStatus constants
const (
	PaymentStatusNone    = "NO_PAYMENT"
	PaymentStatusPartial = "PARTIAL_PAYMENT"
	PaymentStatusFull    = "FULL_PAYMENT"
)

// RelationsStatus tracks the best-effort expansion that runs after an order is committed.
const (
	RelationsPending    = "PENDING"
	RelationsComplete   = "COMPLETE"
	RelationsIncomplete = "INCOMPLETE"
)

// Order is keyed by its invoice number
type Order struct {
	InvoiceID       string          `gorm:"type:varchar(50);primaryKey" json:"invoice_id"`
	Branch          string          `gorm:"type:varchar(100)" json:"branch"`
	CustomerID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	CustomerName    string          `gorm:"type:varchar(255);not null" json:"customer_name"`
	SalesPersonID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"sales_person_id"`
	SalesPersonName string          `gorm:"type:varchar(255);not null" json:"sales_person_name"`
	Type            string          `gorm:"type:varchar(20);not null" json:"type"` // READY_MADE, CUSTOM_TAILORED, MIXED
	TotalAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_amount"`
	PaidAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"paid_amount"`
	PendingAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"pending_amount"`
	PaymentStatus   string          `gorm:"type:varchar(20);not null;default:'NO_PAYMENT'" json:"payment_status"`
	PaymentDate     *time.Time      `json:"payment_date"`
	Status          string          `gorm:"type:varchar(20);not null;default:'confirmed';index" json:"status"`
	AssignedTo      *uuid.UUID      `gorm:"type:uuid;index" json:"assigned_to"` // tailor working the order
	TrackingToken   string          `gorm:"type:varchar(40);uniqueIndex;not null" json:"tracking_token"`
	Notes           string          `gorm:"type:text" json:"notes"`
	DeliveryDate    *time.Time      `json:"delivery_date"`
	RelationsStatus string          `gorm:"type:varchar(20);not null;default:'PENDING'" json:"relations_status"`
	RelationsError  string          `gorm:"type:text" json:"relations_error,omitempty"`
	StatsApplied    bool            `gorm:"not null;default:false" json:"-"` // guards statistics against double application
	Items           []Item          `gorm:"foreignKey:OrderInvoiceID;references:InvoiceID" json:"items"`
	Fabrics         []Fabric        `gorm:"foreignKey:OrderInvoiceID;references:InvoiceID" json:"fabrics,omitempty"`
	Measurements    []Measurement   `gorm:"foreignKey:OrderInvoiceID;references:InvoiceID" json:"measurements,omitempty"`
	Transactions    []Transaction   `gorm:"foreignKey:OrderInvoiceID;references:InvoiceID" json:"transactions,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Item is a line of an Order. Quantity and price never change after creation.
type Item struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderInvoiceID string          `gorm:"type:varchar(50);not null;index" json:"order_invoice_id"`
	ProductName    string          `gorm:"type:varchar(255);not null;index" json:"product_name"`
	SectionName    string          `gorm:"type:varchar(255)" json:"section_name"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"unit_price"`
	Quantity       int             `gorm:"type:int;not null" json:"quantity"`
	Type           string          `gorm:"type:varchar(20);not null" json:"type"` // READY_MADE, CUSTOM_TAILORED
}

// Amount is the line total
func (i Item) Amount() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Fabric is fabric reserved from FabricInventory for a custom-tailored order
type Fabric struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Reference      string     `gorm:"type:varchar(80);uniqueIndex;not null" json:"reference"`
	OrderInvoiceID string     `gorm:"type:varchar(50);not null;index" json:"order_invoice_id"`
	ItemID         *uuid.UUID `gorm:"type:uuid;index" json:"item_id"`
	FabricName     string     `gorm:"type:varchar(255);not null" json:"fabric_name"`
	Type           string     `gorm:"type:varchar(100)" json:"type"`
	Color          string     `gorm:"type:varchar(100)" json:"color"`
	Quantity       int        `gorm:"type:int;not null" json:"quantity"`
	CreatedAt      time.Time  `json:"created_at"`
}

// SKU returns the fabric inventory line this reservation draws from
func (f Fabric) SKU() SKU {
	return FabricSKU(f.FabricName, f.Type, f.Color)
}

// Measurement holds free-form body measurements for a tailored product
type Measurement struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Reference      string    `gorm:"type:varchar(80);uniqueIndex;not null" json:"reference"`
	OrderInvoiceID string    `gorm:"type:varchar(50);not null;index" json:"order_invoice_id"`
	FabricID       uuid.UUID `gorm:"type:uuid;not null;index" json:"fabric_id"`
	ProductName    string    `gorm:"type:varchar(255);not null" json:"product_name"`
	Chest          string    `gorm:"type:varchar(50)" json:"chest"`
	EndOfShow      string    `gorm:"type:varchar(50)" json:"end_of_show"`
	LengthBehind   string    `gorm:"type:varchar(50)" json:"length_behind"`
	LengthInFront  string    `gorm:"type:varchar(50)" json:"length_in_front"`
	Shoulder       string    `gorm:"type:varchar(50)" json:"shoulder"`
	Neck           string    `gorm:"type:varchar(50)" json:"neck"`
	Hands          string    `gorm:"type:varchar(50)" json:"hands"`
	Middle         string    `gorm:"type:varchar(50)" json:"middle"`
	Notes          string    `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time `json:"created_at"`
}

// Transaction is a payment posted against an order
type Transaction struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Reference      string          `gorm:"type:varchar(80);uniqueIndex;not null" json:"reference"`
	OrderInvoiceID string          `gorm:"type:varchar(50);not null;index" json:"order_invoice_id"`
	CustomerID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	CustomerName   string          `gorm:"type:varchar(255)" json:"customer_name"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	PaymentMethod  string          `gorm:"type:varchar(50)" json:"payment_method"`
	PaymentType    string          `gorm:"type:varchar(50)" json:"payment_type"`
	PaidAt         time.Time       `gorm:"not null" json:"paid_at"`
	CreatedAt      time.Time       `json:"created_at"`
}
