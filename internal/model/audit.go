package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionOrderCreated         = "ORDER_CREATED"
	ActionOrderUpdated         = "ORDER_UPDATED"
	ActionOrderCancelled       = "ORDER_CANCELLED"
	ActionOrderDeleted         = "ORDER_DELETED"
	ActionOrderRelationsFailed = "ORDER_RELATIONS_FAILED"
	ActionOrderInventoryFailed = "ORDER_INVENTORY_FAILED"
	ActionFabricsReserved      = "FABRICS_RESERVED"
	ActionMeasurementRecorded  = "MEASUREMENT_RECORDED"
	ActionTransactionRecorded  = "TRANSACTION_RECORDED"
	ActionPaymentCompleted     = "PAYMENT_COMPLETED"
	ActionInventoryRestocked   = "INVENTORY_RESTOCKED"
	ActionFabricAdded          = "FABRIC_ADDED"
	ActionSupplierAdded        = "SUPPLIER_ADDED"
	ActionSectionAdded         = "SECTION_ADDED"
	ActionServiceAdded         = "SERVICE_ADDED"
	ActionCustomerAdded        = "CUSTOMER_ADDED"
	ActionSalesPersonAdded     = "SALES_PERSON_ADDED"
	ActionSalesPersonUpdated   = "SALES_PERSON_UPDATED"
	ActionSalesPersonDeleted   = "SALES_PERSON_DELETED"
	ActionTailorAdded          = "TAILOR_ADDED"
)

// AuditLog tracks Who, What, and When for significant actions. It is never read for control flow.
type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ActorID    string    `gorm:"type:varchar(100);index" json:"actor_id"` // empty for system actions
	Action     string    `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string    `gorm:"type:varchar(80);index" json:"entity_id"`        // Reference string (invoice id / uuid)
	EntityName string    `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string    `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}
