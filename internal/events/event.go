package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderCreated          = "order.created"
	OrderCancelled        = "order.cancelled"
	OrderDeleted          = "order.deleted"
	OrderPaymentCompleted = "order.payment_completed"
)

// OrderEvent is what notifiers subscribe to. ID is a ULID assigned on publish when empty.
type OrderEvent struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	InvoiceID     string          `json:"invoice_id"`
	TrackingToken string          `json:"tracking_token,omitempty"`
	CustomerID    string          `json:"customer_id,omitempty"`
	CustomerName  string          `json:"customer_name,omitempty"`
	Status        string          `json:"status,omitempty"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	At            time.Time       `json:"at"`
}

// Sink delivers events to one destination
type Sink interface {
	Name() string
	Send(ctx context.Context, event OrderEvent) error
}
