package model

import (
	"github.com/shopspring/decimal"
)

// StatEntity kinds
const (
	StatCustomer    = "CUSTOMER"
	StatSalesPerson = "SALES_PERSON"
	StatService     = "SERVICE"
	StatSection     = "SECTION"
)

// StatEntity addresses the row whose running totals are adjusted.
// Key is the uuid for customers and salespersons and the unique name for services and sections.
type StatEntity struct {
	Kind string `json:"kind"`
	Key  string `json:"key"`
}

// StatDelta is a signed adjustment to running totals
type StatDelta struct {
	Orders   int             `json:"orders"`
	Quantity int             `json:"quantity"`
	Amount   decimal.Decimal `json:"amount"`
}

// Neg flips the sign of every component
func (d StatDelta) Neg() StatDelta {
	return StatDelta{Orders: -d.Orders, Quantity: -d.Quantity, Amount: d.Amount.Neg()}
}

// Add sums two deltas component-wise
func (d StatDelta) Add(o StatDelta) StatDelta {
	return StatDelta{Orders: d.Orders + o.Orders, Quantity: d.Quantity + o.Quantity, Amount: d.Amount.Add(o.Amount)}
}

// IsZero reports whether applying the delta would change nothing
func (d StatDelta) IsZero() bool {
	return d.Orders == 0 && d.Quantity == 0 && d.Amount.IsZero()
}
