package models

import "time"

// OrderIntent is the mutable draft a user edits before submission.
// Updates go through the order package so the draft stays internally
// consistent; the struct itself carries no behaviour beyond derived values.
type OrderIntent struct {
	UserID        string
	InstrumentKey string
	Symbol        string
	Side          OrderSide
	Quantity      int // user-entered lots, pre lot-size multiplication
	LotSize       int // 0 or 1 when the instrument has no lot multiplier
	EntryPrice    float64
	PriceOverride bool // user replaced the live-seeded entry price
	Stoploss      *float64
	Target        *float64
	Validity      Validity
	ValidityTime  time.Time
	Description   string
}

// SubmittedQuantity returns the quantity sent to the backend: lots
// multiplied by the instrument's lot size when one is known.
func (i OrderIntent) SubmittedQuantity() int {
	if i.LotSize > 1 {
		return i.Quantity * i.LotSize
	}
	return i.Quantity
}

// OrderStatus is the handling status a new trade is created with.
type OrderStatus string

const (
	// OrderStatusInProcess is the immediate-fill assumption used when the
	// entry price came straight from the live quote.
	OrderStatusInProcess OrderStatus = "inprocess"
	// OrderStatusPending marks a limit-like order where the user overrode
	// the entry price.
	OrderStatusPending OrderStatus = "pending"
)

// ValidOrder is a validated, submission-ready order request. It is only
// produced by the order validator; construct one any other way and the
// backend contract is on you.
type ValidOrder struct {
	UserID        string
	InstrumentKey string
	Symbol        string
	Side          OrderSide
	Quantity      int // lot-size multiplied
	EntryPrice    float64
	Status        OrderStatus
	ValidityTime  time.Time
	Stoploss      *float64
	Target        *float64
	Description   string
}
