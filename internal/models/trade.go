package models

import "time"

// TradeStatus represents a trade's place in its lifecycle.
type TradeStatus string

const (
	StatusSuggested   TradeStatus = "suggested"
	StatusActive      TradeStatus = "active"
	StatusTargetHit   TradeStatus = "target_hit"
	StatusStoplossHit TradeStatus = "stoploss_hit"
	StatusExpired     TradeStatus = "expired"
	StatusCancelled   TradeStatus = "cancelled"
)

// AllStatuses lists every trade status, in lifecycle order.
func AllStatuses() []TradeStatus {
	return []TradeStatus{
		StatusSuggested,
		StatusActive,
		StatusTargetHit,
		StatusStoplossHit,
		StatusExpired,
		StatusCancelled,
	}
}

// Trade is the persisted, backend-owned record derived from an accepted
// order. The assistant only reads it and submits mutation requests; status
// transitions are authoritative server-side.
type Trade struct {
	TradeID       string
	UserID        string
	InstrumentKey string
	Symbol        string
	Side          OrderSide
	Quantity      int
	Status        TradeStatus
	EntryPrice    float64
	EntryTime     *time.Time
	ExitPrice     *float64
	ExitTime      *time.Time
	Stoploss      *float64
	Target        *float64
	ValidityTime  time.Time
	Description   string
	PnL           *float64
	NetPnL        *float64
	PercentPnL    *float64
	Charges       float64
	CreatedAt     time.Time
}

// Closed reports whether the trade has reached a terminal status.
func (t Trade) Closed() bool {
	switch t.Status {
	case StatusTargetHit, StatusStoplossHit, StatusExpired, StatusCancelled:
		return true
	}
	return false
}
