package models

import "time"

// AiTrade is a system-suggested or system-tracked trade idea. It is distinct
// from a user Trade: an idea may or may not have been executed, and the two
// are joined only by the InstrumentKey / AiTradeID correlation fields.
type AiTrade struct {
	AiTradeID  string
	Title      string
	Sentiment  Sentiment
	Setup      TradeSetup
	TradePlan  TradePlan
	Confidence float64 // 0-100
	RiskLevel  RiskLevel
	Status     TradeStatus
	EntryPrice *float64
	EntryTime  *time.Time
	ExitPrice  *float64
	ExitTime   *time.Time
	PnL        *float64 // nil while the idea is still open
	PercentPnL *float64
	CreatedAt  time.Time
}

// TradeSetup describes the market context an idea was generated against.
type TradeSetup struct {
	InstrumentKey string
	Symbol        string
	CurrentPrice  float64
	Strategy      string
	Strike        float64
	Expiry        time.Time
}

// TradePlan holds the display-oriented plan attached to an idea. Values are
// strings because the generator emits ranges ("450-455") as well as levels.
type TradePlan struct {
	Entry     string
	Target    string
	Stoploss  string
	TimeFrame string
}

// Open reports whether the idea is still in a non-terminal status.
func (a AiTrade) Open() bool {
	return a.Status == StatusSuggested || a.Status == StatusActive
}

// Resolved reports whether the idea has a defined outcome.
func (a AiTrade) Resolved() bool {
	return a.PnL != nil
}
