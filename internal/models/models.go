// Package models provides domain models for the trading assistant.
package models

import (
	"time"
)

// AssetClass represents the asset class of an instrument.
type AssetClass string

const (
	AssetEquity AssetClass = "EQUITY"
	AssetIndex  AssetClass = "INDEX"
	AssetFuture AssetClass = "FUTURE"
	AssetOption AssetClass = "OPTION"
)

// OrderSide represents the side of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// Validity represents how long an order intent stays live.
type Validity string

const (
	ValidityIntraday Validity = "INTRADAY"
	ValidityTomorrow Validity = "TOMORROW"
	ValidityWeek     Validity = "1_WEEK"
	ValidityMonth    Validity = "1_MONTH"
)

// Sentiment represents the directional view behind a trade idea.
type Sentiment string

const (
	SentimentBullish Sentiment = "BULLISH"
	SentimentBearish Sentiment = "BEARISH"
	SentimentNeutral Sentiment = "NEUTRAL"
)

// RiskLevel represents the risk bucket of a trade idea.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// MarketStatus represents the current market status.
type MarketStatus string

const (
	MarketOpen    MarketStatus = "OPEN"
	MarketPreOpen MarketStatus = "PRE_OPEN"
	MarketClosed  MarketStatus = "CLOSED"
)

// Instrument represents a tradeable instrument resolved from reference data.
// The instrument key is opaque; the assistant never derives anything from it.
type Instrument struct {
	InstrumentKey string
	Symbol        string
	Name          string
	AssetClass    AssetClass
	LotSize       int // 0 for cash equities
	TickSize      float64
	Strike        float64
	Expiry        time.Time // zero for non-derivatives
}

// HasLotSize reports whether the instrument trades in lots.
func (i Instrument) HasLotSize() bool {
	return i.LotSize > 1
}

// LivePrice is the latest quote for an instrument. The price book keeps at
// most one LivePrice per key; there is no history.
type LivePrice struct {
	InstrumentKey string
	BidPrice      float64
	AskPrice      float64
	LastPrice     float64
	MarketOpen    bool
	ReceivedAt    time.Time
}

// PriceForSide returns the price a taker would pay for the given side:
// ask when buying, bid when selling.
func (p LivePrice) PriceForSide(side OrderSide) float64 {
	if side == OrderSideBuy {
		return p.AskPrice
	}
	return p.BidPrice
}
