// Package feed provides the live price feed subscriber.
package feed

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"tradeassist/internal/models"
)

// Client -> server actions.
const (
	actionSubscribe        = "subscribe"
	actionUnsubscribe      = "unsubscribe"
	actionSubscribeAiTrade = "subscribe_ai_trades"
)

// Server -> client message types.
const (
	msgTypePrice        = "price"
	msgTypeMarketStatus = "market_status"
	msgTypeAiTrade      = "ai_trade"
)

// clientMessage is the envelope the client sends upstream.
type clientMessage struct {
	Action        string `json:"action"`
	InstrumentKey string `json:"instrumentKey,omitempty"`
	UserID        string `json:"userId,omitempty"`
}

// serverMessage is the envelope the server pushes. Exactly one of the data
// fields is populated depending on Type.
type serverMessage struct {
	Type         string        `json:"type"`
	Price        *priceData    `json:"price,omitempty"`
	MarketStatus *statusData   `json:"marketStatus,omitempty"`
	AiTrade      *aiTradeEvent `json:"aiTrade,omitempty"`
}

type priceData struct {
	InstrumentKey string  `json:"instrumentKey"`
	BidPrice      float64 `json:"bidPrice"`
	AskPrice      float64 `json:"askPrice"`
	LastPrice     float64 `json:"ltp"`
	MarketOpen    bool    `json:"marketOpen"`
}

type statusData struct {
	Open bool `json:"open"`
}

// aiTradeEvent signals a backend-side idea status flip pushed over the feed.
type aiTradeEvent struct {
	AiTradeID string `json:"aiTradeId"`
	Status    string `json:"status"`
}

func encodeSubscribe(instrumentKey string) ([]byte, error) {
	return sonic.Marshal(clientMessage{Action: actionSubscribe, InstrumentKey: instrumentKey})
}

func encodeUnsubscribe(instrumentKey string) ([]byte, error) {
	return sonic.Marshal(clientMessage{Action: actionUnsubscribe, InstrumentKey: instrumentKey})
}

func encodeSubscribeAiTrades(userID string) ([]byte, error) {
	return sonic.Marshal(clientMessage{Action: actionSubscribeAiTrade, UserID: userID})
}

func decodeServerMessage(raw []byte) (serverMessage, error) {
	var msg serverMessage
	if err := sonic.Unmarshal(raw, &msg); err != nil {
		return serverMessage{}, fmt.Errorf("decoding feed message: %w", err)
	}
	return msg, nil
}

func (p priceData) toLivePrice(at time.Time) models.LivePrice {
	return models.LivePrice{
		InstrumentKey: p.InstrumentKey,
		BidPrice:      p.BidPrice,
		AskPrice:      p.AskPrice,
		LastPrice:     p.LastPrice,
		MarketOpen:    p.MarketOpen,
		ReceivedAt:    at,
	}
}
