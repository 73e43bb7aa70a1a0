// Package api provides HTTP clients for the trade and AI-trade backends.
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/ratelimit"
	"resty.dev/v3"

	"tradeassist/internal/errors"
	"tradeassist/internal/logging"
	"tradeassist/internal/models"
)

const (
	createTradeURL = "/trade/createTrade"
	closeTradeURL  = "/trade/closeTrade"
	modifyTradeURL = "/trade/modifyTargetStoploss"
	getTradesURL   = "/trade/gettrades"
)

// TradeClientConfig holds configuration for the trade backend client.
type TradeClientConfig struct {
	BaseURL        string
	Timeout        time.Duration
	RequestsPerSec int
}

// TradeClient talks to the trade/order backend. All calls take a context;
// an in-flight fetch is abandoned as soon as its context is cancelled so a
// superseded request can never overwrite newer state.
type TradeClient struct {
	c       *resty.Client
	limiter ratelimit.Limiter
	logger  zerolog.Logger
}

// NewTradeClient creates a trade backend client.
func NewTradeClient(cfg TradeClientConfig, logger zerolog.Logger) *TradeClient {
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 5
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout)

	return &TradeClient{
		c:       client,
		limiter: ratelimit.New(cfg.RequestsPerSec),
		logger:  logger.With().Str("component", "trade_api").Logger(),
	}
}

// Close releases the underlying HTTP client.
func (c *TradeClient) Close() error {
	return c.c.Close()
}

type createTradeRequest struct {
	UserID        string   `json:"userId"`
	Symbol        string   `json:"symbol"`
	InstrumentKey string   `json:"instrumentKey"`
	Quantity      int      `json:"quantity"`
	EntryPrice    float64  `json:"entryPrice"`
	Side          string   `json:"side"`
	Status        string   `json:"status"`
	ValidityTime  string   `json:"validityTime"`
	Stoploss      *float64 `json:"stoploss,omitempty"`
	Target        *float64 `json:"target,omitempty"`
	Description   string   `json:"description,omitempty"`
}

type createTradeResponse struct {
	TradeID string `json:"tradeId"`
}

// CreateTrade submits a validated order and returns the new trade ID.
func (c *TradeClient) CreateTrade(ctx context.Context, order models.ValidOrder) (string, error) {
	c.limiter.Take()
	start := time.Now()

	body := createTradeRequest{
		UserID:        order.UserID,
		Symbol:        order.Symbol,
		InstrumentKey: order.InstrumentKey,
		Quantity:      order.Quantity,
		EntryPrice:    order.EntryPrice,
		Side:          string(order.Side),
		Status:        string(order.Status),
		ValidityTime:  order.ValidityTime.Format(time.RFC3339),
		Stoploss:      order.Stoploss,
		Target:        order.Target,
		Description:   order.Description,
	}

	var result createTradeResponse
	resp, err := c.c.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		Post(createTradeURL)

	logging.LogAPICall(c.logger, "POST", createTradeURL, time.Since(start), err)
	if err != nil {
		return "", errors.NewNetworkError("create_trade", createTradeURL, err)
	}
	if resp.IsError() {
		return "", errors.NewNetworkError("create_trade", createTradeURL,
			fmt.Errorf("backend returned %s", resp.Status()))
	}
	return result.TradeID, nil
}

type closeTradeRequest struct {
	UserID  string `json:"userId"`
	TradeID string `json:"tradeId"`
}

// CloseTrade asks the backend to close an open trade.
func (c *TradeClient) CloseTrade(ctx context.Context, userID, tradeID string) error {
	c.limiter.Take()
	start := time.Now()

	resp, err := c.c.R().
		SetContext(ctx).
		SetBody(closeTradeRequest{UserID: userID, TradeID: tradeID}).
		Post(closeTradeURL)

	logging.LogAPICall(c.logger, "POST", closeTradeURL, time.Since(start), err)
	if err != nil {
		return errors.NewNetworkError("close_trade", closeTradeURL, err)
	}
	if resp.IsError() {
		return errors.NewNetworkError("close_trade", closeTradeURL,
			fmt.Errorf("backend returned %s", resp.Status()))
	}
	return nil
}

type modifyTradeRequest struct {
	UserID   string   `json:"userId"`
	TradeID  string   `json:"tradeId"`
	Target   *float64 `json:"target"`
	Stoploss *float64 `json:"stoploss"`
}

// ModifyTargetStoploss updates the target/stoploss of an open trade.
func (c *TradeClient) ModifyTargetStoploss(ctx context.Context, userID, tradeID string, target, stoploss *float64) error {
	c.limiter.Take()
	start := time.Now()

	resp, err := c.c.R().
		SetContext(ctx).
		SetBody(modifyTradeRequest{UserID: userID, TradeID: tradeID, Target: target, Stoploss: stoploss}).
		Post(modifyTradeURL)

	logging.LogAPICall(c.logger, "POST", modifyTradeURL, time.Since(start), err)
	if err != nil {
		return errors.NewNetworkError("modify_trade", modifyTradeURL, err)
	}
	if resp.IsError() {
		return errors.NewNetworkError("modify_trade", modifyTradeURL,
			fmt.Errorf("backend returned %s", resp.Status()))
	}
	return nil
}

type tradeDTO struct {
	TradeID       string   `json:"tradeId"`
	UserID        string   `json:"userId"`
	InstrumentKey string   `json:"instrumentKey"`
	Symbol        string   `json:"symbol"`
	Side          string   `json:"side"`
	Quantity      int      `json:"quantity"`
	Status        string   `json:"status"`
	EntryPrice    float64  `json:"entryPrice"`
	EntryTime     *string  `json:"entryTime"`
	ExitPrice     *float64 `json:"exitPrice"`
	ExitTime      *string  `json:"exitTime"`
	Stoploss      *float64 `json:"stoploss"`
	Target        *float64 `json:"target"`
	ValidityTime  string   `json:"validityTime"`
	Description   string   `json:"description"`
	PnL           *float64 `json:"pnl"`
	NetPnL        *float64 `json:"netPnl"`
	PercentPnL    *float64 `json:"percentPnL"`
	Charges       float64  `json:"charges"`
	CreatedAt     string   `json:"createdAt"`
}

// GetTrades fetches the user's trades.
func (c *TradeClient) GetTrades(ctx context.Context, userID string) ([]models.Trade, error) {
	c.limiter.Take()
	start := time.Now()

	var dtos []tradeDTO
	resp, err := c.c.R().
		SetContext(ctx).
		SetQueryParam("userId", userID).
		SetResult(&dtos).
		Get(getTradesURL)

	logging.LogAPICall(c.logger, "GET", getTradesURL, time.Since(start), err)
	if err != nil {
		return nil, errors.NewNetworkError("get_trades", getTradesURL, err)
	}
	if resp.IsError() {
		return nil, errors.NewNetworkError("get_trades", getTradesURL,
			fmt.Errorf("backend returned %s", resp.Status()))
	}

	trades := make([]models.Trade, 0, len(dtos))
	for _, dto := range dtos {
		trades = append(trades, dto.toModel())
	}
	return trades, nil
}

func (d tradeDTO) toModel() models.Trade {
	t := models.Trade{
		TradeID:       d.TradeID,
		UserID:        d.UserID,
		InstrumentKey: d.InstrumentKey,
		Symbol:        d.Symbol,
		Side:          models.OrderSide(d.Side),
		Quantity:      d.Quantity,
		Status:        models.TradeStatus(d.Status),
		EntryPrice:    d.EntryPrice,
		ExitPrice:     d.ExitPrice,
		Stoploss:      d.Stoploss,
		Target:        d.Target,
		Description:   d.Description,
		PnL:           d.PnL,
		NetPnL:        d.NetPnL,
		PercentPnL:    d.PercentPnL,
		Charges:       d.Charges,
	}
	t.EntryTime = parseTimePtr(d.EntryTime)
	t.ExitTime = parseTimePtr(d.ExitTime)
	if ts, err := time.Parse(time.RFC3339, d.ValidityTime); err == nil {
		t.ValidityTime = ts
	}
	if ts, err := time.Parse(time.RFC3339, d.CreatedAt); err == nil {
		t.CreatedAt = ts
	}
	return t
}

func parseTimePtr(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	ts, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil
	}
	return &ts
}
