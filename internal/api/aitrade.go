package api

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"resty.dev/v3"

	"tradeassist/internal/collection"
	"tradeassist/internal/errors"
	"tradeassist/internal/logging"
	"tradeassist/internal/models"
)

const (
	aiTradesURL     = "/ai-trades"
	aiTradeStatsURL = "/ai-trades/stats"
)

// AiTradeClient talks to the AI trade suggestion backend. Read-only: ideas
// are created by the suggestion generator and mutated only by backend-side
// monitoring.
type AiTradeClient struct {
	c      *resty.Client
	logger zerolog.Logger
}

// NewAiTradeClient creates an AI trade backend client.
func NewAiTradeClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *AiTradeClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)

	return &AiTradeClient{
		c:      client,
		logger: logger.With().Str("component", "ai_trade_api").Logger(),
	}
}

// Close releases the underlying HTTP client.
func (c *AiTradeClient) Close() error {
	return c.c.Close()
}

type aiTradeDTO struct {
	AiTradeID  string   `json:"aiTradeId"`
	Title      string   `json:"title"`
	Sentiment  string   `json:"sentiment"`
	Confidence float64  `json:"confidence"`
	RiskLevel  string   `json:"riskLevel"`
	Status     string   `json:"status"`
	EntryPrice *float64 `json:"entryPrice"`
	EntryTime  *string  `json:"entryTime"`
	ExitPrice  *float64 `json:"exitPrice"`
	ExitTime   *string  `json:"exitTime"`
	PnL        *float64 `json:"pnl"`
	PercentPnL *float64 `json:"percentPnL"`
	CreatedAt  string   `json:"createdAt"`
	Setup      struct {
		InstrumentKey string  `json:"instrumentKey"`
		Symbol        string  `json:"symbol"`
		CurrentPrice  float64 `json:"currentPrice"`
		Strategy      string  `json:"strategy"`
		Strike        float64 `json:"strike"`
		Expiry        string  `json:"expiry"`
	} `json:"setup"`
	TradePlan struct {
		Entry     string `json:"entry"`
		Target    string `json:"target"`
		Stoploss  string `json:"stoploss"`
		TimeFrame string `json:"timeFrame"`
	} `json:"tradePlan"`
}

// GetAiTrades fetches trade ideas, optionally filtered by status.
func (c *AiTradeClient) GetAiTrades(ctx context.Context, status models.TradeStatus) ([]models.AiTrade, error) {
	start := time.Now()

	req := c.c.R().SetContext(ctx)
	if status != "" {
		req.SetQueryParam("status", string(status))
	}

	var dtos []aiTradeDTO
	resp, err := req.SetResult(&dtos).Get(aiTradesURL)

	logging.LogAPICall(c.logger, "GET", aiTradesURL, time.Since(start), err)
	if err != nil {
		return nil, errors.NewNetworkError("get_ai_trades", aiTradesURL, err)
	}
	if resp.IsError() {
		return nil, errors.NewNetworkError("get_ai_trades", aiTradesURL,
			fmt.Errorf("backend returned %s", resp.Status()))
	}

	ideas := make([]models.AiTrade, 0, len(dtos))
	for _, dto := range dtos {
		ideas = append(ideas, dto.toModel())
	}
	return ideas, nil
}

// GetStats fetches backend-computed aggregate statistics over the ideas.
func (c *AiTradeClient) GetStats(ctx context.Context) (collection.Stats, error) {
	start := time.Now()

	var stats collection.Stats
	resp, err := c.c.R().
		SetContext(ctx).
		SetResult(&stats).
		Get(aiTradeStatsURL)

	logging.LogAPICall(c.logger, "GET", aiTradeStatsURL, time.Since(start), err)
	if err != nil {
		return collection.Stats{}, errors.NewNetworkError("get_ai_trade_stats", aiTradeStatsURL, err)
	}
	if resp.IsError() {
		return collection.Stats{}, errors.NewNetworkError("get_ai_trade_stats", aiTradeStatsURL,
			fmt.Errorf("backend returned %s", resp.Status()))
	}
	return stats, nil
}

func (d aiTradeDTO) toModel() models.AiTrade {
	idea := models.AiTrade{
		AiTradeID:  d.AiTradeID,
		Title:      d.Title,
		Sentiment:  models.Sentiment(d.Sentiment),
		Confidence: d.Confidence,
		RiskLevel:  models.RiskLevel(d.RiskLevel),
		Status:     models.TradeStatus(d.Status),
		EntryPrice: d.EntryPrice,
		ExitPrice:  d.ExitPrice,
		PnL:        d.PnL,
		PercentPnL: d.PercentPnL,
		Setup: models.TradeSetup{
			InstrumentKey: d.Setup.InstrumentKey,
			Symbol:        d.Setup.Symbol,
			CurrentPrice:  d.Setup.CurrentPrice,
			Strategy:      d.Setup.Strategy,
			Strike:        d.Setup.Strike,
		},
		TradePlan: models.TradePlan{
			Entry:     d.TradePlan.Entry,
			Target:    d.TradePlan.Target,
			Stoploss:  d.TradePlan.Stoploss,
			TimeFrame: d.TradePlan.TimeFrame,
		},
	}
	idea.EntryTime = parseTimePtr(d.EntryTime)
	idea.ExitTime = parseTimePtr(d.ExitTime)
	if ts, err := time.Parse(time.RFC3339, d.CreatedAt); err == nil {
		idea.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339, d.Setup.Expiry); err == nil {
		idea.Setup.Expiry = ts
	}
	return idea
}
