// Package monitor keeps the local view of trades and ideas in sync with the
// backend and the live feed.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tradeassist/internal/api"
	"tradeassist/internal/errors"
	"tradeassist/internal/models"
	"tradeassist/internal/store"
	"tradeassist/pkg/utils"
)

// PollerConfig holds poller configuration.
type PollerConfig struct {
	UserID   string
	Interval time.Duration
	// OutsideMarketHours keeps polling when the market is closed. Off by
	// default; trade state cannot change while nothing trades.
	OutsideMarketHours bool
}

// Poller re-fetches the trade and idea lists on a fixed interval. Each
// cycle runs under its own context; starting a new cycle cancels any fetch
// still in flight, so a superseded response can never overwrite newer
// state. A failed fetch falls back to the local cache and reports the
// error instead of crashing or blanking the view.
type Poller struct {
	cfg    PollerConfig
	trades *api.TradeClient
	ideas  *api.AiTradeClient
	cache  store.DataStore
	logger zerolog.Logger

	marketOpen func() bool

	mu         sync.Mutex
	cancelPrev context.CancelFunc
	running    bool
	done       chan struct{}

	onTrades func([]models.Trade, bool) // bool: from cache
	onIdeas  func([]models.AiTrade, bool)
	onError  func(error)
}

// NewPoller creates a poller.
func NewPoller(cfg PollerConfig, trades *api.TradeClient, ideas *api.AiTradeClient, cache store.DataStore, logger zerolog.Logger) *Poller {
	if cfg.Interval == 0 {
		cfg.Interval = 15 * time.Second
	}
	return &Poller{
		cfg:        cfg,
		trades:     trades,
		ideas:      ideas,
		cache:      cache,
		logger:     logger.With().Str("component", "poller").Logger(),
		marketOpen: utils.IsMarketOpen,
	}
}

// SetMarketOpenFunc overrides the market-hours check. Used by tests.
func (p *Poller) SetMarketOpenFunc(fn func() bool) {
	p.marketOpen = fn
}

// OnTrades sets the trade-list handler. The bool argument is true when the
// trades came from the local cache after a failed fetch.
func (p *Poller) OnTrades(fn func([]models.Trade, bool)) { p.onTrades = fn }

// OnIdeas sets the idea-list handler.
func (p *Poller) OnIdeas(fn func([]models.AiTrade, bool)) { p.onIdeas = fn }

// OnError sets the fetch error handler.
func (p *Poller) OnError(fn func(error)) { p.onError = fn }

// Start begins polling. The first refresh runs immediately.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.done = make(chan struct{})
	p.mu.Unlock()

	go p.loop(ctx)
}

// Stop stops polling and cancels any in-flight fetch.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.running = false
	close(p.done)
	if p.cancelPrev != nil {
		p.cancelPrev()
		p.cancelPrev = nil
	}
}

func (p *Poller) loop(ctx context.Context) {
	p.RefreshNow(ctx)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		case <-ticker.C:
			if !p.cfg.OutsideMarketHours && !p.marketOpen() {
				continue
			}
			p.RefreshNow(ctx)
		}
	}
}

// RefreshNow runs a refresh cycle immediately, superseding any cycle still
// in flight.
func (p *Poller) RefreshNow(ctx context.Context) {
	p.mu.Lock()
	if p.cancelPrev != nil {
		p.cancelPrev()
	}
	cycleCtx, cancel := context.WithCancel(ctx)
	p.cancelPrev = cancel
	p.mu.Unlock()

	go p.refreshTrades(cycleCtx)
	go p.refreshIdeas(cycleCtx)
}

func (p *Poller) refreshTrades(ctx context.Context) {
	if p.trades == nil || p.onTrades == nil {
		return
	}

	trades, err := utils.RetryWithResult(ctx, fetchRetryConfig(), func() ([]models.Trade, error) {
		return p.trades.GetTrades(ctx, p.cfg.UserID)
	})
	if err != nil {
		if ctx.Err() != nil {
			// The newer cycle owns the view now.
			p.logger.Debug().Err(errors.ErrRequestSuperseded).Msg("Dropping trade fetch result")
			return
		}
		p.reportError(err)
		if p.cache != nil {
			if cached, cacheErr := p.cache.GetCachedTrades(ctx, p.cfg.UserID); cacheErr == nil {
				p.onTrades(cached, true)
			}
		}
		return
	}

	if p.cache != nil {
		if err := p.cache.CacheTrades(ctx, p.cfg.UserID, trades); err != nil {
			p.logger.Warn().Err(err).Msg("Failed to cache trades")
		}
		p.cache.SetLastSync("trades", time.Now())
	}
	p.onTrades(trades, false)
}

func (p *Poller) refreshIdeas(ctx context.Context) {
	if p.ideas == nil || p.onIdeas == nil {
		return
	}

	ideas, err := utils.RetryWithResult(ctx, fetchRetryConfig(), func() ([]models.AiTrade, error) {
		return p.ideas.GetAiTrades(ctx, "")
	})
	if err != nil {
		if ctx.Err() != nil {
			p.logger.Debug().Err(errors.ErrRequestSuperseded).Msg("Dropping idea fetch result")
			return
		}
		p.reportError(err)
		if p.cache != nil {
			if cached, cacheErr := p.cache.GetCachedIdeas(ctx); cacheErr == nil {
				p.onIdeas(cached, true)
			}
		}
		return
	}

	if p.cache != nil {
		if err := p.cache.CacheIdeas(ctx, ideas); err != nil {
			p.logger.Warn().Err(err).Msg("Failed to cache ideas")
		}
		p.cache.SetLastSync("ideas", time.Now())
	}
	p.onIdeas(ideas, false)
}

// fetchRetryConfig bounds in-cycle retries well under the poll interval;
// anything longer and the next cycle would supersede the retry anyway.
func fetchRetryConfig() utils.RetryConfig {
	return utils.RetryConfig{
		MaxAttempts:   2,
		InitialDelay:  200 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
	}
}

func (p *Poller) reportError(err error) {
	p.logger.Warn().Err(err).Msg("Refresh failed")
	if p.onError != nil {
		p.onError(err)
	}
}
