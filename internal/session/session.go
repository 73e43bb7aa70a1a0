// Package session wires the assistant's long-lived resources together and
// tears them down deterministically. A session is an explicit scoped value
// passed to whatever needs it; nothing here is a process-wide singleton, so
// tests can run sessions side by side and teardown order is fixed.
package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"tradeassist/internal/api"
	"tradeassist/internal/config"
	"tradeassist/internal/feed"
	"tradeassist/internal/models"
	"tradeassist/internal/monitor"
	"tradeassist/internal/notify"
	"tradeassist/internal/order"
	"tradeassist/internal/refdata"
	"tradeassist/internal/store"
	"tradeassist/internal/stream"
)

// Session owns the feed connection, the hub, the backend clients, the
// poller and the local store for one run of the assistant. Close releases
// everything in reverse construction order; after Close the feed holds no
// subscriptions and the backend streams nothing.
type Session struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Refdata *refdata.Lookup

	Feed    *feed.Client
	Hub     *stream.Hub
	Trades  *api.TradeClient
	Ideas   *api.AiTradeClient
	Store   store.DataStore
	Builder *order.Builder
	Poller  *monitor.Poller
	Live    *monitor.LiveMonitor
	Notify  *notify.Fanout

	cancel context.CancelFunc
}

// Options tweaks session construction.
type Options struct {
	// WithoutFeed skips the live feed and hub, for commands that only talk
	// to the backend (listing trades, showing stats).
	WithoutFeed bool
	// WithoutStore skips the SQLite cache. Commands still work; they just
	// have no offline fallback.
	WithoutStore bool
}

// New builds a session from configuration. Nothing connects yet; call
// Start to bring up the feed and poller.
func New(cfg *config.Config, logger zerolog.Logger, opts Options) (*Session, error) {
	s := &Session{
		Config:  cfg,
		Logger:  logger,
		Refdata: refdata.NewLookup(),
		Builder: order.NewBuilder(),
	}

	s.Trades = api.NewTradeClient(api.TradeClientConfig{
		BaseURL:        cfg.Backend.TradeBaseURL,
		Timeout:        cfg.Backend.Timeout,
		RequestsPerSec: cfg.Backend.RequestsPerSec,
	}, logger)
	s.Ideas = api.NewAiTradeClient(cfg.Backend.AiTradeBaseURL, cfg.Backend.Timeout, logger)

	if !opts.WithoutStore {
		dbPath := filepath.Join(config.DefaultConfigDir(), "tradeassist.db")
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		st, err := store.NewSQLiteStore(dbPath)
		if err != nil {
			return nil, fmt.Errorf("opening local store: %w", err)
		}
		s.Store = st
	}

	if !opts.WithoutFeed {
		s.Feed = feed.NewClient(feed.Config{
			URL:          cfg.Feed.URL,
			MaxRetries:   cfg.Feed.MaxRetries,
			BaseDelay:    cfg.Feed.BaseDelay,
			ReadTimeout:  cfg.Feed.ReadTimeout,
			WriteTimeout: cfg.Feed.WriteTimeout,
			PingInterval: cfg.Feed.PingInterval,
		}, logger)
		s.Hub = stream.NewHubWithSource(s.Feed)
		s.Live = monitor.NewLiveMonitor(s.Hub, logger)
	}

	s.Poller = monitor.NewPoller(monitor.PollerConfig{
		UserID:             cfg.User.ID,
		Interval:           cfg.Poll.Interval,
		OutsideMarketHours: cfg.Poll.OutsideMarketHours,
	}, s.Trades, s.Ideas, s.Store, logger)

	s.Notify = buildNotifier(cfg, logger)

	return s, nil
}

func buildNotifier(cfg *config.Config, logger zerolog.Logger) *notify.Fanout {
	f := &notify.Fanout{Level: notify.Level(cfg.Notifications.Level)}
	if !cfg.Notifications.Enabled {
		return f
	}

	f.Notifiers = append(f.Notifiers, notify.NewTerminalNotifier())

	tg := cfg.Notifications.Telegram
	if tg.Enabled {
		n, err := notify.NewTelegramNotifier(tg.BotToken, tg.ChatID)
		if err != nil {
			logger.Warn().Err(err).Msg("Telegram notifier unavailable")
		} else {
			f.Notifiers = append(f.Notifiers, n)
		}
	}
	return f
}

// Start connects the feed, starts the hub and begins polling. The session
// runs until ctx is cancelled or Close is called.
func (s *Session) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	if s.Hub != nil {
		if err := s.Hub.Start(ctx); err != nil {
			return fmt.Errorf("starting price hub: %w", err)
		}
		if s.Config.User.ID != "" {
			if err := s.Feed.SubscribeAiTrades(s.Config.User.ID); err != nil {
				s.Logger.Warn().Err(err).Msg("AI trade subscription failed")
			}
		}
	}

	s.wireMonitor()
	s.Poller.Start(ctx)
	return nil
}

func (s *Session) wireMonitor() {
	if s.Live == nil {
		return
	}

	s.Poller.OnTrades(func(trades []models.Trade, fromCache bool) {
		if !fromCache {
			s.Live.SetTrades(trades)
		}
	})
	s.Poller.OnIdeas(func(ideas []models.AiTrade, fromCache bool) {
		if !fromCache {
			s.Live.SetIdeas(ideas)
		}
	})
	s.Live.OnIdeaFlip(func(idea models.AiTrade, from, to models.TradeStatus) {
		s.Logger.Info().
			Str("ai_trade_id", idea.AiTradeID).
			Str("from", string(from)).
			Str("to", string(to)).
			Msg("Idea status changed")
		if err := s.Notify.Send(context.Background(), notify.ForIdeaFlip(idea.AiTradeID, to)); err != nil {
			s.Logger.Warn().Err(err).Msg("Notification failed")
		}
	})
	s.Feed.OnAiTradeFlip(func(aiTradeID string, status models.TradeStatus) {
		s.Live.ApplyFlip(aiTradeID, status)
	})
}

// Close releases every resource the session owns. Safe to call more than
// once; teardown runs in reverse construction order.
func (s *Session) Close() error {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	if s.Poller != nil {
		s.Poller.Stop()
	}
	if s.Live != nil {
		s.Live.Stop()
	}
	if s.Hub != nil {
		s.Hub.Stop() // closes the feed too
	} else if s.Feed != nil {
		s.Feed.Close()
	}

	var firstErr error
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			firstErr = err
		}
	}
	if s.Trades != nil {
		if err := s.Trades.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.Ideas != nil {
		if err := s.Ideas.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
