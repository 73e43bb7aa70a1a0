// Package store provides local persistence for the assistant: a journal of
// submitted orders and caches of the last fetched trades and ideas so the
// CLI can render the last-known state when the backend is unreachable.
package store

import (
	"context"
	"time"

	"tradeassist/internal/models"
)

// DataStore defines the interface for local persistence.
type DataStore interface {
	// Order journal
	JournalOrder(ctx context.Context, order models.ValidOrder, tradeID string) error
	GetJournal(ctx context.Context, limit int) ([]JournalEntry, error)

	// Trade cache
	CacheTrades(ctx context.Context, userID string, trades []models.Trade) error
	GetCachedTrades(ctx context.Context, userID string) ([]models.Trade, error)

	// Idea cache
	CacheIdeas(ctx context.Context, ideas []models.AiTrade) error
	GetCachedIdeas(ctx context.Context) ([]models.AiTrade, error)

	// Sync bookkeeping
	GetLastSync(dataType string) time.Time
	SetLastSync(dataType string, t time.Time) error

	// Lifecycle
	Close() error
}

// JournalEntry records one submitted order.
type JournalEntry struct {
	ID            int64
	TradeID       string
	UserID        string
	InstrumentKey string
	Symbol        string
	Side          models.OrderSide
	Quantity      int
	EntryPrice    float64
	Status        models.OrderStatus
	SubmittedAt   time.Time
}
