package feed

import (
	"sync"

	"tradeassist/internal/models"
)

// Quality classifies a price book read. A missing quote and a stale quote
// are different states: missing means no update was ever received for the
// key, stale means the quote exists but the connection has since dropped.
type Quality int

const (
	QuoteMissing Quality = iota
	QuoteLive
	QuoteStale
)

func (q Quality) String() string {
	switch q {
	case QuoteLive:
		return "live"
	case QuoteStale:
		return "stale"
	default:
		return "missing"
	}
}

// PriceBook holds the latest LivePrice per instrument key. It is the only
// piece of state shared across UI surfaces; all reads return copies and
// only the feed client writes to it.
type PriceBook struct {
	mu     sync.RWMutex
	prices map[string]models.LivePrice
	stale  bool
}

// NewPriceBook creates an empty price book.
func NewPriceBook() *PriceBook {
	return &PriceBook{
		prices: make(map[string]models.LivePrice),
	}
}

// Apply records an update for a key, replacing any previous value
// (last-write-wins, no history).
func (b *PriceBook) Apply(price models.LivePrice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prices[price.InstrumentKey] = price
	b.stale = false
}

// Remove drops the quote for a key. Called on unsubscribe so late updates
// for an abandoned instrument cannot resurface.
func (b *PriceBook) Remove(instrumentKey string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.prices, instrumentKey)
}

// MarkStale flags every held quote as stale. Called when the connection
// drops; quotes become live again as fresh updates arrive.
func (b *PriceBook) MarkStale() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stale = true
}

// Stale reports whether the book as a whole is flagged stale.
func (b *PriceBook) Stale() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.stale
}

// Get returns the quote for a key with its quality. The returned value is
// a copy; consumers must not expect it to track later updates.
func (b *PriceBook) Get(instrumentKey string) (models.LivePrice, Quality) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	price, ok := b.prices[instrumentKey]
	if !ok {
		return models.LivePrice{}, QuoteMissing
	}
	if b.stale {
		return price, QuoteStale
	}
	return price, QuoteLive
}

// Snapshot returns a copy of the whole book. Consumers iterate the copy so
// they never observe a partially-updated map mid-update.
func (b *PriceBook) Snapshot() map[string]models.LivePrice {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string]models.LivePrice, len(b.prices))
	for k, v := range b.prices {
		out[k] = v
	}
	return out
}

// Len returns the number of quotes held.
func (b *PriceBook) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.prices)
}
