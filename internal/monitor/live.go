package monitor

import (
	"sync"

	"github.com/rs/zerolog"

	"tradeassist/internal/lifecycle"
	"tradeassist/internal/models"
	"tradeassist/internal/stream"
)

// PnLUpdate carries a freshly recomputed unrealised PnL for one position.
type PnLUpdate struct {
	TradeID       string
	AiTradeID     string
	InstrumentKey string
	Price         models.LivePrice
	Unrealised    float64
	PercentPnL    float64
}

// liveSub tracks one instrument's hub subscription.
type liveSub struct {
	ch   <-chan models.LivePrice
	stop chan struct{}
}

// LiveMonitor watches ticks for every active position and recomputes its
// unrealised PnL on each update. Resolved positions keep their server-side
// realised figures; the monitor only touches open ones. It also diffs idea
// statuses between refreshes so a backend flip (suggested to active, active
// to target_hit) surfaces without a manual reload.
type LiveMonitor struct {
	hub    *stream.Hub
	logger zerolog.Logger

	mu         sync.Mutex
	trades     map[string]models.Trade   // active trades by ID
	ideas      map[string]models.AiTrade // active ideas by ID
	ideaStatus map[string]models.TradeStatus
	subs       map[string]liveSub // one hub subscription per instrument

	onPnL      func(PnLUpdate)
	onIdeaFlip func(idea models.AiTrade, from, to models.TradeStatus)
}

// NewLiveMonitor creates a live monitor fed by the hub.
func NewLiveMonitor(hub *stream.Hub, logger zerolog.Logger) *LiveMonitor {
	return &LiveMonitor{
		hub:        hub,
		logger:     logger.With().Str("component", "live_monitor").Logger(),
		trades:     make(map[string]models.Trade),
		ideas:      make(map[string]models.AiTrade),
		ideaStatus: make(map[string]models.TradeStatus),
		subs:       make(map[string]liveSub),
	}
}

// OnPnL sets the unrealised PnL handler.
func (m *LiveMonitor) OnPnL(fn func(PnLUpdate)) { m.onPnL = fn }

// OnIdeaFlip sets the handler called when a refreshed idea list shows a
// status different from the previous one.
func (m *LiveMonitor) OnIdeaFlip(fn func(idea models.AiTrade, from, to models.TradeStatus)) {
	m.onIdeaFlip = fn
}

// SetTrades replaces the tracked trade set with the latest refresh. Only
// active trades are tracked; instruments no longer backing any open
// position lose their subscription.
func (m *LiveMonitor) SetTrades(trades []models.Trade) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.trades = make(map[string]models.Trade, len(trades))
	for _, t := range trades {
		if t.Status == models.StatusActive {
			m.trades[t.TradeID] = t
		}
	}
	m.reconcileLocked()
}

// SetIdeas replaces the tracked idea set, firing flip callbacks for any
// idea whose status changed since the previous refresh.
func (m *LiveMonitor) SetIdeas(ideas []models.AiTrade) {
	type flip struct {
		idea     models.AiTrade
		from, to models.TradeStatus
	}

	m.mu.Lock()
	var flips []flip
	nextStatus := make(map[string]models.TradeStatus, len(ideas))
	m.ideas = make(map[string]models.AiTrade, len(ideas))
	for _, idea := range ideas {
		nextStatus[idea.AiTradeID] = idea.Status
		if prev, seen := m.ideaStatus[idea.AiTradeID]; seen && prev != idea.Status {
			flips = append(flips, flip{idea, prev, idea.Status})
		}
		if idea.Status == models.StatusActive {
			m.ideas[idea.AiTradeID] = idea
		}
	}
	m.ideaStatus = nextStatus
	m.reconcileLocked()
	m.mu.Unlock()

	if m.onIdeaFlip != nil {
		for _, f := range flips {
			m.onIdeaFlip(f.idea, f.from, f.to)
		}
	}
}

// ApplyFlip records a status change pushed over the feed, ahead of the next
// poll cycle. Returns false when the idea is unknown or the status did not
// change.
func (m *LiveMonitor) ApplyFlip(aiTradeID string, status models.TradeStatus) bool {
	m.mu.Lock()
	prev, seen := m.ideaStatus[aiTradeID]
	if !seen || prev == status {
		m.mu.Unlock()
		return false
	}
	m.ideaStatus[aiTradeID] = status
	idea, tracked := m.ideas[aiTradeID]
	if tracked {
		idea.Status = status
		if status == models.StatusActive {
			m.ideas[aiTradeID] = idea
		} else {
			delete(m.ideas, aiTradeID)
		}
	}
	m.reconcileLocked()
	m.mu.Unlock()

	if m.onIdeaFlip != nil && tracked {
		m.onIdeaFlip(idea, prev, status)
	}
	return true
}

// reconcileLocked aligns hub subscriptions with the instruments currently
// backing an active position. Caller holds m.mu.
func (m *LiveMonitor) reconcileLocked() {
	wanted := make(map[string]struct{})
	for _, t := range m.trades {
		wanted[t.InstrumentKey] = struct{}{}
	}
	for _, idea := range m.ideas {
		wanted[idea.Setup.InstrumentKey] = struct{}{}
	}

	for key := range wanted {
		if _, ok := m.subs[key]; ok {
			continue
		}
		sub := liveSub{
			ch:   m.hub.SubscribeWithID(key, "live-monitor"),
			stop: make(chan struct{}),
		}
		m.subs[key] = sub
		go m.consume(key, sub)
	}

	for key, sub := range m.subs {
		if _, ok := wanted[key]; ok {
			continue
		}
		close(sub.stop)
		m.hub.Unsubscribe(key, sub.ch)
		delete(m.subs, key)
	}
}

func (m *LiveMonitor) consume(key string, sub liveSub) {
	for {
		select {
		case <-sub.stop:
			return
		case price, ok := <-sub.ch:
			if !ok {
				return
			}
			m.recompute(key, price)
		}
	}
}

func (m *LiveMonitor) recompute(key string, price models.LivePrice) {
	if m.onPnL == nil {
		return
	}

	m.mu.Lock()
	var updates []PnLUpdate
	for _, t := range m.trades {
		if t.InstrumentKey != key {
			continue
		}
		pnl, ok := lifecycle.UnrealisedForTrade(t, price.LastPrice)
		if !ok {
			continue
		}
		updates = append(updates, PnLUpdate{
			TradeID:       t.TradeID,
			InstrumentKey: key,
			Price:         price,
			Unrealised:    pnl,
			PercentPnL:    lifecycle.PercentPnL(pnl, t.EntryPrice, t.Quantity),
		})
	}
	for _, idea := range m.ideas {
		if idea.Setup.InstrumentKey != key {
			continue
		}
		pnl, ok := lifecycle.UnrealisedForIdea(idea, price.LastPrice)
		if !ok {
			continue
		}
		updates = append(updates, PnLUpdate{
			AiTradeID:     idea.AiTradeID,
			InstrumentKey: key,
			Price:         price,
			Unrealised:    pnl,
			PercentPnL:    lifecycle.PercentPnL(pnl, *idea.EntryPrice, 1),
		})
	}
	m.mu.Unlock()

	for _, u := range updates {
		m.onPnL(u)
	}
}

// Stop releases every live subscription.
func (m *LiveMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, sub := range m.subs {
		close(sub.stop)
		m.hub.Unsubscribe(key, sub.ch)
		delete(m.subs, key)
	}
}
