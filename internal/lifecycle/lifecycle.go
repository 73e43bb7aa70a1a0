// Package lifecycle defines the trade status state machine: legal
// transitions, the fields each transition must populate, and the PnL
// conventions shared by trades and AI trade ideas. Transition authority
// lives server-side; this package is the client-visible contract.
package lifecycle

import (
	"time"

	"tradeassist/internal/errors"
	"tradeassist/internal/models"
	"tradeassist/pkg/utils"
)

// transitions maps each status to the statuses it may legally move to.
// suggested and active are the only non-terminal states. active ->
// cancelled is not observed in practice but the schema tolerates it.
var transitions = map[models.TradeStatus][]models.TradeStatus{
	models.StatusSuggested: {
		models.StatusActive,
		models.StatusCancelled,
	},
	models.StatusActive: {
		models.StatusTargetHit,
		models.StatusStoplossHit,
		models.StatusExpired,
		models.StatusCancelled,
	},
}

// CanTransition reports whether from -> to is a legal status transition.
func CanTransition(from, to models.TradeStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether a status is terminal. Exit fields on a terminal
// trade are immutable.
func Terminal(status models.TradeStatus) bool {
	return len(transitions[status]) == 0
}

// NextStatuses returns the statuses a trade may legally move to.
func NextStatuses(from models.TradeStatus) []models.TradeStatus {
	next := transitions[from]
	out := make([]models.TradeStatus, len(next))
	copy(out, next)
	return out
}

// Activation carries the fields that must be populated when a trade
// becomes active.
type Activation struct {
	EntryPrice float64
	EntryTime  time.Time
}

// Exit carries the fields that must be populated when a trade reaches a
// terminal status.
type Exit struct {
	ExitPrice float64
	ExitTime  time.Time
	PnL       float64
	Charges   float64
}

// Activate applies a suggested -> active transition to a copy of the trade.
func Activate(trade models.Trade, act Activation) (models.Trade, error) {
	if !CanTransition(trade.Status, models.StatusActive) {
		return trade, &errors.TransitionError{From: string(trade.Status), To: string(models.StatusActive)}
	}
	trade.Status = models.StatusActive
	trade.EntryPrice = act.EntryPrice
	entryTime := act.EntryTime
	trade.EntryTime = &entryTime
	return trade, nil
}

// Cancel applies a transition to cancelled from any non-terminal status.
func Cancel(trade models.Trade, at time.Time) (models.Trade, error) {
	if !CanTransition(trade.Status, models.StatusCancelled) {
		return trade, &errors.TransitionError{From: string(trade.Status), To: string(models.StatusCancelled)}
	}
	trade.Status = models.StatusCancelled
	exitTime := at
	trade.ExitTime = &exitTime
	return trade, nil
}

// Finish applies an active -> terminal transition, populating the exit
// fields. The raw pnl is stored unrounded; only PercentPnL is a display
// value rounded to 2 decimals.
func Finish(trade models.Trade, to models.TradeStatus, exit Exit) (models.Trade, error) {
	if !Terminal(to) {
		return trade, &errors.TransitionError{From: string(trade.Status), To: string(to)}
	}
	if !CanTransition(trade.Status, to) {
		return trade, &errors.TransitionError{From: string(trade.Status), To: string(to)}
	}

	trade.Status = to
	exitPrice := exit.ExitPrice
	exitTime := exit.ExitTime
	pnl := exit.PnL
	net := exit.PnL - exit.Charges
	pct := PercentPnL(exit.PnL, trade.EntryPrice, trade.Quantity)

	trade.ExitPrice = &exitPrice
	trade.ExitTime = &exitTime
	trade.PnL = &pnl
	trade.NetPnL = &net
	trade.PercentPnL = &pct
	trade.Charges = exit.Charges
	return trade, nil
}

// UnrealisedPnL computes the open profit of an active trade against the
// live price. For a long trade the sign follows current - entry; for a
// short trade it inverts. Display only - never authoritative for
// settlement.
func UnrealisedPnL(side models.OrderSide, entryPrice, currentPrice float64, quantity int) float64 {
	diff := currentPrice - entryPrice
	if side == models.OrderSideSell {
		diff = -diff
	}
	return diff * float64(quantity)
}

// UnrealisedForTrade computes the open PnL of an active trade, or reports
// false when the trade has no entry yet or is already resolved.
func UnrealisedForTrade(trade models.Trade, currentPrice float64) (float64, bool) {
	if trade.Status != models.StatusActive || trade.EntryTime == nil {
		return 0, false
	}
	return UnrealisedPnL(trade.Side, trade.EntryPrice, currentPrice, trade.Quantity), true
}

// UnrealisedForIdea computes the open PnL of an active AI trade idea from
// the live price. Bearish ideas invert the sign, mirroring a short.
func UnrealisedForIdea(idea models.AiTrade, currentPrice float64) (float64, bool) {
	if idea.Status != models.StatusActive || idea.EntryPrice == nil {
		return 0, false
	}
	side := models.OrderSideBuy
	if idea.Sentiment == models.SentimentBearish {
		side = models.OrderSideSell
	}
	return UnrealisedPnL(side, *idea.EntryPrice, currentPrice, 1), true
}

// PercentPnL computes pnl / (entry * quantity) * 100 rounded to 2 decimals
// for presentation. Aggregation must use the raw pnl, not this value.
func PercentPnL(pnl, entryPrice float64, quantity int) float64 {
	base := entryPrice * float64(quantity)
	if base == 0 {
		return 0
	}
	return utils.Round2(pnl / base * 100)
}
