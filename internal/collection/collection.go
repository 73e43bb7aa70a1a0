// Package collection provides deterministic filtering, sorting and
// aggregate statistics over batches of trade ideas.
package collection

import (
	"sort"
	"strings"

	"tradeassist/internal/models"
)

// Predicate is a conjunction of optional filters. Zero values match
// everything.
type Predicate struct {
	Status    models.TradeStatus
	Sentiment models.Sentiment
	RiskLevel models.RiskLevel
	Search    string // free text over title, symbol and strategy
}

// Matches reports whether a trade idea satisfies every set filter.
func (p Predicate) Matches(t models.AiTrade) bool {
	if p.Status != "" && t.Status != p.Status {
		return false
	}
	if p.Sentiment != "" && t.Sentiment != p.Sentiment {
		return false
	}
	if p.RiskLevel != "" && t.RiskLevel != p.RiskLevel {
		return false
	}
	if p.Search != "" {
		needle := strings.ToLower(p.Search)
		haystack := strings.ToLower(t.Title + " " + t.Setup.Symbol + " " + t.Setup.Strategy)
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}

// Filter returns the trades matching the predicate, preserving input order.
// The input slice is never modified.
func Filter(trades []models.AiTrade, p Predicate) []models.AiTrade {
	out := make([]models.AiTrade, 0, len(trades))
	for _, t := range trades {
		if p.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// SortKey selects the field trades are ordered by.
type SortKey string

const (
	SortByCreatedAt  SortKey = "createdAt"
	SortByConfidence SortKey = "confidence"
	SortByPnL        SortKey = "pnl"
	SortByTitle      SortKey = "title"
)

// Direction selects ascending or descending order.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Sort returns a sorted copy of the trades. Ordering is a strict total
// order: ties on the sort key fall back to the idea ID, so repeated sorts
// of unchanged data produce identical output. When ordering by pnl, ideas
// with no pnl compare below any resolved value: first ascending, last
// descending.
func Sort(trades []models.AiTrade, key SortKey, dir Direction) []models.AiTrade {
	out := make([]models.AiTrade, len(trades))
	copy(out, trades)

	sort.Slice(out, func(i, j int) bool {
		less, equal := compare(out[i], out[j], key)
		if equal {
			return out[i].AiTradeID < out[j].AiTradeID
		}
		if dir == Descending {
			return !less
		}
		return less
	})
	return out
}

func compare(a, b models.AiTrade, key SortKey) (less, equal bool) {
	switch key {
	case SortByConfidence:
		return a.Confidence < b.Confidence, a.Confidence == b.Confidence
	case SortByPnL:
		ap, bp := a.PnL, b.PnL
		switch {
		case ap == nil && bp == nil:
			return false, true
		case ap == nil:
			return true, false // undefined pnl sorts below any value
		case bp == nil:
			return false, false
		default:
			return *ap < *bp, *ap == *bp
		}
	case SortByTitle:
		return a.Title < b.Title, a.Title == b.Title
	default: // createdAt
		return a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt)
	}
}

// Stats are the aggregate statistics over a batch of trade ideas.
type Stats struct {
	TotalTrades     int                        `json:"totalTrades"`
	PerStatusCounts map[models.TradeStatus]int `json:"perStatusCounts"`
	TotalPnL        float64                    `json:"totalPnL"`
	WinRate         float64                    `json:"winRate"`
	AvgConfidence   float64                    `json:"avgConfidence"`
}

// Aggregate computes batch statistics. Ideas with an undefined pnl (still
// open) are excluded from TotalPnL and from the WinRate denominator; they
// are not counted as zero.
func Aggregate(trades []models.AiTrade) Stats {
	stats := Stats{
		TotalTrades:     len(trades),
		PerStatusCounts: make(map[models.TradeStatus]int),
	}

	var confidenceSum float64
	var resolved, profitable int

	for _, t := range trades {
		stats.PerStatusCounts[t.Status]++
		confidenceSum += t.Confidence

		if t.PnL == nil {
			continue
		}
		resolved++
		stats.TotalPnL += *t.PnL
		if *t.PnL > 0 {
			profitable++
		}
	}

	if resolved > 0 {
		stats.WinRate = float64(profitable) / float64(resolved)
	}
	if len(trades) > 0 {
		stats.AvgConfidence = confidenceSum / float64(len(trades))
	}
	return stats
}
