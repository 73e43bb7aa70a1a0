package collection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeassist/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func idea(id string, mutate func(*models.AiTrade)) models.AiTrade {
	t := models.AiTrade{
		AiTradeID:  id,
		Title:      "Nifty breakout",
		Sentiment:  models.SentimentBullish,
		RiskLevel:  models.RiskMedium,
		Status:     models.StatusActive,
		Confidence: 70,
		Setup: models.TradeSetup{
			InstrumentKey: "NSE_INDEX|Nifty 50",
			Symbol:        "NIFTY",
			Strategy:      "momentum",
		},
		CreatedAt: time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC),
	}
	if mutate != nil {
		mutate(&t)
	}
	return t
}

func TestFilterIsConjunction(t *testing.T) {
	ideas := []models.AiTrade{
		idea("a", nil),
		idea("b", func(i *models.AiTrade) { i.Sentiment = models.SentimentBearish }),
		idea("c", func(i *models.AiTrade) { i.Status = models.StatusTargetHit }),
		idea("d", func(i *models.AiTrade) { i.RiskLevel = models.RiskHigh }),
	}

	got := Filter(ideas, Predicate{
		Status:    models.StatusActive,
		Sentiment: models.SentimentBullish,
	})

	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].AiTradeID)
	assert.Equal(t, "d", got[1].AiTradeID)
}

func TestFilterSearchIsCaseInsensitive(t *testing.T) {
	ideas := []models.AiTrade{
		idea("a", func(i *models.AiTrade) { i.Title = "Bank Nifty reversal" }),
		idea("b", func(i *models.AiTrade) { i.Setup.Strategy = "mean reversion" }),
		idea("c", nil),
	}

	got := Filter(ideas, Predicate{Search: "REVERS"})

	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].AiTradeID)
	assert.Equal(t, "b", got[1].AiTradeID)
}

func TestFilterZeroPredicateMatchesAll(t *testing.T) {
	ideas := []models.AiTrade{idea("a", nil), idea("b", nil)}
	assert.Len(t, Filter(ideas, Predicate{}), 2)
}

func TestSortTieBreaksOnID(t *testing.T) {
	// All three share a confidence; order must come from the ID.
	ideas := []models.AiTrade{
		idea("c", nil),
		idea("a", nil),
		idea("b", nil),
	}

	got := Sort(ideas, SortByConfidence, Ascending)

	assert.Equal(t, []string{"a", "b", "c"}, idsOf(got))

	// Descending with all-equal keys keeps the same ID tiebreak order.
	got = Sort(ideas, SortByConfidence, Descending)
	assert.Equal(t, []string{"a", "b", "c"}, idsOf(got))
}

func TestSortByPnLPutsOpenIdeasBelowResolved(t *testing.T) {
	ideas := []models.AiTrade{
		idea("open", nil), // nil pnl
		idea("loss", func(i *models.AiTrade) { i.PnL = floatPtr(-40) }),
		idea("win", func(i *models.AiTrade) { i.PnL = floatPtr(100) }),
	}

	asc := Sort(ideas, SortByPnL, Ascending)
	assert.Equal(t, []string{"open", "loss", "win"}, idsOf(asc))

	desc := Sort(ideas, SortByPnL, Descending)
	assert.Equal(t, []string{"win", "loss", "open"}, idsOf(desc))
}

func TestSortIsDeterministic(t *testing.T) {
	ideas := []models.AiTrade{
		idea("b", func(i *models.AiTrade) { i.Confidence = 60 }),
		idea("a", func(i *models.AiTrade) { i.Confidence = 60 }),
		idea("c", func(i *models.AiTrade) { i.Confidence = 80 }),
	}

	first := Sort(ideas, SortByConfidence, Descending)
	second := Sort(first, SortByConfidence, Descending)

	assert.Equal(t, idsOf(first), idsOf(second))
	// Input order never leaks into equal-key ordering.
	assert.Equal(t, []string{"c", "a", "b"}, idsOf(first))
}

func TestSortDoesNotMutateInput(t *testing.T) {
	ideas := []models.AiTrade{
		idea("b", nil),
		idea("a", nil),
	}

	_ = Sort(ideas, SortByTitle, Ascending)

	assert.Equal(t, "b", ideas[0].AiTradeID)
}

func idsOf(ideas []models.AiTrade) []string {
	ids := make([]string, len(ideas))
	for i, t := range ideas {
		ids[i] = t.AiTradeID
	}
	return ids
}

func TestAggregateExcludesOpenIdeas(t *testing.T) {
	ideas := []models.AiTrade{
		idea("win", func(i *models.AiTrade) {
			i.Status = models.StatusTargetHit
			i.PnL = floatPtr(100)
		}),
		idea("loss", func(i *models.AiTrade) {
			i.Status = models.StatusStoplossHit
			i.PnL = floatPtr(-40)
		}),
		idea("open", nil), // nil pnl, must not count as zero
	}

	stats := Aggregate(ideas)

	assert.Equal(t, 3, stats.TotalTrades)
	assert.InDelta(t, 60.0, stats.TotalPnL, 1e-9)
	// One win out of two resolved; the open idea is not in the denominator.
	assert.InDelta(t, 0.5, stats.WinRate, 1e-9)
	assert.Equal(t, 1, stats.PerStatusCounts[models.StatusTargetHit])
	assert.Equal(t, 1, stats.PerStatusCounts[models.StatusStoplossHit])
	assert.Equal(t, 1, stats.PerStatusCounts[models.StatusActive])
}

func TestAggregateEmpty(t *testing.T) {
	stats := Aggregate(nil)

	assert.Equal(t, 0, stats.TotalTrades)
	assert.Zero(t, stats.TotalPnL)
	assert.Zero(t, stats.WinRate)
	assert.Zero(t, stats.AvgConfidence)
}

func TestAggregateAllOpen(t *testing.T) {
	ideas := []models.AiTrade{idea("a", nil), idea("b", nil)}

	stats := Aggregate(ideas)

	assert.Zero(t, stats.TotalPnL)
	assert.Zero(t, stats.WinRate)
	assert.InDelta(t, 70.0, stats.AvgConfidence, 1e-9)
}
