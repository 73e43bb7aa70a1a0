package collection

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"tradeassist/internal/models"
)

func genIdeas() gopter.Gen {
	statuses := []models.TradeStatus{
		models.StatusSuggested,
		models.StatusActive,
		models.StatusTargetHit,
		models.StatusStoplossHit,
		models.StatusExpired,
		models.StatusCancelled,
	}

	ideaGen := gopter.CombineGens(
		gen.Identifier(),
		gen.IntRange(0, len(statuses)-1),
		gen.Float64Range(0, 100),
		gen.Float64Range(-10000, 10000),
		gen.Bool(),
		gen.Int64Range(0, 1<<40),
	).Map(func(vals []interface{}) models.AiTrade {
		idea := models.AiTrade{
			AiTradeID:  vals[0].(string),
			Title:      "idea " + vals[0].(string),
			Status:     statuses[vals[1].(int)],
			Confidence: vals[2].(float64),
			CreatedAt:  time.Unix(vals[5].(int64), 0),
		}
		if vals[4].(bool) {
			pnl := vals[3].(float64)
			idea.PnL = &pnl
		}
		return idea
	})

	return gen.SliceOf(ideaGen)
}

// Property: TotalPnL is exactly the sum over resolved ideas, and the win
// rate denominator counts resolved ideas only.
func TestProperty_AggregateSumsResolvedOnly(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("aggregate matches a direct computation", prop.ForAll(
		func(ideas []models.AiTrade) bool {
			stats := Aggregate(ideas)

			var sum float64
			var resolved, wins int
			for _, idea := range ideas {
				if idea.PnL == nil {
					continue
				}
				resolved++
				sum += *idea.PnL
				if *idea.PnL > 0 {
					wins++
				}
			}

			if stats.TotalTrades != len(ideas) {
				return false
			}
			if diff := stats.TotalPnL - sum; diff > 1e-6 || diff < -1e-6 {
				return false
			}
			if resolved == 0 {
				return stats.WinRate == 0
			}
			want := float64(wins) / float64(resolved)
			diff := stats.WinRate - want
			return diff < 1e-9 && diff > -1e-9
		},
		genIdeas(),
	))

	properties.TestingRun(t)
}

// Property: Sort returns a permutation of its input and sorting twice gives
// the same sequence.
func TestProperty_SortIsStablePermutation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	keys := []SortKey{SortByCreatedAt, SortByConfidence, SortByPnL, SortByTitle}

	properties.Property("sort is a deterministic permutation", prop.ForAll(
		func(ideas []models.AiTrade, keyIdx int, desc bool) bool {
			key := keys[keyIdx]
			dir := Ascending
			if desc {
				dir = Descending
			}

			once := Sort(ideas, key, dir)
			twice := Sort(once, key, dir)

			if len(once) != len(ideas) || len(twice) != len(once) {
				return false
			}

			counts := make(map[string]int)
			for _, idea := range ideas {
				counts[idea.AiTradeID]++
			}
			for _, idea := range once {
				counts[idea.AiTradeID]--
			}
			for _, n := range counts {
				if n != 0 {
					return false
				}
			}

			for i := range once {
				if once[i].AiTradeID != twice[i].AiTradeID {
					return false
				}
			}
			return true
		},
		genIdeas(),
		gen.IntRange(0, len(keys)-1),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
