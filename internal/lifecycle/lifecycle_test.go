package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeassist/internal/errors"
	"tradeassist/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func TestTransitionMatrix(t *testing.T) {
	legal := map[models.TradeStatus][]models.TradeStatus{
		models.StatusSuggested: {models.StatusActive, models.StatusCancelled},
		models.StatusActive: {
			models.StatusTargetHit,
			models.StatusStoplossHit,
			models.StatusExpired,
			models.StatusCancelled,
		},
	}

	for _, from := range models.AllStatuses() {
		for _, to := range models.AllStatuses() {
			want := false
			for _, next := range legal[from] {
				if next == to {
					want = true
				}
			}
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	assert.False(t, Terminal(models.StatusSuggested))
	assert.False(t, Terminal(models.StatusActive))
	assert.True(t, Terminal(models.StatusTargetHit))
	assert.True(t, Terminal(models.StatusStoplossHit))
	assert.True(t, Terminal(models.StatusExpired))
	assert.True(t, Terminal(models.StatusCancelled))
}

func TestActivatePopulatesEntry(t *testing.T) {
	trade := models.Trade{TradeID: "t-1", Status: models.StatusSuggested}
	at := time.Date(2024, 12, 10, 9, 30, 0, 0, time.UTC)

	got, err := Activate(trade, Activation{EntryPrice: 2500, EntryTime: at})
	require.NoError(t, err)

	assert.Equal(t, models.StatusActive, got.Status)
	assert.Equal(t, 2500.0, got.EntryPrice)
	require.NotNil(t, got.EntryTime)
	assert.True(t, got.EntryTime.Equal(at))
}

func TestActivateFromTerminalFails(t *testing.T) {
	trade := models.Trade{Status: models.StatusTargetHit}

	_, err := Activate(trade, Activation{EntryPrice: 100, EntryTime: time.Now()})

	assert.ErrorIs(t, err, errors.ErrInvalidTransition)
}

func TestFinishPopulatesExitFields(t *testing.T) {
	trade := models.Trade{
		TradeID:    "t-1",
		Status:     models.StatusActive,
		Side:       models.OrderSideBuy,
		Quantity:   10,
		EntryPrice: 250,
	}
	at := time.Date(2024, 12, 10, 14, 0, 0, 0, time.UTC)

	got, err := Finish(trade, models.StatusTargetHit, Exit{
		ExitPrice: 262.5,
		ExitTime:  at,
		PnL:       125,
		Charges:   20,
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusTargetHit, got.Status)
	require.NotNil(t, got.PnL)
	assert.Equal(t, 125.0, *got.PnL)
	require.NotNil(t, got.NetPnL)
	assert.Equal(t, 105.0, *got.NetPnL)
	require.NotNil(t, got.PercentPnL)
	assert.Equal(t, 5.0, *got.PercentPnL) // 125 / (250*10) * 100
	require.NotNil(t, got.ExitPrice)
	assert.Equal(t, 262.5, *got.ExitPrice)
}

func TestFinishToNonTerminalFails(t *testing.T) {
	trade := models.Trade{Status: models.StatusActive}

	_, err := Finish(trade, models.StatusActive, Exit{})

	assert.ErrorIs(t, err, errors.ErrInvalidTransition)
}

func TestFinishFromSuggestedFails(t *testing.T) {
	trade := models.Trade{Status: models.StatusSuggested}

	_, err := Finish(trade, models.StatusTargetHit, Exit{})

	var terr *errors.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, string(models.StatusSuggested), terr.From)
}

func TestCancelFromNonTerminal(t *testing.T) {
	for _, from := range []models.TradeStatus{models.StatusSuggested, models.StatusActive} {
		trade := models.Trade{Status: from}
		got, err := Cancel(trade, time.Now())
		require.NoError(t, err, "from %s", from)
		assert.Equal(t, models.StatusCancelled, got.Status)
		assert.NotNil(t, got.ExitTime)
	}

	_, err := Cancel(models.Trade{Status: models.StatusExpired}, time.Now())
	assert.ErrorIs(t, err, errors.ErrInvalidTransition)
}

func TestUnrealisedPnLSigns(t *testing.T) {
	tests := []struct {
		name    string
		side    models.OrderSide
		entry   float64
		current float64
		qty     int
		want    float64
	}{
		{"long gain", models.OrderSideBuy, 100, 110, 5, 50},
		{"long loss", models.OrderSideBuy, 100, 95, 5, -25},
		{"short gain", models.OrderSideSell, 100, 95, 5, 25},
		{"short loss", models.OrderSideSell, 100, 110, 5, -50},
		{"flat", models.OrderSideBuy, 100, 100, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UnrealisedPnL(tt.side, tt.entry, tt.current, tt.qty)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestUnrealisedForTradeRequiresActiveEntry(t *testing.T) {
	entry := time.Now()
	active := models.Trade{
		Status:     models.StatusActive,
		Side:       models.OrderSideBuy,
		Quantity:   10,
		EntryPrice: 100,
		EntryTime:  &entry,
	}

	pnl, ok := UnrealisedForTrade(active, 104)
	require.True(t, ok)
	assert.InDelta(t, 40.0, pnl, 1e-9)

	_, ok = UnrealisedForTrade(models.Trade{Status: models.StatusSuggested}, 104)
	assert.False(t, ok)

	closed := active
	closed.Status = models.StatusTargetHit
	_, ok = UnrealisedForTrade(closed, 104)
	assert.False(t, ok)
}

func TestUnrealisedForIdeaInvertsBearish(t *testing.T) {
	bull := models.AiTrade{
		Status:     models.StatusActive,
		Sentiment:  models.SentimentBullish,
		EntryPrice: floatPtr(100),
	}
	pnl, ok := UnrealisedForIdea(bull, 110)
	require.True(t, ok)
	assert.InDelta(t, 10.0, pnl, 1e-9)

	bear := bull
	bear.Sentiment = models.SentimentBearish
	pnl, ok = UnrealisedForIdea(bear, 110)
	require.True(t, ok)
	assert.InDelta(t, -10.0, pnl, 1e-9)

	open := bull
	open.EntryPrice = nil
	_, ok = UnrealisedForIdea(open, 110)
	assert.False(t, ok)
}

func TestPercentPnLRoundsForDisplay(t *testing.T) {
	assert.Equal(t, 5.0, PercentPnL(125, 250, 10))
	assert.Equal(t, 33.33, PercentPnL(100, 300, 1))
	assert.Equal(t, -33.33, PercentPnL(-100, 300, 1))
	assert.Zero(t, PercentPnL(100, 0, 10))
}
