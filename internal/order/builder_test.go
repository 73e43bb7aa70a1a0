package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeassist/internal/models"
	"tradeassist/pkg/utils"
)

func reliance() models.Instrument {
	return models.Instrument{
		InstrumentKey: "NSE_EQ|INE002A01018",
		Symbol:        "RELIANCE",
		AssetClass:    models.AssetEquity,
		TickSize:      0.05,
	}
}

func niftyFuture() models.Instrument {
	return models.Instrument{
		InstrumentKey: "NSE_FO|53001",
		Symbol:        "NIFTY24DECFUT",
		AssetClass:    models.AssetFuture,
		LotSize:       75,
		TickSize:      0.05,
	}
}

func TestBuildIntentSeedsEntryFromSide(t *testing.T) {
	b := testBuilder()
	snapshot := openSnapshot(2500) // bid 2499.95, ask 2500.05

	buy := b.BuildIntent("u-1", reliance(), models.OrderSideBuy, snapshot)
	assert.Equal(t, snapshot.AskPrice, buy.EntryPrice)
	assert.False(t, buy.PriceOverride)
	assert.Equal(t, 1, buy.Quantity)
	assert.Equal(t, models.ValidityIntraday, buy.Validity)

	sell := b.BuildIntent("u-1", reliance(), models.OrderSideSell, snapshot)
	assert.Equal(t, snapshot.BidPrice, sell.EntryPrice)
}

func TestReseedPreservesLevelsAndClearsOverride(t *testing.T) {
	b := testBuilder()
	snapshot := openSnapshot(2500)

	intent := b.BuildIntent("u-1", reliance(), models.OrderSideBuy, snapshot)
	intent = WithEntryPrice(intent, 2490)
	intent = WithStoploss(intent, floatPtr(2450))
	intent = WithTarget(intent, floatPtr(2550))
	intent = WithDescription(intent, "breakout setup")

	flipped := b.Reseed(intent, models.OrderSideSell, snapshot)

	assert.Equal(t, models.OrderSideSell, flipped.Side)
	assert.Equal(t, snapshot.BidPrice, flipped.EntryPrice)
	assert.False(t, flipped.PriceOverride)
	require.NotNil(t, flipped.Stoploss)
	assert.Equal(t, 2450.0, *flipped.Stoploss)
	require.NotNil(t, flipped.Target)
	assert.Equal(t, 2550.0, *flipped.Target)
	assert.Equal(t, "breakout setup", flipped.Description)
}

func TestResetForInstrumentClearsLevels(t *testing.T) {
	b := testBuilder()
	snapshot := openSnapshot(2500)

	intent := b.BuildIntent("u-1", reliance(), models.OrderSideBuy, snapshot)
	intent = WithQuantity(intent, 3)
	intent = WithStoploss(intent, floatPtr(2450))
	intent = WithTarget(intent, floatPtr(2550))
	intent = WithDescription(intent, "stale note")

	futSnapshot := openSnapshot(24300)
	futSnapshot.InstrumentKey = "NSE_FO|53001"

	fresh := b.ResetForInstrument(intent, niftyFuture(), futSnapshot)

	assert.Equal(t, "NSE_FO|53001", fresh.InstrumentKey)
	assert.Equal(t, 75, fresh.LotSize)
	assert.Nil(t, fresh.Stoploss)
	assert.Nil(t, fresh.Target)
	assert.Empty(t, fresh.Description)
	// Quantity and side carry over; they are selections, not levels.
	assert.Equal(t, 3, fresh.Quantity)
	assert.Equal(t, models.OrderSideBuy, fresh.Side)
}

func TestResolveValidityIntraday(t *testing.T) {
	b := testBuilder() // Tuesday 10:00 IST

	got := b.ResolveValidity(models.ValidityIntraday)

	want := time.Date(2024, 12, 10, 15, 30, 0, 0, utils.IndiaLocation)
	assert.True(t, got.Equal(want), "got %s want %s", got, want)
}

func TestResolveValidityIntradayAfterClose(t *testing.T) {
	b := &Builder{Now: func() time.Time {
		return time.Date(2024, 12, 10, 16, 0, 0, 0, utils.IndiaLocation)
	}}

	got := b.ResolveValidity(models.ValidityIntraday)

	want := time.Date(2024, 12, 11, 15, 30, 0, 0, utils.IndiaLocation)
	assert.True(t, got.Equal(want), "got %s want %s", got, want)
}

func TestResolveValidityTomorrowSkipsWeekend(t *testing.T) {
	// Friday afternoon; "tomorrow" is the next trading day, Monday.
	b := &Builder{Now: func() time.Time {
		return time.Date(2024, 12, 13, 14, 0, 0, 0, utils.IndiaLocation)
	}}

	got := b.ResolveValidity(models.ValidityTomorrow)

	want := time.Date(2024, 12, 16, 15, 30, 0, 0, utils.IndiaLocation)
	assert.True(t, got.Equal(want), "got %s want %s", got, want)
}

func TestResolveValidityWeekLandsOnTradingDay(t *testing.T) {
	b := testBuilder() // Tuesday 2024-12-10

	got := b.ResolveValidity(models.ValidityWeek).In(utils.IndiaLocation)

	assert.NotEqual(t, time.Saturday, got.Weekday())
	assert.NotEqual(t, time.Sunday, got.Weekday())
	assert.Equal(t, 15, got.Hour())
	assert.Equal(t, 30, got.Minute())
	assert.True(t, got.After(fixedNow()))
}
