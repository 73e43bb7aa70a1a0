package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tradeassist/internal/models"
)

func ist(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, IndiaLocation)
}

func TestMarketStatusAt(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want models.MarketStatus
	}{
		{"weekday before pre-open", ist(2024, time.December, 10, 8, 59), models.MarketClosed},
		{"pre-open start", ist(2024, time.December, 10, 9, 0), models.MarketPreOpen},
		{"pre-open end", ist(2024, time.December, 10, 9, 14), models.MarketPreOpen},
		{"open at bell", ist(2024, time.December, 10, 9, 15), models.MarketOpen},
		{"open midday", ist(2024, time.December, 10, 12, 30), models.MarketOpen},
		{"last open minute", ist(2024, time.December, 10, 15, 29), models.MarketOpen},
		{"closed at close", ist(2024, time.December, 10, 15, 30), models.MarketClosed},
		{"closed evening", ist(2024, time.December, 10, 18, 0), models.MarketClosed},
		{"saturday midday", ist(2024, time.December, 14, 12, 0), models.MarketClosed},
		{"sunday midday", ist(2024, time.December, 15, 12, 0), models.MarketClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MarketStatusAt(tt.at))
		})
	}
}

func TestMarketStatusUsesISTRegardlessOfInputZone(t *testing.T) {
	// 05:00 UTC is 10:30 IST, inside market hours.
	at := time.Date(2024, time.December, 10, 5, 0, 0, 0, time.UTC)
	assert.Equal(t, models.MarketOpen, MarketStatusAt(at))
}

func TestMarketCloseFor(t *testing.T) {
	got := MarketCloseFor(ist(2024, time.December, 10, 11, 0))
	assert.True(t, got.Equal(ist(2024, time.December, 10, 15, 30)))
}

func TestNextTradingDaySkipsWeekend(t *testing.T) {
	// Friday -> Monday.
	got := NextTradingDay(ist(2024, time.December, 13, 10, 0))
	assert.Equal(t, time.Monday, got.Weekday())
	assert.Equal(t, 16, got.Day())

	// Tuesday -> Wednesday.
	got = NextTradingDay(ist(2024, time.December, 10, 10, 0))
	assert.Equal(t, 11, got.Day())
}

func TestNextMarketOpen(t *testing.T) {
	// Before the bell: same day.
	got := NextMarketOpen(ist(2024, time.December, 10, 8, 0))
	assert.True(t, got.Equal(ist(2024, time.December, 10, 9, 15)))

	// After the bell on Friday: Monday.
	got = NextMarketOpen(ist(2024, time.December, 13, 16, 0))
	assert.True(t, got.Equal(ist(2024, time.December, 16, 9, 15)))
}

func TestFormatIndianCurrency(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "₹0.00"},
		{999, "₹999.00"},
		{1000, "₹1,000.00"},
		{100000, "₹1,00,000.00"},
		{1234567.89, "₹12,34,567.89"},
		{12345678, "₹1,23,45,678.00"},
		{-1234.5, "-₹1,234.50"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatIndianCurrency(tt.in), "input %v", tt.in)
	}
}

func TestFormatPnLSignsGains(t *testing.T) {
	assert.Equal(t, "+₹100.00", FormatPnL(100))
	assert.Equal(t, "-₹100.00", FormatPnL(-100))
	assert.Equal(t, "₹0.00", FormatPnL(0))
}

func TestFormatQuantity(t *testing.T) {
	assert.Equal(t, "75", FormatQuantity(75))
	assert.Equal(t, "1,50,000", FormatQuantity(150000))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 33.33, Round2(33.33333))
	assert.Equal(t, -33.33, Round2(-33.33333))
	assert.Equal(t, 5.0, Round2(5.0))
	assert.Equal(t, 2.68, Round2(2.675000001))
}
