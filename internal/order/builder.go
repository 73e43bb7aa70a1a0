// Package order turns a user's instrument selection plus live prices into
// a validated order request. Building and field updates are pure; nothing
// here touches the network.
package order

import (
	"time"

	"tradeassist/internal/models"
	"tradeassist/pkg/utils"
)

// Builder seeds and reshapes order intents. Now is injectable for tests
// and defaults to time.Now.
type Builder struct {
	Now func() time.Time
}

// NewBuilder creates a builder using the wall clock.
func NewBuilder() *Builder {
	return &Builder{Now: time.Now}
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// BuildIntent creates a fresh intent for an instrument. The entry price is
// seeded from the live snapshot for the chosen side: ask for a buy, bid
// for a sell. Default validity is intraday, resolved to the same trading
// day's market-close cutoff.
func (b *Builder) BuildIntent(userID string, inst models.Instrument, side models.OrderSide, snapshot models.LivePrice) models.OrderIntent {
	lotSize := inst.LotSize
	if lotSize == 0 {
		lotSize = 1
	}
	return models.OrderIntent{
		UserID:        userID,
		InstrumentKey: inst.InstrumentKey,
		Symbol:        inst.Symbol,
		Side:          side,
		Quantity:      1,
		LotSize:       lotSize,
		EntryPrice:    snapshot.PriceForSide(side),
		Validity:      models.ValidityIntraday,
		ValidityTime:  b.ResolveValidity(models.ValidityIntraday),
	}
}

// Reseed switches the intent's side and re-seeds the entry price from the
// current snapshot for the new side. Stoploss, target and description are
// preserved; only an explicit instrument change clears them.
func (b *Builder) Reseed(intent models.OrderIntent, side models.OrderSide, snapshot models.LivePrice) models.OrderIntent {
	intent.Side = side
	intent.EntryPrice = snapshot.PriceForSide(side)
	intent.PriceOverride = false
	return intent
}

// ResetForInstrument rebuilds the intent for a different instrument,
// clearing stoploss, target and description. The reset trigger is the
// instrument change itself, not any dialog lifecycle.
func (b *Builder) ResetForInstrument(intent models.OrderIntent, inst models.Instrument, snapshot models.LivePrice) models.OrderIntent {
	fresh := b.BuildIntent(intent.UserID, inst, intent.Side, snapshot)
	fresh.Quantity = intent.Quantity
	fresh.Validity = intent.Validity
	fresh.ValidityTime = b.ResolveValidity(intent.Validity)
	return fresh
}

// ResolveValidity maps a validity window onto a concrete deadline, always
// the 15:30 market-close cutoff of the resolved day and always strictly in
// the future.
func (b *Builder) ResolveValidity(v models.Validity) time.Time {
	now := b.now()
	switch v {
	case models.ValidityTomorrow:
		return utils.MarketCloseFor(utils.NextTradingDay(now))
	case models.ValidityWeek:
		return closeOnOrAfter(now.AddDate(0, 0, 7))
	case models.ValidityMonth:
		return closeOnOrAfter(now.AddDate(0, 0, 30))
	default: // intraday
		cutoff := utils.MarketCloseFor(now)
		if !cutoff.After(now) {
			// Past today's close; the soonest intraday window is the next
			// trading day.
			cutoff = utils.MarketCloseFor(utils.NextTradingDay(now))
		}
		return cutoff
	}
}

func closeOnOrAfter(t time.Time) time.Time {
	d := t.In(utils.IndiaLocation)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return utils.MarketCloseFor(d)
}

// Pure field updates. Each returns a new intent; the input is never
// mutated, so supersede-prone UI layers can race them safely.

// WithQuantity sets the user-entered lot count.
func WithQuantity(intent models.OrderIntent, quantity int) models.OrderIntent {
	intent.Quantity = quantity
	return intent
}

// WithEntryPrice overrides the seeded entry price, switching the order to
// limit-like handling.
func WithEntryPrice(intent models.OrderIntent, price float64) models.OrderIntent {
	intent.EntryPrice = price
	intent.PriceOverride = true
	return intent
}

// WithStoploss sets or clears the stoploss.
func WithStoploss(intent models.OrderIntent, stoploss *float64) models.OrderIntent {
	intent.Stoploss = stoploss
	return intent
}

// WithTarget sets or clears the target.
func WithTarget(intent models.OrderIntent, target *float64) models.OrderIntent {
	intent.Target = target
	return intent
}

// WithDescription sets the free-text description.
func WithDescription(intent models.OrderIntent, description string) models.OrderIntent {
	intent.Description = description
	return intent
}

// WithValidity sets the validity window and re-resolves its deadline.
func (b *Builder) WithValidity(intent models.OrderIntent, v models.Validity) models.OrderIntent {
	intent.Validity = v
	intent.ValidityTime = b.ResolveValidity(v)
	return intent
}
