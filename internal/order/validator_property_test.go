package order

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"tradeassist/internal/errors"
	"tradeassist/internal/models"
)

// fixedNow is a Tuesday 10:00 IST, well inside market hours.
func fixedNow() time.Time {
	return time.Date(2024, 12, 10, 10, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
}

func testBuilder() *Builder {
	return &Builder{Now: fixedNow}
}

func openSnapshot(last float64) models.LivePrice {
	return models.LivePrice{
		InstrumentKey: "NSE_EQ|INE002A01018",
		BidPrice:      last - 0.05,
		AskPrice:      last + 0.05,
		LastPrice:     last,
		MarketOpen:    true,
		ReceivedAt:    fixedNow(),
	}
}

func baseIntent(side models.OrderSide, entry float64) models.OrderIntent {
	b := testBuilder()
	return models.OrderIntent{
		UserID:        "u-1",
		InstrumentKey: "NSE_EQ|INE002A01018",
		Symbol:        "RELIANCE",
		Side:          side,
		Quantity:      1,
		LotSize:       1,
		EntryPrice:    entry,
		Validity:      models.ValidityIntraday,
		ValidityTime:  b.ResolveValidity(models.ValidityIntraday),
	}
}

// Property: a stoploss on the losing side of entry always validates, a
// stoploss on the winning side (or at entry) is always rejected with
// INVALID_STOPLOSS, for both sides.
func TestProperty_StoplossSideRules(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)
	b := testBuilder()

	properties.Property("stoploss acceptance matches the side rule", prop.ForAll(
		func(entry, sl float64, buy bool) bool {
			side := models.OrderSideSell
			if buy {
				side = models.OrderSideBuy
			}
			intent := WithStoploss(baseIntent(side, entry), &sl)

			_, err := b.Validate(intent, openSnapshot(entry))

			legal := sl < entry
			if side == models.OrderSideSell {
				legal = sl > entry
			}

			if legal {
				var verrs errors.ValidationErrors
				if errors.As(err, &verrs) {
					return !verrs.Has(errors.InvalidStoploss)
				}
				return err == nil
			}

			var verrs errors.ValidationErrors
			return errors.As(err, &verrs) && verrs.Has(errors.InvalidStoploss)
		},
		gen.Float64Range(10, 5000),
		gen.Float64Range(10, 5000),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// Property: a target on the winning side of entry validates, on the losing
// side (or at entry) it is rejected with INVALID_TARGET.
func TestProperty_TargetSideRules(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)
	b := testBuilder()

	properties.Property("target acceptance matches the side rule", prop.ForAll(
		func(entry, tgt float64, buy bool) bool {
			side := models.OrderSideSell
			if buy {
				side = models.OrderSideBuy
			}
			intent := WithTarget(baseIntent(side, entry), &tgt)

			_, err := b.Validate(intent, openSnapshot(entry))

			legal := tgt > entry
			if side == models.OrderSideSell {
				legal = tgt < entry
			}

			if legal {
				var verrs errors.ValidationErrors
				if errors.As(err, &verrs) {
					return !verrs.Has(errors.InvalidTarget)
				}
				return err == nil
			}

			var verrs errors.ValidationErrors
			return errors.As(err, &verrs) && verrs.Has(errors.InvalidTarget)
		},
		gen.Float64Range(10, 5000),
		gen.Float64Range(10, 5000),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// Property: a closed market blocks any intent outright with ErrMarketClosed,
// regardless of how broken the rest of the intent is.
func TestProperty_ClosedMarketBlocksEverything(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)
	b := testBuilder()

	properties.Property("closed market returns ErrMarketClosed", prop.ForAll(
		func(entry float64, qty int) bool {
			intent := baseIntent(models.OrderSideBuy, entry)
			intent.Quantity = qty

			snapshot := openSnapshot(entry)
			snapshot.MarketOpen = false

			_, err := b.Validate(intent, snapshot)
			return errors.Is(err, errors.ErrMarketClosed)
		},
		gen.Float64Range(-100, 5000),
		gen.IntRange(-10, 100),
	))

	properties.TestingRun(t)
}
