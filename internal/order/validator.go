package order

import (
	"tradeassist/internal/errors"
	"tradeassist/internal/models"
)

// MaxDescriptionLen bounds the free-text description.
const MaxDescriptionLen = 500

// Validate checks an intent against the live snapshot and returns a
// submission-ready order. A closed market blocks submission outright with
// ErrMarketClosed; everything else is reported as field-level validation
// errors, all of them at once so the form can surface each inline.
func (b *Builder) Validate(intent models.OrderIntent, snapshot models.LivePrice) (models.ValidOrder, error) {
	if !snapshot.MarketOpen {
		return models.ValidOrder{}, errors.ErrMarketClosed
	}

	var errs errors.ValidationErrors

	if intent.Quantity < 1 {
		errs = append(errs, errors.NewValidationError(
			errors.InvalidQuantity, "quantity", intent.Quantity, "quantity must be at least 1"))
	}

	if intent.EntryPrice <= 0 {
		errs = append(errs, errors.NewValidationError(
			errors.InvalidPrice, "entryPrice", intent.EntryPrice, "entry price must be positive"))
	}

	if err := checkStoploss(intent); err != nil {
		errs = append(errs, err)
	}
	if err := checkTarget(intent); err != nil {
		errs = append(errs, err)
	}

	if !intent.ValidityTime.After(b.now()) {
		errs = append(errs, errors.NewValidationError(
			errors.InvalidValidity, "validityTime", intent.ValidityTime, "validity must resolve to a future time"))
	}

	if len(intent.Description) > MaxDescriptionLen {
		errs = append(errs, errors.NewValidationError(
			errors.InvalidField, "description", len(intent.Description), "description too long"))
	}

	if len(errs) > 0 {
		return models.ValidOrder{}, errs
	}

	status := models.OrderStatusInProcess
	if intent.PriceOverride {
		// A user-set price is limit-like; no immediate-fill assumption.
		status = models.OrderStatusPending
	}

	return models.ValidOrder{
		UserID:        intent.UserID,
		InstrumentKey: intent.InstrumentKey,
		Symbol:        intent.Symbol,
		Side:          intent.Side,
		Quantity:      intent.SubmittedQuantity(),
		EntryPrice:    intent.EntryPrice,
		Status:        status,
		ValidityTime:  intent.ValidityTime,
		Stoploss:      intent.Stoploss,
		Target:        intent.Target,
		Description:   intent.Description,
	}, nil
}

// checkStoploss enforces that a stoploss sits on the losing side of entry:
// below it for a buy, above it for a sell.
func checkStoploss(intent models.OrderIntent) *errors.ValidationError {
	if intent.Stoploss == nil {
		return nil
	}
	sl := *intent.Stoploss
	switch intent.Side {
	case models.OrderSideBuy:
		if sl >= intent.EntryPrice {
			return errors.NewValidationError(errors.InvalidStoploss, "stoploss", sl,
				"stoploss must be below entry price for a buy")
		}
	case models.OrderSideSell:
		if sl <= intent.EntryPrice {
			return errors.NewValidationError(errors.InvalidStoploss, "stoploss", sl,
				"stoploss must be above entry price for a sell")
		}
	}
	return nil
}

// checkTarget enforces that a target sits on the winning side of entry:
// above it for a buy, below it for a sell.
func checkTarget(intent models.OrderIntent) *errors.ValidationError {
	if intent.Target == nil {
		return nil
	}
	tgt := *intent.Target
	switch intent.Side {
	case models.OrderSideBuy:
		if tgt <= intent.EntryPrice {
			return errors.NewValidationError(errors.InvalidTarget, "target", tgt,
				"target must be above entry price for a buy")
		}
	case models.OrderSideSell:
		if tgt >= intent.EntryPrice {
			return errors.NewValidationError(errors.InvalidTarget, "target", tgt,
				"target must be below entry price for a sell")
		}
	}
	return nil
}

// ValidateModify checks a stoploss/target modification for an existing
// trade against its entry price, reusing the placement rules.
func ValidateModify(trade models.Trade, target, stoploss *float64) error {
	intent := models.OrderIntent{
		Side:       trade.Side,
		EntryPrice: trade.EntryPrice,
		Stoploss:   stoploss,
		Target:     target,
	}

	var errs errors.ValidationErrors
	if err := checkStoploss(intent); err != nil {
		errs = append(errs, err)
	}
	if err := checkTarget(intent); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
