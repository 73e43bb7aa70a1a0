package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeassist/internal/errors"
	"tradeassist/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func TestValidateStoplossScenarios(t *testing.T) {
	b := testBuilder()

	tests := []struct {
		name     string
		side     models.OrderSide
		entry    float64
		stoploss float64
		wantCode errors.ValidationCode
		wantOK   bool
	}{
		{"buy stoploss above entry rejected", models.OrderSideBuy, 100, 105, errors.InvalidStoploss, false},
		{"buy stoploss at entry rejected", models.OrderSideBuy, 100, 100, errors.InvalidStoploss, false},
		{"buy stoploss below entry accepted", models.OrderSideBuy, 100, 95, "", true},
		{"sell stoploss below entry rejected", models.OrderSideSell, 100, 95, errors.InvalidStoploss, false},
		{"sell stoploss above entry accepted", models.OrderSideSell, 100, 105, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := WithStoploss(baseIntent(tt.side, tt.entry), &tt.stoploss)
			_, err := b.Validate(intent, openSnapshot(tt.entry))

			if tt.wantOK {
				assert.NoError(t, err)
				return
			}
			var verrs errors.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.True(t, verrs.Has(tt.wantCode))
		})
	}
}

func TestValidateTargetScenarios(t *testing.T) {
	b := testBuilder()

	tests := []struct {
		name   string
		side   models.OrderSide
		entry  float64
		target float64
		wantOK bool
	}{
		{"buy target above entry accepted", models.OrderSideBuy, 100, 105, true},
		{"buy target below entry rejected", models.OrderSideBuy, 100, 95, false},
		{"sell target above entry rejected", models.OrderSideSell, 100, 105, false},
		{"sell target below entry accepted", models.OrderSideSell, 100, 95, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := WithTarget(baseIntent(tt.side, tt.entry), &tt.target)
			_, err := b.Validate(intent, openSnapshot(tt.entry))

			if tt.wantOK {
				assert.NoError(t, err)
			} else {
				var verrs errors.ValidationErrors
				require.ErrorAs(t, err, &verrs)
				assert.True(t, verrs.Has(errors.InvalidTarget))
			}
		})
	}
}

func TestValidateCollectsEveryBrokenRule(t *testing.T) {
	b := testBuilder()

	intent := baseIntent(models.OrderSideBuy, 100)
	intent.Quantity = 0
	intent = WithStoploss(intent, floatPtr(110))
	intent = WithTarget(intent, floatPtr(90))

	_, err := b.Validate(intent, openSnapshot(100))

	var verrs errors.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.Has(errors.InvalidQuantity))
	assert.True(t, verrs.Has(errors.InvalidStoploss))
	assert.True(t, verrs.Has(errors.InvalidTarget))
	assert.Len(t, verrs, 3)
}

func TestValidateStatusFollowsPriceOverride(t *testing.T) {
	b := testBuilder()

	seeded := baseIntent(models.OrderSideBuy, 100)
	valid, err := b.Validate(seeded, openSnapshot(100))
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusInProcess, valid.Status)

	overridden := WithEntryPrice(seeded, 99.5)
	valid, err = b.Validate(overridden, openSnapshot(100))
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, valid.Status)
}

func TestValidateSubmitsLotMultipliedQuantity(t *testing.T) {
	b := testBuilder()

	intent := baseIntent(models.OrderSideBuy, 24300)
	intent.Symbol = "NIFTY24DECFUT"
	intent.LotSize = 75
	intent.Quantity = 2

	valid, err := b.Validate(intent, openSnapshot(24300))
	require.NoError(t, err)
	assert.Equal(t, 150, valid.Quantity)
}

func TestValidateDescriptionLength(t *testing.T) {
	b := testBuilder()

	long := make([]byte, MaxDescriptionLen+1)
	for i := range long {
		long[i] = 'x'
	}
	intent := WithDescription(baseIntent(models.OrderSideBuy, 100), string(long))

	_, err := b.Validate(intent, openSnapshot(100))

	var verrs errors.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.Has(errors.InvalidField))
}

func TestValidateModifyReusesPlacementRules(t *testing.T) {
	trade := models.Trade{
		TradeID:    "t-1",
		Side:       models.OrderSideBuy,
		Status:     models.StatusActive,
		EntryPrice: 2500,
	}

	assert.NoError(t, ValidateModify(trade, floatPtr(2600), floatPtr(2400)))

	err := ValidateModify(trade, nil, floatPtr(2600))
	var verrs errors.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.Has(errors.InvalidStoploss))
}
