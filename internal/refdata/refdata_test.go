package refdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeassist/internal/errors"
	"tradeassist/internal/models"
)

func TestResolveKey(t *testing.T) {
	l := NewLookup()

	inst, err := l.Resolve("NSE_EQ|INE002A01018")
	require.NoError(t, err)
	assert.Equal(t, "RELIANCE", inst.Symbol)
	assert.Equal(t, models.AssetEquity, inst.AssetClass)
	assert.False(t, inst.HasLotSize())
}

func TestResolveUnknownKey(t *testing.T) {
	l := NewLookup()

	_, err := l.Resolve("NSE_EQ|does-not-exist")
	assert.ErrorIs(t, err, errors.ErrInstrumentNotFound)
}

func TestResolveSymbolIsCaseInsensitive(t *testing.T) {
	l := NewLookup()

	inst, err := l.ResolveSymbol("reliance")
	require.NoError(t, err)
	assert.Equal(t, "NSE_EQ|INE002A01018", inst.InstrumentKey)

	_, err = l.ResolveSymbol("NOSUCH")
	assert.ErrorIs(t, err, errors.ErrInstrumentNotFound)
}

func TestDerivativesCarryLotSizes(t *testing.T) {
	l := NewLookup()

	fut, err := l.ResolveSymbol("NIFTY25SEPFUT")
	require.NoError(t, err)
	assert.Equal(t, 75, fut.LotSize)
	assert.True(t, fut.HasLotSize())
	assert.False(t, fut.Expiry.IsZero())

	opt, err := l.ResolveSymbol("NIFTY25SEP24500CE")
	require.NoError(t, err)
	assert.Equal(t, 24500.0, opt.Strike)
}

func TestLookupWithExplicitTables(t *testing.T) {
	l := NewLookupWithTables([]models.Instrument{
		{InstrumentKey: "NSE_EQ|X", Symbol: "XYZ"},
	})

	assert.Equal(t, 1, l.Count())
	inst, err := l.ResolveSymbol("XYZ")
	require.NoError(t, err)
	assert.Equal(t, "NSE_EQ|X", inst.InstrumentKey)
}
