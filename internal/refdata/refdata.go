// Package refdata provides static instrument reference data lookup.
// Resolution is a pure function over locally bundled tables; there is no
// network call and the assistant never mutates these records.
package refdata

import (
	"strings"
	"time"

	"tradeassist/internal/errors"
	"tradeassist/internal/models"
)

// Lookup resolves opaque instrument keys to instrument attributes.
// Tables are partitioned by asset class and merged into a single keyed
// index at construction time so resolution is a map hit, not a scan.
type Lookup struct {
	byKey    map[string]models.Instrument
	bySymbol map[string]string // symbol -> instrument key
}

// NewLookup builds a lookup over the bundled instrument tables.
func NewLookup() *Lookup {
	return NewLookupWithTables(equities, indices, futures, options)
}

// NewLookupWithTables builds a lookup over explicit tables. Used by tests
// and by callers that load an exchange dump instead of the bundled set.
func NewLookupWithTables(tables ...[]models.Instrument) *Lookup {
	l := &Lookup{
		byKey:    make(map[string]models.Instrument),
		bySymbol: make(map[string]string),
	}
	for _, table := range tables {
		for _, inst := range table {
			l.byKey[inst.InstrumentKey] = inst
			l.bySymbol[strings.ToUpper(inst.Symbol)] = inst.InstrumentKey
		}
	}
	return l
}

// Resolve returns the instrument for a key.
func (l *Lookup) Resolve(instrumentKey string) (models.Instrument, error) {
	inst, ok := l.byKey[instrumentKey]
	if !ok {
		return models.Instrument{}, errors.Wrapf(errors.ErrInstrumentNotFound, "key %s", instrumentKey)
	}
	return inst, nil
}

// ResolveSymbol returns the instrument for a display symbol.
func (l *Lookup) ResolveSymbol(symbol string) (models.Instrument, error) {
	key, ok := l.bySymbol[strings.ToUpper(symbol)]
	if !ok {
		return models.Instrument{}, errors.Wrapf(errors.ErrInstrumentNotFound, "symbol %s", symbol)
	}
	return l.byKey[key], nil
}

// Count returns the number of instruments in the lookup.
func (l *Lookup) Count() int {
	return len(l.byKey)
}

func expiry(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 15, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))
}

// Bundled reference tables. Keys follow the exchange-segment|token
// convention used by the upstream data vendor.
var equities = []models.Instrument{
	{InstrumentKey: "NSE_EQ|INE002A01018", Symbol: "RELIANCE", Name: "Reliance Industries", AssetClass: models.AssetEquity, TickSize: 0.05},
	{InstrumentKey: "NSE_EQ|INE467B01029", Symbol: "TCS", Name: "Tata Consultancy Services", AssetClass: models.AssetEquity, TickSize: 0.05},
	{InstrumentKey: "NSE_EQ|INE009A01021", Symbol: "INFY", Name: "Infosys", AssetClass: models.AssetEquity, TickSize: 0.05},
	{InstrumentKey: "NSE_EQ|INE040A01034", Symbol: "HDFCBANK", Name: "HDFC Bank", AssetClass: models.AssetEquity, TickSize: 0.05},
	{InstrumentKey: "NSE_EQ|INE090A01021", Symbol: "ICICIBANK", Name: "ICICI Bank", AssetClass: models.AssetEquity, TickSize: 0.05},
	{InstrumentKey: "NSE_EQ|INE062A01020", Symbol: "SBIN", Name: "State Bank of India", AssetClass: models.AssetEquity, TickSize: 0.05},
}

var indices = []models.Instrument{
	{InstrumentKey: "NSE_INDEX|Nifty 50", Symbol: "NIFTY", Name: "Nifty 50", AssetClass: models.AssetIndex},
	{InstrumentKey: "NSE_INDEX|Nifty Bank", Symbol: "BANKNIFTY", Name: "Nifty Bank", AssetClass: models.AssetIndex},
	{InstrumentKey: "NSE_INDEX|Nifty Fin Service", Symbol: "FINNIFTY", Name: "Nifty Financial Services", AssetClass: models.AssetIndex},
}

var futures = []models.Instrument{
	{InstrumentKey: "NSE_FO|53001", Symbol: "NIFTY25SEPFUT", Name: "Nifty 50 Sep Future", AssetClass: models.AssetFuture, LotSize: 75, TickSize: 0.05, Expiry: expiry(2026, time.September, 24)},
	{InstrumentKey: "NSE_FO|53002", Symbol: "BANKNIFTY25SEPFUT", Name: "Nifty Bank Sep Future", AssetClass: models.AssetFuture, LotSize: 35, TickSize: 0.05, Expiry: expiry(2026, time.September, 24)},
	{InstrumentKey: "NSE_FO|53003", Symbol: "RELIANCE25SEPFUT", Name: "Reliance Sep Future", AssetClass: models.AssetFuture, LotSize: 500, TickSize: 0.05, Expiry: expiry(2026, time.September, 24)},
}

var options = []models.Instrument{
	{InstrumentKey: "NSE_FO|61001", Symbol: "NIFTY25SEP24500CE", Name: "Nifty 24500 CE", AssetClass: models.AssetOption, LotSize: 75, TickSize: 0.05, Strike: 24500, Expiry: expiry(2026, time.September, 2)},
	{InstrumentKey: "NSE_FO|61002", Symbol: "NIFTY25SEP24500PE", Name: "Nifty 24500 PE", AssetClass: models.AssetOption, LotSize: 75, TickSize: 0.05, Strike: 24500, Expiry: expiry(2026, time.September, 2)},
	{InstrumentKey: "NSE_FO|61003", Symbol: "BANKNIFTY25SEP52000CE", Name: "Bank Nifty 52000 CE", AssetClass: models.AssetOption, LotSize: 35, TickSize: 0.05, Strike: 52000, Expiry: expiry(2026, time.September, 2)},
}
