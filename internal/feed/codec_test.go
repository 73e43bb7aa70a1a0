package feed

import (
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSubscribeActions(t *testing.T) {
	raw, err := encodeSubscribe("NSE_EQ|INE002A01018")
	require.NoError(t, err)

	var msg map[string]interface{}
	require.NoError(t, sonic.Unmarshal(raw, &msg))
	assert.Equal(t, "subscribe", msg["action"])
	assert.Equal(t, "NSE_EQ|INE002A01018", msg["instrumentKey"])
	assert.NotContains(t, msg, "userId")

	raw, err = encodeUnsubscribe("NSE_EQ|INE002A01018")
	require.NoError(t, err)
	require.NoError(t, sonic.Unmarshal(raw, &msg))
	assert.Equal(t, "unsubscribe", msg["action"])

	raw, err = encodeSubscribeAiTrades("u-42")
	require.NoError(t, err)
	msg = map[string]interface{}{}
	require.NoError(t, sonic.Unmarshal(raw, &msg))
	assert.Equal(t, "subscribe_ai_trades", msg["action"])
	assert.Equal(t, "u-42", msg["userId"])
	assert.NotContains(t, msg, "instrumentKey")
}

func TestDecodePriceMessage(t *testing.T) {
	raw := []byte(`{
		"type": "price",
		"price": {
			"instrumentKey": "NSE_FO|53001",
			"bidPrice": 24300.1,
			"askPrice": 24300.4,
			"ltp": 24300.25,
			"marketOpen": true
		}
	}`)

	msg, err := decodeServerMessage(raw)
	require.NoError(t, err)
	require.Equal(t, msgTypePrice, msg.Type)
	require.NotNil(t, msg.Price)

	at := time.Date(2024, 12, 10, 10, 0, 0, 0, time.UTC)
	price := msg.Price.toLivePrice(at)
	assert.Equal(t, "NSE_FO|53001", price.InstrumentKey)
	assert.Equal(t, 24300.1, price.BidPrice)
	assert.Equal(t, 24300.4, price.AskPrice)
	assert.Equal(t, 24300.25, price.LastPrice)
	assert.True(t, price.MarketOpen)
	assert.True(t, price.ReceivedAt.Equal(at))
}

func TestDecodeMarketStatusMessage(t *testing.T) {
	msg, err := decodeServerMessage([]byte(`{"type":"market_status","marketStatus":{"open":false}}`))
	require.NoError(t, err)
	assert.Equal(t, msgTypeMarketStatus, msg.Type)
	require.NotNil(t, msg.MarketStatus)
	assert.False(t, msg.MarketStatus.Open)
}

func TestDecodeAiTradeMessage(t *testing.T) {
	msg, err := decodeServerMessage([]byte(`{"type":"ai_trade","aiTrade":{"aiTradeId":"ai-7","status":"target_hit"}}`))
	require.NoError(t, err)
	assert.Equal(t, msgTypeAiTrade, msg.Type)
	require.NotNil(t, msg.AiTrade)
	assert.Equal(t, "ai-7", msg.AiTrade.AiTradeID)
	assert.Equal(t, "target_hit", msg.AiTrade.Status)
}

func TestDecodeGarbageFails(t *testing.T) {
	_, err := decodeServerMessage([]byte(`{not json`))
	assert.Error(t, err)
}

func TestDecodeUnknownTypePassesThrough(t *testing.T) {
	// Unknown types decode fine; dispatch drops them.
	msg, err := decodeServerMessage([]byte(`{"type":"heartbeat"}`))
	require.NoError(t, err)
	assert.Equal(t, "heartbeat", msg.Type)
	assert.Nil(t, msg.Price)
}
