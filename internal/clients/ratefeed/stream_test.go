package ratefeed

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleMessage_RatesChannelUpdatesCache(t *testing.T) {
	var received []RateTick
	stream := NewRateStream("wss://example.invalid/ws", []string{"EUR/USD"}, func(tick RateTick) {
		received = append(received, tick)
	}, zerolog.Nop())

	message := []byte(`["rates", {"rates":[{"pair":"EUR/USD","rate":1.0842,"ts":"2026-08-25T10:00:00Z"},{"pair":"GBP/USD","rate":1.2701,"ts":"2026-08-25T10:00:00Z"}],"timestamp":"2026-08-25T10:00:00Z"}]`)
	err := stream.handleMessage(message)
	require.NoError(t, err)

	require.Len(t, received, 2)
	assert.Equal(t, "EUR/USD", received[0].Pair)
	assert.Equal(t, 1.0842, received[0].Rate)

	tick, err := stream.GetTick("GBP/USD")
	require.NoError(t, err)
	assert.Equal(t, 1.2701, tick.Rate)
	assert.False(t, stream.IsCacheStale())
}

func TestHandleMessage_IgnoresOtherChannels(t *testing.T) {
	called := false
	stream := NewRateStream("wss://example.invalid/ws", nil, func(RateTick) {
		called = true
	}, zerolog.Nop())

	err := stream.handleMessage([]byte(`["heartbeat", {"seq": 42}]`))
	require.NoError(t, err)
	assert.False(t, called)
	assert.Empty(t, stream.AllTicks())
}

func TestHandleMessage_MalformedPayload(t *testing.T) {
	stream := NewRateStream("wss://example.invalid/ws", nil, nil, zerolog.Nop())

	assert.Error(t, stream.handleMessage([]byte(`{"not":"an array"}`)))
	assert.Error(t, stream.handleMessage([]byte(`["rates"]`)))
	assert.Error(t, stream.handleMessage([]byte(`["rates", "not an object"]`)))
}

func TestHandleRateUpdate_DiscardsInvalidTicks(t *testing.T) {
	var received []RateTick
	stream := NewRateStream("wss://example.invalid/ws", nil, func(tick RateTick) {
		received = append(received, tick)
	}, zerolog.Nop())

	message := []byte(`["rates", {"rates":[{"pair":"","rate":1.1},{"pair":"EUR/USD","rate":0},{"pair":"EUR/USD","rate":-1.5},{"pair":"USD/JPY","rate":147.32}]}]`)
	err := stream.handleMessage(message)
	require.NoError(t, err)

	require.Len(t, received, 1)
	assert.Equal(t, "USD/JPY", received[0].Pair)

	ticks := stream.AllTicks()
	assert.Len(t, ticks, 1)
	_, err = stream.GetTick("EUR/USD")
	assert.Error(t, err)
}

func TestHandleRateUpdate_EmptyBatchIsNoop(t *testing.T) {
	stream := NewRateStream("wss://example.invalid/ws", nil, nil, zerolog.Nop())

	err := stream.handleMessage([]byte(`["rates", {"rates":[]}]`))
	require.NoError(t, err)
	assert.True(t, stream.IsCacheStale(), "cache must stay stale until a real tick lands")
}

func TestAllTicks_ReturnsCopy(t *testing.T) {
	stream := NewRateStream("wss://example.invalid/ws", nil, nil, zerolog.Nop())

	err := stream.handleMessage([]byte(`["rates", {"rates":[{"pair":"EUR/USD","rate":1.08}]}]`))
	require.NoError(t, err)

	ticks := stream.AllTicks()
	ticks["EUR/USD"] = RateTick{Pair: "EUR/USD", Rate: 99.9}

	tick, err := stream.GetTick("EUR/USD")
	require.NoError(t, err)
	assert.Equal(t, 1.08, tick.Rate, "mutating the snapshot must not touch the cache")
}

func TestCalculateBackoff(t *testing.T) {
	stream := NewRateStream("wss://example.invalid/ws", nil, nil, zerolog.Nop())

	assert.Equal(t, 5*time.Second, stream.calculateBackoff(1))
	assert.Equal(t, 10*time.Second, stream.calculateBackoff(2))
	assert.Equal(t, 40*time.Second, stream.calculateBackoff(4))
	assert.Equal(t, 5*time.Minute, stream.calculateBackoff(7), "backoff is capped")
	assert.Equal(t, 5*time.Minute, stream.calculateBackoff(10))
}

func TestIsCacheStale_ZeroValue(t *testing.T) {
	stream := NewRateStream("wss://example.invalid/ws", nil, nil, zerolog.Nop())
	assert.True(t, stream.IsCacheStale())
}

func TestIsConnected_DefaultsFalse(t *testing.T) {
	stream := NewRateStream("wss://example.invalid/ws", nil, nil, zerolog.Nop())
	assert.False(t, stream.IsConnected())
}
