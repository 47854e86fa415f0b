package ratefeed

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
)

const (
	// WebSocket connection constants
	writeWait   = 10 * time.Second
	dialTimeout = 30 * time.Second

	// Reconnection constants
	baseReconnectDelay   = 5 * time.Second
	maxReconnectDelay    = 5 * time.Minute
	maxReconnectAttempts = 10

	// Cache staleness threshold
	tickStaleThreshold = 5 * time.Minute
)

// RateTick is one live quote from the streaming feed.
type RateTick struct {
	Pair      string    `json:"pair"` // "EUR/USD"
	Rate      float64   `json:"rate"`
	Timestamp string    `json:"ts"`
	UpdatedAt time.Time `json:"updated_at"`
}

// wsRatePayload is the wire shape of a rates channel message.
type wsRatePayload struct {
	Rates []struct {
		Pair string  `json:"pair"`
		Rate float64 `json:"rate"`
		TS   string  `json:"ts"`
	} `json:"rates"`
	Timestamp string `json:"timestamp"`
}

// RateStream handles real-time rate updates from the streaming feed.
type RateStream struct {
	// Connection
	url        string
	pairs      []string     // Pairs to subscribe to
	httpClient *http.Client // Reusable HTTP client configured for HTTP/1.1
	conn       *websocket.Conn
	connCtx    context.Context    // Connection context (cancelled on disconnect)
	cancelFunc context.CancelFunc // For cancelling the connection context
	mu         sync.RWMutex

	// Dependencies
	onTick func(RateTick) // Optional; invoked for every accepted tick
	log    zerolog.Logger

	// State
	connected    bool
	reconnecting bool
	stopChan     chan struct{}
	stopped      bool

	// Cache (thread-safe)
	tickCache  map[string]RateTick
	lastUpdate time.Time
	cacheMu    sync.RWMutex
}

// createHTTP1Client creates an HTTP client that forces HTTP/1.1
// Required because Cloudflare negotiates HTTP/2 via TLS ALPN,
// but WebSocket requires HTTP/1.1 for the upgrade handshake.
func createHTTP1Client() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSClientConfig: &tls.Config{
				// Force HTTP/1.1 by only advertising http/1.1 in ALPN
				NextProtos: []string{"http/1.1"},
			},
			ForceAttemptHTTP2: false,
		},
	}
}

// NewRateStream creates a new streaming rate client. onTick may be nil.
func NewRateStream(url string, pairs []string, onTick func(RateTick), log zerolog.Logger) *RateStream {
	return &RateStream{
		url:        url,
		pairs:      pairs,
		httpClient: createHTTP1Client(),
		onTick:     onTick,
		log:        log.With().Str("component", "rate_stream").Logger(),
		tickCache:  make(map[string]RateTick),
		stopChan:   make(chan struct{}),
	}
}

// Start initializes the WebSocket connection and starts the read loop
func (ws *RateStream) Start() error {
	ws.log.Info().Msg("Starting rate stream client")

	if err := ws.Connect(); err != nil {
		ws.log.Warn().Err(err).Msg("Initial WebSocket connection failed, will retry in background")
		go ws.reconnectLoop()
		return err
	}

	ws.mu.RLock()
	ctx := ws.connCtx
	ws.mu.RUnlock()
	go ws.readMessages(ctx)

	ws.log.Info().Msg("Rate stream client started successfully")
	return nil
}

// Stop gracefully shuts down the WebSocket connection
func (ws *RateStream) Stop() error {
	ws.mu.Lock()
	if ws.stopped {
		ws.mu.Unlock()
		return nil
	}
	ws.stopped = true
	ws.mu.Unlock()

	ws.log.Info().Msg("Stopping rate stream client")

	close(ws.stopChan)

	return ws.Disconnect()
}

// Connect establishes the WebSocket connection and subscribes to the rates channel
func (ws *RateStream) Connect() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	ws.log.Info().Str("url", ws.url).Msg("Connecting to rate stream")

	dialCtx, dialCancel := context.WithTimeout(context.Background(), dialTimeout)
	defer dialCancel()

	conn, _, err := websocket.Dial(dialCtx, ws.url, &websocket.DialOptions{
		HTTPClient: ws.httpClient,
	})
	if err != nil {
		return fmt.Errorf("failed to dial WebSocket: %w", err)
	}

	// Long-lived context for the connection, cancelled on disconnect
	connCtx, connCancel := context.WithCancel(context.Background())
	ws.conn = conn
	ws.connCtx = connCtx
	ws.cancelFunc = connCancel
	ws.connected = true

	// nhooyr.io/websocket handles ping/pong automatically

	if err := ws.subscribe(connCtx); err != nil {
		connCancel()
		conn.Close(websocket.StatusNormalClosure, "subscribe failed")
		ws.conn = nil
		ws.connCtx = nil
		ws.cancelFunc = nil
		ws.connected = false
		return fmt.Errorf("failed to subscribe to rates: %w", err)
	}

	ws.log.Info().Msg("Successfully connected to rate stream")
	return nil
}

// Disconnect closes the WebSocket connection
func (ws *RateStream) Disconnect() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.conn == nil {
		return nil
	}

	ws.log.Info().Msg("Disconnecting from rate stream")

	// Cancel the connection context to unblock any pending Read operations
	if ws.cancelFunc != nil {
		ws.cancelFunc()
		ws.cancelFunc = nil
	}

	err := ws.conn.Close(websocket.StatusNormalClosure, "")

	ws.conn = nil
	ws.connCtx = nil
	ws.connected = false

	if err != nil {
		return fmt.Errorf("error closing WebSocket: %w", err)
	}

	return nil
}

// subscribe sends the subscription message for the configured pairs
func (ws *RateStream) subscribe(ctx context.Context) error {
	// Stream protocol: ["rates", ["EUR/USD", ...]]
	subscribeMsg := []interface{}{"rates", ws.pairs}

	ws.log.Info().Strs("pairs", ws.pairs).Msg("Subscribing to rates channel")

	data, err := json.Marshal(subscribeMsg)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription message: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()

	if err := ws.conn.Write(writeCtx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("failed to send subscription message: %w", err)
	}

	ws.log.Info().Msg("Subscribed to rates channel")
	return nil
}

// readMessages continuously reads messages from the WebSocket
func (ws *RateStream) readMessages(ctx context.Context) {
	defer func() {
		ws.log.Info().Msg("Read loop stopped")
		// Attempt reconnection if not intentionally stopped
		ws.mu.RLock()
		stopped := ws.stopped
		ws.mu.RUnlock()
		if !stopped {
			go ws.reconnectLoop()
		}
	}()

	for {
		select {
		case <-ws.stopChan:
			return
		case <-ctx.Done():
			ws.log.Debug().Msg("Read loop context cancelled")
			return
		default:
		}

		ws.mu.RLock()
		conn := ws.conn
		ws.mu.RUnlock()

		if conn == nil {
			ws.log.Warn().Msg("Connection is nil, stopping read loop")
			return
		}

		msgType, message, err := conn.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				ws.log.Info().Int("status", int(closeStatus)).Msg("WebSocket closed normally")
			} else if ctx.Err() != nil {
				ws.log.Debug().Msg("Read cancelled by context")
			} else {
				ws.log.Error().Err(err).Msg("Unexpected WebSocket read error")
			}
			return
		}

		if msgType != websocket.MessageText {
			ws.log.Debug().Int("type", int(msgType)).Msg("Ignoring non-text message")
			continue
		}

		if err := ws.handleMessage(message); err != nil {
			ws.log.Error().Err(err).Str("message", string(message)).Msg("Failed to handle WebSocket message")
			// Continue reading despite parse errors
		}
	}
}

// handleMessage parses and processes WebSocket messages
func (ws *RateStream) handleMessage(message []byte) error {
	// Stream protocol: ["channel", data]
	var rawMessage []json.RawMessage
	if err := json.Unmarshal(message, &rawMessage); err != nil {
		return fmt.Errorf("failed to parse message array: %w", err)
	}

	if len(rawMessage) < 2 {
		return fmt.Errorf("message array too short: expected 2 elements, got %d", len(rawMessage))
	}

	var channel string
	if err := json.Unmarshal(rawMessage[0], &channel); err != nil {
		return fmt.Errorf("failed to parse channel: %w", err)
	}

	if channel != "rates" {
		ws.log.Debug().Str("channel", channel).Msg("Ignoring non-rates message")
		return nil
	}

	var payload wsRatePayload
	if err := json.Unmarshal(rawMessage[1], &payload); err != nil {
		return fmt.Errorf("failed to parse rate data: %w", err)
	}

	return ws.handleRateUpdate(payload)
}

// handleRateUpdate processes a batch of live quotes
func (ws *RateStream) handleRateUpdate(payload wsRatePayload) error {
	if len(payload.Rates) == 0 {
		ws.log.Warn().Msg("Received empty rates update")
		return nil
	}

	now := time.Now()
	accepted := make([]RateTick, 0, len(payload.Rates))
	for _, raw := range payload.Rates {
		// Non-positive quotes are feed glitches, never store them
		if raw.Pair == "" || raw.Rate <= 0 {
			ws.log.Debug().Str("pair", raw.Pair).Float64("rate", raw.Rate).Msg("Discarding invalid tick")
			continue
		}
		accepted = append(accepted, RateTick{
			Pair:      raw.Pair,
			Rate:      raw.Rate,
			Timestamp: raw.TS,
			UpdatedAt: now,
		})
	}

	if len(accepted) == 0 {
		return nil
	}

	// Update cache (thread-safe)
	ws.cacheMu.Lock()
	for _, tick := range accepted {
		ws.tickCache[tick.Pair] = tick
	}
	ws.lastUpdate = now
	ws.cacheMu.Unlock()

	ws.log.Debug().
		Int("tick_count", len(accepted)).
		Str("timestamp", payload.Timestamp).
		Msg("Rate tick cache updated")

	if ws.onTick != nil {
		for _, tick := range accepted {
			ws.onTick(tick)
		}
	}

	return nil
}

// reconnectLoop handles automatic reconnection with exponential backoff
func (ws *RateStream) reconnectLoop() {
	ws.mu.Lock()
	if ws.reconnecting || ws.stopped {
		ws.mu.Unlock()
		return
	}
	ws.reconnecting = true
	ws.mu.Unlock()

	defer func() {
		ws.mu.Lock()
		ws.reconnecting = false
		ws.mu.Unlock()
	}()

	attempt := 0
	for {
		select {
		case <-ws.stopChan:
			ws.log.Info().Msg("Reconnection loop stopped by user")
			return
		default:
		}

		ws.mu.RLock()
		stopped := ws.stopped
		ws.mu.RUnlock()
		if stopped {
			return
		}

		attempt++

		delay := ws.calculateBackoff(attempt)

		if attempt <= maxReconnectAttempts {
			ws.log.Info().
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("Attempting to reconnect to rate stream")
		} else {
			ws.log.Warn().
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("Reconnection attempt (exceeded max attempts, will keep retrying)")
		}

		select {
		case <-time.After(delay):
		case <-ws.stopChan:
			return
		}

		if err := ws.Connect(); err != nil {
			ws.log.Error().Err(err).
				Int("attempt", attempt).
				Msg("Reconnection failed")
			continue
		}

		ws.log.Info().
			Int("attempt", attempt).
			Msg("Successfully reconnected to rate stream")

		ws.mu.RLock()
		ctx := ws.connCtx
		ws.mu.RUnlock()
		go ws.readMessages(ctx)
		return
	}
}

// calculateBackoff calculates exponential backoff delay
func (ws *RateStream) calculateBackoff(attempt int) time.Duration {
	// Exponential backoff: baseDelay * 2^attempt
	delay := float64(baseReconnectDelay) * math.Pow(2, float64(attempt-1))

	if delay > float64(maxReconnectDelay) {
		delay = float64(maxReconnectDelay)
	}

	return time.Duration(delay)
}

// GetTick returns the latest live quote for a pair (thread-safe)
func (ws *RateStream) GetTick(pair string) (*RateTick, error) {
	ws.cacheMu.RLock()
	defer ws.cacheMu.RUnlock()

	tick, exists := ws.tickCache[pair]
	if !exists {
		return nil, fmt.Errorf("pair %s not found in tick cache", pair)
	}

	return &tick, nil
}

// AllTicks returns a copy of all cached live quotes (thread-safe)
func (ws *RateStream) AllTicks() map[string]RateTick {
	ws.cacheMu.RLock()
	defer ws.cacheMu.RUnlock()

	result := make(map[string]RateTick, len(ws.tickCache))
	for k, v := range ws.tickCache {
		result[k] = v
	}

	return result
}

// IsCacheStale checks if the tick cache hasn't been updated recently
func (ws *RateStream) IsCacheStale() bool {
	ws.cacheMu.RLock()
	defer ws.cacheMu.RUnlock()

	if ws.lastUpdate.IsZero() {
		return true
	}

	return time.Since(ws.lastUpdate) > tickStaleThreshold
}

// IsConnected returns current connection status
func (ws *RateStream) IsConnected() bool {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.connected
}
