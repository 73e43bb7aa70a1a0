package feed

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"tradeassist/internal/errors"
	"tradeassist/internal/models"
)

// Config holds configuration for the feed client.
type Config struct {
	URL          string
	MaxRetries   int
	BaseDelay    time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PingInterval time.Duration
}

// DefaultConfig returns the default feed client configuration.
func DefaultConfig(url string) Config {
	return Config{
		URL:          url,
		MaxRetries:   5,
		BaseDelay:    time.Second,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Second,
		PingInterval: 20 * time.Second,
	}
}

// Client owns the single long-lived WebSocket connection to the live feed.
// It keeps the latest quote per subscribed instrument in its price book and
// delivers updates to registered handlers. Subscriptions are idempotent:
// subscribing twice to the same key yields one stream of updates.
type Client struct {
	cfg    Config
	logger zerolog.Logger
	book   *PriceBook

	conn    *websocket.Conn
	writeMu sync.Mutex // protects websocket writes

	mu           sync.RWMutex
	connected    bool
	reconnecting bool
	closed       bool
	subscribed   map[string]struct{}
	aiTradeUser  string

	onUpdate       func(models.LivePrice)
	onMarketStatus func(open bool)
	onAiTradeFlip  func(aiTradeID string, status models.TradeStatus)
	onError        func(error)
	onConnect      func()
	onDisconnect   func()
}

// NewClient creates a new feed client.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 5
	}
	if cfg.BaseDelay == 0 {
		cfg.BaseDelay = time.Second
	}
	return &Client{
		cfg:        cfg,
		logger:     logger.With().Str("component", "feed").Logger(),
		book:       NewPriceBook(),
		subscribed: make(map[string]struct{}),
	}
}

// Book returns the client's price book. The book is read-only to callers.
func (c *Client) Book() *PriceBook {
	return c.book
}

// OnUpdate sets the price update handler.
func (c *Client) OnUpdate(handler func(models.LivePrice)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUpdate = handler
}

// OnMarketStatus sets the market open/closed event handler.
func (c *Client) OnMarketStatus(handler func(open bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onMarketStatus = handler
}

// OnAiTradeFlip sets the handler for backend-pushed idea status changes.
func (c *Client) OnAiTradeFlip(handler func(aiTradeID string, status models.TradeStatus)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAiTradeFlip = handler
}

// OnError sets the error handler.
func (c *Client) OnError(handler func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = handler
}

// OnConnect sets the connect handler.
func (c *Client) OnConnect(handler func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onConnect = handler
}

// OnDisconnect sets the disconnect handler.
func (c *Client) OnDisconnect(handler func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDisconnect = handler
}

// Connect dials the feed and starts the read loop. It returns once the
// connection is established; reconnection after drops is handled
// internally with exponential backoff.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return nil
	}
	c.closed = false
	c.mu.Unlock()

	if err := c.dial(ctx); err != nil {
		return errors.Wrap(err, "connecting to live feed")
	}

	go c.readLoop(ctx)
	go c.pingLoop(ctx)

	c.resubscribe()

	c.mu.RLock()
	onConnect := c.onConnect
	c.mu.RUnlock()
	if onConnect != nil {
		go onConnect()
	}

	return nil
}

func (c *Client) dial(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.WriteTimeout}
	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return err
	}

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		return nil
	})

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	c.logger.Info().Str("url", c.cfg.URL).Msg("Live feed connected")
	return nil
}

// Close tears down the connection and all subscriptions. Mandatory on
// session teardown; a leaked subscription keeps the backend streaming.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false
	conn := c.conn
	c.mu.Unlock()

	c.book.MarkStale()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

// IsConnected returns whether the client is connected.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Subscribe registers interest in an instrument key and asks the backend to
// begin streaming it. Subscribing to an already-subscribed key is a no-op.
// When disconnected the interest is recorded and flushed on reconnect.
func (c *Client) Subscribe(instrumentKey string) error {
	c.mu.Lock()
	if _, ok := c.subscribed[instrumentKey]; ok {
		c.mu.Unlock()
		return nil
	}
	c.subscribed[instrumentKey] = struct{}{}
	connected := c.connected
	c.mu.Unlock()

	if !connected {
		return nil
	}

	msg, err := encodeSubscribe(instrumentKey)
	if err != nil {
		return err
	}
	return c.write(msg)
}

// Unsubscribe stops streaming for an instrument key and drops its quote so
// late updates for it are discarded.
func (c *Client) Unsubscribe(instrumentKey string) error {
	c.mu.Lock()
	if _, ok := c.subscribed[instrumentKey]; !ok {
		c.mu.Unlock()
		return nil
	}
	delete(c.subscribed, instrumentKey)
	connected := c.connected
	c.mu.Unlock()

	c.book.Remove(instrumentKey)

	if !connected {
		return nil
	}

	msg, err := encodeUnsubscribe(instrumentKey)
	if err != nil {
		return err
	}
	return c.write(msg)
}

// SubscribeAiTrades subscribes to status events for all of the user's
// tracked AI trades.
func (c *Client) SubscribeAiTrades(userID string) error {
	c.mu.Lock()
	c.aiTradeUser = userID
	connected := c.connected
	c.mu.Unlock()

	if !connected {
		return nil
	}

	msg, err := encodeSubscribeAiTrades(userID)
	if err != nil {
		return err
	}
	return c.write(msg)
}

// SubscribedKeys returns the currently subscribed instrument keys.
func (c *Client) SubscribedKeys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.subscribed))
	for k := range c.subscribed {
		keys = append(keys, k)
	}
	return keys
}

func (c *Client) write(msg []byte) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return errors.ErrFeedNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, msg)
}

func (c *Client) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.RLock()
			conn := c.conn
			connected := c.connected
			c.mu.RUnlock()
			if !connected || conn == nil {
				return
			}

			c.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (c *Client) readLoop(ctx context.Context) {
	for {
		c.mu.RLock()
		conn := c.conn
		closed := c.closed
		c.mu.RUnlock()
		if closed || conn == nil {
			return
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.handleDisconnect(ctx)
			return
		}
		conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))

		msg, err := decodeServerMessage(raw)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Dropping undecodable feed message")
			continue
		}
		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg serverMessage) {
	c.mu.RLock()
	onUpdate := c.onUpdate
	onMarketStatus := c.onMarketStatus
	onAiTradeFlip := c.onAiTradeFlip
	c.mu.RUnlock()

	switch msg.Type {
	case msgTypePrice:
		if msg.Price == nil {
			return
		}
		c.mu.RLock()
		_, wanted := c.subscribed[msg.Price.InstrumentKey]
		c.mu.RUnlock()
		if !wanted {
			// Update for an instrument we have since unsubscribed from.
			return
		}
		price := msg.Price.toLivePrice(time.Now())
		c.book.Apply(price)
		if onUpdate != nil {
			onUpdate(price)
		}
	case msgTypeMarketStatus:
		if msg.MarketStatus != nil && onMarketStatus != nil {
			onMarketStatus(msg.MarketStatus.Open)
		}
	case msgTypeAiTrade:
		if msg.AiTrade != nil && onAiTradeFlip != nil {
			onAiTradeFlip(msg.AiTrade.AiTradeID, models.TradeStatus(msg.AiTrade.Status))
		}
	default:
		c.logger.Debug().Str("type", msg.Type).Msg("Ignoring unknown feed message type")
	}
}

func (c *Client) handleDisconnect(ctx context.Context) {
	c.mu.Lock()
	wasConnected := c.connected
	c.connected = false
	closed := c.closed
	onDisconnect := c.onDisconnect
	c.mu.Unlock()

	// All derived prices are stale until reconnection.
	c.book.MarkStale()

	if wasConnected && onDisconnect != nil {
		go onDisconnect()
	}
	if closed {
		return
	}

	c.logger.Warn().Msg("Live feed disconnected, reconnecting")
	go c.reconnect(ctx)
}

// reconnect attempts to reconnect with exponential backoff, then restores
// every subscription that was live before the drop.
func (c *Client) reconnect(ctx context.Context) {
	c.mu.Lock()
	if c.reconnecting {
		c.mu.Unlock()
		return
	}
	c.reconnecting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.reconnecting = false
		c.mu.Unlock()
	}()

	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		delay := c.cfg.BaseDelay * time.Duration(math.Pow(2, float64(attempt)))
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
		time.Sleep(delay)

		c.mu.RLock()
		closed := c.closed
		c.mu.RUnlock()
		if closed {
			return
		}

		if err := c.dial(ctx); err != nil {
			c.logger.Warn().Err(err).Int("attempt", attempt+1).Msg("Reconnect attempt failed")
			continue
		}

		go c.readLoop(ctx)
		go c.pingLoop(ctx)
		c.resubscribe()
		return
	}

	c.mu.RLock()
	onError := c.onError
	c.mu.RUnlock()
	if onError != nil {
		onError(errors.Wrap(errors.ErrFeedNotConnected, "max reconnection attempts reached"))
	}
}

// resubscribe restores every recorded subscription on a fresh connection.
func (c *Client) resubscribe() {
	c.mu.RLock()
	keys := make([]string, 0, len(c.subscribed))
	for k := range c.subscribed {
		keys = append(keys, k)
	}
	aiTradeUser := c.aiTradeUser
	c.mu.RUnlock()

	for _, key := range keys {
		msg, err := encodeSubscribe(key)
		if err != nil {
			continue
		}
		if err := c.write(msg); err != nil {
			c.logger.Warn().Err(err).Str("instrument_key", key).Msg("Resubscribe failed")
		}
	}

	if aiTradeUser != "" {
		if msg, err := encodeSubscribeAiTrades(aiTradeUser); err == nil {
			c.write(msg)
		}
	}
}
