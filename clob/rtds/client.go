package rtds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client represents a RTDS WebSocket client
type Client struct {
	conn                *websocket.Conn
	url                 string
	proxyURL            string
	pingInterval        time.Duration
	writeTimeout        time.Duration
	readTimeout         time.Duration
	messageHandlers     map[string]MessageHandler
	handlersMutex       sync.RWMutex
	statsMutex          sync.RWMutex
	lastMessageAt       time.Time
	lastParseErrorAt    time.Time
	parseErrorCount     uint64
	ctx                 context.Context
	cancel              context.CancelFunc
	wg                  sync.WaitGroup
	connected           bool
	connectedMutex      sync.RWMutex
	reconnect           bool
	reconnectDelay      time.Duration
	maxReconnect        int
	reconnectCount      int
	reconnectMutex      sync.Mutex
	isReconnecting      bool
	activeSubscriptions []Subscription
	subscriptionsMutex  sync.RWMutex
	logger              Logger
}

// ClientConfig represents configuration for the RTDS client
type ClientConfig struct {
	URL            string
	ProxyURL       string
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	Reconnect      bool
	ReconnectDelay time.Duration
	MaxReconnect   int
	Logger         Logger
}

// DefaultClientConfig returns a default client configuration
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		URL:            RTDSWebSocketURL,
		PingInterval:   5 * time.Second,
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		Reconnect:      true,
		ReconnectDelay: 5 * time.Second,
		MaxReconnect:   10,
	}
}

// NewClient creates a new RTDS client with default configuration
func NewClient() *Client {
	return NewClientWithConfig(DefaultClientConfig())
}

// NewClientWithConfig creates a new RTDS client with custom configuration
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultClientConfig()
	}
	if config.URL == "" {
		config.URL = RTDSWebSocketURL
	}
	if config.PingInterval == 0 {
		config.PingInterval = 5 * time.Second
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = 10 * time.Second
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = 60 * time.Second
	}
	if config.ReconnectDelay == 0 {
		config.ReconnectDelay = 5 * time.Second
	}
	if config.MaxReconnect == 0 {
		config.MaxReconnect = 10
	}

	ctx, cancel := context.WithCancel(context.Background())

	logger := config.Logger
	if logger == nil {
		logger = &DefaultLogger{}
	}

	return &Client{
		url:                 config.URL,
		proxyURL:            config.ProxyURL,
		pingInterval:        config.PingInterval,
		writeTimeout:        config.WriteTimeout,
		readTimeout:         config.ReadTimeout,
		messageHandlers:     make(map[string]MessageHandler),
		ctx:                 ctx,
		cancel:              cancel,
		reconnect:           config.Reconnect,
		reconnectDelay:      config.ReconnectDelay,
		maxReconnect:        config.MaxReconnect,
		activeSubscriptions: make([]Subscription, 0),
		logger:              logger,
	}
}

// Connect establishes a WebSocket connection to the RTDS server
func (c *Client) Connect() error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 30 * time.Second,
	}

	if c.proxyURL != "" {
		proxyURL, err := url.Parse(c.proxyURL)
		if err != nil {
			return fmt.Errorf("invalid proxy URL: %w", err)
		}
		dialer.Proxy = http.ProxyURL(proxyURL)
	} else {
		dialer.Proxy = http.ProxyFromEnvironment
	}

	conn, _, err := dialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to RTDS: %w", err)
	}

	c.conn = conn
	c.setConnected(true)
	c.reconnectCount = 0

	c.wg.Add(1)
	go c.readMessages()

	c.wg.Add(1)
	go c.sendPings()

	// Re-subscribe to active subscriptions after reconnection
	c.resubscribe()

	return nil
}

// Disconnect closes the WebSocket connection and stops reconnection.
func (c *Client) Disconnect() error {
	c.reconnectMutex.Lock()
	c.reconnect = false
	c.reconnectMutex.Unlock()

	c.setConnected(false)
	c.cancel()

	c.subscriptionsMutex.Lock()
	c.activeSubscriptions = make([]Subscription, 0)
	c.subscriptionsMutex.Unlock()

	var err error
	if c.conn != nil {
		// Closing unblocks ReadMessage/WriteMessage in the goroutines.
		err = c.conn.Close()
		c.conn = nil
	}

	// Wait for the goroutines, with a cap so shutdown never hangs.
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		c.logger.Printf("Timed out waiting for reader/pinger to exit, continuing disconnect\n")
	}

	return err
}

// IsConnected returns whether the client is currently connected
func (c *Client) IsConnected() bool {
	c.connectedMutex.RLock()
	defer c.connectedMutex.RUnlock()
	return c.connected
}

func (c *Client) setConnected(connected bool) {
	c.connectedMutex.Lock()
	defer c.connectedMutex.Unlock()
	c.connected = connected
}

// RegisterHandler registers a message handler for a specific topic.
// The topic "*" receives every message in addition to the topic handler.
func (c *Client) RegisterHandler(topic string, handler MessageHandler) {
	c.handlersMutex.Lock()
	defer c.handlersMutex.Unlock()
	c.messageHandlers[topic] = handler
}

// UnregisterHandler removes a message handler for a specific topic
func (c *Client) UnregisterHandler(topic string) {
	c.handlersMutex.Lock()
	defer c.handlersMutex.Unlock()
	delete(c.messageHandlers, topic)
}

// SendMessage sends a JSON message to the WebSocket server
func (c *Client) SendMessage(message interface{}) error {
	if !c.IsConnected() {
		return errors.New("client is not connected")
	}
	if c.conn == nil {
		return errors.New("connection is nil")
	}

	c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	if err := c.conn.WriteJSON(message); err != nil {
		c.setConnected(false)
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// readMessages reads messages from the WebSocket connection
func (c *Client) readMessages() {
	defer c.wg.Done()

	// A read on an already-failed gorilla connection panics; recover and
	// route through the normal disconnect path.
	defer func() {
		if r := recover(); r != nil {
			c.logger.Printf("readMessages panic recovered: %v\n", r)
			c.setConnected(false)
			go c.handleDisconnect()
		}
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		if !c.IsConnected() || c.conn == nil {
			return
		}

		// The deadline doubles as a periodic context check, so keep it
		// bounded even when the configured read timeout is longer.
		readTimeout := 30 * time.Second
		if c.readTimeout > 0 && c.readTimeout < readTimeout {
			readTimeout = c.readTimeout
		}
		c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if netErr, ok := err.(interface{ Timeout() bool }); ok && netErr.Timeout() {
				select {
				case <-c.ctx.Done():
					return
				default:
				}
				if !c.IsConnected() || c.conn == nil {
					return
				}
				continue
			}

			select {
			case <-c.ctx.Done():
				return
			default:
			}

			c.setConnected(false)

			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Printf("WebSocket read error: %v\n", err)
			}

			c.handleDisconnect()
			return
		}

		c.statsMutex.Lock()
		c.lastMessageAt = time.Now()
		c.statsMutex.Unlock()

		// The server (or intermediaries) can emit empty frames and text
		// heartbeats alongside the documented JSON payloads.
		trimmed := strings.TrimSpace(string(data))
		if trimmed == "" {
			continue
		}
		if trimmed == "PING" {
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			_ = c.conn.WriteMessage(websocket.TextMessage, []byte("PONG"))
			continue
		}
		if trimmed == "PONG" {
			continue
		}

		var msg Message
		if err := json.Unmarshal([]byte(trimmed), &msg); err != nil {
			c.statsMutex.Lock()
			c.parseErrorCount++
			shouldLog := c.lastParseErrorAt.IsZero() || time.Since(c.lastParseErrorAt) > 5*time.Second
			if shouldLog {
				c.lastParseErrorAt = time.Now()
			}
			c.statsMutex.Unlock()

			if shouldLog {
				c.logger.Printf("Failed to parse message: %v (len=%d preview=%q)\n", err, len(trimmed), truncateForLog(trimmed, 240))
			}
			continue
		}

		if msg.Topic == "error" || msg.Type == "error" {
			var errorPayload map[string]interface{}
			if err := json.Unmarshal(msg.Payload, &errorPayload); err == nil {
				c.logger.Printf("Server error: %v\n", errorPayload)
				if errorCode, ok := errorPayload["code"].(string); ok {
					if errorCode == "AUTH_FAILED" || errorCode == "UNAUTHORIZED" {
						c.logger.Printf("Authentication failed. Connection may be closed.\n")
						c.handleDisconnect()
						return
					}
				}
			} else {
				c.logger.Printf("Error message received but failed to parse: %v\n", err)
			}
			continue
		}

		c.handleMessage(&msg)
	}
}

// sendPings sends periodic PING messages to keep the connection alive
func (c *Client) sendPings() {
	defer c.wg.Done()

	defer func() {
		if r := recover(); r != nil {
			c.logger.Printf("sendPings panic recovered: %v\n", r)
			c.setConnected(false)
		}
	}()

	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if !c.IsConnected() || c.conn == nil {
				return
			}

			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Printf("Failed to send ping: %v\n", err)
				c.setConnected(false)
				c.handleDisconnect()
				return
			}
		}
	}
}

// handleMessage processes an incoming message
func (c *Client) handleMessage(msg *Message) {
	// Subscription acks carry no business payload.
	if msg.Type == "subscribe" || msg.Type == "unsubscribe" {
		c.logger.Printf("RTDS subscription ack: topic=%s, type=%s\n", msg.Topic, msg.Type)
		return
	}

	c.handlersMutex.RLock()
	handler, exists := c.messageHandlers[msg.Topic]
	wildcardHandler, wildcardExists := c.messageHandlers["*"]
	c.handlersMutex.RUnlock()

	if exists && handler != nil {
		if err := handler(msg); err != nil {
			c.logger.Printf("Error handling message for topic %s: %v\n", msg.Topic, err)
		}
	}

	if wildcardExists && wildcardHandler != nil {
		if err := wildcardHandler(msg); err != nil {
			c.logger.Printf("Error handling message with wildcard handler: %v\n", err)
		}
	}
}

// handleDisconnect handles disconnection and optionally reconnects
func (c *Client) handleDisconnect() {
	c.setConnected(false)

	c.reconnectMutex.Lock()
	shouldReconnect := c.reconnect
	if c.isReconnecting {
		c.reconnectMutex.Unlock()
		c.logger.Printf("Reconnection already in progress, skipping\n")
		return
	}
	c.reconnectMutex.Unlock()

	if !shouldReconnect {
		return
	}

	c.reconnectMutex.Lock()
	if !c.reconnect || c.isReconnecting {
		c.reconnectMutex.Unlock()
		return
	}
	if c.reconnectCount >= c.maxReconnect {
		c.reconnectMutex.Unlock()
		c.logger.Printf("Max reconnection attempts reached\n")
		return
	}
	c.reconnectCount++
	c.isReconnecting = true
	attemptNum := c.reconnectCount
	c.reconnectMutex.Unlock()

	c.logger.Printf("Attempting to reconnect (%d/%d)...\n", attemptNum, c.maxReconnect)

	// Sleep in short steps so a Disconnect during the delay cancels the
	// reconnect promptly.
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	slept := time.Duration(0)
	for slept < c.reconnectDelay {
		<-ticker.C
		slept += 100 * time.Millisecond
		c.reconnectMutex.Lock()
		shouldReconnect := c.reconnect
		c.reconnectMutex.Unlock()
		if !shouldReconnect {
			c.logger.Printf("Reconnection cancelled\n")
			return
		}
	}

	c.reconnectMutex.Lock()
	shouldReconnect = c.reconnect
	c.reconnectMutex.Unlock()
	if !shouldReconnect {
		return
	}

	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}

	c.ctx, c.cancel = context.WithCancel(context.Background())

	if err := c.Connect(); err != nil {
		c.reconnectMutex.Lock()
		c.logger.Printf("Reconnection failed: %v (attempt %d/%d)\n", err, c.reconnectCount, c.maxReconnect)
		if c.reconnectCount < c.maxReconnect {
			c.isReconnecting = false
			c.reconnectMutex.Unlock()
			go func() {
				time.Sleep(c.reconnectDelay)
				c.handleDisconnect()
			}()
		} else {
			c.isReconnecting = false
			c.reconnectMutex.Unlock()
			c.logger.Printf("Max reconnection attempts reached, giving up\n")
		}
	} else {
		c.reconnectMutex.Lock()
		c.logger.Printf("Reconnected successfully, resubscribing to %d subscription(s)...\n", len(c.activeSubscriptions))
		c.reconnectCount = 0
		c.isReconnecting = false
		c.reconnectMutex.Unlock()
	}
}

// resubscribe re-subscribes to all active subscriptions
func (c *Client) resubscribe() {
	c.subscriptionsMutex.RLock()
	subscriptions := make([]Subscription, len(c.activeSubscriptions))
	copy(subscriptions, c.activeSubscriptions)
	c.subscriptionsMutex.RUnlock()

	if len(subscriptions) == 0 {
		return
	}

	// Give the fresh connection a moment before writing.
	time.Sleep(100 * time.Millisecond)

	req := SubscriptionRequest{
		Action:        ActionSubscribe,
		Subscriptions: subscriptions,
	}

	if err := c.SendMessage(req); err != nil {
		c.logger.Printf("Failed to resubscribe after reconnection: %v\n", err)
	} else {
		c.logger.Printf("Successfully resubscribed to %d subscription(s)\n", len(subscriptions))
	}
}

// DebugSnapshot returns a concise snapshot for troubleshooting.
// It is safe to call concurrently.
func (c *Client) DebugSnapshot() string {
	c.connectedMutex.RLock()
	connected := c.connected
	c.connectedMutex.RUnlock()

	c.subscriptionsMutex.RLock()
	subs := len(c.activeSubscriptions)
	c.subscriptionsMutex.RUnlock()

	c.handlersMutex.RLock()
	topics := make([]string, 0, len(c.messageHandlers))
	for topic := range c.messageHandlers {
		topics = append(topics, topic)
	}
	c.handlersMutex.RUnlock()

	c.statsMutex.RLock()
	lastMsgAt := c.lastMessageAt
	parseErrCnt := c.parseErrorCount
	c.statsMutex.RUnlock()

	return fmt.Sprintf(
		"connected=%v url=%s subs=%d lastMsgAt=%s parseErrCnt=%d topics=%v",
		connected, c.url, subs, formatTimeOrEmpty(lastMsgAt), parseErrCnt, topics,
	)
}

func formatTimeOrEmpty(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func truncateForLog(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}
