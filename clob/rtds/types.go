package rtds

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RTDSWebSocketURL is the WebSocket URL for the Polymarket Real-Time Data Socket
const RTDSWebSocketURL = "wss://ws-live-data.polymarket.com"

// RTDSNumber is a custom type that can parse numbers or strings from RTDS
type RTDSNumber string

// UnmarshalJSON implements the json.Unmarshaler interface
func (rn *RTDSNumber) UnmarshalJSON(b []byte) error {
	var num json.Number
	if err := json.Unmarshal(b, &num); err == nil {
		*rn = RTDSNumber(num.String())
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*rn = RTDSNumber(s)
		return nil
	}

	return fmt.Errorf("cannot unmarshal %s into RTDSNumber", string(b))
}

// MarshalJSON implements the json.Marshaler interface
func (rn RTDSNumber) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(rn))
}

// String returns the string representation
func (rn RTDSNumber) String() string {
	return string(rn)
}

// Float64 parses the value as float64.
func (rn RTDSNumber) Float64() (float64, error) {
	s := strings.TrimSpace(string(rn))
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	return strconv.ParseFloat(s, 64)
}

// Logger defines an interface for logging
type Logger interface {
	Printf(format string, v ...interface{})
}

// DefaultLogger is a simple logger implementation using fmt.Printf
type DefaultLogger struct{}

func (l *DefaultLogger) Printf(format string, v ...interface{}) {
	fmt.Printf(format, v...)
}

// Message represents a message received from the RTDS WebSocket
type Message struct {
	Topic        string          `json:"topic"`
	Type         string          `json:"type"`
	Timestamp    int64           `json:"timestamp"`
	Payload      json.RawMessage `json:"payload"`
	ConnectionID string          `json:"connection_id,omitempty"`
}

// SubscriptionAction represents the action for subscription management
type SubscriptionAction string

const (
	ActionSubscribe   SubscriptionAction = "subscribe"
	ActionUnsubscribe SubscriptionAction = "unsubscribe"
)

// Subscription represents a subscription configuration
type Subscription struct {
	Topic   string `json:"topic"`
	Type    string `json:"type"`
	Filters string `json:"filters,omitempty"`
}

// SubscriptionRequest represents a subscription/unsubscription request
type SubscriptionRequest struct {
	Action        SubscriptionAction `json:"action"`
	Subscriptions []Subscription     `json:"subscriptions"`
}

// Activity message types on the "activity" topic.
const (
	TopicActivity     = "activity"
	TypeTrades        = "trades"
	TypeOrdersMatched = "orders_matched"
)

// Trade represents a trade in the activity stream. The firehose emits two
// generations of field names for the token and market identifiers, so both
// are kept and resolved through Token/Condition.
type Trade struct {
	ProxyWallet     string     `json:"proxyWallet"`
	Side            string     `json:"side"`
	Asset           string     `json:"asset"`
	AssetID         string     `json:"asset_id"`
	ConditionID     string     `json:"conditionId"`
	Market          string     `json:"market"`
	Price           RTDSNumber `json:"price"`
	Size            RTDSNumber `json:"size"`
	Timestamp       int64      `json:"timestamp"`
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	EventSlug       string     `json:"eventSlug"`
	Outcome         string     `json:"outcome"`
	OutcomeIndex    int        `json:"outcomeIndex"`
	TransactionHash string     `json:"transactionHash"`
}

// Token returns the ERC-1155 token ID of the traded outcome, whichever
// field name the server used.
func (t *Trade) Token() string {
	if t.Asset != "" {
		return t.Asset
	}
	return t.AssetID
}

// Condition returns the market condition ID, whichever field name the
// server used.
func (t *Trade) Condition() string {
	if t.ConditionID != "" {
		return t.ConditionID
	}
	return t.Market
}

// MessageHandler is a function type for handling messages
type MessageHandler func(message *Message) error
