package rtds

import (
	"encoding/json"
	"fmt"
)

// ParseTrade parses a trade from message payload
func ParseTrade(payload json.RawMessage) (*Trade, error) {
	var trade Trade
	if err := json.Unmarshal(payload, &trade); err != nil {
		return nil, fmt.Errorf("failed to parse trade: %w", err)
	}
	return &trade, nil
}

// CreateTradeHandler creates a handler function for trade events
func CreateTradeHandler(callback func(*Trade) error) MessageHandler {
	return func(msg *Message) error {
		trade, err := ParseTrade(msg.Payload)
		if err != nil {
			return err
		}
		return callback(trade)
	}
}
