package monitor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/betbot/copybot/clob/rtds"
	"github.com/betbot/copybot/clob/types"
)

// Trade is the normalized record handed to the execution engine. Exactly
// one is produced per accepted source event.
type Trade struct {
	// CopyID correlates all log lines and order attempts of one copy chain.
	CopyID string

	SourceWallet string
	Side         types.Side
	TokenID      string
	ConditionID  string
	Price        float64
	Size         float64
	Title        string
	Outcome      string
	Slug         string
	EventSlug    string
	TxHash       string
	Timestamp    int64
	MessageType  string
}

// Value returns the source trade's dollar value.
func (t *Trade) Value() float64 {
	return t.Price * t.Size
}

// DedupKey identifies one delivery of a fill. The transaction hash anchors
// it; the event timestamp stands in when the hash is absent. The message
// type is part of the key, so the trades and orders_matched channels are
// deduplicated independently.
func (t *Trade) DedupKey() string {
	anchor := t.TxHash
	if anchor == "" {
		anchor = strconv.FormatInt(t.Timestamp, 10)
	}
	return fmt.Sprintf("%s-%s-%s-%v-%v-%s-%s",
		t.SourceWallet, t.TokenID, t.Side, t.Price, t.Size, anchor, t.MessageType)
}

// ShortWallet renders an address as 0x1234…abcd for log banners.
func (t *Trade) ShortWallet() string {
	w := t.SourceWallet
	if len(w) <= 10 {
		return w
	}
	return w[:6] + "…" + w[len(w)-4:]
}

// normalizeTrade converts a raw activity payload into a Trade, rejecting
// events that cannot be copied.
func normalizeTrade(raw *rtds.Trade, messageType string) (*Trade, error) {
	wallet := strings.ToLower(strings.TrimSpace(raw.ProxyWallet))
	if wallet == "" {
		return nil, fmt.Errorf("missing proxy wallet")
	}

	var side types.Side
	switch strings.ToUpper(strings.TrimSpace(raw.Side)) {
	case string(types.SideBuy):
		side = types.SideBuy
	case string(types.SideSell):
		side = types.SideSell
	default:
		return nil, fmt.Errorf("unsupported side %q", raw.Side)
	}

	token := raw.Token()
	if token == "" {
		return nil, fmt.Errorf("missing token ID")
	}

	price, err := raw.Price.Float64()
	if err != nil || price <= 0 {
		return nil, fmt.Errorf("invalid price %q", raw.Price)
	}
	size, err := raw.Size.Float64()
	if err != nil || size <= 0 {
		return nil, fmt.Errorf("invalid size %q", raw.Size)
	}

	return &Trade{
		CopyID:       uuid.NewString(),
		SourceWallet: wallet,
		Side:         side,
		TokenID:      token,
		ConditionID:  raw.Condition(),
		Price:        price,
		Size:         size,
		Title:        raw.Title,
		Outcome:      raw.Outcome,
		Slug:         raw.Slug,
		EventSlug:    raw.EventSlug,
		TxHash:       raw.TransactionHash,
		Timestamp:    raw.Timestamp,
		MessageType:  messageType,
	}, nil
}
