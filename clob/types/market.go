package types

// OrderBook is the aggregated book for one outcome token.
type OrderBook struct {
	Market    string           `json:"market"`
	AssetID   string           `json:"asset_id"`
	Hash      string           `json:"hash"`
	Timestamp string           `json:"timestamp"`
	Bids      []OrderBookLevel `json:"bids"`
	Asks      []OrderBookLevel `json:"asks"`
}

// OrderBookLevel is a single price level.
type OrderBookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// Market is the market record returned by GET /markets/{condition_id}.
// Only the fields the bot reads are mapped.
type Market struct {
	ConditionID      string        `json:"condition_id"`
	QuestionID       string        `json:"question_id"`
	Question         string        `json:"question"`
	MarketSlug       string        `json:"market_slug"`
	Tokens           []MarketToken `json:"tokens"`
	MinimumOrderSize float64       `json:"minimum_order_size"`
	MinimumTickSize  float64       `json:"minimum_tick_size"`
	Active           bool          `json:"active"`
	Closed           bool          `json:"closed"`
	NegRisk          bool          `json:"neg_risk"`
}

// MarketToken is one outcome token of a market.
type MarketToken struct {
	TokenID string  `json:"token_id"`
	Outcome string  `json:"outcome"`
	Price   float64 `json:"price"`
	Winner  bool    `json:"winner"`
}
