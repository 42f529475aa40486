package client

// DefaultHost is the production CLOB REST endpoint.
const DefaultHost = "https://clob.polymarket.com"

const (
	endpointTime             = "/time"
	endpointCreateAPIKey     = "/auth/api-key"
	endpointDeriveAPIKey     = "/auth/derive-api-key"
	endpointBalanceAllowance = "/balance-allowance"
	endpointOrderBook        = "/book"
	endpointMarket           = "/markets/"
	endpointPostOrder        = "/order"
)
