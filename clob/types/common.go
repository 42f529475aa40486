package types

// Side is an order direction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderType is an order execution type.
type OrderType string

const (
	OrderTypeGTC OrderType = "GTC" // Good Till Cancel
	OrderTypeFOK OrderType = "FOK" // Fill or Kill: all-or-nothing
	OrderTypeGTD OrderType = "GTD" // Good Till Date
	OrderTypeFAK OrderType = "FAK" // Fill and Kill: fill what is available, cancel the rest
)

// Chain is a blockchain network ID.
type Chain int

const (
	ChainPolygon Chain = 137
	ChainAmoy    Chain = 80002
)

// SignatureType selects the wallet model that signs and funds orders.
type SignatureType int

const (
	SignatureTypeEOA        SignatureType = 0 // standard Ethereum wallet
	SignatureTypeMagic      SignatureType = 1 // Magic Link proxy wallet
	SignatureTypeGnosisSafe SignatureType = 2 // Gnosis Safe proxy wallet (Polymarket default)
)

// AssetType distinguishes collateral (USDC) from conditional outcome tokens.
type AssetType string

const (
	AssetTypeCollateral  AssetType = "COLLATERAL"
	AssetTypeConditional AssetType = "CONDITIONAL"
)

// ApiKeyCreds are L2 API credentials for the CLOB.
type ApiKeyCreds struct {
	Key        string `json:"apiKey"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}

// L2HeaderArgs are the request parts covered by the L2 HMAC signature.
type L2HeaderArgs struct {
	Method      string
	RequestPath string
	Body        *string
}

// L1PolyHeader is the EIP-712 signed header set for key management endpoints.
type L1PolyHeader struct {
	PolyAddress   string `json:"POLY_ADDRESS"`
	PolySignature string `json:"POLY_SIGNATURE"`
	PolyTimestamp string `json:"POLY_TIMESTAMP"`
	PolyNonce     string `json:"POLY_NONCE"`
}

// L2PolyHeader is the API-key authenticated header set for trading endpoints.
type L2PolyHeader struct {
	PolyAddress    string `json:"POLY_ADDRESS"`
	PolySignature  string `json:"POLY_SIGNATURE"`
	PolyTimestamp  string `json:"POLY_TIMESTAMP"`
	PolyAPIKey     string `json:"POLY_API_KEY"`
	PolyPassphrase string `json:"POLY_PASSPHRASE"`
}
