package signing

const (
	// ClobDomainName is the EIP-712 domain for L1 auth signatures.
	ClobDomainName = "ClobAuthDomain"

	// ClobVersion is the EIP-712 domain version.
	ClobVersion = "1"

	// MsgToSign is the attestation message the CLOB expects in L1 auth.
	MsgToSign = "This message attests that I control the given wallet"

	// ExchangeDomainName is the EIP-712 domain for order signatures.
	ExchangeDomainName = "Polymarket CTF Exchange"

	// ExchangeVersion is the order domain version.
	ExchangeVersion = "1"

	// CTFExchangeAddress verifies orders on regular markets.
	CTFExchangeAddress = "0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E"

	// NegRiskCTFExchangeAddress verifies orders on negative-risk markets.
	NegRiskCTFExchangeAddress = "0xC5d563A36AE78145C45a50134d48A1215220f80a"

	// ZeroAddress as taker means anyone can fill the order.
	ZeroAddress = "0x0000000000000000000000000000000000000000"
)
