package signing

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/betbot/copybot/clob/types"
)

// OrderData carries the order fields covered by the EIP-712 signature.
type OrderData struct {
	Salt          int64
	Maker         string
	Signer        string
	Taker         string
	TokenID       *big.Int
	MakerAmount   *big.Int
	TakerAmount   *big.Int
	Expiration    *big.Int
	Nonce         *big.Int
	FeeRateBps    *big.Int
	Side          types.Side
	SignatureType types.SignatureType
}

// BuildOrderSignature signs an order against the CTF exchange contract.
// The exchange address must match the market's neg_risk flag.
func BuildOrderSignature(
	privateKey *ecdsa.PrivateKey,
	chainID types.Chain,
	exchangeAddress string,
	orderData *OrderData,
) (string, error) {
	domain := apitypes.TypedDataDomain{
		Name:              ExchangeDomainName,
		Version:           ExchangeVersion,
		ChainId:           math.NewHexOrDecimal256(int64(chainID)),
		VerifyingContract: exchangeAddress,
	}

	typeDefs := apitypes.Types{
		"EIP712Domain": {
			{Name: "name", Type: "string"},
			{Name: "version", Type: "string"},
			{Name: "chainId", Type: "uint256"},
			{Name: "verifyingContract", Type: "address"},
		},
		"Order": {
			{Name: "salt", Type: "uint256"},
			{Name: "maker", Type: "address"},
			{Name: "signer", Type: "address"},
			{Name: "taker", Type: "address"},
			{Name: "tokenId", Type: "uint256"},
			{Name: "makerAmount", Type: "uint256"},
			{Name: "takerAmount", Type: "uint256"},
			{Name: "expiration", Type: "uint256"},
			{Name: "nonce", Type: "uint256"},
			{Name: "feeRateBps", Type: "uint256"},
			{Name: "side", Type: "uint8"},
			{Name: "signatureType", Type: "uint8"},
		},
	}

	// BUY = 0, SELL = 1 on chain.
	sideInt := int64(1)
	if orderData.Side == types.SideBuy {
		sideInt = 0
	}

	message := map[string]interface{}{
		"salt":          big.NewInt(orderData.Salt),
		"maker":         common.HexToAddress(orderData.Maker).Hex(),
		"signer":        common.HexToAddress(orderData.Signer).Hex(),
		"taker":         common.HexToAddress(orderData.Taker).Hex(),
		"tokenId":       orderData.TokenID,
		"makerAmount":   orderData.MakerAmount,
		"takerAmount":   orderData.TakerAmount,
		"expiration":    orderData.Expiration,
		"nonce":         orderData.Nonce,
		"feeRateBps":    orderData.FeeRateBps,
		"side":          big.NewInt(sideInt),
		"signatureType": big.NewInt(int64(orderData.SignatureType)),
	}

	typedData := apitypes.TypedData{
		Types:       typeDefs,
		PrimaryType: "Order",
		Domain:      domain,
		Message:     message,
	}

	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return "", fmt.Errorf("failed to hash typed data: %w", err)
	}

	signature, err := crypto.Sign(hash, privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign: %w", err)
	}

	signature[64] += 27

	return "0x" + common.Bytes2Hex(signature), nil
}
