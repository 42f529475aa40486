package client

import (
	"context"
	"encoding/json"
	"math/big"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/betbot/copybot/clob/signing"
	"github.com/betbot/copybot/clob/types"
	"github.com/betbot/copybot/pkg/httpx"
)

// MarketOrderArgs describes a marketable order. Amount is USD for BUY and
// shares for SELL, matching the CLOB market-order convention. Price of 0
// means derive the marketable price from the live book.
type MarketOrderArgs struct {
	TokenID   string
	Side      types.Side
	Amount    float64
	Price     float64
	OrderType types.OrderType
	NegRisk   bool
}

// Minimums the exchange enforces on marketable orders.
const (
	minTokenSize = 0.1
	minOrderUSD  = 1.0
	tickSize     = 0.01
)

// PlaceMarketOrder builds, signs and submits a marketable order. The
// immediate-or-cancel types (FAK, FOK) are the only ones that make sense
// here; FAK is the default.
func (c *Client) PlaceMarketOrder(ctx context.Context, args MarketOrderArgs) (*types.OrderResponse, error) {
	orderType := args.OrderType
	if orderType == "" {
		orderType = types.OrderTypeFAK
	}

	price := args.Price
	if price == 0 {
		book, err := c.GetOrderBook(ctx, args.TokenID)
		if err != nil {
			return nil, err
		}
		price, err = MarketablePrice(book, args.Side, args.Amount)
		if err != nil {
			return nil, err
		}
	}

	order, err := c.createSignedOrder(args.TokenID, args.Side, args.Amount, price, args.NegRisk)
	if err != nil {
		return nil, err
	}

	return c.PostOrder(ctx, order, orderType)
}

// createSignedOrder builds an order with immediate-execution precision:
// price on the 0.01 tick, shares to 4 decimals, USD to 2 decimals, then
// signs it against the exchange contract matching negRisk.
func (c *Client) createSignedOrder(tokenID string, side types.Side, amount float64, price float64, negRisk bool) (*types.SignedOrder, error) {
	if price <= 0 {
		return nil, errors.New("order price must be positive")
	}

	price = float64(int(price/tickSize+0.5)) * tickSize

	// Resolve shares and USD value from the side-specific amount.
	var size, usdValue float64
	if side == types.SideBuy {
		usdValue = amount
		size = amount / price
	} else {
		size = amount
		usdValue = size * price
	}

	size = float64(int(size*10000+0.5)) / 10000
	if size < minTokenSize {
		size = minTokenSize
	}

	usdValue = size * price
	usdValue = float64(int(usdValue*100+0.5)) / 100

	if side == types.SideBuy && usdValue < minOrderUSD {
		usdValue = minOrderUSD
		size = usdValue / price
		size = float64(int(size*10000+0.5)) / 10000
	}

	// 6-decimal base units: shares carry 4 decimals, USD carries 2.
	sizeInt := big.NewInt(int64(size*10000+0.5) * 100)
	usdInt := big.NewInt(int64(usdValue*100+0.5) * 10000)

	var makerAmount, takerAmount *big.Int
	if side == types.SideBuy {
		makerAmount = usdInt
		takerAmount = sizeInt
	} else {
		makerAmount = sizeInt
		takerAmount = usdInt
	}

	tokenInt, ok := new(big.Int).SetString(tokenID, 10)
	if !ok {
		return nil, errors.Errorf("invalid token ID %q", tokenID)
	}

	salt := generateSalt()

	// For proxy wallets the maker is the funder and the signer is the key
	// wallet; for EOAs they coincide.
	orderData := &signing.OrderData{
		Salt:          salt,
		Maker:         c.funder.Hex(),
		Signer:        c.address.Hex(),
		Taker:         signing.ZeroAddress,
		TokenID:       tokenInt,
		MakerAmount:   makerAmount,
		TakerAmount:   takerAmount,
		Expiration:    big.NewInt(0),
		Nonce:         big.NewInt(0),
		FeeRateBps:    big.NewInt(0),
		Side:          side,
		SignatureType: c.signatureType,
	}

	exchange := signing.CTFExchangeAddress
	if negRisk {
		exchange = signing.NegRiskCTFExchangeAddress
	}

	sig, err := signing.BuildOrderSignature(c.privateKey, c.chainID, exchange, orderData)
	if err != nil {
		return nil, errors.Wrap(err, "sign order")
	}

	return &types.SignedOrder{
		Salt:          salt,
		Maker:         orderData.Maker,
		Signer:        orderData.Signer,
		Taker:         orderData.Taker,
		TokenID:       tokenID,
		MakerAmount:   makerAmount.String(),
		TakerAmount:   takerAmount.String(),
		Expiration:    "0",
		Nonce:         "0",
		FeeRateBps:    "0",
		Side:          side,
		SignatureType: int(c.signatureType),
		Signature:     sig,
	}, nil
}

// PostOrder submits a signed order. The L2 signature covers the exact JSON
// body, so the payload is marshaled once and reused.
func (c *Client) PostOrder(ctx context.Context, order *types.SignedOrder, orderType types.OrderType) (*types.OrderResponse, error) {
	if c.creds == nil {
		return nil, errors.New("API credentials not initialized")
	}

	payload := types.NewOrder{
		Order:     *order,
		Owner:     c.creds.Key,
		OrderType: orderType,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "marshal order")
	}
	bodyStr := string(body)

	headers, err := c.l2Headers("POST", endpointPostOrder, &bodyStr)
	if err != nil {
		return nil, err
	}

	var orderResp types.OrderResponse
	resp, err := c.http.DoRequest(ctx, "POST", endpointPostOrder, &httpx.RequestOptions{
		Headers: headers,
		Data:    bodyStr,
	}, &orderResp)
	if err != nil {
		return nil, errors.Wrap(err, "post order")
	}
	if !resp.IsSuccess() {
		// Rejections come back with a non-2xx status and an errorMsg body;
		// surface the parsed response so callers can classify the error.
		_ = json.Unmarshal(resp.Body(), &orderResp)
		if orderResp.ErrorMsg != "" {
			return &orderResp, nil
		}
		return nil, errors.Errorf("post order failed: %d %s", resp.StatusCode(), strconv.Quote(string(resp.Body())))
	}

	return &orderResp, nil
}

func generateSalt() int64 {
	return time.Now().UnixNano() % 1000000000
}
