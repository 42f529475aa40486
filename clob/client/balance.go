package client

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/betbot/copybot/clob/types"
	"github.com/betbot/copybot/pkg/httpx"
)

// usdcBase converts between 6-decimal base units and human units.
var usdcBase = decimal.New(1, 6)

// GetBalanceAllowance fetches balance and allowance for the authenticated
// user. tokenID is required for the CONDITIONAL asset type.
func (c *Client) GetBalanceAllowance(ctx context.Context, assetType types.AssetType, tokenID string) (*types.BalanceAllowance, error) {
	params := map[string]any{
		"asset_type":     string(assetType),
		"signature_type": strconv.Itoa(int(c.signatureType)),
	}
	if tokenID != "" {
		params["token_id"] = tokenID
	}

	headers, err := c.l2Headers("GET", endpointBalanceAllowance, nil)
	if err != nil {
		return nil, err
	}

	var result types.BalanceAllowance
	resp, err := c.http.DoRequest(ctx, "GET", endpointBalanceAllowance, &httpx.RequestOptions{
		Headers: headers,
		Params:  params,
	}, &result)
	if err := httpx.CheckResponse(resp, err); err != nil {
		return nil, errors.Wrap(err, "get balance allowance")
	}

	return &result, nil
}

// GetCollateralBalance returns the available USDC balance in dollars.
func (c *Client) GetCollateralBalance(ctx context.Context) (decimal.Decimal, error) {
	ba, err := c.GetBalanceAllowance(ctx, types.AssetTypeCollateral, "")
	if err != nil {
		return decimal.Zero, err
	}
	return parseBaseUnits(ba.Balance)
}

// GetConditionalBalance returns the holdings of one outcome token in shares.
func (c *Client) GetConditionalBalance(ctx context.Context, tokenID string) (decimal.Decimal, error) {
	ba, err := c.GetBalanceAllowance(ctx, types.AssetTypeConditional, tokenID)
	if err != nil {
		return decimal.Zero, err
	}
	return parseBaseUnits(ba.Balance)
}

func parseBaseUnits(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse balance %q", s)
	}
	return d.Div(usdcBase), nil
}
