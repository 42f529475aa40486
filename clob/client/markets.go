package client

import (
	"context"

	"github.com/pkg/errors"

	"github.com/betbot/copybot/clob/types"
	"github.com/betbot/copybot/pkg/httpx"
)

// GetMarket fetches the market record for a condition ID. The bot uses it
// for the neg_risk flag, which decides the signing contract.
func (c *Client) GetMarket(ctx context.Context, conditionID string) (*types.Market, error) {
	var market types.Market
	resp, err := c.http.DoRequest(ctx, "GET", endpointMarket+conditionID, nil, &market)
	if err := httpx.CheckResponse(resp, err); err != nil {
		return nil, errors.Wrapf(err, "get market %s", conditionID)
	}
	return &market, nil
}
