package client

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"github.com/betbot/copybot/clob/types"
	"github.com/betbot/copybot/pkg/httpx"
)

// GetOrderBook fetches the aggregated book for one outcome token.
func (c *Client) GetOrderBook(ctx context.Context, tokenID string) (*types.OrderBook, error) {
	var book types.OrderBook
	resp, err := c.http.DoRequest(ctx, "GET", endpointOrderBook, &httpx.RequestOptions{
		Params: map[string]any{"token_id": tokenID},
	}, &book)
	if err := httpx.CheckResponse(resp, err); err != nil {
		return nil, errors.Wrap(err, "get order book")
	}
	return &book, nil
}

// MarketablePrice walks the book from the best level until the requested
// amount is covered and returns the worst price that has to be crossed.
// amount is USD for BUY and shares for SELL. Returns the last book level's
// price when liquidity runs out before the amount is covered, and an error
// on an empty side.
func MarketablePrice(book *types.OrderBook, side types.Side, amount float64) (float64, error) {
	// Asks arrive ascending-from-worst or descending depending on server
	// version; pick the side and scan from the end, which the CLOB
	// documents as the best level.
	levels := book.Asks
	if side == types.SideSell {
		levels = book.Bids
	}
	if len(levels) == 0 {
		return 0, errors.Errorf("no %s liquidity for token %s", side, book.AssetID)
	}

	remaining := amount
	for i := len(levels) - 1; i >= 0; i-- {
		price, err := strconv.ParseFloat(levels[i].Price, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "parse level price %q", levels[i].Price)
		}
		size, err := strconv.ParseFloat(levels[i].Size, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "parse level size %q", levels[i].Size)
		}

		if side == types.SideBuy {
			remaining -= price * size
		} else {
			remaining -= size
		}
		if remaining <= 0 {
			return price, nil
		}
	}

	// Not enough depth; cross the whole side.
	price, err := strconv.ParseFloat(levels[0].Price, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parse level price %q", levels[0].Price)
	}
	return price, nil
}
