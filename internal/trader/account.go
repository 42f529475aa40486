package trader

import (
	"context"

	"github.com/sirupsen/logrus"
)

// collateralBalance reads the follower's free USDC. A transport failure
// degrades to zero, which the sizing rules then treat as an empty account.
func (t *Trader) collateralBalance(ctx context.Context, clog *logrus.Entry) float64 {
	bal, err := t.exchange.GetCollateralBalance(ctx)
	if err != nil {
		clog.WithError(err).Warn("collateral balance read failed, treating as zero")
		return 0
	}
	f, _ := bal.Float64()
	return f
}

// positionBalance reads the follower's share count in a token, degrading
// to zero on transport failure so a SELL with unknown holdings is skipped
// rather than submitted blind.
func (t *Trader) positionBalance(ctx context.Context, tokenID string, clog *logrus.Entry) float64 {
	pos, err := t.exchange.GetConditionalBalance(ctx, tokenID)
	if err != nil {
		clog.WithError(err).Warn("position read failed, treating as zero")
		return 0
	}
	f, _ := pos.Float64()
	return f
}
