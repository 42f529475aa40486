package trader

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/betbot/copybot/clob/client"
	"github.com/betbot/copybot/clob/types"
	"github.com/betbot/copybot/internal/config"
	"github.com/betbot/copybot/internal/metrics"
	"github.com/betbot/copybot/internal/monitor"
)

var log = logrus.WithField("component", "trader")

// exchange is the slice of the CLOB client the trader uses.
type exchange interface {
	GetCollateralBalance(ctx context.Context) (decimal.Decimal, error)
	GetConditionalBalance(ctx context.Context, tokenID string) (decimal.Decimal, error)
	GetMarket(ctx context.Context, conditionID string) (*types.Market, error)
	PlaceMarketOrder(ctx context.Context, args client.MarketOrderArgs) (*types.OrderResponse, error)
}

// fallbackFractions is the sizing ladder walked when the book cannot fill
// an order: full size, half, quarter, then the configured minimum.
var fallbackFractions = []float64{1.0, 0.5, 0.25}

const maxOrderAttempts = 4

// Trader turns detected source trades into orders on the follower account.
// One Execute call handles one copy chain end to end.
type Trader struct {
	cfg      SizingParams
	exchange exchange
}

// New creates a trader from the bot configuration.
func New(cfg *config.Config, ex exchange) *Trader {
	return &Trader{
		cfg: SizingParams{
			Strategy:        cfg.Strategy,
			SizeMultiplier:  cfg.SizeMultiplier,
			MinTradeAmount:  cfg.MinTradeAmount,
			MaxTradeAmount:  cfg.MaxTradeAmount,
			MaxBalanceUsage: cfg.MaxBalanceUsage,
		},
		exchange: ex,
	}
}

// Execute copies one source trade. It never returns an error: outcomes are
// logged and counted, and a failed copy must not disturb other chains.
func (t *Trader) Execute(ctx context.Context, trade *monitor.Trade) {
	clog := log.WithFields(logrus.Fields{
		"copy_id": trade.CopyID,
		"wallet":  trade.ShortWallet(),
		"side":    trade.Side,
		"market":  trade.Title,
		"outcome": trade.Outcome,
	})

	balance := t.collateralBalance(ctx, clog)
	var position float64
	if trade.Side == types.SideSell {
		position = t.positionBalance(ctx, trade.TokenID, clog)
	}

	amount, err := SizeCopy(t.cfg, SizingInputs{
		Side:        trade.Side,
		SourceValue: trade.Value(),
		SourceSize:  trade.Size,
		Price:       trade.Price,
		Balance:     balance,
		Position:    position,
	})
	if err != nil {
		metrics.CopiesSkipped.Add(1)
		clog.WithError(err).WithFields(logrus.Fields{
			"balance":  balance,
			"position": position,
		}).Warn("copy skipped")
		return
	}

	clog.WithFields(logrus.Fields{
		"amount":  amount,
		"balance": balance,
	}).Info("sizing complete, placing order")

	negRisk := t.negRisk(ctx, trade.ConditionID, clog)

	if resp := t.placeWithFallback(ctx, trade, amount, balance, negRisk, clog); resp != nil {
		metrics.CopiesExecuted.Add(1)
		after := t.collateralBalance(ctx, clog)
		clog.WithFields(logrus.Fields{
			"order_id":       resp.OrderID,
			"status":         resp.Status,
			"balance_before": balance,
			"balance_after":  after,
			"balance_delta":  after - balance,
		}).Info("copy executed")
		return
	}

	metrics.CopiesFailed.Add(1)
	clog.Error("copy failed, all attempts exhausted")
}

// placeWithFallback walks the sizing ladder until an order fills or a
// terminal rejection arrives. It returns the successful response, or nil.
func (t *Trader) placeWithFallback(ctx context.Context, trade *monitor.Trade, amount, balance float64, negRisk bool, clog *logrus.Entry) *types.OrderResponse {
	attempts := 0
	prev := -1.0

	for _, amt := range t.ladder(trade.Side, amount, balance) {
		if attempts >= maxOrderAttempts {
			break
		}
		if amt == prev {
			continue
		}
		prev = amt
		attempts++
		metrics.OrderAttempts.Add(1)

		alog := clog.WithFields(logrus.Fields{
			"attempt": attempts,
			"amount":  amt,
		})
		alog.Info("submitting order")

		resp, err := t.exchange.PlaceMarketOrder(ctx, client.MarketOrderArgs{
			TokenID:   trade.TokenID,
			Side:      trade.Side,
			Amount:    amt,
			OrderType: types.OrderTypeFAK,
			NegRisk:   negRisk,
		})
		if err != nil {
			alog.WithError(err).Error("order submission failed")
			return nil
		}
		if resp.ErrorMsg == "" {
			return resp
		}

		kind := classifyOrderError(resp.ErrorMsg)
		alog.WithFields(logrus.Fields{
			"error": resp.ErrorMsg,
			"kind":  kind,
		}).Warn("order rejected")
		if kind != errorLiquidity {
			return nil
		}
	}
	return nil
}

// ladder yields the amounts to try in order. BUY rungs below the
// configured dollar minimum collapse onto the minimum and never exceed
// what the balance policy allows. SELL rungs are share counts and only
// shrink.
func (t *Trader) ladder(side types.Side, amount, balance float64) []float64 {
	out := make([]float64, 0, len(fallbackFractions)+1)
	for _, f := range fallbackFractions {
		out = append(out, amount*f)
	}

	if side != types.SideBuy {
		return out
	}

	floor := t.cfg.MinTradeAmount
	for i, amt := range out {
		if amt < floor {
			out[i] = floor
		}
	}
	if floor > 0 {
		out = append(out, floor)
	}

	usable := balance * t.cfg.MaxBalanceUsage
	kept := out[:0]
	for _, amt := range out {
		if amt > 0 && amt <= usable {
			kept = append(kept, amt)
		}
	}
	return kept
}

// negRisk resolves the market's neg-risk flag; on lookup failure the
// standard exchange contract is assumed.
func (t *Trader) negRisk(ctx context.Context, conditionID string, clog *logrus.Entry) bool {
	if conditionID == "" {
		return false
	}
	market, err := t.exchange.GetMarket(ctx, conditionID)
	if err != nil {
		clog.WithError(err).Warn("market lookup failed, assuming standard exchange")
		return false
	}
	return market.NegRisk
}
