package trader

import (
	"github.com/pkg/errors"

	"github.com/betbot/copybot/clob/types"
	"github.com/betbot/copybot/internal/config"
)

// Sizing failure sentinels. Both abort the copy before any order is built.
var (
	ErrInsufficientBalance = errors.New("insufficient balance for copy")
	ErrNoPosition          = errors.New("no position to sell")
)

// SizingParams is the slice of the configuration that drives sizing.
type SizingParams struct {
	Strategy        config.SizingStrategy
	SizeMultiplier  float64
	MinTradeAmount  float64
	MaxTradeAmount  float64
	MaxBalanceUsage float64
}

// SizingInputs carries the per-trade state read just before sizing.
type SizingInputs struct {
	Side types.Side

	// SourceValue is the source trade's USD value, SourceSize its share
	// count. Price is the source fill price.
	SourceValue float64
	SourceSize  float64
	Price       float64

	// Balance is the follower's free collateral in USD. Position is the
	// follower's share count in the traded token.
	Balance  float64
	Position float64
}

// SizeCopy returns the order amount for a copy: USD to spend for a BUY,
// shares to sell for a SELL.
//
// A BUY is clamped into [MinTradeAmount, MaxTradeAmount] and must fit
// inside Balance*MaxBalanceUsage after clamping; otherwise the copy is
// aborted with ErrInsufficientBalance. A SELL is capped by the held
// position and by MaxTradeAmount worth of shares, with no floor, and
// aborts with ErrNoPosition when nothing is held.
func SizeCopy(p SizingParams, in SizingInputs) (float64, error) {
	switch in.Side {
	case types.SideBuy:
		return sizeBuy(p, in)
	case types.SideSell:
		return sizeSell(p, in)
	default:
		return 0, errors.Errorf("unsupported side %q", in.Side)
	}
}

func sizeBuy(p SizingParams, in SizingInputs) (float64, error) {
	var desired float64
	switch p.Strategy {
	case config.SizingBalance:
		desired = in.Balance * p.SizeMultiplier
	default:
		desired = in.SourceValue * p.SizeMultiplier
	}

	usable := in.Balance * p.MaxBalanceUsage
	if desired > usable {
		desired = usable
	}

	if desired < p.MinTradeAmount {
		desired = p.MinTradeAmount
	}
	if p.MaxTradeAmount > 0 && desired > p.MaxTradeAmount {
		desired = p.MaxTradeAmount
	}

	// The floor clamp may have pushed the amount past what the balance
	// policy allows; that is a hard stop, not a smaller order.
	if desired <= 0 || desired > usable {
		return 0, ErrInsufficientBalance
	}
	return desired, nil
}

func sizeSell(p SizingParams, in SizingInputs) (float64, error) {
	if in.Position <= 0 {
		return 0, ErrNoPosition
	}

	var shares float64
	switch p.Strategy {
	case config.SizingBalance:
		shares = in.Position * p.SizeMultiplier
	default:
		shares = in.SourceSize * p.SizeMultiplier
	}

	if shares > in.Position {
		shares = in.Position
	}

	// Only the ceiling applies on the way out; small exits are always
	// allowed so positions can be unwound completely.
	if p.MaxTradeAmount > 0 && in.Price > 0 {
		maxShares := p.MaxTradeAmount / in.Price
		if shares > maxShares {
			shares = maxShares
		}
	}

	if shares <= 0 {
		return 0, ErrNoPosition
	}
	return shares, nil
}
