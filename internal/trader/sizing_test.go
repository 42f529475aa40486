package trader

import (
	"math"
	"testing"
	"testing/quick"

	"github.com/betbot/copybot/clob/types"
	"github.com/betbot/copybot/internal/config"
)

func defaultParams() SizingParams {
	return SizingParams{
		Strategy:        config.SizingSource,
		SizeMultiplier:  0.01,
		MinTradeAmount:  1.0,
		MaxTradeAmount:  5.0,
		MaxBalanceUsage: 0.8,
	}
}

func TestSizeCopyBuy(t *testing.T) {
	cases := []struct {
		name    string
		params  func(SizingParams) SizingParams
		in      SizingInputs
		want    float64
		wantErr error
	}{
		{
			name: "proportional to source",
			in:   SizingInputs{Side: types.SideBuy, SourceValue: 300, Balance: 1000},
			want: 3.0,
		},
		{
			name: "clamped to maximum",
			in:   SizingInputs{Side: types.SideBuy, SourceValue: 600, Balance: 1000},
			want: 5.0,
		},
		{
			name: "raised to minimum",
			in:   SizingInputs{Side: types.SideBuy, SourceValue: 20, Balance: 1000},
			want: 1.0,
		},
		{
			name: "capped by balance policy before clamping",
			in:   SizingInputs{Side: types.SideBuy, SourceValue: 400, Balance: 4},
			want: 3.2,
		},
		{
			name:    "minimum exceeds usable balance",
			in:      SizingInputs{Side: types.SideBuy, SourceValue: 20, Balance: 1},
			wantErr: ErrInsufficientBalance,
		},
		{
			name:    "empty account",
			in:      SizingInputs{Side: types.SideBuy, SourceValue: 300, Balance: 0},
			wantErr: ErrInsufficientBalance,
		},
		{
			name: "balance strategy sizes from own funds",
			params: func(p SizingParams) SizingParams {
				p.Strategy = config.SizingBalance
				return p
			},
			in:   SizingInputs{Side: types.SideBuy, SourceValue: 99999, Balance: 200},
			want: 2.0,
		},
		{
			name: "no ceiling when maximum is zero",
			params: func(p SizingParams) SizingParams {
				p.MaxTradeAmount = 0
				return p
			},
			in:   SizingInputs{Side: types.SideBuy, SourceValue: 600, Balance: 1000},
			want: 6.0,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := defaultParams()
			if c.params != nil {
				p = c.params(p)
			}
			got, err := SizeCopy(p, c.in)
			if c.wantErr != nil {
				if err != c.wantErr {
					t.Fatalf("err = %v, want %v", err, c.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-c.want) > 1e-9 {
				t.Errorf("amount = %v, want %v", got, c.want)
			}
		})
	}
}

func TestSizeCopySell(t *testing.T) {
	p := defaultParams()
	p.SizeMultiplier = 0.5

	cases := []struct {
		name    string
		in      SizingInputs
		want    float64
		wantErr error
	}{
		{
			name: "proportional to source size",
			in:   SizingInputs{Side: types.SideSell, SourceSize: 10, Price: 0.5, Position: 100},
			want: 5.0,
		},
		{
			name: "capped by held position",
			in:   SizingInputs{Side: types.SideSell, SourceSize: 1000, Price: 0.001, Position: 7},
			want: 7.0,
		},
		{
			name: "ceiling converts to shares",
			in:   SizingInputs{Side: types.SideSell, SourceSize: 1000, Price: 0.5, Position: 400},
			want: 10.0, // $5 ceiling at 0.50 a share
		},
		{
			name: "no floor on small exits",
			in:   SizingInputs{Side: types.SideSell, SourceSize: 0.4, Price: 0.5, Position: 100},
			want: 0.2,
		},
		{
			name:    "zero position",
			in:      SizingInputs{Side: types.SideSell, SourceSize: 10, Price: 0.5, Position: 0},
			wantErr: ErrNoPosition,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := SizeCopy(p, c.in)
			if c.wantErr != nil {
				if err != c.wantErr {
					t.Fatalf("err = %v, want %v", err, c.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-c.want) > 1e-9 {
				t.Errorf("shares = %v, want %v", got, c.want)
			}
		})
	}
}

func TestSizeCopyBuyBounds(t *testing.T) {
	p := defaultParams()
	// Any successful BUY sizing lands inside the clamp window and the
	// balance policy, regardless of the source trade.
	f := func(value, balance float64) bool {
		value = math.Abs(math.Mod(value, 1e6))
		balance = math.Abs(math.Mod(balance, 1e6))
		amount, err := SizeCopy(p, SizingInputs{
			Side:        types.SideBuy,
			SourceValue: value,
			Balance:     balance,
		})
		if err != nil {
			return err == ErrInsufficientBalance
		}
		return amount >= p.MinTradeAmount &&
			amount <= p.MaxTradeAmount &&
			amount <= balance*p.MaxBalanceUsage
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestSizeCopySellBounds(t *testing.T) {
	p := defaultParams()
	// A successful SELL never exceeds the held position or the dollar
	// ceiling.
	f := func(size, position float64, centPrice uint8) bool {
		size = math.Abs(math.Mod(size, 1e6))
		position = math.Abs(math.Mod(position, 1e6))
		price := float64(centPrice%99+1) / 100
		shares, err := SizeCopy(p, SizingInputs{
			Side:       types.SideSell,
			SourceSize: size,
			Price:      price,
			Position:   position,
		})
		if err != nil {
			return err == ErrNoPosition
		}
		return shares > 0 &&
			shares <= position &&
			shares*price <= p.MaxTradeAmount+1e-9
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}
