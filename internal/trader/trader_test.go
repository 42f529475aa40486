package trader

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/betbot/copybot/clob/client"
	"github.com/betbot/copybot/clob/types"
	"github.com/betbot/copybot/internal/config"
	"github.com/betbot/copybot/internal/monitor"
)

type fakeExchange struct {
	balance     decimal.Decimal
	balanceErr  error
	position    decimal.Decimal
	positionErr error
	market      *types.Market
	marketErr   error

	orders    []client.MarketOrderArgs
	responses []*types.OrderResponse
	orderErr  error
}

func (f *fakeExchange) GetCollateralBalance(ctx context.Context) (decimal.Decimal, error) {
	return f.balance, f.balanceErr
}

func (f *fakeExchange) GetConditionalBalance(ctx context.Context, tokenID string) (decimal.Decimal, error) {
	return f.position, f.positionErr
}

func (f *fakeExchange) GetMarket(ctx context.Context, conditionID string) (*types.Market, error) {
	if f.marketErr != nil {
		return nil, f.marketErr
	}
	if f.market != nil {
		return f.market, nil
	}
	return &types.Market{ConditionID: conditionID}, nil
}

func (f *fakeExchange) PlaceMarketOrder(ctx context.Context, args client.MarketOrderArgs) (*types.OrderResponse, error) {
	f.orders = append(f.orders, args)
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	if len(f.responses) == 0 {
		return &types.OrderResponse{Success: true, Status: "matched"}, nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func rejection(msg string) *types.OrderResponse {
	return &types.OrderResponse{Success: false, ErrorMsg: msg}
}

func testConfig() *config.Config {
	return &config.Config{
		Strategy:        config.SizingSource,
		SizeMultiplier:  0.01,
		MinTradeAmount:  1.0,
		MaxTradeAmount:  5.0,
		MaxBalanceUsage: 0.8,
	}
}

func buyTrade(price, size float64) *monitor.Trade {
	return &monitor.Trade{
		CopyID:       "test-copy",
		SourceWallet: "0x56687bf447db6ffa42ffe2204a05edaa20f55839",
		Side:         types.SideBuy,
		TokenID:      "7132104567",
		ConditionID:  "0xabc",
		Price:        price,
		Size:         size,
	}
}

func sellTrade(price, size float64) *monitor.Trade {
	t := buyTrade(price, size)
	t.Side = types.SideSell
	return t
}

func TestExecuteBuyClampsToMaximum(t *testing.T) {
	ex := &fakeExchange{balance: decimal.NewFromInt(1000)}
	tr := New(testConfig(), ex)

	// 1000 shares at 0.60 is a $600 source trade; 1% of that is $6,
	// over the $5 ceiling.
	tr.Execute(context.Background(), buyTrade(0.60, 1000))

	if len(ex.orders) != 1 {
		t.Fatalf("orders placed = %d, want 1", len(ex.orders))
	}
	got := ex.orders[0]
	if got.Amount != 5.0 {
		t.Errorf("order amount = %v, want 5.0", got.Amount)
	}
	if got.Side != types.SideBuy {
		t.Errorf("order side = %v, want BUY", got.Side)
	}
	if got.OrderType != types.OrderTypeFAK {
		t.Errorf("order type = %v, want FAK", got.OrderType)
	}
}

func TestExecuteBuyClampsToMinimum(t *testing.T) {
	ex := &fakeExchange{balance: decimal.NewFromInt(1000)}
	tr := New(testConfig(), ex)

	// A $20 source trade copies to $0.20, below the $1 floor.
	tr.Execute(context.Background(), buyTrade(0.40, 50))

	if len(ex.orders) != 1 {
		t.Fatalf("orders placed = %d, want 1", len(ex.orders))
	}
	if got := ex.orders[0].Amount; got != 1.0 {
		t.Errorf("order amount = %v, want 1.0", got)
	}
}

func TestExecuteSellWithoutPositionAborts(t *testing.T) {
	ex := &fakeExchange{balance: decimal.NewFromInt(1000), position: decimal.Zero}
	tr := New(testConfig(), ex)

	tr.Execute(context.Background(), sellTrade(0.60, 1000))

	if len(ex.orders) != 0 {
		t.Errorf("orders placed = %d, want 0", len(ex.orders))
	}
}

func TestExecuteSellCapsAtHeldPosition(t *testing.T) {
	cfg := testConfig()
	cfg.SizeMultiplier = 1.0
	ex := &fakeExchange{balance: decimal.NewFromInt(1000), position: decimal.NewFromInt(3)}
	tr := New(cfg, ex)

	// Source sold 100 shares at a low price; the follower only holds 3.
	tr.Execute(context.Background(), sellTrade(0.01, 100))

	if len(ex.orders) != 1 {
		t.Fatalf("orders placed = %d, want 1", len(ex.orders))
	}
	got := ex.orders[0]
	if got.Side != types.SideSell {
		t.Errorf("order side = %v, want SELL", got.Side)
	}
	if got.Amount != 3.0 {
		t.Errorf("order amount = %v shares, want 3.0", got.Amount)
	}
}

func TestExecuteFallbackRetriesSmallerOnLiquidityError(t *testing.T) {
	ex := &fakeExchange{
		balance: decimal.NewFromInt(1000),
		responses: []*types.OrderResponse{
			rejection("order couldn't be fully filled, FOK orders are fully filled or killed"),
		},
	}
	tr := New(testConfig(), ex)

	// Sizes to the $5 ceiling; the book rejects $5, then fills $2.50.
	tr.Execute(context.Background(), buyTrade(0.60, 1000))

	if len(ex.orders) != 2 {
		t.Fatalf("orders placed = %d, want 2", len(ex.orders))
	}
	if got := ex.orders[0].Amount; got != 5.0 {
		t.Errorf("first attempt amount = %v, want 5.0", got)
	}
	if got := ex.orders[1].Amount; got != 2.5 {
		t.Errorf("second attempt amount = %v, want 2.5", got)
	}
}

func TestExecuteFallbackStopsAtAttemptCap(t *testing.T) {
	ex := &fakeExchange{
		balance: decimal.NewFromInt(1000),
		responses: []*types.OrderResponse{
			rejection("no liquidity"),
			rejection("no liquidity"),
			rejection("no liquidity"),
			rejection("no liquidity"),
			rejection("no liquidity"),
		},
	}
	tr := New(testConfig(), ex)

	tr.Execute(context.Background(), buyTrade(0.60, 1000))

	// Ladder is 5, 2.5, 1.25, then the $1 minimum.
	if len(ex.orders) != 4 {
		t.Fatalf("orders placed = %d, want 4", len(ex.orders))
	}
	if got := ex.orders[3].Amount; got != 1.0 {
		t.Errorf("final attempt amount = %v, want 1.0", got)
	}
}

func TestExecuteAccountErrorIsTerminal(t *testing.T) {
	ex := &fakeExchange{
		balance: decimal.NewFromInt(1000),
		responses: []*types.OrderResponse{
			rejection("not enough balance / allowance"),
		},
	}
	tr := New(testConfig(), ex)

	tr.Execute(context.Background(), buyTrade(0.60, 1000))

	if len(ex.orders) != 1 {
		t.Errorf("orders placed = %d, want 1 (no retry after account error)", len(ex.orders))
	}
}

func TestExecuteTransportErrorIsTerminal(t *testing.T) {
	ex := &fakeExchange{
		balance:  decimal.NewFromInt(1000),
		orderErr: errors.New("connection reset"),
	}
	tr := New(testConfig(), ex)

	tr.Execute(context.Background(), buyTrade(0.60, 1000))

	if len(ex.orders) != 1 {
		t.Errorf("orders placed = %d, want 1", len(ex.orders))
	}
}

func TestExecuteBalanceReadFailureSkipsBuy(t *testing.T) {
	ex := &fakeExchange{balanceErr: errors.New("timeout")}
	tr := New(testConfig(), ex)

	tr.Execute(context.Background(), buyTrade(0.60, 1000))

	if len(ex.orders) != 0 {
		t.Errorf("orders placed = %d, want 0 when balance is unreadable", len(ex.orders))
	}
}

func TestExecutePositionReadFailureSkipsSell(t *testing.T) {
	ex := &fakeExchange{balance: decimal.NewFromInt(1000), positionErr: errors.New("timeout")}
	tr := New(testConfig(), ex)

	tr.Execute(context.Background(), sellTrade(0.60, 1000))

	if len(ex.orders) != 0 {
		t.Errorf("orders placed = %d, want 0 when position is unreadable", len(ex.orders))
	}
}

func TestExecuteUsesNegRiskFlag(t *testing.T) {
	ex := &fakeExchange{
		balance: decimal.NewFromInt(1000),
		market:  &types.Market{ConditionID: "0xabc", NegRisk: true},
	}
	tr := New(testConfig(), ex)

	tr.Execute(context.Background(), buyTrade(0.60, 1000))

	if len(ex.orders) != 1 {
		t.Fatalf("orders placed = %d, want 1", len(ex.orders))
	}
	if !ex.orders[0].NegRisk {
		t.Error("order not flagged neg-risk for a neg-risk market")
	}
}

func TestExecuteMarketLookupFailureAssumesStandard(t *testing.T) {
	ex := &fakeExchange{
		balance:   decimal.NewFromInt(1000),
		marketErr: errors.New("not found"),
	}
	tr := New(testConfig(), ex)

	tr.Execute(context.Background(), buyTrade(0.60, 1000))

	if len(ex.orders) != 1 {
		t.Fatalf("orders placed = %d, want 1", len(ex.orders))
	}
	if ex.orders[0].NegRisk {
		t.Error("order flagged neg-risk after failed market lookup")
	}
}

func TestClassifyOrderError(t *testing.T) {
	cases := []struct {
		msg  string
		want orderErrorKind
	}{
		{"not enough balance / allowance", errorAccount},
		{"Insufficient funds", errorAccount},
		{"order couldn't be fully filled, FOK orders are fully filled or killed", errorLiquidity},
		{"FAK order not filled", errorLiquidity},
		{"no match for marketable order", errorLiquidity},
		{"internal server error", errorUnknown},
		{"", errorUnknown},
	}
	for _, c := range cases {
		if got := classifyOrderError(c.msg); got != c.want {
			t.Errorf("classifyOrderError(%q) = %v, want %v", c.msg, got, c.want)
		}
	}
}
