package portfolio

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/moex-risk-engine/internal/errors"
	"github.com/ducminhle1904/moex-risk-engine/pkg/types"
)

var entryDate = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func pos(t *testing.T, symbol string, qty int64, entry, current, sector string) Position {
	t.Helper()
	p, err := NewPosition(symbol, qty, d(entry), d(current), entryDate, sector)
	require.NoError(t, err)
	return p
}

func samplePortfolio(t *testing.T) *Portfolio {
	t.Helper()
	p, err := New(d("100000.50"),
		pos(t, "SBER", 100, "250.10", "260.35", "FINANCIAL"),
		pos(t, "GAZP", 200, "180", "175.15", "ENERGY"),
		pos(t, "LKOH", 10, "6500", "6700.01", "ENERGY"),
	)
	require.NoError(t, err)
	return p
}

// TestTotalValue_Exact tests that total value is exactly cash plus market values
func TestTotalValue_Exact(t *testing.T) {
	p := samplePortfolio(t)

	sum := p.Cash()
	for _, position := range p.Positions() {
		sum = sum.Add(position.MarketValue())
	}
	assert.True(t, sum.Equal(p.TotalValue()))
	// 100000.50 + 26035 + 35030 + 67000.1
	assert.Equal(t, "228065.6", p.TotalValue().String())
}

// TestPosition_Derived tests market value and unrealized PnL
func TestPosition_Derived(t *testing.T) {
	p := pos(t, "SBER", 100, "250", "275", "")
	assert.Equal(t, "27500", p.MarketValue().String())
	assert.Equal(t, "2500", p.UnrealizedPnL().String())
	assert.InDelta(t, 10.0, p.PnLPercent(), 1e-9)

	marked := p.WithPrice(d("200"))
	assert.Equal(t, "-5000", marked.UnrealizedPnL().String())
	assert.Equal(t, "275", p.CurrentPrice.String())
}

// TestNewPosition_InvalidInput tests constructor validation
func TestNewPosition_InvalidInput(t *testing.T) {
	_, err := NewPosition("SBER", 0, d("1"), d("1"), entryDate, "")
	assert.True(t, errors.IsInvalidInput(err))

	_, err = NewPosition("SBER", 10, d("0"), d("1"), entryDate, "")
	assert.True(t, errors.IsInvalidInput(err))

	_, err = NewPosition("", 10, d("1"), d("1"), entryDate, "")
	assert.True(t, errors.IsInvalidInput(err))
}

// TestNew_DuplicateAndNegativeCash tests portfolio construction errors
func TestNew_DuplicateAndNegativeCash(t *testing.T) {
	a := pos(t, "SBER", 10, "1", "1", "")
	_, err := New(d("0"), a, a)
	assert.True(t, errors.IsInvalidInput(err))

	_, err = New(d("-1"))
	assert.True(t, errors.IsInvalidInput(err))
}

// TestAllocation_SumsToHundred tests allocation and cash percentages
func TestAllocation_SumsToHundred(t *testing.T) {
	p := samplePortfolio(t)
	total := p.CashPercent()
	for _, v := range p.Allocation() {
		total += v
	}
	assert.InDelta(t, 100.0, total, 1e-9)
	assert.InDelta(t, p.Allocation()["SBER"]/100, p.Weight("SBER"), 1e-12)
	assert.Zero(t, p.Weight("MISSING"))
}

// TestSectorAllocation tests per-sector aggregation
func TestSectorAllocation(t *testing.T) {
	p := samplePortfolio(t)
	alloc := p.SectorAllocation(func(pos Position) string { return pos.Sector })

	require.Len(t, alloc, 2)
	expected := 102030.1 / 228065.6 * 100
	assert.InDelta(t, expected, alloc["ENERGY"], 1e-9)
}

// TestEmptyPortfolio_ZeroTotal tests guards against division by zero
func TestEmptyPortfolio_ZeroTotal(t *testing.T) {
	p, err := New(decimal.Zero)
	require.NoError(t, err)

	assert.True(t, p.TotalValue().IsZero())
	assert.Empty(t, p.Allocation())
	assert.Empty(t, p.SectorAllocation(func(Position) string { return "X" }))
	assert.Zero(t, p.CashPercent())
}

// TestSimulate_BuyMergesPosition tests weighted entry price after a buy
func TestSimulate_BuyMergesPosition(t *testing.T) {
	p := samplePortfolio(t)
	order := types.NewMarketOrder("SBER", types.OrderActionBuy, 100)

	next, err := p.Simulate(order, d("270"), "FINANCIAL", entryDate)
	require.NoError(t, err)

	merged, ok := next.Position("SBER")
	require.True(t, ok)
	assert.Equal(t, int64(200), merged.Quantity)
	assert.Equal(t, "260.05", merged.EntryPrice.String())
	assert.Equal(t, "73000.5", next.Cash().String())

	original, _ := p.Position("SBER")
	assert.Equal(t, int64(100), original.Quantity)
}

// TestSimulate_BuyNewPosition tests opening a new position
func TestSimulate_BuyNewPosition(t *testing.T) {
	p := samplePortfolio(t)
	next, err := p.Simulate(types.NewMarketOrder("YNDX", types.OrderActionBuy, 5), d("2500"), "TECHNOLOGY", entryDate)
	require.NoError(t, err)

	opened, ok := next.Position("YNDX")
	require.True(t, ok)
	assert.Equal(t, "TECHNOLOGY", opened.Sector)
	assert.Equal(t, 4, next.Len())
	assert.True(t, next.TotalValue().Equal(p.TotalValue()))
}

// TestSimulate_Sell tests partial and full exits
func TestSimulate_Sell(t *testing.T) {
	p := samplePortfolio(t)

	partial, err := p.Simulate(types.NewMarketOrder("GAZP", types.OrderActionSell, 50), d("175.15"), "", entryDate)
	require.NoError(t, err)
	gazp, _ := partial.Position("GAZP")
	assert.Equal(t, int64(150), gazp.Quantity)

	full, err := p.Simulate(types.NewMarketOrder("GAZP", types.OrderActionSell, 500), d("175.15"), "", entryDate)
	require.NoError(t, err)
	_, held := full.Position("GAZP")
	assert.False(t, held)
	assert.Equal(t, "135030.5", full.Cash().String())

	_, err = p.Simulate(types.NewMarketOrder("YNDX", types.OrderActionSell, 1), d("1"), "", entryDate)
	assert.True(t, errors.IsInvalidInput(err))
}

// TestWithPrices tests repricing without mutating the original
func TestWithPrices(t *testing.T) {
	p := samplePortfolio(t)
	repriced := p.WithPrices(map[string]decimal.Decimal{"SBER": d("300"), "MISSING": d("1")})

	sber, _ := repriced.Position("SBER")
	assert.Equal(t, "300", sber.CurrentPrice.String())
	original, _ := p.Position("SBER")
	assert.Equal(t, "260.35", original.CurrentPrice.String())
}
