package validator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/moex-risk-engine/internal/compliance"
	"github.com/ducminhle1904/moex-risk-engine/internal/config"
	"github.com/ducminhle1904/moex-risk-engine/internal/diversification"
	"github.com/ducminhle1904/moex-risk-engine/internal/errors"
	"github.com/ducminhle1904/moex-risk-engine/internal/geopolitical"
	"github.com/ducminhle1904/moex-risk-engine/internal/portfolio"
	"github.com/ducminhle1904/moex-risk-engine/internal/risk"
	"github.com/ducminhle1904/moex-risk-engine/pkg/types"
)

// Wednesday, main session
var now = time.Date(2024, 1, 10, 12, 0, 0, 0, time.FixedZone("MSK", 3*60*60))

func newOrderValidator(t *testing.T) *OrderValidator {
	t.Helper()
	ref := config.DefaultReferenceData()
	c, err := compliance.NewValidator(config.DefaultComplianceRules(), ref, nil)
	require.NoError(t, err)
	d, err := diversification.NewEngine(config.DefaultDiversificationRules(), config.DefaultScoringPenalties(), ref, nil)
	require.NoError(t, err)
	s, err := risk.NewScorer(config.DefaultRiskParameters(), config.DefaultRiskWeights(), ref, nil)
	require.NoError(t, err)
	v, err := NewOrderValidator(c, d, s, nil)
	require.NoError(t, err)
	return v
}

func position(symbol string, qty int64, price string) portfolio.Position {
	p := decimal.RequireFromString(price)
	return portfolio.Position{Symbol: symbol, Quantity: qty, EntryPrice: p, CurrentPrice: p, EntryDate: now}
}

// diversified is worth 1,000,000 RUB; LKOH is 6% against a large-cap limit of 8%
func diversified(t *testing.T) *portfolio.Portfolio {
	t.Helper()
	p, err := portfolio.New(decimal.NewFromInt(360000),
		position("SBER", 200, "300"),
		position("LKOH", 10, "6000"),
		position("GMKN", 4, "15000"),
		position("YNDX", 20, "3000"),
		position("MTSS", 200, "300"),
		position("MGNT", 10, "6000"),
		position("PLZL", 5, "12000"),
		position("MOEX", 300, "200"),
		position("FEES", 200000, "0.2"),
		position("PHOR", 5, "8000"),
		position("PIKK", 50, "800"),
		position("FLOT", 400, "100"),
	)
	require.NoError(t, err)
	return p
}

func quotes() map[string]types.MarketData {
	return map[string]types.MarketData{
		"LKOH": {Symbol: "LKOH", Price: decimal.NewFromInt(6000), Volume: 1000},
		"SBER": {Symbol: "SBER", Price: decimal.NewFromInt(300), Volume: 100000},
	}
}

func request(t *testing.T, order types.TradeOrder) Request {
	return Request{Order: order, Portfolio: diversified(t), MarketData: quotes(), Now: now}
}

// TestValidate_OversizedBuyRejected tests that a BUY breaking the tier cap is rejected with the largest acceptable quantity
func TestValidate_OversizedBuyRejected(t *testing.T) {
	v := newOrderValidator(t)

	// 40 shares would be 24% of the portfolio
	res, err := v.Validate(request(t, types.NewMarketOrder("LKOH", types.OrderActionBuy, 30)))
	require.NoError(t, err)

	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "Position LKOH size 24.0%")
	require.NotNil(t, res.Adjustments.Quantity)
	// (1,000,000 * 8% - 60,000) / 6,000
	assert.Equal(t, int64(3), *res.Adjustments.Quantity)
	assert.InDelta(t, 0.3, res.RiskScore, 1e-9)
	assert.NotEmpty(t, res.Warnings)

	// the suggested quantity itself stays within the cap
	res, err = v.Validate(request(t, types.NewMarketOrder("LKOH", types.OrderActionBuy, *res.Adjustments.Quantity)))
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Nil(t, res.Adjustments.Quantity)
}

// TestValidate_HighPositionViolation tests that a HIGH position-size breach is an error
func TestValidate_HighPositionViolation(t *testing.T) {
	v := newOrderValidator(t)
	// 21 shares = 12.6%, 57.5% over the limit
	res, err := v.Validate(request(t, types.NewMarketOrder("LKOH", types.OrderActionBuy, 11)))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "12.6%")
	require.NotNil(t, res.Adjustments.Quantity)
	assert.Equal(t, int64(3), *res.Adjustments.Quantity)
}

// TestValidate_SmallPositionOvershootRejected tests that any breach of the traded symbol's tier cap rejects a BUY
func TestValidate_SmallPositionOvershootRejected(t *testing.T) {
	v := newOrderValidator(t)
	// 15 shares = 9% against the 8% large-cap limit, a LOW severity breach
	res, err := v.Validate(request(t, types.NewMarketOrder("LKOH", types.OrderActionBuy, 5)))
	require.NoError(t, err)

	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "Position LKOH size 9.0%")
	assert.Zero(t, res.RiskScore)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "Sanctions-sensitive")
	require.NotNil(t, res.Adjustments.Quantity)
	assert.Equal(t, int64(3), *res.Adjustments.Quantity)

	// no history: base 5% stop
	require.True(t, res.Adjustments.StopLoss.Valid)
	assert.True(t, res.Adjustments.StopLoss.Decimal.Equal(decimal.NewFromInt(5700)))
	require.NotNil(t, res.Compliance)
	assert.Equal(t, compliance.SessionMain, res.Compliance.Info.Session)
}

// TestValidate_SuggestedQuantityAtMovedQuote tests that the suggested quantity holds when the quote differs from the mark
func TestValidate_SuggestedQuantityAtMovedQuote(t *testing.T) {
	v := newOrderValidator(t)
	req := request(t, types.NewMarketOrder("LKOH", types.OrderActionBuy, 30))
	req.MarketData["LKOH"] = types.MarketData{Symbol: "LKOH", Price: decimal.NewFromInt(6600), Volume: 1000}

	res, err := v.Validate(req)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	require.NotNil(t, res.Adjustments.Quantity)
	// 12 shares at 6,600 are 7.87% of 1,006,000
	assert.Equal(t, int64(2), *res.Adjustments.Quantity)

	req.Order = types.NewMarketOrder("LKOH", types.OrderActionBuy, *res.Adjustments.Quantity)
	res, err = v.Validate(req)
	require.NoError(t, err)
	assert.True(t, res.Valid, "errors: %v", res.Errors)
	assert.Nil(t, res.Adjustments.Quantity)
	for _, w := range res.Warnings {
		assert.NotContains(t, w, "Position LKOH")
	}
}

// TestValidate_InsufficientPosition tests that a SELL larger than the holding is rejected
func TestValidate_InsufficientPosition(t *testing.T) {
	v := newOrderValidator(t)

	res, err := v.Validate(request(t, types.NewMarketOrder("SBER", types.OrderActionSell, 5000)))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, 1.0, res.RiskScore)
	assert.Equal(t, []string{"Insufficient position in SBER: hold 200, selling 5000"}, res.Errors)
	require.NotNil(t, res.Compliance)

	req := request(t, types.NewMarketOrder("SBER", types.OrderActionSell, 10))
	req.Portfolio = portfolio.MustNew(decimal.NewFromInt(1000))
	res, err = v.Validate(req)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"Insufficient position in SBER: hold 0, selling 10"}, res.Errors)

	// selling the whole holding is fine
	res, err = v.Validate(request(t, types.NewMarketOrder("SBER", types.OrderActionSell, 200)))
	require.NoError(t, err)
	assert.Empty(t, res.Errors)
}

// TestValidate_RecommendedQuantity tests the volatility and geopolitics adjusted size of a BUY
func TestValidate_RecommendedQuantity(t *testing.T) {
	v := newOrderValidator(t)

	// 1,000,000 * 10% / (1 + 2 * 0.02) / 6,000
	res, err := v.Validate(request(t, types.NewMarketOrder("LKOH", types.OrderActionBuy, 3)))
	require.NoError(t, err)
	require.NotNil(t, res.RecommendedQuantity)
	assert.Equal(t, int64(16), *res.RecommendedQuantity)

	// HIGH geopolitical risk scales the size by 0.6; SBER rounds down to a lot of 10
	req := request(t, types.NewMarketOrder("SBER", types.OrderActionBuy, 10))
	req.Geopolitical = geopolitical.Neutral(now)
	req.Geopolitical.Level = types.GeoLevelHigh
	res, err = v.Validate(req)
	require.NoError(t, err)
	require.NotNil(t, res.RecommendedQuantity)
	// 1,000,000 * 0.1 / 1.04 * 0.6 / 300 = 192.3
	assert.Equal(t, int64(190), *res.RecommendedQuantity)

	res, err = v.Validate(request(t, types.NewMarketOrder("SBER", types.OrderActionSell, 10)))
	require.NoError(t, err)
	assert.Nil(t, res.RecommendedQuantity)
}

// TestValidate_StopSuppliedNotSuggested tests that an order carrying a stop gets no stop suggestion
func TestValidate_StopSuppliedNotSuggested(t *testing.T) {
	v := newOrderValidator(t)
	order := types.NewMarketOrder("SBER", types.OrderActionBuy, 10)
	order.StopLoss = decimal.NewNullDecimal(decimal.NewFromInt(280))
	res, err := v.Validate(request(t, order))
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.False(t, res.Adjustments.StopLoss.Valid)
}

// TestValidate_MissingMarketData tests the missing quote path
func TestValidate_MissingMarketData(t *testing.T) {
	v := newOrderValidator(t)
	res, err := v.Validate(request(t, types.NewMarketOrder("GAZP", types.OrderActionBuy, 10)))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, 1.0, res.RiskScore)
	assert.Equal(t, []string{"No market data available for GAZP"}, res.Errors)
}

// TestValidate_ComplianceRejection tests that a lot-size breach short-circuits with risk 1
func TestValidate_ComplianceRejection(t *testing.T) {
	v := newOrderValidator(t)
	res, err := v.Validate(request(t, types.NewMarketOrder("SBER", types.OrderActionBuy, 15)))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, 1.0, res.RiskScore)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "lot")
	require.NotNil(t, res.Compliance)
	assert.False(t, res.Compliance.Valid)

	req := request(t, types.NewMarketOrder("SBER", types.OrderActionBuy, 10))
	req.Now = time.Date(2024, 1, 13, 12, 0, 0, 0, time.UTC) // Saturday
	res, err = v.Validate(req)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, 1.0, res.RiskScore)
}

// TestValidate_InsufficientCash tests the cash check on BUY orders
func TestValidate_InsufficientCash(t *testing.T) {
	v := newOrderValidator(t)
	p, err := portfolio.New(decimal.NewFromInt(1000), position("SBER", 100, "300"))
	require.NoError(t, err)
	res, err := v.Validate(Request{
		Order:      types.NewMarketOrder("SBER", types.OrderActionBuy, 10),
		Portfolio:  p,
		MarketData: quotes(),
		Now:        now,
	})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors, "Insufficient cash: order requires 3000.00 RUB, available 1000.00 RUB")
}

// TestValidate_CriticalAssessment tests that a CRITICAL portfolio blocks buys and only warns on sells
func TestValidate_CriticalAssessment(t *testing.T) {
	v := newOrderValidator(t)
	assessment := &risk.Assessment{Level: types.RiskLevelCritical, Score: 0.9}

	req := request(t, types.NewMarketOrder("SBER", types.OrderActionBuy, 10))
	req.Assessment = assessment
	res, err := v.Validate(req)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors, "Portfolio risk level is CRITICAL - new buy orders not recommended")

	req = request(t, types.NewMarketOrder("SBER", types.OrderActionSell, 100))
	req.Assessment = assessment
	res, err = v.Validate(req)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Contains(t, res.Warnings, "Consider reducing positions due to critical risk level")
	assert.False(t, res.Adjustments.StopLoss.Valid)
}

// TestValidate_SellViolationsOnlyWarn tests that a SELL never fails on diversification rules
func TestValidate_SellViolationsOnlyWarn(t *testing.T) {
	v := newOrderValidator(t)
	p, err := portfolio.New(decimal.NewFromInt(10000), position("LKOH", 100, "6000"))
	require.NoError(t, err)
	res, err := v.Validate(Request{
		Order:      types.NewMarketOrder("LKOH", types.OrderActionSell, 10),
		Portfolio:  p,
		MarketData: quotes(),
		Now:        now,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Errors)
	assert.NotEmpty(t, res.Warnings)
	assert.True(t, res.Valid)
}

// TestValidate_RiskThreshold tests that high trade risk rejects an otherwise clean order
func TestValidate_RiskThreshold(t *testing.T) {
	v := newOrderValidator(t)
	req := request(t, types.NewMarketOrder("LKOH", types.OrderActionBuy, 30))
	md := req.MarketData["LKOH"]
	md.ChangePercent = types.Float64(-8)
	req.MarketData["LKOH"] = md
	req.PriceHistories = map[string][]decimal.Decimal{
		"LKOH": {decimal.NewFromInt(6000), decimal.NewFromInt(6600), decimal.NewFromInt(5940), decimal.NewFromInt(6534)},
	}
	res, err := v.Validate(req)
	require.NoError(t, err)
	// overshoot 0.3 + volatility 0.2 + daily move 0.1
	assert.InDelta(t, 0.6, res.RiskScore, 1e-9)
	assert.False(t, res.Valid)
}

// TestValidate_InvalidInput tests the structural error paths
func TestValidate_InvalidInput(t *testing.T) {
	v := newOrderValidator(t)

	_, err := v.Validate(request(t, types.NewMarketOrder("SBER", types.OrderActionBuy, 0)))
	assert.True(t, errors.IsInvalidInput(err))

	_, err = v.Validate(Request{Order: types.NewMarketOrder("SBER", types.OrderActionBuy, 10), MarketData: quotes(), Now: now})
	assert.True(t, errors.IsInvalidInput(err))

	req := request(t, types.NewMarketOrder("SBER", types.OrderActionBuy, 10))
	req.Assessment = &risk.Assessment{Level: types.RiskLevelLow, Score: 2}
	_, err = v.Validate(req)
	assert.True(t, errors.IsInvalidInput(err))

	req = request(t, types.NewMarketOrder("SBER", types.OrderActionBuy, 10))
	req.Geopolitical = geopolitical.Neutral(now)
	req.Geopolitical.Score = 1.5
	_, err = v.Validate(req)
	assert.True(t, errors.IsInvalidInput(err))
}

// TestNewOrderValidator_RequiresComponents tests constructor validation
func TestNewOrderValidator_RequiresComponents(t *testing.T) {
	_, err := NewOrderValidator(nil, nil, nil, nil)
	assert.True(t, errors.IsConfiguration(err))
}
