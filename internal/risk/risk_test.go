package risk

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/moex-risk-engine/internal/config"
	"github.com/ducminhle1904/moex-risk-engine/internal/errors"
	"github.com/ducminhle1904/moex-risk-engine/internal/geopolitical"
	"github.com/ducminhle1904/moex-risk-engine/internal/portfolio"
	"github.com/ducminhle1904/moex-risk-engine/pkg/types"
)

var now = time.Date(2024, 5, 15, 11, 0, 0, 0, time.UTC)

func newScorer(t *testing.T) *Scorer {
	t.Helper()
	s, err := NewScorer(config.DefaultRiskParameters(), config.DefaultRiskWeights(), nil, nil)
	require.NoError(t, err)
	return s
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func position(symbol string, qty int64, price string) portfolio.Position {
	return portfolio.Position{Symbol: symbol, Quantity: qty, EntryPrice: dec(price), CurrentPrice: dec(price), EntryDate: now}
}

// swings builds a history alternating between +amp and -amp daily returns
func swings(start float64, n int, amp float64) []decimal.Decimal {
	out := []decimal.Decimal{decimal.NewFromFloat(start)}
	p := start
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			p *= 1 + amp
		} else {
			p *= 1 - amp
		}
		out = append(out, decimal.NewFromFloat(p))
	}
	return out
}

// TestAssess_ConcentratedCritical tests a 95% single-position portfolio under stress
func TestAssess_ConcentratedCritical(t *testing.T) {
	s := newScorer(t)
	p, err := portfolio.New(dec("5000"), position("LKOH", 19, "5000"))
	require.NoError(t, err)

	a, err := s.Assess(Inputs{
		Portfolio:      p,
		PriceHistories: map[string][]decimal.Decimal{"LKOH": swings(5000, 30, 0.05)},
		CurrencyRisk:   types.Float64(1.0),
		GeoLevel:       types.GeoLevelCritical,
		Now:            now,
	})
	require.NoError(t, err)

	assert.Equal(t, 1.0, a.ConcentrationRisk)
	assert.Equal(t, 1.0, a.VolatilityRisk)
	assert.InDelta(t, 0.95, a.SectorRisk, 1e-12)
	assert.InDelta(t, 0.995, a.Score, 1e-9)
	assert.Equal(t, types.RiskLevelCritical, a.Level)
	assert.Equal(t, []string{RecConcentration, RecVolatility, RecCurrency, RecGeopolitical, RecSector}, a.Recommendations)
	assert.Equal(t, now, a.Timestamp)
	assert.NoError(t, a.Validate())
}

// TestAssess_Diversified tests a balanced portfolio with default inputs
func TestAssess_Diversified(t *testing.T) {
	s := newScorer(t)
	p, err := portfolio.New(decimal.Zero,
		position("SBER", 100, "250"),
		position("LKOH", 5, "5000"),
		position("YNDX", 10, "2500"),
		position("MGNT", 5, "5000"),
	)
	require.NoError(t, err)

	a, err := s.Assess(Inputs{Portfolio: p, Now: now})
	require.NoError(t, err)

	assert.InDelta(t, 0.0, a.ConcentrationRisk, 1e-12)
	assert.InDelta(t, 0.04, a.VolatilityRisk, 1e-12)
	assert.Equal(t, 0.4, a.CurrencyRisk)
	assert.Equal(t, 0.2, a.GeopoliticalRisk)
	assert.Equal(t, types.GeoLevelNormal, a.GeopoliticalLevel)
	assert.InDelta(t, 0.25, a.SectorRisk, 1e-12)
	assert.InDelta(t, 0.155, a.Score, 1e-9)
	assert.Equal(t, types.RiskLevelLow, a.Level)
	assert.Empty(t, a.Recommendations)
}

// TestAssess_EmptyPortfolio tests the zero-value guards
func TestAssess_EmptyPortfolio(t *testing.T) {
	s := newScorer(t)
	p, err := portfolio.New(dec("100000"))
	require.NoError(t, err)

	a, err := s.Assess(Inputs{Portfolio: p, Now: now})
	require.NoError(t, err)
	assert.Equal(t, 0.0, a.ConcentrationRisk)
	assert.Equal(t, 0.0, a.VolatilityRisk)
	assert.Equal(t, 0.0, a.SectorRisk)
	assert.InDelta(t, 0.12, a.Score, 1e-12)
}

// TestAssess_ChangePercentProxy tests volatility from the daily move when no history exists
func TestAssess_ChangePercentProxy(t *testing.T) {
	s := newScorer(t)
	p, err := portfolio.New(decimal.Zero, position("GAZP", 100, "150"), position("SBER", 60, "250"))
	require.NoError(t, err)

	a, err := s.Assess(Inputs{
		Portfolio: p,
		MarketData: map[string]types.MarketData{
			"GAZP": {Symbol: "GAZP", Price: dec("150"), ChangePercent: types.Float64(-10)},
			"SBER": {Symbol: "SBER", Price: dec("250"), ChangePercent: types.Float64(5)},
		},
		Now: now,
	})
	require.NoError(t, err)
	// equal weights: (0.1/0.5 + 0.05/0.5) / 2
	assert.InDelta(t, 0.15, a.VolatilityRisk, 1e-12)
}

// TestAssess_InvalidInput tests fail-fast validation
func TestAssess_InvalidInput(t *testing.T) {
	s := newScorer(t)
	p, err := portfolio.New(dec("1000"), position("SBER", 10, "250"))
	require.NoError(t, err)

	_, err = s.Assess(Inputs{Now: now})
	assert.True(t, errors.IsInvalidInput(err))

	_, err = s.Assess(Inputs{Portfolio: p, CurrencyRisk: types.Float64(1.5)})
	assert.True(t, errors.IsInvalidInput(err))

	_, err = s.Assess(Inputs{Portfolio: p, GeoLevel: "SEVERE"})
	assert.True(t, errors.IsInvalidInput(err))

	_, err = s.Assess(Inputs{Portfolio: p, PriceHistories: map[string][]decimal.Decimal{"SBER": {dec("250"), decimal.Zero}}})
	assert.True(t, errors.IsInvalidInput(err))
}

// TestAssess_Idempotent tests bit-identical repeated output
func TestAssess_Idempotent(t *testing.T) {
	s := newScorer(t)
	p, err := portfolio.New(dec("20000"), position("SBER", 100, "250"), position("GAZP", 200, "150"), position("LKOH", 3, "5000"))
	require.NoError(t, err)
	in := Inputs{
		Portfolio: p,
		PriceHistories: map[string][]decimal.Decimal{
			"SBER": swings(250, 25, 0.013),
			"GAZP": swings(150, 25, 0.021),
		},
		GeoLevel: types.GeoLevelElevated,
		Now:      now,
	}
	first, err := s.Assess(in)
	require.NoError(t, err)
	second, err := s.Assess(in)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// TestLevelForScore tests the composite level thresholds
func TestLevelForScore(t *testing.T) {
	s := newScorer(t)
	assert.Equal(t, types.RiskLevelLow, s.LevelForScore(0.29))
	assert.Equal(t, types.RiskLevelMedium, s.LevelForScore(0.3))
	assert.Equal(t, types.RiskLevelHigh, s.LevelForScore(0.6))
	assert.Equal(t, types.RiskLevelCritical, s.LevelForScore(0.8))
}

// TestNewScorer_InvalidConfig tests construction-time validation
func TestNewScorer_InvalidConfig(t *testing.T) {
	params := config.DefaultRiskParameters()
	params.MaxPositionPercent = 150
	_, err := NewScorer(params, config.DefaultRiskWeights(), nil, nil)
	assert.True(t, errors.IsConfiguration(err))
}

// TestAdjustParameters tests geopolitical tightening of limits
func TestAdjustParameters(t *testing.T) {
	s := newScorer(t)

	normal := s.AdjustParameters(geopolitical.Neutral(now))
	assert.Equal(t, s.Parameters(), normal)

	critical := s.AdjustParameters(&geopolitical.RiskScore{Level: types.GeoLevelCritical})
	assert.InDelta(t, 5.0, critical.MaxPositionPercent, 1e-12)
	assert.InDelta(t, 15.0, critical.MaxSectorPercent, 1e-12)
	assert.InDelta(t, 10.0, critical.StopLossPercent, 1e-12)
	assert.InDelta(t, 20.0, critical.MinCashReservePercent, 1e-12)

	sanctioned := s.AdjustParameters(&geopolitical.RiskScore{Level: types.GeoLevelHigh, SanctionsRisk: 0.8})
	assert.InDelta(t, 10.0/1.5*0.5, sanctioned.MaxPositionPercent, 1e-12)
	assert.InDelta(t, 30.0, sanctioned.MinCashReservePercent, 1e-12)

	assert.Equal(t, 10.0, s.Parameters().MaxPositionPercent, "original parameters must not change")
}

// TestCurrencyRiskFromVolatility tests saturation at the ruble threshold
func TestCurrencyRiskFromVolatility(t *testing.T) {
	s := newScorer(t)
	v, err := s.CurrencyRiskFromVolatility(2.5)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, v, 1e-12)

	v, err = s.CurrencyRiskFromVolatility(12)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	_, err = s.CurrencyRiskFromVolatility(-1)
	assert.True(t, errors.IsInvalidInput(err))
}

// TestWithParameters tests swapping parameters without touching the original scorer
func TestWithParameters(t *testing.T) {
	s := newScorer(t)
	params := s.Parameters()
	params.MaxPositionPercent = 5
	adjusted, err := s.WithParameters(params)
	require.NoError(t, err)
	assert.Equal(t, 5.0, adjusted.Parameters().MaxPositionPercent)
	assert.Equal(t, 10.0, s.Parameters().MaxPositionPercent)

	params.StopLossLookback = 0
	_, err = s.WithParameters(params)
	assert.True(t, errors.IsConfiguration(err))
}
