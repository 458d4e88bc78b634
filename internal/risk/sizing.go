package risk

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/ducminhle1904/moex-risk-engine/internal/errors"
	"github.com/ducminhle1904/moex-risk-engine/internal/portfolio"
	"github.com/ducminhle1904/moex-risk-engine/internal/stats"
	"github.com/ducminhle1904/moex-risk-engine/pkg/types"
)

// StopLoss computes a volatility-adjusted stop below entry.
// The stop percent is base + stdev(last lookback returns) × factor, clamped to the configured bounds.
func (s *Scorer) StopLoss(symbol string, entry decimal.Decimal, history []decimal.Decimal) (StopLoss, error) {
	if !entry.IsPositive() {
		return StopLoss{}, errors.NewInvalidInput("risk", "stop_loss", "entry price must be positive, got %s", entry).
			WithContext("symbol", symbol)
	}
	if err := stats.ValidateHistory(symbol, history); err != nil {
		return StopLoss{}, err
	}

	p := s.params
	base := p.StopLossPercent / 100
	if len(history) < 2 {
		s.logger.LogWarning("stop_loss", "%s: %d price points, using base stop %.2f%%", symbol, len(history), p.StopLossPercent)
		return StopLoss{Price: stopPrice(entry, base), Percent: base, Fallback: true}, nil
	}

	returns := stats.Tail(stats.Returns(stats.Floats(history)), p.StopLossLookback)
	vol := s.weights.SingleReturnVolatility
	if len(returns) > 1 {
		vol = stats.StdDev(returns)
	}
	pct := base + vol*p.VolatilityAdjustmentFactor
	pct = math.Max(p.MinStopLossPercent/100, math.Min(p.MaxStopLossPercent/100, pct))
	return StopLoss{Price: stopPrice(entry, pct), Percent: pct}, nil
}

func stopPrice(entry decimal.Decimal, pct float64) decimal.Decimal {
	return entry.Mul(decimal.NewFromFloat(1 - pct))
}

// PositionSize returns the share count for a new position: max position % dampened by
// volatility and scaled by the geopolitical multiplier. Never negative.
func (s *Scorer) PositionSize(total, price decimal.Decimal, volatility *float64, geo types.GeoLevel) (int64, error) {
	if !price.IsPositive() {
		return 0, errors.NewInvalidInput("risk", "position_size", "entry price must be positive, got %s", price)
	}
	if geo == "" {
		geo = types.GeoLevelNormal
	}
	if !geo.Valid() {
		return 0, errors.NewInvalidInput("risk", "position_size", "unknown geopolitical level %q", geo)
	}
	if !total.IsPositive() {
		return 0, nil
	}

	pct := s.params.MaxPositionPercent / 100
	if volatility != nil {
		if *volatility < 0 {
			return 0, errors.NewInvalidInput("risk", "position_size", "volatility cannot be negative, got %g", *volatility)
		}
		pct /= 1 + 2*(*volatility)
	}
	pct *= s.weights.PositionSizeMultipliers.For(geo)

	shares := total.Mul(decimal.NewFromFloat(pct)).Div(price).Floor().IntPart()
	if shares < 0 {
		return 0, nil
	}
	return shares, nil
}

// TradeRisk scores a single order from 0 to 1. after is the portfolio once the order fills.
func (s *Scorer) TradeRisk(order types.TradeOrder, after *portfolio.Portfolio, md types.MarketData, history []decimal.Decimal) float64 {
	w := s.weights
	score := 0.0
	if order.Action == types.OrderActionBuy && after != nil && after.Weight(order.Symbol) > s.params.MaxPositionPercent/100 {
		score += w.PositionOvershootPenalty
	}
	if s.VolatilityProxy(&md, history) > w.HighVolatilityLevel {
		score += w.HighVolatilityPenalty
	}
	if c, ok := md.AbsChangePercent(); ok && c > w.LargeMovePercent {
		score += w.LargeMovePenalty
	}
	return math.Min(score, 1)
}
