package risk

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ducminhle1904/moex-risk-engine/internal/config"
	"github.com/ducminhle1904/moex-risk-engine/internal/errors"
	"github.com/ducminhle1904/moex-risk-engine/internal/geopolitical"
	"github.com/ducminhle1904/moex-risk-engine/internal/logger"
	"github.com/ducminhle1904/moex-risk-engine/internal/portfolio"
	"github.com/ducminhle1904/moex-risk-engine/internal/stats"
	"github.com/ducminhle1904/moex-risk-engine/pkg/types"
)

// Scorer computes portfolio risk, stops and position sizes
type Scorer struct {
	params  config.RiskParameters
	weights config.RiskWeights
	ref     *config.ReferenceData
	logger  *logger.Logger
}

// NewScorer creates a risk scorer; parameters and weights are validated up front
func NewScorer(params config.RiskParameters, weights config.RiskWeights, ref *config.ReferenceData, log *logger.Logger) (*Scorer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if ref == nil {
		ref = config.DefaultReferenceData()
	}
	return &Scorer{
		params:  params,
		weights: weights,
		ref:     ref,
		logger:  logger.OrNop(log).With("risk"),
	}, nil
}

// Parameters returns the configured risk parameters
func (s *Scorer) Parameters() config.RiskParameters { return s.params }

// Weights returns the configured scoring weights
func (s *Scorer) Weights() config.RiskWeights { return s.weights }

// Assess scores a portfolio across concentration, volatility, currency, geopolitical and sector risk
func (s *Scorer) Assess(in Inputs) (*Assessment, error) {
	if in.Portfolio == nil {
		return nil, errors.NewInvalidInput("risk", "assess", "portfolio is required")
	}
	geoLevel := in.GeoLevel
	if geoLevel == "" {
		geoLevel = types.GeoLevelNormal
	}
	if !geoLevel.Valid() {
		return nil, errors.NewInvalidInput("risk", "assess", "unknown geopolitical level %q", geoLevel)
	}
	currency := s.weights.DefaultCurrencyRisk
	if in.CurrencyRisk != nil {
		currency = *in.CurrencyRisk
		if err := errors.RangeCheck("risk", "currency_risk", currency, 0, 1); err != nil {
			return nil, err
		}
	}
	if err := validateInputs(in); err != nil {
		return nil, err
	}

	w := s.weights
	a := &Assessment{
		ConcentrationRisk: ConcentrationRisk(in.Portfolio),
		VolatilityRisk:    s.VolatilityRisk(in.Portfolio, in.MarketData, in.PriceHistories),
		CurrencyRisk:      currency,
		GeopoliticalRisk:  w.GeopoliticalLevelScores.For(geoLevel),
		SectorRisk:        s.SectorRisk(in.Portfolio),
		GeopoliticalLevel: geoLevel,
		Timestamp:         in.Now,
	}
	a.Score = stats.Clamp01(a.ConcentrationRisk*w.Concentration +
		a.VolatilityRisk*w.Volatility +
		a.CurrencyRisk*w.Currency +
		a.GeopoliticalRisk*w.Geopolitical +
		a.SectorRisk*w.Sector)
	a.Level = s.LevelForScore(a.Score)
	a.Recommendations = s.recommendations(a)

	s.logger.Debug("portfolio risk %s (%.3f): concentration=%.3f volatility=%.3f currency=%.3f geo=%.3f sector=%.3f",
		a.Level, a.Score, a.ConcentrationRisk, a.VolatilityRisk, a.CurrencyRisk, a.GeopoliticalRisk, a.SectorRisk)
	return a, nil
}

func validateInputs(in Inputs) error {
	for _, symbol := range sortedKeys(in.MarketData) {
		if err := in.MarketData[symbol].Validate(); err != nil {
			return err
		}
	}
	for _, symbol := range sortedKeys(in.PriceHistories) {
		if err := stats.ValidateHistory(symbol, in.PriceHistories[symbol]); err != nil {
			return err
		}
	}
	return nil
}

// LevelForScore maps a composite score onto a risk level
func (s *Scorer) LevelForScore(score float64) types.RiskLevel {
	switch {
	case score < s.weights.MediumThreshold:
		return types.RiskLevelLow
	case score < s.weights.HighThreshold:
		return types.RiskLevelMedium
	case score < s.weights.CriticalThreshold:
		return types.RiskLevelHigh
	default:
		return types.RiskLevelCritical
	}
}

func (s *Scorer) recommendations(a *Assessment) []string {
	w := s.weights
	var recs []string
	if a.ConcentrationRisk > w.ConcentrationAlert {
		recs = append(recs, RecConcentration)
	}
	if a.VolatilityRisk > w.VolatilityAlert {
		recs = append(recs, RecVolatility)
	}
	if a.CurrencyRisk > w.CurrencyAlert {
		recs = append(recs, RecCurrency)
	}
	if a.GeopoliticalLevel.Rank() >= types.GeoLevelHigh.Rank() {
		recs = append(recs, RecGeopolitical)
	}
	if a.SectorRisk > w.SectorAlert {
		recs = append(recs, RecSector)
	}
	return recs
}

// ConcentrationRisk is the normalized Herfindahl index of invested weights.
// An empty portfolio scores 0 and a single position scores 1.
func ConcentrationRisk(p *portfolio.Portfolio) float64 {
	n := p.Len()
	switch n {
	case 0:
		return 0
	case 1:
		return 1
	}
	invested := p.PositionsValue()
	if !invested.IsPositive() {
		return 0
	}
	hhi := 0.0
	for _, pos := range p.Positions() {
		w := pos.MarketValue().Div(invested).InexactFloat64()
		hhi += w * w
	}
	floor := 1 / float64(n)
	return stats.Clamp01((hhi - floor) / (1 - floor))
}

// VolatilityRisk is the invested-weight average of per-symbol volatility risk
func (s *Scorer) VolatilityRisk(p *portfolio.Portfolio, marketData map[string]types.MarketData, histories map[string][]decimal.Decimal) float64 {
	invested := p.PositionsValue()
	if !invested.IsPositive() {
		return 0
	}
	total := 0.0
	for _, pos := range p.Positions() {
		w := pos.MarketValue().Div(invested).InexactFloat64()
		var md *types.MarketData
		if m, ok := marketData[pos.Symbol]; ok {
			md = &m
		}
		total += w * s.SymbolVolatilityRisk(md, histories[pos.Symbol])
	}
	return stats.Clamp01(total)
}

// SymbolVolatilityRisk normalizes one symbol's volatility against the annual ceiling.
// History gives annualized stdev of returns; otherwise |change%| and then the default stand in.
func (s *Scorer) SymbolVolatilityRisk(md *types.MarketData, history []decimal.Decimal) float64 {
	w := s.weights
	var vol float64
	if returns := stats.Returns(stats.Floats(history)); len(returns) > 0 {
		daily := w.SingleReturnVolatility
		if len(returns) > 1 {
			daily = stats.StdDev(returns)
		}
		vol = daily * math.Sqrt(w.TradingDaysPerYear)
	} else if md != nil {
		if c, ok := md.AbsChangePercent(); ok {
			vol = c / 100
		} else {
			vol = w.DefaultVolatility
		}
	} else {
		vol = w.DefaultVolatility
	}
	return math.Min(vol/w.VolatilityCeiling, 1)
}

// VolatilityProxy estimates daily volatility for trade checks and sizing:
// stdev of recent returns, else |change%|, else the default.
func (s *Scorer) VolatilityProxy(md *types.MarketData, history []decimal.Decimal) float64 {
	returns := stats.Tail(stats.Returns(stats.Floats(history)), s.params.StopLossLookback)
	switch {
	case len(returns) > 1:
		return stats.StdDev(returns)
	case len(returns) == 1:
		return s.weights.SingleReturnVolatility
	}
	if md != nil {
		if c, ok := md.AbsChangePercent(); ok {
			return c / 100
		}
	}
	return s.weights.DefaultVolatility
}

// SectorRisk is the largest sector allocation as a fraction, capped at 1
func (s *Scorer) SectorRisk(p *portfolio.Portfolio) float64 {
	maxAlloc := 0.0
	for _, v := range p.SectorAllocation(s.sectorOf) {
		maxAlloc = math.Max(maxAlloc, v)
	}
	return math.Min(maxAlloc/100, 1)
}

func (s *Scorer) sectorOf(pos portfolio.Position) string {
	return s.ref.SectorFor(pos.Symbol, pos.Sector)
}

// CurrencyRiskFromVolatility converts RUB daily volatility in percent into a currency risk score,
// saturating at the configured ruble volatility threshold
func (s *Scorer) CurrencyRiskFromVolatility(dailyVolPercent float64) (float64, error) {
	if dailyVolPercent < 0 || math.IsNaN(dailyVolPercent) {
		return 0, errors.NewInvalidInput("risk", "currency_risk", "ruble volatility cannot be negative, got %g", dailyVolPercent)
	}
	return math.Min(dailyVolPercent/s.params.RubleVolatilityThreshold, 1), nil
}

// AdjustParameters tightens risk limits for the geopolitical situation and returns the adjusted copy
func (s *Scorer) AdjustParameters(geo *geopolitical.RiskScore) config.RiskParameters {
	adjusted := s.params
	if geo == nil {
		return adjusted
	}
	m := s.weights.ParameterMultipliers.For(geo.Level)
	adjusted.MaxPositionPercent /= m
	adjusted.MaxSectorPercent /= m
	adjusted.StopLossPercent *= m
	adjusted.MinCashReservePercent = math.Min(adjusted.MinCashReservePercent*m, 100)

	if geo.SanctionsRisk > s.weights.SanctionsAdjustThreshold {
		adjusted.MaxPositionPercent *= 0.5
		adjusted.MinCashReservePercent = math.Max(adjusted.MinCashReservePercent, s.weights.SanctionsMinCashPercent)
	}
	if geo.Level != types.GeoLevelNormal {
		s.logger.Info("risk parameters adjusted for %s geopolitical risk: max position %.2f%%, stop-loss %.2f%%, min cash %.2f%%",
			geo.Level, adjusted.MaxPositionPercent, adjusted.StopLossPercent, adjusted.MinCashReservePercent)
	}
	return adjusted
}

// WithParameters returns a scorer sharing weights and reference data but using params
func (s *Scorer) WithParameters(params config.RiskParameters) (*Scorer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	clone := *s
	clone.params = params
	return &clone, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
