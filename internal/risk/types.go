package risk

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ducminhle1904/moex-risk-engine/internal/errors"
	"github.com/ducminhle1904/moex-risk-engine/internal/portfolio"
	"github.com/ducminhle1904/moex-risk-engine/pkg/types"
)

// Risk recommendation texts
const (
	RecConcentration = "Reduce position concentration - consider diversifying"
	RecVolatility    = "High volatility detected - consider reducing position sizes"
	RecCurrency      = "High ruble volatility - consider hedging currency exposure"
	RecGeopolitical  = "High geopolitical risk - consider defensive positioning"
	RecSector        = "High sector concentration - diversify across sectors"
)

// Assessment is the composite portfolio risk verdict
type Assessment struct {
	Level             types.RiskLevel `json:"overall_risk_level"`
	Score             float64         `json:"risk_score"`
	ConcentrationRisk float64         `json:"concentration_risk"`
	VolatilityRisk    float64         `json:"volatility_risk"`
	CurrencyRisk      float64         `json:"currency_risk"`
	GeopoliticalRisk  float64         `json:"geopolitical_risk"`
	SectorRisk        float64         `json:"sector_concentration_risk"`
	GeopoliticalLevel types.GeoLevel  `json:"geopolitical_level"`
	Recommendations   []string        `json:"recommendations"`
	Timestamp         time.Time       `json:"timestamp"`
}

// Validate range-checks an assessment supplied by a caller
func (a *Assessment) Validate() error {
	if !a.Level.Valid() {
		return errors.NewInvalidInput("risk", "validate_assessment", "unknown risk level %q", a.Level)
	}
	scores := []struct {
		field string
		v     float64
	}{
		{"risk_score", a.Score},
		{"concentration_risk", a.ConcentrationRisk},
		{"volatility_risk", a.VolatilityRisk},
		{"currency_risk", a.CurrencyRisk},
		{"geopolitical_risk", a.GeopoliticalRisk},
		{"sector_concentration_risk", a.SectorRisk},
	}
	for _, s := range scores {
		if err := errors.RangeCheck("risk", s.field, s.v, 0, 1); err != nil {
			return err
		}
	}
	return nil
}

// Inputs bundles everything one portfolio assessment reads
type Inputs struct {
	Portfolio      *portfolio.Portfolio
	MarketData     map[string]types.MarketData
	PriceHistories map[string][]decimal.Decimal
	// CurrencyRisk is the RUB volatility proxy in [0, 1]; nil uses the configured default
	CurrencyRisk *float64
	// GeoLevel defaults to NORMAL when empty
	GeoLevel types.GeoLevel
	Now      time.Time
}

// StopLoss is a volatility-adjusted protective stop
type StopLoss struct {
	Price   decimal.Decimal `json:"price"`
	Percent float64         `json:"percent"` // fraction below entry, e.g. 0.05
	// Fallback is set when history was too short and the base stop was used
	Fallback bool `json:"fallback"`
}
