package config

// RiskParameters are the portfolio-level risk limits. Values are copied, never mutated in place.
type RiskParameters struct {
	MaxPositionPercent         float64 `yaml:"max_position_percent" json:"max_position_percent"`                 // 10%
	MaxSectorPercent           float64 `yaml:"max_sector_percent" json:"max_sector_percent"`                     // 30%
	StopLossPercent            float64 `yaml:"stop_loss_percent" json:"stop_loss_percent"`                       // 5%
	MaxDrawdownPercent         float64 `yaml:"max_drawdown_percent" json:"max_drawdown_percent"`                 // 15%
	VolatilityAdjustmentFactor float64 `yaml:"volatility_adjustment_factor" json:"volatility_adjustment_factor"` // 1.5
	GeopoliticalMultiplier     float64 `yaml:"geopolitical_multiplier" json:"geopolitical_multiplier"`           // 2.0
	CorrelationThreshold       float64 `yaml:"correlation_threshold" json:"correlation_threshold"`               // 0.7
	MinCashReservePercent      float64 `yaml:"min_cash_reserve_percent" json:"min_cash_reserve_percent"`         // 10%
	RubleVolatilityThreshold   float64 `yaml:"ruble_volatility_threshold" json:"ruble_volatility_threshold"`     // 5% daily
	SanctionsMultiplier        float64 `yaml:"sanctions_multiplier" json:"sanctions_multiplier"`                 // 3.0

	MinStopLossPercent float64 `yaml:"min_stop_loss_percent" json:"min_stop_loss_percent"` // 2%
	MaxStopLossPercent float64 `yaml:"max_stop_loss_percent" json:"max_stop_loss_percent"` // 25%
	StopLossLookback   int     `yaml:"stop_loss_lookback" json:"stop_loss_lookback"`       // 20 returns
}

// DefaultRiskParameters returns the standard limits for Russian equities
func DefaultRiskParameters() RiskParameters {
	return RiskParameters{
		MaxPositionPercent:         10.0,
		MaxSectorPercent:           30.0,
		StopLossPercent:            5.0,
		MaxDrawdownPercent:         15.0,
		VolatilityAdjustmentFactor: 1.5,
		GeopoliticalMultiplier:     2.0,
		CorrelationThreshold:       0.7,
		MinCashReservePercent:      10.0,
		RubleVolatilityThreshold:   5.0,
		SanctionsMultiplier:        3.0,
		MinStopLossPercent:         2.0,
		MaxStopLossPercent:         25.0,
		StopLossLookback:           20,
	}
}

// RiskWeights tunes the composite risk score and trade risk penalties
type RiskWeights struct {
	Concentration float64 `yaml:"concentration" json:"concentration"` // 0.25
	Volatility    float64 `yaml:"volatility" json:"volatility"`       // 0.25
	Currency      float64 `yaml:"currency" json:"currency"`           // 0.2
	Geopolitical  float64 `yaml:"geopolitical" json:"geopolitical"`   // 0.2
	Sector        float64 `yaml:"sector" json:"sector"`               // 0.1

	// Overall level cutoffs: below Medium is LOW, below High is MEDIUM, below Critical is HIGH
	MediumThreshold   float64 `yaml:"medium_threshold" json:"medium_threshold"`     // 0.3
	HighThreshold     float64 `yaml:"high_threshold" json:"high_threshold"`         // 0.6
	CriticalThreshold float64 `yaml:"critical_threshold" json:"critical_threshold"` // 0.8

	// Sub-score levels above which a recommendation is emitted
	ConcentrationAlert float64 `yaml:"concentration_alert" json:"concentration_alert"` // 0.7
	VolatilityAlert    float64 `yaml:"volatility_alert" json:"volatility_alert"`       // 0.8
	CurrencyAlert      float64 `yaml:"currency_alert" json:"currency_alert"`           // 0.6
	SectorAlert        float64 `yaml:"sector_alert" json:"sector_alert"`               // 0.7

	DefaultCurrencyRisk    float64 `yaml:"default_currency_risk" json:"default_currency_risk"`       // 0.4
	DefaultVolatility      float64 `yaml:"default_volatility" json:"default_volatility"`             // 0.02
	VolatilityCeiling      float64 `yaml:"volatility_ceiling" json:"volatility_ceiling"`             // 0.5 annualized
	TradingDaysPerYear     float64 `yaml:"trading_days_per_year" json:"trading_days_per_year"`       // 252
	SingleReturnVolatility float64 `yaml:"single_return_volatility" json:"single_return_volatility"` // 0.02

	GeopoliticalLevelScores LevelValues `yaml:"geopolitical_level_scores" json:"geopolitical_level_scores"`
	PositionSizeMultipliers LevelValues `yaml:"position_size_multipliers" json:"position_size_multipliers"`
	ParameterMultipliers    LevelValues `yaml:"parameter_multipliers" json:"parameter_multipliers"`

	SanctionsAdjustThreshold float64 `yaml:"sanctions_adjust_threshold" json:"sanctions_adjust_threshold"` // 0.7
	SanctionsMinCashPercent  float64 `yaml:"sanctions_min_cash_percent" json:"sanctions_min_cash_percent"` // 30%

	PositionOvershootPenalty float64 `yaml:"position_overshoot_penalty" json:"position_overshoot_penalty"` // 0.3
	HighVolatilityPenalty    float64 `yaml:"high_volatility_penalty" json:"high_volatility_penalty"`       // 0.2
	HighVolatilityLevel      float64 `yaml:"high_volatility_level" json:"high_volatility_level"`           // 0.05
	LargeMovePenalty         float64 `yaml:"large_move_penalty" json:"large_move_penalty"`                 // 0.1
	LargeMovePercent         float64 `yaml:"large_move_percent" json:"large_move_percent"`                 // 5%
	RejectRiskScore          float64 `yaml:"reject_risk_score" json:"reject_risk_score"`                   // 0.8
}

// DefaultRiskWeights returns the empirically tuned scoring constants
func DefaultRiskWeights() RiskWeights {
	return RiskWeights{
		Concentration:          0.25,
		Volatility:             0.25,
		Currency:               0.2,
		Geopolitical:           0.2,
		Sector:                 0.1,
		MediumThreshold:        0.3,
		HighThreshold:          0.6,
		CriticalThreshold:      0.8,
		ConcentrationAlert:     0.7,
		VolatilityAlert:        0.8,
		CurrencyAlert:          0.6,
		SectorAlert:            0.7,
		DefaultCurrencyRisk:    0.4,
		DefaultVolatility:      0.02,
		VolatilityCeiling:      0.5,
		TradingDaysPerYear:     252,
		SingleReturnVolatility: 0.02,
		GeopoliticalLevelScores: LevelValues{
			Normal: 0.2, Elevated: 0.4, High: 0.7, Critical: 1.0,
		},
		PositionSizeMultipliers: LevelValues{
			Normal: 1.0, Elevated: 0.8, High: 0.6, Critical: 0.3,
		},
		ParameterMultipliers: LevelValues{
			Normal: 1.0, Elevated: 1.2, High: 1.5, Critical: 2.0,
		},
		SanctionsAdjustThreshold: 0.7,
		SanctionsMinCashPercent:  30.0,
		PositionOvershootPenalty: 0.3,
		HighVolatilityPenalty:    0.2,
		HighVolatilityLevel:      0.05,
		LargeMovePenalty:         0.1,
		LargeMovePercent:         5.0,
		RejectRiskScore:          0.8,
	}
}

// GeopoliticalWeights tunes the geopolitical assessor
type GeopoliticalWeights struct {
	Sentiment float64 `yaml:"sentiment" json:"sentiment"` // 0.3
	Sanctions float64 `yaml:"sanctions" json:"sanctions"` // 0.35
	Policy    float64 `yaml:"policy" json:"policy"`       // 0.2
	Stress    float64 `yaml:"stress" json:"stress"`       // 0.15

	NewsSanctionsFactor float64 `yaml:"news_sanctions_factor" json:"news_sanctions_factor"` // 0.7
	NewsPolicyFactor    float64 `yaml:"news_policy_factor" json:"news_policy_factor"`       // 0.6
	NewsSectorFactor    float64 `yaml:"news_sector_factor" json:"news_sector_factor"`       // 0.6

	MinKeywordMatches int     `yaml:"min_keyword_matches" json:"min_keyword_matches"` // 2
	KeywordSaturation float64 `yaml:"keyword_saturation" json:"keyword_saturation"`   // 5

	SanctionsSeverity SeverityValues `yaml:"sanctions_severity" json:"sanctions_severity"`
	PolicySeverity    SeverityValues `yaml:"policy_severity" json:"policy_severity"`
	SectorSeverity    SeverityValues `yaml:"sector_severity" json:"sector_severity"`

	ElevatedThreshold float64 `yaml:"elevated_threshold" json:"elevated_threshold"` // 0.25
	HighThreshold     float64 `yaml:"high_threshold" json:"high_threshold"`         // 0.5
	CriticalThreshold float64 `yaml:"critical_threshold" json:"critical_threshold"` // 0.75

	SanctionsAlert float64 `yaml:"sanctions_alert" json:"sanctions_alert"` // 0.7
	PolicyAlert    float64 `yaml:"policy_alert" json:"policy_alert"`       // 0.6
	SectorAlert    float64 `yaml:"sector_alert" json:"sector_alert"`       // 0.7

	// Average plain sentiment below these marks maps to ELEVATED, HIGH, CRITICAL
	SentimentElevated float64 `yaml:"sentiment_elevated" json:"sentiment_elevated"` // -0.2
	SentimentHigh     float64 `yaml:"sentiment_high" json:"sentiment_high"`         // -0.4
	SentimentCritical float64 `yaml:"sentiment_critical" json:"sentiment_critical"` // -0.7
}

// DefaultGeopoliticalWeights returns the empirically tuned geopolitical constants
func DefaultGeopoliticalWeights() GeopoliticalWeights {
	return GeopoliticalWeights{
		Sentiment:           0.3,
		Sanctions:           0.35,
		Policy:              0.2,
		Stress:              0.15,
		NewsSanctionsFactor: 0.7,
		NewsPolicyFactor:    0.6,
		NewsSectorFactor:    0.6,
		MinKeywordMatches:   2,
		KeywordSaturation:   5,
		SanctionsSeverity:   SeverityValues{Low: 0.2, Medium: 0.5, High: 0.8, Critical: 1.0},
		PolicySeverity:      SeverityValues{Low: 0.15, Medium: 0.4, High: 0.7, Critical: 1.0},
		SectorSeverity:      SeverityValues{Low: 0.2, Medium: 0.5, High: 0.8, Critical: 1.0},
		ElevatedThreshold:   0.25,
		HighThreshold:       0.5,
		CriticalThreshold:   0.75,
		SanctionsAlert:      0.7,
		PolicyAlert:         0.6,
		SectorAlert:         0.7,
		SentimentElevated:   -0.2,
		SentimentHigh:       -0.4,
		SentimentCritical:   -0.7,
	}
}

// ScoringPenalties tunes the diversification score
type ScoringPenalties struct {
	Severity SeverityValues `yaml:"severity" json:"severity"`

	ManyPositions      int     `yaml:"many_positions" json:"many_positions"`             // 10
	ManyPositionsBonus float64 `yaml:"many_positions_bonus" json:"many_positions_bonus"` // 0.1
	SomePositions      int     `yaml:"some_positions" json:"some_positions"`             // 7
	SomePositionsBonus float64 `yaml:"some_positions_bonus" json:"some_positions_bonus"` // 0.05

	ManySectors      int     `yaml:"many_sectors" json:"many_sectors"`             // 5
	ManySectorsBonus float64 `yaml:"many_sectors_bonus" json:"many_sectors_bonus"` // 0.1
	SomeSectors      int     `yaml:"some_sectors" json:"some_sectors"`             // 4
	SomeSectorsBonus float64 `yaml:"some_sectors_bonus" json:"some_sectors_bonus"` // 0.05

	SmallMaxPositionPercent    float64 `yaml:"small_max_position_percent" json:"small_max_position_percent"`       // 5%
	SmallMaxPositionBonus      float64 `yaml:"small_max_position_bonus" json:"small_max_position_bonus"`           // 0.1
	ModerateMaxPositionPercent float64 `yaml:"moderate_max_position_percent" json:"moderate_max_position_percent"` // 8%
	ModerateMaxPositionBonus   float64 `yaml:"moderate_max_position_bonus" json:"moderate_max_position_bonus"`     // 0.05

	OverweightSectorPercent float64 `yaml:"overweight_sector_percent" json:"overweight_sector_percent"` // 20%
}

// DefaultScoringPenalties returns the standard penalty and bonus schedule
func DefaultScoringPenalties() ScoringPenalties {
	return ScoringPenalties{
		Severity:                   SeverityValues{Low: 0.05, Medium: 0.1, High: 0.2, Critical: 0.3},
		ManyPositions:              10,
		ManyPositionsBonus:         0.1,
		SomePositions:              7,
		SomePositionsBonus:         0.05,
		ManySectors:                5,
		ManySectorsBonus:           0.1,
		SomeSectors:                4,
		SomeSectorsBonus:           0.05,
		SmallMaxPositionPercent:    5.0,
		SmallMaxPositionBonus:      0.1,
		ModerateMaxPositionPercent: 8.0,
		ModerateMaxPositionBonus:   0.05,
		OverweightSectorPercent:    20.0,
	}
}
