package config

import "sort"

// Sector names used by the reference tables
const (
	SectorEnergy      = "ENERGY"
	SectorFinancial   = "FINANCIAL"
	SectorMaterials   = "MATERIALS"
	SectorTechnology  = "TECHNOLOGY"
	SectorConsumer    = "CONSUMER"
	SectorUtilities   = "UTILITIES"
	SectorTelecom     = "TELECOM"
	SectorHealthcare  = "HEALTHCARE"
	SectorIndustrials = "INDUSTRIALS"
	SectorRealEstate  = "REAL_ESTATE"
	SectorOther       = "OTHER"
)

// DiversificationRules are the static allocation limits, all in percent of portfolio value
type DiversificationRules struct {
	SectorLimits       map[string]float64 `yaml:"sector_limits" json:"sector_limits"`
	OtherSectorLimit   float64            `yaml:"other_sector_limit" json:"other_sector_limit"`     // 10% for unmapped symbols
	DefaultSectorLimit float64            `yaml:"default_sector_limit" json:"default_sector_limit"` // 15% for sectors without an entry

	LargeCapPositionPercent float64 `yaml:"large_cap_position_percent" json:"large_cap_position_percent"` // 8%
	MidCapPositionPercent   float64 `yaml:"mid_cap_position_percent" json:"mid_cap_position_percent"`     // 5%
	SmallCapPositionPercent float64 `yaml:"small_cap_position_percent" json:"small_cap_position_percent"` // 3%

	CorrelationThreshold            float64 `yaml:"correlation_threshold" json:"correlation_threshold"`                         // 0.7
	MaxCorrelatedPairs              int     `yaml:"max_correlated_pairs" json:"max_correlated_pairs"`                           // 3
	CorrelatedPairAllocationPercent float64 `yaml:"correlated_pair_allocation_percent" json:"correlated_pair_allocation_percent"` // 20%
	MinHistoryPoints                int     `yaml:"min_history_points" json:"min_history_points"`                               // 20

	MinPositions int `yaml:"min_positions" json:"min_positions"` // 5
	MinSectors   int `yaml:"min_sectors" json:"min_sectors"`     // 3

	MaxStateOwnedPercent         float64  `yaml:"max_state_owned_percent" json:"max_state_owned_percent"`                 // 30%
	MaxSanctionsSensitivePercent float64  `yaml:"max_sanctions_sensitive_percent" json:"max_sanctions_sensitive_percent"` // 20%
	HighRiskSectors              []string `yaml:"high_risk_sectors" json:"high_risk_sectors"`
	MaxHighRiskSectorsPercent    float64  `yaml:"max_high_risk_sectors_percent" json:"max_high_risk_sectors_percent"` // 50%
}

// DefaultDiversificationRules returns the MOEX sector and cap-tier limits
func DefaultDiversificationRules() DiversificationRules {
	return DiversificationRules{
		SectorLimits: map[string]float64{
			SectorEnergy:      25.0,
			SectorFinancial:   20.0,
			SectorMaterials:   20.0,
			SectorTechnology:  15.0,
			SectorConsumer:    15.0,
			SectorUtilities:   10.0,
			SectorTelecom:     10.0,
			SectorHealthcare:  10.0,
			SectorIndustrials: 15.0,
			SectorRealEstate:  10.0,
		},
		OtherSectorLimit:                10.0,
		DefaultSectorLimit:              15.0,
		LargeCapPositionPercent:         8.0,
		MidCapPositionPercent:           5.0,
		SmallCapPositionPercent:         3.0,
		CorrelationThreshold:            0.7,
		MaxCorrelatedPairs:              3,
		CorrelatedPairAllocationPercent: 20.0,
		MinHistoryPoints:                20,
		MinPositions:                    5,
		MinSectors:                      3,
		MaxStateOwnedPercent:            30.0,
		MaxSanctionsSensitivePercent:    20.0,
		HighRiskSectors:                 []string{SectorEnergy, SectorFinancial, SectorMaterials},
		MaxHighRiskSectorsPercent:       50.0,
	}
}

// SectorLimit returns the allocation cap for a sector
func (r DiversificationRules) SectorLimit(sector string) float64 {
	if limit, ok := r.SectorLimits[sector]; ok {
		return limit
	}
	if sector == SectorOther {
		return r.OtherSectorLimit
	}
	return r.DefaultSectorLimit
}

// PositionLimit returns the position cap for a cap tier
func (r DiversificationRules) PositionLimit(tier CapTier) float64 {
	switch tier {
	case CapTierLarge:
		return r.LargeCapPositionPercent
	case CapTierMid:
		return r.MidCapPositionPercent
	default:
		return r.SmallCapPositionPercent
	}
}

// ComplianceRules describe MOEX microstructure
type ComplianceRules struct {
	UTCOffsetHours int       `yaml:"utc_offset_hours" json:"utc_offset_hours"` // Moscow, UTC+3
	MainOpen       TimeOfDay `yaml:"main_open" json:"main_open"`               // 10:00
	MainClose      TimeOfDay `yaml:"main_close" json:"main_close"`             // 18:45
	EveningOpen    TimeOfDay `yaml:"evening_open" json:"evening_open"`         // 19:05
	EveningClose   TimeOfDay `yaml:"evening_close" json:"evening_close"`       // 23:50
	SettlementDays int       `yaml:"settlement_days" json:"settlement_days"`   // T+2

	MinOrderValueRUB         float64 `yaml:"min_order_value_rub" json:"min_order_value_rub"`                   // 1000
	MinCurrencyOrderValueRUB float64 `yaml:"min_currency_order_value_rub" json:"min_currency_order_value_rub"` // 100

	StockLotSize    int64 `yaml:"stock_lot_size" json:"stock_lot_size"`       // 1
	BondLotSize     int64 `yaml:"bond_lot_size" json:"bond_lot_size"`         // 1
	ETFLotSize      int64 `yaml:"etf_lot_size" json:"etf_lot_size"`           // 1
	CurrencyLotSize int64 `yaml:"currency_lot_size" json:"currency_lot_size"` // 1000

	LargeOrderQuantity int64 `yaml:"large_order_quantity" json:"large_order_quantity"` // 1,000,000 shares
}

// DefaultComplianceRules returns the MOEX equity market rules
func DefaultComplianceRules() ComplianceRules {
	return ComplianceRules{
		UTCOffsetHours:           3,
		MainOpen:                 TimeOfDay{Hour: 10, Minute: 0},
		MainClose:                TimeOfDay{Hour: 18, Minute: 45},
		EveningOpen:              TimeOfDay{Hour: 19, Minute: 5},
		EveningClose:             TimeOfDay{Hour: 23, Minute: 50},
		SettlementDays:           2,
		MinOrderValueRUB:         1000,
		MinCurrencyOrderValueRUB: 100,
		StockLotSize:             1,
		BondLotSize:              1,
		ETFLotSize:               1,
		CurrencyLotSize:          1000,
		LargeOrderQuantity:       1_000_000,
	}
}

// RebalanceRules tune the rebalance advisor
type RebalanceRules struct {
	CashTargets LevelValues `yaml:"cash_targets" json:"cash_targets"` // 10/20/30/50%

	DefensiveSectors     []string          `yaml:"defensive_sectors" json:"defensive_sectors"`
	RiskySectors         []string          `yaml:"risky_sectors" json:"risky_sectors"`
	DefensiveRiskCeiling float64           `yaml:"defensive_risk_ceiling" json:"defensive_risk_ceiling"` // 0.3
	RiskyRiskFloor       float64           `yaml:"risky_risk_floor" json:"risky_risk_floor"`             // 0.6
	SectorAliases        map[string]string `yaml:"sector_aliases" json:"sector_aliases"`

	TradeThresholdPercent float64 `yaml:"trade_threshold_percent" json:"trade_threshold_percent"` // 1%

	RiskReductionBase     float64 `yaml:"risk_reduction_base" json:"risk_reduction_base"`           // 0.2
	RiskReductionPerTrade float64 `yaml:"risk_reduction_per_trade" json:"risk_reduction_per_trade"` // 0.05
	RiskReductionTradeCap float64 `yaml:"risk_reduction_trade_cap" json:"risk_reduction_trade_cap"` // 0.3
	RiskReductionFactor   float64 `yaml:"risk_reduction_factor" json:"risk_reduction_factor"`       // 0.4
	RiskReductionMax      float64 `yaml:"risk_reduction_max" json:"risk_reduction_max"`             // 0.8

	SanctionsReasoningThreshold float64 `yaml:"sanctions_reasoning_threshold" json:"sanctions_reasoning_threshold"` // 0.6
	ReasoningSymbolLimit        int     `yaml:"reasoning_symbol_limit" json:"reasoning_symbol_limit"`               // 3
}

// DefaultRebalanceRules returns the standard rebalance schedule
func DefaultRebalanceRules() RebalanceRules {
	return RebalanceRules{
		CashTargets:          LevelValues{Normal: 10, Elevated: 20, High: 30, Critical: 50},
		DefensiveSectors:     []string{"UTILITIES", "CONSUMER_STAPLES", "HEALTHCARE"},
		RiskySectors:         []string{"ENERGY", "BANKING", "TECHNOLOGY", "METALS"},
		DefensiveRiskCeiling: 0.3,
		RiskyRiskFloor:       0.6,
		SectorAliases: map[string]string{
			SectorFinancial:   "BANKING",
			SectorMaterials:   "METALS",
			SectorTelecom:     "TELECOMMUNICATIONS",
			SectorConsumer:    "RETAIL",
			SectorIndustrials: "TRANSPORTATION",
		},
		TradeThresholdPercent:       1.0,
		RiskReductionBase:           0.2,
		RiskReductionPerTrade:       0.05,
		RiskReductionTradeCap:       0.3,
		RiskReductionFactor:         0.4,
		RiskReductionMax:            0.8,
		SanctionsReasoningThreshold: 0.6,
		ReasoningSymbolLimit:        3,
	}
}

// GeoSector maps a portfolio sector to the geopolitical sector list
func (r RebalanceRules) GeoSector(sector string) string {
	if alias, ok := r.SectorAliases[sector]; ok {
		return alias
	}
	return sector
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
