package diversification

import (
	"time"

	"github.com/ducminhle1904/moex-risk-engine/internal/stats"
	"github.com/ducminhle1904/moex-risk-engine/pkg/types"
)

// RuleType tags the rule a violation breaks
type RuleType string

const (
	RuleSectorLimit        RuleType = "SECTOR_LIMIT"
	RulePositionSize       RuleType = "POSITION_SIZE"
	RuleHighCorrelation    RuleType = "HIGH_CORRELATION"
	RuleCorrelationCount   RuleType = "CORRELATION_COUNT"
	RuleMinPositions       RuleType = "MIN_POSITIONS"
	RuleMinSectors         RuleType = "MIN_SECTORS"
	RuleStateOwned         RuleType = "STATE_OWNED"
	RuleSanctionsSensitive RuleType = "SANCTIONS_SENSITIVE"
	RuleHighRiskSectors    RuleType = "HIGH_RISK_SECTORS"
)

// Violation is one broken diversification rule
type Violation struct {
	RuleType          RuleType        `json:"rule_type"`
	Description       string          `json:"description"`
	CurrentValue      float64         `json:"current_value"`
	LimitValue        float64         `json:"limit_value"`
	Severity          types.RiskLevel `json:"severity"`
	AffectedSymbols   []string        `json:"affected_symbols"`
	Sector            string          `json:"sector,omitempty"`
	RecommendedAction string          `json:"recommended_action"`
}

// SectorAnalysis is the result of the sector limit check
type SectorAnalysis struct {
	Compliant       bool               `json:"is_compliant"`
	Allocations     map[string]float64 `json:"sector_allocations"`
	Violations      []Violation        `json:"violations"`
	Recommendations []string           `json:"recommendations"`
	// Overweight is the advisory for sectors above the overweight threshold, empty when none is
	Overweight string `json:"overweight,omitempty"`
}

// PositionAnalysis is the result of the cap-tier position check
type PositionAnalysis struct {
	Compliant       bool               `json:"is_compliant"`
	Sizes           map[string]float64 `json:"position_sizes"`
	LargestPosition float64            `json:"largest_position"`
	Violations      []Violation        `json:"violations"`
	Recommendations []string           `json:"recommendations"`
}

// CorrelationAnalysis is the result of the correlation limit check
type CorrelationAnalysis struct {
	Compliant       bool                     `json:"is_compliant"`
	Matrix          *stats.CorrelationMatrix `json:"correlation_matrix"`
	CorrelatedPairs []stats.Pair             `json:"highly_correlated_pairs"`
	Violations      []Violation              `json:"violations"`
	Recommendations []string                 `json:"recommendations"`
}

// Analysis aggregates every diversification check for one portfolio
type Analysis struct {
	Compliant         bool                     `json:"is_compliant"`
	Violations        []Violation              `json:"violations"`
	SectorAllocations map[string]float64       `json:"sector_allocations"`
	PositionSizes     map[string]float64       `json:"position_sizes"`
	CorrelationMatrix *stats.CorrelationMatrix `json:"correlation_matrix"`
	CorrelatedPairs   []stats.Pair             `json:"highly_correlated_pairs"`
	Score             float64                  `json:"diversification_score"`
	Recommendations   []string                 `json:"recommendations"`
	Timestamp         time.Time                `json:"timestamp"`

	Sector      SectorAnalysis      `json:"-"`
	Position    PositionAnalysis    `json:"-"`
	Correlation CorrelationAnalysis `json:"-"`
}

// CountBySeverity tallies violations per severity
func (a *Analysis) CountBySeverity() map[types.RiskLevel]int {
	out := make(map[types.RiskLevel]int)
	for _, v := range a.Violations {
		out[v.Severity]++
	}
	return out
}

// ViolationsFor returns violations of a rule type that name the symbol
func (a *Analysis) ViolationsFor(rule RuleType, symbol string) []Violation {
	var out []Violation
	for _, v := range a.Violations {
		if v.RuleType != rule {
			continue
		}
		for _, s := range v.AffectedSymbols {
			if s == symbol {
				out = append(out, v)
				break
			}
		}
	}
	return out
}
