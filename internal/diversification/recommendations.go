package diversification

import (
	"fmt"
	"strings"

	"github.com/ducminhle1904/moex-risk-engine/internal/config"
)

// recommendationsFor emits one recommendation per rule type, in first-seen order
func recommendationsFor(violations []Violation, rules config.DiversificationRules) []string {
	var order []RuleType
	symbols := make(map[RuleType][]string)
	for _, v := range violations {
		if _, seen := symbols[v.RuleType]; !seen {
			order = append(order, v.RuleType)
			symbols[v.RuleType] = []string{}
		}
		symbols[v.RuleType] = appendUnique(symbols[v.RuleType], subjects(v)...)
	}

	recs := make([]string, 0, len(order))
	for _, rt := range order {
		recs = append(recs, recommendation(rt, symbols[rt], rules))
	}
	return recs
}

// subjects names what a violation is about: the sector, the pair, or the symbols
func subjects(v Violation) []string {
	switch v.RuleType {
	case RuleSectorLimit:
		return []string{v.Sector}
	case RuleHighCorrelation:
		return []string{strings.Join(v.AffectedSymbols, "/")}
	}
	return v.AffectedSymbols
}

func recommendation(rt RuleType, subjects []string, rules config.DiversificationRules) string {
	list := strings.Join(subjects, ", ")
	switch rt {
	case RuleSectorLimit:
		return "Reduce allocation in overweight sectors: " + list
	case RulePositionSize:
		return "Trim oversized positions to their cap-tier limits: " + list
	case RuleHighCorrelation:
		return "Diversify away from highly correlated pairs: " + list
	case RuleCorrelationCount:
		return fmt.Sprintf("Reduce the number of highly correlated pairs to at most %d", rules.MaxCorrelatedPairs)
	case RuleMinPositions:
		return fmt.Sprintf("Increase the number of positions to at least %d", rules.MinPositions)
	case RuleMinSectors:
		return fmt.Sprintf("Spread holdings across at least %d sectors", rules.MinSectors)
	case RuleStateOwned:
		return fmt.Sprintf("Keep state-owned companies below %.0f%% of the portfolio", rules.MaxStateOwnedPercent)
	case RuleSanctionsSensitive:
		return fmt.Sprintf("Keep sanctions-sensitive companies below %.0f%% of the portfolio", rules.MaxSanctionsSensitivePercent)
	case RuleHighRiskSectors:
		return fmt.Sprintf("Keep combined %s exposure below %.0f%%",
			strings.Join(rules.HighRiskSectors, ", "), rules.MaxHighRiskSectorsPercent)
	default:
		return "Review diversification rule " + string(rt)
	}
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		found := false
		for _, d := range dst {
			if d == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}
