package diversification

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ducminhle1904/moex-risk-engine/internal/config"
	"github.com/ducminhle1904/moex-risk-engine/internal/logger"
	"github.com/ducminhle1904/moex-risk-engine/internal/portfolio"
	"github.com/ducminhle1904/moex-risk-engine/internal/stats"
	"github.com/ducminhle1904/moex-risk-engine/pkg/types"
)

const compliantMessage = "Portfolio diversification is compliant with all rules"

// Engine enforces sector, position-size and correlation limits
type Engine struct {
	rules     config.DiversificationRules
	penalties config.ScoringPenalties
	ref       *config.ReferenceData
	logger    *logger.Logger
}

// NewEngine creates a diversification engine; rules are validated up front
func NewEngine(rules config.DiversificationRules, penalties config.ScoringPenalties, ref *config.ReferenceData, log *logger.Logger) (*Engine, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if err := penalties.Validate(); err != nil {
		return nil, err
	}
	if ref == nil {
		ref = config.DefaultReferenceData()
	}
	return &Engine{
		rules:     rules,
		penalties: penalties,
		ref:       ref,
		logger:    logger.OrNop(log).With("diversification"),
	}, nil
}

// Rules returns the configured limits
func (e *Engine) Rules() config.DiversificationRules { return e.rules }

// SectorOf resolves a position's sector
func (e *Engine) SectorOf(pos portfolio.Position) string {
	return e.ref.SectorFor(pos.Symbol, pos.Sector)
}

// PositionLimit returns the cap-tier limit for a symbol, in percent
func (e *Engine) PositionLimit(symbol string) float64 {
	return e.rules.PositionLimit(e.ref.CapTier(symbol))
}

// Severity grades a breach by how far current exceeds limit
func Severity(current, limit float64) types.RiskLevel {
	if limit <= 0 {
		return types.RiskLevelCritical
	}
	excess := (current - limit) / limit
	switch {
	case excess > 1.0:
		return types.RiskLevelCritical
	case excess > 0.5:
		return types.RiskLevelHigh
	case excess > 0.2:
		return types.RiskLevelMedium
	default:
		return types.RiskLevelLow
	}
}

// CheckSectorLimits compares each sector's allocation with its limit
func (e *Engine) CheckSectorLimits(p *portfolio.Portfolio) SectorAnalysis {
	alloc := p.SectorAllocation(e.SectorOf)
	members := e.sectorMembers(p)

	var violations []Violation
	for _, sector := range sortedKeys(alloc) {
		current := alloc[sector]
		limit := e.rules.SectorLimit(sector)
		if current <= limit {
			continue
		}
		violations = append(violations, Violation{
			RuleType:          RuleSectorLimit,
			Description:       fmt.Sprintf("Sector %s allocation %.1f%% exceeds limit %.1f%%", sector, current, limit),
			CurrentValue:      current,
			LimitValue:        limit,
			Severity:          Severity(current, limit),
			AffectedSymbols:   members[sector],
			Sector:            sector,
			RecommendedAction: fmt.Sprintf("Reduce %s exposure by %.1f%%", sector, current-limit),
		})
	}

	recs := recommendationsFor(violations, e.rules)
	var overweight []string
	for _, sector := range sortedKeys(alloc) {
		if alloc[sector] > e.penalties.OverweightSectorPercent {
			overweight = append(overweight, fmt.Sprintf("%s (%.1f%%)", sector, alloc[sector]))
		}
	}
	advice := ""
	if len(overweight) > 0 {
		advice = "Consider rebalancing overweight sectors: " + strings.Join(overweight, ", ")
		recs = append(recs, advice)
	}

	return SectorAnalysis{
		Compliant:       len(violations) == 0,
		Allocations:     alloc,
		Violations:      violations,
		Recommendations: recs,
		Overweight:      advice,
	}
}

// CheckPositionLimits compares each position with its cap-tier limit
func (e *Engine) CheckPositionLimits(p *portfolio.Portfolio) PositionAnalysis {
	sizes := p.Allocation()

	var violations []Violation
	largest := 0.0
	for _, symbol := range p.Symbols() {
		current := sizes[symbol]
		largest = math.Max(largest, current)
		tier := e.ref.CapTier(symbol)
		limit := e.rules.PositionLimit(tier)
		if current <= limit {
			continue
		}
		violations = append(violations, Violation{
			RuleType: RulePositionSize,
			Description: fmt.Sprintf("Position %s size %.1f%% exceeds %s-cap limit %.1f%%",
				symbol, current, strings.ToLower(string(tier)), limit),
			CurrentValue:      current,
			LimitValue:        limit,
			Severity:          Severity(current, limit),
			AffectedSymbols:   []string{symbol},
			RecommendedAction: fmt.Sprintf("Reduce %s position by %.1f%%", symbol, current-limit),
		})
	}

	return PositionAnalysis{
		Compliant:       len(violations) == 0,
		Sizes:           sizes,
		LargestPosition: largest,
		Violations:      violations,
		Recommendations: recommendationsFor(violations, e.rules),
	}
}

// CorrelationMatrix correlates the held symbols' returns
func (e *Engine) CorrelationMatrix(p *portfolio.Portfolio, histories map[string][]decimal.Decimal) *stats.CorrelationMatrix {
	symbols := p.Symbols()
	var short []string
	for _, s := range symbols {
		if len(histories[s]) < e.rules.MinHistoryPoints {
			short = append(short, s)
		}
	}
	if len(short) > 0 && len(symbols) > 1 {
		e.logger.Warning("insufficient price history for correlation (need %d points): %s",
			e.rules.MinHistoryPoints, strings.Join(short, ", "))
	}
	return stats.NewCorrelationMatrix(symbols, histories, e.rules.MinHistoryPoints)
}

// CheckCorrelationLimits flags highly correlated pairs and large correlated exposures
func (e *Engine) CheckCorrelationLimits(p *portfolio.Portfolio, matrix *stats.CorrelationMatrix) CorrelationAnalysis {
	if matrix == nil {
		matrix = stats.NewCorrelationMatrix(p.Symbols(), nil, e.rules.MinHistoryPoints)
	}
	sizes := p.Allocation()

	var flagged []stats.Pair
	var violations []Violation
	for _, pair := range matrix.Pairs() {
		if math.Abs(pair.Correlation) <= e.rules.CorrelationThreshold {
			continue
		}
		flagged = append(flagged, pair)
		combined := sizes[pair.A] + sizes[pair.B]
		if combined > e.rules.CorrelatedPairAllocationPercent {
			violations = append(violations, Violation{
				RuleType: RuleHighCorrelation,
				Description: fmt.Sprintf("Highly correlated pair %s/%s (%.2f) holds %.1f%% combined, limit %.1f%%",
					pair.A, pair.B, pair.Correlation, combined, e.rules.CorrelatedPairAllocationPercent),
				CurrentValue:      combined,
				LimitValue:        e.rules.CorrelatedPairAllocationPercent,
				Severity:          types.RiskLevelHigh,
				AffectedSymbols:   []string{pair.A, pair.B},
				RecommendedAction: fmt.Sprintf("Reduce exposure to one of %s or %s", pair.A, pair.B),
			})
		}
	}

	if len(flagged) > e.rules.MaxCorrelatedPairs {
		violations = append(violations, Violation{
			RuleType: RuleCorrelationCount,
			Description: fmt.Sprintf("%d highly correlated pairs exceed maximum of %d",
				len(flagged), e.rules.MaxCorrelatedPairs),
			CurrentValue:      float64(len(flagged)),
			LimitValue:        float64(e.rules.MaxCorrelatedPairs),
			Severity:          types.RiskLevelHigh,
			AffectedSymbols:   pairSymbols(flagged),
			RecommendedAction: "Replace some correlated holdings with uncorrelated assets",
		})
	}

	return CorrelationAnalysis{
		Compliant:       len(violations) == 0,
		Matrix:          matrix,
		CorrelatedPairs: flagged,
		Violations:      violations,
		Recommendations: recommendationsFor(violations, e.rules),
	}
}

// CheckMinimumDiversification flags portfolios with too few positions or sectors
func (e *Engine) CheckMinimumDiversification(p *portfolio.Portfolio, sectorAlloc map[string]float64) []Violation {
	var violations []Violation
	if n := p.Len(); n < e.rules.MinPositions {
		violations = append(violations, Violation{
			RuleType:          RuleMinPositions,
			Description:       fmt.Sprintf("Portfolio has %d positions, minimum is %d", n, e.rules.MinPositions),
			CurrentValue:      float64(n),
			LimitValue:        float64(e.rules.MinPositions),
			Severity:          types.RiskLevelHigh,
			AffectedSymbols:   p.Symbols(),
			RecommendedAction: fmt.Sprintf("Add positions to hold at least %d securities", e.rules.MinPositions),
		})
	}
	if n := len(sectorAlloc); n < e.rules.MinSectors {
		violations = append(violations, Violation{
			RuleType:          RuleMinSectors,
			Description:       fmt.Sprintf("Portfolio spans %d sectors, minimum is %d", n, e.rules.MinSectors),
			CurrentValue:      float64(n),
			LimitValue:        float64(e.rules.MinSectors),
			Severity:          types.RiskLevelHigh,
			AffectedSymbols:   p.Symbols(),
			RecommendedAction: fmt.Sprintf("Spread holdings across at least %d sectors", e.rules.MinSectors),
		})
	}
	return violations
}

// CheckConcentrationRules applies the state-owned, sanctions-sensitive and high-risk-sector caps
func (e *Engine) CheckConcentrationRules(p *portfolio.Portfolio, sectorAlloc map[string]float64) []Violation {
	sizes := p.Allocation()
	var stateOwned, sanctioned []string
	var stateTotal, sanctionsTotal float64
	for _, s := range p.Symbols() {
		if e.ref.IsStateOwned(s) {
			stateOwned = append(stateOwned, s)
			stateTotal += sizes[s]
		}
		if e.ref.IsSanctionsSensitive(s) {
			sanctioned = append(sanctioned, s)
			sanctionsTotal += sizes[s]
		}
	}

	var violations []Violation
	if stateTotal > e.rules.MaxStateOwnedPercent {
		violations = append(violations, Violation{
			RuleType:          RuleStateOwned,
			Description:       fmt.Sprintf("State-owned companies hold %.1f%%, limit %.1f%%", stateTotal, e.rules.MaxStateOwnedPercent),
			CurrentValue:      stateTotal,
			LimitValue:        e.rules.MaxStateOwnedPercent,
			Severity:          Severity(stateTotal, e.rules.MaxStateOwnedPercent),
			AffectedSymbols:   stateOwned,
			RecommendedAction: "Shift part of the state-owned exposure to private companies",
		})
	}
	if sanctionsTotal > e.rules.MaxSanctionsSensitivePercent {
		violations = append(violations, Violation{
			RuleType:          RuleSanctionsSensitive,
			Description:       fmt.Sprintf("Sanctions-sensitive companies hold %.1f%%, limit %.1f%%", sanctionsTotal, e.rules.MaxSanctionsSensitivePercent),
			CurrentValue:      sanctionsTotal,
			LimitValue:        e.rules.MaxSanctionsSensitivePercent,
			Severity:          Severity(sanctionsTotal, e.rules.MaxSanctionsSensitivePercent),
			AffectedSymbols:   sanctioned,
			RecommendedAction: "Reduce exposure to sanctions-sensitive companies",
		})
	}

	highRisk := 0.0
	members := e.sectorMembers(p)
	var affected []string
	for _, sector := range e.rules.HighRiskSectors {
		highRisk += sectorAlloc[sector]
		affected = append(affected, members[sector]...)
	}
	if highRisk > e.rules.MaxHighRiskSectorsPercent {
		sort.Strings(affected)
		violations = append(violations, Violation{
			RuleType: RuleHighRiskSectors,
			Description: fmt.Sprintf("High-risk sectors (%s) hold %.1f%% combined, limit %.1f%%",
				strings.Join(e.rules.HighRiskSectors, ", "), highRisk, e.rules.MaxHighRiskSectorsPercent),
			CurrentValue:      highRisk,
			LimitValue:        e.rules.MaxHighRiskSectorsPercent,
			Severity:          Severity(highRisk, e.rules.MaxHighRiskSectorsPercent),
			AffectedSymbols:   affected,
			RecommendedAction: "Rotate part of the high-risk sector exposure into defensive sectors",
		})
	}
	return violations
}

// Score computes the diversification score: 1 minus severity penalties plus breadth bonuses, clamped to [0, 1]
func (e *Engine) Score(positions, sectors int, largestPosition float64, violations []Violation) float64 {
	pen := e.penalties
	score := 1.0
	for _, v := range violations {
		score -= pen.Severity.For(v.Severity)
	}

	switch {
	case positions >= pen.ManyPositions:
		score += pen.ManyPositionsBonus
	case positions >= pen.SomePositions:
		score += pen.SomePositionsBonus
	}
	switch {
	case sectors >= pen.ManySectors:
		score += pen.ManySectorsBonus
	case sectors >= pen.SomeSectors:
		score += pen.SomeSectorsBonus
	}
	if positions > 0 {
		switch {
		case largestPosition < pen.SmallMaxPositionPercent:
			score += pen.SmallMaxPositionBonus
		case largestPosition < pen.ModerateMaxPositionPercent:
			score += pen.ModerateMaxPositionBonus
		}
	}
	return stats.Clamp01(score)
}

// Analyze runs every diversification check and aggregates the result
func (e *Engine) Analyze(p *portfolio.Portfolio, histories map[string][]decimal.Decimal, now time.Time) *Analysis {
	return e.AnalyzeWithMatrix(p, e.CorrelationMatrix(p, histories), now)
}

// AnalyzeWithMatrix is Analyze with a precomputed correlation matrix
func (e *Engine) AnalyzeWithMatrix(p *portfolio.Portfolio, matrix *stats.CorrelationMatrix, now time.Time) *Analysis {
	sector := e.CheckSectorLimits(p)
	position := e.CheckPositionLimits(p)
	correlation := e.CheckCorrelationLimits(p, matrix)

	var violations []Violation
	violations = append(violations, sector.Violations...)
	violations = append(violations, position.Violations...)
	violations = append(violations, correlation.Violations...)
	violations = append(violations, e.CheckMinimumDiversification(p, sector.Allocations)...)
	violations = append(violations, e.CheckConcentrationRules(p, sector.Allocations)...)

	var recs []string
	if len(violations) == 0 {
		recs = []string{compliantMessage}
	} else {
		recs = recommendationsFor(violations, e.rules)
		if sector.Overweight != "" {
			recs = append(recs, sector.Overweight)
		}
	}

	analysis := &Analysis{
		Compliant:         len(violations) == 0,
		Violations:        violations,
		SectorAllocations: sector.Allocations,
		PositionSizes:     position.Sizes,
		CorrelationMatrix: correlation.Matrix,
		CorrelatedPairs:   correlation.CorrelatedPairs,
		Score:             e.Score(p.Len(), len(sector.Allocations), position.LargestPosition, violations),
		Recommendations:   recs,
		Timestamp:         now,
		Sector:            sector,
		Position:          position,
		Correlation:       correlation,
	}
	if !analysis.Compliant {
		e.logger.Debug("diversification: %d violations, score %.2f", len(violations), analysis.Score)
	}
	return analysis
}

// MaxAdditionalQuantity is the largest number of shares bought at price that keeps symbol within its
// tier limit. The existing holding is marked to price, as a fill would mark it.
func (e *Engine) MaxAdditionalQuantity(p *portfolio.Portfolio, symbol string, price decimal.Decimal) int64 {
	if !price.IsPositive() {
		return 0
	}
	marked := p.WithPrices(map[string]decimal.Decimal{symbol: price})
	limit := decimal.NewFromFloat(e.PositionLimit(symbol)).Div(decimal.NewFromInt(100))
	room := marked.TotalValue().Mul(limit)
	if existing, ok := marked.Position(symbol); ok {
		room = room.Sub(existing.MarketValue())
	}
	if !room.IsPositive() {
		return 0
	}
	return room.Div(price).Floor().IntPart()
}

func (e *Engine) sectorMembers(p *portfolio.Portfolio) map[string][]string {
	members := make(map[string][]string)
	for _, pos := range p.Positions() {
		sector := e.SectorOf(pos)
		members[sector] = append(members[sector], pos.Symbol)
	}
	return members
}

func pairSymbols(pairs []stats.Pair) []string {
	seen := make(map[string]struct{})
	for _, p := range pairs {
		seen[p.A] = struct{}{}
		seen[p.B] = struct{}{}
	}
	return sortedKeys(seen)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
