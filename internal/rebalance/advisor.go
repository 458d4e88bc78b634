// Package rebalance turns a geopolitical assessment into a defensive target allocation and the trades to reach it.
package rebalance

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ducminhle1904/moex-risk-engine/internal/config"
	"github.com/ducminhle1904/moex-risk-engine/internal/errors"
	"github.com/ducminhle1904/moex-risk-engine/internal/geopolitical"
	"github.com/ducminhle1904/moex-risk-engine/internal/logger"
	"github.com/ducminhle1904/moex-risk-engine/internal/portfolio"
	"github.com/ducminhle1904/moex-risk-engine/pkg/types"
)

// CashKey is the allocation entry for the cash balance
const CashKey = "CASH"

// LotSizer rounds share quantities down to a tradable lot
type LotSizer interface {
	RoundToLot(symbol string, quantity int64) int64
}

// Recommendation is the advised rebalance for the current geopolitical situation
type Recommendation struct {
	CurrentAllocation     map[string]float64 `json:"current_allocation"`
	RecommendedAllocation map[string]float64 `json:"recommended_allocation"`
	Trades                []types.TradeOrder `json:"trades_to_execute"`
	ExpectedRiskReduction float64            `json:"risk_reduction_expected"`
	CashTargetPercent     float64            `json:"cash_target_percent"`
	DefensivePositions    []string           `json:"defensive_positions"`
	RiskyPositions        []string           `json:"risky_positions"`
	Urgency               types.RiskLevel    `json:"urgency"`
	Reasoning             string             `json:"reasoning"`
	Recommendations       []string           `json:"recommendations"`
	Timestamp             time.Time          `json:"timestamp"`
}

// Advisor builds rebalance recommendations
type Advisor struct {
	rules  config.RebalanceRules
	ref    *config.ReferenceData
	lots   LotSizer
	logger *logger.Logger

	defensive map[string]struct{}
	risky     map[string]struct{}
}

// NewAdvisor creates a rebalance advisor. lots may be nil, in which case quantities are not lot-rounded.
func NewAdvisor(rules config.RebalanceRules, ref *config.ReferenceData, lots LotSizer, log *logger.Logger) (*Advisor, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if ref == nil {
		ref = config.DefaultReferenceData()
	}
	return &Advisor{
		rules:     rules,
		ref:       ref,
		lots:      lots,
		logger:    logger.OrNop(log).With("rebalance"),
		defensive: toSet(rules.DefensiveSectors),
		risky:     toSet(rules.RiskySectors),
	}, nil
}

// CashTarget returns the cash percentage for a geopolitical level
func (a *Advisor) CashTarget(level types.GeoLevel) float64 {
	return a.rules.CashTargets.For(level)
}

// Recommend builds the rebalance plan. A nil geo is treated as the neutral assessment.
func (a *Advisor) Recommend(p *portfolio.Portfolio, geo *geopolitical.RiskScore, marketData map[string]types.MarketData, now time.Time) (*Recommendation, error) {
	if p == nil {
		return nil, errors.NewInvalidInput("rebalance", "recommend", "portfolio is required")
	}
	if geo == nil {
		geo = geopolitical.Neutral(now)
	}
	if err := geo.Validate(); err != nil {
		return nil, err
	}
	for _, symbol := range sortedKeys(marketData) {
		if err := marketData[symbol].Validate(); err != nil {
			return nil, err
		}
	}

	target := a.CashTarget(geo.Level)
	current := currentAllocation(p)
	recommended := a.recommendedAllocation(p, current, target)
	trades := a.trades(p, current, recommended, marketData)
	defensive, risky := a.classify(p, geo)

	rec := &Recommendation{
		CurrentAllocation:     current,
		RecommendedAllocation: recommended,
		Trades:                trades,
		ExpectedRiskReduction: a.ExpectedRiskReduction(geo.Score, len(trades)),
		CashTargetPercent:     target,
		DefensivePositions:    defensive,
		RiskyPositions:        risky,
		Urgency:               geo.Level.Urgency(),
		Timestamp:             now,
	}
	rec.Reasoning = a.reasoning(geo, rec)
	rec.Recommendations = a.recommendations(p, rec)

	a.logger.Debug("rebalance for %s risk: cash target %.1f%%, %d trades", geo.Level, target, len(trades))
	return rec, nil
}

func currentAllocation(p *portfolio.Portfolio) map[string]float64 {
	if !p.TotalValue().IsPositive() {
		return map[string]float64{}
	}
	alloc := p.Allocation()
	alloc[CashKey] = p.CashPercent()
	return alloc
}

// recommendedAllocation shrinks every position by the same factor so positions fill 100 - target
func (a *Advisor) recommendedAllocation(p *portfolio.Portfolio, current map[string]float64, target float64) map[string]float64 {
	out := make(map[string]float64, len(current))
	if len(current) == 0 {
		return out
	}
	invested := 100 - current[CashKey]
	if p.Len() == 0 || invested <= 0 {
		out[CashKey] = 100
		return out
	}
	factor := (100 - target) / invested
	for symbol, pct := range current {
		if symbol != CashKey {
			out[symbol] = pct * factor
		}
	}
	out[CashKey] = target
	return out
}

func (a *Advisor) trades(p *portfolio.Portfolio, current, recommended map[string]float64, marketData map[string]types.MarketData) []types.TradeOrder {
	total := p.TotalValue()
	var out []types.TradeOrder
	for _, symbol := range p.Symbols() {
		diff := recommended[symbol] - current[symbol]
		if math.Abs(diff) <= a.rules.TradeThresholdPercent {
			continue
		}
		pos, _ := p.Position(symbol)
		price := pos.CurrentPrice
		if md, ok := marketData[symbol]; ok {
			price = md.Price
		}
		if !price.IsPositive() {
			continue
		}

		value := total.Mul(decimal.NewFromFloat(math.Abs(diff) / 100))
		qty := value.Div(price).Floor().IntPart()
		if a.lots != nil {
			qty = a.lots.RoundToLot(symbol, qty)
		}
		action := types.OrderActionBuy
		if diff < 0 {
			action = types.OrderActionSell
			if qty > pos.Quantity {
				qty = pos.Quantity
			}
		}
		if qty <= 0 {
			continue
		}
		order := types.NewMarketOrder(symbol, action, qty)
		order.Price = decimal.NewNullDecimal(price)
		out = append(out, order)
	}
	return out
}

// classify splits holdings into defensive and risky lists. Defensive membership takes precedence,
// so a risky sector whose own geopolitical risk is below the defensive ceiling counts as defensive.
func (a *Advisor) classify(p *portfolio.Portfolio, geo *geopolitical.RiskScore) (defensive, risky []string) {
	for _, pos := range p.Positions() {
		sector := a.ref.SectorFor(pos.Symbol, pos.Sector)
		geoSector := a.rules.GeoSector(sector)
		sectorRisk := geo.SectorRisks[geoSector]

		_, riskySector := a.risky[sector]
		_, riskyGeo := a.risky[geoSector]
		_, defensiveSector := a.defensive[sector]

		switch {
		case defensiveSector || sectorRisk < a.rules.DefensiveRiskCeiling:
			defensive = append(defensive, pos.Symbol)
		case riskySector || riskyGeo || sectorRisk > a.rules.RiskyRiskFloor:
			risky = append(risky, pos.Symbol)
		}
	}
	return defensive, risky
}

// ExpectedRiskReduction estimates how much risk the rebalance removes, capped at the configured maximum
func (a *Advisor) ExpectedRiskReduction(geoScore float64, trades int) float64 {
	r := a.rules
	tradeFactor := math.Min(float64(trades)*r.RiskReductionPerTrade, r.RiskReductionTradeCap)
	return math.Min(r.RiskReductionBase+tradeFactor+geoScore*r.RiskReductionFactor, r.RiskReductionMax)
}

func (a *Advisor) reasoning(geo *geopolitical.RiskScore, rec *Recommendation) string {
	parts := []string{
		fmt.Sprintf("Geopolitical risk is %s (score: %.2f)", strings.ToLower(string(geo.Level)), geo.Score),
		fmt.Sprintf("Target cash position is %.1f%% of the portfolio to protect capital", rec.CashTargetPercent),
	}
	if geo.SanctionsRisk > a.rules.SanctionsReasoningThreshold {
		parts = append(parts, fmt.Sprintf("Sanctions risk is high (%.2f) - reduce exposure to sanctions-sensitive companies", geo.SanctionsRisk))
	}
	if len(rec.RiskyPositions) > 0 {
		parts = append(parts, "Reduce risky positions: "+a.symbolList(rec.RiskyPositions))
	}
	if len(rec.DefensivePositions) > 0 {
		parts = append(parts, "Keep or increase defensive positions: "+a.symbolList(rec.DefensivePositions))
	}
	var trimmed []string
	for _, t := range rec.Trades {
		if t.Action == types.OrderActionSell && a.ref.IsBlueChip(t.Symbol) {
			trimmed = append(trimmed, t.Symbol)
		}
	}
	if len(trimmed) > 0 {
		parts = append(parts, "Blue chips being trimmed: "+a.symbolList(trimmed))
	}
	return strings.Join(parts, ". ")
}

func (a *Advisor) recommendations(p *portfolio.Portfolio, rec *Recommendation) []string {
	var recs []string
	if cash := rec.CurrentAllocation[CashKey]; len(rec.CurrentAllocation) > 0 && cash+a.rules.TradeThresholdPercent < rec.CashTargetPercent {
		recs = append(recs, fmt.Sprintf("Raise cash from %.1f%% to %.1f%% of the portfolio", cash, rec.CashTargetPercent))
	}
	for _, t := range rec.Trades {
		recs = append(recs, fmt.Sprintf("%s %d %s at about %s RUB", t.Action, t.Quantity, t.Symbol, t.Price.Decimal.StringFixed(2)))
	}
	if len(rec.RiskyPositions) > 0 && rec.Urgency.Rank() >= types.RiskLevelHigh.Rank() {
		recs = append(recs, "Prioritize reducing risky positions: "+a.symbolList(rec.RiskyPositions))
	}
	if len(recs) == 0 {
		if p.Len() == 0 {
			recs = append(recs, "Portfolio holds no positions - nothing to rebalance")
		} else {
			recs = append(recs, "Portfolio allocation is within target ranges - no rebalancing required")
		}
	}
	return recs
}

func (a *Advisor) symbolList(symbols []string) string {
	if n := a.rules.ReasoningSymbolLimit; n > 0 && len(symbols) > n {
		symbols = symbols[:n]
	}
	return strings.Join(symbols, ", ")
}

func toSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
