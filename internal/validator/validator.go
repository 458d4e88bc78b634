// Package validator gates a single proposed order before it reaches a broker.
package validator

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ducminhle1904/moex-risk-engine/internal/compliance"
	"github.com/ducminhle1904/moex-risk-engine/internal/diversification"
	"github.com/ducminhle1904/moex-risk-engine/internal/errors"
	"github.com/ducminhle1904/moex-risk-engine/internal/geopolitical"
	"github.com/ducminhle1904/moex-risk-engine/internal/logger"
	"github.com/ducminhle1904/moex-risk-engine/internal/portfolio"
	"github.com/ducminhle1904/moex-risk-engine/internal/risk"
	"github.com/ducminhle1904/moex-risk-engine/pkg/types"
)

// MaxValidRiskScore is the exclusive upper bound of trade risk for an acceptable order
const MaxValidRiskScore = 0.8

// Request is everything one order check reads
type Request struct {
	Order          types.TradeOrder
	Portfolio      *portfolio.Portfolio
	MarketData     map[string]types.MarketData
	PriceHistories map[string][]decimal.Decimal
	// Assessment is the latest portfolio risk verdict, if the caller has one
	Assessment *risk.Assessment
	// Geopolitical sizes the recommended quantity of a BUY; nil sizes for NORMAL risk
	Geopolitical *geopolitical.RiskScore
	// News yields a sentiment-only geopolitical level when Geopolitical is nil
	News []types.NewsItem
	Now  time.Time
}

// Adjustments are the changes that would make a rejected order acceptable
type Adjustments struct {
	Quantity *int64             `json:"quantity,omitempty"`
	StopLoss decimal.NullDecimal `json:"stop_loss"`
}

// Result is the verdict for one order
type Result struct {
	Valid       bool               `json:"is_valid"`
	RiskScore   float64            `json:"risk_score"`
	Warnings    []string           `json:"warnings"`
	Errors      []string           `json:"errors"`
	Adjustments Adjustments        `json:"recommended_adjustments"`
	Compliance  *compliance.Report `json:"compliance,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`

	// RecommendedQuantity is the volatility and risk adjusted holding size for a BUY, in shares
	RecommendedQuantity *int64 `json:"recommended_quantity,omitempty"`
}

// OrderValidator combines compliance, diversification and trade risk into a single gate
type OrderValidator struct {
	compliance      *compliance.Validator
	diversification *diversification.Engine
	scorer          *risk.Scorer
	logger          *logger.Logger
}

// NewOrderValidator wires the component checks together
func NewOrderValidator(c *compliance.Validator, d *diversification.Engine, s *risk.Scorer, log *logger.Logger) (*OrderValidator, error) {
	if c == nil || d == nil || s == nil {
		return nil, errors.NewConfigurationError("validator", "compliance, diversification and risk components are required")
	}
	return &OrderValidator{
		compliance:      c,
		diversification: d,
		scorer:          s,
		logger:          logger.OrNop(log).With("validator"),
	}, nil
}

func rejected(now time.Time, warnings []string, msgs ...string) *Result {
	if warnings == nil {
		warnings = []string{}
	}
	return &Result{RiskScore: 1, Warnings: warnings, Errors: msgs, Timestamp: now}
}

// Validate checks one order. Rule failures are reported in the Result; only malformed input is an error.
func (v *OrderValidator) Validate(req Request) (*Result, error) {
	order := req.Order
	if err := order.Validate(); err != nil {
		return nil, err
	}
	if req.Portfolio == nil {
		return nil, errors.NewInvalidInput("validator", "validate", "portfolio is required").WithContext("symbol", order.Symbol)
	}
	if req.Assessment != nil {
		if err := req.Assessment.Validate(); err != nil {
			return nil, err
		}
	}
	if req.Geopolitical != nil {
		if err := req.Geopolitical.Validate(); err != nil {
			return nil, err
		}
	}

	md, ok := req.MarketData[order.Symbol]
	if !ok {
		v.logger.Info("rejecting %s %s: no market data", order.Action, order.Symbol)
		return rejected(req.Now, nil, fmt.Sprintf("No market data available for %s", order.Symbol)), nil
	}
	if err := md.Validate(); err != nil {
		return nil, err
	}

	report, err := v.compliance.ValidateOrder(order, req.Now)
	if err != nil {
		return nil, err
	}
	if !report.Valid {
		v.logger.Info("rejecting %s %d %s: compliance", order.Action, order.Quantity, order.Symbol)
		res := rejected(req.Now, append([]string(nil), report.Warnings...), report.Errors...)
		res.Compliance = report
		return res, nil
	}

	p := req.Portfolio
	price := md.Price
	if order.IsPriced() {
		price = order.Price.Decimal
	}
	history := req.PriceHistories[order.Symbol]

	res := &Result{
		Warnings:   append([]string{}, report.Warnings...),
		Errors:     []string{},
		Compliance: report,
		Timestamp:  req.Now,
	}

	if order.Action == types.OrderActionSell {
		var held int64
		if pos, ok := p.Position(order.Symbol); ok {
			held = pos.Quantity
		}
		if order.Quantity > held {
			v.logger.Info("rejecting SELL %d %s: %d held", order.Quantity, order.Symbol, held)
			out := rejected(req.Now, res.Warnings,
				fmt.Sprintf("Insufficient position in %s: hold %d, selling %d", order.Symbol, held, order.Quantity))
			out.Compliance = report
			return out, nil
		}
	}

	if order.Action == types.OrderActionBuy {
		required := price.Mul(decimal.NewFromInt(order.Quantity))
		if required.GreaterThan(p.Cash()) {
			res.Errors = append(res.Errors, fmt.Sprintf("Insufficient cash: order requires %s RUB, available %s RUB",
				required.StringFixed(2), p.Cash().StringFixed(2)))
		}
	}

	sector := ""
	if pos, held := p.Position(order.Symbol); held {
		sector = pos.Sector
	}
	after, err := p.Simulate(order, price, sector, req.Now)
	if err != nil {
		return nil, err
	}
	analysis := v.diversification.Analyze(after, req.PriceHistories, req.Now)
	v.routeViolations(res, order, p, price, analysis)

	if req.Assessment != nil && req.Assessment.Level == types.RiskLevelCritical {
		if order.Action == types.OrderActionBuy {
			res.Errors = append(res.Errors, "Portfolio risk level is CRITICAL - new buy orders not recommended")
		} else {
			res.Warnings = append(res.Warnings, "Consider reducing positions due to critical risk level")
		}
	}

	res.RiskScore = v.scorer.TradeRisk(order, after, md, history)
	res.Valid = len(res.Errors) == 0 && res.RiskScore < MaxValidRiskScore

	if order.Action == types.OrderActionBuy {
		if !order.StopLoss.Valid {
			stop, err := v.scorer.StopLoss(order.Symbol, price, history)
			if err != nil {
				return nil, err
			}
			res.Adjustments.StopLoss = decimal.NewNullDecimal(stop.Price)
		}

		level := types.GeoLevelNormal
		if req.Geopolitical != nil {
			level = req.Geopolitical.Level
		}
		vol := v.scorer.VolatilityProxy(&md, history)
		size, err := v.scorer.PositionSize(p.TotalValue(), price, &vol, level)
		if err != nil {
			return nil, err
		}
		size = v.compliance.RoundToLot(order.Symbol, size)
		res.RecommendedQuantity = &size
	}

	if res.Valid {
		v.logger.Debug("order %s %d %s accepted, risk %.2f", order.Action, order.Quantity, order.Symbol, res.RiskScore)
	} else {
		v.logger.Info("rejecting %s %d %s: %d errors, risk %.2f", order.Action, order.Quantity, order.Symbol,
			len(res.Errors), res.RiskScore)
	}
	return res, nil
}

// routeViolations turns post-trade diversification violations into errors, warnings and a quantity cap.
// A BUY that breaks its own position-size cap is an error at any severity. Violations that do not
// involve the traded symbol, and every violation on a SELL, are warnings.
func (v *OrderValidator) routeViolations(res *Result, order types.TradeOrder, before *portfolio.Portfolio, price decimal.Decimal, a *diversification.Analysis) {
	for _, viol := range a.Violations {
		involved := order.Action == types.OrderActionBuy && slices.Contains(viol.AffectedSymbols, order.Symbol)
		if !involved {
			res.Warnings = append(res.Warnings, viol.Description)
			continue
		}

		if viol.RuleType == diversification.RulePositionSize {
			qty := v.compliance.RoundToLot(order.Symbol, v.diversification.MaxAdditionalQuantity(before, order.Symbol, price))
			res.Adjustments.Quantity = &qty
			res.Errors = append(res.Errors, viol.Description)
			continue
		}

		if viol.Severity == types.RiskLevelCritical {
			res.Errors = append(res.Errors, viol.Description)
		} else {
			res.Warnings = append(res.Warnings, viol.Description)
		}
	}
}
