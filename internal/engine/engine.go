// Package engine runs a full risk and compliance decision cycle over one portfolio snapshot.
package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ducminhle1904/moex-risk-engine/internal/compliance"
	"github.com/ducminhle1904/moex-risk-engine/internal/config"
	"github.com/ducminhle1904/moex-risk-engine/internal/diversification"
	"github.com/ducminhle1904/moex-risk-engine/internal/errors"
	"github.com/ducminhle1904/moex-risk-engine/internal/geopolitical"
	"github.com/ducminhle1904/moex-risk-engine/internal/logger"
	"github.com/ducminhle1904/moex-risk-engine/internal/monitoring"
	"github.com/ducminhle1904/moex-risk-engine/internal/portfolio"
	"github.com/ducminhle1904/moex-risk-engine/internal/rebalance"
	"github.com/ducminhle1904/moex-risk-engine/internal/risk"
	"github.com/ducminhle1904/moex-risk-engine/internal/validator"
	"github.com/ducminhle1904/moex-risk-engine/pkg/types"
)

// Timer starts a measurement; calling the returned func reports the elapsed time
type Timer func() func() time.Duration

// NoTimer measures nothing
func NoTimer() func() time.Duration {
	return func() time.Duration { return 0 }
}

// WallTimer measures with the system clock
func WallTimer() func() time.Duration {
	start := time.Now()
	return func() time.Duration { return time.Since(start) }
}

// Options are the optional collaborators of an Engine
type Options struct {
	Metrics *monitoring.Metrics
	Timer   Timer
}

// Snapshot is everything one decision cycle reads
type Snapshot struct {
	Portfolio      *portfolio.Portfolio
	MarketData     map[string]types.MarketData
	PriceHistories map[string][]decimal.Decimal
	News           []types.NewsItem
	Events         []geopolitical.Event
	// RubleVolatilityPercent is the daily RUB volatility; nil uses the configured default currency risk
	RubleVolatilityPercent *float64
	Now                    time.Time
}

// Decision is the output of one cycle
type Decision struct {
	Geopolitical       *geopolitical.RiskScore   `json:"geopolitical"`
	Risk               *risk.Assessment          `json:"risk"`
	Diversification    *diversification.Analysis `json:"diversification"`
	Rebalance          *rebalance.Recommendation `json:"rebalance"`
	TradeCompliance    []*compliance.Report      `json:"trade_compliance"`
	AdjustedParameters config.RiskParameters     `json:"adjusted_parameters"`
	Timestamp          time.Time                 `json:"timestamp"`
}

// Engine wires every component from one configuration
type Engine struct {
	cfg    *config.Config
	ref    *config.ReferenceData
	base   *logger.Logger
	logger *logger.Logger

	compliance      *compliance.Validator
	diversification *diversification.Engine
	assessor        *geopolitical.Assessor
	scorer          *risk.Scorer
	advisor         *rebalance.Advisor
	orders          *validator.OrderValidator
	events          *geopolitical.EventLog

	metrics *monitoring.Metrics
	timer   Timer
}

// New validates cfg and builds the components
func New(cfg *config.Config, log *logger.Logger, opts Options) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log = logger.OrNop(log)
	ref := cfg.ReferenceData()

	e := &Engine{cfg: cfg, ref: ref, base: log, logger: log.With("engine"), metrics: opts.Metrics, timer: opts.Timer}
	if e.timer == nil {
		e.timer = NoTimer
	}

	var err error
	if e.compliance, err = compliance.NewValidator(cfg.Compliance, ref, log); err != nil {
		return nil, err
	}
	if e.diversification, err = diversification.NewEngine(cfg.Diversification, cfg.Penalties, ref, log); err != nil {
		return nil, err
	}
	if e.assessor, err = geopolitical.NewAssessor(cfg.Geopolitical, log); err != nil {
		return nil, err
	}
	if e.scorer, err = risk.NewScorer(cfg.Risk, cfg.RiskWeights, ref, log); err != nil {
		return nil, err
	}
	if e.advisor, err = rebalance.NewAdvisor(cfg.Rebalance, ref, e.compliance, log); err != nil {
		return nil, err
	}
	if e.orders, err = validator.NewOrderValidator(e.compliance, e.diversification, e.scorer, log); err != nil {
		return nil, err
	}
	if e.events, err = geopolitical.NewEventLog(cfg.EventLog.Capacity); err != nil {
		return nil, err
	}
	return e, nil
}

// Config returns the configuration the engine was built from
func (e *Engine) Config() *config.Config { return e.cfg }

// Compliance exposes the session calendar and exchange rules
func (e *Engine) Compliance() *compliance.Validator { return e.compliance }

// Scorer exposes the risk scorer
func (e *Engine) Scorer() *risk.Scorer { return e.scorer }

// Events is the bounded log of recorded geopolitical events
func (e *Engine) Events() *geopolitical.EventLog { return e.events }

// RecordEvent stores an event for later cycles
func (e *Engine) RecordEvent(ev geopolitical.Event) (geopolitical.Event, error) {
	stored, err := e.events.Add(ev)
	if err != nil {
		e.fail(err)
		return geopolitical.Event{}, err
	}
	e.logger.Debug("recorded %s event %s", stored.Type, stored.ID)
	return stored, nil
}

func (e *Engine) fail(err error) {
	e.metrics.RecordError(string(errors.CategoryOf(err)))
}

// Evaluate runs geopolitical assessment, risk scoring, diversification analysis and rebalancing.
// Recorded events are assessed together with the snapshot's own events.
func (e *Engine) Evaluate(s Snapshot) (*Decision, error) {
	stop := e.timer()
	d, err := e.evaluate(s)
	if err != nil {
		e.fail(err)
		e.logger.LogError("evaluate", err)
		return nil, err
	}
	e.metrics.RecordEvaluation(d.Risk.Level, d.Risk.Score, d.Geopolitical.Level, d.Geopolitical.Score, stop())
	e.metrics.RecordViolations(d.Diversification.CountBySeverity())
	e.logger.Info("decision: risk %s (%.2f), geopolitical %s (%.2f), %d violations, %d trades",
		d.Risk.Level, d.Risk.Score, d.Geopolitical.Level, d.Geopolitical.Score,
		len(d.Diversification.Violations), len(d.Rebalance.Trades))
	return d, nil
}

func (e *Engine) evaluate(s Snapshot) (*Decision, error) {
	if s.Portfolio == nil {
		return nil, errors.NewInvalidInput("engine", "evaluate", "portfolio is required")
	}

	events := append(e.events.All(), s.Events...)
	geo, err := e.assessor.Assess(s.News, events, s.Now)
	if err != nil {
		return nil, err
	}

	var currency *float64
	if s.RubleVolatilityPercent != nil {
		c, err := e.scorer.CurrencyRiskFromVolatility(*s.RubleVolatilityPercent)
		if err != nil {
			return nil, err
		}
		currency = &c
	}
	assessment, err := e.scorer.Assess(risk.Inputs{
		Portfolio:      s.Portfolio,
		MarketData:     s.MarketData,
		PriceHistories: s.PriceHistories,
		CurrencyRisk:   currency,
		GeoLevel:       geo.Level,
		Now:            s.Now,
	})
	if err != nil {
		return nil, err
	}

	analysis := e.diversification.Analyze(s.Portfolio, s.PriceHistories, s.Now)

	plan, err := e.advisor.Recommend(s.Portfolio, geo, s.MarketData, s.Now)
	if err != nil {
		return nil, err
	}

	// rebalance trades are market orders, so only lot and session rules apply
	checks := make([]*compliance.Report, 0, len(plan.Trades))
	for _, t := range plan.Trades {
		report, err := e.compliance.ValidateOrder(t, s.Now)
		if err != nil {
			return nil, err
		}
		checks = append(checks, report)
	}

	return &Decision{
		Geopolitical:       geo,
		Risk:               assessment,
		Diversification:    analysis,
		Rebalance:          plan,
		TradeCompliance:    checks,
		AdjustedParameters: e.scorer.AdjustParameters(geo),
		Timestamp:          s.Now,
	}, nil
}

// ValidateOrder gates one order. Under elevated geopolitical risk the order is checked against the
// adjusted risk limits; without an assessment the level comes from the request's news sentiment alone.
func (e *Engine) ValidateOrder(req validator.Request) (*validator.Result, error) {
	orders, err := e.ordersFor(&req)
	if err != nil {
		e.fail(err)
		return nil, err
	}
	res, err := orders.Validate(req)
	if err != nil {
		e.fail(err)
		return nil, err
	}
	e.metrics.RecordOrderValidation(res.Valid)
	return res, nil
}

func (e *Engine) ordersFor(req *validator.Request) (*validator.OrderValidator, error) {
	if req.Geopolitical == nil && len(req.News) > 0 {
		geo := geopolitical.Neutral(req.Now)
		geo.Level = e.assessor.LevelFromSentiment(req.News)
		req.Geopolitical = geo
	}
	geo := req.Geopolitical
	if geo == nil || geo.Level == types.GeoLevelNormal {
		return e.orders, nil
	}
	if err := geo.Validate(); err != nil {
		return nil, err
	}

	scorer, err := e.scorer.WithParameters(e.scorer.AdjustParameters(geo))
	if err != nil {
		return nil, err
	}
	e.logger.Debug("validating order under %s geopolitical risk", geo.Level)
	return validator.NewOrderValidator(e.compliance, e.diversification, scorer, e.base)
}
