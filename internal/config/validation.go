package config

import "github.com/ducminhle1904/moex-risk-engine/internal/errors"

// Validate checks every section; the first problem is returned as a configuration error
func (c *Config) Validate() error {
	checks := []func() error{
		c.Risk.Validate,
		c.RiskWeights.Validate,
		c.Geopolitical.Validate,
		c.Diversification.Validate,
		c.Penalties.Validate,
		c.Compliance.Validate,
		c.Rebalance.Validate,
		c.validateReference,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	if c.EventLog.Capacity <= 0 {
		return errors.NewConfigurationError("config", "event_log.capacity must be positive, got %d", c.EventLog.Capacity)
	}
	return nil
}

func percent(component, field string, v float64) error {
	if v != v || v <= 0 || v > 100 {
		return errors.NewConfigurationError(component, "%s must be within (0, 100], got %g", field, v)
	}
	return nil
}

func unit(component, field string, v float64) error {
	if v != v || v < 0 || v > 1 {
		return errors.NewConfigurationError(component, "%s must be within [0, 1], got %g", field, v)
	}
	return nil
}

func positive(component, field string, v float64) error {
	if v != v || v <= 0 {
		return errors.NewConfigurationError(component, "%s must be positive, got %g", field, v)
	}
	return nil
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Validate checks risk limits
func (p RiskParameters) Validate() error {
	const c = "risk_parameters"
	if err := firstError(
		percent(c, "max_position_percent", p.MaxPositionPercent),
		percent(c, "max_sector_percent", p.MaxSectorPercent),
		percent(c, "stop_loss_percent", p.StopLossPercent),
		percent(c, "max_drawdown_percent", p.MaxDrawdownPercent),
		positive(c, "volatility_adjustment_factor", p.VolatilityAdjustmentFactor),
		positive(c, "geopolitical_multiplier", p.GeopoliticalMultiplier),
		unit(c, "correlation_threshold", p.CorrelationThreshold),
		percent(c, "min_cash_reserve_percent", p.MinCashReservePercent),
		positive(c, "ruble_volatility_threshold", p.RubleVolatilityThreshold),
		positive(c, "sanctions_multiplier", p.SanctionsMultiplier),
		percent(c, "min_stop_loss_percent", p.MinStopLossPercent),
		percent(c, "max_stop_loss_percent", p.MaxStopLossPercent),
	); err != nil {
		return err
	}
	if p.MinStopLossPercent > p.MaxStopLossPercent {
		return errors.NewConfigurationError(c, "min_stop_loss_percent %g exceeds max_stop_loss_percent %g",
			p.MinStopLossPercent, p.MaxStopLossPercent)
	}
	if p.StopLossLookback < 1 {
		return errors.NewConfigurationError(c, "stop_loss_lookback must be at least 1, got %d", p.StopLossLookback)
	}
	return nil
}

// Validate checks scoring weights and thresholds
func (w RiskWeights) Validate() error {
	const c = "risk_weights"
	errs := []error{
		unit(c, "concentration", w.Concentration),
		unit(c, "volatility", w.Volatility),
		unit(c, "currency", w.Currency),
		unit(c, "geopolitical", w.Geopolitical),
		unit(c, "sector", w.Sector),
		unit(c, "medium_threshold", w.MediumThreshold),
		unit(c, "high_threshold", w.HighThreshold),
		unit(c, "critical_threshold", w.CriticalThreshold),
		unit(c, "default_currency_risk", w.DefaultCurrencyRisk),
		positive(c, "volatility_ceiling", w.VolatilityCeiling),
		positive(c, "trading_days_per_year", w.TradingDaysPerYear),
		unit(c, "reject_risk_score", w.RejectRiskScore),
	}
	for _, v := range w.GeopoliticalLevelScores.values() {
		errs = append(errs, unit(c, "geopolitical_level_scores", v))
	}
	for _, v := range w.PositionSizeMultipliers.values() {
		errs = append(errs, unit(c, "position_size_multipliers", v))
	}
	for _, v := range w.ParameterMultipliers.values() {
		errs = append(errs, positive(c, "parameter_multipliers", v))
	}
	if err := firstError(errs...); err != nil {
		return err
	}
	if !(w.MediumThreshold < w.HighThreshold && w.HighThreshold < w.CriticalThreshold) {
		return errors.NewConfigurationError(c, "level thresholds must be strictly increasing, got %g/%g/%g",
			w.MediumThreshold, w.HighThreshold, w.CriticalThreshold)
	}
	return nil
}

// Validate checks geopolitical weights
func (g GeopoliticalWeights) Validate() error {
	const c = "geopolitical_weights"
	errs := []error{
		unit(c, "sentiment", g.Sentiment),
		unit(c, "sanctions", g.Sanctions),
		unit(c, "policy", g.Policy),
		unit(c, "stress", g.Stress),
		unit(c, "news_sanctions_factor", g.NewsSanctionsFactor),
		unit(c, "news_policy_factor", g.NewsPolicyFactor),
		unit(c, "news_sector_factor", g.NewsSectorFactor),
		positive(c, "keyword_saturation", g.KeywordSaturation),
	}
	for _, sv := range []SeverityValues{g.SanctionsSeverity, g.PolicySeverity, g.SectorSeverity} {
		for _, v := range sv.values() {
			errs = append(errs, unit(c, "severity multiplier", v))
		}
	}
	if err := firstError(errs...); err != nil {
		return err
	}
	if g.MinKeywordMatches < 1 {
		return errors.NewConfigurationError(c, "min_keyword_matches must be at least 1, got %d", g.MinKeywordMatches)
	}
	if !(g.ElevatedThreshold < g.HighThreshold && g.HighThreshold < g.CriticalThreshold) {
		return errors.NewConfigurationError(c, "level thresholds must be strictly increasing, got %g/%g/%g",
			g.ElevatedThreshold, g.HighThreshold, g.CriticalThreshold)
	}
	if !(g.SentimentCritical < g.SentimentHigh && g.SentimentHigh < g.SentimentElevated) {
		return errors.NewConfigurationError(c, "sentiment thresholds must be strictly decreasing by level")
	}
	return nil
}

// Validate checks allocation limits
func (r DiversificationRules) Validate() error {
	const c = "diversification_rules"
	errs := []error{
		percent(c, "other_sector_limit", r.OtherSectorLimit),
		percent(c, "default_sector_limit", r.DefaultSectorLimit),
		percent(c, "large_cap_position_percent", r.LargeCapPositionPercent),
		percent(c, "mid_cap_position_percent", r.MidCapPositionPercent),
		percent(c, "small_cap_position_percent", r.SmallCapPositionPercent),
		unit(c, "correlation_threshold", r.CorrelationThreshold),
		percent(c, "correlated_pair_allocation_percent", r.CorrelatedPairAllocationPercent),
		percent(c, "max_state_owned_percent", r.MaxStateOwnedPercent),
		percent(c, "max_sanctions_sensitive_percent", r.MaxSanctionsSensitivePercent),
		percent(c, "max_high_risk_sectors_percent", r.MaxHighRiskSectorsPercent),
	}
	for _, sector := range sortedKeys(r.SectorLimits) {
		errs = append(errs, percent(c, "sector_limits."+sector, r.SectorLimits[sector]))
	}
	if err := firstError(errs...); err != nil {
		return err
	}
	if r.MaxCorrelatedPairs < 0 || r.MinPositions < 0 || r.MinSectors < 0 {
		return errors.NewConfigurationError(c, "counts cannot be negative")
	}
	if r.MinHistoryPoints < 3 {
		return errors.NewConfigurationError(c, "min_history_points must be at least 3, got %d", r.MinHistoryPoints)
	}
	return nil
}

// Validate checks the penalty schedule
func (p ScoringPenalties) Validate() error {
	const c = "scoring_penalties"
	errs := []error{
		unit(c, "many_positions_bonus", p.ManyPositionsBonus),
		unit(c, "some_positions_bonus", p.SomePositionsBonus),
		unit(c, "many_sectors_bonus", p.ManySectorsBonus),
		unit(c, "some_sectors_bonus", p.SomeSectorsBonus),
		unit(c, "small_max_position_bonus", p.SmallMaxPositionBonus),
		unit(c, "moderate_max_position_bonus", p.ModerateMaxPositionBonus),
		percent(c, "overweight_sector_percent", p.OverweightSectorPercent),
	}
	for _, v := range p.Severity.values() {
		errs = append(errs, unit(c, "severity penalty", v))
	}
	return firstError(errs...)
}

// Validate checks exchange rules
func (r ComplianceRules) Validate() error {
	const c = "compliance_rules"
	if r.UTCOffsetHours < -12 || r.UTCOffsetHours > 14 {
		return errors.NewConfigurationError(c, "utc_offset_hours out of range: %d", r.UTCOffsetHours)
	}
	if !(r.MainOpen.Minutes() < r.MainClose.Minutes() &&
		r.MainClose.Minutes() < r.EveningOpen.Minutes() &&
		r.EveningOpen.Minutes() < r.EveningClose.Minutes()) {
		return errors.NewConfigurationError(c, "sessions must be ordered: main %s-%s, evening %s-%s",
			r.MainOpen, r.MainClose, r.EveningOpen, r.EveningClose)
	}
	if r.SettlementDays < 0 {
		return errors.NewConfigurationError(c, "settlement_days cannot be negative, got %d", r.SettlementDays)
	}
	if err := firstError(
		positive(c, "min_order_value_rub", r.MinOrderValueRUB),
		positive(c, "min_currency_order_value_rub", r.MinCurrencyOrderValueRUB),
	); err != nil {
		return err
	}
	if r.StockLotSize <= 0 || r.BondLotSize <= 0 || r.ETFLotSize <= 0 || r.CurrencyLotSize <= 0 {
		return errors.NewConfigurationError(c, "default lot sizes must be positive")
	}
	if r.LargeOrderQuantity <= 0 {
		return errors.NewConfigurationError(c, "large_order_quantity must be positive, got %d", r.LargeOrderQuantity)
	}
	return nil
}

// Validate checks rebalance rules
func (r RebalanceRules) Validate() error {
	const c = "rebalance_rules"
	targets := r.CashTargets.values()
	for i, v := range targets {
		if v < 0 || v > 100 {
			return errors.NewConfigurationError(c, "cash targets must be within [0, 100], got %g", v)
		}
		if i > 0 && v < targets[i-1] {
			return errors.NewConfigurationError(c, "cash targets must not decrease as risk rises")
		}
	}
	return firstError(
		unit(c, "defensive_risk_ceiling", r.DefensiveRiskCeiling),
		unit(c, "risky_risk_floor", r.RiskyRiskFloor),
		positive(c, "trade_threshold_percent", r.TradeThresholdPercent),
		unit(c, "risk_reduction_base", r.RiskReductionBase),
		unit(c, "risk_reduction_max", r.RiskReductionMax),
	)
}

func (c *Config) validateReference() error {
	for _, symbol := range sortedKeys(c.Reference.LotSizes) {
		if c.Reference.LotSizes[symbol] <= 0 {
			return errors.NewConfigurationError("reference", "lot size for %s must be positive, got %d",
				symbol, c.Reference.LotSizes[symbol])
		}
	}
	return nil
}
