package geopolitical

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ducminhle1904/moex-risk-engine/internal/config"
	"github.com/ducminhle1904/moex-risk-engine/internal/errors"
	"github.com/ducminhle1904/moex-risk-engine/internal/logger"
	"github.com/ducminhle1904/moex-risk-engine/internal/stats"
	"github.com/ducminhle1904/moex-risk-engine/pkg/types"
)

// Sectors tracked by the assessor
const (
	SectorEnergy             = "ENERGY"
	SectorBanking            = "BANKING"
	SectorTechnology         = "TECHNOLOGY"
	SectorMetals             = "METALS"
	SectorTelecommunications = "TELECOMMUNICATIONS"
	SectorRetail             = "RETAIL"
	SectorTransportation     = "TRANSPORTATION"
)

// Sectors lists the tracked sectors in report order
var Sectors = []string{
	SectorEnergy, SectorBanking, SectorTechnology, SectorMetals,
	SectorTelecommunications, SectorRetail, SectorTransportation,
}

// Market stress indicator names
const (
	StressVolatility  = "volatility_mentions"
	StressCrisis      = "crisis_mentions"
	StressUncertainty = "uncertainty_mentions"
	StressPanic       = "panic_mentions"
)

// StressIndicators lists the stress indicators in report order
var StressIndicators = []string{StressVolatility, StressCrisis, StressUncertainty, StressPanic}

// RiskScore is the combined geopolitical assessment
type RiskScore struct {
	Level            types.GeoLevel     `json:"overall_risk_level"`
	Score            float64            `json:"risk_score"`
	ActiveEvents     []Event            `json:"active_events"`
	NewsSentiment    float64            `json:"news_sentiment_score"`
	SanctionsRisk    float64            `json:"sanctions_risk_score"`
	PolicyRisk       float64            `json:"policy_risk_score"`
	StressIndicators map[string]float64 `json:"market_stress_indicators"`
	SectorRisks      map[string]float64 `json:"sector_specific_risks"`
	Recommendations  []string           `json:"recommendations"`
	Timestamp        time.Time          `json:"timestamp"`
}

// Neutral is the conservative default used when no news or events could be gathered
func Neutral(now time.Time) *RiskScore {
	stress := make(map[string]float64, len(StressIndicators))
	for _, s := range StressIndicators {
		stress[s] = 0
	}
	sectors := make(map[string]float64, len(Sectors))
	for _, s := range Sectors {
		sectors[s] = 0
	}
	return &RiskScore{
		Level:            types.GeoLevelNormal,
		StressIndicators: stress,
		SectorRisks:      sectors,
		Recommendations:  levelRecommendations(types.GeoLevelNormal),
		Timestamp:        now,
	}
}

// Validate range-checks every score in r
func (r *RiskScore) Validate() error {
	if !r.Level.Valid() {
		return errors.NewInvalidInput("geopolitical", "validate_score", "unknown risk level %q", r.Level)
	}
	checks := []struct {
		field    string
		v        float64
		min, max float64
	}{
		{"risk_score", r.Score, 0, 1},
		{"news_sentiment_score", r.NewsSentiment, -1, 1},
		{"sanctions_risk_score", r.SanctionsRisk, 0, 1},
		{"policy_risk_score", r.PolicyRisk, 0, 1},
	}
	for _, c := range checks {
		if err := errors.RangeCheck("geopolitical", c.field, c.v, c.min, c.max); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(r.StressIndicators) {
		if err := errors.RangeCheck("geopolitical", name, r.StressIndicators[name], 0, 1); err != nil {
			return err
		}
	}
	for _, sector := range sortedKeys(r.SectorRisks) {
		if err := errors.RangeCheck("geopolitical", "sector_risk."+sector, r.SectorRisks[sector], 0, 1); err != nil {
			return err
		}
	}
	return nil
}

// SectorRisk returns the risk for a tracked sector
func (r *RiskScore) SectorRisk(sector string) (float64, bool) {
	v, ok := r.SectorRisks[sector]
	return v, ok
}

// HighRiskSectors lists tracked sectors whose risk exceeds threshold, in report order
func (r *RiskScore) HighRiskSectors(threshold float64) []string {
	var out []string
	for _, s := range Sectors {
		if r.SectorRisks[s] > threshold {
			out = append(out, s)
		}
	}
	return out
}

// Assessor scores geopolitical risk from scored news and events
type Assessor struct {
	weights config.GeopoliticalWeights
	logger  *logger.Logger
}

// NewAssessor creates an assessor; weights are validated up front
func NewAssessor(weights config.GeopoliticalWeights, log *logger.Logger) (*Assessor, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &Assessor{weights: weights, logger: logger.OrNop(log).With("geopolitical")}, nil
}

// Weights returns the configured weights
func (a *Assessor) Weights() config.GeopoliticalWeights { return a.weights }

// article is a news item with its lowercased text
type article struct {
	item types.NewsItem
	text string
}

// Assess runs the full assessment over news and the events active at now
func (a *Assessor) Assess(news []types.NewsItem, events []Event, now time.Time) (*RiskScore, error) {
	articles := make([]article, 0, len(news))
	for i, n := range news {
		if err := n.Validate(); err != nil {
			return nil, errors.Wrap(err, errors.ErrorCategoryInvalidInput, "geopolitical", "assess").
				WithContext("news_index", i)
		}
		articles = append(articles, article{item: n, text: strings.ToLower(n.Text())})
	}

	var active []Event
	for _, e := range events {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		if e.IsActive(now) {
			active = append(active, e)
		}
	}

	w := a.weights
	sentiment := a.newsSentiment(articles)
	sanctions := a.sanctionsRisk(articles, active)
	policy := a.policyRisk(articles, active)
	stress := a.stressIndicators(articles)
	sectors := a.sectorRisks(articles, active)

	maxStress := 0.0
	for _, name := range StressIndicators {
		maxStress = math.Max(maxStress, stress[name])
	}
	score := stats.Clamp01(math.Abs(sentiment)*w.Sentiment + sanctions*w.Sanctions + policy*w.Policy + maxStress*w.Stress)
	level := a.LevelForScore(score)

	result := &RiskScore{
		Level:            level,
		Score:            score,
		ActiveEvents:     active,
		NewsSentiment:    sentiment,
		SanctionsRisk:    sanctions,
		PolicyRisk:       policy,
		StressIndicators: stress,
		SectorRisks:      sectors,
		Timestamp:        now,
	}
	result.Recommendations = a.recommendations(result)

	a.logger.Debug("geopolitical risk %s (%.3f): sentiment=%.3f sanctions=%.3f policy=%.3f stress=%.3f, %d active events",
		level, score, sentiment, sanctions, policy, maxStress, len(active))
	return result, nil
}

// newsSentiment averages the weighted sentiment of articles with enough geopolitical keywords
func (a *Assessor) newsSentiment(articles []article) float64 {
	var sum float64
	var n int
	for _, art := range articles {
		count := countKeywords(art.text, geopoliticalKeywords)
		if count < a.weights.MinKeywordMatches {
			continue
		}
		weight := art.item.Confidence * math.Min(float64(count)/a.weights.KeywordSaturation, 1)
		sum += art.item.SentimentScore * weight
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func (a *Assessor) sanctionsRisk(articles []article, active []Event) float64 {
	risk := 0.0
	for _, e := range active {
		if e.Type == EventSanctions {
			risk = math.Max(risk, e.weightedImpact(a.weights.SanctionsSeverity.For(e.Severity)))
		}
	}
	if len(articles) > 0 {
		mentions := 0
		for _, art := range articles {
			if containsAny(art.text, sanctionsKeywords) {
				mentions++
			}
		}
		news := math.Min(float64(mentions)/float64(len(articles)), 1)
		risk = math.Max(risk, news*a.weights.NewsSanctionsFactor)
	}
	return math.Min(risk, 1)
}

func (a *Assessor) policyRisk(articles []article, active []Event) float64 {
	risk := 0.0
	for _, e := range active {
		if e.Type == EventPolicyChange || e.Type == EventEconomic {
			risk = math.Max(risk, e.weightedImpact(a.weights.PolicySeverity.For(e.Severity)))
		}
	}
	mentions, negative := 0, 0
	for _, art := range articles {
		if !containsAny(art.text, policyKeywords) {
			continue
		}
		mentions++
		if containsAny(art.text, policyNegativeKeywords) {
			negative++
		}
	}
	if mentions > 0 {
		risk = math.Max(risk, float64(negative)/float64(mentions)*a.weights.NewsPolicyFactor)
	}
	return math.Min(risk, 1)
}

func (a *Assessor) stressIndicators(articles []article) map[string]float64 {
	out := make(map[string]float64, len(StressIndicators))
	for _, name := range StressIndicators {
		out[name] = 0
		if len(articles) == 0 {
			continue
		}
		mentions := 0
		for _, art := range articles {
			if containsAny(art.text, stressKeywords[name]) {
				mentions++
			}
		}
		out[name] = float64(mentions) / float64(len(articles))
	}
	return out
}

func (a *Assessor) sectorRisks(articles []article, active []Event) map[string]float64 {
	out := make(map[string]float64, len(Sectors))
	for _, sector := range Sectors {
		risk := 0.0
		for _, e := range active {
			if e.Affects(sector) {
				risk = math.Max(risk, e.weightedImpact(a.weights.SectorSeverity.For(e.Severity)))
			}
		}
		mentions, negative := 0, 0
		for _, art := range articles {
			if !containsAny(art.text, sectorKeywords[sector]) {
				continue
			}
			mentions++
			if containsAny(art.text, sectorNegativeKeywords) {
				negative++
			}
		}
		if mentions > 0 {
			risk = math.Max(risk, float64(negative)/float64(mentions)*a.weights.NewsSectorFactor)
		}
		out[sector] = math.Min(risk, 1)
	}
	return out
}

// LevelForScore maps an overall score onto a level
func (a *Assessor) LevelForScore(score float64) types.GeoLevel {
	switch {
	case score < a.weights.ElevatedThreshold:
		return types.GeoLevelNormal
	case score < a.weights.HighThreshold:
		return types.GeoLevelElevated
	case score < a.weights.CriticalThreshold:
		return types.GeoLevelHigh
	default:
		return types.GeoLevelCritical
	}
}

// LevelFromSentiment derives a level from the plain average sentiment of news.
// It is the fallback when no full assessment is available.
func (a *Assessor) LevelFromSentiment(news []types.NewsItem) types.GeoLevel {
	if len(news) == 0 {
		return types.GeoLevelNormal
	}
	var sum float64
	for _, n := range news {
		sum += n.SentimentScore
	}
	return LevelFromSentiment(sum/float64(len(news)), a.weights)
}

// LevelFromSentiment maps an average sentiment onto a level
func LevelFromSentiment(avg float64, w config.GeopoliticalWeights) types.GeoLevel {
	switch {
	case avg < w.SentimentCritical:
		return types.GeoLevelCritical
	case avg < w.SentimentHigh:
		return types.GeoLevelHigh
	case avg < w.SentimentElevated:
		return types.GeoLevelElevated
	default:
		return types.GeoLevelNormal
	}
}

func levelRecommendations(level types.GeoLevel) []string {
	switch level {
	case types.GeoLevelCritical:
		return []string{
			"Critical geopolitical risk - move to maximally defensive positioning",
			"Raise the cash position to 40-50% of the portfolio",
			"Suspend new long positions until the situation stabilizes",
		}
	case types.GeoLevelHigh:
		return []string{
			"High geopolitical risk - reduce exposure to risky assets",
			"Raise the cash position to 25-30% of the portfolio",
			"Tighten stop-losses on open positions",
		}
	case types.GeoLevelElevated:
		return []string{
			"Elevated geopolitical risk - monitor positions closely",
			"Keep 15-20% of the portfolio in cash",
			"Avoid opening large new positions",
		}
	default:
		return []string{"Geopolitical background is normal - follow the standard strategy"}
	}
}

func (a *Assessor) recommendations(r *RiskScore) []string {
	recs := levelRecommendations(r.Level)
	if r.SanctionsRisk > a.weights.SanctionsAlert {
		recs = append(recs,
			"High sanctions risk - reduce positions in sanctions-sensitive companies",
			"Favor companies with low exposure to Western markets",
			"Review holdings for exposure to sanctioned entities",
		)
	}
	if r.PolicyRisk > a.weights.PolicyAlert {
		recs = append(recs,
			"Elevated regulatory risk - watch key rate and policy decisions",
			"Reduce positions in heavily regulated sectors",
		)
	}
	if high := r.HighRiskSectors(a.weights.SectorAlert); len(high) > 0 {
		recs = append(recs, fmt.Sprintf("High sector risk in: %s - reduce exposure to these sectors", strings.Join(high, ", ")))
	}
	return recs
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
