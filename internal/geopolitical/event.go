package geopolitical

import (
	"time"

	"github.com/ducminhle1904/moex-risk-engine/internal/errors"
	"github.com/ducminhle1904/moex-risk-engine/pkg/types"
)

// EventType classifies a geopolitical event
type EventType string

const (
	EventSanctions    EventType = "SANCTIONS"
	EventPolicyChange EventType = "POLICY_CHANGE"
	EventConflict     EventType = "CONFLICT"
	EventDiplomatic   EventType = "DIPLOMATIC"
	EventEconomic     EventType = "ECONOMIC"
)

// Valid reports whether t is a known event type
func (t EventType) Valid() bool {
	switch t {
	case EventSanctions, EventPolicyChange, EventConflict, EventDiplomatic, EventEconomic:
		return true
	}
	return false
}

// Event is a geopolitical development that may move the Russian market
type Event struct {
	ID              string          `json:"id" yaml:"id"`
	Type            EventType       `json:"type" yaml:"type"`
	Severity        types.RiskLevel `json:"severity" yaml:"severity"`
	Description     string          `json:"description" yaml:"description"`
	AffectedSectors []string        `json:"affected_sectors,omitempty" yaml:"affected_sectors,omitempty"`
	AffectedStocks  []string        `json:"affected_stocks,omitempty" yaml:"affected_stocks,omitempty"`
	Start           time.Time       `json:"start" yaml:"start"`
	End             *time.Time      `json:"end,omitempty" yaml:"end,omitempty"`
	ImpactScore     float64         `json:"impact_score" yaml:"impact_score"`
	Confidence      float64         `json:"confidence" yaml:"confidence"`
	Source          string          `json:"source,omitempty" yaml:"source,omitempty"`
}

// Validate checks the event type, severity and score ranges
func (e Event) Validate() error {
	if !e.Type.Valid() {
		return errors.NewInvalidInput("geopolitical", "validate_event", "unknown event type %q", e.Type).
			WithContext("event_id", e.ID)
	}
	if !e.Severity.Valid() {
		return errors.NewInvalidInput("geopolitical", "validate_event", "unknown severity %q", e.Severity).
			WithContext("event_id", e.ID)
	}
	if e.End != nil && e.End.Before(e.Start) {
		return errors.NewInvalidInput("geopolitical", "validate_event", "event ends before it starts").
			WithContext("event_id", e.ID)
	}
	if err := errors.RangeCheck("geopolitical", "impact_score", e.ImpactScore, 0, 1); err != nil {
		return err
	}
	return errors.RangeCheck("geopolitical", "confidence", e.Confidence, 0, 1)
}

// IsActive reports whether the event is in effect at now
func (e Event) IsActive(now time.Time) bool {
	if now.Before(e.Start) {
		return false
	}
	return e.End == nil || !now.After(*e.End)
}

// Affects reports whether the event names sector among its affected sectors
func (e Event) Affects(sector string) bool {
	for _, s := range e.AffectedSectors {
		if s == sector {
			return true
		}
	}
	return false
}

// weightedImpact is impact × severity multiplier × confidence
func (e Event) weightedImpact(multiplier float64) float64 {
	return e.ImpactScore * multiplier * e.Confidence
}
