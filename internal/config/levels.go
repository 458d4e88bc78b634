package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ducminhle1904/moex-risk-engine/pkg/types"
)

// LevelValues holds one number per geopolitical level
type LevelValues struct {
	Normal   float64 `yaml:"normal" json:"normal"`
	Elevated float64 `yaml:"elevated" json:"elevated"`
	High     float64 `yaml:"high" json:"high"`
	Critical float64 `yaml:"critical" json:"critical"`
}

// For returns the value for a geopolitical level; unknown levels get the NORMAL value
func (v LevelValues) For(level types.GeoLevel) float64 {
	switch level {
	case types.GeoLevelElevated:
		return v.Elevated
	case types.GeoLevelHigh:
		return v.High
	case types.GeoLevelCritical:
		return v.Critical
	default:
		return v.Normal
	}
}

func (v LevelValues) values() []float64 {
	return []float64{v.Normal, v.Elevated, v.High, v.Critical}
}

// SeverityValues holds one number per severity
type SeverityValues struct {
	Low      float64 `yaml:"low" json:"low"`
	Medium   float64 `yaml:"medium" json:"medium"`
	High     float64 `yaml:"high" json:"high"`
	Critical float64 `yaml:"critical" json:"critical"`
}

// For returns the value for a severity; unknown severities get the LOW value
func (v SeverityValues) For(level types.RiskLevel) float64 {
	switch level {
	case types.RiskLevelMedium:
		return v.Medium
	case types.RiskLevelHigh:
		return v.High
	case types.RiskLevelCritical:
		return v.Critical
	default:
		return v.Low
	}
}

func (v SeverityValues) values() []float64 {
	return []float64{v.Low, v.Medium, v.High, v.Critical}
}

// TimeOfDay is a wall-clock time in exchange local time, written as "HH:MM" in YAML
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Minutes returns minutes since midnight
func (t TimeOfDay) Minutes() int { return t.Hour*60 + t.Minute }

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

// ParseTimeOfDay parses "HH:MM"
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var t TimeOfDay
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d:%d", &t.Hour, &t.Minute); err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
	}
	return t, nil
}

// MarshalYAML implements yaml.Marshaler
func (t TimeOfDay) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (t *TimeOfDay) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseTimeOfDay(node.Value)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
