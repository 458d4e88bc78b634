package types

import "fmt"

// RiskLevel grades portfolio risk, violation severity and rebalance urgency
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "LOW"
	RiskLevelMedium   RiskLevel = "MEDIUM"
	RiskLevelHigh     RiskLevel = "HIGH"
	RiskLevelCritical RiskLevel = "CRITICAL"
)

// Rank orders risk levels from 0 (LOW) to 3 (CRITICAL); unknown values rank -1
func (l RiskLevel) Rank() int {
	switch l {
	case RiskLevelLow:
		return 0
	case RiskLevelMedium:
		return 1
	case RiskLevelHigh:
		return 2
	case RiskLevelCritical:
		return 3
	default:
		return -1
	}
}

// Valid reports whether l is one of the known levels
func (l RiskLevel) Valid() bool { return l.Rank() >= 0 }

// ParseRiskLevel converts a string into a RiskLevel
func ParseRiskLevel(s string) (RiskLevel, error) {
	l := RiskLevel(s)
	if !l.Valid() {
		return "", fmt.Errorf("unknown risk level %q", s)
	}
	return l, nil
}

// GeoLevel is the geopolitical risk classification
type GeoLevel string

const (
	GeoLevelNormal   GeoLevel = "NORMAL"
	GeoLevelElevated GeoLevel = "ELEVATED"
	GeoLevelHigh     GeoLevel = "HIGH"
	GeoLevelCritical GeoLevel = "CRITICAL"
)

// GeoLevels lists all geopolitical levels in ascending order
var GeoLevels = []GeoLevel{GeoLevelNormal, GeoLevelElevated, GeoLevelHigh, GeoLevelCritical}

// Rank orders geopolitical levels from 0 (NORMAL) to 3 (CRITICAL); unknown values rank -1
func (l GeoLevel) Rank() int {
	switch l {
	case GeoLevelNormal:
		return 0
	case GeoLevelElevated:
		return 1
	case GeoLevelHigh:
		return 2
	case GeoLevelCritical:
		return 3
	default:
		return -1
	}
}

// Valid reports whether l is one of the known levels
func (l GeoLevel) Valid() bool { return l.Rank() >= 0 }

// Urgency maps a geopolitical level 1:1 onto the risk scale
func (l GeoLevel) Urgency() RiskLevel {
	switch l {
	case GeoLevelElevated:
		return RiskLevelMedium
	case GeoLevelHigh:
		return RiskLevelHigh
	case GeoLevelCritical:
		return RiskLevelCritical
	default:
		return RiskLevelLow
	}
}

// ParseGeoLevel converts a string into a GeoLevel
func ParseGeoLevel(s string) (GeoLevel, error) {
	l := GeoLevel(s)
	if !l.Valid() {
		return "", fmt.Errorf("unknown geopolitical level %q", s)
	}
	return l, nil
}
