package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/moex-risk-engine/internal/errors"
	"github.com/ducminhle1904/moex-risk-engine/pkg/types"
)

// TestDefault_IsValid tests that built-in defaults pass validation
func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 10.0, cfg.Risk.MaxPositionPercent)
	assert.Equal(t, 25.0, cfg.Diversification.SectorLimits[SectorEnergy])
	assert.Equal(t, 0.35, cfg.Geopolitical.Sanctions)
	assert.Equal(t, 50.0, cfg.Rebalance.CashTargets.For(types.GeoLevelCritical))
}

// TestParse_OverlaysDefaults tests that YAML overrides only the named fields
func TestParse_OverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
risk:
  max_position_percent: 7.5
diversification:
  sector_limits:
    ENERGY: 30
compliance:
  main_open: "09:50"
reference:
  lot_sizes:
    TEST: 5
`))
	require.NoError(t, err)

	assert.Equal(t, 7.5, cfg.Risk.MaxPositionPercent)
	assert.Equal(t, 30.0, cfg.Risk.MaxSectorPercent)
	assert.Equal(t, 30.0, cfg.Diversification.SectorLimits[SectorEnergy])
	assert.Equal(t, 20.0, cfg.Diversification.SectorLimits[SectorFinancial])
	assert.Equal(t, TimeOfDay{Hour: 9, Minute: 50}, cfg.Compliance.MainOpen)

	lot, ok := cfg.ReferenceData().LotSize("TEST")
	assert.True(t, ok)
	assert.Equal(t, int64(5), lot)
}

// TestParse_InvalidValues tests that malformed parameters fail as configuration errors
func TestParse_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"negative position limit", "risk:\n  max_position_percent: -1\n"},
		{"percent above 100", "risk:\n  max_sector_percent: 120\n"},
		{"inverted stop clamp", "risk:\n  min_stop_loss_percent: 30\n"},
		{"weight above one", "risk_weights:\n  concentration: 1.5\n"},
		{"unordered sessions", "compliance:\n  main_close: \"20:00\"\n"},
		{"decreasing cash targets", "rebalance:\n  cash_targets:\n    high: 5\n"},
		{"zero event log", "event_log:\n  capacity: 0\n"},
		{"bad lot override", "reference:\n  lot_sizes:\n    TEST: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.IsConfiguration(err), "expected configuration error, got %v", err)
		})
	}
}

// TestParse_MalformedYAML tests that syntax errors are wrapped as configuration errors
func TestParse_MalformedYAML(t *testing.T) {
	_, err := Parse([]byte("risk: [unclosed"))
	assert.True(t, errors.IsConfiguration(err))
}

// TestLoadFile_RoundTrip tests that a marshalled config loads back unchanged
func TestLoadFile_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Risk.StopLossPercent = 6
	data, err := cfg.Marshal()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, data, 0644))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

// TestApplyEnv tests environment overrides
func TestApplyEnv(t *testing.T) {
	t.Setenv("MOEX_MAX_POSITION_PERCENT", "12.5")
	t.Setenv("MOEX_MIN_POSITIONS", "8")
	t.Setenv("MOEX_LOG_LEVEL", "debug")
	t.Setenv("MOEX_STOP_LOSS_PERCENT", "not-a-number")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, 12.5, cfg.Risk.MaxPositionPercent)
	assert.Equal(t, 8, cfg.Diversification.MinPositions)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 5.0, cfg.Risk.StopLossPercent)
}

// TestReferenceData_Lookups tests the built-in reference tables
func TestReferenceData_Lookups(t *testing.T) {
	ref := DefaultReferenceData()

	lot, ok := ref.LotSize("SBER")
	assert.True(t, ok)
	assert.Equal(t, int64(10), lot)

	_, ok = ref.LotSize("UNKNOWN")
	assert.False(t, ok)

	sector, ok := ref.Sector("GAZP")
	assert.True(t, ok)
	assert.Equal(t, SectorEnergy, sector)

	assert.Equal(t, CapTierLarge, ref.CapTier("SBER"))
	assert.Equal(t, CapTierMid, ref.CapTier("AFLT"))
	assert.Equal(t, CapTierSmall, ref.CapTier("ABRD"))
	assert.True(t, ref.IsStateOwned("VTBR"))
	assert.True(t, ref.IsSanctionsSensitive("GMKN"))
	assert.False(t, ref.IsSanctionsSensitive("YNDX"))
	assert.True(t, ref.IsBlueChip("MGNT"))
}

// TestReferenceData_TierOverride tests moving a symbol between cap tiers
func TestReferenceData_TierOverride(t *testing.T) {
	ref := NewReferenceData(ReferenceOverrides{LargeCap: []string{"AFLT"}})
	assert.Equal(t, CapTierLarge, ref.CapTier("AFLT"))

	assert.Equal(t, CapTierSmall, DefaultReferenceData().CapTier("ABRD"))
}

// TestDiversificationRules_SectorLimit tests limit fallbacks
func TestDiversificationRules_SectorLimit(t *testing.T) {
	rules := DefaultDiversificationRules()
	assert.Equal(t, 20.0, rules.SectorLimit(SectorFinancial))
	assert.Equal(t, 10.0, rules.SectorLimit(SectorOther))
	assert.Equal(t, 15.0, rules.SectorLimit("SPACE"))
	assert.Equal(t, 8.0, rules.PositionLimit(CapTierLarge))
	assert.Equal(t, 3.0, rules.PositionLimit(CapTierSmall))
}

// TestParseTimeOfDay tests session time parsing
func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("19:05")
	require.NoError(t, err)
	assert.Equal(t, 19*60+5, tod.Minutes())
	assert.Equal(t, "19:05", tod.String())

	_, err = ParseTimeOfDay("25:00")
	assert.Error(t, err)
}
