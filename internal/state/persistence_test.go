package state

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/moex-risk-engine/internal/geopolitical"
	"github.com/ducminhle1904/moex-risk-engine/pkg/types"
)

var now = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func sanctionsEvent(id string) geopolitical.Event {
	return geopolitical.Event{
		ID:              id,
		Type:            geopolitical.EventSanctions,
		Severity:        types.RiskLevelHigh,
		Description:     "Sectoral sanctions",
		AffectedSectors: []string{geopolitical.SectorEnergy},
		Start:           now.Add(-48 * time.Hour),
		ImpactScore:     0.8,
		Confidence:      0.9,
	}
}

// TestStatePersistence_RoundTrip tests that events and the last decision survive a restart
func TestStatePersistence_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	sp := NewStatePersistence(nil, dir)
	require.NoError(t, sp.Initialize())
	require.NoError(t, sp.LoadState())
	assert.Empty(t, sp.Events())

	sp.SetEvents([]geopolitical.Event{sanctionsEvent("ev-1"), sanctionsEvent("ev-2")})
	rec := &DecisionRecord{
		Timestamp:  now,
		RiskLevel:  types.RiskLevelHigh,
		RiskScore:  0.65,
		Violations: map[types.RiskLevel]int{types.RiskLevelCritical: 1},
		Trades:     2,
	}
	require.NoError(t, sp.RecordDecision(rec))
	require.NoError(t, sp.Cleanup(now))

	reloaded := NewStatePersistence(nil, dir)
	require.NoError(t, reloaded.LoadState())
	events := reloaded.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "ev-1", events[0].ID)

	st := reloaded.GetEngineState()
	assert.Equal(t, stateVersion, st.Version)
	assert.True(t, now.Equal(st.LastUpdated))
	require.NotNil(t, st.LastDecision)
	assert.Equal(t, 0.65, st.LastDecision.RiskScore)
	assert.Equal(t, 1, st.LastDecision.Violations[types.RiskLevelCritical])
}

// TestStatePersistence_DecisionLog tests that each recorded decision is appended as one JSON line
func TestStatePersistence_DecisionLog(t *testing.T) {
	dir := t.TempDir()
	sp := NewStatePersistence(nil, dir)
	require.NoError(t, sp.Initialize())
	require.NoError(t, sp.RecordDecision(&DecisionRecord{Timestamp: now, Trades: 1}))
	require.NoError(t, sp.RecordDecision(&DecisionRecord{Timestamp: now.Add(time.Hour), Trades: 3}))
	require.NoError(t, sp.Cleanup(now))

	f, err := os.Open(filepath.Join(dir, decisionLogName))
	require.NoError(t, err)
	defer f.Close()

	var trades []int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec DecisionRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		trades = append(trades, rec.Trades)
	}
	assert.Equal(t, []int{1, 3}, trades)
}

// TestStatePersistence_Backup tests that the previous state file is kept on save
func TestStatePersistence_Backup(t *testing.T) {
	dir := t.TempDir()
	sp := NewStatePersistence(nil, dir)
	require.NoError(t, sp.Initialize())
	require.NoError(t, sp.SaveState(now))
	sp.SetEvents([]geopolitical.Event{sanctionsEvent("ev-1")})
	require.NoError(t, sp.Cleanup(now.Add(time.Hour)))

	assert.FileExists(t, filepath.Join(dir, backupFileName))
	assert.NoFileExists(t, filepath.Join(dir, stateFileName+".tmp"))
}

// TestStatePersistence_InvalidState tests that a state with bad events is ignored
func TestStatePersistence_InvalidState(t *testing.T) {
	dir := t.TempDir()
	bad := sanctionsEvent("ev-1")
	bad.ImpactScore = 5
	raw, err := json.Marshal(EngineState{Version: stateVersion, Events: []geopolitical.Event{bad}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, stateFileName), raw, 0644))

	sp := NewStatePersistence(nil, dir)
	require.NoError(t, sp.LoadState())
	assert.Empty(t, sp.Events())

	require.NoError(t, os.WriteFile(filepath.Join(dir, stateFileName), []byte("{"), 0644))
	assert.Error(t, NewStatePersistence(nil, dir).LoadState())
}
