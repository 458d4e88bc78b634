package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const snapshotYAML = `now: 2024-01-10T12:00:00+03:00
cash: 5000
positions:
  - symbol: LKOH
    quantity: 19
    entry_price: 5000
    current_price: 5000
    entry_date: 2023-09-01T10:00:00+03:00
market_data:
  - symbol: LKOH
    price: 5000
    volume: 5000
price_history: history.csv
`

const historyCSV = `date,symbol,close
2024-01-08,LKOH,4900
2024-01-09,LKOH,4950
2024-01-10,LKOH,5000
2024-01-11,LKOH,9999
`

func writeSnapshot(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "history.csv"), []byte(historyCSV), 0644))
	path := filepath.Join(dir, "snapshot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(snapshotYAML), 0644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	cmd := newRootCmd(&logs)
	cmd.SetOut(&out)
	cmd.SetErr(&logs)
	cmd.SetArgs(append(args, "--env", ""))
	err := cmd.Execute()
	return out.String(), err
}

// TestAssess_ConsoleReport tests a full cycle rendered to the console
func TestAssess_ConsoleReport(t *testing.T) {
	out, err := run(t, "assess", "--snapshot", writeSnapshot(t))
	require.NoError(t, err)
	assert.Contains(t, out, "RISK ASSESSMENT")
	assert.Contains(t, out, "TRADES TO EXECUTE")
}

// TestAssess_FileOutputs tests the JSON report and the metrics textfile
func TestAssess_FileOutputs(t *testing.T) {
	dir := t.TempDir()
	metrics := filepath.Join(dir, "metrics.prom")

	out, err := run(t, "assess", "--snapshot", writeSnapshot(t), "--quiet", "--json", "--csv",
		"--output-dir", dir, "--metrics-file", metrics)
	require.NoError(t, err)
	assert.NotContains(t, out, "RISK ASSESSMENT")

	cycle := filepath.Join(dir, "20240110_1200")
	assert.FileExists(t, filepath.Join(cycle, "decision.json"))
	assert.FileExists(t, filepath.Join(cycle, "trades.csv"))
	assert.Contains(t, out, filepath.Join(cycle, "decision.json"))

	raw, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "moex_risk_engine_evaluations_total 1")
}

// TestAssess_MissingSnapshot tests the required flag and unreadable files
func TestAssess_MissingSnapshot(t *testing.T) {
	_, err := run(t, "assess")
	assert.Error(t, err)

	_, err = run(t, "assess", "--snapshot", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

// TestAssess_UnknownHistoryFormat tests that only known CSV layouts are accepted
func TestAssess_UnknownHistoryFormat(t *testing.T) {
	_, err := run(t, "assess", "--snapshot", writeSnapshot(t), "--history-format", "xml")
	assert.ErrorContains(t, err, "unknown history format")
}

// TestAssess_StateDir tests that snapshot events persist once across runs and each run is logged
func TestAssess_StateDir(t *testing.T) {
	snap := writeSnapshot(t)
	withEvent := snapshotYAML + `events:
  - id: ev-1
    type: SANCTIONS
    severity: HIGH
    description: Sectoral sanctions
    affected_sectors: [ENERGY]
    start: 2024-01-08T00:00:00+03:00
    impact_score: 0.8
    confidence: 0.9
`
	require.NoError(t, os.WriteFile(snap, []byte(withEvent), 0644))
	stateDir := filepath.Join(t.TempDir(), "state")

	for i := 0; i < 2; i++ {
		_, err := run(t, "assess", "--snapshot", snap, "--quiet", "--state-dir", stateDir)
		require.NoError(t, err)
	}

	raw, err := os.ReadFile(filepath.Join(stateDir, "engine_state.json"))
	require.NoError(t, err)
	var st struct {
		Events []struct {
			ID string `json:"id"`
		} `json:"events"`
	}
	require.NoError(t, json.Unmarshal(raw, &st))
	require.Len(t, st.Events, 1)
	assert.Equal(t, "ev-1", st.Events[0].ID)

	log, err := os.ReadFile(filepath.Join(stateDir, "decision_log.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, 2, bytes.Count(log, []byte("\n")))
}

// TestValidateOrder_FromFlags tests an order described on the command line
func TestValidateOrder_FromFlags(t *testing.T) {
	out, err := run(t, "validate-order", "--snapshot", writeSnapshot(t), "--symbol", "lkoh", "--action", "sell", "--quantity", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "ORDER VALIDATION")
	assert.Contains(t, out, "SELL 1 LKOH MARKET")
}

// TestValidateOrder_Strict tests that a rejected order fails the command in strict mode
func TestValidateOrder_Strict(t *testing.T) {
	snap := writeSnapshot(t)

	out, err := run(t, "validate-order", "--snapshot", snap, "--symbol", "SBER", "--quantity", "5", "--price", "250")
	require.NoError(t, err)
	assert.Contains(t, out, "REJECTED")

	_, err = run(t, "validate-order", "--snapshot", snap, "--symbol", "SBER", "--quantity", "5", "--price", "250", "--strict")
	assert.ErrorContains(t, err, "rejected")
}

// TestValidateOrder_NoOrder tests that an order is required from flags or the snapshot
func TestValidateOrder_NoOrder(t *testing.T) {
	_, err := run(t, "validate-order", "--snapshot", writeSnapshot(t))
	assert.ErrorContains(t, err, "no order given")

	_, err = run(t, "validate-order", "--snapshot", writeSnapshot(t), "--symbol", "SBER", "--quantity", "10", "--price", "abc")
	assert.ErrorContains(t, err, "invalid --price")
}

// TestSession_Weekend tests the session table on a Saturday
func TestSession_Weekend(t *testing.T) {
	out, err := run(t, "session", "--at", "2024-01-13 12:00")
	require.NoError(t, err)
	assert.Contains(t, out, "CLOSED")
	assert.Contains(t, out, "2024-01-15")
	assert.Contains(t, out, "T+2")

	_, err = run(t, "session", "--at", "someday")
	assert.Error(t, err)
}

// TestConfig_PrintsYAML tests the effective configuration dump
func TestConfig_PrintsYAML(t *testing.T) {
	out, err := run(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "max_position_percent")
}

// TestVersion tests the version command
func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "risk-engine v")
}
