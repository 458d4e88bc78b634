// Package state persists the engine's recorded events and decision history between runs.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ducminhle1904/moex-risk-engine/internal/engine"
	"github.com/ducminhle1904/moex-risk-engine/internal/geopolitical"
	"github.com/ducminhle1904/moex-risk-engine/internal/logger"
	"github.com/ducminhle1904/moex-risk-engine/pkg/types"
)

const (
	stateVersion    = "1.0.0"
	stateFileName   = "engine_state.json"
	backupFileName  = "engine_state_backup.json"
	decisionLogName = "decision_log.jsonl"
)

// EngineState is the recoverable state of the engine
type EngineState struct {
	Version      string               `json:"version"`
	LastUpdated  time.Time            `json:"last_updated"`
	Events       []geopolitical.Event `json:"events"`
	LastDecision *DecisionRecord      `json:"last_decision,omitempty"`
}

// DecisionRecord is the summary of one decision cycle kept in the log
type DecisionRecord struct {
	Timestamp         time.Time               `json:"timestamp"`
	RiskLevel         types.RiskLevel         `json:"risk_level"`
	RiskScore         float64                 `json:"risk_score"`
	GeopoliticalLevel types.GeoLevel          `json:"geopolitical_level"`
	GeopoliticalScore float64                 `json:"geopolitical_score"`
	Violations        map[types.RiskLevel]int `json:"violations_by_severity"`
	Trades            int                     `json:"trades"`
	CashTargetPercent float64                 `json:"cash_target_percent"`
}

// NewDecisionRecord summarizes d
func NewDecisionRecord(d *engine.Decision) *DecisionRecord {
	return &DecisionRecord{
		Timestamp:         d.Timestamp,
		RiskLevel:         d.Risk.Level,
		RiskScore:         d.Risk.Score,
		GeopoliticalLevel: d.Geopolitical.Level,
		GeopoliticalScore: d.Geopolitical.Score,
		Violations:        d.Diversification.CountBySeverity(),
		Trades:            len(d.Rebalance.Trades),
		CashTargetPercent: d.Rebalance.CashTargetPercent,
	}
}

// StatePersistence manages saving and loading of engine state under one directory
type StatePersistence struct {
	logger   *logger.Logger
	stateDir string

	current *EngineState
	mu      sync.RWMutex

	decisionLog *os.File
}

// NewStatePersistence creates a new state persistence manager
func NewStatePersistence(log *logger.Logger, stateDir string) *StatePersistence {
	return &StatePersistence{
		logger:   logger.OrNop(log).With("state"),
		stateDir: stateDir,
		current:  NewEngineState(),
	}
}

// NewEngineState creates an empty state
func NewEngineState() *EngineState {
	return &EngineState{Version: stateVersion, Events: []geopolitical.Event{}}
}

// Initialize creates the state directory and opens the decision log
func (sp *StatePersistence) Initialize() error {
	if err := os.MkdirAll(sp.stateDir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	logPath := filepath.Join(sp.stateDir, decisionLogName)
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open decision log: %w", err)
	}
	sp.decisionLog = f

	sp.logger.Debug("State persistence initialized: %s", sp.stateDir)
	return nil
}

// LoadState loads the state from disk. A missing file keeps the clean state;
// an invalid one is logged and ignored.
func (sp *StatePersistence) LoadState() error {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	stateFile := filepath.Join(sp.stateDir, stateFileName)
	if _, err := os.Stat(stateFile); os.IsNotExist(err) {
		sp.logger.Info("No existing state file found, starting with clean state")
		return nil
	}

	data, err := os.ReadFile(stateFile)
	if err != nil {
		return fmt.Errorf("failed to read state file: %w", err)
	}

	var st EngineState
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("failed to parse state file: %w", err)
	}

	if err := validateState(&st); err != nil {
		sp.logger.LogWarning("state validation", "Loaded state has issues: %v, using clean state", err)
		return nil
	}
	if st.Events == nil {
		st.Events = []geopolitical.Event{}
	}

	sp.current = &st
	sp.logger.Info("State loaded from %s with %d events", stateFile, len(st.Events))
	return nil
}

// SaveState writes the state atomically, keeping the previous file as a backup
func (sp *StatePersistence) SaveState(now time.Time) error {
	sp.mu.Lock()
	sp.current.LastUpdated = now
	data, err := json.MarshalIndent(sp.current, "", "  ")
	sp.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	stateFile := filepath.Join(sp.stateDir, stateFileName)
	backupFile := filepath.Join(sp.stateDir, backupFileName)

	if _, err := os.Stat(stateFile); err == nil {
		if err := copyFile(stateFile, backupFile); err != nil {
			sp.logger.LogWarning("state backup", "Failed to create backup: %v", err)
		}
	}

	tempFile := stateFile + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := os.Rename(tempFile, stateFile); err != nil {
		return fmt.Errorf("failed to move state file: %w", err)
	}

	sp.logger.Debug("State saved to %s", stateFile)
	return nil
}

// Events returns a copy of the persisted events
func (sp *StatePersistence) Events() []geopolitical.Event {
	sp.mu.RLock()
	defer sp.mu.RUnlock()
	return append([]geopolitical.Event(nil), sp.current.Events...)
}

// SetEvents replaces the persisted events
func (sp *StatePersistence) SetEvents(events []geopolitical.Event) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.current.Events = append([]geopolitical.Event{}, events...)
}

// RecordDecision keeps rec as the last decision and appends it to the decision log
func (sp *StatePersistence) RecordDecision(rec *DecisionRecord) error {
	sp.mu.Lock()
	sp.current.LastDecision = rec
	sp.mu.Unlock()

	if sp.decisionLog == nil {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal decision record: %w", err)
	}
	if _, err := sp.decisionLog.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append decision log: %w", err)
	}
	return sp.decisionLog.Sync()
}

// GetEngineState returns a copy of the current state
func (sp *StatePersistence) GetEngineState() *EngineState {
	sp.mu.RLock()
	defer sp.mu.RUnlock()

	stateCopy := *sp.current
	stateCopy.Events = append([]geopolitical.Event(nil), sp.current.Events...)
	return &stateCopy
}

// Cleanup closes the decision log and saves the state
func (sp *StatePersistence) Cleanup(now time.Time) error {
	if sp.decisionLog != nil {
		sp.decisionLog.Close()
		sp.decisionLog = nil
	}
	return sp.SaveState(now)
}

func validateState(st *EngineState) error {
	if st.Version == "" {
		return fmt.Errorf("state version is empty")
	}
	for _, ev := range st.Events {
		if err := ev.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
