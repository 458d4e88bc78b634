package reporting

import (
	"io"
	"path/filepath"
	"time"

	"github.com/ducminhle1904/moex-risk-engine/internal/engine"
	"github.com/ducminhle1904/moex-risk-engine/internal/validator"
	"github.com/ducminhle1904/moex-risk-engine/pkg/types"
)

// Output file names inside the cycle directory
const (
	DecisionWorkbook = "decision.xlsx"
	TradesFile       = "trades.csv"
	DecisionFile     = "decision.json"
	ValidationFile   = "validation.json"
)

// DefaultReporter implements the complete Reporter interface
type DefaultReporter struct {
	console *DefaultConsoleReporter
	csv     *DefaultCSVReporter
	excel   *DefaultExcelReporter
	json    *DefaultJSONFormatter
	paths   *DefaultPathManager
}

// NewDefaultReporter creates a reporter whose console output goes to out
func NewDefaultReporter(out io.Writer) *DefaultReporter {
	return &DefaultReporter{
		console: NewDefaultConsoleReporter(out),
		csv:     NewDefaultCSVReporter(),
		excel:   NewDefaultExcelReporter(),
		json:    NewDefaultJSONFormatter(),
		paths:   NewDefaultPathManager(),
	}
}

// Console output methods
func (r *DefaultReporter) PrintDecision(d *engine.Decision) {
	r.console.PrintDecision(d)
}

func (r *DefaultReporter) PrintValidation(order types.TradeOrder, res *validator.Result) {
	r.console.PrintValidation(order, res)
}

// File output methods
func (r *DefaultReporter) WriteDecisionXLSX(d *engine.Decision, path string) error {
	return r.excel.WriteDecisionXLSX(d, path)
}

func (r *DefaultReporter) WriteTradesCSV(trades []types.TradeOrder, path string) error {
	return r.csv.WriteTradesCSV(trades, path)
}

func (r *DefaultReporter) WriteJSON(v any, path string) error {
	return r.json.WriteJSON(v, path)
}

// Path management methods
func (r *DefaultReporter) GetDefaultOutputDir(base string, now time.Time) string {
	return r.paths.GetDefaultOutputDir(base, now)
}

func (r *DefaultReporter) EnsureDirectoryExists(path string) error {
	return r.paths.EnsureDirectoryExists(path)
}

// ReportingManager provides a high-level interface for all reporting needs
type ReportingManager struct {
	reporter Reporter
	config   ReportingConfig
}

// NewReportingManager creates a new reporting manager with configuration
func NewReportingManager(config ReportingConfig, out io.Writer) *ReportingManager {
	return &ReportingManager{
		reporter: NewDefaultReporter(out),
		config:   config,
	}
}

// ReportDecision outputs one decision according to configuration and returns the files written
func (m *ReportingManager) ReportDecision(d *engine.Decision) ([]string, error) {
	if m.config.EnableConsole {
		m.reporter.PrintDecision(d)
	}
	if !m.config.EnableFiles || d == nil {
		return nil, nil
	}

	outputDir := m.reporter.GetDefaultOutputDir(m.config.OutputDirectory, d.Timestamp)
	var written []string

	if m.config.ExcelEnabled {
		path := filepath.Join(outputDir, DecisionWorkbook)
		if err := m.reporter.WriteDecisionXLSX(d, path); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	if m.config.CSVEnabled && d.Rebalance != nil {
		path := filepath.Join(outputDir, TradesFile)
		if err := m.reporter.WriteTradesCSV(d.Rebalance.Trades, path); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	if m.config.JSONEnabled {
		path := filepath.Join(outputDir, DecisionFile)
		if err := m.reporter.WriteJSON(d, path); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	return written, nil
}

// ReportValidation outputs one order verdict according to configuration and returns the files written
func (m *ReportingManager) ReportValidation(order types.TradeOrder, res *validator.Result) ([]string, error) {
	if m.config.EnableConsole {
		m.reporter.PrintValidation(order, res)
	}
	if !m.config.EnableFiles || !m.config.JSONEnabled || res == nil {
		return nil, nil
	}

	path := filepath.Join(m.reporter.GetDefaultOutputDir(m.config.OutputDirectory, res.Timestamp), ValidationFile)
	payload := struct {
		Order  types.TradeOrder  `json:"order"`
		Result *validator.Result `json:"result"`
	}{order, res}
	if err := m.reporter.WriteJSON(payload, path); err != nil {
		return nil, err
	}
	return []string{path}, nil
}
