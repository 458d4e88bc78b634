// Package reporting renders decisions and order validations to the console, spreadsheets and JSON.
package reporting

import (
	"io"
	"time"

	"github.com/ducminhle1904/moex-risk-engine/internal/engine"
	"github.com/ducminhle1904/moex-risk-engine/internal/validator"
	"github.com/ducminhle1904/moex-risk-engine/pkg/types"
)

// ConsoleReporter defines interface for console output
type ConsoleReporter interface {
	PrintDecision(d *engine.Decision)
	PrintValidation(order types.TradeOrder, res *validator.Result)
}

// FileReporter defines interface for file output
type FileReporter interface {
	WriteDecisionXLSX(d *engine.Decision, path string) error
	WriteTradesCSV(trades []types.TradeOrder, path string) error
	WriteJSON(v any, path string) error
}

// JSONFormatter defines interface for JSON output
type JSONFormatter interface {
	Format(v any) ([]byte, error)
	Print(w io.Writer, v any) error
}

// PathManager defines interface for output path management
type PathManager interface {
	GetDefaultOutputDir(base string, now time.Time) string
	EnsureDirectoryExists(path string) error
}

// Reporter combines all reporting interfaces
type Reporter interface {
	ConsoleReporter
	FileReporter
	PathManager
}

// ExcelStyles holds Excel formatting styles
type ExcelStyles struct {
	HeaderStyle   int
	CurrencyStyle int
	PercentStyle  int
	ScoreStyle    int
	BaseStyle     int
	CriticalStyle int
	HighStyle     int
	MediumStyle   int
	LowStyle      int
	ValidStyle    int
	InvalidStyle  int
}

// ReportingConfig holds configuration for reporting
type ReportingConfig struct {
	EnableConsole   bool
	EnableFiles     bool
	OutputDirectory string
	ExcelEnabled    bool
	CSVEnabled      bool
	JSONEnabled     bool
}
