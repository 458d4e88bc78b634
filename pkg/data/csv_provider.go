package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ducminhle1904/moex-risk-engine/internal/logger"
)

// CSVProvider implements HistoryProvider for CSV files
type CSVProvider struct {
	format CSVColumnMapping
	logger *logger.Logger
}

// NewCSVProvider creates a CSV provider for the date,symbol,close layout
func NewCSVProvider(log *logger.Logger) *CSVProvider {
	return NewCSVProviderWithFormat(DefaultCSVFormat, log)
}

// NewCSVProviderWithFormat creates a CSV provider with a custom layout
func NewCSVProviderWithFormat(format CSVColumnMapping, log *logger.Logger) *CSVProvider {
	if format.Delimiter == 0 {
		format.Delimiter = ','
	}
	return &CSVProvider{format: format, logger: logger.OrNop(log).With("data")}
}

// GetName returns the name of the provider
func (p *CSVProvider) GetName() string {
	return "CSV Provider"
}

// LoadHistory reads closes from a CSV file. Malformed rows are skipped with a warning.
func (p *CSVProvider) LoadHistory(source string) (History, error) {
	file, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open price history %s: %w", source, err)
	}
	defer file.Close()
	return p.Read(file)
}

// Read parses CSV from r
func (p *CSVProvider) Read(r io.Reader) (History, error) {
	format := p.format
	reader := csv.NewReader(r)
	reader.Comma = format.Delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	// Skip header
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return History{}, nil
		}
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}

	history := History{}
	lineNum := 1
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading CSV at line %d: %w", lineNum, err)
		}
		lineNum++

		if len(record) < format.MinColumns {
			p.logger.Warning("insufficient columns at line %d (expected %d, got %d), skipping", lineNum, format.MinColumns, len(record))
			continue
		}

		date, err := time.Parse(format.DateFormat, strings.TrimSpace(record[format.DateCol]))
		if err != nil {
			p.logger.Warning("invalid date %q at line %d, skipping: %v", record[format.DateCol], lineNum, err)
			continue
		}
		symbol := strings.ToUpper(strings.TrimSpace(record[format.SymbolCol]))
		if symbol == "" {
			p.logger.Warning("empty symbol at line %d, skipping", lineNum)
			continue
		}
		raw := strings.TrimSpace(record[format.CloseCol])
		if raw == "" {
			// no trades that day
			continue
		}
		closePrice, err := decimal.NewFromString(raw)
		if err != nil {
			p.logger.Warning("invalid close %q at line %d, skipping: %v", raw, lineNum, err)
			continue
		}
		if !closePrice.IsPositive() {
			p.logger.Warning("non-positive close %s for %s at line %d, skipping", closePrice, symbol, lineNum)
			continue
		}

		history[symbol] = append(history[symbol], PricePoint{Date: date, Close: closePrice})
	}

	for _, points := range history {
		sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	}
	if err := p.ValidateHistory(history); err != nil {
		return nil, err
	}
	p.logger.Debug("loaded price history for %d symbols", len(history))
	return history, nil
}

// ValidateHistory validates the integrity of loaded histories
func (p *CSVProvider) ValidateHistory(h History) error {
	for _, symbol := range h.Symbols() {
		points := h[symbol]
		for i, pt := range points {
			if !pt.Close.IsPositive() {
				return fmt.Errorf("invalid close for %s at index %d: prices must be positive", symbol, i)
			}
			if i > 0 && !pt.Date.After(points[i-1].Date) {
				return fmt.Errorf("duplicate or out-of-order date for %s at %s", symbol, pt.Date.Format("2006-01-02"))
			}
		}
	}
	return nil
}
