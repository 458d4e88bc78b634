package data

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is one daily close
type PricePoint struct {
	Date  time.Time
	Close decimal.Decimal
}

// History holds chronologically ordered closes per symbol
type History map[string][]PricePoint

// Symbols returns the symbols in sorted order
func (h History) Symbols() []string {
	out := make([]string, 0, len(h))
	for s := range h {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Closes strips the dates, the shape the engine consumes
func (h History) Closes() map[string][]decimal.Decimal {
	out := make(map[string][]decimal.Decimal, len(h))
	for symbol, points := range h {
		closes := make([]decimal.Decimal, len(points))
		for i, p := range points {
			closes[i] = p.Close
		}
		out[symbol] = closes
	}
	return out
}

// Last returns the most recent close of a symbol
func (h History) Last(symbol string) (PricePoint, bool) {
	points := h[symbol]
	if len(points) == 0 {
		return PricePoint{}, false
	}
	return points[len(points)-1], true
}

// HistoryProvider loads price histories from a source
type HistoryProvider interface {
	// LoadHistory loads the histories stored at source
	LoadHistory(source string) (History, error)

	// ValidateHistory checks positivity and chronological order
	ValidateHistory(h History) error

	// GetName returns the name of the provider
	GetName() string
}

// HistoryCache caches loaded histories by source
type HistoryCache interface {
	Get(key string) (History, bool)
	Set(key string, h History)
	Clear()
	Size() int
}

// CSVColumnMapping defines the column positions of a CSV layout
type CSVColumnMapping struct {
	DateCol    int
	SymbolCol  int
	CloseCol   int
	MinColumns int
	DateFormat string
	Delimiter  rune
}

// Predefined CSV formats
var (
	// DefaultCSVFormat is date,symbol,close
	DefaultCSVFormat = CSVColumnMapping{
		DateCol:    0,
		SymbolCol:  1,
		CloseCol:   2,
		MinColumns: 3,
		DateFormat: "2006-01-02",
		Delimiter:  ',',
	}

	// ISSCSVFormat matches the MOEX ISS securities history export
	ISSCSVFormat = CSVColumnMapping{
		DateCol:    1,
		SymbolCol:  3,
		CloseCol:   11,
		MinColumns: 12,
		DateFormat: "2006-01-02",
		Delimiter:  ';',
	}
)
