package data

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/moex-risk-engine/internal/geopolitical"
	"github.com/ducminhle1904/moex-risk-engine/pkg/types"
)

const historyCSV = `date,symbol,close
2024-01-10,SBER,272.5
2024-01-09,SBER,270.1
2024-01-09,GAZP,163.2
2024-01-10,GAZP,not-a-number
2024-01-11,gazp,165.0
2024-01-11,SBER
2024-01-12,SBER,-1
`

func day(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestCSVProvider_LoadHistory tests parsing, row skipping and date ordering
func TestCSVProvider_LoadHistory(t *testing.T) {
	path := writeFile(t, t.TempDir(), "history.csv", historyCSV)
	h, err := NewCSVProvider(nil).LoadHistory(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"GAZP", "SBER"}, h.Symbols())
	require.Len(t, h["SBER"], 2)
	assert.Equal(t, day(9), h["SBER"][0].Date)
	assert.True(t, h["SBER"][1].Close.Equal(decimal.RequireFromString("272.5")))
	require.Len(t, h["GAZP"], 2)

	closes := h.Closes()
	assert.Len(t, closes["GAZP"], 2)
	assert.True(t, closes["GAZP"][1].Equal(decimal.NewFromInt(165)))

	last, ok := h.Last("SBER")
	require.True(t, ok)
	assert.Equal(t, day(10), last.Date)
	_, ok = h.Last("LKOH")
	assert.False(t, ok)
}

// TestCSVProvider_ISSFormat tests the semicolon-delimited MOEX export
func TestCSVProvider_ISSFormat(t *testing.T) {
	in := "BOARDID;TRADEDATE;SHORTNAME;SECID;NUMTRADES;VALUE;OPEN;LOW;HIGH;LEGALCLOSEPRICE;WAPRICE;CLOSE\n" +
		"TQBR;2024-01-09;Sberbank;SBER;100;1;270;269;271;270.1;270;270.1\n" +
		"TQBR;2024-01-10;Sberbank;SBER;0;0;;;;;;\n" +
		"TQBR;2024-01-11;Sberbank;SBER;100;1;271;270;273;272.5;272;272.5\n"
	h, err := NewCSVProviderWithFormat(ISSCSVFormat, nil).Read(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, h["SBER"], 2)
	assert.Equal(t, day(11), h["SBER"][1].Date)
}

// TestCSVProvider_Errors tests missing files and duplicate dates
func TestCSVProvider_Errors(t *testing.T) {
	p := NewCSVProvider(nil)
	_, err := p.LoadHistory(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	_, err = p.Read(strings.NewReader("date,symbol,close\n2024-01-09,SBER,1\n2024-01-09,SBER,2\n"))
	assert.Error(t, err)

	h, err := p.Read(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, h)
}

// TestCachedProvider tests that a second load is served from the cache
func TestCachedProvider(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "history.csv", historyCSV)
	p := NewCachedProvider(NewCSVProvider(nil), nil)
	assert.Equal(t, "Cached CSV Provider", p.GetName())

	first, err := p.LoadHistory(path)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	second, err := p.LoadHistory(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, p.CacheSize())

	// callers get copies
	second["SBER"][0].Close = decimal.NewFromInt(1)
	third, err := p.LoadHistory(path)
	require.NoError(t, err)
	assert.True(t, third["SBER"][0].Close.Equal(decimal.RequireFromString("270.1")))

	p.ClearCache()
	_, err = p.LoadHistory(path)
	assert.Error(t, err)
}

// TestHistory_Filters tests Until and FilterByPeriod
func TestHistory_Filters(t *testing.T) {
	h := History{
		"SBER": {{day(1), decimal.NewFromInt(1)}, {day(5), decimal.NewFromInt(2)}, {day(9), decimal.NewFromInt(3)}},
		"GAZP": {{day(10), decimal.NewFromInt(4)}},
	}

	until := h.Until(day(5))
	assert.Len(t, until["SBER"], 2)
	_, ok := until["GAZP"]
	assert.False(t, ok)
	assert.Len(t, h["SBER"], 3)

	recent := h.FilterByPeriod(4 * 24 * time.Hour)
	require.Len(t, recent["SBER"], 2)
	assert.Equal(t, day(5), recent["SBER"][0].Date)
	assert.Len(t, recent["GAZP"], 1)
	assert.Equal(t, h, h.FilterByPeriod(0))
}

const snapshotYAML = `now: 2024-01-10T12:00:00+03:00
cash: 150000
ruble_volatility_percent: 1.5
price_history: history.csv
positions:
  - symbol: SBER
    quantity: 1000
    entry_price: 250
    current_price: "272.5"
    entry_date: 2023-06-01T10:00:00+03:00
  - symbol: LKOH
    quantity: 10
    entry_price: 6500
    current_price: 6800
    entry_date: 2023-09-01T10:00:00+03:00
    sector: ENERGY
market_data:
  - symbol: SBER
    price: 272.5
    volume: 1200000
    change_percent: -1.2
news:
  - title: "Central bank keeps the key rate"
    content: "Regulator holds rate"
    sentiment_score: -0.1
    confidence: 0.8
    published_at: 2024-01-10T09:00:00+03:00
events:
  - id: ev-1
    type: SANCTIONS
    severity: HIGH
    description: Sectoral sanctions
    affected_sectors: [ENERGY]
    start: 2024-01-08T00:00:00+03:00
    impact_score: 0.8
    confidence: 0.9
order:
  symbol: SBER
  action: BUY
  quantity: 100
  order_type: LIMIT
  price: 270
`

// TestLoadSnapshot tests decoding of a full snapshot file
func TestLoadSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "snapshot.yaml", snapshotYAML)

	s, err := LoadSnapshot(path)
	require.NoError(t, err)

	assert.True(t, s.Now.Equal(time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)))
	assert.True(t, s.Portfolio.Cash().Equal(decimal.NewFromInt(150000)))
	assert.Equal(t, []string{"LKOH", "SBER"}, s.Portfolio.Symbols())
	// 150,000 + 272,500 + 68,000
	assert.True(t, s.Portfolio.TotalValue().Equal(decimal.NewFromInt(490500)))

	require.Contains(t, s.MarketData, "SBER")
	q := s.MarketData["SBER"]
	require.NotNil(t, q.ChangePercent)
	assert.Equal(t, -1.2, *q.ChangePercent)
	assert.True(t, q.Timestamp.Equal(s.Now))

	require.Len(t, s.News, 1)
	require.Len(t, s.Events, 1)
	assert.Equal(t, geopolitical.EventSanctions, s.Events[0].Type)
	assert.Equal(t, types.RiskLevelHigh, s.Events[0].Severity)
	assert.NoError(t, s.Events[0].Validate())

	require.NotNil(t, s.RubleVolatilityPercent)
	assert.Equal(t, 1.5, *s.RubleVolatilityPercent)
	assert.Equal(t, filepath.Join(dir, "history.csv"), s.PriceHistory)

	require.NotNil(t, s.Order)
	assert.Equal(t, types.OrderTypeLimit, s.Order.Type)
	require.True(t, s.Order.Price.Valid)
	assert.True(t, s.Order.Price.Decimal.Equal(decimal.NewFromInt(270)))
	assert.NoError(t, s.Order.Validate())
}

// TestParseSnapshot_Invalid tests rejection of malformed snapshots
func TestParseSnapshot_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing now", "cash: 100\n"},
		{"negative cash", "now: 2024-01-10T12:00:00Z\ncash: -1\n"},
		{"bad quantity", "now: 2024-01-10T12:00:00Z\ncash: 1\npositions:\n  - {symbol: SBER, quantity: 0, entry_price: 1, current_price: 1}\n"},
		{"duplicate quote", "now: 2024-01-10T12:00:00Z\ncash: 1\nmarket_data:\n  - {symbol: SBER, price: 1}\n  - {symbol: SBER, price: 2}\n"},
		{"not yaml", "now: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSnapshot([]byte(tt.yaml), "")
			assert.Error(t, err)
		})
	}
}
