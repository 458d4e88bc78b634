package data

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/ducminhle1904/moex-risk-engine/internal/geopolitical"
	"github.com/ducminhle1904/moex-risk-engine/internal/portfolio"
	"github.com/ducminhle1904/moex-risk-engine/pkg/types"
)

// snapshotFile is the YAML layout of a snapshot
type snapshotFile struct {
	Now                    time.Time            `yaml:"now"`
	Cash                   decimal.Decimal      `yaml:"cash"`
	Positions              []portfolio.Position `yaml:"positions"`
	MarketData             []types.MarketData   `yaml:"market_data"`
	News                   []types.NewsItem     `yaml:"news"`
	Events                 []geopolitical.Event `yaml:"events"`
	RubleVolatilityPercent *float64             `yaml:"ruble_volatility_percent"`
	PriceHistory           string               `yaml:"price_history"`
	Order                  *types.TradeOrder    `yaml:"order"`
}

// Snapshot is a decoded portfolio snapshot
type Snapshot struct {
	Now                    time.Time
	Portfolio              *portfolio.Portfolio
	MarketData             map[string]types.MarketData
	News                   []types.NewsItem
	Events                 []geopolitical.Event
	RubleVolatilityPercent *float64
	// PriceHistory is the CSV path, resolved against the snapshot's directory
	PriceHistory string
	Order        *types.TradeOrder
}

// LoadSnapshot reads a YAML snapshot file
func LoadSnapshot(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}
	return ParseSnapshot(raw, filepath.Dir(path))
}

// ParseSnapshot decodes YAML; relative history paths are resolved against baseDir
func ParseSnapshot(raw []byte, baseDir string) (*Snapshot, error) {
	var f snapshotFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	if f.Now.IsZero() {
		return nil, fmt.Errorf("snapshot must set now")
	}

	p, err := portfolio.New(f.Cash, f.Positions...)
	if err != nil {
		return nil, err
	}

	md := make(map[string]types.MarketData, len(f.MarketData))
	for _, q := range f.MarketData {
		if _, dup := md[q.Symbol]; dup {
			return nil, fmt.Errorf("duplicate market data for %s", q.Symbol)
		}
		if q.Timestamp.IsZero() {
			q.Timestamp = f.Now
		}
		md[q.Symbol] = q
	}

	history := f.PriceHistory
	if history != "" && !filepath.IsAbs(history) && baseDir != "" {
		history = filepath.Join(baseDir, history)
	}

	return &Snapshot{
		Now:                    f.Now,
		Portfolio:              p,
		MarketData:             md,
		News:                   f.News,
		Events:                 f.Events,
		RubleVolatilityPercent: f.RubleVolatilityPercent,
		PriceHistory:           history,
		Order:                  f.Order,
	}, nil
}
