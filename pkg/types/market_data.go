package types

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ducminhle1904/moex-risk-engine/internal/errors"
)

// MarketData is the latest quote for one symbol
type MarketData struct {
	Symbol        string          `json:"symbol" yaml:"symbol"`
	Price         decimal.Decimal `json:"price" yaml:"price"`
	Volume        int64           `json:"volume" yaml:"volume"`
	Bid           decimal.Decimal `json:"bid,omitempty" yaml:"bid,omitempty"`
	Ask           decimal.Decimal `json:"ask,omitempty" yaml:"ask,omitempty"`
	ChangePercent *float64        `json:"change_percent,omitempty" yaml:"change_percent,omitempty"`
	Timestamp     time.Time       `json:"timestamp" yaml:"timestamp"`
}

// Validate checks structural consistency of a quote
func (m MarketData) Validate() error {
	if m.Symbol == "" {
		return errors.NewInvalidInput("market_data", "validate", "symbol is required")
	}
	if !m.Price.IsPositive() {
		return errors.NewInvalidInput("market_data", "validate", "price must be positive, got %s", m.Price).
			WithContext("symbol", m.Symbol)
	}
	if m.Volume < 0 {
		return errors.NewInvalidInput("market_data", "validate", "volume cannot be negative, got %d", m.Volume).
			WithContext("symbol", m.Symbol)
	}
	return nil
}

// AbsChangePercent returns |change%| and whether a change was reported
func (m MarketData) AbsChangePercent() (float64, bool) {
	if m.ChangePercent == nil {
		return 0, false
	}
	c := *m.ChangePercent
	if c < 0 {
		c = -c
	}
	return c, true
}

// Float64 returns a pointer to v, for optional quote fields
func Float64(v float64) *float64 { return &v }
