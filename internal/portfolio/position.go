package portfolio

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ducminhle1904/moex-risk-engine/internal/errors"
)

// Position is a holding in a single MOEX security
type Position struct {
	Symbol       string          `json:"symbol" yaml:"symbol"`
	Quantity     int64           `json:"quantity" yaml:"quantity"`
	EntryPrice   decimal.Decimal `json:"entry_price" yaml:"entry_price"`
	CurrentPrice decimal.Decimal `json:"current_price" yaml:"current_price"`
	EntryDate    time.Time       `json:"entry_date" yaml:"entry_date"`
	Sector       string          `json:"sector,omitempty" yaml:"sector,omitempty"`
}

// NewPosition creates a validated position
func NewPosition(symbol string, quantity int64, entry, current decimal.Decimal, entryDate time.Time, sector string) (Position, error) {
	p := Position{
		Symbol:       symbol,
		Quantity:     quantity,
		EntryPrice:   entry,
		CurrentPrice: current,
		EntryDate:    entryDate,
		Sector:       sector,
	}
	if err := p.Validate(); err != nil {
		return Position{}, err
	}
	return p, nil
}

// Validate checks quantity and prices
func (p Position) Validate() error {
	if p.Symbol == "" {
		return errors.NewInvalidInput("portfolio", "position", "symbol is required")
	}
	if p.Quantity <= 0 {
		return errors.NewInvalidInput("portfolio", "position", "quantity must be positive, got %d", p.Quantity).
			WithContext("symbol", p.Symbol)
	}
	if !p.EntryPrice.IsPositive() {
		return errors.NewInvalidInput("portfolio", "position", "entry price must be positive, got %s", p.EntryPrice).
			WithContext("symbol", p.Symbol)
	}
	if !p.CurrentPrice.IsPositive() {
		return errors.NewInvalidInput("portfolio", "position", "current price must be positive, got %s", p.CurrentPrice).
			WithContext("symbol", p.Symbol)
	}
	return nil
}

// MarketValue is current price times quantity
func (p Position) MarketValue() decimal.Decimal {
	return p.CurrentPrice.Mul(decimal.NewFromInt(p.Quantity))
}

// CostBasis is entry price times quantity
func (p Position) CostBasis() decimal.Decimal {
	return p.EntryPrice.Mul(decimal.NewFromInt(p.Quantity))
}

// UnrealizedPnL is the mark-to-market gain or loss
func (p Position) UnrealizedPnL() decimal.Decimal {
	return p.MarketValue().Sub(p.CostBasis())
}

// PnLPercent is the unrealized return relative to entry, in percent
func (p Position) PnLPercent() float64 {
	cost := p.CostBasis()
	if cost.IsZero() {
		return 0
	}
	return p.UnrealizedPnL().Div(cost).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

// WithPrice returns a copy marked at a new price
func (p Position) WithPrice(price decimal.Decimal) Position {
	p.CurrentPrice = price
	return p
}
