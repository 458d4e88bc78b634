package portfolio

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ducminhle1904/moex-risk-engine/internal/errors"
	"github.com/ducminhle1904/moex-risk-engine/pkg/types"
)

// Currency is the only supported portfolio currency
const Currency = "RUB"

var hundred = decimal.NewFromInt(100)

// Portfolio is a snapshot of positions and cash. Derived values are computed on every read.
type Portfolio struct {
	positions map[string]Position
	cash      decimal.Decimal
}

// New creates a portfolio from cash and positions; duplicate symbols are rejected
func New(cash decimal.Decimal, positions ...Position) (*Portfolio, error) {
	if cash.IsNegative() {
		return nil, errors.NewInvalidInput("portfolio", "new", "cash balance cannot be negative, got %s", cash)
	}
	p := &Portfolio{positions: make(map[string]Position, len(positions)), cash: cash}
	for _, pos := range positions {
		if err := p.add(pos); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// MustNew is New for static fixtures; it panics on invalid input
func MustNew(cash decimal.Decimal, positions ...Position) *Portfolio {
	p, err := New(cash, positions...)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Portfolio) add(pos Position) error {
	if err := pos.Validate(); err != nil {
		return err
	}
	if _, exists := p.positions[pos.Symbol]; exists {
		return errors.NewInvalidInput("portfolio", "add_position", "duplicate position for %s", pos.Symbol)
	}
	p.positions[pos.Symbol] = pos
	return nil
}

// Cash returns the cash balance
func (p *Portfolio) Cash() decimal.Decimal { return p.cash }

// Currency returns the portfolio currency
func (p *Portfolio) Currency() string { return Currency }

// Len returns the number of positions
func (p *Portfolio) Len() int { return len(p.positions) }

// Symbols returns held symbols in sorted order
func (p *Portfolio) Symbols() []string {
	symbols := make([]string, 0, len(p.positions))
	for s := range p.positions {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// Positions returns positions in symbol order
func (p *Portfolio) Positions() []Position {
	out := make([]Position, 0, len(p.positions))
	for _, s := range p.Symbols() {
		out = append(out, p.positions[s])
	}
	return out
}

// Position looks up a holding
func (p *Portfolio) Position(symbol string) (Position, bool) {
	pos, ok := p.positions[symbol]
	return pos, ok
}

// PositionsValue is the sum of market values
func (p *Portfolio) PositionsValue() decimal.Decimal {
	total := decimal.Zero
	for _, pos := range p.Positions() {
		total = total.Add(pos.MarketValue())
	}
	return total
}

// TotalValue is cash plus the sum of market values
func (p *Portfolio) TotalValue() decimal.Decimal {
	return p.cash.Add(p.PositionsValue())
}

// percentOf returns value as a percentage of total; zero total yields zero
func percentOf(value, total decimal.Decimal) float64 {
	if !total.IsPositive() {
		return 0
	}
	return value.Mul(hundred).Div(total).InexactFloat64()
}

// Weight returns a position's fraction of total value
func (p *Portfolio) Weight(symbol string) float64 {
	pos, ok := p.positions[symbol]
	if !ok {
		return 0
	}
	return percentOf(pos.MarketValue(), p.TotalValue()) / 100
}

// Allocation returns each position's share of total value in percent; empty when total is zero
func (p *Portfolio) Allocation() map[string]float64 {
	total := p.TotalValue()
	out := make(map[string]float64, len(p.positions))
	if !total.IsPositive() {
		return out
	}
	for _, pos := range p.Positions() {
		out[pos.Symbol] = percentOf(pos.MarketValue(), total)
	}
	return out
}

// CashPercent returns cash as a percentage of total value
func (p *Portfolio) CashPercent() float64 {
	return percentOf(p.cash, p.TotalValue())
}

// SectorAllocation sums market value per sector as a percentage of total value
func (p *Portfolio) SectorAllocation(sectorOf func(Position) string) map[string]float64 {
	total := p.TotalValue()
	out := make(map[string]float64)
	if !total.IsPositive() {
		return out
	}
	values := make(map[string]decimal.Decimal)
	for _, pos := range p.Positions() {
		sector := sectorOf(pos)
		values[sector] = values[sector].Add(pos.MarketValue())
	}
	for sector, v := range values {
		out[sector] = percentOf(v, total)
	}
	return out
}

// WithPrices returns a copy marked to the given prices; unknown symbols keep their price
func (p *Portfolio) WithPrices(prices map[string]decimal.Decimal) *Portfolio {
	c := p.clone()
	for s, pos := range c.positions {
		if price, ok := prices[s]; ok && price.IsPositive() {
			c.positions[s] = pos.WithPrice(price)
		}
	}
	return c
}

func (p *Portfolio) clone() *Portfolio {
	c := &Portfolio{positions: make(map[string]Position, len(p.positions)), cash: p.cash}
	for s, pos := range p.positions {
		c.positions[s] = pos
	}
	return c
}

// Simulate returns the portfolio after filling order at price. The receiver is not modified.
func (p *Portfolio) Simulate(order types.TradeOrder, price decimal.Decimal, sector string, at time.Time) (*Portfolio, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}
	if !price.IsPositive() {
		return nil, errors.NewInvalidInput("portfolio", "simulate", "fill price must be positive, got %s", price).
			WithContext("symbol", order.Symbol)
	}

	c := p.clone()
	qty := decimal.NewFromInt(order.Quantity)
	existing, held := c.positions[order.Symbol]

	switch order.Action {
	case types.OrderActionBuy:
		c.cash = c.cash.Sub(price.Mul(qty))
		if held {
			newQty := existing.Quantity + order.Quantity
			entry := existing.CostBasis().Add(price.Mul(qty)).Div(decimal.NewFromInt(newQty))
			existing.Quantity = newQty
			existing.EntryPrice = entry
			existing.CurrentPrice = price
			c.positions[order.Symbol] = existing
		} else {
			c.positions[order.Symbol] = Position{
				Symbol:       order.Symbol,
				Quantity:     order.Quantity,
				EntryPrice:   price,
				CurrentPrice: price,
				EntryDate:    at,
				Sector:       sector,
			}
		}
	case types.OrderActionSell:
		if !held {
			return nil, errors.NewInvalidInput("portfolio", "simulate", "no position in %s to sell", order.Symbol)
		}
		sold := order.Quantity
		if sold >= existing.Quantity {
			sold = existing.Quantity
			delete(c.positions, order.Symbol)
		} else {
			existing.Quantity -= sold
			existing.CurrentPrice = price
			c.positions[order.Symbol] = existing
		}
		c.cash = c.cash.Add(price.Mul(decimal.NewFromInt(sold)))
	}
	return c, nil
}

type portfolioJSON struct {
	Currency   string          `json:"currency"`
	Cash       decimal.Decimal `json:"cash_balance"`
	TotalValue decimal.Decimal `json:"total_value"`
	Positions  []Position      `json:"positions"`
}

// MarshalJSON renders the snapshot with derived totals
func (p *Portfolio) MarshalJSON() ([]byte, error) {
	return json.Marshal(portfolioJSON{
		Currency:   Currency,
		Cash:       p.cash,
		TotalValue: p.TotalValue(),
		Positions:  p.Positions(),
	})
}
