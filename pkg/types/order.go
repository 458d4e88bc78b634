package types

import (
	"github.com/shopspring/decimal"

	"github.com/ducminhle1904/moex-risk-engine/internal/errors"
)

// OrderAction is the trade direction
type OrderAction string

const (
	OrderActionBuy  OrderAction = "BUY"
	OrderActionSell OrderAction = "SELL"
)

// OrderType distinguishes priced from unpriced orders
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// TradeOrder is a proposed order handed to an execution component
type TradeOrder struct {
	Symbol     string              `json:"symbol" yaml:"symbol"`
	Action     OrderAction         `json:"action" yaml:"action"`
	Quantity   int64               `json:"quantity" yaml:"quantity"`
	Type       OrderType           `json:"order_type" yaml:"order_type"`
	Price      decimal.NullDecimal `json:"price" yaml:"price"`
	StopLoss   decimal.NullDecimal `json:"stop_loss" yaml:"stop_loss"`
	TakeProfit decimal.NullDecimal `json:"take_profit" yaml:"take_profit"`
}

// Validate checks the structural requirements of an order
func (o TradeOrder) Validate() error {
	if o.Symbol == "" {
		return errors.NewInvalidInput("order", "validate", "symbol is required")
	}
	switch o.Action {
	case OrderActionBuy, OrderActionSell:
	default:
		return errors.NewInvalidInput("order", "validate", "unknown action %q", o.Action).WithContext("symbol", o.Symbol)
	}
	if o.Quantity <= 0 {
		return errors.NewInvalidInput("order", "validate", "quantity must be positive, got %d", o.Quantity).
			WithContext("symbol", o.Symbol)
	}
	switch o.OrderType() {
	case OrderTypeMarket:
	case OrderTypeLimit:
		if !o.Price.Valid {
			return errors.NewInvalidInput("order", "validate", "limit order requires a price").WithContext("symbol", o.Symbol)
		}
	default:
		return errors.NewInvalidInput("order", "validate", "unknown order type %q", o.Type).WithContext("symbol", o.Symbol)
	}
	priced := []struct {
		name  string
		value decimal.NullDecimal
	}{{"price", o.Price}, {"stop_loss", o.StopLoss}, {"take_profit", o.TakeProfit}}
	for _, f := range priced {
		if f.value.Valid && !f.value.Decimal.IsPositive() {
			return errors.NewInvalidInput("order", "validate", "%s must be positive, got %s", f.name, f.value.Decimal).
				WithContext("symbol", o.Symbol)
		}
	}
	return nil
}

// OrderType returns the order type, treating empty as MARKET
func (o TradeOrder) OrderType() OrderType {
	if o.Type == "" {
		return OrderTypeMarket
	}
	return o.Type
}

// IsPriced reports whether the order carries a limit price
func (o TradeOrder) IsPriced() bool {
	return o.OrderType() == OrderTypeLimit && o.Price.Valid
}

// NewLimitOrder builds a priced order
func NewLimitOrder(symbol string, action OrderAction, quantity int64, price decimal.Decimal) TradeOrder {
	return TradeOrder{
		Symbol:   symbol,
		Action:   action,
		Quantity: quantity,
		Type:     OrderTypeLimit,
		Price:    decimal.NewNullDecimal(price),
	}
}

// NewMarketOrder builds an unpriced order
func NewMarketOrder(symbol string, action OrderAction, quantity int64) TradeOrder {
	return TradeOrder{Symbol: symbol, Action: action, Quantity: quantity, Type: OrderTypeMarket}
}
