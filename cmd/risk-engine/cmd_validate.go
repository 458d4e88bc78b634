package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ducminhle1904/moex-risk-engine/internal/validator"
	"github.com/ducminhle1904/moex-risk-engine/pkg/reporting"
	"github.com/ducminhle1904/moex-risk-engine/pkg/types"
)

// orderOptions describe an order given on the command line
type orderOptions struct {
	symbol    string
	action    string
	quantity  int64
	orderType string
	price     string
	stopLoss  string
	strict    bool
}

func (o *orderOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.symbol, "symbol", "", "Order symbol; when empty the snapshot's order is used")
	cmd.Flags().StringVar(&o.action, "action", "BUY", "BUY or SELL")
	cmd.Flags().Int64Var(&o.quantity, "quantity", 0, "Order quantity in shares")
	cmd.Flags().StringVar(&o.orderType, "type", "", "MARKET or LIMIT (LIMIT when --price is set)")
	cmd.Flags().StringVar(&o.price, "price", "", "Limit price in RUB")
	cmd.Flags().StringVar(&o.stopLoss, "stop-loss", "", "Stop-loss price in RUB")
	cmd.Flags().BoolVar(&o.strict, "strict", false, "Exit with an error when the order is rejected")
}

func parsePrice(name, value string) (decimal.NullDecimal, error) {
	if value == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid --%s %q: %w", name, value, err)
	}
	return decimal.NewNullDecimal(d), nil
}

// order builds the order from flags, falling back to the snapshot's order
func (o *orderOptions) order(fallback *types.TradeOrder) (types.TradeOrder, error) {
	if o.symbol == "" {
		if fallback == nil {
			return types.TradeOrder{}, fmt.Errorf("no order given: set --symbol or add an order to the snapshot")
		}
		return *fallback, nil
	}

	price, err := parsePrice("price", o.price)
	if err != nil {
		return types.TradeOrder{}, err
	}
	stop, err := parsePrice("stop-loss", o.stopLoss)
	if err != nil {
		return types.TradeOrder{}, err
	}

	orderType := types.OrderType(strings.ToUpper(o.orderType))
	if orderType == "" {
		orderType = types.OrderTypeMarket
		if price.Valid {
			orderType = types.OrderTypeLimit
		}
	}

	order := types.TradeOrder{
		Symbol:   strings.ToUpper(o.symbol),
		Action:   types.OrderAction(strings.ToUpper(o.action)),
		Quantity: o.quantity,
		Type:     orderType,
		Price:    price,
		StopLoss: stop,
	}
	return order, order.Validate()
}

func newValidateOrderCmd(root *rootOptions, stderr io.Writer) *cobra.Command {
	snapOpts := &snapshotOptions{}
	outOpts := &outputOptions{}
	orderOpts := &orderOptions{}

	cmd := &cobra.Command{
		Use:   "validate-order",
		Short: "Validate one order against compliance, diversification and risk limits",
		Long: `Validate one order against the snapshot portfolio. The portfolio is assessed first
so that a CRITICAL risk level blocks new buys and elevated geopolitical risk tightens the limits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.load(stderr)
			if err != nil {
				return err
			}
			defer log.Close()

			c, err := loadCycle(cfg, log, snapOpts)
			if err != nil {
				return err
			}
			order, err := orderOpts.order(c.snapshot.Order)
			if err != nil {
				return err
			}

			d, err := c.engine.Evaluate(c.input)
			if err != nil {
				return err
			}
			res, err := c.engine.ValidateOrder(validator.Request{
				Order:          order,
				Portfolio:      c.input.Portfolio,
				MarketData:     c.input.MarketData,
				PriceHistories: c.input.PriceHistories,
				Assessment:     d.Risk,
				Geopolitical:   d.Geopolitical,
				News:           c.input.News,
				Now:            c.input.Now,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			written, err := reporting.NewReportingManager(outOpts.reporting(), out).ReportValidation(order, res)
			if err != nil {
				return err
			}
			printWritten(out, written)
			if err := writeMetrics(c.metrics, outOpts.metricsFile, out); err != nil {
				return err
			}
			if orderOpts.strict && !res.Valid {
				return fmt.Errorf("order %s %d %s rejected: %s", order.Action, order.Quantity, order.Symbol, strings.Join(res.Errors, "; "))
			}
			return nil
		},
	}
	snapOpts.register(cmd)
	outOpts.register(cmd)
	orderOpts.register(cmd)
	return cmd
}
