package reporting

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ducminhle1904/moex-risk-engine/pkg/types"
)

// DefaultCSVReporter implements CSV output functionality
type DefaultCSVReporter struct{}

// NewDefaultCSVReporter creates a new CSV reporter
func NewDefaultCSVReporter() *DefaultCSVReporter {
	return &DefaultCSVReporter{}
}

// WriteTradesCSV writes rebalance trades, one order per row, with a totals row at the end
func (r *DefaultCSVReporter) WriteTradesCSV(trades []types.TradeOrder, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Action", "Symbol", "Quantity", "Type", "Price_RUB", "Value_RUB"}); err != nil {
		return err
	}

	sold, bought := decimal.Zero, decimal.Zero
	for _, t := range trades {
		price, value := "", ""
		if t.Price.Valid {
			v := t.Price.Decimal.Mul(decimal.NewFromInt(t.Quantity))
			price, value = t.Price.Decimal.StringFixed(2), v.StringFixed(2)
			if t.Action == types.OrderActionSell {
				sold = sold.Add(v)
			} else {
				bought = bought.Add(v)
			}
		}
		row := []string{
			string(t.Action),
			t.Symbol,
			strconv.FormatInt(t.Quantity, 10),
			string(t.OrderType()),
			price,
			value,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	summary := strings.Join([]string{
		"SUMMARY: trades=" + strconv.Itoa(len(trades)),
		"sold_rub=" + sold.StringFixed(2),
		"bought_rub=" + bought.StringFixed(2),
	}, "; ")
	if err := w.Write([]string{"", "", "", "", "", summary}); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

// Package-level convenience function
func WriteTradesCSV(trades []types.TradeOrder, path string) error {
	return NewDefaultCSVReporter().WriteTradesCSV(trades, path)
}
