// Package stats holds the statistical helpers behind volatility and correlation.
package stats

import (
	"math"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/ducminhle1904/moex-risk-engine/internal/errors"
)

// ValidateHistory checks that every price in a history is positive
func ValidateHistory(symbol string, prices []decimal.Decimal) error {
	for i, p := range prices {
		if !p.IsPositive() {
			return errors.NewInvalidInput("stats", "validate_history", "price at index %d must be positive, got %s", i, p).
				WithContext("symbol", symbol)
		}
	}
	return nil
}

// Floats converts decimal prices to float64 for statistics
func Floats(prices []decimal.Decimal) []float64 {
	out := make([]float64, len(prices))
	for i, p := range prices {
		out[i] = p.InexactFloat64()
	}
	return out
}

// Returns computes simple returns p[i]/p[i-1] - 1, oldest first
func Returns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, prices[i]/prices[i-1]-1)
	}
	return out
}

// Tail returns the last n elements of xs, or all of xs when shorter
func Tail(xs []float64, n int) []float64 {
	if n >= len(xs) {
		return xs
	}
	if n <= 0 {
		return nil
	}
	return xs[len(xs)-n:]
}

// StdDev is the sample standard deviation; fewer than two values yield 0
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}

// Pearson computes the correlation of two equal-length series, clamped to [-1, 1].
// Zero variance in either series yields 0.
func Pearson(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}
	if stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return 0
	}
	c := stat.Correlation(x, y, nil)
	if math.IsNaN(c) {
		return 0
	}
	return math.Max(-1, math.Min(1, c))
}

// Clamp01 limits v to [0, 1]
func Clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
