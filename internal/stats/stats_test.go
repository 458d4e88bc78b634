package stats

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/moex-risk-engine/internal/errors"
)

func series(start float64, steps ...float64) []decimal.Decimal {
	out := []decimal.Decimal{decimal.NewFromFloat(start)}
	p := start
	for _, s := range steps {
		p *= 1 + s
		out = append(out, decimal.NewFromFloat(p))
	}
	return out
}

func wave(n int, amp float64, phase int) []float64 {
	steps := make([]float64, n)
	for i := range steps {
		steps[i] = amp * math.Sin(float64(i+phase)*0.7)
	}
	return steps
}

// TestReturns_Simple tests simple return calculation
func TestReturns_Simple(t *testing.T) {
	r := Returns([]float64{100, 110, 99})
	require.Len(t, r, 2)
	assert.InDelta(t, 0.1, r[0], 1e-12)
	assert.InDelta(t, -0.1, r[1], 1e-12)

	assert.Nil(t, Returns([]float64{100}))
}

// TestStdDev_Sample tests the sample standard deviation
func TestStdDev_Sample(t *testing.T) {
	assert.InDelta(t, math.Sqrt(2.5), StdDev([]float64{1, 2, 3, 4, 5}), 1e-12)
	assert.Zero(t, StdDev([]float64{0.3}))
}

// TestPearson_Bounds tests perfect, inverse and degenerate correlations
func TestPearson_Bounds(t *testing.T) {
	x := []float64{0.01, -0.02, 0.03, 0.015, -0.01}
	y := make([]float64, len(x))
	z := make([]float64, len(x))
	for i, v := range x {
		y[i] = 2*v + 0.001
		z[i] = -v
	}

	assert.InDelta(t, 1.0, Pearson(x, y), 1e-12)
	assert.InDelta(t, -1.0, Pearson(x, z), 1e-12)
	assert.Zero(t, Pearson(x, []float64{0.1, 0.1, 0.1, 0.1, 0.1}))
	assert.Zero(t, Pearson(x, y[:3]))
}

// TestCorrelationMatrix_Properties tests diagonal, symmetry and range
func TestCorrelationMatrix_Properties(t *testing.T) {
	histories := map[string][]decimal.Decimal{
		"SBER": series(250, wave(30, 0.02, 0)...),
		"VTBR": series(0.02, wave(30, 0.03, 0)...),
		"GAZP": series(170, wave(25, 0.015, 2)...),
		"YNDX": series(2500, wave(10, 0.02, 1)...),
	}
	symbols := []string{"YNDX", "SBER", "GAZP", "VTBR", "SBER"}

	m := NewCorrelationMatrix(symbols, histories, 20)
	assert.Equal(t, []string{"GAZP", "SBER", "VTBR", "YNDX"}, m.Symbols())

	for _, a := range m.Symbols() {
		self, ok := m.Get(a, a)
		require.True(t, ok)
		assert.Equal(t, 1.0, self)
		for _, b := range m.Symbols() {
			ab, okAB := m.Get(a, b)
			ba, okBA := m.Get(b, a)
			assert.Equal(t, okAB, okBA)
			assert.Equal(t, ab, ba)
			assert.GreaterOrEqual(t, ab, -1.0)
			assert.LessOrEqual(t, ab, 1.0)
		}
	}

	c, ok := m.Get("SBER", "VTBR")
	require.True(t, ok)
	assert.Greater(t, c, 0.99)

	_, ok = m.Get("SBER", "YNDX")
	assert.False(t, ok, "short history must leave the entry absent")

	_, ok = m.Get("SBER", "MISSING")
	assert.False(t, ok)
}

// TestCorrelationMatrix_AlignsToShortestHistory tests tail alignment
func TestCorrelationMatrix_AlignsToShortestHistory(t *testing.T) {
	base := wave(40, 0.02, 0)
	long := series(100, base...)
	short := series(50, base[15:]...)

	m := NewCorrelationMatrix([]string{"A", "B"}, map[string][]decimal.Decimal{"A": long, "B": short}, 20)
	c, ok := m.Get("A", "B")
	require.True(t, ok)
	assert.InDelta(t, 1.0, c, 1e-6)
	assert.Len(t, m.Pairs(), 1)
}

// TestCorrelationMatrix_Idempotent tests bit-identical repeated computation
func TestCorrelationMatrix_Idempotent(t *testing.T) {
	histories := map[string][]decimal.Decimal{
		"A": series(100, wave(30, 0.02, 0)...),
		"B": series(100, wave(30, 0.02, 3)...),
	}
	first := NewCorrelationMatrix([]string{"A", "B"}, histories, 20)
	second := NewCorrelationMatrix([]string{"B", "A"}, histories, 20)
	assert.Equal(t, first.Pairs(), second.Pairs())
}

// TestValidateHistory tests rejection of non-positive prices
func TestValidateHistory(t *testing.T) {
	assert.NoError(t, ValidateHistory("SBER", series(100, 0.01, 0.02)))
	err := ValidateHistory("SBER", []decimal.Decimal{decimal.NewFromInt(1), decimal.Zero})
	assert.True(t, errors.IsInvalidInput(err))
}
