package stats

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/mat"
)

// Pair is one off-diagonal correlation entry
type Pair struct {
	A           string  `json:"a"`
	B           string  `json:"b"`
	Correlation float64 `json:"correlation"`
}

// CorrelationMatrix holds pairwise return correlations. Entries lacking enough shared history are absent.
type CorrelationMatrix struct {
	symbols []string
	index   map[string]int
	values  *mat.SymDense
	known   []bool
}

// NewCorrelationMatrix correlates simple returns over the shortest shared history of each pair.
// Pairs with fewer than minPoints shared prices are left absent; the diagonal is always 1.
func NewCorrelationMatrix(symbols []string, histories map[string][]decimal.Decimal, minPoints int) *CorrelationMatrix {
	sorted := append([]string(nil), symbols...)
	sort.Strings(sorted)
	sorted = dedupe(sorted)

	n := len(sorted)
	m := &CorrelationMatrix{
		symbols: sorted,
		index:   make(map[string]int, n),
		known:   make([]bool, n*n),
	}
	if n > 0 {
		m.values = mat.NewSymDense(n, nil)
	}

	returns := make([][]float64, n)
	lengths := make([]int, n)
	for i, s := range sorted {
		m.index[s] = i
		prices := histories[s]
		lengths[i] = len(prices)
		returns[i] = Returns(Floats(prices))
		m.values.SetSym(i, i, 1)
		m.known[i*n+i] = true
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			shared := lengths[i]
			if lengths[j] < shared {
				shared = lengths[j]
			}
			if shared < minPoints || shared < 3 {
				continue
			}
			c := Pearson(Tail(returns[i], shared-1), Tail(returns[j], shared-1))
			m.values.SetSym(i, j, c)
			m.known[i*n+j] = true
			m.known[j*n+i] = true
		}
	}
	return m
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}

// Symbols returns the matrix symbols in sorted order
func (m *CorrelationMatrix) Symbols() []string {
	return append([]string(nil), m.symbols...)
}

// Get returns the correlation of a and b, and whether it is known
func (m *CorrelationMatrix) Get(a, b string) (float64, bool) {
	i, ok := m.index[a]
	if !ok {
		return 0, false
	}
	j, ok := m.index[b]
	if !ok {
		return 0, false
	}
	n := len(m.symbols)
	if !m.known[i*n+j] {
		return 0, false
	}
	return m.values.At(i, j), true
}

// Pairs returns every known off-diagonal entry with A < B, in symbol order
func (m *CorrelationMatrix) Pairs() []Pair {
	var out []Pair
	n := len(m.symbols)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if m.known[i*n+j] {
				out = append(out, Pair{A: m.symbols[i], B: m.symbols[j], Correlation: m.values.At(i, j)})
			}
		}
	}
	return out
}

// MarshalJSON renders the known entries as "A/B": value
func (m *CorrelationMatrix) MarshalJSON() ([]byte, error) {
	out := make(map[string]float64)
	for _, p := range m.Pairs() {
		out[p.A+"/"+p.B] = p.Correlation
	}
	return json.Marshal(out)
}
