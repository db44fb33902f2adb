package admittance

import (
	"sort"

	"github.com/gridnum/gridnum/pkg/sparsemat"
)

// RealCSR is the real-valued counterpart of ComplexCSR, used for the DC
// susceptance matrices (Bbus, Bf) and the fast-decoupled B', B'' matrices
// (spec §4.2, §4.4.3, §4.4.6).
type RealCSR struct {
	Rows, Cols int
	rowPtr     []int
	colIdx     []int
	vals       []float64
}

type RealTripletBuilder struct {
	rows, cols int
	acc        map[[2]int]float64
}

func NewRealTripletBuilder(rows, cols int) *RealTripletBuilder {
	return &RealTripletBuilder{rows: rows, cols: cols, acc: make(map[[2]int]float64)}
}

func (b *RealTripletBuilder) Add(r, c int, value float64) {
	if r < 0 || r >= b.rows || c < 0 || c >= b.cols || value == 0 {
		return
	}
	b.acc[[2]int{r, c}] += value
}

func (b *RealTripletBuilder) Build() *RealCSR {
	type entry struct {
		r, c int
		v    float64
	}
	entries := make([]entry, 0, len(b.acc))
	for k, v := range b.acc {
		if v == 0 {
			continue
		}
		entries = append(entries, entry{k[0], k[1], v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].r != entries[j].r {
			return entries[i].r < entries[j].r
		}
		return entries[i].c < entries[j].c
	})

	m := &RealCSR{Rows: b.rows, Cols: b.cols}
	m.rowPtr = make([]int, b.rows+1)
	m.colIdx = make([]int, len(entries))
	m.vals = make([]float64, len(entries))
	for i, e := range entries {
		m.colIdx[i] = e.c
		m.vals[i] = e.v
	}
	cur := 0
	for r := 0; r < b.rows; r++ {
		m.rowPtr[r] = cur
		for cur < len(entries) && entries[cur].r == r {
			cur++
		}
		m.rowPtr[r+1] = cur
	}
	return m
}

func (m *RealCSR) Row(r int, fn func(col int, val float64)) {
	for k := m.rowPtr[r]; k < m.rowPtr[r+1]; k++ {
		fn(m.colIdx[k], m.vals[k])
	}
}

func (m *RealCSR) At(r, c int) float64 {
	out := 0.0
	m.Row(r, func(col int, val float64) {
		if col == c {
			out = val
		}
	})
	return out
}

func (m *RealCSR) MulVec(v []float64) []float64 {
	out := make([]float64, m.Rows)
	for r := 0; r < m.Rows; r++ {
		sum := 0.0
		m.Row(r, func(col int, val float64) {
			sum += val * v[col]
		})
		out[r] = sum
	}
	return out
}

// Submatrix extracts the rows named by rowIdx and the columns named by
// colIdx — used for B[no_slack,no_slack] and B[no_slack,vd] style slices
// throughout spec §4.4–§4.7.
func (m *RealCSR) Submatrix(rowIdx, colIdx []int) *RealCSR {
	pos := make(map[int]int, len(colIdx))
	for i, c := range colIdx {
		pos[c] = i
	}
	b := NewRealTripletBuilder(len(rowIdx), len(colIdx))
	for i, r := range rowIdx {
		m.Row(r, func(col int, val float64) {
			if j, ok := pos[col]; ok {
				b.Add(i, j, val)
			}
		})
	}
	return b.Build()
}

// ToSparseSystem loads the matrix into a fresh real sparsemat.System ready
// for Factor()/Solve() — the CSC direct-solve step spec §4.4.6/§4.5 call for.
func (m *RealCSR) ToSparseSystem() (*sparsemat.System, error) {
	sys, err := sparsemat.New(m.Rows, false)
	if err != nil {
		return nil, err
	}
	for r := 0; r < m.Rows; r++ {
		m.Row(r, func(col int, val float64) {
			sys.AddReal(r+1, col+1, val)
		})
	}
	return sys, nil
}

// ToDense materializes the matrix (PTDF/LODF per spec §4.5/§6.2 are
// specified dense).
func (m *RealCSR) ToDense() [][]float64 {
	out := make([][]float64, m.Rows)
	for r := range out {
		out[r] = make([]float64, m.Cols)
	}
	for r := 0; r < m.Rows; r++ {
		m.Row(r, func(col int, val float64) {
			out[r][col] = val
		})
	}
	return out
}
