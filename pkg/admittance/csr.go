package admittance

import "sort"

// ComplexCSR is a compressed-sparse-row complex matrix. It is immutable
// after Build: all entries are accumulated (duplicates summed) then frozen,
// mirroring the "Ybus lazily computed and cached on first request, immutable
// thereafter" lifecycle from spec §3.
type ComplexCSR struct {
	Rows, Cols int
	rowPtr     []int
	colIdx     []int
	vals       []complex128
}

// ComplexTripletBuilder accumulates (row, col, value) contributions — the
// generalization of the teacher's per-device Stamp() calls into Ybus's
// Cf^T*diag(yff)*Cf + ... sum (spec §3).
type ComplexTripletBuilder struct {
	rows, cols int
	acc        map[[2]int]complex128
}

func NewComplexTripletBuilder(rows, cols int) *ComplexTripletBuilder {
	return &ComplexTripletBuilder{rows: rows, cols: cols, acc: make(map[[2]int]complex128)}
}

// Add accumulates value into entry (r, c), 0-based.
func (b *ComplexTripletBuilder) Add(r, c int, value complex128) {
	if r < 0 || r >= b.rows || c < 0 || c >= b.cols || value == 0 {
		return
	}
	b.acc[[2]int{r, c}] += value
}

// Build freezes the accumulated triplets into a ComplexCSR.
func (b *ComplexTripletBuilder) Build() *ComplexCSR {
	type entry struct {
		r, c int
		v    complex128
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

	m := &ComplexCSR{Rows: b.rows, Cols: b.cols}
	m.rowPtr = make([]int, b.rows+1)
	m.colIdx = make([]int, len(entries))
	m.vals = make([]complex128, len(entries))
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

// Row calls fn(col, val) for every nonzero of row r.
func (m *ComplexCSR) Row(r int, fn func(col int, val complex128)) {
	for k := m.rowPtr[r]; k < m.rowPtr[r+1]; k++ {
		fn(m.colIdx[k], m.vals[k])
	}
}

// At returns the (structural) value at (r, c), 0 if absent. Linear scan of
// the row — fine for the moderate branch counts this core targets; callers
// in hot loops should use Row instead.
func (m *ComplexCSR) At(r, c int) complex128 {
	var out complex128
	m.Row(r, func(col int, val complex128) {
		if col == c {
			out = val
		}
	})
	return out
}

// MulVec computes m * v.
func (m *ComplexCSR) MulVec(v []complex128) []complex128 {
	out := make([]complex128, m.Rows)
	for r := 0; r < m.Rows; r++ {
		var sum complex128
		m.Row(r, func(col int, val complex128) {
			sum += val * v[col]
		})
		out[r] = sum
	}
	return out
}

// Diag extracts the main diagonal (square matrices only).
func (m *ComplexCSR) Diag() []complex128 {
	d := make([]complex128, m.Rows)
	for r := 0; r < m.Rows; r++ {
		d[r] = m.At(r, r)
	}
	return d
}

// ToDense materializes the matrix, for the small dense contexts the spec
// calls for (AC-PTDF's full Jacobian, test fixtures).
func (m *ComplexCSR) ToDense() [][]complex128 {
	out := make([][]complex128, m.Rows)
	for r := range out {
		out[r] = make([]complex128, m.Cols)
	}
	for r := 0; r < m.Rows; r++ {
		m.Row(r, func(col int, val complex128) {
			out[r][col] = val
		})
	}
	return out
}

// NNZ returns the number of structurally nonzero entries.
func (m *ComplexCSR) NNZ() int { return len(m.vals) }
