// Package reduction implements Ward network reduction, generator relocation
// via electrical-distance shortest paths, and DC inverse power-flow boundary
// load assignment, per spec §4.7-§4.8. Relocation uses
// gonum.org/v1/gonum/graph/simple and graph/path.DijkstraFrom (float64
// edge weights) rather than a lossy integer-weighted shortest-path library:
// electrical distances are naturally real-valued and rounding them to
// integers to fit an int64-weighted graph would bias the nearest-boundary
// assignment (see DESIGN.md).
package reduction

import (
	"math"
	"math/cmplx"
	"sort"

	"github.com/gridnum/gridnum/internal/consts"
	"github.com/gridnum/gridnum/pkg/admittance"
	"github.com/gridnum/gridnum/pkg/sparsemat"
)

// EquivalentBranch is one pruned-survivor off-diagonal of Y_eq, expressed as
// an impedance per spec §4.7 "Equivalent extraction".
type EquivalentBranch struct {
	I, J int
	Y    complex128
	Z    complex128
}

// WardResult is the output of WardReduce: the retained-bus admittance
// equivalent plus its pruned branch/shunt decomposition.
type WardResult struct {
	Retain    []int
	Yeq       *admittance.ComplexCSR // len(Retain) x len(Retain)
	Branches  []EquivalentBranch
	ShuntDiag []complex128 // per retained bus
}

// WardReduce computes Y_eq = Y_rr - Y_re*Y_ee^-1*Y_er via a single sparse
// multi-RHS solve of Y_ee*X = Y_er, per spec §4.7. The 10x-pruning rule
// (spec §4.7 "Equivalent extraction") is applied against ybus's own
// reactances as the x_max reference.
func WardReduce(ybus *admittance.ComplexCSR, retain []int) (WardResult, error) {
	n := ybus.Rows
	elim := complementOf(n, retain)

	if len(elim) == 0 {
		// Trivial case (spec §8): retain set is everything, Y_eq = Y_rr exactly.
		yrr := submatrixComplex(ybus, retain, retain)
		shunts := make([]complex128, len(retain))
		for i := range shunts {
			shunts[i] = yrr.At(i, i)
		}
		return WardResult{Retain: retain, Yeq: yrr, ShuntDiag: shunts}, nil
	}

	yee := submatrixComplex(ybus, elim, elim)
	yer := submatrixComplex(ybus, elim, retain)
	yre := submatrixComplex(ybus, retain, elim)
	yrr := submatrixComplex(ybus, retain, retain)

	sys, err := sparsemat.New(len(elim), true)
	if err != nil {
		return WardResult{}, err
	}
	for i := 0; i < len(elim); i++ {
		yee.Row(i, func(j int, val complex128) {
			sys.AddComplex(i+1, j+1, real(val), imag(val))
		})
	}
	if err := sys.Factor(); err != nil {
		return WardResult{}, err
	}

	// X = Yee^-1 * Yer, solved one RHS column at a time, reusing the
	// factorization (spec §4.7 "single sparse multi-RHS solve").
	x := make([][]complex128, len(elim)) // x[row][col]
	for i := range x {
		x[i] = make([]complex128, len(retain))
	}
	for col := 0; col < len(retain); col++ {
		rhsRe := make([]float64, len(elim)+1)
		rhsIm := make([]float64, len(elim)+1)
		colEntries(yer, col, func(row int, val complex128) {
			rhsRe[row+1] = real(val)
			rhsIm[row+1] = imag(val)
		})
		sys.ClearRHS()
		for i := 1; i <= len(elim); i++ {
			sys.AddRHSComplex(i, rhsRe[i], rhsIm[i])
		}
		re, im, err := sys.SolveComplex()
		if err != nil {
			return WardResult{}, err
		}
		for row := 0; row < len(elim); row++ {
			x[row][col] = complex(re[row+1], im[row+1])
		}
	}

	// Y_eq = Y_rr - Y_re*X
	nr := len(retain)
	yeqB := admittance.NewComplexTripletBuilder(nr, nr)
	for i := 0; i < nr; i++ {
		yrr.Row(i, func(j int, val complex128) { yeqB.Add(i, j, val) })
	}
	for i := 0; i < nr; i++ {
		yre.Row(i, func(k int, val complex128) {
			for j := 0; j < nr; j++ {
				if x[k][j] != 0 {
					yeqB.Add(i, j, -val*x[k][j])
				}
			}
		})
	}
	yeq := yeqB.Build()

	xMax := maxReactanceDistance(ybus)
	branches, shunts := extractEquivalent(yeq, xMax)

	return WardResult{Retain: retain, Yeq: yeq, Branches: branches, ShuntDiag: shunts}, nil
}

// maxReactanceDistance computes x_max = max_{i!=j} |Im(1/(-Y_ij))| over the
// original admittance matrix, per spec §4.7.
func maxReactanceDistance(ybus *admittance.ComplexCSR) float64 {
	xMax := 0.0
	for i := 0; i < ybus.Rows; i++ {
		ybus.Row(i, func(j int, val complex128) {
			if j == i || val == 0 {
				return
			}
			z := 1.0 / (-val)
			if x := math.Abs(imag(z)); x > xMax {
				xMax = x
			}
		})
	}
	return xMax
}

// extractEquivalent applies the 10x-pruning rule of spec §4.7: keep (i,j)
// iff |z_eq| <= WardPruningFactor*x_max. Diagonal entries become each
// retained bus's shunt.
func extractEquivalent(yeq *admittance.ComplexCSR, xMax float64) ([]EquivalentBranch, []complex128) {
	n := yeq.Rows
	shunts := make([]complex128, n)
	var branches []EquivalentBranch
	seen := make(map[[2]int]bool)

	for i := 0; i < n; i++ {
		shunts[i] = yeq.At(i, i)
		yeq.Row(i, func(j int, val complex128) {
			if j == i || val == 0 {
				return
			}
			key := [2]int{i, j}
			rkey := [2]int{j, i}
			if seen[key] || seen[rkey] {
				return
			}
			seen[key] = true
			z := 1.0 / (-val)
			if cmplx.Abs(z) <= consts.WardPruningFactor*xMax {
				branches = append(branches, EquivalentBranch{I: i, J: j, Y: val, Z: z})
			}
		})
	}
	sort.Slice(branches, func(a, b int) bool {
		if branches[a].I != branches[b].I {
			return branches[a].I < branches[b].I
		}
		return branches[a].J < branches[b].J
	})
	return branches, shunts
}

func complementOf(n int, idx []int) []int {
	in := make(map[int]bool, len(idx))
	for _, i := range idx {
		in[i] = true
	}
	var out []int
	for i := 0; i < n; i++ {
		if !in[i] {
			out = append(out, i)
		}
	}
	return out
}

func submatrixComplex(m *admittance.ComplexCSR, rows, cols []int) *admittance.ComplexCSR {
	pos := make(map[int]int, len(cols))
	for j, c := range cols {
		pos[c] = j
	}
	b := admittance.NewComplexTripletBuilder(len(rows), len(cols))
	for i, r := range rows {
		m.Row(r, func(col int, val complex128) {
			if j, ok := pos[col]; ok {
				b.Add(i, j, val)
			}
		})
	}
	return b.Build()
}

// colEntries iterates (row, val) of one column of an m x n ComplexCSR (a
// linear scan; fine for the moderate elimination-set sizes Ward reduction
// targets).
func colEntries(m *admittance.ComplexCSR, col int, fn func(row int, val complex128)) {
	for r := 0; r < m.Rows; r++ {
		m.Row(r, func(c int, val complex128) {
			if c == col {
				fn(r, val)
			}
		})
	}
}
