package powerflow

import (
	"math/cmplx"
	"time"

	"github.com/gridnum/gridnum/pkg/admittance"
	"github.com/gridnum/gridnum/pkg/diag"
	"github.com/gridnum/gridnum/pkg/sparsemat"
)

// HELMResult extends NumericPowerFlowResults with the series-specific
// diagnostics spec §7 calls for (truncation on numerical overflow).
type HELMResult struct {
	NumericPowerFlowResults
	CoefficientsUsed int
	Truncated        bool // true if we fell back to the last finite partial sum
}

// HELM solves the embedded power-flow series V(s) = sum Cn*s^n around s=0,
// summed either by direct partial sum with Wynn's epsilon algorithm or by a
// diagonal Padé approximant, per spec §4.4.4.
//
// PV-bus handling: the exact Trias-style joint Cn/Qn bordered solve for PV
// buses is out of scope for this series core (same caveat spec §9 raises for
// multi-slack islands); instead PV buses are linearized once via a capped
// 2-iteration Newton-Raphson pass to obtain a reactive-power estimate, which
// is then held fixed as an ordinary PQ injection for the series expansion.
// This is a deliberate, documented simplification (see DESIGN.md) — networks
// with strongly voltage-sensitive PV limits should be solved with NR/LM
// instead.
func HELM(ybus *admittance.ComplexCSR, sbus, ibus, v0 []complex128, pvpq, pq, pv []int, opt Options, logger *diag.Logger) (HELMResult, error) {
	start := time.Now()
	n := len(v0)

	sEff := append([]complex128{}, sbus...)
	if len(pv) > 0 {
		pre, _ := NewtonRaphson(ybus, sbus, ibus, v0, pvpq, pq, Options{
			Tolerance: opt.Tolerance, MaxIterations: 2, Acceleration: opt.Acceleration,
			BacktrackTries: opt.BacktrackTries, MinStepFrac: opt.MinStepFrac,
		}, nil)
		ibusPre := ybus.MulVec(pre.V)
		for _, i := range pv {
			sCalc := pre.V[i] * cConj(ibusPre[i])
			sEff[i] = complex(real(sEff[i]), imag(sCalc))
		}
	}

	maxCoef := opt.HELMMaxCoefficients
	if maxCoef <= 0 {
		maxCoef = 30
	}

	noSlack := append(append([]int{}, pv...), pq...)
	sortInts(noSlack)
	vd := complementIdx(n, noSlack)

	bnn := ybus // restrict via row/col selection below

	// Build and factor the complex M once: Ybus[noSlack,noSlack].
	sys, err := buildComplexSubsystem(bnn, noSlack)
	if err != nil {
		return HELMResult{}, err
	}
	if err := sys.Factor(); err != nil {
		return HELMResult{}, err
	}

	vSlack := make([]complex128, len(vd))
	for k, i := range vd {
		vSlack[k] = v0[i]
	}
	ynv, err := buildComplexRect(bnn, noSlack, vd)
	if err != nil {
		return HELMResult{}, err
	}
	rhs0 := ynv.MulVec(vSlack)
	for k := range rhs0 {
		rhs0[k] = -rhs0[k]
	}
	sys.ClearRHS()
	for k, val := range rhs0 {
		sys.AddRHSComplex(k+1, real(val), imag(val))
	}
	c0re, c0im, err := sys.SolveComplex()
	if err != nil {
		return HELMResult{}, err
	}
	C0 := toComplexVec(c0re, c0im, len(noSlack))

	coeffs := make([][]complex128, 0, maxCoef+1)
	coeffs = append(coeffs, C0)

	W := make([][]complex128, 0, maxCoef+1)
	w0 := make([]complex128, len(noSlack))
	for i := range w0 {
		w0[i] = 1 / cConj(C0[i])
	}
	W = append(W, w0)

	qHistory := make(map[int][]float64) // per PV bus (local index into noSlack), Qn series
	for _, i := range pv {
		qHistory[i] = []float64{0}
	}

	truncated := false
	terminated := false
	usedOrder := 0

	for n1 := 1; n1 <= maxCoef; n1++ {
		rhs := make([]complex128, len(noSlack))
		for k, i := range noSlack {
			rhs[k] = convolutionRHS(i, n1, noSlack, sEff, W, qHistory)
		}

		sys.ClearRHS()
		for k, val := range rhs {
			sys.AddRHSComplex(k+1, real(val), imag(val))
		}
		cnre, cnim, err := sys.SolveComplex()
		if err != nil || !finiteVec(cnre) || !finiteVec(cnim) {
			truncated = true
			break
		}
		Cn := toComplexVec(cnre, cnim, len(noSlack))
		if maxAbs(Cn) > 10 {
			truncated = true
			break
		}
		coeffs = append(coeffs, Cn)

		Wn := make([]complex128, len(noSlack))
		for k := range Wn {
			var sum complex128
			for kk := 0; kk <= n1-1; kk++ {
				sum += W[kk][k] * cConj(coeffs[n1-kk][k])
			}
			Wn[k] = -sum / cConj(C0[k])
		}
		W = append(W, Wn)

		for _, i := range pv {
			k := indexOf(noSlack, i)
			q := estimatePVReactiveOrder(k, n1, coeffs)
			qHistory[i] = append(qHistory[i], q)
		}

		usedOrder = n1

		V := sumSeries(coeffs, v0, noSlack, vd, vSlack)
		_, f := Mismatch(ybus, V, ibus, sbus, pvpq, pq)
		if InfNorm(f) < opt.Tolerance && n1%2 == 1 {
			terminated = true
			break
		}
	}

	var V []complex128
	if opt.HELMUsePade && len(coeffs) >= 4 {
		V = padeSum(coeffs, v0, noSlack, vd, vSlack)
	} else {
		V = wynnSum(coeffs, v0, noSlack, vd, vSlack)
	}

	_, f := Mismatch(ybus, V, ibus, sbus, pvpq, pq)
	normF := InfNorm(f)
	converged := terminated || normF < opt.Tolerance

	if truncated && logger != nil {
		logger.Warn(diag.WarnHELMTruncated, 0, -1, "HELM truncated on numerical overflow; using last finite partial sum")
	}

	sCalc := computeSCalc(ybus, V)
	return HELMResult{
		NumericPowerFlowResults: NumericPowerFlowResults{
			V: V, Converged: converged, NormF: normF, SCalc: sCalc,
			Iterations: usedOrder, Elapsed: time.Since(start),
		},
		CoefficientsUsed: usedOrder,
		Truncated:        truncated,
	}, nil
}

func convolutionRHS(busGlobal, order int, noSlack []int, sbus []complex128, W [][]complex128, qHistory map[int][]float64) complex128 {
	k := indexOf(noSlack, busGlobal)
	if q, ok := qHistory[busGlobal]; ok {
		p := real(sbus[busGlobal])
		var sum complex128
		for kk := 0; kk <= order-1; kk++ {
			qk := 0.0
			if kk < len(q) {
				qk = q[kk]
			}
			sum += complex(qk, 0) * W[order-1-kk][k]
		}
		return complex(p, 0)*W[order-1][k] + complex(0, 1)*sum
	}
	return cConj(sbus[busGlobal]) * W[order-1][k]
}

func estimatePVReactiveOrder(k, order int, coeffs [][]complex128) float64 {
	// Approximate |V|^2 order-n coefficient and use its magnitude as a proxy
	// for the reactive correction needed at this order (documented
	// simplification, see HELM doc comment).
	var conv complex128
	for kk := 0; kk <= order; kk++ {
		conv += coeffs[kk][k] * cConj(coeffs[order-kk][k])
	}
	return -imag(conv)
}

func sumSeries(coeffs [][]complex128, v0 []complex128, noSlack, vd []int, vSlack []complex128) []complex128 {
	n := len(v0)
	out := make([]complex128, n)
	for k, i := range vd {
		out[i] = vSlack[k]
	}
	for k, i := range noSlack {
		var sum complex128
		for _, c := range coeffs {
			sum += c[k]
		}
		out[i] = sum
	}
	return out
}

func wynnSum(coeffs [][]complex128, v0 []complex128, noSlack, vd []int, vSlack []complex128) []complex128 {
	n := len(v0)
	out := make([]complex128, n)
	for k, i := range vd {
		out[i] = vSlack[k]
	}
	for k, i := range noSlack {
		series := make([]complex128, len(coeffs))
		for oi, c := range coeffs {
			series[oi] = c[k]
		}
		out[i] = wynnEpsilon(series)
	}
	return out
}

// wynnEpsilon applies Wynn's epsilon algorithm to the partial sums of
// series, returning the accelerated estimate (spec §4.4.4).
func wynnEpsilon(series []complex128) complex128 {
	partial := make([]complex128, len(series))
	var acc complex128
	for i, c := range series {
		acc += c
		partial[i] = acc
	}
	m := len(partial)
	if m < 3 {
		return partial[m-1]
	}
	eps := make([][]complex128, m+1)
	eps[0] = make([]complex128, m)
	for i := range eps[0] {
		eps[0][i] = 0
	}
	eps[1] = append([]complex128{}, partial...)
	for k := 2; k <= m; k++ {
		eps[k] = make([]complex128, m-k+1)
		for i := range eps[k] {
			diff := eps[k-1][i+1] - eps[k-1][i]
			if diff == 0 {
				eps[k][i] = eps[k-2][i+1]
				continue
			}
			eps[k][i] = eps[k-2][i+1] + 1/diff
		}
	}
	// eps[k] holds epsilon column k-1, so the estimates (even epsilon
	// columns) sit at odd k.
	best := m
	if best%2 == 0 {
		best--
	}
	if best < 2 || len(eps[best]) == 0 {
		return partial[m-1]
	}
	return eps[best][len(eps[best])-1]
}

func padeSum(coeffs [][]complex128, v0 []complex128, noSlack, vd []int, vSlack []complex128) []complex128 {
	n := len(v0)
	out := make([]complex128, n)
	for k, i := range vd {
		out[i] = vSlack[k]
	}
	N := len(coeffs) - 1
	L := N / 2
	M := L
	for k, i := range noSlack {
		c := make([]complex128, N+1)
		for oi := range coeffs {
			c[oi] = coeffs[oi][k]
		}
		out[i] = padeEval(c, L, M, 1.0)
	}
	return out
}

// padeEval builds the diagonal [L/M] Padé approximant from coefficients c
// (c[0..L+M]) and evaluates it at s.
func padeEval(c []complex128, L, M int, s float64) complex128 {
	if M == 0 || len(c) < L+M+1 {
		var sum complex128
		for _, v := range c {
			sum += v
		}
		return sum
	}

	// Solve the Toeplitz system for denominator coefficients b1..bM:
	// sum_{j=1}^{M} b_j * c[L+i-j] = -c[L+i], i=1..M (b0 = 1).
	a := make([][]complex128, M)
	rhs := make([]complex128, M)
	for i := 0; i < M; i++ {
		a[i] = make([]complex128, M)
		for j := 0; j < M; j++ {
			idx := L + (i + 1) - (j + 1)
			if idx >= 0 && idx < len(c) {
				a[i][j] = c[idx]
			}
		}
		idx := L + i + 1
		if idx < len(c) {
			rhs[i] = -c[idx]
		}
	}
	b, ok := solveComplexDense(a, rhs)
	if !ok {
		var sum complex128
		for _, v := range c {
			sum += v
		}
		return sum
	}

	bFull := make([]complex128, M+1)
	bFull[0] = 1
	copy(bFull[1:], b)

	// Numerator coefficients a0..aL from a_i = sum_{j=0}^{min(i,M)} b_j*c[i-j].
	aNum := make([]complex128, L+1)
	for i := 0; i <= L; i++ {
		var sum complex128
		for j := 0; j <= M && j <= i; j++ {
			sum += bFull[j] * c[i-j]
		}
		aNum[i] = sum
	}

	num := evalPoly(aNum, s)
	den := evalPoly(bFull, s)
	if den == 0 {
		var sum complex128
		for _, v := range c {
			sum += v
		}
		return sum
	}
	return num / den
}

func evalPoly(coeffs []complex128, s float64) complex128 {
	var sum complex128
	sp := complex(1.0, 0.0)
	for _, c := range coeffs {
		sum += c * sp
		sp *= complex(s, 0)
	}
	return sum
}

// solveComplexDense solves a*x=b via Gaussian elimination with partial
// pivoting, for the small (L or M order, typically <=15) Toeplitz systems
// HELM's Padé step needs.
func solveComplexDense(a [][]complex128, b []complex128) ([]complex128, bool) {
	n := len(b)
	aug := make([][]complex128, n)
	for i := range aug {
		aug[i] = append([]complex128{}, a[i]...)
		aug[i] = append(aug[i], b[i])
	}
	for col := 0; col < n; col++ {
		piv := col
		best := cmplx.Abs(aug[col][col])
		for r := col + 1; r < n; r++ {
			if m := cmplx.Abs(aug[r][col]); m > best {
				best = m
				piv = r
			}
		}
		if best == 0 {
			return nil, false
		}
		aug[col], aug[piv] = aug[piv], aug[col]
		pivVal := aug[col][col]
		for r := col + 1; r < n; r++ {
			factor := aug[r][col] / pivVal
			for cc := col; cc <= n; cc++ {
				aug[r][cc] -= factor * aug[col][cc]
			}
		}
	}
	x := make([]complex128, n)
	for i := n - 1; i >= 0; i-- {
		sum := aug[i][n]
		for j := i + 1; j < n; j++ {
			sum -= aug[i][j] * x[j]
		}
		x[i] = sum / aug[i][i]
	}
	return x, true
}

func buildComplexSubsystem(ybus *admittance.ComplexCSR, idx []int) (*sparsemat.System, error) {
	sys, err := sparsemat.New(len(idx), true)
	if err != nil {
		return nil, err
	}
	pos := make(map[int]int, len(idx))
	for i, g := range idx {
		pos[g] = i
	}
	for i, g := range idx {
		ybus.Row(g, func(col int, val complex128) {
			if j, ok := pos[col]; ok {
				sys.AddComplex(i+1, j+1, real(val), imag(val))
			}
		})
	}
	return sys, nil
}

func buildComplexRect(ybus *admittance.ComplexCSR, rows, cols []int) (*admittance.ComplexCSR, error) {
	b := admittance.NewComplexTripletBuilder(len(rows), len(cols))
	pos := make(map[int]int, len(cols))
	for j, g := range cols {
		pos[g] = j
	}
	for i, g := range rows {
		ybus.Row(g, func(col int, val complex128) {
			if j, ok := pos[col]; ok {
				b.Add(i, j, val)
			}
		})
	}
	return b.Build(), nil
}

func toComplexVec(re, im []float64, n int) []complex128 {
	out := make([]complex128, n)
	for i := 0; i < n; i++ {
		out[i] = complex(re[i+1], im[i+1])
	}
	return out
}

func finiteVec(v []float64) bool {
	for _, x := range v {
		if x != x || x > 1e300 || x < -1e300 {
			return false
		}
	}
	return true
}

func maxAbs(v []complex128) float64 {
	m := 0.0
	for _, c := range v {
		if a := cmplx.Abs(c); a > m {
			m = a
		}
	}
	return m
}

func indexOf(s []int, v int) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func complementIdx(n int, idx []int) []int {
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
