// Package powerflow implements the nonlinear and linear power-flow solvers
// of spec §4.4: Newton-Raphson with line-search backtracking,
// Levenberg-Marquardt, Gauss-Seidel, Fast-Decoupled, DC, and the
// Holomorphic-Embedding series solver, plus the PV<->PQ bus-type switching
// policy. Grounded on the teacher's doNRiter loop shape (toy-spice
// pkg/analysis/{dc,op}.go: Clear -> Stamp/assemble -> Solve -> check
// convergence -> copy old<-new), generalized from per-device SPICE stamping
// to admittance-matrix mismatch/Jacobian assembly.
package powerflow

import "github.com/gridnum/gridnum/pkg/admittance"

// Mismatch computes F(V) = [dP_pvpq; dQ_pq] from
// dS = V * conj(Ybus*V - Ibus) - Sbus, per spec §4.4.1.
func Mismatch(ybus *admittance.ComplexCSR, v []complex128, ibus, sbus []complex128, pvpq, pq []int) (dS []complex128, f []float64) {
	n := len(v)
	ibusCalc := ybus.MulVec(v)
	dS = make([]complex128, n)
	for i := 0; i < n; i++ {
		var inj complex128
		if ibus != nil {
			inj = ibus[i]
		}
		dS[i] = v[i]*cConj(ibusCalc[i]-inj) - sbus[i]
	}

	f = make([]float64, len(pvpq)+len(pq))
	for k, i := range pvpq {
		f[k] = real(dS[i])
	}
	for k, i := range pq {
		f[len(pvpq)+k] = imag(dS[i])
	}
	return dS, f
}

// InfNorm returns max(|f_i|).
func InfNorm(f []float64) float64 {
	m := 0.0
	for _, x := range f {
		if a := absf(x); a > m {
			m = a
		}
	}
	return m
}

// Objective returns phi(V) = 1/2 * F^T F, the NR/LM line-search merit
// function (spec §4.4.1).
func Objective(f []float64) float64 {
	s := 0.0
	for _, x := range f {
		s += x * x
	}
	return 0.5 * s
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func cConj(z complex128) complex128 { return complex(real(z), -imag(z)) }
