package powerflow

import (
	"math/cmplx"
	"time"

	"github.com/gridnum/gridnum/pkg/admittance"
)

// GaussSeidel solves the AC mismatch with the classical per-bus fixed-point
// update V_i <- (conj(S_i/V_i) - sum_{j!=i} Ybus[i,j]*V_j) / Ybus[i,i],
// applied over pq and pv buses (pv buses reset |V| to the setpoint after
// the update). Slower to converge than NR but included as spec §2/§4.4
// names it among the required nonlinear solvers.
func GaussSeidel(ybus *admittance.ComplexCSR, sbus []complex128, vSet []float64, v0 []complex128, pvpq, pq []int, opt Options) (NumericPowerFlowResults, error) {
	start := time.Now()
	v := append([]complex128{}, v0...)
	diag := ybus.Diag()

	isPV := make(map[int]bool, len(pvpq))
	for _, i := range pvpq {
		isPV[i] = true
	}
	for _, i := range pq {
		isPV[i] = false
	}

	_, f := Mismatch(ybus, v, nil, sbus, pvpq, pq)
	normF := InfNorm(f)
	converged := normF < opt.Tolerance
	iterations := 0

	for iter := 0; iter < opt.MaxIterations && !converged; iter++ {
		iterations = iter + 1
		for _, i := range pvpq {
			sum := complex(0, 0)
			ybus.Row(i, func(c int, val complex128) {
				if c != i {
					sum += val * v[c]
				}
			})
			vi := (cConj(sbus[i]/v[i]) - sum) / diag[i]
			if isPV[i] {
				mag := vSet[i]
				if mag == 0 {
					mag = cmplx.Abs(vi)
				}
				vi = scaleToMag(vi, mag)
			}
			v[i] = vi
		}
		_, f = Mismatch(ybus, v, nil, sbus, pvpq, pq)
		normF = InfNorm(f)
		converged = normF < opt.Tolerance
	}

	sCalc := computeSCalc(ybus, v)
	return NumericPowerFlowResults{V: v, Converged: converged, NormF: normF, SCalc: sCalc, Iterations: iterations, Elapsed: time.Since(start)}, nil
}

func scaleToMag(z complex128, mag float64) complex128 {
	m := cmplx.Abs(z)
	if m == 0 {
		return complex(mag, 0)
	}
	scale := mag / m
	return complex(real(z)*scale, imag(z)*scale)
}
