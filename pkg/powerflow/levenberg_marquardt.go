package powerflow

import (
	"math"
	"time"

	"github.com/gridnum/gridnum/pkg/admittance"
	"github.com/gridnum/gridnum/pkg/sparsemat"
)

// LevenbergMarquardt solves the same mismatch as NewtonRaphson using the
// damped normal equations (H^T H + lambda I) dx = H^T F, per spec §4.4.2.
func LevenbergMarquardt(ybus *admittance.ComplexCSR, sbus, ibus, v0 []complex128, pvpq, pq []int, opt Options) (NumericPowerFlowResults, error) {
	start := time.Now()
	v := append([]complex128{}, v0...)

	if len(pvpq) == 0 && len(pq) == 0 {
		sCalc := computeSCalc(ybus, v)
		return NumericPowerFlowResults{V: v, Converged: true, SCalc: sCalc, Elapsed: time.Since(start)}, nil
	}

	_, f := Mismatch(ybus, v, ibus, sbus, pvpq, pq)
	phi := Objective(f)
	normF := InfNorm(f)

	h := BuildJacobianDense(ybus, v, pvpq, pq)
	size := len(f)
	hth := matTMat(h)
	lambda := 1e-3 * maxDiag(hth)
	nu := 2.0

	iterations := 0
	converged := normF < opt.Tolerance
	rebuild := true

	for iter := 0; iter < opt.MaxIterations && !converged; iter++ {
		iterations = iter + 1

		if rebuild {
			h = BuildJacobianDense(ybus, v, pvpq, pq)
			hth = matTMat(h)
		}
		htf := matTVec(h, f)

		sys, err := sparsemat.New(size, false)
		if err != nil {
			return NumericPowerFlowResults{V: v, Converged: false, NormF: normF, Iterations: iterations, Elapsed: time.Since(start)}, err
		}
		for i := 0; i < size; i++ {
			for j := 0; j < size; j++ {
				val := hth[i][j]
				if i == j {
					val += lambda
				}
				if val != 0 {
					sys.AddReal(i+1, j+1, val)
				}
			}
			sys.AddRHS(i+1, htf[i])
		}

		delta, err := sys.Solve()
		if err != nil {
			lambda *= nu
			nu *= 2
			rebuild = false
			continue
		}
		dx := delta[1:]

		vNew := PolarUpdate(v, pvpq, pq, dx, 1.0)
		_, fNew := Mismatch(ybus, vNew, ibus, sbus, pvpq, pq)
		phiNew := Objective(fNew)

		pred := 0.5 * dotScaled(dx, lambda, dx, htf)
		rho := 1.0
		if pred != 0 {
			rho = (phi - phiNew) / pred
		}

		if rho >= 0 {
			v = vNew
			f = fNew
			phi = phiNew
			normF = InfNorm(f)
			converged = normF < opt.Tolerance
			shrink := 1 - math.Pow(2*rho-1, 3)
			lambda *= math.Max(1.0/3.0, shrink)
			nu = 2
			rebuild = true
		} else {
			lambda *= nu
			nu *= 2
			rebuild = false
		}
	}

	sCalc := computeSCalc(ybus, v)
	return NumericPowerFlowResults{V: v, Converged: converged, NormF: normF, SCalc: sCalc, Iterations: iterations, Elapsed: time.Since(start)}, nil
}

func maxDiag(m [][]float64) float64 {
	mx := 0.0
	for i := range m {
		if m[i][i] > mx {
			mx = m[i][i]
		}
	}
	if mx == 0 {
		mx = 1
	}
	return mx
}

func dotScaled(dx []float64, lambda float64, dx2 []float64, htf []float64) float64 {
	s := 0.0
	for i := range dx {
		s += dx[i] * (lambda*dx2[i] + htf[i])
	}
	return s
}
