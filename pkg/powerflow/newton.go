package powerflow

import (
	"time"

	"github.com/gridnum/gridnum/pkg/admittance"
	"github.com/gridnum/gridnum/pkg/diag"
	"github.com/gridnum/gridnum/pkg/numerr"
)

// NewtonRaphson solves the AC power-flow mismatch with line-search
// backtracking, per spec §4.4.1. Grounded on the teacher's doNRiter loop
// (toy-spice pkg/analysis/dc.go): Clear/assemble -> solve -> check
// convergence -> copy old<-new, generalized to admittance-matrix mismatch
// and a damped polar update instead of per-device stamping.
func NewtonRaphson(ybus *admittance.ComplexCSR, sbus, ibus, v0 []complex128, pvpq, pq []int, opt Options, logger *diag.Logger) (NumericPowerFlowResults, error) {
	start := time.Now()
	v := append([]complex128{}, v0...)
	sbus = append([]complex128{}, sbus...)
	pq = append([]int{}, pq...)

	if len(pvpq) == 0 && len(pq) == 0 {
		// Singleton/no-slack-only island: nothing to solve (spec §8 boundary
		// behavior "Singleton island with only a slack").
		sCalc := computeSCalc(ybus, v)
		return NumericPowerFlowResults{V: v, Converged: true, NormF: 0, SCalc: sCalc, Iterations: 0, Elapsed: time.Since(start)}, nil
	}

	var switcher *BusTypeSwitcher
	if opt.Switching != SwitchingNone && len(opt.PV) > 0 {
		switcher = NewBusTypeSwitcher(opt.QMin, opt.QMax, opt.VSet, opt.LogisticSteepness)
	}

	dS, f := Mismatch(ybus, v, ibus, sbus, pvpq, pq)
	normF := InfNorm(f)
	phi := Objective(f)

	iterations := 0
	converged := normF < opt.Tolerance

	for iter := 0; iter < opt.MaxIterations && !converged; iter++ {
		iterations = iter + 1

		jac, err := BuildJacobian(ybus, v, pvpq, pq)
		if err != nil {
			return NumericPowerFlowResults{V: v, Converged: false, NormF: normF, Iterations: iterations, Elapsed: time.Since(start)}, err
		}
		for i, val := range f {
			jac.AddRHS(i+1, val)
		}

		delta, err := jac.Solve()
		if err != nil {
			if logger != nil {
				logger.Warn(diag.WarnSingularFallback, 0, -1, "NR Jacobian solve non-finite; aborting at current iterate")
			}
			return NumericPowerFlowResults{V: v, Converged: false, NormF: normF, Iterations: iterations, Elapsed: time.Since(start)}, &numerr.SingularSystemError{FellBackOK: false}
		}
		deltaVec := delta[1:] // 1-based -> 0-based

		mu := 1.0
		var vNew []complex128
		var dSNew []complex128
		var fNew []float64
		var phiNew float64
		for try := 0; try < opt.BacktrackTries && mu >= opt.MinStepFrac; try++ {
			vNew = PolarUpdate(v, pvpq, pq, deltaVec, mu)
			dSNew, fNew = Mismatch(ybus, vNew, ibus, sbus, pvpq, pq)
			phiNew = Objective(fNew)
			if phiNew < phi {
				break
			}
			mu *= opt.Acceleration
		}

		v = vNew
		dS = dSNew
		f = fNew
		phi = phiNew
		normF = InfNorm(f)
		converged = normF < opt.Tolerance

		// Bus-type switching (spec §4.4.5): re-check every PV bus against its
		// Q limits after the outer iteration has settled on vNew.
		if switcher != nil {
			changed := applyBusTypeSwitching(switcher, opt, v, dS, sbus, &pq)
			if changed {
				dS, f = Mismatch(ybus, v, ibus, sbus, pvpq, pq)
				phi = Objective(f)
				normF = InfNorm(f)
				converged = normF < opt.Tolerance
			}
		}
	}

	sCalc := computeSCalc(ybus, v)
	return NumericPowerFlowResults{
		V:          v,
		Converged:  converged,
		NormF:      normF,
		SCalc:      sCalc,
		Iterations: iterations,
		Elapsed:    time.Since(start),
	}, nil
}

func computeSCalc(ybus *admittance.ComplexCSR, v []complex128) []complex128 {
	ibus := ybus.MulVec(v)
	out := make([]complex128, len(v))
	for i := range v {
		out[i] = v[i] * cConj(ibus[i])
	}
	return out
}
