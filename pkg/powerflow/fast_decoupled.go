package powerflow

import (
	"math/cmplx"
	"time"

	"github.com/gridnum/gridnum/pkg/admittance"
)

// FastDecoupled implements the XB fast-decoupled power flow: factorize
// B'[pqpv,pqpv] and B''[pq,pq] once, then alternate active/reactive
// half-steps, per spec §4.4.3.
func FastDecoupled(ybus *admittance.ComplexCSR, fdp admittance.FastDecoupledPrimitives, sbus []complex128, v0 []complex128, pvpq, pq []int, opt Options) (NumericPowerFlowResults, error) {
	start := time.Now()
	v := append([]complex128{}, v0...)

	bp := fdp.BPrime.Submatrix(pvpq, pvpq)
	bpp := fdp.BDoublePrime.Submatrix(pq, pq)

	bpSys, err := bp.ToSparseSystem()
	if err != nil {
		return NumericPowerFlowResults{}, err
	}
	if err := bpSys.Factor(); err != nil {
		return NumericPowerFlowResults{}, err
	}
	bppSys, err := bpp.ToSparseSystem()
	if err != nil {
		return NumericPowerFlowResults{}, err
	}
	if err := bppSys.Factor(); err != nil {
		return NumericPowerFlowResults{}, err
	}

	_, f := Mismatch(ybus, v, nil, sbus, pvpq, pq)
	normF := InfNorm(f)
	converged := normF < opt.Tolerance
	iterations := 0

	for iter := 0; iter < opt.MaxIterations && !converged; iter++ {
		iterations = iter + 1

		// Active half-step: dTheta = -B'^-1 * dP/|V|
		dP, _ := Mismatch(ybus, v, nil, sbus, pvpq, pq)
		bpSys.ClearRHS()
		for k, i := range pvpq {
			bpSys.AddRHS(k+1, real(dP[i])/cmplx.Abs(v[i]))
		}
		dTheta, err := bpSys.Solve()
		if err != nil {
			break
		}
		vm := make([]float64, len(v))
		va := make([]float64, len(v))
		for i, vi := range v {
			vm[i] = cmplx.Abs(vi)
			va[i] = cmplx.Phase(vi)
		}
		for k, i := range pvpq {
			va[i] -= dTheta[k+1]
		}
		v = polarToRect(vm, va)

		_, fMid := Mismatch(ybus, v, nil, sbus, pvpq, pq)
		normF = InfNorm(fMid)
		if normF < opt.Tolerance {
			converged = true
			break
		}

		// Reactive half-step: dVm = -B''^-1 * dQ/|V|
		dS, _ := Mismatch(ybus, v, nil, sbus, pvpq, pq)
		bppSys.ClearRHS()
		for k, i := range pq {
			bppSys.AddRHS(k+1, imag(dS[i])/cmplx.Abs(v[i]))
		}
		dVm, err := bppSys.Solve()
		if err != nil {
			break
		}
		for i, vi := range v {
			vm[i] = cmplx.Abs(vi)
			va[i] = cmplx.Phase(vi)
		}
		for k, i := range pq {
			vm[i] -= dVm[k+1]
		}
		v = polarToRect(vm, va)

		_, f = Mismatch(ybus, v, nil, sbus, pvpq, pq)
		normF = InfNorm(f)
		converged = normF < opt.Tolerance
	}

	sCalc := computeSCalc(ybus, v)
	return NumericPowerFlowResults{V: v, Converged: converged, NormF: normF, SCalc: sCalc, Iterations: iterations, Elapsed: time.Since(start)}, nil
}

func polarToRect(vm, va []float64) []complex128 {
	out := make([]complex128, len(vm))
	for i := range out {
		out[i] = cmplx.Rect(vm[i], va[i])
	}
	return out
}
