package powerflow

import (
	"math"
	"math/cmplx"
	"time"

	"github.com/gridnum/gridnum/pkg/admittance"
)

// DC solves B[no_slack,no_slack]*theta[no_slack] = P[no_slack] -
// B[no_slack,vd]*theta[vd], per spec §4.4.6. Reports a one-shot
// "converged=true" with the exact-equation residual as the error metric
// (the DC model has no iteration to fail to converge).
func DC(ybus *admittance.ComplexCSR, bbus *admittance.RealCSR, pInj []float64, thetaVD []float64, noSlack, vd []int) (NumericPowerFlowResults, error) {
	start := time.Now()
	n := bbus.Rows

	bnn := bbus.Submatrix(noSlack, noSlack)
	bnv := bbus.Submatrix(noSlack, vd)

	rhs := make([]float64, len(noSlack))
	for k, i := range noSlack {
		rhs[k] = pInj[i]
	}
	corr := bnv.MulVec(thetaVD)
	for k := range rhs {
		rhs[k] -= corr[k]
	}

	sys, err := bnn.ToSparseSystem()
	if err != nil {
		return NumericPowerFlowResults{}, err
	}
	for k, val := range rhs {
		sys.AddRHS(k+1, val)
	}
	sol, err := sys.Solve()
	if err != nil {
		return NumericPowerFlowResults{}, err
	}

	theta := make([]float64, n)
	for k, i := range vd {
		theta[i] = thetaVD[k]
	}
	for k, i := range noSlack {
		theta[i] = sol[k+1]
	}

	v := make([]complex128, n)
	for i := range v {
		v[i] = cmplx.Rect(1.0, theta[i])
	}

	ibusCalc := ybus.MulVec(v)
	sCalc := make([]complex128, n)
	for i := range v {
		sCalc[i] = v[i] * cConj(ibusCalc[i])
	}

	// Exact-equation error metric: B*theta - P residual over no_slack rows.
	bTheta := bnn.MulVec(extractTheta(theta, noSlack))
	residual := 0.0
	for k := range bTheta {
		r := math.Abs(bTheta[k] + corr[k] - pInj[noSlack[k]])
		if r > residual {
			residual = r
		}
	}

	return NumericPowerFlowResults{
		V:          v,
		Converged:  true,
		NormF:      residual,
		SCalc:      sCalc,
		Iterations: 0,
		Elapsed:    time.Since(start),
		Theta:      theta,
	}, nil
}

func extractTheta(theta []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for k, i := range idx {
		out[k] = theta[i]
	}
	return out
}
