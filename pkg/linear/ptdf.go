// Package linear implements the DC and AC linear sensitivity analysis of
// spec §4.5: power-transfer-distribution factors (PTDF), line-outage
// distribution factors (LODF), and the transfer-margin evaluator built on
// top of them. Dense outputs use gonum.org/v1/gonum/mat, matching the
// DOMAIN STACK decision to exercise gonum's dense linear algebra for the
// small (n_branch x n_bus) sensitivity matrices rather than keep them
// sparse.
package linear

import (
	"math"

	"github.com/gridnum/gridnum/internal/consts"
	"github.com/gridnum/gridnum/pkg/admittance"
	"github.com/gridnum/gridnum/pkg/diag"
	"github.com/gridnum/gridnum/pkg/grid"
	"gonum.org/v1/gonum/mat"
)

// Incidence builds the branch-bus incidence matrix (Cf - Ct): +1 at From,
// -1 at To, per row, used by H = PTDF*(Cf-Ct)^T (spec §4.5 step 5).
func Incidence(branches []grid.Branch, nBus int) *admittance.RealCSR {
	b := admittance.NewRealTripletBuilder(len(branches), nBus)
	for k, br := range branches {
		if !br.Active {
			continue
		}
		b.Add(k, br.From, 1)
		b.Add(k, br.To, -1)
	}
	return b.Build()
}

// DCPTDF computes the full (n_branch, n_bus) DC PTDF matrix per spec §4.5
// steps 1-4: solve B_pqpv*dtheta = dP[no_slack,:] for every unit bus
// injection (or the distributed-slack RHS), scatter into the full-n theta
// sensitivity, then PTDF = Bf * dtheta.
func DCPTDF(lin admittance.LinearPrimitives, branches []grid.Branch, nBus int, noSlack, vd []int, distributedSlack bool) (*mat.Dense, error) {
	bnn := lin.Bbus.Submatrix(noSlack, noSlack)
	sys, err := bnn.ToSparseSystem()
	if err != nil {
		return nil, err
	}
	if err := sys.Factor(); err != nil {
		return nil, err
	}

	nNoSlack := len(noSlack)
	dTheta := mat.NewDense(nBus, nBus, nil) // dTheta[bus_affected, bus_injected]

	for col := 0; col < nBus; col++ {
		rhs := make([]float64, nNoSlack)
		if distributedSlack {
			for k, i := range noSlack {
				if i == col {
					rhs[k] = 1
				} else {
					rhs[k] = -1.0 / float64(nBus-1)
				}
			}
		} else {
			for k, i := range noSlack {
				rhs[k] = kronecker(i, col)
			}
		}

		sys.ClearRHS()
		for k, val := range rhs {
			sys.AddRHS(k+1, val)
		}
		sol, err := sys.Solve()
		if err != nil {
			return nil, err
		}
		for k, i := range noSlack {
			dTheta.Set(i, col, sol[k+1])
		}
		// vd (slack) rows stay zero: dtheta of the reference bus is fixed.
	}

	nBranch := len(branches)
	ptdf := mat.NewDense(nBranch, nBus, nil)
	for m := 0; m < nBranch; m++ {
		br := branches[m]
		if !br.Active {
			continue
		}
		for col := 0; col < nBus; col++ {
			val := 0.0
			lin.Bf.Row(m, func(bus int, b float64) { val += b * dTheta.At(bus, col) })
			ptdf.Set(m, col, val)
		}
	}
	return ptdf, nil
}

func kronecker(i, j int) float64 {
	if i == j {
		return 1
	}
	return 0
}

// LODF computes H = PTDF*(Cf-Ct)^T and LODF[m,c] = H[m,c]/(1-H[c,c]) for
// c != m, with diagonal -1, per spec §4.5 step 5. Division by a denominator
// below consts.LODFZeroGuard zeroes the affected column and logs
// diag.WarnAntennaContingency (radial/antenna branch: isolating it cannot be
// redistributed). clip, if true, zeroes entries with |LODF| > DefaultLODFClip.
func LODF(ptdf *mat.Dense, branches []grid.Branch, nBus int, clip bool, logger *diag.Logger) *mat.Dense {
	inc := Incidence(branches, nBus)
	nBranch := len(branches)

	var h mat.Dense
	incDense := mat.NewDense(nBranch, nBus, nil)
	for r := 0; r < nBranch; r++ {
		inc.Row(r, func(col int, val float64) { incDense.Set(r, col, val) })
	}
	h.Mul(ptdf, incDense.T())

	lodf := mat.NewDense(nBranch, nBranch, nil)
	for c := 0; c < nBranch; c++ {
		denom := 1 - h.At(c, c)
		if math.Abs(denom) < consts.LODFZeroGuard {
			if logger != nil {
				logger.Warn(diag.WarnAntennaContingency, 0, c, "LODF denominator near zero; outaging this branch is not redistributable (antenna/radial)")
			}
			continue
		}
		for m := 0; m < nBranch; m++ {
			if m == c {
				lodf.Set(m, c, -1)
				continue
			}
			val := h.At(m, c) / denom
			if clip && math.Abs(val) > consts.DefaultLODFClip {
				if logger != nil {
					logger.Warn(diag.WarnLODFClipped, 0, m, "LODF magnitude exceeds clip threshold; zeroed")
				}
				val = 0
			}
			lodf.Set(m, c, val)
		}
	}
	return lodf
}

// TransferLimits computes the per-(branch, injection) headroom matrix
// TMC[m,i] = |(rate_m - flow_m)/PTDF[m,i]|, the transfer margin on branch m
// if injection i alone absorbed the remaining headroom before m hits its
// rating, per spec §4.5 "Transfer limits". Callers that want the single
// worst-case limit per branch reduce with max_i over each row themselves.
func TransferLimits(ptdf *mat.Dense, flow []float64, rate []float64) *mat.Dense {
	nBranch, nBus := ptdf.Dims()
	out := mat.NewDense(nBranch, nBus, nil)
	for m := 0; m < nBranch; m++ {
		headroom := rate[m] - flow[m]
		for i := 0; i < nBus; i++ {
			p := ptdf.At(m, i)
			if p == 0 {
				out.Set(m, i, math.Inf(1))
				continue
			}
			out.Set(m, i, math.Abs(headroom/p))
		}
	}
	return out
}
