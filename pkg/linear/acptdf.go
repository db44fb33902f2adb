package linear

import (
	"math/cmplx"

	"github.com/gridnum/gridnum/pkg/admittance"
	"github.com/gridnum/gridnum/pkg/grid"
	"github.com/gridnum/gridnum/pkg/powerflow"
	"gonum.org/v1/gonum/mat"
)

// ACPTDF assembles the full AC Jacobian at the given operating point, solves
// J*dx = [dP_pvpq; 0] for a unit injection at every bus, and maps dx through
// the branch-flow sensitivities dPf/dtheta_pvpq, dPf/d|V|_pq to produce the
// (n_branch, n_bus) AC PTDF matrix, per spec §4.5 "AC-PTDF variant".
func ACPTDF(ybus *admittance.ComplexCSR, branches []grid.Branch, v []complex128, pvpq, pq []int) (*mat.Dense, error) {
	sys, err := powerflow.BuildJacobian(ybus, v, pvpq, pq)
	if err != nil {
		return nil, err
	}
	if err := sys.Factor(); err != nil {
		return nil, err
	}

	npvpq := len(pvpq)
	nBus := len(v)

	dVa, dVm := branchFlowSensitivity(branches, v)

	nBranch := len(branches)
	ptdf := mat.NewDense(nBranch, nBus, nil)

	for col := 0; col < nBus; col++ {
		sys.ClearRHS()
		for k, i := range pvpq {
			if i == col {
				sys.AddRHS(k+1, 1)
			}
		}
		dx, err := sys.Solve()
		if err != nil {
			return nil, err
		}

		for m := 0; m < nBranch; m++ {
			var val float64
			for k, i := range pvpq {
				val += dVa[m][i] * dx[k+1]
			}
			for k, i := range pq {
				val += dVm[m][i] * dx[npvpq+k+1]
			}
			ptdf.Set(m, col, val)
		}
	}
	return ptdf, nil
}

// branchFlowSensitivity returns, per branch, the real-power-flow derivative
// maps dPf/dVa and dPf/dVm (keyed by bus index), derived from
// Sf = V[from]*conj(Yf_row . V):
//
//	dSf/dVa[from] = j*V[from]*conj(yft*V[to])
//	dSf/dVa[to]   = -j*V[from]*conj(yft*V[to])
//	dSf/dVm[from] = Vnorm[from]*conj(If) + V[from]*conj(yff*Vnorm[from])
//	dSf/dVm[to]   = V[from]*conj(yft*Vnorm[to])
func branchFlowSensitivity(branches []grid.Branch, v []complex128) (dVa, dVm []map[int]float64) {
	dVa = make([]map[int]float64, len(branches))
	dVm = make([]map[int]float64, len(branches))

	vnorm := func(i int) complex128 {
		m := cmplx.Abs(v[i])
		if m == 0 {
			m = 1
		}
		return v[i] / complex(m, 0)
	}

	for m, br := range branches {
		dVa[m] = map[int]float64{}
		dVm[m] = map[int]float64{}
		if !br.Active {
			continue
		}
		yff, yft, _, _ := admittance.BranchPrimitive(br, grid.SeqPositive)
		f, t := br.From, br.To
		ifCurrent := yff*v[f] + yft*v[t]

		dVa[m][f] = real(complex(0, 1) * v[f] * conjC(yft*v[t]))
		dVa[m][t] = real(complex(0, -1) * v[f] * conjC(yft*v[t]))

		dVm[m][f] = real(vnorm(f)*conjC(ifCurrent) + v[f]*conjC(yff*vnorm(f)))
		dVm[m][t] = real(v[f] * conjC(yft*vnorm(t)))
	}
	return dVa, dVm
}

func conjC(z complex128) complex128 { return complex(real(z), -imag(z)) }
