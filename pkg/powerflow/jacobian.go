package powerflow

import (
	"math"
	"math/cmplx"

	"github.com/gridnum/gridnum/pkg/admittance"
	"github.com/gridnum/gridnum/pkg/sparsemat"
)

// dsdv computes the full n x n dS/dVa and dS/dVm matrices from the standard
// power-flow identities:
//
//	dS/dVa = j * diag(V) * conj(diag(Ibus) - Ybus*diag(V))
//	dS/dVm = diag(V) * conj(Ybus*diag(Vnorm)) + conj(diag(Ibus)) * diag(Vnorm)
//
// computed entry-by-entry over Ybus's sparsity pattern rather than via dense
// matrix products, so cost tracks NNZ(Ybus) as spec §4.4.1's "sparse direct"
// Jacobian assembly calls for.
func dsdv(ybus *admittance.ComplexCSR, v []complex128) (dSdVa, dSdVm *admittance.ComplexCSR) {
	n := len(v)
	ibus := ybus.MulVec(v)
	vnorm := make([]complex128, n)
	for i, vi := range v {
		m := cmplx.Abs(vi)
		if m == 0 {
			m = 1
		}
		vnorm[i] = vi / complex(m, 0)
	}

	aB := admittance.NewComplexTripletBuilder(n, n)
	mB := admittance.NewComplexTripletBuilder(n, n)

	for r := 0; r < n; r++ {
		ybus.Row(r, func(c int, yrc complex128) {
			// dS/dVa off-diagonal contribution: j*V[r]*conj(-Ybus[r,c]*V[c])
			aB.Add(r, c, complex(0, 1)*v[r]*cConj(-yrc*v[c]))
			// dS/dVm contribution: V[r]*conj(Ybus[r,c]*Vnorm[c])
			mB.Add(r, c, v[r]*cConj(yrc*vnorm[c]))
		})
		// diagonal-only corrections
		aB.Add(r, r, complex(0, 1)*v[r]*cConj(ibus[r]))
		mB.Add(r, r, cConj(ibus[r])*vnorm[r])
	}

	return aB.Build(), mB.Build()
}

// BuildJacobian assembles the block Jacobian
//
//	J = [[dP/dVa[pvpq,pvpq], dP/dVm[pvpq,pq]], [dQ/dVa[pq,pvpq], dQ/dVm[pq,pq]]]
//
// into a real sparsemat.System ready for Factor/Solve, per spec §4.4.1 step 1.
func BuildJacobian(ybus *admittance.ComplexCSR, v []complex128, pvpq, pq []int) (*sparsemat.System, error) {
	dSdVa, dSdVm := dsdv(ybus, v)

	npvpq := len(pvpq)
	npq := len(pq)
	size := npvpq + npq

	sys, err := sparsemat.New(size, false)
	if err != nil {
		return nil, err
	}

	// J11 = real(dS/dVa)[pvpq,pvpq]
	for i, r := range pvpq {
		for j, c := range pvpq {
			val := real(dSdVa.At(r, c))
			if val != 0 {
				sys.AddReal(i+1, j+1, val)
			}
		}
	}
	// J12 = real(dS/dVm)[pvpq,pq]
	for i, r := range pvpq {
		for j, c := range pq {
			val := real(dSdVm.At(r, c))
			if val != 0 {
				sys.AddReal(i+1, npvpq+j+1, val)
			}
		}
	}
	// J21 = imag(dS/dVa)[pq,pvpq]
	for i, r := range pq {
		for j, c := range pvpq {
			val := imag(dSdVa.At(r, c))
			if val != 0 {
				sys.AddReal(npvpq+i+1, j+1, val)
			}
		}
	}
	// J22 = imag(dS/dVm)[pq,pq]
	for i, r := range pq {
		for j, c := range pq {
			val := imag(dSdVm.At(r, c))
			if val != 0 {
				sys.AddReal(npvpq+i+1, npvpq+j+1, val)
			}
		}
	}

	return sys, nil
}

// BuildJacobianDense assembles the same block Jacobian as BuildJacobian but
// as a dense [][]float64, for solvers (Levenberg-Marquardt) that need to
// form H^T*H explicitly rather than solve J*dx=F directly.
func BuildJacobianDense(ybus *admittance.ComplexCSR, v []complex128, pvpq, pq []int) [][]float64 {
	dSdVa, dSdVm := dsdv(ybus, v)
	npvpq := len(pvpq)
	npq := len(pq)
	size := npvpq + npq

	h := make([][]float64, size)
	for i := range h {
		h[i] = make([]float64, size)
	}

	for i, r := range pvpq {
		for j, c := range pvpq {
			h[i][j] = real(dSdVa.At(r, c))
		}
		for j, c := range pq {
			h[i][npvpq+j] = real(dSdVm.At(r, c))
		}
	}
	for i, r := range pq {
		for j, c := range pvpq {
			h[npvpq+i][j] = imag(dSdVa.At(r, c))
		}
		for j, c := range pq {
			h[npvpq+i][npvpq+j] = imag(dSdVm.At(r, c))
		}
	}
	return h
}

// PolarUpdate applies V <- Vm*e^{j*Va} with a step taken from the stacked
// delta vector ordered [dTheta_pvpq; dVm_pq], per spec §4.4.1 step 3.
func PolarUpdate(v []complex128, pvpq, pq []int, delta []float64, mu float64) []complex128 {
	vm := make([]float64, len(v))
	va := make([]float64, len(v))
	for i, vi := range v {
		vm[i] = cmplx.Abs(vi)
		va[i] = cmplx.Phase(vi)
	}

	npvpq := len(pvpq)
	for k, i := range pvpq {
		va[i] -= mu * delta[k]
	}
	for k, i := range pq {
		vm[i] -= mu * delta[npvpq+k]
	}

	out := make([]complex128, len(v))
	for i := range out {
		out[i] = complex(vm[i]*math.Cos(va[i]), vm[i]*math.Sin(va[i]))
	}
	return out
}
