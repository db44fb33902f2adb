package powerflow_test

import (
	"testing"

	"github.com/gridnum/gridnum/pkg/admittance"
	"github.com/gridnum/gridnum/pkg/diag"
	"github.com/gridnum/gridnum/pkg/grid"
	"github.com/gridnum/gridnum/pkg/powerflow"
	"github.com/stretchr/testify/require"
)

// threeBusRadial is the small fixture shared across powerflow tests: a
// slack bus feeding two downstream PQ buses over two lines, in the shape of
// spec §8's 3-bus scenario.
func threeBusRadial() (*admittance.ComplexCSR, []complex128, []complex128) {
	branches := []grid.Branch{
		{Name: "L0", Kind: grid.KindLine, From: 0, To: 1, R: 0.01, X: 0.08, Active: true, M: 1, VTapF: 1, VTapT: 1},
		{Name: "L1", Kind: grid.KindLine, From: 1, To: 2, R: 0.01, X: 0.10, Active: true, M: 1, VTapF: 1, VTapT: 1},
	}
	adm := admittance.Build(admittance.BuildInput{Branches: branches, NBus: 3, Seq: grid.SeqPositive})

	sbus := []complex128{0, complex(-0.2, -0.05), complex(-0.6, -0.2)}
	v0 := []complex128{complex(1, 0), complex(1, 0), complex(1, 0)}
	return adm.Ybus, sbus, v0
}

func TestNewtonRaphsonConvergesOnRadialNetwork(t *testing.T) {
	ybus, sbus, v0 := threeBusRadial()
	ibus := make([]complex128, 3)
	opt := powerflow.DefaultOptions()

	result, err := powerflow.NewtonRaphson(ybus, sbus, ibus, v0, []int{1, 2}, []int{1, 2}, opt, diag.NewSilent())
	require.NoError(t, err)
	require.True(t, result.Converged)
	require.Less(t, result.NormF, opt.Tolerance)

	// Power-balance residual invariant (spec §8):
	// ||V . conj(Ybus*V - I) - Sbus||_inf < tol over the solved buses.
	dS, f := powerflow.Mismatch(ybus, result.V, ibus, sbus, []int{1, 2}, []int{1, 2})
	require.Less(t, powerflow.InfNorm(f), opt.Tolerance)
	_ = dS
}

func TestNewtonRaphsonPreservesSlackVoltage(t *testing.T) {
	ybus, sbus, v0 := threeBusRadial()
	ibus := make([]complex128, 3)
	opt := powerflow.DefaultOptions()

	result, err := powerflow.NewtonRaphson(ybus, sbus, ibus, v0, []int{1, 2}, []int{1, 2}, opt, diag.NewSilent())
	require.NoError(t, err)
	require.InDelta(t, 1.0, real(result.V[0]), 1e-12)
	require.InDelta(t, 0.0, imag(result.V[0]), 1e-12)
}
