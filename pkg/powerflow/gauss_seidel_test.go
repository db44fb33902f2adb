package powerflow_test

import (
	"testing"

	"github.com/gridnum/gridnum/pkg/diag"
	"github.com/gridnum/gridnum/pkg/powerflow"
	"github.com/stretchr/testify/require"
)

func TestGaussSeidelAgreesWithNewtonRaphson(t *testing.T) {
	ybus, sbus, v0 := threeBusRadial()
	ibus := make([]complex128, 3)
	opt := powerflow.DefaultOptions()
	opt.MaxIterations = 500

	nr, err := powerflow.NewtonRaphson(ybus, sbus, ibus, v0, []int{1, 2}, []int{1, 2}, opt, diag.NewSilent())
	require.NoError(t, err)
	require.True(t, nr.Converged)

	vSet := []float64{1, 0, 0}
	gs, err := powerflow.GaussSeidel(ybus, sbus, vSet, v0, []int{1, 2}, []int{1, 2}, opt)
	require.NoError(t, err)
	require.True(t, gs.Converged)

	for i := range nr.V {
		require.InDelta(t, real(nr.V[i]), real(gs.V[i]), 1e-4)
		require.InDelta(t, imag(nr.V[i]), imag(gs.V[i]), 1e-4)
	}
}
