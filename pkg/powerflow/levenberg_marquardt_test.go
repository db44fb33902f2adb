package powerflow_test

import (
	"testing"

	"github.com/gridnum/gridnum/pkg/diag"
	"github.com/gridnum/gridnum/pkg/powerflow"
	"github.com/stretchr/testify/require"
)

func TestLevenbergMarquardtAgreesWithNewtonRaphson(t *testing.T) {
	ybus, sbus, v0 := threeBusRadial()
	ibus := make([]complex128, 3)
	opt := powerflow.DefaultOptions()

	nr, err := powerflow.NewtonRaphson(ybus, sbus, ibus, v0, []int{1, 2}, []int{1, 2}, opt, diag.NewSilent())
	require.NoError(t, err)
	require.True(t, nr.Converged)

	lm, err := powerflow.LevenbergMarquardt(ybus, sbus, ibus, v0, []int{1, 2}, []int{1, 2}, opt)
	require.NoError(t, err)
	require.True(t, lm.Converged)

	for i := range nr.V {
		require.InDelta(t, real(nr.V[i]), real(lm.V[i]), 1e-6)
		require.InDelta(t, imag(nr.V[i]), imag(lm.V[i]), 1e-6)
	}
}

func TestLevenbergMarquardtHandlesAllSlackNetwork(t *testing.T) {
	ybus, sbus, v0 := threeBusRadial()
	ibus := make([]complex128, 3)
	opt := powerflow.DefaultOptions()

	result, err := powerflow.LevenbergMarquardt(ybus, sbus, ibus, v0, nil, nil, opt)
	require.NoError(t, err)
	require.True(t, result.Converged)
	require.Equal(t, v0, result.V)
}
