package powerflow_test

import (
	"math/cmplx"
	"testing"

	"github.com/gridnum/gridnum/pkg/diag"
	"github.com/gridnum/gridnum/pkg/powerflow"
	"github.com/stretchr/testify/require"
)

// HELM<->NR agreement (spec §8): on a small PQ-only network, HELM's
// converged voltage solution should match Newton-Raphson's to tight
// tolerance.
func TestHELMAgreesWithNewtonRaphson(t *testing.T) {
	ybus, sbus, v0 := threeBusRadial()
	ibus := make([]complex128, 3)
	opt := powerflow.DefaultOptions()

	nr, err := powerflow.NewtonRaphson(ybus, sbus, ibus, v0, []int{1, 2}, []int{1, 2}, opt, diag.NewSilent())
	require.NoError(t, err)
	require.True(t, nr.Converged)

	helm, err := powerflow.HELM(ybus, sbus, ibus, v0, []int{1, 2}, []int{1, 2}, nil, opt, diag.NewSilent())
	require.NoError(t, err)
	require.True(t, helm.Converged)
	require.False(t, helm.Truncated)

	for i := range nr.V {
		require.InDelta(t, 0.0, cmplx.Abs(nr.V[i]-helm.V[i]), 1e-6)
	}
}

func TestHELMStopsAtCoefficientCap(t *testing.T) {
	ybus, sbus, v0 := threeBusRadial()
	ibus := make([]complex128, 3)
	opt := powerflow.DefaultOptions()
	opt.HELMMaxCoefficients = 2 // too few terms to converge -> the series stops at the cap

	result, err := powerflow.HELM(ybus, sbus, ibus, v0, []int{1, 2}, []int{1, 2}, nil, opt, diag.NewSilent())
	require.NoError(t, err)
	require.LessOrEqual(t, result.CoefficientsUsed, 2)
}
