package reduction_test

import (
	"testing"

	"github.com/gridnum/gridnum/pkg/admittance"
	"github.com/gridnum/gridnum/pkg/grid"
	"github.com/gridnum/gridnum/pkg/reduction"
	"github.com/stretchr/testify/require"
)

func TestComputeDCInversePFRoundTrip(t *testing.T) {
	branches := []grid.Branch{
		{Name: "L0", Kind: grid.KindLine, From: 0, To: 1, X: 0.1, Active: true, M: 1},
	}
	bRed := admittance.BuildLinear(branches, 2).Bbus

	thetaFull := []float64{0, -0.05}
	boundary := []int{0, 1}
	genOutput := map[int]float64{1: 0.5}
	relocation := reduction.RelocationResult{GenToBoundary: map[int]int{}, Distance: map[int]float64{}}

	result := reduction.ComputeDCInversePF(thetaFull, boundary, bRed, genOutput, relocation)

	require.Equal(t, []float64{0, -0.05}, result.ThetaB)
	require.InDelta(t, 0.5, result.PGenAssigned[1], 1e-12)

	// L_new = P_gen_assigned - P_target at each boundary bus, exactly.
	for k, b := range boundary {
		require.InDelta(t, result.PGenAssigned[b]-result.PTarget[k], result.LNew[b], 1e-12)
	}
}
