package powerflow_test

import (
	"testing"

	"github.com/gridnum/gridnum/pkg/admittance"
	"github.com/gridnum/gridnum/pkg/grid"
	"github.com/gridnum/gridnum/pkg/powerflow"
	"github.com/stretchr/testify/require"
)

// Scenario A (spec §8): a 3-bus DC flow with a slack at bus 0 and loads on
// buses 1 and 2 should produce small negative downstream angles.
func TestDCThreeBusScenario(t *testing.T) {
	branches := []grid.Branch{
		{Name: "L0", Kind: grid.KindLine, From: 0, To: 1, X: 0.1, Active: true, M: 1},
		{Name: "L1", Kind: grid.KindLine, From: 1, To: 2, X: 0.1, Active: true, M: 1},
	}
	adm := admittance.Build(admittance.BuildInput{Branches: branches, NBus: 3, Seq: grid.SeqPositive})
	lin := admittance.BuildLinear(branches, 3)

	pInj := []float64{0, -0.25, -0.25}
	noSlack := []int{1, 2}
	vd := []int{0}

	result, err := powerflow.DC(adm.Ybus, lin.Bbus, pInj, []float64{0}, noSlack, vd)
	require.NoError(t, err)
	require.True(t, result.Converged)
	require.Less(t, result.NormF, 1e-9)

	require.Equal(t, 0.0, result.Theta[0])
	require.Less(t, result.Theta[1], 0.0)
	require.Less(t, result.Theta[2], result.Theta[1])
}

func TestDCTwoBusSingleLoad(t *testing.T) {
	branches := []grid.Branch{
		{Name: "L0", Kind: grid.KindLine, From: 0, To: 1, X: 0.1, Active: true, M: 1},
	}
	adm := admittance.Build(admittance.BuildInput{Branches: branches, NBus: 2, Seq: grid.SeqPositive})
	lin := admittance.BuildLinear(branches, 2)

	pInj := []float64{0, -0.1}
	result, err := powerflow.DC(adm.Ybus, lin.Bbus, pInj, []float64{0}, []int{1}, []int{0})
	require.NoError(t, err)
	require.InDelta(t, -0.01, result.Theta[1], 1e-9)
}
