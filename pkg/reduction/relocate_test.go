package reduction_test

import (
	"testing"

	"github.com/gridnum/gridnum/pkg/admittance"
	"github.com/gridnum/gridnum/pkg/grid"
	"github.com/gridnum/gridnum/pkg/reduction"
	"github.com/stretchr/testify/require"
)

// A 3-bus chain (0-1-2) with generator at bus 2 and boundary {0}: the
// nearest (and only) boundary bus for bus 2 must be bus 0, via bus 1.
func TestRelocateFindsNearestBoundaryOnChain(t *testing.T) {
	branches := []grid.Branch{
		{Name: "L0", Kind: grid.KindLine, From: 0, To: 1, R: 0.01, X: 0.1, Active: true, M: 1, VTapF: 1, VTapT: 1},
		{Name: "L1", Kind: grid.KindLine, From: 1, To: 2, R: 0.01, X: 0.1, Active: true, M: 1, VTapF: 1, VTapT: 1},
	}
	yeq := admittance.Build(admittance.BuildInput{Branches: branches, NBus: 3, Seq: grid.SeqPositive}).Ybus

	result := reduction.Relocate(yeq, []int{0, 1, 2}, []int{0}, []int{2}, reduction.RelocationDC)
	require.Equal(t, 0, result.GenToBoundary[2])
	require.Greater(t, result.Distance[2], 0.0)
}

func TestRelocateSkipsGeneratorsAlreadyAtBoundary(t *testing.T) {
	branches := []grid.Branch{
		{Name: "L0", Kind: grid.KindLine, From: 0, To: 1, R: 0.01, X: 0.1, Active: true, M: 1, VTapF: 1, VTapT: 1},
	}
	yeq := admittance.Build(admittance.BuildInput{Branches: branches, NBus: 2, Seq: grid.SeqPositive}).Ybus

	result := reduction.Relocate(yeq, []int{0, 1}, []int{0}, []int{0}, reduction.RelocationDC)
	_, ok := result.GenToBoundary[0]
	require.False(t, ok)
}
