package admittance_test

import (
	"testing"

	"github.com/gridnum/gridnum/pkg/admittance"
	"github.com/gridnum/gridnum/pkg/grid"
	"github.com/stretchr/testify/require"
)

func TestBuildLinearBbusMatchesSeriesSusceptance(t *testing.T) {
	branches := []grid.Branch{
		{Name: "L0", Kind: grid.KindLine, From: 0, To: 1, X: 0.1, Active: true, M: 1},
	}
	lin := admittance.BuildLinear(branches, 2)

	require.InDelta(t, 10.0, lin.Bbus.At(0, 0), 1e-9)
	require.InDelta(t, -10.0, lin.Bbus.At(0, 1), 1e-9)
	require.InDelta(t, 10.0, lin.Bf.At(0, 0), 1e-9)
	require.InDelta(t, -10.0, lin.Bf.At(0, 1), 1e-9)
}

func TestBuildLinearSkipsInactiveBranches(t *testing.T) {
	branches := []grid.Branch{
		{Name: "L0", Kind: grid.KindLine, From: 0, To: 1, X: 0.1, Active: false, M: 1},
	}
	lin := admittance.BuildLinear(branches, 2)

	require.Equal(t, 0.0, lin.Bbus.At(0, 0))
	require.Equal(t, 0.0, lin.Bbus.At(0, 1))
}

func TestBuildFastDecoupledBPrimeIgnoresShunt(t *testing.T) {
	branches := []grid.Branch{
		{Name: "L0", Kind: grid.KindLine, From: 0, To: 1, X: 0.1, B: 0.02, Active: true, M: 1, VTapF: 1, VTapT: 1},
	}
	fdp := admittance.BuildFastDecoupled(branches, 2)

	require.InDelta(t, 10.0, fdp.BPrime.At(0, 0), 1e-9)
	require.NotEqual(t, fdp.BPrime.At(0, 0), fdp.BDoublePrime.At(0, 0))
}
