package reduction_test

import (
	"testing"

	"github.com/gridnum/gridnum/pkg/admittance"
	"github.com/gridnum/gridnum/pkg/grid"
	"github.com/gridnum/gridnum/pkg/reduction"
	"github.com/stretchr/testify/require"
)

func meshYbus() *admittance.ComplexCSR {
	branches := []grid.Branch{
		{Name: "L0", Kind: grid.KindLine, From: 0, To: 1, R: 0.01, X: 0.1, Active: true, M: 1, VTapF: 1, VTapT: 1},
		{Name: "L1", Kind: grid.KindLine, From: 1, To: 2, R: 0.01, X: 0.1, Active: true, M: 1, VTapF: 1, VTapT: 1},
		{Name: "L2", Kind: grid.KindLine, From: 0, To: 2, R: 0.01, X: 0.2, Active: true, M: 1, VTapF: 1, VTapT: 1},
	}
	return admittance.Build(admittance.BuildInput{Branches: branches, NBus: 3, Seq: grid.SeqPositive}).Ybus
}

// Trivial retain-set identity (spec §8): retaining every bus must produce
// Y_eq == Y_rr exactly, with no elimination step run at all.
func TestWardReduceTrivialRetainSetIsIdentity(t *testing.T) {
	ybus := meshYbus()
	result, err := reduction.WardReduce(ybus, []int{0, 1, 2})
	require.NoError(t, err)
	require.Nil(t, result.Branches)

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			require.Equal(t, ybus.At(i, j), result.Yeq.At(i, j))
		}
	}
}

func TestWardReduceElimination(t *testing.T) {
	ybus := meshYbus()
	result, err := reduction.WardReduce(ybus, []int{0, 2})
	require.NoError(t, err)
	require.Equal(t, []int{0, 2}, result.Retain)
	require.Equal(t, 2, result.Yeq.Rows)
	require.Equal(t, 2, result.Yeq.Cols)

	// The reduced equivalent must still be symmetric for a passive network.
	require.InDelta(t, real(result.Yeq.At(0, 1)), real(result.Yeq.At(1, 0)), 1e-9)
	require.InDelta(t, imag(result.Yeq.At(0, 1)), imag(result.Yeq.At(1, 0)), 1e-9)
}
