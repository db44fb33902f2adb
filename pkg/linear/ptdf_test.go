package linear_test

import (
	"testing"

	"github.com/gridnum/gridnum/pkg/admittance"
	"github.com/gridnum/gridnum/pkg/diag"
	"github.com/gridnum/gridnum/pkg/grid"
	"github.com/gridnum/gridnum/pkg/linear"
	"github.com/stretchr/testify/require"
)

func meshNetwork() []grid.Branch {
	return []grid.Branch{
		{Name: "L0", Kind: grid.KindLine, From: 0, To: 1, X: 0.1, Active: true, M: 1},
		{Name: "L1", Kind: grid.KindLine, From: 1, To: 2, X: 0.1, Active: true, M: 1},
		{Name: "L2", Kind: grid.KindLine, From: 0, To: 2, X: 0.2, Active: true, M: 1},
	}
}

func TestDCPTDFRowSumIsZeroUnderDistributedSlack(t *testing.T) {
	branches := meshNetwork()
	lin := admittance.BuildLinear(branches, 3)

	ptdf, err := linear.DCPTDF(lin, branches, 3, []int{1, 2}, []int{0}, true)
	require.NoError(t, err)

	r, c := ptdf.Dims()
	for m := 0; m < r; m++ {
		sum := 0.0
		for col := 0; col < c; col++ {
			sum += ptdf.At(m, col)
		}
		require.InDelta(t, 0.0, sum, 1e-9)
	}
}

func TestLODFDiagonalIsMinusOne(t *testing.T) {
	branches := meshNetwork()
	lin := admittance.BuildLinear(branches, 3)

	ptdf, err := linear.DCPTDF(lin, branches, 3, []int{1, 2}, []int{0}, false)
	require.NoError(t, err)

	lodf := linear.LODF(ptdf, branches, 3, false, diag.NewSilent())
	r, _ := lodf.Dims()
	for m := 0; m < r; m++ {
		require.Equal(t, -1.0, lodf.At(m, m))
	}
}

func TestLODFWithClippingDoesNotPanic(t *testing.T) {
	branches := meshNetwork()
	lin := admittance.BuildLinear(branches, 3)
	ptdf, err := linear.DCPTDF(lin, branches, 3, []int{1, 2}, []int{0}, false)
	require.NoError(t, err)

	logger := diag.NewSilent()
	linear.LODF(ptdf, branches, 3, true, logger)
	// No assertion on warning count here (this mesh is well-conditioned and
	// may not clip); the property under test is that clipping never panics
	// and the logger API is exercised end to end.
	_ = logger.Warnings()
}
