package linear_test

import (
	"testing"

	"github.com/gridnum/gridnum/pkg/admittance"
	"github.com/gridnum/gridnum/pkg/diag"
	"github.com/gridnum/gridnum/pkg/grid"
	"github.com/gridnum/gridnum/pkg/linear"
	"github.com/gridnum/gridnum/pkg/powerflow"
	"github.com/stretchr/testify/require"
)

// A column of the AC-PTDF at the converged operating point must reproduce,
// to first order, the change in branch flow seen from perturbing a single
// bus injection and re-solving NR at the perturbed operating point.
func TestACPTDFMatchesFiniteDifferenceAroundOperatingPoint(t *testing.T) {
	branches := []grid.Branch{
		{Name: "L0", Kind: grid.KindLine, From: 0, To: 1, R: 0.01, X: 0.08, Active: true, M: 1, VTapF: 1, VTapT: 1},
		{Name: "L1", Kind: grid.KindLine, From: 1, To: 2, R: 0.01, X: 0.10, Active: true, M: 1, VTapF: 1, VTapT: 1},
	}
	adm := admittance.Build(admittance.BuildInput{Branches: branches, NBus: 3, Seq: grid.SeqPositive})
	sbus := []complex128{0, complex(-0.2, -0.05), complex(-0.6, -0.2)}
	v0 := []complex128{complex(1, 0), complex(1, 0), complex(1, 0)}
	ibus := make([]complex128, 3)
	opt := powerflow.DefaultOptions()

	base, err := powerflow.NewtonRaphson(adm.Ybus, sbus, ibus, v0, []int{1, 2}, []int{1, 2}, opt, diag.NewSilent())
	require.NoError(t, err)
	require.True(t, base.Converged)

	ptdf, err := linear.ACPTDF(adm.Ybus, branches, base.V, []int{1, 2}, []int{1, 2})
	require.NoError(t, err)
	r, c := ptdf.Dims()
	require.Equal(t, 2, r)
	require.Equal(t, 3, c)

	eps := 1e-4
	perturbed := append([]complex128{}, sbus...)
	perturbed[2] += complex(eps, 0)
	pert, err := powerflow.NewtonRaphson(adm.Ybus, perturbed, ibus, base.V, []int{1, 2}, []int{1, 2}, opt, diag.NewSilent())
	require.NoError(t, err)
	require.True(t, pert.Converged)

	baseFlow0 := branchRealFlow(branches[0], base.V)
	pertFlow0 := branchRealFlow(branches[0], pert.V)
	finiteDiff := (pertFlow0 - baseFlow0) / eps

	require.InDelta(t, finiteDiff, ptdf.At(0, 2), 0.05)
}

func branchRealFlow(br grid.Branch, v []complex128) float64 {
	yff, yft, _, _ := admittance.BranchPrimitive(br, grid.SeqPositive)
	ifCurrent := yff*v[br.From] + yft*v[br.To]
	sf := v[br.From] * complex(real(ifCurrent), -imag(ifCurrent))
	return real(sf)
}
