package contingency_test

import (
	"testing"

	"github.com/gridnum/gridnum/pkg/admittance"
	"github.com/gridnum/gridnum/pkg/contingency"
	"github.com/gridnum/gridnum/pkg/diag"
	"github.com/gridnum/gridnum/pkg/grid"
	"github.com/gridnum/gridnum/pkg/linear"
	"github.com/stretchr/testify/require"
)

func meshSnapshot() (*grid.Snapshot, []grid.Branch) {
	branches := []grid.Branch{
		{Name: "L0", Kind: grid.KindLine, From: 0, To: 1, X: 0.1, Active: true, M: 1},
		{Name: "L1", Kind: grid.KindLine, From: 1, To: 2, X: 0.1, Active: true, M: 1},
		{Name: "L2", Kind: grid.KindLine, From: 0, To: 2, X: 0.2, Active: true, M: 1},
	}
	injections := []grid.Injection{
		{Name: "load-2", Kind: grid.KindLoad, Bus: 2, P: 0.3, Active: true},
	}
	snap := &grid.Snapshot{
		Branches:       branches,
		Injections:     injections,
		BranchIdTag:    map[string]int{"L0": 0, "L1": 1, "L2": 2},
		InjectionIdTag: map[string]int{"load-2": 0},
	}
	return snap, branches
}

func TestResolveSkipsMissingIdTagAndWarns(t *testing.T) {
	snap, _ := meshSnapshot()
	group := grid.ContingencyGroup{
		Name: "g1",
		Members: []grid.Contingency{
			{DeviceIdTag: "does-not-exist", Op: grid.OpActive},
			{DeviceIdTag: "L1", Op: grid.OpActive},
		},
	}
	logger := diag.NewSilent()
	resolved := contingency.Resolve(group, snap, logger)

	require.Equal(t, []int{1}, resolved.BranchOutages)
	require.Len(t, logger.Warnings(), 1)
	require.Equal(t, diag.WarnContingencyDeviceNotFound, logger.Warnings()[0].Kind)
}

func TestComposeSingleBranchOutageMatchesLODFColumn(t *testing.T) {
	snap, branches := meshSnapshot()
	lin := admittance.BuildLinear(branches, 3)
	ptdf, err := linear.DCPTDF(lin, branches, 3, []int{1, 2}, []int{0}, false)
	require.NoError(t, err)
	lodf := linear.LODF(ptdf, branches, 3, false, diag.NewSilent())

	group := grid.ContingencyGroup{Name: "g1", Members: []grid.Contingency{{DeviceIdTag: "L0", Op: grid.OpActive}}}
	resolved := contingency.Resolve(group, snap, diag.NewSilent())
	composed := contingency.Compose(resolved, lodf, ptdf, diag.NewSilent())

	r, _ := composed.MLODF.Dims()
	for m := 0; m < r; m++ {
		require.InDelta(t, lodf.At(m, 0), composed.MLODF.At(m, 0), 1e-9)
	}
}

func TestContingencyFlowWithNoOutagesReturnsBaseFlow(t *testing.T) {
	snap, branches := meshSnapshot()
	lin := admittance.BuildLinear(branches, 3)
	ptdf, err := linear.DCPTDF(lin, branches, 3, []int{1, 2}, []int{0}, false)
	require.NoError(t, err)
	lodf := linear.LODF(ptdf, branches, 3, false, diag.NewSilent())

	group := grid.ContingencyGroup{Name: "empty"}
	resolved := contingency.Resolve(group, snap, diag.NewSilent())
	composed := contingency.Compose(resolved, lodf, ptdf, diag.NewSilent())

	baseFlow := []float64{0.1, 0.2, 0.05}
	flow := composed.ContingencyFlow(baseFlow, nil)
	require.Equal(t, baseFlow, flow)
}
