package contingency_test

import (
	"testing"

	"github.com/gridnum/gridnum/pkg/contingency"
	"github.com/gridnum/gridnum/pkg/diag"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// A fabricated LODF whose two-outage Schur complement (I - L_sub) is exactly
// singular, the antenna/degenerate case spec §4.6 routes through the
// pseudo-inverse fallback. The result must still carry finite flows.
func TestComposeSingularSchurFallsBackToPseudoInverseWithFiniteFlows(t *testing.T) {
	lodf := mat.NewDense(2, 2, []float64{
		1, 0,
		0, -1,
	})

	g := contingency.ResolvedGroup{
		Name:          "antenna",
		BranchOutages: []int{0, 1},
	}
	logger := diag.NewSilent()
	composed := contingency.Compose(g, lodf, mat.NewDense(2, 2, nil), logger)

	require.True(t, composed.UsedPseudo)
	require.Len(t, logger.Warnings(), 1)
	require.Equal(t, diag.WarnSingularFallback, logger.Warnings()[0].Kind)

	baseFlow := []float64{0.1, 0.2}
	flow := composed.ContingencyFlow(baseFlow, nil)
	require.Len(t, flow, 2)
	for _, v := range flow {
		require.False(t, isNaNOrInf(v))
	}
}

func isNaNOrInf(v float64) bool {
	return v != v || v > 1e300 || v < -1e300
}
