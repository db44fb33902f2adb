package powerflow_test

import (
	"testing"

	"github.com/gridnum/gridnum/pkg/powerflow"
	"github.com/stretchr/testify/require"
)

// Scenario F (spec §8): PV->PQ switching with Qmax=0.5, Qcalc=0.7 at
// iteration 2 must convert the bus to PQ, clamped at Qmax.
func TestBusTypeSwitcherHardPolicyClampsAtQMax(t *testing.T) {
	s := powerflow.NewBusTypeSwitcher(
		map[int]float64{0: -0.3},
		map[int]float64{0: 0.5},
		map[int]float64{0: 1.02},
		0,
	)

	d0 := s.Evaluate(0, 0.3, 1.01)
	require.False(t, d0.ConvertToPQ)
	require.False(t, s.IsForcedPQ(0))

	d1 := s.Evaluate(0, 0.7, 1.015)
	require.True(t, d1.ConvertToPQ)
	require.Equal(t, 0.5, d1.QOverride)
	require.True(t, s.IsForcedPQ(0))
}

func TestBusTypeSwitcherRestoresToPVWithinLimits(t *testing.T) {
	s := powerflow.NewBusTypeSwitcher(
		map[int]float64{0: -0.3},
		map[int]float64{0: 0.5},
		map[int]float64{0: 1.02},
		0,
	)
	s.Evaluate(0, 0.7, 1.015) // forces PQ
	require.True(t, s.IsForcedPQ(0))

	d := s.Evaluate(0, 0.2, 1.019) // below Vset, Q back within bounds
	require.True(t, d.RestoreToPV)
	require.False(t, s.IsForcedPQ(0))
}

func TestLogisticGainIsZeroAtSetpoint(t *testing.T) {
	s := powerflow.NewBusTypeSwitcher(nil, nil, nil, 30)
	require.Equal(t, 0.0, s.LogisticGain(1.0, 1.0))
	require.Greater(t, s.LogisticGain(1.0, 0.9), 0.0)
}
