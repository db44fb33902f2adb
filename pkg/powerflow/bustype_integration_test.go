package powerflow_test

import (
	"math/cmplx"
	"testing"

	"github.com/gridnum/gridnum/pkg/admittance"
	"github.com/gridnum/gridnum/pkg/diag"
	"github.com/gridnum/gridnum/pkg/grid"
	"github.com/gridnum/gridnum/pkg/powerflow"
	"github.com/stretchr/testify/require"
)

// A PV bus held at V_set=1.02 feeding P=0.5 across a reactive line inevitably
// draws some nonzero Q from the network; with Q limits pinned to a window
// around zero the bus must be forced to PQ during NR's outer loop (spec
// §4.4.5), and once forced PQ its |V| is no longer held exactly at V_set.
func TestNewtonRaphsonSwitchesPVBusToPQWhenQLimitExceeded(t *testing.T) {
	branches := []grid.Branch{
		{Name: "L0", Kind: grid.KindLine, From: 0, To: 1, X: 0.1, Active: true, M: 1, VTapF: 1, VTapT: 1},
	}
	adm := admittance.Build(admittance.BuildInput{Branches: branches, NBus: 2, Seq: grid.SeqPositive})

	sbus := []complex128{0, complex(0.5, 0)}
	v0 := []complex128{complex(1, 0), complex(1.02, 0)}
	ibus := make([]complex128, 2)

	opt := powerflow.DefaultOptions()
	opt.Switching = powerflow.SwitchingHard
	opt.PV = []int{1}
	opt.QMin = map[int]float64{1: -1e-6}
	opt.QMax = map[int]float64{1: 1e-6}
	opt.VSet = map[int]float64{1: 1.02}

	result, err := powerflow.NewtonRaphson(adm.Ybus, sbus, ibus, v0, []int{1}, nil, opt, diag.NewSilent())
	require.NoError(t, err)
	require.True(t, result.Converged)

	vm1 := cmplx.Abs(result.V[1])
	require.NotInDelta(t, 1.02, vm1, 1e-6)
}

// With no Q limits configured (the switching-disabled default), a PV bus
// stays at V_set exactly, since PolarUpdate never touches magnitudes outside
// the pq set.
func TestNewtonRaphsonLeavesPVBusAtSetpointWithoutSwitching(t *testing.T) {
	branches := []grid.Branch{
		{Name: "L0", Kind: grid.KindLine, From: 0, To: 1, X: 0.1, Active: true, M: 1, VTapF: 1, VTapT: 1},
	}
	adm := admittance.Build(admittance.BuildInput{Branches: branches, NBus: 2, Seq: grid.SeqPositive})

	sbus := []complex128{0, complex(0.5, 0)}
	v0 := []complex128{complex(1, 0), complex(1.02, 0)}
	ibus := make([]complex128, 2)

	opt := powerflow.DefaultOptions()
	result, err := powerflow.NewtonRaphson(adm.Ybus, sbus, ibus, v0, []int{1}, nil, opt, diag.NewSilent())
	require.NoError(t, err)
	require.True(t, result.Converged)
	require.InDelta(t, 1.02, cmplx.Abs(result.V[1]), 1e-12)
}
