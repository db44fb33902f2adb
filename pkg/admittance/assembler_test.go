package admittance_test

import (
	"testing"

	"github.com/gridnum/gridnum/pkg/admittance"
	"github.com/gridnum/gridnum/pkg/grid"
	"github.com/stretchr/testify/require"
)

func twoBusLine() []grid.Branch {
	return []grid.Branch{
		{Name: "L0", Kind: grid.KindLine, From: 0, To: 1, R: 0.01, X: 0.1, B: 0.02, Active: true, M: 1, VTapF: 1, VTapT: 1},
	}
}

// Row-reconstructability invariant (spec §8): every Yf row must equal the
// branch's own (yff, yft) primitive scattered against its From/To buses.
func TestYfRowMatchesPrimitive(t *testing.T) {
	branches := twoBusLine()
	adm := admittance.Build(admittance.BuildInput{Branches: branches, NBus: 2, Seq: grid.SeqPositive})

	yff, yft, _, _ := admittance.BranchPrimitive(branches[0], grid.SeqPositive)
	require.Equal(t, yff, adm.Yf.At(0, 0))
	require.Equal(t, yft, adm.Yf.At(0, 1))
}

func TestInactiveBranchContributesNothing(t *testing.T) {
	branches := twoBusLine()
	branches[0].Active = false
	adm := admittance.Build(admittance.BuildInput{Branches: branches, NBus: 2, Seq: grid.SeqPositive})

	require.Equal(t, complex(0, 0), adm.Ybus.At(0, 0))
	require.Equal(t, complex(0, 0), adm.Ybus.At(0, 1))
	require.Equal(t, 0, adm.Ybus.NNZ())
}

func TestYbusIsSymmetricForALine(t *testing.T) {
	branches := twoBusLine()
	adm := admittance.Build(admittance.BuildInput{Branches: branches, NBus: 2, Seq: grid.SeqPositive})

	require.Equal(t, adm.Ybus.At(0, 1), adm.Ybus.At(1, 0))
}

func TestShuntAddsOntoDiagonalOnly(t *testing.T) {
	branches := twoBusLine()
	yshunt := []complex128{complex(0, 0.05), complex(0, 0)}
	adm := admittance.Build(admittance.BuildInput{Branches: branches, NBus: 2, Seq: grid.SeqPositive, YshuntBus: yshunt})

	yff, _, _, _ := admittance.BranchPrimitive(branches[0], grid.SeqPositive)
	require.Equal(t, yff+yshunt[0], adm.Ybus.At(0, 0))
}

func TestSDWindingMatchesGDPerSpecOpenQuestion(t *testing.T) {
	base := grid.Branch{Name: "xf", Kind: grid.KindTransformer, From: 0, To: 1, R: 0.01, X: 0.08, Active: true, M: 1.02, VTapF: 1, VTapT: 1}
	gd := base
	gd.Conn = grid.ConnGD
	sd := base
	sd.Conn = grid.ConnSD

	yffGD, yftGD, ytfGD, yttGD := admittance.BranchPrimitive(gd, grid.SeqZero)
	yffSD, yftSD, ytfSD, yttSD := admittance.BranchPrimitive(sd, grid.SeqZero)

	require.Equal(t, yffGD, yffSD)
	require.Equal(t, yftGD, yftSD)
	require.Equal(t, ytfGD, ytfSD)
	require.Equal(t, yttGD, yttSD)
}
