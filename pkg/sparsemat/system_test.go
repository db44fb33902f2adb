package sparsemat_test

import (
	"testing"

	"github.com/gridnum/gridnum/pkg/sparsemat"
	"github.com/stretchr/testify/require"
)

func TestSystemSolvesRealDiagonalSystem(t *testing.T) {
	sys, err := sparsemat.New(2, false)
	require.NoError(t, err)

	sys.AddReal(1, 1, 2.0)
	sys.AddReal(2, 2, 4.0)
	sys.AddRHS(1, 4.0)
	sys.AddRHS(2, 8.0)

	x, err := sys.Solve()
	require.NoError(t, err)
	require.InDelta(t, 2.0, x[1], 1e-9)
	require.InDelta(t, 2.0, x[2], 1e-9)
}

func TestSystemClearRHSReusesFactorization(t *testing.T) {
	sys, err := sparsemat.New(2, false)
	require.NoError(t, err)
	sys.AddReal(1, 1, 2.0)
	sys.AddReal(2, 2, 4.0)
	require.NoError(t, sys.Factor())

	sys.ClearRHS()
	sys.AddRHS(1, 2.0)
	x1, err := sys.Solve()
	require.NoError(t, err)
	require.InDelta(t, 1.0, x1[1], 1e-9)

	sys.ClearRHS()
	sys.AddRHS(2, 4.0)
	x2, err := sys.Solve()
	require.NoError(t, err)
	require.InDelta(t, 0.0, x2[1], 1e-9)
	require.InDelta(t, 1.0, x2[2], 1e-9)
}

func TestSystemSolvesComplexSystem(t *testing.T) {
	sys, err := sparsemat.New(1, true)
	require.NoError(t, err)
	sys.AddComplex(1, 1, 1.0, 1.0) // (1+j)
	sys.AddRHSComplex(1, 2.0, 0.0)

	re, im, err := sys.SolveComplex()
	require.NoError(t, err)
	// x = 2 / (1+j) = 1 - j
	require.InDelta(t, 1.0, re[1], 1e-9)
	require.InDelta(t, -1.0, im[1], 1e-9)
}
