// Package sparsemat wraps github.com/edp1096/sparse (the teacher's own CSC
// factor/solve engine) into the assemble/factor/solve/reuse-factorization
// shape the power-flow core needs: real systems for DC/linear-sensitivity
// solves, complex systems for AC Ybus-based solves, and single-owner
// factorization reuse across repeated right-hand sides (spec §5: "a solver
// reuses its factorization across iterations and across RHS vectors").
package sparsemat

import (
	"fmt"
	"math"

	"github.com/edp1096/sparse"
)

// System is a square sparse linear system, 1-based indexing to match the
// underlying sparse.Matrix convention (mirrors CircuitMatrix in the
// teacher's pkg/matrix/circuit.go).
type System struct {
	Size      int
	isComplex bool
	mat       *sparse.Matrix
	rhs       []float64
	rhsImag   []float64
	factored  bool
}

// New creates a real (DC/linear) or complex (AC) sparse system of the given
// size.
func New(size int, isComplex bool) (*System, error) {
	cfg := &sparse.Configuration{
		Real:           true,
		Complex:        isComplex,
		Expandable:     true,
		ModifiedNodal:  false,
		TiesMultiplier: 5,
		PrinterWidth:   140,
	}

	mat, err := sparse.Create(int64(size), cfg)
	if err != nil {
		return nil, fmt.Errorf("creating sparse system: %w", err)
	}

	vecSize := size + 1
	if isComplex {
		vecSize *= 2
	}

	return &System{
		Size:      size,
		isComplex: isComplex,
		mat:       mat,
		rhs:       make([]float64, vecSize),
		rhsImag:   make([]float64, size+1),
	}, nil
}

// AddReal accumulates value into A[i,j] (1-based).
func (s *System) AddReal(i, j int, value float64) {
	if !s.inBounds(i, j) {
		return
	}
	s.mat.GetElement(int64(i), int64(j)).Real += value
	s.factored = false
}

// AddComplex accumulates a complex value into A[i,j] (1-based, complex
// systems only).
func (s *System) AddComplex(i, j int, re, im float64) {
	if !s.inBounds(i, j) {
		return
	}
	el := s.mat.GetElement(int64(i), int64(j))
	el.Real += re
	el.Imag += im
	s.factored = false
}

func (s *System) inBounds(i, j int) bool {
	return i >= 1 && j >= 1 && i <= s.Size && j <= s.Size
}

// AddRHS accumulates a real value into b[i].
func (s *System) AddRHS(i int, value float64) {
	if i < 1 || i > s.Size {
		return
	}
	s.rhs[i] += value
}

// AddRHSComplex accumulates a complex value into b[i] (complex systems only).
func (s *System) AddRHSComplex(i int, re, im float64) {
	if i < 1 || i > s.Size {
		return
	}
	s.rhs[2*i] += re
	s.rhs[2*i+1] += im
}

// Clear resets the matrix entries and RHS to zero, keeping the allocation
// (mirrors CircuitMatrix.Clear).
func (s *System) Clear() {
	s.mat.Clear()
	for i := range s.rhs {
		s.rhs[i] = 0
	}
	for i := range s.rhsImag {
		s.rhsImag[i] = 0
	}
	s.factored = false
}

// ClearRHS zeroes only the right-hand side, keeping the factored matrix —
// used by multi-RHS solves (Ward's Y_ee*X=Y_er, spec §4.7) that want to
// reuse one factorization across many RHS vectors.
func (s *System) ClearRHS() {
	for i := range s.rhs {
		s.rhs[i] = 0
	}
	for i := range s.rhsImag {
		s.rhsImag[i] = 0
	}
}

// Factor LU-factors the assembled matrix. Subsequent Solve/SolveComplex
// calls reuse it until the next Clear/AddReal/AddComplex call.
func (s *System) Factor() error {
	if err := s.mat.Factor(); err != nil {
		return fmt.Errorf("sparsemat: factorization failed: %w", err)
	}
	s.factored = true
	return nil
}

// Solve factors (if needed) and solves the real system against the
// accumulated RHS, returning x (1-based, x[0] unused).
func (s *System) Solve() ([]float64, error) {
	if !s.factored {
		if err := s.Factor(); err != nil {
			return nil, err
		}
	}
	x, err := s.mat.Solve(s.rhs)
	if err != nil {
		return nil, fmt.Errorf("sparsemat: solve failed: %w", err)
	}
	if !allFinite(x) {
		return x, ErrNonFinite
	}
	return x, nil
}

// SolveComplex factors (if needed) and solves the complex system, returning
// (re, im) solution vectors.
func (s *System) SolveComplex() ([]float64, []float64, error) {
	if !s.isComplex {
		return nil, nil, fmt.Errorf("sparsemat: SolveComplex called on a real system")
	}
	if !s.factored {
		if err := s.Factor(); err != nil {
			return nil, nil, err
		}
	}
	re, im, err := s.mat.SolveComplex(s.rhs, s.rhsImag)
	if err != nil {
		return nil, nil, fmt.Errorf("sparsemat: complex solve failed: %w", err)
	}
	if !allFinite(re) || !allFinite(im) {
		return re, im, ErrNonFinite
	}
	return re, im, nil
}

// SolveRHS solves the already-factored system against an externally
// supplied RHS without touching s.rhs, for solving several right-hand sides
// against one factorization.
func (s *System) SolveRHS(rhs []float64) ([]float64, error) {
	if !s.factored {
		if err := s.Factor(); err != nil {
			return nil, err
		}
	}
	x, err := s.mat.Solve(rhs)
	if err != nil {
		return nil, fmt.Errorf("sparsemat: solve failed: %w", err)
	}
	if !allFinite(x) {
		return x, ErrNonFinite
	}
	return x, nil
}

func allFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
