package powerflow

import "time"

// NumericPowerFlowResults is the result struct surfaced to callers, per spec
// §6.2. Converged=false is a first-class state, never an error.
type NumericPowerFlowResults struct {
	V          []complex128
	Converged  bool
	NormF      float64
	SCalc      []complex128
	Iterations int
	Elapsed    time.Duration

	// Optional extras, populated by solvers that touch them.
	M    []float64 // tap modules, if solved for
	Theta []float64
	Beq  []float64
}
