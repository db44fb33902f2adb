package powerflow

import "github.com/gridnum/gridnum/internal/consts"

// SwitchingMode selects the PV<->PQ bus-type switching policy (spec §4.4.5).
type SwitchingMode int

const (
	SwitchingNone SwitchingMode = iota
	SwitchingHard               // Zhao policy: hard conversion at Qmin/Qmax
	SwitchingLogistic           // logistic-gain smoothed variant
)

// Options mirrors the teacher's BaseAnalysis.convergence anonymous struct
// (toy-spice pkg/analysis/anlysis.go), threaded explicitly through every
// solver constructor rather than held as global state (spec §9: "Global
// process state -> none").
type Options struct {
	Tolerance      float64
	MaxIterations  int
	Acceleration   float64 // NR backtracking shrink factor alpha
	BacktrackTries int
	MinStepFrac    float64

	Switching        SwitchingMode
	LogisticSteepness float64
	// PV names the generator buses NR should re-check against Q_min/Q_max
	// (and V_set, once forced to PQ) after each outer iteration, per spec
	// §4.4.5. QMin/QMax/VSet are keyed by bus index; Switching == SwitchingNone
	// or an empty PV list disables the check entirely (the pre-existing
	// behavior every solver had before bus-type switching was wired in).
	PV   []int
	QMin map[int]float64
	QMax map[int]float64
	VSet map[int]float64

	HELMMaxCoefficients int
	HELMUsePade         bool

	DistributedSlack bool
}

// DefaultOptions returns the spec-named defaults (tolerance, max_iter,
// acceleration factor alpha=0.05, etc).
func DefaultOptions() Options {
	return Options{
		Tolerance:           consts.DefaultTolerance,
		MaxIterations:       consts.DefaultMaxIterations,
		Acceleration:        consts.DefaultAcceleration,
		BacktrackTries:      consts.DefaultBacktrackTries,
		MinStepFrac:         consts.DefaultMinStepFraction,
		Switching:           SwitchingNone,
		LogisticSteepness:   consts.DefaultLogisticSteepness,
		HELMMaxCoefficients: consts.DefaultHELMMaxCoefficients,
		HELMUsePade:         true,
		DistributedSlack:    false,
	}
}
