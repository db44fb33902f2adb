package powerflow

import (
	"math"
	"math/cmplx"
	"sort"
)

// BusTypeSwitcher applies the PV<->PQ switching policy of spec §4.4.5.
type BusTypeSwitcher struct {
	QMin, QMax map[int]float64
	VSet       map[int]float64
	Steepness  float64 // logistic steepness k, default 30

	// forcedPQ tracks buses originally PV that are currently held at PQ.
	forcedPQ map[int]bool
}

func NewBusTypeSwitcher(qMin, qMax, vSet map[int]float64, steepness float64) *BusTypeSwitcher {
	if steepness == 0 {
		steepness = 30
	}
	return &BusTypeSwitcher{QMin: qMin, QMax: qMax, VSet: vSet, Steepness: steepness, forcedPQ: make(map[int]bool)}
}

// Decision is the outcome of evaluating one PV bus.
type Decision struct {
	Bus        int
	ConvertToPQ bool
	RestoreToPV bool
	QOverride  float64
}

// Evaluate applies the hard (Zhao) policy for bus i, currently in the PV
// set unless already forced to PQ, given its calculated reactive power Qcalc
// and voltage magnitude Vm.
func (s *BusTypeSwitcher) Evaluate(bus int, qCalc, vm float64) Decision {
	qmin, qmax := s.QMin[bus], s.QMax[bus]
	vset := s.VSet[bus]

	if !s.forcedPQ[bus] {
		if qCalc > qmax {
			s.forcedPQ[bus] = true
			return Decision{Bus: bus, ConvertToPQ: true, QOverride: qmax}
		}
		if qCalc < qmin {
			s.forcedPQ[bus] = true
			return Decision{Bus: bus, ConvertToPQ: true, QOverride: qmin}
		}
		return Decision{Bus: bus}
	}

	// Bus is forced-PQ (originally PV).
	if vm >= vset {
		// Keep PQ at current Q limit (caller retains prior QOverride).
		return Decision{Bus: bus}
	}
	if qCalc > qmin && qCalc < qmax {
		s.forcedPQ[bus] = false
		return Decision{Bus: bus, RestoreToPV: true}
	}
	return Decision{Bus: bus}
}

// LogisticGain computes the smoothed correction gain
// g = 2*(1/(1+e^{-k*|Vset-V|}) - 0.5), the iterative variant of the switch
// (spec §4.4.5), used to scale how aggressively Q is pulled toward its
// limit rather than hard-clamping it in one step.
func (s *BusTypeSwitcher) LogisticGain(vSet, vm float64) float64 {
	k := s.Steepness
	dv := math.Abs(vSet - vm)
	return 2 * (1/(1+math.Exp(-k*dv)) - 0.5)
}

// IsForcedPQ reports whether bus is currently held at PQ by this switcher.
func (s *BusTypeSwitcher) IsForcedPQ(bus int) bool { return s.forcedPQ[bus] }

// applyBusTypeSwitching re-evaluates every opt.PV bus against its Q limits
// after an NR outer iteration, per spec §4.4.5. It mutates sbus (the Q
// setpoint once a bus is forced to PQ) and pq (bus membership) in place and
// reports whether anything changed, so the caller knows to re-run Mismatch
// before checking convergence again.
func applyBusTypeSwitching(s *BusTypeSwitcher, opt Options, v, dS, sbus []complex128, pq *[]int) bool {
	changed := false
	for _, bus := range opt.PV {
		qCalc := imag(dS[bus]) + imag(sbus[bus])
		vm := cmplx.Abs(v[bus])
		d := s.Evaluate(bus, qCalc, vm)

		switch {
		case d.ConvertToPQ:
			target := d.QOverride
			if opt.Switching == SwitchingLogistic {
				gain := s.LogisticGain(s.VSet[bus], vm)
				target = qCalc - gain*(qCalc-d.QOverride)
			}
			sbus[bus] = complex(real(sbus[bus]), target)
			*pq = insertSortedInt(*pq, bus)
			changed = true
		case d.RestoreToPV:
			*pq = removeSortedInt(*pq, bus)
			changed = true
		}
	}
	return changed
}

func insertSortedInt(s []int, v int) []int {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	out := append(append([]int{}, s...), v)
	sort.Ints(out)
	return out
}

func removeSortedInt(s []int, v int) []int {
	out := make([]int, 0, len(s))
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
