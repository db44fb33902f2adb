package numcircuit

import (
	"sort"

	"github.com/gridnum/gridnum/pkg/grid"
)

// Indices is the set of bus-classification index arrays spec §4.3 derives:
// pq, pv, vd (slack), no_slack = pv ∪ pq, pqpv = sort(no_slack).
type Indices struct {
	PQ       []int
	PV       []int
	VD       []int // slack
	NoSlack  []int
	PQPV     []int // sort(PV ∪ PQ) == NoSlack, kept distinct per spec naming
	NSlacks  int   // count of slack buses found; no warning is emitted for >1
}

// classify partitions [0,n) into PQ/PV/VD by each bus's declared Type only.
// The IsControlled flag of attached generators is not consulted: a PV bus
// with no controlled generator stays PV.
func classify(buses []grid.Bus) Indices {
	var ix Indices
	for i, b := range buses {
		switch b.Type {
		case grid.Slack:
			ix.VD = append(ix.VD, i)
			ix.NSlacks++
		case grid.PV:
			ix.PV = append(ix.PV, i)
		default: // PQ, NoSlackBus
			ix.PQ = append(ix.PQ, i)
		}
	}

	ix.NoSlack = append(append([]int{}, ix.PV...), ix.PQ...)
	sort.Ints(ix.NoSlack)
	ix.PQPV = append([]int{}, ix.NoSlack...)
	return ix
}

// DemotePV converts bus idx from the PV set to PQ (used by the bus-type
// switching policy, spec §4.4.5), returning a new Indices (Indices are
// value types — the switching policy owns sequencing, not numcircuit).
func (ix Indices) DemotePV(bus int) Indices {
	out := ix
	out.PV = removeInt(ix.PV, bus)
	out.PQ = insertSorted(ix.PQ, bus)
	return out
}

// PromoteToPV converts bus idx from the PQ set back to PV.
func (ix Indices) PromoteToPV(bus int) Indices {
	out := ix
	out.PQ = removeInt(ix.PQ, bus)
	out.PV = insertSorted(ix.PV, bus)
	return out
}

func removeInt(s []int, v int) []int {
	out := make([]int, 0, len(s))
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

func insertSorted(s []int, v int) []int {
	out := append([]int{}, s...)
	out = append(out, v)
	sort.Ints(out)
	return out
}
