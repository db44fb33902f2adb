// Package numcircuit compiles a grid.Snapshot into an immutable
// NumericalCircuit (spec §4.1): bus-type classification, island
// decomposition, and simulation indices, with admittance matrices lazily
// computed and cached on first request.
package numcircuit

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/gridnum/gridnum/pkg/admittance"
	"github.com/gridnum/gridnum/pkg/grid"
	"github.com/gridnum/gridnum/pkg/numerr"
)

// NumericalCircuit is a compiled, immutable snapshot. New snapshot -> new
// instance (spec §3 lifecycle).
type NumericalCircuit struct {
	Snapshot grid.Snapshot
	TIdx     int

	NBus    int
	NBranch int

	V0     []complex128 // initial V per bus, pu polar->rect
	Sbus   []complex128 // scheduled injections per bus, pu
	Ybus0  []complex128 // per-bus shunt admittance from Shunt injections

	mu   sync.Mutex
	adm  *admittance.Admittances
	lin  *admittance.LinearPrimitives
	fdp  *admittance.FastDecoupledPrimitives
	idx  *Indices
}

// CompileAt builds a NumericalCircuit from a grid snapshot at time index
// tIdx. Fails per spec §4.1 failure semantics.
func CompileAt(snap grid.Snapshot, tIdx int) (*NumericalCircuit, error) {
	n := len(snap.Buses)
	if n == 0 {
		return nil, numerr.NewCompileError(numerr.ErrEmptyNetwork, "", -1)
	}

	anyActive := false
	for _, b := range snap.Buses {
		if b.Active {
			anyActive = true
			break
		}
	}
	if !anyActive {
		return nil, numerr.NewCompileError(numerr.ErrEmptyNetwork, "", -1)
	}

	for i, br := range snap.Branches {
		if err := validateControl(br, snap.Buses); err != nil {
			return nil, numerr.NewCompileError(numerr.ErrInvalidControl, br.Name, i)
		}
	}

	nc := &NumericalCircuit{
		Snapshot: snap,
		TIdx:     tIdx,
		NBus:     n,
		NBranch:  len(snap.Branches),
		V0:       make([]complex128, n),
		Sbus:     make([]complex128, n),
		Ybus0:    make([]complex128, n),
	}

	for i, b := range snap.Buses {
		v0 := b.V0
		if v0 == 0 {
			v0 = 1.0
		}
		nc.V0[i] = complexPolar(v0, b.Theta0)
	}

	for _, inj := range snap.Injections {
		if !inj.Active {
			continue
		}
		switch inj.Kind {
		case grid.KindShunt:
			nc.Ybus0[inj.Bus] += complex(inj.G, inj.B)
		case grid.KindLoad, grid.KindBattery:
			nc.Sbus[inj.Bus] -= complex(inj.P, inj.Q)
		case grid.KindGenerator:
			nc.Sbus[inj.Bus] += complex(inj.P, inj.Q)
		}
	}

	return nc, nil
}

// validateControl rejects control-mode/endpoint combinations the spec flags,
// e.g. a VSC declared between two AC buses (spec §4.1).
func validateControl(br grid.Branch, buses []grid.Bus) error {
	if br.Kind != grid.KindVSC {
		return nil
	}
	fDC := buses[br.From].IsDC
	tDC := buses[br.To].IsDC
	if !fDC && !tDC {
		return fmt.Errorf("VSC %q between two AC buses", br.Name)
	}
	if fDC && tDC {
		return fmt.Errorf("VSC %q between two DC buses", br.Name)
	}
	return nil
}

// Admittances lazily computes and caches the full-snapshot admittance
// matrices (positive sequence), per spec §3 lifecycle.
func (nc *NumericalCircuit) Admittances() *admittance.Admittances {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	if nc.adm == nil {
		nc.adm = admittance.Build(admittance.BuildInput{
			Branches:  nc.Snapshot.Branches,
			NBus:      nc.NBus,
			Seq:       grid.SeqPositive,
			YshuntBus: nc.Ybus0,
		})
	}
	return nc.adm
}

// Linear lazily computes and caches the DC Bbus/Bf primitives.
func (nc *NumericalCircuit) Linear() admittance.LinearPrimitives {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	if nc.lin == nil {
		lp := admittance.BuildLinear(nc.Snapshot.Branches, nc.NBus)
		nc.lin = &lp
	}
	return *nc.lin
}

// FastDecoupled lazily computes and caches B'/B''.
func (nc *NumericalCircuit) FastDecoupled() admittance.FastDecoupledPrimitives {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	if nc.fdp == nil {
		fp := admittance.BuildFastDecoupled(nc.Snapshot.Branches, nc.NBus)
		nc.fdp = &fp
	}
	return *nc.fdp
}

// GetSimulationIndices classifies buses into pq/pv/vd/no_slack/pqpv, per
// spec §4.3. Cached: "stable across compile calls".
func (nc *NumericalCircuit) GetSimulationIndices() Indices {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	if nc.idx == nil {
		ix := classify(nc.Snapshot.Buses)
		nc.idx = &ix
	}
	return *nc.idx
}

func complexPolar(mag, angle float64) complex128 {
	return complex(mag*math.Cos(angle), mag*math.Sin(angle))
}

// SplitIntoIslands runs connected-components over the active branch
// subgraph and returns one NumericalCircuit per island, in deterministic
// order by smallest original bus index (spec §4.1).
func (nc *NumericalCircuit) SplitIntoIslands() []*NumericalCircuit {
	comp := connectedComponents(nc.NBus, nc.Snapshot.Branches)

	// Order islands by their smallest original bus index.
	order := make([]int, len(comp))
	for i := range order {
		order[i] = i
	}
	minOf := func(c int) int {
		m := -1
		for bus, cc := range comp {
			if cc == c && (m == -1 || bus < m) {
				m = bus
			}
		}
		return m
	}
	sort.Slice(order, func(i, j int) bool { return minOf(order[i]) < minOf(order[j]) })

	islands := make([]*NumericalCircuit, 0, len(order))
	for _, c := range order {
		islands = append(islands, nc.subCircuitForComponent(comp, c))
	}
	return islands
}

func (nc *NumericalCircuit) subCircuitForComponent(comp []int, target int) *NumericalCircuit {
	oldToNew := make(map[int]int)
	var newBuses []grid.Bus
	for bus, cc := range comp {
		if cc != target {
			continue
		}
		oldToNew[bus] = len(newBuses)
		newBuses = append(newBuses, nc.Snapshot.Buses[bus])
	}

	var newBranches []grid.Branch
	for _, br := range nc.Snapshot.Branches {
		if nf, ok := oldToNew[br.From]; ok {
			if nt, ok2 := oldToNew[br.To]; ok2 {
				nb := br
				nb.From, nb.To = nf, nt
				newBranches = append(newBranches, nb)
			}
		}
	}

	var newInjections []grid.Injection
	for _, inj := range nc.Snapshot.Injections {
		if nb, ok := oldToNew[inj.Bus]; ok {
			ni := inj
			ni.Bus = nb
			newInjections = append(newInjections, ni)
		}
	}

	sub := grid.Snapshot{
		Buses:      newBuses,
		Branches:   newBranches,
		Injections: newInjections,
		SBase:      nc.Snapshot.SBase,
		FreqHz:     nc.Snapshot.FreqHz,
	}

	// Compilation of an island cannot fail EmptyNetwork (it has >=1 bus by
	// construction); tolerate InvalidControl propagating since it would
	// already have been rejected at the parent's CompileAt.
	subNC, err := CompileAt(sub, nc.TIdx)
	if err != nil {
		subNC = &NumericalCircuit{Snapshot: sub, TIdx: nc.TIdx, NBus: len(newBuses), NBranch: len(newBranches)}
	}
	return subNC
}

// connectedComponents labels each bus 0..n-1 with its component id over the
// subgraph induced by active branches only.
func connectedComponents(n int, branches []grid.Branch) []int {
	adj := make([][]int, n)
	for _, br := range branches {
		if !br.Active {
			continue
		}
		adj[br.From] = append(adj[br.From], br.To)
		adj[br.To] = append(adj[br.To], br.From)
	}

	comp := make([]int, n)
	for i := range comp {
		comp[i] = -1
	}
	cur := 0
	for start := 0; start < n; start++ {
		if comp[start] != -1 {
			continue
		}
		stack := []int{start}
		comp[start] = cur
		for len(stack) > 0 {
			u := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, v := range adj[u] {
				if comp[v] == -1 {
					comp[v] = cur
					stack = append(stack, v)
				}
			}
		}
		cur++
	}
	return comp
}
