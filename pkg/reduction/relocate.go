package reduction

import (
	"math"
	"math/cmplx"

	"github.com/gridnum/gridnum/pkg/admittance"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// RelocationMode selects the edge-weight metric for the electrical-distance
// graph, per spec §4.8: "|z_eq| (AC mode) or |Im(z_eq)| (DC mode)".
type RelocationMode int

const (
	RelocationAC RelocationMode = iota
	RelocationDC
)

// RelocationResult maps each eliminated generator bus to its nearest
// boundary bus by electrical distance, per spec §4.8.
type RelocationResult struct {
	GenToBoundary map[int]int
	Distance      map[int]float64
}

// Relocate builds the undirected weighted graph from yeqG2 (the G2
// reduction: retain ∪ generator-bus set) and runs single-source Dijkstra
// from each eliminated generator bus to find its nearest boundary bus.
func Relocate(yeqG2 *admittance.ComplexCSR, busIndex []int, boundary []int, generatorBuses []int, mode RelocationMode) RelocationResult {
	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	localOf := make(map[int]int, len(busIndex))
	for local, global := range busIndex {
		localOf[global] = local
		g.AddNode(simple.Node(local))
	}

	n := yeqG2.Rows
	for i := 0; i < n; i++ {
		yeqG2.Row(i, func(j int, val complex128) {
			if j <= i || val == 0 {
				return
			}
			z := 1.0 / (-val)
			var w float64
			if mode == RelocationDC {
				w = math.Abs(imag(z))
			} else {
				w = cmplx.Abs(z)
			}
			if w <= 0 {
				return
			}
			if g.HasEdgeBetween(int64(i), int64(j)) {
				return
			}
			g.SetWeightedEdge(simple.Edge{F: simple.Node(i), T: simple.Node(j), W: w})
		})
	}

	result := RelocationResult{GenToBoundary: map[int]int{}, Distance: map[int]float64{}}

	boundaryLocal := make(map[int]int, len(boundary))
	for _, b := range boundary {
		if l, ok := localOf[b]; ok {
			boundaryLocal[l] = b
		}
	}

	for _, genBus := range generatorBuses {
		genLocal, ok := localOf[genBus]
		if !ok {
			continue
		}
		if _, isBoundary := boundaryLocal[genLocal]; isBoundary {
			continue
		}
		shortest := path.DijkstraFrom(simple.Node(genLocal), g)
		best := math.Inf(1)
		bestBoundary := -1
		for local, global := range boundaryLocal {
			d := shortest.WeightTo(int64(local))
			if d < best {
				best = d
				bestBoundary = global
			}
		}
		if bestBoundary >= 0 {
			result.GenToBoundary[genBus] = bestBoundary
			result.Distance[genBus] = best
		}
	}

	return result
}
