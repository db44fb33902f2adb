package main

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"
)

// printDense prints a dense matrix as a fixed-width grid, the same tabular
// style toy-spice's printResults used for its per-node result columns.
func printDense(out io.Writer, m *mat.Dense) {
	if m == nil {
		fmt.Fprintln(out, "  (empty)")
		return
	}
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			fmt.Fprintf(out, "%10.4f", m.At(i, j))
		}
		fmt.Fprintln(out)
	}
}
