// Command gridnum is the CLI front-end for the power-system numerical
// core: admittance assembly, AC/DC power-flow solvers, linear sensitivity
// analysis, N-k contingency composition, and Ward network reduction.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
