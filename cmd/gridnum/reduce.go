package main

import (
	"fmt"

	"github.com/gridnum/gridnum/pkg/numcircuit"
	"github.com/gridnum/gridnum/pkg/reduction"
	"github.com/spf13/cobra"
)

var reduceCmd = &cobra.Command{
	Use:   "reduce",
	Args:  cobra.NoArgs,
	Short: "Ward-reduce a network down to a retained bus set",
	RunE:  runReduce,
}

func init() {
	addNetworkFlags(reduceCmd)
	reduceCmd.Flags().IntSlice("retain", nil, "bus indices to retain (required)")
}

func runReduce(cmd *cobra.Command, args []string) error {
	snap, err := loadSnapshot(cmd)
	if err != nil {
		return err
	}
	retain, _ := cmd.Flags().GetIntSlice("retain")
	if len(retain) == 0 {
		return fmt.Errorf("--retain is required (e.g. --retain 0,4,7)")
	}

	nc, err := numcircuit.CompileAt(snap, 0)
	if err != nil {
		return fmt.Errorf("compiling network: %w", err)
	}

	result, err := reduction.WardReduce(nc.Admittances().Ybus, retain)
	if err != nil {
		return fmt.Errorf("ward reduction: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "retained %d of %d buses, %d equivalent branch(es) survived pruning\n",
		len(result.Retain), nc.NBus, len(result.Branches))
	for _, b := range result.Branches {
		fmt.Fprintf(out, "  %3d - %3d: Z=%7.4f%+7.4fj\n", result.Retain[b.I], result.Retain[b.J], real(b.Z), imag(b.Z))
	}
	for k, bus := range result.Retain {
		if s := result.ShuntDiag[k]; s != 0 {
			fmt.Fprintf(out, "  shunt @ bus %3d: Y=%7.4f%+7.4fj\n", bus, real(s), imag(s))
		}
	}
	return nil
}
