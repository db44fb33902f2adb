package main

import (
	"fmt"

	"github.com/gridnum/gridnum/pkg/linear"
	"github.com/gridnum/gridnum/pkg/numcircuit"
	"github.com/spf13/cobra"
)

var linearCmd = &cobra.Command{
	Use:   "linear",
	Args:  cobra.NoArgs,
	Short: "Compute DC linear sensitivity matrices (PTDF/LODF)",
	RunE:  runLinear,
}

func init() {
	addNetworkFlags(linearCmd)
	linearCmd.Flags().Bool("ptdf", true, "print the PTDF matrix")
	linearCmd.Flags().Bool("lodf", false, "print the LODF matrix")
	linearCmd.Flags().Bool("distributed-slack", false, "use the distributed-slack PTDF RHS")
	linearCmd.Flags().Bool("clip-lodf", true, "clip LODF entries to the configured bound")
}

func runLinear(cmd *cobra.Command, args []string) error {
	snap, err := loadSnapshot(cmd)
	if err != nil {
		return err
	}
	showPTDF, _ := cmd.Flags().GetBool("ptdf")
	showLODF, _ := cmd.Flags().GetBool("lodf")
	distSlack, _ := cmd.Flags().GetBool("distributed-slack")
	clipLODF, _ := cmd.Flags().GetBool("clip-lodf")

	nc, err := numcircuit.CompileAt(snap, 0)
	if err != nil {
		return fmt.Errorf("compiling network: %w", err)
	}
	ix := nc.GetSimulationIndices()
	lin := nc.Linear()
	logger := newLogger()

	ptdf, err := linear.DCPTDF(lin, snap.Branches, nc.NBus, ix.NoSlack, ix.VD, distSlack)
	if err != nil {
		return fmt.Errorf("computing PTDF: %w", err)
	}

	out := cmd.OutOrStdout()
	if showPTDF {
		fmt.Fprintln(out, "PTDF (branch x bus):")
		printDense(out, ptdf)
	}
	if showLODF {
		lodf := linear.LODF(ptdf, snap.Branches, nc.NBus, clipLODF, logger)
		fmt.Fprintln(out, "LODF (branch x branch):")
		printDense(out, lodf)
	}
	for _, w := range logger.Warnings() {
		fmt.Fprintf(out, "warning: %s: %s\n", w.Kind, w.Message)
	}
	return nil
}
