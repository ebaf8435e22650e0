// SPDX-License-Identifier: MIT

// Command searchlight runs a searchlight RSA over a dataset directory and
// writes the per-voxel score volume as NIfTI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	notifySignals(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "searchlight",
		Short: "Searchlight representational similarity analysis",
		Long: `searchlight scores, for every voxel of a brain mask, how well the
dissimilarity structure of the surrounding ball of voxels matches a
model of the experimental conditions (Spearman rank correlation between
the data RDM and the model RDM).`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newGeometryCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "searchlight version %s\n", version)
		},
	}
}
