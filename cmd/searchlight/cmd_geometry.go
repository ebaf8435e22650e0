// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trossi/searchlight/searchlight"
)

func newGeometryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "geometry",
		Short: "Print the searchlight ball for a radius",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			radius, _ := cmd.Flags().GetInt("radius")
			ndim, _ := cmd.Flags().GetInt("ndim")
			offsets, _ := cmd.Flags().GetBool("offsets")

			g, err := searchlight.BuildGeometry(radius, ndim)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "radius %d, %d dims: %d voxels\n", g.Radius(), g.NDim(), g.Len())
			if offsets {
				for _, o := range g.Offsets() {
					fmt.Fprintln(out, o)
				}
			}
			return nil
		},
	}

	cmd.Flags().Int("radius", searchlight.DefaultRadius, "Searchlight radius in voxels")
	cmd.Flags().Int("ndim", 3, "Number of spatial dimensions")
	cmd.Flags().Bool("offsets", false, "List every offset")

	return cmd
}
