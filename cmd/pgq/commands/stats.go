package commands

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newStatsCmd(a *app) *cobra.Command {
	var graphPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print entity counts for a graph document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.loadGraph(graphPath)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(g.Stats()); err != nil {
				return err
			}
			return enc.Close()
		},
	}

	cmd.Flags().StringVar(&graphPath, "graph", "", "Graph document to load")
	return cmd
}
