package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"git.canoozie.net/riddling/pipegraph/pkg/plan"
	"git.canoozie.net/riddling/pipegraph/pkg/query"
)

func newMarkersCmd(a *app) *cobra.Command {
	var (
		graphPath string
		planPath  string
	)

	cmd := &cobra.Command{
		Use:   "markers",
		Short: "List the marker names a plan records, in lexical order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if planPath == "" {
				return fmt.Errorf("--plan is required")
			}
			g, err := a.loadGraph(graphPath)
			if err != nil {
				return err
			}
			p, err := plan.Load(planPath)
			if err != nil {
				return err
			}

			eng := query.NewEngine(g, query.WithEngineLogger(a.logger))
			if _, err := a.executor(eng).Compile(p); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range eng.Markers() {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&graphPath, "graph", "", "Graph document to load")
	cmd.Flags().StringVar(&planPath, "plan", "", "Plan document to compile")
	return cmd
}
