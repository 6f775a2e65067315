package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"git.canoozie.net/riddling/pipegraph/pkg/plan"
	"git.canoozie.net/riddling/pipegraph/pkg/query"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		graphPath string
		planPath  string
		maxDepth  int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a traversal plan and print the resulting nodes",
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

			ex := a.executor(query.NewEngine(g, query.WithEngineLogger(a.logger)))
			if maxDepth > 0 {
				ex.SetMaxDepth(maxDepth)
			}

			res, err := ex.Execute(cmd.Context(), p)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, name := range res.Nodes {
				fmt.Fprintln(out, name)
			}
			a.logger.Info("plan %s run %s: %d results, %d steps in %s", res.Plan, res.RunID, len(res.Nodes), res.Steps, res.Duration)
			return nil
		},
	}

	cmd.Flags().StringVar(&graphPath, "graph", "", "Graph document to load")
	cmd.Flags().StringVar(&planPath, "plan", "", "Plan document to run")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "Override the default repeat depth")
	return cmd
}

// executor builds a plan executor configured from the loaded settings
func (a *app) executor(eng *query.Engine[string]) *plan.Executor {
	ex := plan.NewExecutor(eng)
	ex.Optimizer.EnableDepthLimit = a.cfg.Query.LimitDepth
	ex.SetMaxDepth(a.cfg.Query.DefaultMaxDepth)
	return ex
}
