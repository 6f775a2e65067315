package commands

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"git.canoozie.net/riddling/pipegraph/pkg/storage"
)

func newSnapshotCmd(a *app) *cobra.Command {
	var (
		graphPath string
		outPath   string
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Write a graph document as a binary snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outPath == "" {
				return fmt.Errorf("--out is required")
			}
			g, err := a.loadGraph(graphPath)
			if err != nil {
				return err
			}

			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			w := bufio.NewWriter(f)
			if err := g.WriteSnapshot(w, storage.StringCodec{}); err != nil {
				f.Close()
				return err
			}
			if err := w.Flush(); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			a.logger.Info("wrote snapshot %s", outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&graphPath, "graph", "", "Graph document to load")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Snapshot file to write (use the "+SnapshotExt+" extension to load it back)")
	return cmd
}
