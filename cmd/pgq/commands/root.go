// Package commands implements the pgq command line.
package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"git.canoozie.net/riddling/pipegraph/pkg/config"
	"git.canoozie.net/riddling/pipegraph/pkg/loader"
	"git.canoozie.net/riddling/pipegraph/pkg/metrics"
	"git.canoozie.net/riddling/pipegraph/pkg/model"
	"git.canoozie.net/riddling/pipegraph/pkg/storage"
	"git.canoozie.net/riddling/pipegraph/pkg/telemetry"
)

// SnapshotExt marks graph files in the binary snapshot format
const SnapshotExt = ".pgs"

// Version is reported by --version and attached to trace resources
const Version = "0.1.0"

// app carries state shared by every subcommand
type app struct {
	cfgFile  string
	logLevel string

	cfg      config.Config
	logger   *model.DefaultLogger
	shutdown func(context.Context) error
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "pgq",
		Short: "Query property graphs with pipeline traversals",
		Long: `pgq loads a property graph from a YAML document and runs
traversal plans against it.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "Path to a YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(newRunCmd(a))
	root.AddCommand(newStatsCmd(a))
	root.AddCommand(newMarkersCmd(a))
	root.AddCommand(newSnapshotCmd(a))
	return root
}

func (a *app) setup(ctx context.Context) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg

	a.logger = model.NewDefaultLogger(model.ParseLogLevel(cfg.Log.Level))
	model.SetDefaultLogger(a.logger)

	if cfg.Telemetry.Enabled {
		if ctx == nil {
			ctx = context.Background()
		}
		a.shutdown, err = telemetry.Init(ctx, cfg.Telemetry.ServiceName, Version, cfg.Telemetry.Endpoint)
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *app) teardown(ctx context.Context) error {
	if a.logger != nil {
		// stderr cannot always be synced; ignore
		_ = a.logger.Sync()
	}
	if a.shutdown == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return a.shutdown(ctx)
}

// loadGraph builds a graph sized from the config and fills it from path
func (a *app) loadGraph(path string) (*storage.Graph[string], error) {
	if path == "" {
		return nil, fmt.Errorf("--graph is required")
	}
	opts := []storage.GraphOption{
		storage.WithLogger(a.logger),
		storage.WithBloomFilter(a.cfg.Graph.BloomExpected, a.cfg.Graph.BloomFPR),
	}

	var g *storage.Graph[string]
	if filepath.Ext(path) == SnapshotExt {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		g, err = storage.ReadSnapshot[string](bufio.NewReader(f), storage.StringCodec{}, opts...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	} else {
		g = storage.NewGraph[string](opts...)
		if _, err := loader.LoadFile(g, path); err != nil {
			return nil, err
		}
	}

	stats := g.Stats()
	metrics.ObserveGraph(stats)
	a.logger.Info("loaded %s: %d nodes, %d edges, %d labels, %d props", path, stats.Nodes, stats.Edges, stats.Labels, stats.Props)
	return g, nil
}
