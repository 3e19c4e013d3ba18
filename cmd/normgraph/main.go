// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/poiesic/normgraph"
	"github.com/poiesic/normgraph/config"
	"github.com/poiesic/normgraph/core"
	"github.com/poiesic/normgraph/export"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "normgraph",
		Usage: "Build a knowledge graph from chunked technical standards",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Build the graph from a chunk directory and export it",
				Action: buildCommand,
				Flags:  buildFlags(),
			},
			{
				Name:   "inspect",
				Usage:  "Print a summary of a built graph",
				Action: inspectCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "snapshot",
						Usage: "Path to a BadgerDB snapshot written by build --snapshot",
					},
					&cli.StringFlag{
						Name:  "graph",
						Usage: "Path to a graph JSON file written by build",
					},
					&cli.StringFlag{
						Name:  "node",
						Usage: "Print the node with this id",
					},
					&cli.BoolFlag{
						Name:  "edges",
						Usage: "Print every edge",
					},
				},
			},
			{
				Name:   "init-config",
				Usage:  "Write the default configuration to a YAML file",
				Action: initConfigCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "out",
						Usage: "Path of the configuration file",
						Value: "normgraph.yaml",
					},
				},
			},
		},
	}
}

func buildFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a YAML configuration file",
		},
		&cli.StringFlag{
			Name:  "chunks",
			Usage: "Directory with one subdirectory of chunk files per document",
		},
		&cli.StringFlag{
			Name:  "out",
			Usage: "Directory for the graph and build log",
		},
		&cli.StringFlag{
			Name:  "pattern",
			Usage: "Glob selecting chunk files inside each document directory",
		},
		&cli.Float64Flag{
			Name:  "threshold",
			Usage: "Minimum Jaccard similarity for a SIMILAR_TO edge",
			Value: 0.3,
		},
		&cli.IntFlag{
			Name:  "max-links",
			Usage: "Maximum number of SIMILAR_TO edges",
			Value: 200,
		},
		&cli.StringFlag{
			Name:  "policy",
			Usage: "Similarity cap policy (prefix, ranked)",
			Value: "prefix",
		},
		&cli.StringFlag{
			Name:  "matcher",
			Usage: "Citation matcher (containment, exact, edit)",
			Value: "containment",
		},
		&cli.IntFlag{
			Name:  "max-distance",
			Usage: "Edit distance accepted by the edit matcher",
			Value: 1,
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Worker pool size (0 picks one from the CPU count)",
		},
		&cli.StringFlag{
			Name:  "snapshot",
			Usage: "Also write a BadgerDB snapshot to this directory",
		},
		&cli.BoolFlag{
			Name:  "progress",
			Usage: "Print similarity progress to stderr",
		},
	}
}

// loadConfig reads --config if given and applies the flags that were set
// explicitly on top of it.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	var opts []config.Option
	if c.IsSet("chunks") {
		opts = append(opts, config.WithChunksDir(c.String("chunks")))
	}
	if c.IsSet("out") {
		opts = append(opts, config.WithOutputDir(c.String("out")))
	}
	if c.IsSet("pattern") {
		opts = append(opts, config.WithPattern(c.String("pattern")))
	}
	if c.IsSet("threshold") {
		opts = append(opts, config.WithThreshold(c.Float64("threshold")))
	}
	if c.IsSet("max-links") {
		opts = append(opts, config.WithMaxLinks(c.Int("max-links")))
	}
	if c.IsSet("policy") {
		opts = append(opts, config.WithPolicy(c.String("policy")))
	}
	if c.IsSet("matcher") {
		opts = append(opts, config.WithMatcher(c.String("matcher")))
	}
	if c.IsSet("max-distance") {
		opts = append(opts, config.WithMaxDistance(c.Int("max-distance")))
	}
	if c.IsSet("workers") {
		opts = append(opts, config.WithWorkers(c.Int("workers")))
	}
	if c.IsSet("snapshot") {
		opts = append(opts, config.WithSnapshotDir(c.String("snapshot")))
	}
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	opts := []normgraph.BuilderOption{normgraph.WithConsole(slog.Default().Handler())}
	if c.Bool("progress") {
		opts = append(opts, normgraph.WithProgressOutput(os.Stderr))
	}
	builder, err := normgraph.NewBuilder(cfg, opts...)
	if err != nil {
		return fmt.Errorf("failed to create builder: %w", err)
	}
	defer builder.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := builder.Build(ctx)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "\nGraph written to %s\n", cfg.GraphPath())
	fmt.Fprintf(w, "Build log written to %s\n", cfg.LogPath())
	if cfg.Output.SnapshotDir != "" {
		fmt.Fprintf(w, "Snapshot written to %s\n", cfg.Output.SnapshotDir)
	}
	fmt.Fprintf(w, "Documents: %d\n", result.Metadata.DocumentCount)
	fmt.Fprintf(w, "Nodes: %d\n", result.Metadata.NodeCount)
	fmt.Fprintf(w, "Edges: %d\n", result.Metadata.EdgeCount)
	return nil
}

// view is the part of a built graph that inspect prints.
type view struct {
	meta      core.Metadata
	documents []string
	nodes     []*core.Node
	edges     []core.Edge
}

func loadView(ctx context.Context, snapshotDir, graphPath string) (*view, error) {
	switch {
	case snapshotDir != "" && graphPath != "":
		return nil, fmt.Errorf("use either --snapshot or --graph, not both")
	case snapshotDir != "":
		return loadSnapshotView(ctx, snapshotDir)
	case graphPath != "":
		f, err := os.Open(graphPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open graph: %w", err)
		}
		defer f.Close()
		doc, err := export.ReadGraph(f)
		if err != nil {
			return nil, err
		}
		return &view{meta: doc.Metadata, documents: doc.Documents(), nodes: doc.Nodes(), edges: doc.Edges()}, nil
	default:
		return nil, fmt.Errorf("one of --snapshot or --graph is required")
	}
}

func loadSnapshotView(ctx context.Context, dir string) (*view, error) {
	snap, err := normgraph.OpenSnapshot(dir)
	if err != nil {
		return nil, err
	}
	defer snap.Close()

	meta, err := snap.Metadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	docs, err := snap.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read documents: %w", err)
	}
	nodes, err := snap.Nodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read nodes: %w", err)
	}
	edges, err := snap.Edges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read edges: %w", err)
	}
	return &view{meta: *meta, documents: docs, nodes: nodes, edges: edges}, nil
}

func inspectCommand(c *cli.Context) error {
	v, err := loadView(c.Context, c.String("snapshot"), c.String("graph"))
	if err != nil {
		return err
	}
	w := c.App.Writer

	if id := c.String("node"); id != "" {
		for _, node := range v.nodes {
			if node.ID == id {
				printNode(w, node)
				return nil
			}
		}
		return fmt.Errorf("node %q not found", id)
	}

	fmt.Fprintf(w, "Built: %s\n", v.meta.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Documents: %d\n", v.meta.DocumentCount)
	for _, doc := range v.documents {
		fmt.Fprintf(w, "  %s\n", doc)
	}
	fmt.Fprintf(w, "Chunks: %d\n", v.meta.ChunkCount)
	fmt.Fprintf(w, "Nodes: %d\n", len(v.nodes))
	fmt.Fprintf(w, "Edges: %d\n", len(v.edges))

	if c.Bool("edges") {
		for _, e := range v.edges {
			fmt.Fprintf(w, "%s -[%s]-> %s\n", e.Source, e.Relationship, e.Target)
		}
	}
	return nil
}

func printNode(w io.Writer, node *core.Node) {
	fmt.Fprintf(w, "ID: %s\n", node.ID)
	fmt.Fprintf(w, "Type: %s\n", node.Type)
	fmt.Fprintf(w, "Document: %s\n", node.DocumentID)
	switch node.Type {
	case core.NodeTypeStandard:
		fmt.Fprintf(w, "Label: %s\n", node.Label)
	case core.NodeTypeClause:
		fmt.Fprintf(w, "Clause: %s (level %d)\n", node.ClauseID, node.Level)
		fmt.Fprintf(w, "Title: %s\n", node.Title)
		if node.ParentID != "" {
			fmt.Fprintf(w, "Parent: %s\n", node.ParentID)
		}
		fmt.Fprintf(w, "Source: %s\n", node.SourceFile)
		fmt.Fprintf(w, "Hash: %s\n", node.TextHash)
		fmt.Fprintf(w, "Text: %s\n", node.Text)
	case core.NodeTypeRequirement:
		fmt.Fprintf(w, "Clause: %s\n", node.ParentClause)
		fmt.Fprintf(w, "Obligation: %s (%s)\n", node.ObligationLevel, node.Keyword)
		fmt.Fprintf(w, "Type: %s\n", node.RequirementType)
		fmt.Fprintf(w, "Text: %s\n", node.Text)
	}
}

func initConfigCommand(c *cli.Context) error {
	path := c.String("out")
	if err := config.DefaultConfig().SaveToFile(path); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Configuration written to %s\n", path)
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
