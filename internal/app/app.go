package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"automlflow/internal/components"
	"automlflow/internal/config"
	"automlflow/internal/ctxlog"
	"automlflow/internal/dag"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	cfg      *Config
	catalog  *components.Catalog
	pipeline *config.Pipeline
	graph    *dag.Graph
}

// NewApp is the constructor for the main application. It loads and
// validates the pipeline definition up front so every later stage works on
// a known-good model. Definition errors are fatal startup errors and panic;
// the caller recovers them into a clean exit.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	pipeline, err := loader.Load(ctx, cfg.DefinitionPath)
	if err != nil {
		panic(fmt.Errorf("failed to load pipeline definition: %w", err))
	}
	logger.Debug("Pipeline definition loaded.", "pipeline", pipeline.Name, "components", len(pipeline.Components))

	catalog := components.NewCatalog()
	for _, comp := range pipeline.Components {
		if err := catalog.Validate(comp); err != nil {
			panic(fmt.Errorf("invalid pipeline definition: %w", err))
		}
	}
	logger.Debug("Component arguments validated against the catalog.")

	graph, err := dag.Build(ctx, pipeline, catalog)
	if err != nil {
		panic(fmt.Errorf("invalid pipeline definition: %w", err))
	}
	logger.Debug("Component graph validated.", "order", graph.Order())

	return &App{
		outW:     outW,
		logger:   logger,
		cfg:      cfg,
		catalog:  catalog,
		pipeline: pipeline,
		graph:    graph,
	}
}

// Pipeline returns the loaded pipeline model. This is primarily for testing.
func (a *App) Pipeline() *config.Pipeline {
	return a.pipeline
}

// Graph returns the validated component graph. This is primarily for testing.
func (a *App) Graph() *dag.Graph {
	return a.graph
}
