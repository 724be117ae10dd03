// Package render turns a validated pipeline model into the local
// pipeline-definition document consumed by the external compiler.
package render

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"automlflow/internal/components"
	"automlflow/internal/config"
	"automlflow/internal/ctxlog"
	"automlflow/internal/dag"
)

// SchemaVersion identifies the definition-document layout for the external
// compiler.
const SchemaVersion = "automlflow/v1"

// Document is the serialized pipeline-definition document.
type Document struct {
	SchemaVersion string            `json:"schemaVersion"`
	Pipeline      string            `json:"pipeline"`
	Labels        map[string]string `json:"labels,omitempty"`
	Tasks         []Task            `json:"tasks"`
}

// Task is one component instantiation within the document. Tasks appear in
// topological order so the compiler can process them in a single pass.
type Task struct {
	Name      string         `json:"name"`
	Kind      string         `json:"kind"`
	Arguments map[string]any `json:"arguments"`
	DependsOn []string       `json:"dependsOn,omitempty"`
}

// Render produces the definition document for a validated pipeline. The
// kind's defaults are applied to each component's arguments.
func Render(ctx context.Context, pipeline *config.Pipeline, g *dag.Graph, catalog *components.Catalog) (*Document, error) {
	logger := ctxlog.FromContext(ctx)

	doc := &Document{
		SchemaVersion: SchemaVersion,
		Pipeline:      pipeline.Name,
		Labels:        pipeline.Labels,
	}

	for _, name := range g.Order() {
		comp := pipeline.Component(name)
		if comp == nil {
			return nil, fmt.Errorf("graph references unknown component %q", name)
		}

		resolved, err := catalog.ResolveArguments(comp)
		if err != nil {
			return nil, err
		}

		args := make(map[string]any, len(resolved))
		for argName, argValue := range resolved {
			goVal, err := ctyToGo(argValue)
			if err != nil {
				return nil, fmt.Errorf("argument %q of component %q: %w", argName, name, err)
			}
			args[argName] = goVal
		}

		doc.Tasks = append(doc.Tasks, Task{
			Name:      name,
			Kind:      comp.Kind,
			Arguments: args,
			DependsOn: g.Dependencies(name),
		})
	}

	logger.Debug("Definition document rendered.", "pipeline", doc.Pipeline, "tasks", len(doc.Tasks))
	return doc, nil
}

// WriteFile serializes the document as indented JSON to the given path.
func WriteFile(doc *Document, path string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize definition document: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write definition document to %s: %w", path, err)
	}
	return nil
}
