package dag

import (
	"context"
	"sort"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"automlflow/internal/components"
	"automlflow/internal/config"
	"automlflow/internal/ctxlog"
)

// Graph is the validated component graph of a pipeline definition.
type Graph struct {
	order []string
	deps  map[string][]string
}

// Build constructs and validates the component graph. Edges come from two
// sources: explicit depends_on entries and implicit references of the form
// "component.<instance>.<output>" in argument values. Duplicate instance
// names, unknown dependencies, unknown referenced outputs, self-references,
// and cycles are all rejected.
func Build(ctx context.Context, pipeline *config.Pipeline, catalog *components.Catalog) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)

	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())

	for _, comp := range pipeline.Components {
		if err := g.AddVertex(comp.Name); err != nil {
			if errors.Is(err, graph.ErrVertexAlreadyExists) {
				return nil, errors.Errorf("duplicate component name %q", comp.Name)
			}
			return nil, errors.Wrapf(err, "unable to add component %q", comp.Name)
		}
	}

	deps := make(map[string][]string, len(pipeline.Components))
	for _, comp := range pipeline.Components {
		seen := make(map[string]struct{})

		for _, dep := range comp.DependsOn {
			if err := addDependency(g, comp.Name, dep, seen); err != nil {
				return nil, err
			}
		}

		for argName, argValue := range comp.Arguments {
			upstream, output, ok := components.ParseReference(argValue)
			if !ok {
				continue
			}
			target := pipeline.Component(upstream)
			if target == nil {
				return nil, errors.Errorf("component %q argument %q references unknown component %q", comp.Name, argName, upstream)
			}
			spec, ok := catalog.Lookup(target.Kind)
			if !ok {
				return nil, errors.Errorf("component %q has unknown kind %q", target.Name, target.Kind)
			}
			if !spec.HasOutput(output) {
				return nil, errors.Errorf("component %q argument %q references output %q, which kind %q does not produce", comp.Name, argName, output, target.Kind)
			}
			if err := addDependency(g, comp.Name, upstream, seen); err != nil {
				return nil, err
			}
		}

		dependencies := make([]string, 0, len(seen))
		for dep := range seen {
			dependencies = append(dependencies, dep)
		}
		sort.Strings(dependencies)
		deps[comp.Name] = dependencies
	}

	order, err := graph.StableTopologicalSort(g, func(a, b string) bool { return a < b })
	if err != nil {
		return nil, errors.Wrap(err, "unable to order components")
	}

	logger.Debug("Component graph validated.", "components", len(order))
	return &Graph{order: order, deps: deps}, nil
}

// addDependency records an edge from an upstream component to a dependent
// one, de-duplicating repeated declarations of the same edge.
func addDependency(g graph.Graph[string, string], dependent, upstream string, seen map[string]struct{}) error {
	if dependent == upstream {
		return errors.Errorf("component %q depends on itself", dependent)
	}
	if _, dup := seen[upstream]; dup {
		return nil
	}

	err := g.AddEdge(upstream, dependent)
	switch {
	case err == nil, errors.Is(err, graph.ErrEdgeAlreadyExists):
		// ok
	case errors.Is(err, graph.ErrVertexNotFound):
		return errors.Errorf("component %q depends on unknown component %q", dependent, upstream)
	case errors.Is(err, graph.ErrEdgeCreatesCycle):
		return errors.Errorf("dependency of %q on %q creates a cycle", dependent, upstream)
	default:
		return errors.Wrapf(err, "unable to add dependency of %q on %q", dependent, upstream)
	}

	seen[upstream] = struct{}{}
	return nil
}

// Order returns the component instance names in a deterministic topological
// order.
func (g *Graph) Order() []string {
	return g.order
}

// Dependencies returns the sorted upstream instance names of a component,
// merging explicit and implicit edges.
func (g *Graph) Dependencies(name string) []string {
	return g.deps[name]
}
