package components

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/zclconf/go-cty/cty"

	"automlflow/internal/config"
)

// InputDefinition describes one argument accepted by a component kind.
type InputDefinition struct {
	Name        string
	Description string
	Required    bool
	// Default is applied at render time when the argument is omitted.
	// It is cty.NilVal for required inputs.
	Default cty.Value
}

// Spec is the contract of a managed component kind: the arguments it
// accepts and the named outputs it produces for downstream components.
type Spec struct {
	Kind        string
	Description string
	Inputs      map[string]*InputDefinition
	Outputs     []string
}

// Catalog holds the known component kinds.
type Catalog struct {
	specs map[string]*Spec
}

// NewCatalog returns the catalog of the four managed components the
// training-and-deployment workflow is assembled from.
func NewCatalog() *Catalog {
	c := &Catalog{specs: make(map[string]*Spec)}

	c.register(&Spec{
		Kind:        "tabular_dataset",
		Description: "Creates a managed tabular dataset from CSV files in object storage.",
		Inputs: inputs(
			required("display_name", "Display name of the created dataset."),
			required("gcs_source", "Storage URI of the source CSV data."),
		),
		Outputs: []string{"dataset"},
	})

	c.register(&Spec{
		Kind:        "automl_training",
		Description: "Runs an AutoML tabular training job against a managed dataset.",
		Inputs: inputs(
			required("display_name", "Display name of the training job and model."),
			required("dataset", "Reference to the upstream dataset output."),
			required("target_column", "Name of the column the model predicts."),
			optional("optimization_prediction_type", "Objective of the model search.", cty.StringVal("regression")),
			optional("budget_milli_node_hours", "Training budget in milli node hours.", cty.NumberIntVal(1000)),
		),
		Outputs: []string{"model"},
	})

	c.register(&Spec{
		Kind:        "endpoint",
		Description: "Provisions a serving endpoint.",
		Inputs: inputs(
			required("display_name", "Display name of the endpoint."),
		),
		Outputs: []string{"endpoint"},
	})

	c.register(&Spec{
		Kind:        "model_deploy",
		Description: "Deploys a trained model to a serving endpoint.",
		Inputs: inputs(
			required("model", "Reference to the upstream model output."),
			required("endpoint", "Reference to the upstream endpoint output."),
			optional("machine_type", "Serving machine type.", cty.StringVal("n1-standard-4")),
			optional("min_replica_count", "Minimum number of serving replicas.", cty.NumberIntVal(1)),
		),
		Outputs: []string{"deployed_model"},
	})

	return c
}

func (c *Catalog) register(s *Spec) {
	c.specs[s.Kind] = s
}

// Lookup returns the spec for a component kind.
func (c *Catalog) Lookup(kind string) (*Spec, bool) {
	s, ok := c.specs[kind]
	return s, ok
}

// Kinds returns the sorted names of all registered component kinds.
func (c *Catalog) Kinds() []string {
	kinds := make([]string, 0, len(c.specs))
	for k := range c.specs {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Validate checks a component instance against its kind's contract: the
// kind must exist, every required argument must be present, and no unknown
// arguments are allowed.
func (c *Catalog) Validate(comp *config.Component) error {
	spec, ok := c.specs[comp.Kind]
	if !ok {
		return fmt.Errorf("component %q has unknown kind %q (known kinds: %v)", comp.Name, comp.Kind, c.Kinds())
	}

	for name, in := range spec.Inputs {
		if !in.Required {
			continue
		}
		if _, present := comp.Arguments[name]; !present {
			return fmt.Errorf("component %q is missing required argument %q", comp.Name, name)
		}
	}

	for name := range comp.Arguments {
		if _, known := spec.Inputs[name]; !known {
			return fmt.Errorf("component %q has unknown argument %q for kind %q", comp.Name, name, comp.Kind)
		}
	}

	return nil
}

// ResolveArguments returns the component's arguments with the kind's
// defaults applied for omitted optional inputs.
func (c *Catalog) ResolveArguments(comp *config.Component) (map[string]cty.Value, error) {
	spec, ok := c.specs[comp.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown component kind %q", comp.Kind)
	}

	resolved := make(map[string]cty.Value, len(spec.Inputs))
	for name, in := range spec.Inputs {
		if val, present := comp.Arguments[name]; present {
			resolved[name] = val
			continue
		}
		if in.Default != cty.NilVal {
			resolved[name] = in.Default
		}
	}
	return resolved, nil
}

// HasOutput reports whether the kind produces the named output.
func (s *Spec) HasOutput(name string) bool {
	for _, out := range s.Outputs {
		if out == name {
			return true
		}
	}
	return false
}

// referencePattern matches argument values that bind a downstream input to
// an upstream component's output, e.g. "component.training.model".
var referencePattern = regexp.MustCompile(`^component\.([A-Za-z0-9_-]+)\.([A-Za-z0-9_]+)$`)

// ParseReference parses an argument value of the form
// "component.<instance>.<output>". It reports ok=false for any other value.
func ParseReference(v cty.Value) (component, output string, ok bool) {
	if v.IsNull() || v.Type() != cty.String {
		return "", "", false
	}
	m := referencePattern.FindStringSubmatch(v.AsString())
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

func inputs(defs ...*InputDefinition) map[string]*InputDefinition {
	m := make(map[string]*InputDefinition, len(defs))
	for _, d := range defs {
		m[d.Name] = d
	}
	return m
}

func required(name, description string) *InputDefinition {
	return &InputDefinition{Name: name, Description: description, Required: true}
}

func optional(name, description string, def cty.Value) *InputDefinition {
	return &InputDefinition{Name: name, Description: description, Default: def}
}
