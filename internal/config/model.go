package config

import (
	"github.com/zclconf/go-cty/cty"
)

// Pipeline is the top-level pipeline definition: a named collection of
// component instances submitted to the managed execution service as one unit.
type Pipeline struct {
	// Name labels the pipeline and its runs on the remote service.
	Name string

	// Labels are attached verbatim to the submitted run.
	Labels map[string]string

	// Components are the instantiated managed components, in source order.
	Components []*Component
}

// Component is a single instantiation of a pre-built managed component kind.
type Component struct {
	// Kind names the managed component type (for example "automl_training").
	Kind string

	// Name is the user-chosen instance name, unique within the pipeline.
	Name string

	// Arguments holds the literal argument values from the definition.
	Arguments map[string]cty.Value

	// DependsOn lists explicit upstream component instance names.
	DependsOn []string
}

// Component returns the component with the given instance name, or nil.
func (p *Pipeline) Component(name string) *Component {
	for _, c := range p.Components {
		if c.Name == name {
			return c
		}
	}
	return nil
}
