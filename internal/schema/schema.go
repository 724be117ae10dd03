// Package schema declares the HCL shapes of a pipeline-definition file.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// ArgumentsBlock represents the content of the 'arguments' block within a
// component. Attributes are decoded generically so each component kind can
// declare its own argument set.
type ArgumentsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// Component represents a `component` block from a user's definition file.
// It is an instantiation of a pre-built managed component kind.
type Component struct {
	Kind      string          `hcl:"kind,label"`
	Name      string          `hcl:"instance_name,label"`
	Arguments *ArgumentsBlock `hcl:"arguments,block"`
	DependsOn []string        `hcl:"depends_on,optional"`
}

// Pipeline represents the top-level `pipeline` block of a definition file,
// containing all component instances.
type Pipeline struct {
	Name       string            `hcl:"name,label"`
	Labels     map[string]string `hcl:"labels,optional"`
	Components []*Component      `hcl:"component,block"`
	Body       hcl.Body          `hcl:",remain"`
}
