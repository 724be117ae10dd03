package hclcfg

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"automlflow/internal/config"
	"automlflow/internal/schema"
)

// translatePipeline converts the HCL-specific pipeline schema into the
// agnostic model.
func (l *Loader) translatePipeline(p *schema.Pipeline) (*config.Pipeline, error) {
	pipeline := &config.Pipeline{
		Name:   p.Name,
		Labels: p.Labels,
	}
	for _, c := range p.Components {
		comp, err := l.translateComponent(c)
		if err != nil {
			return nil, err
		}
		pipeline.Components = append(pipeline.Components, comp)
	}
	return pipeline, nil
}

// translateComponent converts an HCL component block into the agnostic
// model. Argument expressions must be literals: the definition describes a
// remote workflow, so there is nothing local for an expression to reference.
func (l *Loader) translateComponent(c *schema.Component) (*config.Component, error) {
	args, err := l.extractArguments(c)
	if err != nil {
		return nil, err
	}
	return &config.Component{
		Kind:      c.Kind,
		Name:      c.Name,
		Arguments: args,
		DependsOn: c.DependsOn,
	}, nil
}

func (l *Loader) extractArguments(c *schema.Component) (map[string]cty.Value, error) {
	if c.Arguments == nil || c.Arguments.Body == nil {
		return nil, nil
	}

	attrs, diags := c.Arguments.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid arguments block in component %q: %w", c.Name, diags)
	}

	values := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("argument %q of component %q is not a literal value: %w", name, c.Name, diags)
		}
		values[name] = val
	}
	return values, nil
}
