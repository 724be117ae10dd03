// Package hclcfg is the HCL-specific implementation of the pipeline
// definition loader. It discovers .hcl files, decodes them against the
// schemas in internal/schema, and translates the result into the agnostic
// model in internal/config.
package hclcfg

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"automlflow/internal/config"
	"automlflow/internal/ctxlog"
	"automlflow/internal/fsutil"
	"automlflow/internal/schema"
)

// Loader implements config.Loader for HCL definition files.
type Loader struct{}

// NewLoader creates a new HCL definition loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot decodes the top-level blocks of a single definition file.
type fileRoot struct {
	Pipelines []*schema.Pipeline `hcl:"pipeline,block"`
	Remain    hcl.Body           `hcl:",remain"`
}

// Load orchestrates the HCL loading process. The path may be a single .hcl
// file or a directory; exactly one pipeline block must be defined across all
// discovered files.
func (l *Loader) Load(ctx context.Context, path string) (*config.Pipeline, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path", path)

	files, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl definition files found under %s", path)
	}
	logger.Debug("Discovered definition files.", "count", len(files))

	parser := hclparse.NewParser()

	var pipelines []*schema.Pipeline
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}
		pipelines = append(pipelines, root.Pipelines...)
	}

	if len(pipelines) == 0 {
		return nil, fmt.Errorf("no pipeline block defined in %s", path)
	}
	if len(pipelines) > 1 {
		return nil, fmt.Errorf("expected exactly one pipeline block, found %d", len(pipelines))
	}

	pipeline, err := l.translatePipeline(pipelines[0])
	if err != nil {
		return nil, err
	}

	logger.Debug("HCL loading complete.", "pipeline", pipeline.Name, "components", len(pipeline.Components))
	return pipeline, nil
}
