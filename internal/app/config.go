package app

import (
	"errors"
	"fmt"
	"time"

	"automlflow/internal/gcs"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// DefinitionPath points at a .hcl definition file or a directory of them.
	DefinitionPath string

	// Project, Region and PipelineRoot identify the external account and
	// artifact-storage context the run is submitted into.
	Project      string
	Region       string
	PipelineRoot string

	// CompilerBinary is the external compiler invoked on the rendered
	// definition document.
	CompilerBinary string

	// DefinitionOut and CompiledOut override the default output paths of
	// the rendered and compiled documents.
	DefinitionOut string
	CompiledOut   string

	EnableCaching bool
	Wait          bool
	WaitInterval  time.Duration
	DryRun        bool

	// HistoryDB is the path of the local submission-history database. Empty
	// disables history.
	HistoryDB string

	// ServiceEndpoint and StorageEndpoint override the remote API base URLs.
	ServiceEndpoint string
	StorageEndpoint string

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config. Submission requires the full remote
// context; a dry run only needs the definition and the compiler.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.DefinitionPath == "" {
		return nil, errors.New("DefinitionPath is a required configuration field and cannot be empty")
	}
	if cfg.CompilerBinary == "" {
		return nil, errors.New("CompilerBinary is a required configuration field and cannot be empty")
	}

	if !cfg.DryRun {
		if cfg.Project == "" {
			return nil, errors.New("a project must be set before submission (flag --project or GOOGLE_CLOUD_PROJECT)")
		}
		if cfg.Region == "" {
			return nil, errors.New("a region must be set before submission (flag --region or GOOGLE_CLOUD_REGION)")
		}
		if cfg.PipelineRoot == "" {
			return nil, errors.New("a pipeline root must be set before submission (flag --pipeline-root or PIPELINE_ROOT)")
		}
		if _, _, err := gcs.ParseURI(cfg.PipelineRoot); err != nil {
			return nil, fmt.Errorf("invalid pipeline root: %w", err)
		}
	}

	if cfg.WaitInterval <= 0 {
		cfg.WaitInterval = 30 * time.Second
	}

	return &cfg, nil
}
