package config

import "context"

// Loader abstracts the source format of a pipeline definition. The concrete
// implementation lives in internal/hclcfg; tests may substitute their own.
type Loader interface {
	// Load parses the definition at the given path (a file or a directory)
	// and translates it into the agnostic model. Exactly one pipeline must
	// be defined across all discovered files.
	Load(ctx context.Context, path string) (*Pipeline, error)
}
