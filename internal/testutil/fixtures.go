package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteFiles writes the given relative-path/content pairs under a fresh
// temporary directory and returns the directory's path.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

// StubCompiler writes an executable shell script that mimics the external
// compiler by copying its --definition input to its --output path. It
// returns the script's path.
func StubCompiler(t *testing.T) string {
	t.Helper()

	const script = `#!/bin/sh
in=""
out=""
while [ $# -gt 0 ]; do
  case "$1" in
    --definition) in="$2"; shift 2 ;;
    --output) out="$2"; shift 2 ;;
    *) shift ;;
  esac
done
if [ -z "$in" ] || [ -z "$out" ]; then
  echo "missing --definition or --output" >&2
  exit 2
fi
cp "$in" "$out"
`
	path := filepath.Join(t.TempDir(), "pipelinec")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

// FailingCompiler writes an executable shell script that always fails with
// the given stderr message. It returns the script's path.
func FailingCompiler(t *testing.T, message string) string {
	t.Helper()

	script := "#!/bin/sh\necho \"" + message + "\" >&2\nexit 1\n"
	path := filepath.Join(t.TempDir(), "pipelinec")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

// ValidDefinition is a complete four-component pipeline definition used by
// tests across packages.
const ValidDefinition = `
pipeline "abalone-automl" {
  labels = {
    team = "ml-platform"
  }

  component "tabular_dataset" "dataset" {
    arguments {
      display_name = "abalone"
      gcs_source   = "gs://example-data/abalone.csv"
    }
  }

  component "automl_training" "training" {
    arguments {
      display_name  = "abalone-automl"
      dataset       = "component.dataset.dataset"
      target_column = "rings"
    }
  }

  component "endpoint" "endpoint" {
    arguments {
      display_name = "abalone-endpoint"
    }
  }

  component "model_deploy" "deploy" {
    arguments {
      model        = "component.training.model"
      endpoint     = "component.endpoint.endpoint"
      machine_type = "n1-standard-4"
    }
  }
}
`
