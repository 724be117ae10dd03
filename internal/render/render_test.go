package render_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"automlflow/internal/components"
	"automlflow/internal/config"
	"automlflow/internal/dag"
	"automlflow/internal/render"
)

func buildFixture(t *testing.T) (*config.Pipeline, *dag.Graph, *components.Catalog) {
	t.Helper()

	pipeline := &config.Pipeline{
		Name:   "abalone-automl",
		Labels: map[string]string{"team": "ml-platform"},
		Components: []*config.Component{
			{
				Kind: "tabular_dataset",
				Name: "dataset",
				Arguments: map[string]cty.Value{
					"display_name": cty.StringVal("abalone"),
					"gcs_source":   cty.StringVal("gs://example/abalone.csv"),
				},
			},
			{
				Kind: "automl_training",
				Name: "training",
				Arguments: map[string]cty.Value{
					"display_name":  cty.StringVal("abalone-automl"),
					"dataset":       cty.StringVal("component.dataset.dataset"),
					"target_column": cty.StringVal("rings"),
				},
			},
			{
				Kind: "endpoint",
				Name: "endpoint",
				Arguments: map[string]cty.Value{
					"display_name": cty.StringVal("abalone-endpoint"),
				},
			},
			{
				Kind: "model_deploy",
				Name: "deploy",
				Arguments: map[string]cty.Value{
					"model":    cty.StringVal("component.training.model"),
					"endpoint": cty.StringVal("component.endpoint.endpoint"),
				},
			},
		},
	}

	catalog := components.NewCatalog()
	g, err := dag.Build(context.Background(), pipeline, catalog)
	require.NoError(t, err)
	return pipeline, g, catalog
}

func TestRender(t *testing.T) {
	t.Parallel()

	pipeline, g, catalog := buildFixture(t)
	doc, err := render.Render(context.Background(), pipeline, g, catalog)
	require.NoError(t, err)

	require.Equal(t, render.SchemaVersion, doc.SchemaVersion)
	require.Equal(t, "abalone-automl", doc.Pipeline)
	require.Equal(t, map[string]string{"team": "ml-platform"}, doc.Labels)

	names := make([]string, 0, len(doc.Tasks))
	for _, task := range doc.Tasks {
		names = append(names, task.Name)
	}
	require.Equal(t, []string{"dataset", "endpoint", "training", "deploy"}, names)

	deploy := doc.Tasks[3]
	require.Equal(t, "model_deploy", deploy.Kind)
	require.Equal(t, []string{"endpoint", "training"}, deploy.DependsOn)
	// Defaults from the catalog are materialized into the document.
	require.Equal(t, "n1-standard-4", deploy.Arguments["machine_type"])
	require.Equal(t, int64(1), deploy.Arguments["min_replica_count"])

	training := doc.Tasks[2]
	require.Equal(t, "regression", training.Arguments["optimization_prediction_type"])
	require.Equal(t, int64(1000), training.Arguments["budget_milli_node_hours"])
	require.Equal(t, "component.dataset.dataset", training.Arguments["dataset"])
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	pipeline, g, catalog := buildFixture(t)
	doc, err := render.Render(context.Background(), pipeline, g, catalog)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "pipeline.definition.json")
	require.NoError(t, render.WriteFile(doc, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded render.Document
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, doc.Pipeline, decoded.Pipeline)
	require.Len(t, decoded.Tasks, 4)
}
