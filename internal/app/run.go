package app

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"automlflow/internal/auth"
	"automlflow/internal/compiler"
	"automlflow/internal/ctxlog"
	"automlflow/internal/gcs"
	"automlflow/internal/history"
	"automlflow/internal/pipelines"
	"automlflow/internal/render"
)

// Run executes the main application logic: render the definition document,
// compile it with the external compiler, ensure the artifact bucket,
// upload the compiled document, and start a run on the execution service.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	doc, err := render.Render(ctx, a.pipeline, a.graph, a.catalog)
	if err != nil {
		return fmt.Errorf("failed to render pipeline definition: %w", err)
	}

	definitionPath := a.cfg.DefinitionOut
	if definitionPath == "" {
		definitionPath = a.pipeline.Name + ".definition.json"
	}
	if err := render.WriteFile(doc, definitionPath); err != nil {
		return err
	}
	a.logger.Info("Definition document written.", "path", definitionPath)

	compiledPath := a.cfg.CompiledOut
	if compiledPath == "" {
		compiledPath = a.pipeline.Name + ".workflow.json"
	}
	comp := compiler.New(a.cfg.CompilerBinary)
	if err := comp.Compile(ctx, definitionPath, compiledPath); err != nil {
		return err
	}

	if a.cfg.DryRun {
		a.logger.Info("Dry run requested, skipping submission.", "compiled", compiledPath)
		fmt.Fprintf(a.outW, "Dry run complete. Compiled workflow written to %s\n", compiledPath)
		return nil
	}

	return a.submit(ctx, compiledPath)
}

// submit uploads the compiled workflow document and starts a run.
func (a *App) submit(ctx context.Context, compiledPath string) error {
	token, err := auth.AccessToken(ctx)
	if err != nil {
		return err
	}

	bucket, prefix, err := gcs.ParseURI(a.cfg.PipelineRoot)
	if err != nil {
		return fmt.Errorf("invalid pipeline root: %w", err)
	}

	storage := gcs.NewClient(a.cfg.StorageEndpoint, token)
	defer storage.Close()

	if err := storage.EnsureBucket(ctx, a.cfg.Project, bucket, a.cfg.Region); err != nil {
		return err
	}

	jobID := newJobID(a.pipeline.Name)
	object := path.Join(prefix, "compiled", jobID+".json")
	templateURI, err := storage.UploadObject(ctx, bucket, object, compiledPath)
	if err != nil {
		return err
	}

	service := pipelines.NewClient(a.cfg.ServiceEndpoint, a.cfg.Project, a.cfg.Region, token)
	defer service.Close()

	job, err := service.CreateJob(ctx, jobID, &pipelines.CreateJobRequest{
		DisplayName: a.pipeline.Name,
		TemplateURI: templateURI,
		Labels:      a.pipeline.Labels,
		RuntimeConfig: pipelines.RuntimeConfig{
			GCSOutputDirectory: a.cfg.PipelineRoot,
		},
		EnableCaching: a.cfg.EnableCaching,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.outW, "Submitted pipeline run %s (state %s)\n", job.Name, job.State)

	runID := a.recordRun(job, templateURI)

	if !a.cfg.Wait {
		return nil
	}

	a.logger.Info("Waiting for pipeline run to complete.", "name", job.Name, "interval", a.cfg.WaitInterval)
	final, waitErr := service.WaitForCompletion(ctx, job.Name, a.cfg.WaitInterval)
	if final != nil {
		a.updateRunState(runID, final.State)
		fmt.Fprintf(a.outW, "Pipeline run %s finished in state %s\n", final.Name, final.State)
	}
	return waitErr
}

// recordRun stores the submission in the local history database. History is
// best-effort and must never fail a successful submission.
func (a *App) recordRun(job *pipelines.Job, templateURI string) string {
	if a.cfg.HistoryDB == "" {
		return ""
	}

	store, err := history.Open(a.cfg.HistoryDB)
	if err != nil {
		a.logger.Warn("Unable to open submission history.", "path", a.cfg.HistoryDB, "error", err)
		return ""
	}
	defer store.Close()

	id, err := store.RecordRun(a.pipeline.Name, job.Name, templateURI, job.State)
	if err != nil {
		a.logger.Warn("Unable to record submission in history.", "error", err)
		return ""
	}
	return id
}

func (a *App) updateRunState(runID, state string) {
	if runID == "" || a.cfg.HistoryDB == "" {
		return
	}

	store, err := history.Open(a.cfg.HistoryDB)
	if err != nil {
		a.logger.Warn("Unable to open submission history.", "path", a.cfg.HistoryDB, "error", err)
		return
	}
	defer store.Close()

	if err := store.UpdateState(runID, state); err != nil {
		a.logger.Warn("Unable to update submission history.", "error", err)
	}
}

// invalidJobIDChars matches everything the service rejects in a job ID.
var invalidJobIDChars = regexp.MustCompile(`[^a-z0-9-]+`)

// newJobID derives a service-acceptable job ID from the pipeline name plus
// a timestamp, so repeated submissions stay distinguishable.
func newJobID(pipelineName string) string {
	id := invalidJobIDChars.ReplaceAllString(strings.ToLower(pipelineName), "-")
	id = strings.Trim(id, "-")
	if id == "" {
		id = "pipeline"
	}
	return fmt.Sprintf("%s-%d", id, time.Now().Unix())
}
