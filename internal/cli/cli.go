package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"automlflow/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("automlflow", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
automlflow - assembles and submits a managed AutoML training-and-deployment pipeline.

Usage:
  automlflow [options] [DEFINITION_PATH]

Arguments:
  DEFINITION_PATH
    Path to a single .hcl definition file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	definitionFlag := flagSet.String("definition", "", "Path to the pipeline definition file or directory.")
	dFlag := flagSet.String("d", "", "Path to the pipeline definition file or directory (shorthand).")
	projectFlag := flagSet.String("project", os.Getenv("GOOGLE_CLOUD_PROJECT"), "Project the run is submitted into. Defaults to GOOGLE_CLOUD_PROJECT.")
	regionFlag := flagSet.String("region", os.Getenv("GOOGLE_CLOUD_REGION"), "Region of the execution service. Defaults to GOOGLE_CLOUD_REGION.")
	pipelineRootFlag := flagSet.String("pipeline-root", os.Getenv("PIPELINE_ROOT"), "gs:// URI where run artifacts are stored. Defaults to PIPELINE_ROOT.")
	compilerFlag := flagSet.String("compiler", "pipelinec", "External compiler binary invoked on the definition document.")
	definitionOutFlag := flagSet.String("definition-out", "", "Path the rendered definition document is written to. Defaults to <pipeline>.definition.json.")
	compiledOutFlag := flagSet.String("compiled-out", "", "Path the compiled workflow document is written to. Defaults to <pipeline>.workflow.json.")
	enableCachingFlag := flagSet.Bool("enable-caching", true, "Reuse cached results of unchanged pipeline steps.")
	waitFlag := flagSet.Bool("wait", false, "Poll the submitted run until it reaches a terminal state.")
	waitIntervalFlag := flagSet.Duration("wait-interval", 30*time.Second, "Polling interval used with --wait.")
	dryRunFlag := flagSet.Bool("dry-run", false, "Render and compile only; skip bucket checks and submission.")
	historyDBFlag := flagSet.String("history-db", "automlflow.db", "Path of the local submission-history database. Empty disables history.")
	serviceEndpointFlag := flagSet.String("service-endpoint", "", "Override the execution service base URL.")
	storageEndpointFlag := flagSet.String("storage-endpoint", "", "Override the storage service base URL.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *definitionFlag != "" {
		path = *definitionFlag
	} else if *dFlag != "" {
		path = *dFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Definition path determined.", "path", path)

	if path == "" {
		slog.Debug("No definition path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		DefinitionPath:  path,
		Project:         *projectFlag,
		Region:          *regionFlag,
		PipelineRoot:    *pipelineRootFlag,
		CompilerBinary:  *compilerFlag,
		DefinitionOut:   *definitionOutFlag,
		CompiledOut:     *compiledOutFlag,
		EnableCaching:   *enableCachingFlag,
		Wait:            *waitFlag,
		WaitInterval:    *waitIntervalFlag,
		DryRun:          *dryRunFlag,
		HistoryDB:       *historyDBFlag,
		ServiceEndpoint: *serviceEndpointFlag,
		StorageEndpoint: *storageEndpointFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
	})

	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.")
	return config, false, nil
}
