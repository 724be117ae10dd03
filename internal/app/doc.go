// Package app owns the application lifecycle: it validates the runtime
// configuration, loads the pipeline definition, and drives the
// render-compile-upload-submit sequence.
package app
