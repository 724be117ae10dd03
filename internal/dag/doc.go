// Package dag validates the dependency graph of a pipeline definition and
// fixes the order its components are rendered in. Scheduling and execution
// of the graph happen on the remote service; this package only guarantees
// the submitted definition is well formed.
package dag
