// Package components is the catalog of pre-built managed component kinds a
// pipeline definition may instantiate. Each kind wraps a remote service
// operation; the catalog only knows the kind's argument and output
// contract, never its implementation.
package components
