// Package cli parses command-line arguments and the ambient environment
// into a validated application configuration.
package cli
