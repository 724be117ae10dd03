// Package config defines the format-agnostic model of a pipeline
// definition. Loaders (such as the HCL loader in internal/hclcfg) translate
// their source format into this model, and the rest of the application
// consumes only this package.
package config
