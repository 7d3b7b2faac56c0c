// Package types defines the digital-object entities, the storage Backend and
// Codec interfaces, configuration, and the standard error types for the
// dorepo persistence layer.
package types
