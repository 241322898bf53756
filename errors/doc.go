// Package errors provides the structured error type shared by the HTTP layer
// and the processing pipeline. Every AppError carries a machine-readable code,
// an HTTP status and retryable detection; stage failures additionally carry
// the step that failed.
package errors
