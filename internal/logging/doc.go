// Package logging builds slog loggers with console and JSON handlers and
// provides the attribute helpers used throughout the pipeline.
package logging
