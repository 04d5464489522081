// Package logging configures slog for the CLI and the assembly engine.
//
// It provides a console handler for interactive use, a JSON handler for
// machine consumption, attribute helpers, and the standardized field keys the
// writer uses so drain and digest diagnostics stay grep-able.
package logging
