// Package logging provides structured logging for Spritewire.
//
// It wraps log/slog with service-wide defaults: configurable level,
// JSON or text output, and service/version attributes on every record.
// Components receive a *Logger (or a package-local Logger interface) by
// injection; nothing in the application logs through a global.
package logging
