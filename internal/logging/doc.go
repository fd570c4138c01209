// Package logging assembles the slog loggers used across dupscan.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and provides attribute helpers plus a no-op logger for tests and
// wiring code that cannot fail. Components tag their logger with a
// "component" attribute via NewComponentLogger; the console handler renders
// it as a prefix.
package logging
