// Package logging builds the slog loggers used across adforge.
//
// Console output favors a compact single-line format for interactive use;
// JSON output targets log shipping. Attr helpers keep structured keys
// consistent between the CLI, the watcher, and the API client.
package logging
