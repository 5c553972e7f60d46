// Package logging provides slog-based logger construction and shared
// attribute helpers. The console format renders compact single-line output
// for interactive use; the json format is intended for log files and
// machine consumption. Both can write to stdout/stderr and a log file
// simultaneously.
package logging
