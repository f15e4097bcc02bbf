// Package logging assembles structured slog loggers and formatting helpers used
// across the recap pipeline.
//
// It owns the console (tint on a terminal, key=value otherwise) and JSON
// handlers, centralizes level and output plumbing, and exposes context-aware
// helpers so stage code can tag log lines with the run ID, stage, page, and
// speech engine. Progress reports periodic per-page and per-scene lines and,
// on a terminal, a progress bar.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape.
package logging
