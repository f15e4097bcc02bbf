// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// The pipeline uses it to measure the narration track before reconciling it
// against the visual duration, and to verify the final encode for the
// completion summary.
package ffprobe
