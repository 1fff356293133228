// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// This package has no vignette-specific dependencies and could be extracted
// as a standalone library.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual stream properties including frame rate and count
//   - Format: container-level metadata
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns parsed Result
//
// Helper methods on Result and Stream handle the awkward parts of ffprobe
// output: rational frame rates, stringly-typed counts, and containers that
// omit nb_frames.
package ffprobe
