// Package services defines shared utilities consumed by the ingest pipeline
// and the selection runtime.
//
// Key responsibilities:
//   - Context helpers that stamp package UUIDs, intent names, asset IDs, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper so failures surface with a
//     consistent classification (validation vs external tool vs transient).
//
// Use these helpers when wiring new components so operational behaviour (error
// handling, observability) stays uniform across the pipeline.
package services
