// Package main hosts the vignette CLI entrypoint and command graph.
//
// The Cobra-based command tree surfaces library syncing, clip selection,
// one-shot analysis, package and clip inspection, filesystem watching, and
// configuration scaffolding. It centralizes configuration resolution, store
// wiring, and structured logging setup so subcommands can focus on user
// experience instead of plumbing.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
