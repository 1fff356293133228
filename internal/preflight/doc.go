// Package preflight provides readiness checks for the external tools, model
// files, and directories vignette depends on.
//
// The CLI "vignette deps" command runs RunAll to display environment health
// before an operator kicks off a library sync. Optional capabilities such as
// the face cascade are only checked when configured -- an unconfigured model
// is a deliberate choice, not a failure.
package preflight
