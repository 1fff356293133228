// Package assets maintains the content-addressed identity registry for media
// files. An asset id is the sha256 digest of the file bytes, which makes ids
// stable across renames and lets the clip store reference files without
// embedding absolute paths. The Registry doubles as the selector's asset-path
// resolver.
package assets
