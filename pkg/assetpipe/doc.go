// Package assetpipe implements a small static-asset pipeline for CSS: every source file is minified
// into the destination directory, the minified files are concatenated into one combined file and a
// generated banner comment is prepended to it. A watch mode re-runs the pipeline when sources change.
// The pipeline itself is described by a Starlark script (assets.star) or falls back to built-in defaults.
package assetpipe
