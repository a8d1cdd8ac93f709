// Package preflight verifies the environment before the pipeline runs:
// directory access, external binaries, disk headroom, and the translation
// API.
package preflight
