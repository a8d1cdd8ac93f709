// Package ffprobe wraps the ffprobe binary for media inspection.
//
// The pipeline leans on one number from it: container duration in seconds.
// Inspect returns the full parsed payload for callers that need stream
// counts; Duration is the convenience most call sites use.
package ffprobe
