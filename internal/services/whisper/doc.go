// Package whisper wraps a whisper-style speech recognition CLI.
//
// The engine writes a JSON transcript next to its input; this package runs
// it, loads the timed segments, and normalizes them into the pipeline's
// segment model.
package whisper
