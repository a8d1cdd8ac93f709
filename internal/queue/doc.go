// Package queue persists dubbing jobs in SQLite.
//
// A job moves through uploaded, processing, and a terminal completed or
// failed status; while processing, the step column records which pipeline
// stage is underway so a crash leaves an accurate diagnostic marker.
package queue
