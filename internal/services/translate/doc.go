// Package translate converts recognized segment text into the target
// language through a chat-completion API.
//
// Segments are translated in delimited batches to keep request counts low.
// A per-client rate limiter paces requests; transient HTTP failures are
// retried with exponential backoff.
package translate
