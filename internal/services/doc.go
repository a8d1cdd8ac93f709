// Package services defines the shared error taxonomy and context annotation
// helpers used across external collaborator wrappers and pipeline stages.
//
// Errors raised by collaborators are tagged with one of the exported sentinel
// errors so the orchestrator and CLI can classify failures without string
// matching. Context helpers carry the job identifier, stage name, and run
// correlation ID down through collaborator calls for structured logging.
package services
