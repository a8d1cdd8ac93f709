// Package logging wires log/slog with the handlers and field conventions used
// throughout dubber.
//
// Two output formats are supported: a console handler producing aligned
// key=value lines with a component prefix, and a JSON handler for machine
// consumption. Standardized field keys (job_id, stage, correlation_id) are
// derived from context so stage and collaborator logs line up in one stream.
package logging
