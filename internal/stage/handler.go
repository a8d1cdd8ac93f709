package stage

import (
	"context"
	"log/slog"

	"dubber/internal/queue"
)

// Handler describes the contract the pipeline needs from each stage.
type Handler interface {
	Prepare(context.Context, *queue.Job) error
	Execute(context.Context, *queue.Job) error
	HealthCheck(context.Context) Health
}

// LoggerAware lets the executor hand a stage-scoped logger to a handler.
type LoggerAware interface {
	SetLogger(*slog.Logger)
}
