package stageexec

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"dubber/internal/logging"
	"dubber/internal/queue"
	"dubber/internal/services"
	"dubber/internal/stage"
)

// Handler is the stage contract used by the execution helper.
type Handler interface {
	Prepare(context.Context, *queue.Job) error
	Execute(context.Context, *queue.Job) error
}

// Options controls stage execution and job persistence behavior.
type Options struct {
	Logger    *slog.Logger
	Store     *queue.Store
	Handler   Handler
	StageName string
	Step      queue.Step
	Job       *queue.Job
}

// Run executes one pipeline stage with the persistence discipline every
// stage shares: the step marker is written before work starts, intermediate
// state after Prepare, and either the advanced step or the frozen failure
// afterwards. A stage failure is persisted and then propagated.
func Run(ctx context.Context, opts Options) error {
	if opts.Handler == nil {
		return fmt.Errorf("stage handler unavailable: %s", opts.StageName)
	}
	if opts.Store == nil {
		return fmt.Errorf("job store is required")
	}
	if opts.Job == nil {
		return fmt.Errorf("job is required")
	}

	stageCtx := services.WithStage(ctx, opts.StageName)
	stageLogger := logging.WithContext(stageCtx, opts.Logger)
	if aware, ok := opts.Handler.(stage.LoggerAware); ok {
		aware.SetLogger(stageLogger)
	}

	stageLogger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("step", string(opts.Step)),
		logging.String("title", strings.TrimSpace(opts.Job.Title)),
		logging.String("source_file", strings.TrimSpace(opts.Job.SourcePath)),
	)

	setJobProcessingState(opts.Job, opts.Step)
	if err := opts.Store.Update(stageCtx, opts.Job); err != nil {
		return fmt.Errorf("persist processing transition: %w", err)
	}

	if err := opts.Handler.Prepare(stageCtx, opts.Job); err != nil {
		return handleFailure(stageCtx, stageLogger, opts.Store, opts.Job, err)
	}
	if err := opts.Store.Update(stageCtx, opts.Job); err != nil {
		return fmt.Errorf("persist stage preparation: %w", err)
	}

	if err := opts.Handler.Execute(stageCtx, opts.Job); err != nil {
		return handleFailure(stageCtx, stageLogger, opts.Store, opts.Job, err)
	}

	if err := opts.Store.AdvanceStep(stageCtx, opts.Job); err != nil {
		return fmt.Errorf("persist stage result: %w", err)
	}

	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_step", string(opts.Job.Step)),
		logging.String("progress_stage", strings.TrimSpace(opts.Job.ProgressStage)),
		logging.String("progress_message", strings.TrimSpace(opts.Job.ProgressMessage)),
	)

	return nil
}

func handleFailure(ctx context.Context, logger *slog.Logger, store *queue.Store, job *queue.Job, stageErr error) error {
	message := "stage failed"
	if stageErr != nil {
		if m := strings.TrimSpace(services.Message(stageErr)); m != "" {
			message = m
		}
	}

	logger.Error(
		"stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String("step", string(job.Step)),
		logging.String("error_message", message),
		logging.Error(stageErr),
	)
	if err := store.SetFailed(ctx, job, message); err != nil {
		logger.Error("failed to persist stage failure", logging.Error(err))
	}

	return stageErr
}

func setJobProcessingState(job *queue.Job, step queue.Step) {
	job.Status = queue.StatusProcessing
	job.Step = step
	job.ProgressStage = deriveStageLabel(step)
	job.ProgressMessage = fmt.Sprintf("%s started", deriveStageLabel(step))
	job.ProgressPercent = stepProgress(step)
	job.UpdatedAt = time.Now().UTC()
}

// stepProgress maps a step to the coarse completion percentage shown in
// status listings.
func stepProgress(step queue.Step) float64 {
	for i, s := range queue.StepOrder {
		if s == step {
			return float64(i) / float64(len(queue.StepOrder)-1) * 100
		}
	}
	return 0
}

func deriveStageLabel(step queue.Step) string {
	if step == "" {
		return ""
	}
	parts := strings.Fields(strings.ReplaceAll(string(step), "_", " "))
	for i, part := range parts {
		if part == "" {
			continue
		}
		runes := []rune(strings.ToLower(part))
		runes[0] = unicode.ToUpper(runes[0])
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}
