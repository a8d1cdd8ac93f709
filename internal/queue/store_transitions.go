package queue

import (
	"context"
	"fmt"
	"time"
)

// MarkProcessing moves an uploaded job into processing at the first step and
// stamps it with the run correlation id.
func (s *Store) MarkProcessing(ctx context.Context, job *Job, runID string) error {
	if job.Status != StatusUploaded {
		return fmt.Errorf("mark processing: job %d is %s, not %s", job.ID, job.Status, StatusUploaded)
	}
	job.Status = StatusProcessing
	job.Step = StepAudioExtraction
	job.RunID = runID
	return s.Update(ctx, job)
}

// AdvanceStep records the current step's completion time and moves the job
// to the next step. Reaching the final step marks the job completed.
func (s *Store) AdvanceStep(ctx context.Context, job *Job) error {
	if job.Status != StatusProcessing {
		return fmt.Errorf("advance step: job %d is %s, not %s", job.ID, job.Status, StatusProcessing)
	}
	job.RecordStepCompleted(job.Step, time.Now())
	next, err := nextStep(job.Step)
	if err != nil {
		return fmt.Errorf("advance step: job %d: %w", job.ID, err)
	}
	job.Step = next
	if next == StepCompleted {
		job.Status = StatusCompleted
	}
	return s.Update(ctx, job)
}

// SetFailed freezes the job at its current step with the failure appended to
// the error log.
func (s *Store) SetFailed(ctx context.Context, job *Job, message string) error {
	job.Status = StatusFailed
	job.AppendError(message)
	return s.Update(ctx, job)
}

// RetryFailed returns a failed job to uploaded so the pipeline picks it up
// again from the start. The error log is preserved.
func (s *Store) RetryFailed(ctx context.Context, id int64) (*Job, error) {
	job, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("retry: job %d not found", id)
	}
	if job.Status != StatusFailed {
		return nil, fmt.Errorf("retry: job %d is %s, not %s", id, job.Status, StatusFailed)
	}
	job.Status = StatusUploaded
	job.Step = ""
	job.ProgressStage = ""
	job.ProgressPercent = 0
	job.ProgressMessage = ""
	if err := s.Update(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// FailProcessing marks every in-flight job failed with the given reason.
// Used on shutdown so no job is left claiming to be processing.
func (s *Store) FailProcessing(ctx context.Context, reason string) (int64, error) {
	jobs, err := s.List(ctx, StatusProcessing)
	if err != nil {
		return 0, err
	}
	var failed int64
	for _, job := range jobs {
		if err := s.SetFailed(ctx, job, reason); err != nil {
			return failed, err
		}
		failed++
	}
	return failed, nil
}

func nextStep(current Step) (Step, error) {
	for i, step := range StepOrder {
		if step == current {
			if i == len(StepOrder)-1 {
				return current, fmt.Errorf("step %s has no successor", current)
			}
			return StepOrder[i+1], nil
		}
	}
	return current, fmt.Errorf("unknown step %q", current)
}
