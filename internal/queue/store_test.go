package queue_test

import (
	"context"
	"testing"

	"dubber/internal/queue"
	"dubber/internal/testsupport"
)

func newStore(t *testing.T) *queue.Store {
	t.Helper()
	return testsupport.MustOpenStore(t, testsupport.NewConfig(t))
}

func TestNewJobStartsUploaded(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	job, err := store.NewJob(ctx, "/videos/My_Talk.mp4", "en", "es", "es_ES-voice")
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	if job.Status != queue.StatusUploaded {
		t.Fatalf("status = %s", job.Status)
	}
	if job.Step != "" {
		t.Fatalf("step should be empty before processing: %q", job.Step)
	}
	if job.Title != "My Talk" {
		t.Fatalf("title = %q", job.Title)
	}
	if job.CreatedAt.IsZero() || job.UpdatedAt.IsZero() {
		t.Fatal("timestamps not set")
	}
}

func TestLifecycleTransitions(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	job, err := store.NewJob(ctx, "/videos/talk.mp4", "en", "es", "v")
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	if err := store.MarkProcessing(ctx, job, "run-123"); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	if job.Status != queue.StatusProcessing || job.Step != queue.StepAudioExtraction {
		t.Fatalf("after mark: %s / %s", job.Status, job.Step)
	}
	if job.RunID != "run-123" {
		t.Fatalf("run id = %q", job.RunID)
	}

	// Walk every step; the final advance completes the job.
	for i := 0; i < len(queue.StepOrder)-1; i++ {
		if err := store.AdvanceStep(ctx, job); err != nil {
			t.Fatalf("AdvanceStep %d: %v", i, err)
		}
	}
	if job.Status != queue.StatusCompleted || job.Step != queue.StepCompleted {
		t.Fatalf("after full walk: %s / %s", job.Status, job.Step)
	}

	stamps := job.StepTimestamps()
	for _, step := range queue.StepOrder[:len(queue.StepOrder)-1] {
		if _, ok := stamps[step]; !ok {
			t.Fatalf("missing completion timestamp for %s", step)
		}
	}

	// Persisted state matches in-memory state.
	reloaded, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if reloaded.Status != queue.StatusCompleted {
		t.Fatalf("persisted status = %s", reloaded.Status)
	}
}

func TestMarkProcessingRejectsWrongStatus(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	job, _ := store.NewJob(ctx, "/videos/a.mp4", "en", "es", "v")
	if err := store.MarkProcessing(ctx, job, "run-1"); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	if err := store.MarkProcessing(ctx, job, "run-2"); err == nil {
		t.Fatal("second MarkProcessing must fail")
	}
}

func TestSetFailedFreezesStepAndAppendsError(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	job, _ := store.NewJob(ctx, "/videos/a.mp4", "en", "es", "v")
	_ = store.MarkProcessing(ctx, job, "run-1")
	_ = store.AdvanceStep(ctx, job) // now at transcription

	if err := store.SetFailed(ctx, job, "engine exploded"); err != nil {
		t.Fatalf("SetFailed: %v", err)
	}
	reloaded, _ := store.GetByID(ctx, job.ID)
	if reloaded.Status != queue.StatusFailed {
		t.Fatalf("status = %s", reloaded.Status)
	}
	if reloaded.Step != queue.StepTranscription {
		t.Fatalf("step must stay frozen at the failure point: %s", reloaded.Step)
	}
	if errs := reloaded.Errors(); len(errs) != 1 || errs[0] != "engine exploded" {
		t.Fatalf("error log = %v", errs)
	}

	// A second failure appends, never overwrites.
	if err := store.SetFailed(ctx, reloaded, "still broken"); err != nil {
		t.Fatalf("SetFailed: %v", err)
	}
	final, _ := store.GetByID(ctx, job.ID)
	if errs := final.Errors(); len(errs) != 2 || errs[0] != "engine exploded" {
		t.Fatalf("error log not append-only: %v", errs)
	}
}

func TestRetryFailedReturnsToUploaded(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	job, _ := store.NewJob(ctx, "/videos/a.mp4", "en", "es", "v")
	_ = store.MarkProcessing(ctx, job, "run-1")
	_ = store.SetFailed(ctx, job, "boom")

	retried, err := store.RetryFailed(ctx, job.ID)
	if err != nil {
		t.Fatalf("RetryFailed: %v", err)
	}
	if retried.Status != queue.StatusUploaded || retried.Step != "" {
		t.Fatalf("after retry: %s / %q", retried.Status, retried.Step)
	}
	if len(retried.Errors()) != 1 {
		t.Fatal("retry must preserve the error log")
	}

	if _, err := store.RetryFailed(ctx, job.ID); err == nil {
		t.Fatal("retry of a non-failed job must error")
	}
}

func TestListFiltersAndOrders(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	a, _ := store.NewJob(ctx, "/videos/a.mp4", "en", "es", "v")
	b, _ := store.NewJob(ctx, "/videos/b.mp4", "en", "es", "v")
	_ = store.MarkProcessing(ctx, b, "run-1")
	_ = store.SetFailed(ctx, b, "boom")

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 || all[0].ID != a.ID {
		t.Fatalf("all jobs = %v", all)
	}

	failed, err := store.List(ctx, queue.StatusFailed)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(failed) != 1 || failed[0].ID != b.ID {
		t.Fatalf("failed jobs = %v", failed)
	}
}

func TestNextUploadedSkipsTerminalJobs(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	a, _ := store.NewJob(ctx, "/videos/a.mp4", "en", "es", "v")
	_ = store.MarkProcessing(ctx, a, "run-1")
	b, _ := store.NewJob(ctx, "/videos/b.mp4", "en", "es", "v")

	next, err := store.NextUploaded(ctx)
	if err != nil {
		t.Fatalf("NextUploaded: %v", err)
	}
	if next == nil || next.ID != b.ID {
		t.Fatalf("next = %v", next)
	}
}

func TestClearAndStats(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	_, _ = store.NewJob(ctx, "/videos/a.mp4", "en", "es", "v")
	b, _ := store.NewJob(ctx, "/videos/b.mp4", "en", "es", "v")
	_ = store.MarkProcessing(ctx, b, "run-1")
	_ = store.SetFailed(ctx, b, "boom")

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 2 || stats.Uploaded != 1 || stats.Failed != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	removed, err := store.ClearFailed(ctx)
	if err != nil || removed != 1 {
		t.Fatalf("ClearFailed = %d, %v", removed, err)
	}
	remaining, _ := store.List(ctx)
	if len(remaining) != 1 {
		t.Fatalf("remaining = %d", len(remaining))
	}
}

func TestFailProcessingOnShutdown(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	a, _ := store.NewJob(ctx, "/videos/a.mp4", "en", "es", "v")
	_ = store.MarkProcessing(ctx, a, "run-1")
	_, _ = store.NewJob(ctx, "/videos/b.mp4", "en", "es", "v")

	failed, err := store.FailProcessing(ctx, queue.ShutdownStopReason)
	if err != nil {
		t.Fatalf("FailProcessing: %v", err)
	}
	if failed != 1 {
		t.Fatalf("failed = %d", failed)
	}
	reloaded, _ := store.GetByID(ctx, a.ID)
	if reloaded.Status != queue.StatusFailed {
		t.Fatalf("status = %s", reloaded.Status)
	}
}
