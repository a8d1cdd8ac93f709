package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"dubber/internal/pipeline"
	"dubber/internal/queue"
	"dubber/internal/stage"
	"dubber/internal/testsupport"
)

type recordingHandler struct {
	name     string
	trail    *[]string
	failWith error
}

func (h *recordingHandler) Prepare(ctx context.Context, job *queue.Job) error {
	return nil
}

func (h *recordingHandler) Execute(ctx context.Context, job *queue.Job) error {
	*h.trail = append(*h.trail, h.name)
	return h.failWith
}

func (h *recordingHandler) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy(h.name)
}

func stubStages(trail *[]string, failures map[queue.Step]error) map[queue.Step]stage.Handler {
	handlers := make(map[queue.Step]stage.Handler)
	for _, step := range queue.StepOrder[:len(queue.StepOrder)-1] {
		handlers[step] = &recordingHandler{name: string(step), trail: trail, failWith: failures[step]}
	}
	return handlers
}

func TestProcessRunsEveryStageInOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	job := testsupport.NewJob(t, store, "/videos/a.mp4")

	var trail []string
	orch := pipeline.New(cfg, store, nil)
	orch.SetStages(stubStages(&trail, nil))

	if err := orch.Process(context.Background(), job); err != nil {
		t.Fatalf("Process: %v", err)
	}

	want := []string{
		"audio_extraction", "transcription", "translation",
		"tts_generation", "caption_generation", "video_assembly",
	}
	if len(trail) != len(want) {
		t.Fatalf("trail = %v", trail)
	}
	for i := range want {
		if trail[i] != want[i] {
			t.Fatalf("stage %d = %s, want %s", i, trail[i], want[i])
		}
	}

	persisted, _ := store.GetByID(context.Background(), job.ID)
	if persisted.Status != queue.StatusCompleted || persisted.Step != queue.StepCompleted {
		t.Fatalf("final state = %s / %s", persisted.Status, persisted.Step)
	}
	if persisted.RunID == "" {
		t.Fatal("run id not recorded")
	}
}

func TestProcessStopsAtFailingStage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	job := testsupport.NewJob(t, store, "/videos/a.mp4")

	var trail []string
	bang := errors.New("tts exploded")
	orch := pipeline.New(cfg, store, nil)
	orch.SetStages(stubStages(&trail, map[queue.Step]error{queue.StepTTSGeneration: bang}))

	err := orch.Process(context.Background(), job)
	if !errors.Is(err, bang) {
		t.Fatalf("failure not propagated: %v", err)
	}
	if len(trail) != 4 {
		t.Fatalf("stages after the failure must not run: %v", trail)
	}

	persisted, _ := store.GetByID(context.Background(), job.ID)
	if persisted.Status != queue.StatusFailed {
		t.Fatalf("status = %s", persisted.Status)
	}
	if persisted.Step != queue.StepTTSGeneration {
		t.Fatalf("step frozen at %s, want tts_generation", persisted.Step)
	}
	if len(persisted.Errors()) == 0 {
		t.Fatal("error log empty")
	}
}

func TestDrainContinuesPastFailedJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	bad := testsupport.NewJob(t, store, "/videos/bad.mp4")
	good := testsupport.NewJob(t, store, "/videos/good.mp4")

	var trail []string
	orch := pipeline.New(cfg, store, nil)
	// The first processed job fails at transcription; the second succeeds
	// because the stub consults job state, not global state.
	failing := &selectiveHandler{failJobID: bad.ID, trail: &trail}
	handlers := stubStages(&trail, nil)
	handlers[queue.StepTranscription] = failing
	orch.SetStages(handlers)

	processed, failed, err := orch.Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if processed != 2 || failed != 1 {
		t.Fatalf("processed=%d failed=%d", processed, failed)
	}

	badJob, _ := store.GetByID(context.Background(), bad.ID)
	goodJob, _ := store.GetByID(context.Background(), good.ID)
	if badJob.Status != queue.StatusFailed {
		t.Fatalf("bad job = %s", badJob.Status)
	}
	if goodJob.Status != queue.StatusCompleted {
		t.Fatalf("good job = %s", goodJob.Status)
	}
}

type selectiveHandler struct {
	failJobID int64
	trail     *[]string
}

func (h *selectiveHandler) Prepare(ctx context.Context, job *queue.Job) error { return nil }

func (h *selectiveHandler) Execute(ctx context.Context, job *queue.Job) error {
	*h.trail = append(*h.trail, "transcription")
	if job.ID == h.failJobID {
		return errors.New("no speech found")
	}
	return nil
}

func (h *selectiveHandler) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy("transcription")
}
