package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dubber/internal/media/ffmpeg"
	"dubber/internal/pipeline"
	"dubber/internal/queue"
	"dubber/internal/testsupport"
)

func writeProbeStub(t *testing.T, duration string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffprobe")
	script := "#!/bin/sh\necho '{\"format\": {\"duration\": \"" + duration + "\"}}'\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write ffprobe stub: %v", err)
	}
	return path
}

func TestAudioExtractorExecuteRecordsDurationAndTrack(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Media.TrackTimeout = 600
	cfg.Media.FFprobeBinary = writeProbeStub(t, "42.5")

	source := filepath.Join(t.TempDir(), "clip.mp4")
	testsupport.WriteFile(t, source, 64)

	media := ffmpeg.New("ffmpeg")
	var deadline time.Time
	var hasDeadline bool
	media.WithRunner(func(ctx context.Context, name string, args ...string) error {
		deadline, hasDeadline = ctx.Deadline()
		for i, arg := range args {
			if arg == "-i" && i+1 < len(args) && args[i+1] == source {
				return nil
			}
		}
		t.Fatalf("expected -i %s in args, got %v", source, args)
		return nil
	})

	handler := pipeline.NewAudioExtractor(cfg, media, nil)
	job := &queue.Job{ID: 7, SourcePath: source, Title: "Clip"}

	if err := handler.Prepare(context.Background(), job); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if job.VideoDuration != 42.5 {
		t.Fatalf("VideoDuration = %v, want 42.5", job.VideoDuration)
	}
	if job.AudioPath == "" {
		t.Fatal("AudioPath not recorded")
	}
	if !hasDeadline {
		t.Fatal("extraction ran without a deadline")
	}
	// A 600-second track timeout must leave minutes of headroom; anything
	// less means the configured seconds were applied in the wrong unit.
	if remaining := time.Until(deadline); remaining < time.Minute {
		t.Fatalf("track timeout too short: %v remaining", remaining)
	}
}

func TestAudioExtractorPrepareRejectsMissingSource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	handler := pipeline.NewAudioExtractor(cfg, ffmpeg.New("ffmpeg"), nil)
	job := &queue.Job{ID: 8, SourcePath: filepath.Join(t.TempDir(), "absent.mp4")}

	if err := handler.Prepare(context.Background(), job); err == nil {
		t.Fatal("expected error for missing source video")
	}
}
