package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"dubber/internal/config"
	"dubber/internal/logging"
	"dubber/internal/queue"
	"dubber/internal/services"
	"dubber/internal/services/whisper"
	"dubber/internal/stage"
)

// Transcriber recognizes timed speech segments from the extracted audio.
type Transcriber struct {
	cfg *config.Config
	stt *whisper.Service
	log *slog.Logger
}

// NewTranscriber builds the transcription stage.
func NewTranscriber(cfg *config.Config, stt *whisper.Service, log *slog.Logger) *Transcriber {
	if log == nil {
		log = logging.NewNop()
	}
	return &Transcriber{cfg: cfg, stt: stt, log: log}
}

// SetLogger replaces the stage logger.
func (t *Transcriber) SetLogger(log *slog.Logger) {
	if log != nil {
		t.log = log
	}
}

// Prepare confirms the previous stage left an audio track behind.
func (t *Transcriber) Prepare(ctx context.Context, job *queue.Job) error {
	if job.AudioPath == "" {
		return services.Wrap(services.ErrValidation, "transcription", "prepare", "no extracted audio on job", nil)
	}
	return nil
}

// Execute runs the recognition engine and stores the segment list.
func (t *Transcriber) Execute(ctx context.Context, job *queue.Job) error {
	outputDir := filepath.Join(job.StagingRoot(t.cfg.Paths.StagingDir), "stt")
	segments, err := t.stt.Transcribe(ctx, job.AudioPath, outputDir, job.SourceLang)
	if err != nil {
		return err
	}
	if err := storeSegments(job, segments); err != nil {
		return services.Wrap(services.ErrValidation, "transcription", "store segments", "persist transcript", err)
	}

	t.log.Info("transcription complete",
		logging.Int("segments", len(segments)),
		logging.String("model", t.stt.Model()))
	return nil
}

// HealthCheck verifies the recognition binary resolves.
func (t *Transcriber) HealthCheck(ctx context.Context) stage.Health {
	const name = "transcription"
	if !binaryAvailable(t.stt.Binary()) {
		return stage.Unhealthy(name, fmt.Sprintf("recognition binary %q not found", t.stt.Binary()))
	}
	return stage.Healthy(name)
}
