package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"dubber/internal/config"
	"dubber/internal/dubfit"
	"dubber/internal/logging"
	"dubber/internal/media/ffmpeg"
	"dubber/internal/media/ffprobe"
	"dubber/internal/queue"
	"dubber/internal/services"
	"dubber/internal/services/tts"
	"dubber/internal/stage"
	"dubber/internal/timeline"
)

// DubSynthesizer fits every translated segment to the video duration and
// assembles the continuous dub track.
type DubSynthesizer struct {
	cfg   *config.Config
	synth *tts.Service
	media *ffmpeg.Tool
	log   *slog.Logger
}

// NewDubSynthesizer builds the dub synthesis stage.
func NewDubSynthesizer(cfg *config.Config, synth *tts.Service, media *ffmpeg.Tool, log *slog.Logger) *DubSynthesizer {
	if log == nil {
		log = logging.NewNop()
	}
	return &DubSynthesizer{cfg: cfg, synth: synth, media: media, log: log}
}

// SetLogger replaces the stage logger.
func (d *DubSynthesizer) SetLogger(log *slog.Logger) {
	if log != nil {
		d.log = log
	}
}

// Prepare confirms the job has translated segments and a usable target
// duration.
func (d *DubSynthesizer) Prepare(ctx context.Context, job *queue.Job) error {
	if job.VideoDuration <= 0 {
		return services.Wrap(services.ErrValidation, "tts_generation", "prepare", "video duration unknown", nil)
	}
	if _, err := loadSegments(job, "tts_generation"); err != nil {
		return err
	}
	return nil
}

// Execute assembles the dub track and records the assembly report on the job.
func (d *DubSynthesizer) Execute(ctx context.Context, job *queue.Job) error {
	segments, err := loadSegments(job, "tts_generation")
	if err != nil {
		return err
	}

	voice := strings.TrimSpace(job.Voice)
	if voice == "" {
		voice = d.cfg.TTS.Voice
	}
	probe := func(ctx context.Context, path string) (float64, error) {
		return ffprobe.Duration(ctx, d.cfg.Media.FFprobeBinary, path)
	}
	fitter := dubfit.New(d.synth, d.media, probe, voice, d.log)
	assembler := timeline.New(fitter, d.media, probe, d.log)

	dubDir := job.DubDir(d.cfg.Paths.StagingDir)
	trackPath := filepath.Join(dubDir, "dub.wav")
	report, err := assembler.Assemble(ctx, segments, job.VideoDuration, filepath.Join(dubDir, "clips"), trackPath)
	if err != nil {
		return err
	}

	job.DubTrackPath = report.TrackPath
	job.AchievedDuration = report.AchievedDuration
	job.FittedSegments = report.Fitted
	job.PlaceholderCount = report.Placeholders
	for _, note := range report.Notes {
		job.AppendError(fmt.Sprintf("segment %d: %s", note.Index, note.Reason))
	}

	d.log.Info("dub track ready",
		logging.String("track", report.TrackPath),
		logging.Float64("achieved_seconds", report.AchievedDuration),
		logging.Int("placeholders", report.Placeholders))
	return nil
}

// HealthCheck verifies the synthesis binary resolves.
func (d *DubSynthesizer) HealthCheck(ctx context.Context) stage.Health {
	const name = "tts-generation"
	if !binaryAvailable(d.synth.Binary()) {
		return stage.Unhealthy(name, fmt.Sprintf("speech binary %q not found", d.synth.Binary()))
	}
	return stage.Healthy(name)
}
