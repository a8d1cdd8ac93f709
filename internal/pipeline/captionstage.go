package pipeline

import (
	"context"
	"log/slog"

	"dubber/internal/captions"
	"dubber/internal/config"
	"dubber/internal/language"
	"dubber/internal/logging"
	"dubber/internal/queue"
	"dubber/internal/services"
	"dubber/internal/stage"
)

// CaptionWriter renders caption and transcript files timed to the achieved
// dub duration.
type CaptionWriter struct {
	cfg  *config.Config
	sync *captions.Synchronizer
	log  *slog.Logger
}

// NewCaptionWriter builds the caption generation stage.
func NewCaptionWriter(cfg *config.Config, log *slog.Logger) *CaptionWriter {
	if log == nil {
		log = logging.NewNop()
	}
	return &CaptionWriter{
		cfg:  cfg,
		sync: captions.New(cfg.Captions.WrapWidth, cfg.Captions.MinFileBytes),
		log:  log,
	}
}

// SetLogger replaces the stage logger.
func (c *CaptionWriter) SetLogger(log *slog.Logger) {
	if log != nil {
		c.log = log
	}
}

// Prepare confirms the dub track stage recorded an achieved duration.
func (c *CaptionWriter) Prepare(ctx context.Context, job *queue.Job) error {
	if job.AchievedDuration <= 0 {
		return services.Wrap(services.ErrValidation, "caption_generation", "prepare", "achieved duration unknown; dub stage did not run", nil)
	}
	_, err := loadSegments(job, "caption_generation")
	return err
}

// Execute writes the VTT, SRT, and transcript artifacts.
func (c *CaptionWriter) Execute(ctx context.Context, job *queue.Job) error {
	segments, err := loadSegments(job, "caption_generation")
	if err != nil {
		return err
	}

	paths, err := c.sync.WriteFiles(
		segments,
		job.AchievedDuration,
		job.CaptionsDir(c.cfg.Paths.StagingDir),
		job.OutputBaseName(),
		captions.Meta{
			Title:    job.Title,
			Language: language.DisplayName(job.TargetLang),
			Voice:    job.Voice,
		},
	)
	if err != nil {
		return err
	}
	job.CaptionVTT = paths.VTT
	job.CaptionSRT = paths.SRT
	job.TranscriptPath = paths.Transcript

	c.log.Info("captions written",
		logging.String("vtt", paths.VTT),
		logging.String("srt", paths.SRT),
		logging.String("transcript", paths.Transcript))
	return nil
}

// HealthCheck always succeeds; caption rendering has no external tools.
func (c *CaptionWriter) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy("caption-generation")
}
