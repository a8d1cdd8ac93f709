package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"dubber/internal/config"
	"dubber/internal/fileutil"
	"dubber/internal/logging"
	"dubber/internal/media/ffmpeg"
	"dubber/internal/queue"
	"dubber/internal/services"
	"dubber/internal/stage"
)

// VideoAssembler muxes the dub track and captions back into the source video
// and publishes the results to the output directory.
type VideoAssembler struct {
	cfg   *config.Config
	media *ffmpeg.Tool
	log   *slog.Logger
}

// NewVideoAssembler builds the final assembly stage.
func NewVideoAssembler(cfg *config.Config, media *ffmpeg.Tool, log *slog.Logger) *VideoAssembler {
	if log == nil {
		log = logging.NewNop()
	}
	return &VideoAssembler{cfg: cfg, media: media, log: log}
}

// SetLogger replaces the stage logger.
func (v *VideoAssembler) SetLogger(log *slog.Logger) {
	if log != nil {
		v.log = log
	}
}

// Prepare confirms the upstream artifacts exist on disk.
func (v *VideoAssembler) Prepare(ctx context.Context, job *queue.Job) error {
	if !fileutil.NonEmptyFile(job.DubTrackPath) {
		return services.Wrap(services.ErrValidation, "video_assembly", "prepare", "dub track missing", nil)
	}
	if err := os.MkdirAll(v.cfg.Paths.OutputDir, 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "video_assembly", "prepare", "create output dir", err)
	}
	return nil
}

// Execute muxes the final video and copies the caption artifacts alongside.
func (v *VideoAssembler) Execute(ctx context.Context, job *queue.Job) error {
	callCtx, cancel := context.WithTimeout(ctx, time.Duration(v.cfg.Media.TrackTimeout)*time.Second)
	defer cancel()

	ext := filepath.Ext(job.SourcePath)
	if ext == "" {
		ext = ".mp4"
	}
	finalPath := filepath.Join(v.cfg.Paths.OutputDir, job.OutputBaseName()+ext)
	if err := v.media.Mux(callCtx, job.SourcePath, job.DubTrackPath, job.CaptionSRT, finalPath); err != nil {
		return services.Wrap(services.ErrExternalTool, "video_assembly", "mux", "final mux failed", services.ClassifyTimeout(err))
	}
	if !fileutil.NonEmptyFile(finalPath) {
		return services.Wrap(services.ErrExternalTool, "video_assembly", "mux", "final file empty", nil)
	}
	job.FinalFile = finalPath

	// Captions ship next to the video so players pick them up by name.
	for _, src := range []string{job.CaptionVTT, job.CaptionSRT, job.TranscriptPath} {
		if src == "" {
			continue
		}
		dest := filepath.Join(v.cfg.Paths.OutputDir, filepath.Base(src))
		if err := fileutil.CopyFile(src, dest); err != nil {
			return services.Wrap(services.ErrTransient, "video_assembly", "publish captions", fmt.Sprintf("copy %s", filepath.Base(src)), err)
		}
	}

	v.log.Info("final video assembled",
		logging.String("final_file", finalPath),
		logging.Float64("achieved_seconds", job.AchievedDuration))
	return nil
}

// HealthCheck verifies the mux binary resolves.
func (v *VideoAssembler) HealthCheck(ctx context.Context) stage.Health {
	const name = "video-assembly"
	if !binaryAvailable(v.media.Binary()) {
		return stage.Unhealthy(name, fmt.Sprintf("ffmpeg binary %q not found", v.media.Binary()))
	}
	return stage.Healthy(name)
}
