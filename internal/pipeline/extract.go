package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"dubber/internal/config"
	"dubber/internal/logging"
	"dubber/internal/media/ffmpeg"
	"dubber/internal/media/ffprobe"
	"dubber/internal/queue"
	"dubber/internal/services"
	"dubber/internal/stage"
)

// AudioExtractor pulls the source audio track out of the uploaded video and
// records the video's duration as the assembly target.
type AudioExtractor struct {
	cfg   *config.Config
	media *ffmpeg.Tool
	log   *slog.Logger
}

// NewAudioExtractor builds the audio extraction stage.
func NewAudioExtractor(cfg *config.Config, media *ffmpeg.Tool, log *slog.Logger) *AudioExtractor {
	if log == nil {
		log = logging.NewNop()
	}
	return &AudioExtractor{cfg: cfg, media: media, log: log}
}

// SetLogger replaces the stage logger.
func (e *AudioExtractor) SetLogger(log *slog.Logger) {
	if log != nil {
		e.log = log
	}
}

// Prepare validates the uploaded source and lays out the job's staging area.
func (e *AudioExtractor) Prepare(ctx context.Context, job *queue.Job) error {
	info, err := os.Stat(job.SourcePath)
	if err != nil {
		return services.Wrap(services.ErrValidation, "audio_extraction", "prepare", "source video not readable", err)
	}
	if info.IsDir() || info.Size() == 0 {
		return services.Wrap(services.ErrValidation, "audio_extraction", "prepare", "source video empty or not a file", nil)
	}
	for _, dir := range []string{job.StagingRoot(e.cfg.Paths.StagingDir), job.DubDir(e.cfg.Paths.StagingDir), job.CaptionsDir(e.cfg.Paths.StagingDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return services.Wrap(services.ErrTransient, "audio_extraction", "prepare", "create staging dirs", err)
		}
	}
	return nil
}

// Execute probes the source duration and extracts a mono speech track.
func (e *AudioExtractor) Execute(ctx context.Context, job *queue.Job) error {
	callCtx, cancel := context.WithTimeout(ctx, time.Duration(e.cfg.Media.TrackTimeout)*time.Second)
	defer cancel()

	duration, err := ffprobe.Duration(callCtx, e.cfg.Media.FFprobeBinary, job.SourcePath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "audio_extraction", "probe source", "source duration unavailable", err)
	}
	job.VideoDuration = duration

	audioPath := filepath.Join(job.StagingRoot(e.cfg.Paths.StagingDir), "audio.wav")
	if err := e.media.ExtractAudio(callCtx, job.SourcePath, audioPath); err != nil {
		return services.Wrap(services.ErrExternalTool, "audio_extraction", "extract", "audio extraction failed", services.ClassifyTimeout(err))
	}
	job.AudioPath = audioPath

	e.log.Info("audio extracted",
		logging.String("audio", audioPath),
		logging.Float64("video_seconds", duration))
	return nil
}

// HealthCheck verifies the media binaries resolve.
func (e *AudioExtractor) HealthCheck(ctx context.Context) stage.Health {
	const name = "audio-extraction"
	if !binaryAvailable(e.media.Binary()) {
		return stage.Unhealthy(name, fmt.Sprintf("ffmpeg binary %q not found", e.media.Binary()))
	}
	if !binaryAvailable(e.cfg.Media.FFprobeBinary) {
		return stage.Unhealthy(name, fmt.Sprintf("ffprobe binary %q not found", e.cfg.Media.FFprobeBinary))
	}
	return stage.Healthy(name)
}
