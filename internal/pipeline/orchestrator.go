package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"

	"dubber/internal/config"
	"dubber/internal/logging"
	"dubber/internal/media/ffmpeg"
	"dubber/internal/queue"
	"dubber/internal/services"
	"dubber/internal/services/translate"
	"dubber/internal/services/tts"
	"dubber/internal/services/whisper"
	"dubber/internal/stage"
	"dubber/internal/stageexec"
)

type boundStage struct {
	name    string
	step    queue.Step
	handler stage.Handler
}

// Orchestrator drives jobs through the fixed stage sequence.
type Orchestrator struct {
	cfg    *config.Config
	store  *queue.Store
	log    *slog.Logger
	stages []boundStage
}

// New wires the production stage set from the configuration.
func New(cfg *config.Config, store *queue.Store, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = logging.NewNop()
	}

	media := ffmpeg.New(cfg.Media.FFmpegBinary)
	stt := whisper.NewService(whisper.Config{
		Binary:  cfg.Transcription.Binary,
		Model:   cfg.Transcription.Model,
		Timeout: time.Duration(cfg.Transcription.Timeout) * time.Second,
	})
	translator := translate.NewClient(translate.Config{
		APIKey:            cfg.Translation.APIKey,
		BaseURL:           cfg.Translation.BaseURL,
		Model:             cfg.Translation.Model,
		Timeout:           time.Duration(cfg.Translation.Timeout) * time.Second,
		RequestsPerMinute: cfg.Translation.RequestsPerMinute,
		FallbackToSource:  cfg.Translation.FallbackToSource,
	})
	synth := tts.NewService(tts.Config{
		Binary:   cfg.TTS.Binary,
		ModelDir: cfg.TTS.ModelDir,
		Timeout:  time.Duration(cfg.TTS.SegmentTimeout) * time.Second,
	})

	o := &Orchestrator{cfg: cfg, store: store, log: log}
	o.stages = []boundStage{
		{"audio-extraction", queue.StepAudioExtraction, NewAudioExtractor(cfg, media, log)},
		{"transcription", queue.StepTranscription, NewTranscriber(cfg, stt, log)},
		{"translation", queue.StepTranslation, NewTranslator(cfg, translator, log)},
		{"dub-synthesis", queue.StepTTSGeneration, NewDubSynthesizer(cfg, synth, media, log)},
		{"caption-generation", queue.StepCaptionGeneration, NewCaptionWriter(cfg, log)},
		{"video-assembly", queue.StepVideoAssembly, NewVideoAssembler(cfg, media, log)},
	}
	return o
}

// SetStages replaces the stage set (for testing).
func (o *Orchestrator) SetStages(handlers map[queue.Step]stage.Handler) {
	for i := range o.stages {
		if h, ok := handlers[o.stages[i].step]; ok {
			o.stages[i].handler = h
		}
	}
}

// Process runs one uploaded job through every stage. Stage failures are
// persisted on the job and returned; the caller decides whether to keep
// draining the queue.
func (o *Orchestrator) Process(ctx context.Context, job *queue.Job) error {
	runID := uuid.NewString()
	runCtx := services.WithJobID(services.WithRequestID(ctx, runID), job.ID)
	runLogger := logging.WithContext(runCtx, o.log)

	if err := o.store.MarkProcessing(runCtx, job, runID); err != nil {
		return fmt.Errorf("claim job %d: %w", job.ID, err)
	}
	runLogger.Info("job processing started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.String("source_file", job.SourcePath),
		logging.String("target_lang", job.TargetLang))

	for _, bound := range o.stages {
		if err := stageexec.Run(runCtx, stageexec.Options{
			Logger:    runLogger,
			Store:     o.store,
			Handler:   bound.handler,
			StageName: bound.name,
			Step:      bound.step,
			Job:       job,
		}); err != nil {
			return fmt.Errorf("stage %s: %w", bound.name, err)
		}
	}

	runLogger.Info("job completed",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.String("final_file", job.FinalFile),
		logging.Float64("achieved_seconds", job.AchievedDuration),
		logging.Int("placeholder_segments", job.PlaceholderCount))
	return nil
}

// ProcessNext claims and runs the oldest uploaded job. It reports whether a
// job was found.
func (o *Orchestrator) ProcessNext(ctx context.Context) (bool, error) {
	job, err := o.store.NextUploaded(ctx)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}
	return true, o.Process(ctx, job)
}

// Drain processes uploaded jobs until the queue is empty or the context
// ends. Failed jobs stay failed; draining continues with the next job.
func (o *Orchestrator) Drain(ctx context.Context) (processed, failed int, err error) {
	for {
		if ctx.Err() != nil {
			return processed, failed, ctx.Err()
		}
		found, runErr := o.ProcessNext(ctx)
		if !found {
			return processed, failed, runErr
		}
		processed++
		if runErr != nil {
			failed++
			o.log.Warn("job failed, continuing with queue", logging.Error(runErr))
		}
	}
}

// HealthChecks runs every stage's readiness probe.
func (o *Orchestrator) HealthChecks(ctx context.Context) []stage.Health {
	out := make([]stage.Health, 0, len(o.stages))
	for _, bound := range o.stages {
		out = append(out, bound.handler.HealthCheck(ctx))
	}
	return out
}

func binaryAvailable(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}
