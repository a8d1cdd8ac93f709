package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"dubber/internal/config"
	"dubber/internal/logging"
	"dubber/internal/queue"
	"dubber/internal/services"
	"dubber/internal/services/translate"
	"dubber/internal/stage"
)

// Translator fills each segment's translated text via the translation API.
type Translator struct {
	cfg    *config.Config
	client *translate.Client
	log    *slog.Logger
}

// NewTranslator builds the translation stage.
func NewTranslator(cfg *config.Config, client *translate.Client, log *slog.Logger) *Translator {
	if log == nil {
		log = logging.NewNop()
	}
	return &Translator{cfg: cfg, client: client, log: log}
}

// SetLogger replaces the stage logger.
func (t *Translator) SetLogger(log *slog.Logger) {
	if log != nil {
		t.log = log
	}
}

// Prepare confirms the job carries a transcript and a target language.
func (t *Translator) Prepare(ctx context.Context, job *queue.Job) error {
	if strings.TrimSpace(job.TargetLang) == "" {
		return services.Wrap(services.ErrValidation, "translation", "prepare", "target language required", nil)
	}
	_, err := loadSegments(job, "translation")
	return err
}

// Execute translates every segment in place and stores the updated list.
func (t *Translator) Execute(ctx context.Context, job *queue.Job) error {
	segments, err := loadSegments(job, "translation")
	if err != nil {
		return err
	}
	if err := t.client.TranslateSegments(ctx, segments, job.SourceLang, job.TargetLang); err != nil {
		return err
	}
	if err := storeSegments(job, segments); err != nil {
		return services.Wrap(services.ErrValidation, "translation", "store segments", "persist translations", err)
	}

	t.log.Info("translation complete",
		logging.Int("segments", len(segments)),
		logging.String("target_lang", job.TargetLang))
	return nil
}

// HealthCheck verifies the API is configured.
func (t *Translator) HealthCheck(ctx context.Context) stage.Health {
	const name = "translation"
	if strings.TrimSpace(t.cfg.Translation.APIKey) == "" && !t.cfg.Translation.FallbackToSource {
		return stage.Unhealthy(name, "translation api key missing and fallback disabled")
	}
	return stage.Healthy(name)
}
