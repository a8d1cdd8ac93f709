package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"dubber/internal/language"
	"dubber/internal/segment"
	"dubber/internal/services"
)

// DefaultModel is used when the configuration does not name one.
const DefaultModel = "base"

// Config captures the recognition engine settings.
type Config struct {
	Binary  string
	Model   string
	Timeout time.Duration
}

// Runner executes the engine binary. Tests replace it.
type Runner func(ctx context.Context, name string, args ...string) error

// Service provides transcription via the external engine.
type Service struct {
	cfg    Config
	runner Runner
}

// NewService creates a transcription service with the given configuration.
func NewService(cfg Config) *Service {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = "whisper"
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Minute
	}
	return &Service{cfg: cfg}
}

// WithRunner sets a custom command runner (for testing).
func (s *Service) WithRunner(runner Runner) {
	s.runner = runner
}

// Binary returns the configured engine executable.
func (s *Service) Binary() string {
	return s.cfg.Binary
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	return s.cfg.Model
}

// Transcribe runs the engine against an extracted audio file and returns the
// ordered, filtered segments. outputDir receives the engine's JSON output.
func (s *Service) Transcribe(ctx context.Context, audioPath, outputDir, sourceLang string) ([]segment.Segment, error) {
	if strings.TrimSpace(audioPath) == "" {
		return nil, services.Wrap(services.ErrValidation, "transcription", "transcribe", "audio path required", nil)
	}
	if outputDir == "" {
		outputDir = filepath.Dir(audioPath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrTransient, "transcription", "transcribe", "ensure output dir", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	args := s.buildArgs(audioPath, outputDir, sourceLang)
	if err := s.run(callCtx, args...); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcription", "transcribe", "recognition engine failed", services.ClassifyTimeout(err))
	}

	jsonPath := s.OutputJSONPath(audioPath, outputDir)
	segments, err := LoadSegments(jsonPath)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcription", "load segments", "unreadable engine output", err)
	}
	filtered := segment.Filter(segments)
	if len(filtered) == 0 {
		return nil, services.Wrap(services.ErrValidation, "transcription", "load segments", "no usable speech segments recognized", nil)
	}
	return filtered, nil
}

// OutputJSONPath derives the engine's JSON output path for an input file.
func (s *Service) OutputJSONPath(audioPath, outputDir string) string {
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	return filepath.Join(outputDir, base+".json")
}

func (s *Service) buildArgs(audioPath, outputDir, sourceLang string) []string {
	args := []string{
		audioPath,
		"--model", s.cfg.Model,
		"--output_dir", outputDir,
		"--output_format", "json",
		"--task", "transcribe",
	}
	if lang := language.ToISO2(sourceLang); lang != "" {
		args = append(args, "--language", lang)
	}
	return args
}

func (s *Service) run(ctx context.Context, args ...string) error {
	if s.runner != nil {
		return s.runner(ctx, s.cfg.Binary, args...)
	}
	cmd := exec.CommandContext(ctx, s.cfg.Binary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", s.cfg.Binary, err, strings.TrimSpace(string(output)))
	}
	return nil
}

type payloadSegment struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type enginePayload struct {
	Segments []payloadSegment `json:"segments"`
}

// LoadSegments loads timed segments from an engine JSON file.
func LoadSegments(jsonPath string) ([]segment.Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var payload enginePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse transcript json: %w", err)
	}
	segments := make([]segment.Segment, 0, len(payload.Segments))
	for _, ps := range payload.Segments {
		segments = append(segments, segment.Segment{
			Start:      ps.Start,
			End:        ps.End,
			SourceText: strings.TrimSpace(ps.Text),
			Confidence: ps.Confidence,
		})
	}
	return segments, nil
}
