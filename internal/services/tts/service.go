package tts

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"dubber/internal/fileutil"
	"dubber/internal/services"
)

// DefaultSegmentTimeout bounds one synthesis call when the config does not
// override it. Individual segments are short; a stuck engine should fail
// fast rather than stall the whole assembly.
const DefaultSegmentTimeout = 45 * time.Second

// Config captures the synthesis engine settings.
type Config struct {
	Binary   string
	ModelDir string
	Timeout  time.Duration
}

// Request describes one synthesis call.
type Request struct {
	Text       string
	Voice      string
	OutputPath string
	// RateHint is a speaking-rate multiplier: 1.0 is the engine's natural
	// rate, 2.0 twice as fast. Zero means no hint.
	RateHint float64
}

// Runner executes the engine binary with the given stdin. Tests replace it.
type Runner func(ctx context.Context, name string, stdin io.Reader, args ...string) error

// Service wraps the synthesis CLI.
type Service struct {
	cfg    Config
	runner Runner
}

// NewService creates a synthesis service with the given configuration.
func NewService(cfg Config) *Service {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = "piper"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultSegmentTimeout
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

// Synthesize produces an audio clip for the request text. An empty or
// zero-byte output file is an error; silence substitution is the caller's
// decision, not the engine wrapper's.
func (s *Service) Synthesize(ctx context.Context, req Request) error {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return services.Wrap(services.ErrValidation, "tts", "synthesize", "empty text", nil)
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return services.Wrap(services.ErrValidation, "tts", "synthesize", "output path required", nil)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	args := s.buildArgs(req)
	if err := s.run(callCtx, strings.NewReader(text+"\n"), args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "tts", "synthesize", "speech engine failed", services.ClassifyTimeout(err))
	}

	if !fileutil.NonEmptyFile(req.OutputPath) {
		return services.Wrap(services.ErrExternalTool, "tts", "synthesize", fmt.Sprintf("engine produced no audio at %s", filepath.Base(req.OutputPath)), nil)
	}
	return nil
}

func (s *Service) buildArgs(req Request) []string {
	args := []string{
		"--model", req.Voice,
		"--output_file", req.OutputPath,
	}
	if s.cfg.ModelDir != "" {
		args = append(args, "--data-dir", s.cfg.ModelDir)
	}
	if req.RateHint > 0 {
		// The engine's length scale stretches phoneme durations, so it is the
		// inverse of the speaking-rate multiplier.
		args = append(args, "--length_scale", fmt.Sprintf("%.3f", 1.0/req.RateHint))
	}
	return args
}

func (s *Service) run(ctx context.Context, stdin io.Reader, args ...string) error {
	if s.runner != nil {
		return s.runner(ctx, s.cfg.Binary, stdin, args...)
	}
	cmd := exec.CommandContext(ctx, s.cfg.Binary, args...) //nolint:gosec
	cmd.Stdin = stdin
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", s.cfg.Binary, err, strings.TrimSpace(string(output)))
	}
	return nil
}
