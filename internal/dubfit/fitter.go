package dubfit

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"

	"dubber/internal/logging"
	"dubber/internal/media/ffmpeg"
	"dubber/internal/segment"
	"dubber/internal/services"
	"dubber/internal/services/tts"
)

const (
	// baselineWPM is the speech engine's natural speaking rate.
	baselineWPM = 150.0
	minWPM      = 50.0
	maxWPM      = 300.0

	// fitTolerance is the acceptable gap between achieved and target
	// duration before a tempo correction is attempted.
	fitTolerance = 0.3

	// minFittableTarget guards the tempo math against near-zero targets.
	minFittableTarget = 0.5

	// minPlaceholderDuration keeps zero-target silence clips audible.
	minPlaceholderDuration = 1.0
)

// Synthesizer produces an audio clip for a text. Satisfied by tts.Service.
type Synthesizer interface {
	Synthesize(ctx context.Context, req tts.Request) error
}

// Media covers the audio operations the fitter needs. Satisfied by
// ffmpeg.Tool.
type Media interface {
	Silence(ctx context.Context, seconds float64, dest string) error
	RescaleTempo(ctx context.Context, source string, factor float64, dest string) error
}

// Probe measures an audio file's duration in seconds.
type Probe func(ctx context.Context, path string) (float64, error)

// Clip is the result of fitting one segment.
type Clip struct {
	Path             string
	TargetDuration   float64
	AchievedDuration float64
	Placeholder      bool
	FailureReason    string
}

// Fitter fits synthesized clips to target durations.
type Fitter struct {
	synth Synthesizer
	media Media
	probe Probe
	voice string
	log   *slog.Logger
}

// New creates a fitter. The logger may be nil.
func New(synth Synthesizer, media Media, probe Probe, voice string, log *slog.Logger) *Fitter {
	if log == nil {
		log = logging.NewNop()
	}
	return &Fitter{synth: synth, media: media, probe: probe, voice: voice, log: log}
}

// RateHint derives the synthesis-rate multiplier for a text and target
// duration. 1.0 means the engine's natural rate.
func RateHint(text string, target float64) float64 {
	words := segment.WordCount(text)
	if words == 0 {
		return 1.0
	}
	wpm := float64(words) / math.Max(target, minFittableTarget) * 60.0
	if wpm < minWPM {
		wpm = minWPM
	}
	if wpm > maxWPM {
		wpm = maxWPM
	}
	return wpm / baselineWPM
}

// Fit synthesizes text into outPath and adjusts it toward target seconds.
// Only infrastructure failures (silence generation itself failing) return an
// error; synthesis problems degrade to a placeholder clip.
func (f *Fitter) Fit(ctx context.Context, text string, target float64, outPath string) (Clip, error) {
	cleaned := segment.CleanText(text)
	if cleaned == "" {
		return f.placeholder(ctx, target, outPath, "")
	}

	rateHint := RateHint(cleaned, target)
	err := f.synth.Synthesize(ctx, tts.Request{
		Text:       cleaned,
		Voice:      f.voice,
		OutputPath: outPath,
		RateHint:   rateHint,
	})
	if err != nil {
		f.log.Warn("synthesis failed, substituting silence",
			logging.String("clip", outPath), logging.Error(err))
		return f.placeholder(ctx, target, outPath, services.Message(err))
	}

	actual, err := f.probe(ctx, outPath)
	if err != nil {
		f.log.Warn("clip measurement failed, substituting silence",
			logging.String("clip", outPath), logging.Error(err))
		return f.placeholder(ctx, target, outPath, fmt.Sprintf("measure clip: %v", err))
	}

	actual = f.correctTempo(ctx, outPath, actual, target)
	return Clip{Path: outPath, TargetDuration: target, AchievedDuration: actual}, nil
}

// correctTempo applies at most one bounded tempo pass and returns the final
// measured duration. Failures keep the untouched clip.
func (f *Fitter) correctTempo(ctx context.Context, path string, actual, target float64) float64 {
	if target <= minFittableTarget || math.Abs(actual-target) <= fitTolerance {
		return actual
	}
	factor := actual / target
	if factor < ffmpeg.MinTempoFactor {
		factor = ffmpeg.MinTempoFactor
	}
	if factor > ffmpeg.MaxTempoFactor {
		factor = ffmpeg.MaxTempoFactor
	}

	scaled := path + ".fit.wav"
	if err := f.media.RescaleTempo(ctx, path, factor, scaled); err != nil {
		f.log.Warn("tempo correction failed, keeping unscaled clip",
			logging.String("clip", path), logging.Float64("factor", factor), logging.Error(err))
		_ = os.Remove(scaled)
		return actual
	}
	measured, err := f.probe(ctx, scaled)
	if err != nil {
		f.log.Warn("scaled clip measurement failed, keeping unscaled clip",
			logging.String("clip", path), logging.Error(err))
		_ = os.Remove(scaled)
		return actual
	}
	if err := os.Rename(scaled, path); err != nil {
		f.log.Warn("scaled clip rename failed, keeping unscaled clip",
			logging.String("clip", path), logging.Error(err))
		_ = os.Remove(scaled)
		return actual
	}
	return measured
}

func (f *Fitter) placeholder(ctx context.Context, target float64, outPath, reason string) (Clip, error) {
	duration := target
	if duration <= 0 {
		duration = minPlaceholderDuration
	}
	if err := f.media.Silence(ctx, duration, outPath); err != nil {
		return Clip{}, services.Wrap(services.ErrExternalTool, "tts_generation", "fit segment", "silence placeholder generation failed", err)
	}
	return Clip{
		Path:             outPath,
		TargetDuration:   target,
		AchievedDuration: duration,
		Placeholder:      true,
		FailureReason:    reason,
	}, nil
}
