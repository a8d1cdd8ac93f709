package timeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"dubber/internal/dubfit"
	"dubber/internal/logging"
	"dubber/internal/media/ffmpeg"
	"dubber/internal/segment"
	"dubber/internal/services"
)

// convergenceTolerance is the acceptable gap between the assembled track and
// the overall target before a whole-track corrective pass runs.
const convergenceTolerance = 1.5

// Fitter fits one segment's text to a target duration. Satisfied by
// dubfit.Fitter.
type Fitter interface {
	Fit(ctx context.Context, text string, target float64, outPath string) (dubfit.Clip, error)
}

// Media covers the track-level audio operations. Satisfied by ffmpeg.Tool.
type Media interface {
	Concat(ctx context.Context, clips []string, dest string) error
	RescaleTempo(ctx context.Context, source string, factor float64, dest string) error
}

// Probe measures an audio file's duration in seconds.
type Probe = dubfit.Probe

// SegmentNote records one fitted segment's outcome for the assembly report.
type SegmentNote struct {
	Index       int
	Placeholder bool
	Reason      string
}

// Report summarizes one assembly run.
type Report struct {
	TrackPath        string
	TargetDuration   float64
	AchievedDuration float64
	Fitted           int
	Placeholders     int
	Notes            []SegmentNote
}

// Assembler builds the dub track from an ordered segment list.
type Assembler struct {
	fitter Fitter
	media  Media
	probe  Probe
	log    *slog.Logger
}

// New creates an assembler. The logger may be nil.
func New(fitter Fitter, media Media, probe Probe, log *slog.Logger) *Assembler {
	if log == nil {
		log = logging.NewNop()
	}
	return &Assembler{fitter: fitter, media: media, probe: probe, log: log}
}

// Assemble fits every segment to a uniform share of target seconds,
// concatenates the clips in order into trackPath, and applies one corrective
// tempo pass if the result still deviates from the target. Scratch clips
// under scratchDir are removed on success and failure alike.
func (a *Assembler) Assemble(ctx context.Context, segments []segment.Segment, target float64, scratchDir, trackPath string) (Report, error) {
	report := Report{TrackPath: trackPath, TargetDuration: target}
	if len(segments) == 0 {
		return report, services.Wrap(services.ErrValidation, "tts_generation", "assemble", "no segments to assemble", nil)
	}
	if target <= 0 {
		return report, services.Wrap(services.ErrValidation, "tts_generation", "assemble", fmt.Sprintf("invalid target duration %.3f", target), nil)
	}
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return report, services.Wrap(services.ErrTransient, "tts_generation", "assemble", "create scratch dir", err)
	}

	// Original transcript boundaries no longer apply after translation and
	// re-speaking, so every segment gets an even share of the track.
	perSegment := target / float64(len(segments))

	clips := make([]string, 0, len(segments))
	defer func() {
		for _, clip := range clips {
			if err := os.Remove(clip); err != nil && !os.IsNotExist(err) {
				a.log.Warn("scratch clip cleanup failed", logging.String("clip", clip), logging.Error(err))
			}
		}
	}()

	for i, seg := range segments {
		clipPath := filepath.Join(scratchDir, fmt.Sprintf("seg_%04d.wav", i))
		clip, err := a.fitter.Fit(ctx, seg.Text(), perSegment, clipPath)
		if err != nil {
			return report, err
		}
		clips = append(clips, clip.Path)
		if clip.Placeholder {
			report.Placeholders++
			report.Notes = append(report.Notes, SegmentNote{Index: i, Placeholder: true, Reason: clip.FailureReason})
			a.log.Warn("segment fitted as placeholder",
				logging.Int("segment", i), logging.String("reason", clip.FailureReason))
		} else {
			report.Fitted++
		}
	}

	if err := a.media.Concat(ctx, clips, trackPath); err != nil {
		return report, services.Wrap(services.ErrExternalTool, "tts_generation", "assemble", "concatenate clips", err)
	}

	achieved, err := a.probe(ctx, trackPath)
	if err != nil {
		return report, services.Wrap(services.ErrExternalTool, "tts_generation", "assemble", "measure assembled track", err)
	}
	report.AchievedDuration = a.correctTrackTempo(ctx, trackPath, achieved, target)

	a.log.Info("dub track assembled",
		logging.String("track", trackPath),
		logging.Float64("target_seconds", target),
		logging.Float64("achieved_seconds", report.AchievedDuration),
		logging.Int("fitted", report.Fitted),
		logging.Int("placeholders", report.Placeholders))
	return report, nil
}

// correctTrackTempo applies at most one whole-track tempo pass as a safety
// net for cumulative per-segment variance.
func (a *Assembler) correctTrackTempo(ctx context.Context, trackPath string, achieved, target float64) float64 {
	if math.Abs(achieved-target) <= convergenceTolerance {
		return achieved
	}
	factor := achieved / target
	if factor < ffmpeg.MinTempoFactor {
		factor = ffmpeg.MinTempoFactor
	}
	if factor > ffmpeg.MaxTempoFactor {
		factor = ffmpeg.MaxTempoFactor
	}

	scaled := trackPath + ".fit.wav"
	defer os.Remove(scaled)
	if err := a.media.RescaleTempo(ctx, trackPath, factor, scaled); err != nil {
		a.log.Warn("track tempo correction failed, keeping unscaled track",
			logging.String("track", trackPath), logging.Float64("factor", factor), logging.Error(err))
		return achieved
	}
	measured, err := a.probe(ctx, scaled)
	if err != nil {
		a.log.Warn("scaled track measurement failed, keeping unscaled track",
			logging.String("track", trackPath), logging.Error(err))
		return achieved
	}
	if err := os.Rename(scaled, trackPath); err != nil {
		a.log.Warn("scaled track rename failed, keeping unscaled track",
			logging.String("track", trackPath), logging.Error(err))
		return achieved
	}
	return measured
}
