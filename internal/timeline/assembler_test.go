package timeline

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dubber/internal/dubfit"
	"dubber/internal/segment"
)

type stubFitter struct {
	targets  []float64
	failIdx  map[int]bool
	durBias  float64
	fitCalls int
}

func (f *stubFitter) Fit(ctx context.Context, text string, target float64, outPath string) (dubfit.Clip, error) {
	idx := f.fitCalls
	f.fitCalls++
	f.targets = append(f.targets, target)
	if err := os.WriteFile(outPath, []byte("RIFF"), 0o644); err != nil {
		return dubfit.Clip{}, err
	}
	if f.failIdx[idx] {
		return dubfit.Clip{
			Path:             outPath,
			TargetDuration:   target,
			AchievedDuration: target,
			Placeholder:      true,
			FailureReason:    "engine crashed",
		}, nil
	}
	return dubfit.Clip{Path: outPath, TargetDuration: target, AchievedDuration: target + f.durBias}, nil
}

type stubTrackMedia struct {
	concatClips []string
	concatErr   error
	rescales    []float64
}

func (m *stubTrackMedia) Concat(ctx context.Context, clips []string, dest string) error {
	m.concatClips = append([]string(nil), clips...)
	if m.concatErr != nil {
		return m.concatErr
	}
	return os.WriteFile(dest, []byte("RIFF"), 0o644)
}

func (m *stubTrackMedia) RescaleTempo(ctx context.Context, source string, factor float64, dest string) error {
	m.rescales = append(m.rescales, factor)
	return os.WriteFile(dest, []byte("RIFF"), 0o644)
}

func makeSegments(texts ...string) []segment.Segment {
	segs := make([]segment.Segment, len(texts))
	for i, text := range texts {
		segs[i] = segment.Segment{Start: float64(i), End: float64(i + 1), SourceText: "src", TranslatedText: text}
	}
	return segs
}

func probeReturning(durations ...float64) Probe {
	i := 0
	return func(ctx context.Context, path string) (float64, error) {
		d := durations[i]
		if i < len(durations)-1 {
			i++
		}
		return d, nil
	}
}

func TestAssembleUniformSplitWithPlaceholder(t *testing.T) {
	// 3 segments over 30s: ~10s each; one failure still yields a full track.
	dir := t.TempDir()
	fitter := &stubFitter{failIdx: map[int]bool{1: true}}
	media := &stubTrackMedia{}
	asm := New(fitter, media, probeReturning(29.8), nil)

	report, err := asm.Assemble(context.Background(), makeSegments("a", "b", "c"), 30,
		filepath.Join(dir, "scratch"), filepath.Join(dir, "dub.wav"))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	for i, target := range fitter.targets {
		if math.Abs(target-10.0) > 1e-9 {
			t.Fatalf("segment %d target = %v, want 10", i, target)
		}
	}
	if report.Fitted != 2 || report.Placeholders != 1 {
		t.Fatalf("counts = %d fitted / %d placeholders", report.Fitted, report.Placeholders)
	}
	if len(report.Notes) != 1 || report.Notes[0].Index != 1 || report.Notes[0].Reason == "" {
		t.Fatalf("notes = %+v", report.Notes)
	}
	if math.Abs(report.AchievedDuration-29.8) > 1e-9 {
		t.Fatalf("achieved = %v", report.AchievedDuration)
	}
	if len(media.rescales) != 0 {
		t.Fatalf("within tolerance, no corrective pass expected: %v", media.rescales)
	}
}

func TestAssembleConcatenatesInOrder(t *testing.T) {
	dir := t.TempDir()
	media := &stubTrackMedia{}
	asm := New(&stubFitter{}, media, probeReturning(20), nil)

	_, err := asm.Assemble(context.Background(), makeSegments("a", "b", "c", "d"), 20,
		filepath.Join(dir, "scratch"), filepath.Join(dir, "dub.wav"))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(media.concatClips) != 4 {
		t.Fatalf("concat clips = %v", media.concatClips)
	}
	for i, clip := range media.concatClips {
		if !strings.Contains(clip, "seg_000"+string(rune('0'+i))) {
			t.Fatalf("clip %d out of order: %q", i, clip)
		}
	}
}

func TestAssembleCorrectivePassWhenDeviationLarge(t *testing.T) {
	dir := t.TempDir()
	media := &stubTrackMedia{}
	// First probe: assembled track 34s vs target 30s; second: after scaling.
	asm := New(&stubFitter{}, media, probeReturning(34.0, 30.1), nil)

	report, err := asm.Assemble(context.Background(), makeSegments("a", "b"), 30,
		filepath.Join(dir, "scratch"), filepath.Join(dir, "dub.wav"))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(media.rescales) != 1 {
		t.Fatalf("expected one corrective pass, got %v", media.rescales)
	}
	if math.Abs(media.rescales[0]-34.0/30.0) > 1e-9 {
		t.Fatalf("corrective factor = %v", media.rescales[0])
	}
	if math.Abs(report.AchievedDuration-30.1) > 1e-9 {
		t.Fatalf("achieved = %v after correction", report.AchievedDuration)
	}
}

func TestAssembleZeroSegmentsIsError(t *testing.T) {
	dir := t.TempDir()
	asm := New(&stubFitter{}, &stubTrackMedia{}, probeReturning(0), nil)
	_, err := asm.Assemble(context.Background(), nil, 30, dir, filepath.Join(dir, "dub.wav"))
	if err == nil {
		t.Fatal("expected error for empty segment list")
	}
}

func TestAssembleSingleSegmentGetsFullTarget(t *testing.T) {
	dir := t.TempDir()
	fitter := &stubFitter{}
	asm := New(fitter, &stubTrackMedia{}, probeReturning(25), nil)
	_, err := asm.Assemble(context.Background(), makeSegments("only"), 25,
		filepath.Join(dir, "scratch"), filepath.Join(dir, "dub.wav"))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(fitter.targets) != 1 || fitter.targets[0] != 25 {
		t.Fatalf("single segment target = %v, want the full 25", fitter.targets)
	}
}

func TestAssembleCleansScratchOnFailure(t *testing.T) {
	dir := t.TempDir()
	scratch := filepath.Join(dir, "scratch")
	media := &stubTrackMedia{concatErr: errors.New("concat failed")}
	asm := New(&stubFitter{}, media, probeReturning(0), nil)

	_, err := asm.Assemble(context.Background(), makeSegments("a", "b"), 10,
		scratch, filepath.Join(dir, "dub.wav"))
	if err == nil {
		t.Fatal("expected concat error")
	}
	entries, readErr := os.ReadDir(scratch)
	if readErr != nil {
		t.Fatalf("read scratch: %v", readErr)
	}
	if len(entries) != 0 {
		t.Fatalf("scratch clips not cleaned up: %d left", len(entries))
	}
}

func TestAssembleCleansScratchOnSuccess(t *testing.T) {
	dir := t.TempDir()
	scratch := filepath.Join(dir, "scratch")
	asm := New(&stubFitter{}, &stubTrackMedia{}, probeReturning(10), nil)

	_, err := asm.Assemble(context.Background(), makeSegments("a", "b"), 10,
		scratch, filepath.Join(dir, "dub.wav"))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	entries, readErr := os.ReadDir(scratch)
	if readErr != nil {
		t.Fatalf("read scratch: %v", readErr)
	}
	if len(entries) != 0 {
		t.Fatalf("scratch clips not cleaned up: %d left", len(entries))
	}
}
