package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// MinTempoFactor and MaxTempoFactor bound tempo rescaling. The range matches
// what a single ffmpeg atempo filter accepts; beyond it speech is rejected as
// too distorted.
const (
	MinTempoFactor = 0.5
	MaxTempoFactor = 2.0
)

// Runner executes an external command. Tests replace it to avoid shelling out.
type Runner func(ctx context.Context, name string, args ...string) error

// Tool invokes ffmpeg for the pipeline's media operations.
type Tool struct {
	binary string
	runner Runner
}

// New creates a Tool for the given ffmpeg binary ("ffmpeg" when empty).
func New(binary string) *Tool {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Tool{binary: binary}
}

// WithRunner sets a custom command runner (for testing).
func (t *Tool) WithRunner(runner Runner) {
	t.runner = runner
}

// Binary returns the configured executable name.
func (t *Tool) Binary() string {
	return t.binary
}

func (t *Tool) run(ctx context.Context, args ...string) error {
	if t.runner != nil {
		return t.runner(ctx, t.binary, args...)
	}
	cmd := exec.CommandContext(ctx, t.binary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", t.binary, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// ExtractAudio extracts the first audio stream from source as a mono 16kHz
// WAV suitable for speech recognition.
func (t *Tool) ExtractAudio(ctx context.Context, source, dest string) error {
	if strings.TrimSpace(source) == "" {
		return errors.New("extract audio: source path required")
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-map", "0:a:0",
		"-vn", "-sn", "-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
	if err := t.run(ctx, args...); err != nil {
		return fmt.Errorf("ffmpeg extract: %w", err)
	}
	return nil
}

// Silence writes a mono silence clip of the given length in seconds.
func (t *Tool) Silence(ctx context.Context, seconds float64, dest string) error {
	if seconds <= 0 {
		return fmt.Errorf("silence: invalid duration %.3f", seconds)
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "lavfi",
		"-i", "anullsrc=r=22050:cl=mono",
		"-t", formatSeconds(seconds),
		"-c:a", "pcm_s16le",
		dest,
	}
	if err := t.run(ctx, args...); err != nil {
		return fmt.Errorf("ffmpeg silence: %w", err)
	}
	return nil
}

// Concat joins the ordered clips into one audio file using the concat
// demuxer. The list file is written next to dest and removed before return.
func (t *Tool) Concat(ctx context.Context, clips []string, dest string) error {
	if len(clips) == 0 {
		return errors.New("concat: no clips provided")
	}
	listPath := dest + ".list"
	var list strings.Builder
	for _, clip := range clips {
		list.WriteString("file '")
		list.WriteString(escapeConcatPath(clip))
		list.WriteString("'\n")
	}
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return fmt.Errorf("concat: write list file: %w", err)
	}
	defer os.Remove(listPath)

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c:a", "pcm_s16le",
		dest,
	}
	if err := t.run(ctx, args...); err != nil {
		return fmt.Errorf("ffmpeg concat: %w", err)
	}
	return nil
}

// RescaleTempo re-times source by factor: 2.0 halves the duration, 0.5
// doubles it. Factors outside [MinTempoFactor, MaxTempoFactor] are rejected
// so callers decide whether to keep the unscaled clip.
func (t *Tool) RescaleTempo(ctx context.Context, source string, factor float64, dest string) error {
	if factor < MinTempoFactor || factor > MaxTempoFactor {
		return fmt.Errorf("rescale tempo: factor %.3f outside [%.1f, %.1f]", factor, MinTempoFactor, MaxTempoFactor)
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-filter:a", fmt.Sprintf("atempo=%.6f", factor),
		"-c:a", "pcm_s16le",
		dest,
	}
	if err := t.run(ctx, args...); err != nil {
		return fmt.Errorf("ffmpeg atempo: %w", err)
	}
	return nil
}

// Mux combines the source video stream, the dubbed audio track, and an
// optional subtitle file into dest. Video is stream-copied; the dub replaces
// the original audio.
func (t *Tool) Mux(ctx context.Context, video, audio, subtitles, dest string) error {
	if strings.TrimSpace(video) == "" || strings.TrimSpace(audio) == "" {
		return errors.New("mux: video and audio paths required")
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", video,
		"-i", audio,
	}
	hasSubs := strings.TrimSpace(subtitles) != ""
	if hasSubs {
		args = append(args, "-i", subtitles)
	}
	args = append(args,
		"-map", "0:v:0",
		"-map", "1:a:0",
	)
	if hasSubs {
		args = append(args, "-map", "2:s:0", "-c:s", subtitleCodecFor(dest))
	}
	args = append(args,
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		dest,
	)
	if err := t.run(ctx, args...); err != nil {
		return fmt.Errorf("ffmpeg mux: %w", err)
	}
	return nil
}

func subtitleCodecFor(dest string) string {
	switch strings.ToLower(filepath.Ext(dest)) {
	case ".mp4", ".mov", ".m4v":
		return "mov_text"
	default:
		return "srt"
	}
}

func escapeConcatPath(path string) string {
	// The concat demuxer list quotes with single quotes; embedded quotes are
	// closed, escaped, and reopened.
	return strings.ReplaceAll(path, "'", `'\''`)
}

func formatSeconds(seconds float64) string {
	return fmt.Sprintf("%.3f", seconds)
}
