package captions

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dubber/internal/segment"
	"dubber/internal/services"
)

const (
	// DefaultWrapWidth is the soft-wrap column for cue text.
	DefaultWrapWidth = 40

	// DefaultMinFileBytes is the floor below which a rendered caption file
	// is treated as silent corruption upstream.
	DefaultMinFileBytes = 32
)

// Cue is one rendered caption entry with timing derived from the achieved
// track duration.
type Cue struct {
	Index int
	Start float64
	End   float64
	Lines []string
}

// Meta describes the dub for the transcript header.
type Meta struct {
	Title        string
	Language     string
	Voice        string
	Duration     float64
	SegmentCount int
}

// Paths names the three files one render produces.
type Paths struct {
	VTT        string
	SRT        string
	Transcript string
}

// Synchronizer turns translated segments into caption artifacts.
type Synchronizer struct {
	wrapWidth    int
	minFileBytes int
}

// New creates a synchronizer. Zero options take the package defaults.
func New(wrapWidth, minFileBytes int) *Synchronizer {
	if wrapWidth <= 0 {
		wrapWidth = DefaultWrapWidth
	}
	if minFileBytes <= 0 {
		minFileBytes = DefaultMinFileBytes
	}
	return &Synchronizer{wrapWidth: wrapWidth, minFileBytes: minFileBytes}
}

// Synchronize assigns uniform cue timing over the achieved duration. The
// divisor is the full segment count; segments that clean to empty text are
// dropped from the cue list without shifting the others' timing.
func (s *Synchronizer) Synchronize(segments []segment.Segment, achieved float64) ([]Cue, error) {
	if len(segments) == 0 {
		return nil, services.Wrap(services.ErrValidation, "caption_generation", "synchronize", "no segments", nil)
	}
	if achieved <= 0 {
		return nil, services.Wrap(services.ErrValidation, "caption_generation", "synchronize", fmt.Sprintf("invalid achieved duration %.3f", achieved), nil)
	}

	perSegment := achieved / float64(len(segments))
	cues := make([]Cue, 0, len(segments))
	for i, seg := range segments {
		text := segment.CleanText(seg.CaptionText())
		if text == "" {
			continue
		}
		start := float64(i) * perSegment
		end := float64(i+1) * perSegment
		if i == len(segments)-1 {
			// Pin the final cue to the exact track length so rounding never
			// leaves a gap or overrun at the end.
			end = achieved
		}
		cues = append(cues, Cue{
			Index: len(cues) + 1,
			Start: start,
			End:   end,
			Lines: segment.WrapText(text, s.wrapWidth),
		})
	}
	if len(cues) == 0 {
		return nil, services.Wrap(services.ErrValidation, "caption_generation", "synchronize", "all segments empty after cleaning", nil)
	}
	return cues, nil
}

// RenderVTT renders the cues as a WebVTT document.
func RenderVTT(cues []Cue) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for _, cue := range cues {
		fmt.Fprintf(&b, "%d\n", cue.Index)
		fmt.Fprintf(&b, "%s --> %s\n", formatClock(cue.Start, "."), formatClock(cue.End, "."))
		for _, line := range cue.Lines {
			b.WriteString(line)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderSRT renders the cues as an SRT document.
func RenderSRT(cues []Cue) string {
	var b strings.Builder
	for _, cue := range cues {
		fmt.Fprintf(&b, "%d\n", cue.Index)
		fmt.Fprintf(&b, "%s --> %s\n", formatClock(cue.Start, ","), formatClock(cue.End, ","))
		for _, line := range cue.Lines {
			b.WriteString(line)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderTranscript renders a plain-text transcript: metadata, full text,
// then a timestamped listing.
func RenderTranscript(cues []Cue, meta Meta) string {
	var b strings.Builder
	b.WriteString("Transcript\n")
	b.WriteString("==========\n")
	if meta.Title != "" {
		fmt.Fprintf(&b, "Title:    %s\n", meta.Title)
	}
	if meta.Language != "" {
		fmt.Fprintf(&b, "Language: %s\n", meta.Language)
	}
	if meta.Voice != "" {
		fmt.Fprintf(&b, "Voice:    %s\n", meta.Voice)
	}
	fmt.Fprintf(&b, "Duration: %s\n", formatShort(meta.Duration))
	fmt.Fprintf(&b, "Segments: %d\n", meta.SegmentCount)
	b.WriteByte('\n')

	for i, cue := range cues {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strings.Join(cue.Lines, " "))
	}
	b.WriteString("\n\n")

	for _, cue := range cues {
		fmt.Fprintf(&b, "[%s] %s\n", formatShort(cue.Start), strings.Join(cue.Lines, " "))
	}
	return b.String()
}

// WriteFiles synchronizes the segments and writes the caption artifacts into
// dir using baseName. All three files must clear the byte-size floor.
func (s *Synchronizer) WriteFiles(segments []segment.Segment, achieved float64, dir, baseName string, meta Meta) (Paths, error) {
	var paths Paths
	cues, err := s.Synchronize(segments, achieved)
	if err != nil {
		return paths, err
	}
	meta.Duration = achieved
	meta.SegmentCount = len(segments)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return paths, services.Wrap(services.ErrTransient, "caption_generation", "write captions", "create captions dir", err)
	}
	paths = Paths{
		VTT:        filepath.Join(dir, baseName+".vtt"),
		SRT:        filepath.Join(dir, baseName+".srt"),
		Transcript: filepath.Join(dir, baseName+".txt"),
	}
	outputs := []struct {
		path    string
		content string
	}{
		{paths.VTT, RenderVTT(cues)},
		{paths.SRT, RenderSRT(cues)},
		{paths.Transcript, RenderTranscript(cues, meta)},
	}
	for _, out := range outputs {
		if len(out.content) < s.minFileBytes {
			return paths, services.Wrap(services.ErrValidation, "caption_generation", "write captions",
				fmt.Sprintf("%s is implausibly small (%d bytes)", filepath.Base(out.path), len(out.content)), nil)
		}
		if err := os.WriteFile(out.path, []byte(out.content), 0o644); err != nil {
			return paths, services.Wrap(services.ErrTransient, "caption_generation", "write captions", "write "+filepath.Base(out.path), err)
		}
	}
	return paths, nil
}
