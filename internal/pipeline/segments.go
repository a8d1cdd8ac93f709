package pipeline

import (
	"encoding/json"
	"fmt"

	"dubber/internal/queue"
	"dubber/internal/segment"
	"dubber/internal/services"
)

func storeSegments(job *queue.Job, segments []segment.Segment) error {
	encoded, err := json.Marshal(segments)
	if err != nil {
		return fmt.Errorf("encode segments: %w", err)
	}
	job.SegmentsJSON = string(encoded)
	return nil
}

func loadSegments(job *queue.Job, stageName string) ([]segment.Segment, error) {
	if job.SegmentsJSON == "" {
		return nil, services.Wrap(services.ErrValidation, stageName, "load segments", "job has no segments; earlier stage did not run", nil)
	}
	var segments []segment.Segment
	if err := json.Unmarshal([]byte(job.SegmentsJSON), &segments); err != nil {
		return nil, services.Wrap(services.ErrValidation, stageName, "load segments", "segments payload corrupt", err)
	}
	if len(segments) == 0 {
		return nil, services.Wrap(services.ErrValidation, stageName, "load segments", "segment list empty", nil)
	}
	return segments, nil
}
