package queue

import (
	"encoding/json"
	"time"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusUploaded   Status = "uploaded"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusUploaded,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// ValidStatus reports whether the status is one the store recognizes.
func ValidStatus(status Status) bool {
	_, ok := statusSet[status]
	return ok
}

// Step identifies the pipeline stage a processing job is in.
type Step string

const (
	StepAudioExtraction   Step = "audio_extraction"
	StepTranscription     Step = "transcription"
	StepTranslation       Step = "translation"
	StepTTSGeneration     Step = "tts_generation"
	StepCaptionGeneration Step = "caption_generation"
	StepVideoAssembly     Step = "video_assembly"
	StepCompleted         Step = "completed"
)

// StepOrder is the fixed stage sequence for one job.
var StepOrder = []Step{
	StepAudioExtraction,
	StepTranscription,
	StepTranslation,
	StepTTSGeneration,
	StepCaptionGeneration,
	StepVideoAssembly,
	StepCompleted,
}

// ShutdownStopReason is the error appended when jobs are failed because the
// process is stopping mid-run.
const ShutdownStopReason = "dubber stopped"

// Stats aggregates job counts per lifecycle state.
type Stats struct {
	Total      int
	Uploaded   int
	Processing int
	Completed  int
	Failed     int
}

// Job represents one dubbing job persisted in SQLite.
type Job struct {
	ID         int64
	SourcePath string
	Title      string
	Status     Status
	Step       Step
	SourceLang string
	TargetLang string
	Voice      string
	RunID      string

	SegmentsJSON     string
	VideoDuration    float64
	AchievedDuration float64
	FittedSegments   int
	PlaceholderCount int

	AudioPath      string
	DubTrackPath   string
	CaptionVTT     string
	CaptionSRT     string
	TranscriptPath string
	FinalFile      string

	ErrorLogJSON       string
	StepTimestampsJSON string

	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Errors returns the append-only error log entries, oldest first.
func (j *Job) Errors() []string {
	if j == nil || j.ErrorLogJSON == "" {
		return nil
	}
	var entries []string
	if err := json.Unmarshal([]byte(j.ErrorLogJSON), &entries); err != nil {
		return []string{j.ErrorLogJSON}
	}
	return entries
}

// AppendError adds a message to the job's error log. Existing entries are
// never rewritten or removed.
func (j *Job) AppendError(message string) {
	if message == "" {
		return
	}
	entries := append(j.Errors(), message)
	encoded, err := json.Marshal(entries)
	if err != nil {
		return
	}
	j.ErrorLogJSON = string(encoded)
}

// StepTimestamps returns the per-step completion times recorded so far.
func (j *Job) StepTimestamps() map[Step]time.Time {
	out := make(map[Step]time.Time)
	if j == nil || j.StepTimestampsJSON == "" {
		return out
	}
	var raw map[string]string
	if err := json.Unmarshal([]byte(j.StepTimestampsJSON), &raw); err != nil {
		return out
	}
	for step, value := range raw {
		if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
			out[Step(step)] = t
		}
	}
	return out
}

// RecordStepCompleted stamps a step's completion time.
func (j *Job) RecordStepCompleted(step Step, at time.Time) {
	raw := make(map[string]string)
	if j.StepTimestampsJSON != "" {
		_ = json.Unmarshal([]byte(j.StepTimestampsJSON), &raw)
	}
	raw[string(step)] = at.UTC().Format(time.RFC3339Nano)
	encoded, err := json.Marshal(raw)
	if err != nil {
		return
	}
	j.StepTimestampsJSON = string(encoded)
}
