package queue

import (
	"path/filepath"
	"testing"
	"time"
)

func TestAppendErrorIsAppendOnly(t *testing.T) {
	var job Job
	job.AppendError("first")
	job.AppendError("second")
	errs := job.Errors()
	if len(errs) != 2 || errs[0] != "first" || errs[1] != "second" {
		t.Fatalf("errors = %v", errs)
	}
}

func TestErrorsToleratesLegacyPlainText(t *testing.T) {
	job := Job{ErrorLogJSON: "not json"}
	errs := job.Errors()
	if len(errs) != 1 || errs[0] != "not json" {
		t.Fatalf("errors = %v", errs)
	}
}

func TestRecordStepCompletedRoundTrip(t *testing.T) {
	var job Job
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	job.RecordStepCompleted(StepTranscription, at)
	job.RecordStepCompleted(StepTranslation, at.Add(time.Minute))

	stamps := job.StepTimestamps()
	if got := stamps[StepTranscription]; !got.Equal(at) {
		t.Fatalf("transcription stamp = %v", got)
	}
	if got := stamps[StepTranslation]; !got.Equal(at.Add(time.Minute)) {
		t.Fatalf("translation stamp = %v", got)
	}
}

func TestStagingPaths(t *testing.T) {
	job := Job{ID: 7, Title: "My Talk", TargetLang: "es"}
	root := job.StagingRoot("/staging")
	if root != filepath.Join("/staging", "job-7") {
		t.Fatalf("root = %q", root)
	}
	if job.DubDir("/staging") != filepath.Join(root, "dub") {
		t.Fatalf("dub dir = %q", job.DubDir("/staging"))
	}
	if job.CaptionsDir("/staging") != filepath.Join(root, "captions") {
		t.Fatalf("captions dir = %q", job.CaptionsDir("/staging"))
	}
	if job.OutputBaseName() != "My-Talk.es" {
		t.Fatalf("base name = %q", job.OutputBaseName())
	}
}

func TestNextStepOrder(t *testing.T) {
	step := StepAudioExtraction
	var err error
	for i := 0; i < len(StepOrder)-1; i++ {
		step, err = nextStep(step)
		if err != nil {
			t.Fatalf("nextStep: %v", err)
		}
	}
	if step != StepCompleted {
		t.Fatalf("final step = %s", step)
	}
	if _, err := nextStep(StepCompleted); err == nil {
		t.Fatal("completed must have no successor")
	}
}
