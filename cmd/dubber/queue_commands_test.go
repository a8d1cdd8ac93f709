package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dubber/internal/queue"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	content := fmt.Sprintf(`[paths]
staging_dir = %q
output_dir = %q
log_dir = %q

[translation]
api_key = "test"
`, filepath.Join(base, "staging"), filepath.Join(base, "out"), filepath.Join(base, "logs"))
	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeVideoFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "My_Movie.mp4")
	if err := os.WriteFile(path, []byte("not really a video"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	return path
}

func TestSubmitThenListAndShow(t *testing.T) {
	cfgPath := writeTestConfig(t)
	video := writeVideoFile(t)

	out, err := runCLI(t, "--config", cfgPath, "submit", video, "--target-lang", "es")
	if err != nil {
		t.Fatalf("submit: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Queued job 1") {
		t.Fatalf("expected queued confirmation, got:\n%s", out)
	}
	if !strings.Contains(out, "English -> Spanish") {
		t.Fatalf("expected language summary, got:\n%s", out)
	}

	out, err = runCLI(t, "--config", cfgPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v\n%s", err, out)
	}
	if !strings.Contains(out, "My Movie") || !strings.Contains(out, "uploaded") {
		t.Fatalf("expected job row, got:\n%s", out)
	}

	out, err = runCLI(t, "--config", cfgPath, "show", "1")
	if err != nil {
		t.Fatalf("show: %v\n%s", err, out)
	}
	if !strings.Contains(out, "en -> es") && !strings.Contains(out, "English -> Spanish") {
		t.Fatalf("expected language detail, got:\n%s", out)
	}
}

func TestSubmitRejectsUnknownTargetLanguage(t *testing.T) {
	cfgPath := writeTestConfig(t)
	video := writeVideoFile(t)

	out, err := runCLI(t, "--config", cfgPath, "submit", video, "--target-lang", "zz")
	if err == nil {
		t.Fatalf("expected error for unknown language, got:\n%s", out)
	}
}

func TestSubmitRejectsMissingFile(t *testing.T) {
	cfgPath := writeTestConfig(t)

	_, err := runCLI(t, "--config", cfgPath, "submit", filepath.Join(t.TempDir(), "absent.mp4"), "--target-lang", "es")
	if err == nil {
		t.Fatal("expected error for missing source file")
	}
}

func TestQueueStatusEmpty(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := runCLI(t, "--config", cfgPath, "queue", "status")
	if err != nil {
		t.Fatalf("queue status: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Queue is empty") {
		t.Fatalf("expected empty-queue message, got:\n%s", out)
	}
}

func TestQueueClearReportsCount(t *testing.T) {
	cfgPath := writeTestConfig(t)
	video := writeVideoFile(t)

	if out, err := runCLI(t, "--config", cfgPath, "submit", video, "--target-lang", "fr"); err != nil {
		t.Fatalf("submit: %v\n%s", err, out)
	}
	out, err := runCLI(t, "--config", cfgPath, "queue", "clear")
	if err != nil {
		t.Fatalf("queue clear: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Removed 1 job(s)") {
		t.Fatalf("expected removal count, got:\n%s", out)
	}
}

func TestBuildQueueStatusRows(t *testing.T) {
	rows := buildQueueStatusRows(queue.Stats{Total: 3, Uploaded: 2, Failed: 1})
	if len(rows) != 3 {
		t.Fatalf("expected uploaded, failed, and total rows, got %v", rows)
	}
	last := rows[len(rows)-1]
	if last[0] != "total" || last[1] != "3" {
		t.Fatalf("expected total row last, got %v", last)
	}
}
