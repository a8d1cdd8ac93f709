package queue

import (
	"fmt"
	"path/filepath"
	"strings"
)

// StagingRoot returns the per-job staging directory rooted at base.
func (j Job) StagingRoot(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	return filepath.Join(base, fmt.Sprintf("job-%d", j.ID))
}

// DubDir is the scratch area for synthesized clips and the assembled track.
func (j Job) DubDir(base string) string {
	root := j.StagingRoot(base)
	if root == "" {
		return ""
	}
	return filepath.Join(root, "dub")
}

// CaptionsDir holds the rendered caption and transcript files.
func (j Job) CaptionsDir(base string) string {
	root := j.StagingRoot(base)
	if root == "" {
		return ""
	}
	return filepath.Join(root, "captions")
}

// OutputBaseName is the stem used for final artifacts.
func (j Job) OutputBaseName() string {
	title := strings.TrimSpace(j.Title)
	if title == "" {
		title = fmt.Sprintf("job-%d", j.ID)
	}
	title = strings.ReplaceAll(title, " ", "-")
	lang := strings.TrimSpace(j.TargetLang)
	if lang != "" {
		return title + "." + lang
	}
	return title
}
