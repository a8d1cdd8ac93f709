package preflight

import (
	"context"

	"dubber/internal/config"
	"dubber/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir))
	results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	results = append(results, CheckDiskSpace("Staging disk space", cfg.Paths.StagingDir, minimumFreeBytes))

	if cfg.Translation.APIKey != "" {
		results = append(results, CheckTranslationAPI(ctx, cfg))
	}

	return results
}

// CheckSystemDeps evaluates the external binaries the pipeline shells out
// to. Both the run command and the status command use this list.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Media.FFmpegBinary,
			Description: "Required for audio extraction, concatenation, and muxing",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Media.FFprobeBinary,
			Description: "Required for duration measurement",
		},
		{
			Name:        "Speech recognition",
			Command:     cfg.Transcription.Binary,
			Description: "Required for transcription",
		},
		{
			Name:        "Speech synthesis",
			Command:     cfg.TTS.Binary,
			Description: "Required for dub synthesis",
		},
	}
	return deps.CheckBinaries(requirements)
}
