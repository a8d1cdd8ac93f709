package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMedia()
	c.normalizeTTS()
	c.normalizeTranscription()
	c.normalizeTranslation()
	c.normalizeCaptions()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeMedia() {
	if strings.TrimSpace(c.Media.FFmpegBinary) == "" {
		c.Media.FFmpegBinary = defaultFFmpegBinary
	}
	if strings.TrimSpace(c.Media.FFprobeBinary) == "" {
		c.Media.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Media.TrackTimeout <= 0 {
		c.Media.TrackTimeout = defaultTrackTimeout
	}
}

func (c *Config) normalizeTTS() {
	if strings.TrimSpace(c.TTS.Binary) == "" {
		c.TTS.Binary = defaultTTSBinary
	}
	if strings.TrimSpace(c.TTS.Voice) == "" {
		c.TTS.Voice = defaultTTSVoice
	}
	if c.TTS.SegmentTimeout <= 0 {
		c.TTS.SegmentTimeout = defaultSegmentTimeout
	}
}

func (c *Config) normalizeTranscription() {
	if strings.TrimSpace(c.Transcription.Binary) == "" {
		c.Transcription.Binary = defaultTranscriptionBinary
	}
	if strings.TrimSpace(c.Transcription.Model) == "" {
		c.Transcription.Model = defaultTranscriptionModel
	}
	if c.Transcription.Timeout <= 0 {
		c.Transcription.Timeout = defaultTranscriptionTimeout
	}
}

func (c *Config) normalizeTranslation() {
	if c.Translation.APIKey == "" {
		c.Translation.APIKey = strings.TrimSpace(os.Getenv("DUBBER_TRANSLATION_API_KEY"))
	}
	if strings.TrimSpace(c.Translation.BaseURL) == "" {
		c.Translation.BaseURL = defaultTranslationBaseURL
	}
	if strings.TrimSpace(c.Translation.Model) == "" {
		c.Translation.Model = defaultTranslationModel
	}
	if c.Translation.Timeout <= 0 {
		c.Translation.Timeout = defaultTranslationTimeout
	}
	if c.Translation.RequestsPerMinute < 0 {
		c.Translation.RequestsPerMinute = 0
	}
}

func (c *Config) normalizeCaptions() {
	if c.Captions.WrapWidth <= 0 {
		c.Captions.WrapWidth = defaultCaptionWrapWidth
	}
	if c.Captions.MinFileBytes <= 0 {
		c.Captions.MinFileBytes = defaultCaptionMinFileBytes
	}
}

func (c *Config) normalizeLogging() {
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaultLogFormat
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaultLogLevel
	}
}
