package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateCaptions(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	return nil
}

func (c *Config) validateTranslation() error {
	if c.Translation.APIKey == "" && !c.Translation.FallbackToSource {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/dubber/config.toml"
		}
		return fmt.Errorf("translation.api_key is required unless translation.fallback_to_source is enabled. Set DUBBER_TRANSLATION_API_KEY or edit %s (create with 'dubber config init')", defaultPath)
	}
	if c.Translation.RequestsPerMinute > 6000 {
		return errors.New("translation.requests_per_minute is implausibly high (max 6000)")
	}
	return nil
}

func (c *Config) validateCaptions() error {
	if c.Captions.WrapWidth < 16 || c.Captions.WrapWidth > 200 {
		return errors.New("captions.wrap_width must be between 16 and 200")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
}
