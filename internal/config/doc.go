// Package config provides centralized TOML configuration for dubber.
//
// Configuration sections by subsystem:
//   - Paths: staging, output, and log directories
//   - Media: ffmpeg/ffprobe binaries and whole-track operation timeouts
//   - TTS: speech synthesis engine, voice, and per-segment timeout
//   - Transcription: speech recognition engine and model
//   - Translation: translation API connection, rate limit, and fallback policy
//   - Captions: soft-wrap width and rendered file size floor
//   - Logging: log format and level
//
// Load resolves the config file (explicit path, then ~/.config/dubber/config.toml,
// then ./dubber.toml), applies defaults, expands paths, and validates.
package config
