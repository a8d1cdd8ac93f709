// Package language provides unified language code normalization and mapping.
//
// All language-related conversions (ISO 639-1, ISO 639-2, display names)
// are consolidated here to avoid duplication across the transcription,
// translation, and caption packages.
package language
