// Package pipeline orchestrates one dubbing job through its fixed stage
// sequence: audio extraction, transcription, translation, dub synthesis,
// caption generation, and video assembly.
//
// Every stage transition is persisted before the next stage starts, so a
// crash leaves an accurate step marker behind for diagnosis.
package pipeline
