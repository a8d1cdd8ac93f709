// Package segment defines the timed speech segment model shared by the
// transcription, translation, dub assembly, and caption stages, together
// with the text hygiene helpers applied before synthesis and rendering.
package segment
