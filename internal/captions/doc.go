// Package captions renders caption and transcript files synchronized to the
// achieved dub track duration.
//
// Timing is re-derived from the assembled track rather than the original
// transcript, since translation and re-speaking change utterance lengths.
// Rendering is deterministic: the same segments and duration always produce
// byte-identical files.
package captions
