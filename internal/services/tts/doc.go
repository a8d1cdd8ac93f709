// Package tts drives a piper-style speech synthesis CLI.
//
// The engine is a black box: text in on stdin, one audio file out. The only
// timing control exposed is a speaking-rate multiplier, which is mapped to
// the engine's length-scale flag. Duration fitting on top of this lives in
// the dubfit package.
package tts
