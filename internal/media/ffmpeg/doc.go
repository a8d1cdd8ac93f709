// Package ffmpeg wraps the ffmpeg binary for the media operations the dub
// pipeline delegates: audio extraction, silence generation, ordered clip
// concatenation, tempo rescaling, and final muxing.
//
// Every operation accepts a context and runs through an injectable command
// runner so tests can stub the binary.
package ffmpeg
