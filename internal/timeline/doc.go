// Package timeline assembles fitted segment clips into one continuous dub
// track whose duration tracks the source video.
package timeline
