package player

import "time"

// Interface is the audio engine the playback service drives.
//
// Finished delivers one value each time the loaded track plays to its end.
// Errors delivers decode or output failures; the track is stopped first.
type Interface interface {
	Open(path string) error
	Play()
	Pause()
	Toggle()
	Stop()
	SeekTo(pos time.Duration) error
	Position() time.Duration
	Duration() time.Duration
	State() State
	IsPlaying() bool
	Finished() <-chan struct{}
	Errors() <-chan error
	Close() error
}

// Verify Player implements Interface at compile time.
var _ Interface = (*Player)(nil)
