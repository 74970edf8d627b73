package player

import (
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

// Detached tracks engine state without producing sound. It backs one-shot
// queue edits that must not grab the audio device; tracks never finish.
type Detached struct {
	mu       sync.Mutex
	state    State
	position time.Duration

	finishedCh chan struct{}
	errCh      chan error
}

func NewDetached() *Detached {
	return &Detached{
		finishedCh: make(chan struct{}),
		errCh:      make(chan error),
	}
}

// Open checks that path exists and is decodable by extension.
func (d *Detached) Open(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = Stopped
	if !Supported(path) {
		return errors.Newf("unsupported format: %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	d.state = Paused
	d.position = 0
	return nil
}

func (d *Detached) Play() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == Paused {
		d.state = Playing
	}
}

func (d *Detached) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == Playing {
		d.state = Paused
	}
}

func (d *Detached) Toggle() {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch d.state {
	case Playing:
		d.state = Paused
	case Paused:
		d.state = Playing
	case Stopped:
	}
}

func (d *Detached) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = Stopped
	d.position = 0
}

func (d *Detached) SeekTo(pos time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == Stopped {
		return ErrNoTrack
	}
	d.position = max(pos, 0)
	return nil
}

func (d *Detached) Position() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.position
}

func (d *Detached) Duration() time.Duration { return 0 }

func (d *Detached) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Detached) IsPlaying() bool { return d.State() == Playing }

func (d *Detached) Finished() <-chan struct{} { return d.finishedCh }

func (d *Detached) Errors() <-chan error { return d.errCh }

func (d *Detached) Close() error {
	d.Stop()
	return nil
}

// Verify Detached implements Interface at compile time.
var _ Interface = (*Detached)(nil)
