// Package player plays local audio files through the system speaker.
package player

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

const (
	extMP3  = ".mp3"
	extFLAC = ".flac"
	extOGG  = ".ogg"
	extWAV  = ".wav"

	seekUnmuteDelay = 50 * time.Millisecond
	resampleQuality = 4
)

// ErrNoTrack is returned by SeekTo when nothing is loaded.
var ErrNoTrack = errors.New("no track loaded")

var (
	speakerMu          sync.Mutex
	speakerInitialized bool
	speakerSampleRate  beep.SampleRate
)

// Player is a beep-backed Interface. Methods are safe for concurrent use.
type Player struct {
	mu       sync.Mutex
	state    State
	file     *os.File
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume

	finishedCh chan struct{}
	errCh      chan error
}

func New() *Player {
	return &Player{
		state:      Stopped,
		finishedCh: make(chan struct{}, 1),
		errCh:      make(chan error, 1),
	}
}

// Supported reports whether path has an extension the player can decode.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case extMP3, extFLAC, extOGG, extWAV:
		return true
	}
	return false
}

// Open loads path, replacing any current track. The track starts paused at
// position zero.
func (p *Player) Open(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	p.drain()

	ext := strings.ToLower(filepath.Ext(path))
	if !Supported(path) {
		return errors.Newf("unsupported format: %s", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}

	streamer, format, err := decode(ext, f)
	if err != nil {
		f.Close()
		return errors.Wrapf(err, "decode %s", path)
	}

	if err := initSpeaker(format.SampleRate); err != nil {
		streamer.Close()
		f.Close()
		return err
	}

	// Resample if the track's sample rate differs from the speaker's
	var playStreamer beep.Streamer = streamer
	if format.SampleRate != speakerSampleRate {
		playStreamer = beep.Resample(resampleQuality, format.SampleRate, speakerSampleRate, streamer)
	}

	p.file = f
	p.streamer = streamer
	p.format = format
	p.ctrl = &beep.Ctrl{Streamer: playStreamer, Paused: true}
	p.volume = &effects.Volume{Streamer: p.ctrl, Base: 2}
	p.state = Paused

	// The callback runs on the speaker goroutine with the speaker locked, so
	// it only touches the buffered channels.
	finished, errs := p.finishedCh, p.errCh
	speaker.Play(beep.Seq(p.volume, beep.Callback(func() {
		if err := streamer.Err(); err != nil {
			select {
			case errs <- err:
			default:
			}
			return
		}
		select {
		case finished <- struct{}{}:
		default:
		}
	})))

	return nil
}

// Probe decodes the stream header of path and returns its length.
func Probe(path string) (time.Duration, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !Supported(path) {
		return 0, errors.Newf("unsupported format: %s", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	streamer, format, err := decode(ext, f)
	if err != nil {
		return 0, errors.Wrapf(err, "decode %s", path)
	}
	defer streamer.Close()

	return format.SampleRate.D(streamer.Len()), nil
}

func decode(ext string, f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
	switch ext {
	case extMP3:
		return mp3.Decode(f)
	case extFLAC:
		// Some taggers prepend ID3v2 to FLAC files
		if err := skipID3v2(f); err != nil {
			return nil, beep.Format{}, err
		}
		return flac.Decode(f)
	case extOGG:
		return vorbis.Decode(f)
	default:
		return wav.Decode(f)
	}
}

func initSpeaker(rate beep.SampleRate) error {
	speakerMu.Lock()
	defer speakerMu.Unlock()
	if speakerInitialized {
		return nil
	}
	if err := speaker.Init(rate, rate.N(time.Second/10)); err != nil {
		return errors.Wrap(err, "init speaker")
	}
	speakerSampleRate = rate
	speakerInitialized = true
	return nil
}

// Play resumes a loaded track.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Paused || p.ctrl == nil {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = false
	speaker.Unlock()
	p.state = Playing
}

// Pause pauses playback.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Playing || p.ctrl == nil {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
	p.state = Paused
}

// Toggle toggles between playing and paused states.
func (p *Player) Toggle() {
	switch p.State() {
	case Playing:
		p.Pause()
	case Paused:
		p.Play()
	case Stopped:
		// Nothing to toggle when stopped
	}
}

// Stop stops playback and releases the track.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Player) stopLocked() {
	if p.state == Stopped {
		return
	}

	speaker.Clear()

	if p.streamer != nil {
		p.streamer.Close()
		p.streamer = nil
	}
	if p.file != nil {
		p.file.Close()
		p.file = nil
	}

	p.ctrl = nil
	p.volume = nil
	p.state = Stopped
}

// drain discards a finish or error signal left by the previous track.
func (p *Player) drain() {
	select {
	case <-p.finishedCh:
	default:
	}
	select {
	case <-p.errCh:
	default:
	}
}

// SeekTo moves to an absolute position, clamped to the track length.
// Output is muted briefly around the jump to avoid clicks.
func (p *Player) SeekTo(pos time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer == nil {
		return ErrNoTrack
	}

	n := min(max(p.format.SampleRate.N(pos), 0), p.streamer.Len())

	volume := p.volume
	speaker.Lock()
	volume.Silent = true
	err := p.streamer.Seek(n)
	speaker.Unlock()

	time.AfterFunc(seekUnmuteDelay, func() {
		speaker.Lock()
		volume.Silent = false
		speaker.Unlock()
	})

	return errors.Wrap(err, "seek")
}

// Position returns the current playback position.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := p.format.SampleRate.D(p.streamer.Position())
	speaker.Unlock()
	return pos
}

// Duration returns the length of the loaded track.
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer == nil {
		return 0
	}
	return p.format.SampleRate.D(p.streamer.Len())
}

func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Player) IsPlaying() bool {
	return p.State() == Playing
}

func (p *Player) Finished() <-chan struct{} {
	return p.finishedCh
}

func (p *Player) Errors() <-chan error {
	return p.errCh
}

// Close stops playback. The speaker stays initialized for the process.
func (p *Player) Close() error {
	p.Stop()
	return nil
}

// skipID3v2 skips an ID3v2 tag if present at the beginning of the file.
func skipID3v2(r io.ReadSeeker) error {
	header := make([]byte, 10)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return err
	}
	if n < 10 || string(header[0:3]) != "ID3" {
		_, err = r.Seek(0, io.SeekStart)
		return err
	}

	// Syncsafe integer: 7 bits per byte
	size := int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])

	_, err = r.Seek(10+size, io.SeekStart)
	return err
}
