package playback

import (
	"math/rand/v2"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/llehouerou/playq/internal/library"
	"github.com/llehouerou/playq/internal/player"
	"github.com/llehouerou/playq/internal/projection"
	"github.com/llehouerou/playq/internal/queue"
	"github.com/llehouerou/playq/internal/state"
)

// Verify serviceImpl implements Service at compile time.
var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	// mu guards everything below up to subs. It is never held across a
	// metadata fetch.
	mu sync.Mutex

	player  player.Interface
	queue   *queue.Queue
	proj    *projection.Projection[library.Track]
	history *queue.History
	mode    RepeatMode
	syncGen uint64
	rng     queue.Intn
	opts    Options

	subs   []*Subscription
	subsMu sync.RWMutex

	done   chan struct{}
	closed bool
}

// New creates a new playback service over an empty queue.
func New(p player.Interface, f projection.Fetcher[library.Track], opts Options) Service {
	if opts.RestartThreshold <= 0 {
		opts.RestartThreshold = defaultRestartThreshold
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = defaultHistorySize
	}
	rng := opts.Rand
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}

	s := &serviceImpl{
		player:  p,
		queue:   queue.New(),
		proj:    projection.New(f),
		history: queue.NewHistory(opts.HistorySize),
		rng:     rng,
		opts:    opts,
		done:    make(chan struct{}),
	}
	s.history.Push(s.queue.Snapshot())
	return s
}

// State returns the current playback state.
func (s *serviceImpl) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *serviceImpl) stateLocked() State {
	return playerStateToState(s.player.State())
}

func playerStateToState(ps player.State) State {
	switch ps {
	case player.Playing:
		return StatePlaying
	case player.Paused:
		return StatePaused
	case player.Stopped:
		return StateStopped
	default:
		return StateStopped
	}
}

func (s *serviceImpl) IsPlaying() bool {
	return s.State() == StatePlaying
}

// PlayerPosition returns the position inside the playing track.
func (s *serviceImpl) PlayerPosition() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player.Position()
}

// PlayerDuration returns the length of the playing track.
func (s *serviceImpl) PlayerDuration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player.Duration()
}

// Position returns the queue cursor.
func (s *serviceImpl) Position() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Position()
}

func (s *serviceImpl) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

func (s *serviceImpl) IDs() []queue.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.IDs()
}

// RowAt returns the metadata for a queue position. projection.ErrStale
// means Requery must run first.
func (s *serviceImpl) RowAt(position int) (library.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proj.RowAt(position)
}

// Current returns the metadata of the entry under the cursor.
func (s *serviceImpl) Current() (library.Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.currentRowLocked()
	if t == nil {
		return library.Track{}, false
	}
	return *t, true
}

func (s *serviceImpl) currentRowLocked() *library.Track {
	id, ok := s.queue.Current()
	if !ok {
		return nil
	}
	row, ok := s.proj.Snapshot().Row(id)
	if !ok {
		return nil
	}
	return &row
}

// Snapshot returns the state handed to the persister.
func (s *serviceImpl) Snapshot() state.QueueState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *serviceImpl) snapshotLocked() state.QueueState {
	pos, _ := s.queue.Position()
	return state.QueueState{
		IDs:        s.queue.IDs(),
		Position:   pos,
		RepeatMode: int(s.mode),
	}
}

// RepeatMode returns the current repeat mode.
func (s *serviceImpl) RepeatMode() RepeatMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *serviceImpl) SetRepeatMode(mode RepeatMode) {
	c := s.begin()
	s.mode = repeatModeFromInt(int(mode))
	s.end(c)
}

// CycleRepeatMode advances to the next mode and returns it.
func (s *serviceImpl) CycleRepeatMode() RepeatMode {
	c := s.begin()
	s.mode = s.mode.Next()
	mode := s.mode
	s.end(c)
	return mode
}

// Subscribe creates a new event subscription.
func (s *serviceImpl) Subscribe() *Subscription {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	sub := newSubscription()
	s.subs = append(s.subs, sub)
	zlog.Debug().Str("subscription", sub.ID).Msg("playback subscriber added")
	return sub
}

// Close stops playback and shuts down the service.
func (s *serviceImpl) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	s.player.Stop()
	s.mu.Unlock()

	s.subsMu.Lock()
	for _, sub := range s.subs {
		sub.close()
	}
	s.subs = nil
	s.subsMu.Unlock()

	return nil
}
