package playback

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/llehouerou/playq/internal/library"
	"github.com/llehouerou/playq/internal/queue"
	"github.com/llehouerou/playq/internal/state"
)

var (
	// ErrEmptyQueue is returned when there is nothing to play.
	ErrEmptyQueue = errors.New("queue is empty")
	// ErrOutOfRange is returned for a queue index outside [0, len).
	ErrOutOfRange = errors.New("queue index out of range")
	// ErrClosed is returned by commands issued after Close.
	ErrClosed = errors.New("playback service closed")
)

// Service defines the playback service contract. All methods are safe for
// concurrent use; commands are applied one at a time.
type Service interface {
	// Queue editing
	Enqueue(ctx context.Context, ids []queue.ID, mode queue.Mode) error
	Move(from, to int) bool
	RemoveRange(ctx context.Context, first, last int) (int, error)
	Interleave(ctx context.Context, ids []queue.ID, existingRun, newRun int) error
	Shuffle() bool
	Deduplicate() int
	Load(ctx context.Context, ids []queue.ID, pos int) error
	Restore(ctx context.Context, st state.QueueState) error
	Requery(ctx context.Context) ([]queue.ID, error)

	// Queue history
	Undo(ctx context.Context) (bool, error)
	Redo(ctx context.Context) (bool, error)

	// Queue navigation (opens the target entry)
	SetPosition(ctx context.Context, index int) error
	Next(ctx context.Context) (bool, error)
	Previous(ctx context.Context) (bool, error)
	PreviousOrRestart(ctx context.Context) (bool, error)

	// Playback control
	Play(ctx context.Context) error
	Pause()
	Toggle(ctx context.Context) error
	Stop()
	SeekTo(position time.Duration) error

	// Mode control
	RepeatMode() RepeatMode
	SetRepeatMode(mode RepeatMode)
	CycleRepeatMode() RepeatMode

	// State queries
	State() State
	IsPlaying() bool
	PlayerPosition() time.Duration
	PlayerDuration() time.Duration

	// Queue queries
	Position() (int, bool)
	QueueLen() int
	IDs() []queue.ID
	RowAt(position int) (library.Track, error)
	Current() (library.Track, bool)
	Snapshot() state.QueueState

	// Event subscription
	Subscribe() *Subscription

	// Lifecycle
	Run(ctx context.Context) error
	Close() error
}

// Persister receives the queue state after every change. Implementations
// must not block.
type Persister interface {
	SaveQueue(st state.QueueState)
}

// Options tunes the service.
type Options struct {
	// Autoplay starts the first entry when tracks are enqueued while
	// nothing is playing.
	Autoplay bool
	// RestartThreshold is how far into a track PreviousOrRestart seeks back
	// to its start instead of moving to the previous entry.
	RestartThreshold time.Duration
	// HistorySize bounds undo/redo.
	HistorySize int
	// Rand drives Shuffle. Nil seeds a generator from the clock.
	Rand queue.Intn
	// Persister is optional.
	Persister Persister
}

const (
	defaultRestartThreshold = 3 * time.Second
	defaultHistorySize      = 50
)
