package playback

import (
	"time"

	"github.com/llehouerou/playq/internal/library"
	"github.com/llehouerou/playq/internal/queue"
)

// StateChange is emitted when playback state changes.
type StateChange struct {
	Previous State
	Current  State
}

// TrackChange is emitted when a different queue entry starts, or the same
// one is re-opened.
//
// Emitted by:
//   - Enqueue with EnqueueNow, or into an idle queue with autoplay
//   - SetPosition/Next/Previous/Load/Play when a track is opened
//   - removal of the playing entry when playback falls back to a neighbor
//   - a track ending, unless the repeat mode stops playback
//
// NOT emitted by Move or Shuffle: the same entry keeps playing and only its
// index changes, which QueueChange reports.
//
// Current is nil when nothing plays anymore.
type TrackChange struct {
	Previous      *library.Track
	Current       *library.Track
	PreviousIndex int
	Index         int
}

// QueueChange is emitted when queue contents or the cursor index change.
type QueueChange struct {
	IDs      []queue.ID
	Position int
	// Removed lists ids excised because their metadata vanished.
	Removed []queue.ID
}

// ModeChange is emitted when the repeat mode changes.
type ModeChange struct {
	RepeatMode RepeatMode
}

// PositionChange is emitted when a seek occurs.
type PositionChange struct {
	Position time.Duration
}

// ErrorEvent is emitted when the audio engine reports a failure.
type ErrorEvent struct {
	Operation string // e.g., "open", "playback"
	Path      string // track path if applicable
	Err       error
}
