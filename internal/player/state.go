package player

// State represents the playback state machine.
//
//	┌──────────┐      open       ┌──────────┐
//	│  Stopped │ ───────────────▶│  Paused  │
//	└──────────┘                 └──────────┘
//	     ▲                          │    ▲
//	     │ stop                play │    │ pause
//	     │                          ▼    │
//	     │                       ┌──────────┐
//	     └───────────────────────│  Playing │
//	                             └──────────┘
//
// Open loads a track at position zero without starting it. Stop is valid
// from any state and releases the track. Toggle flips Playing and Paused
// and is a no-op when Stopped. All other transitions are ignored.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

// String returns the state name for debugging.
func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// IsActive returns true if a track is loaded (Playing or Paused).
func (s State) IsActive() bool {
	return s == Playing || s == Paused
}
