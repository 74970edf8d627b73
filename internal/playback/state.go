package playback

import "strings"

// State represents the playback state.
type State int

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// IsActive returns true if playback is active (playing or paused).
func (s State) IsActive() bool {
	return s == StatePlaying || s == StatePaused
}

// RepeatMode decides what happens when a track plays to its end.
// The numeric values are persisted.
type RepeatMode int

const (
	RepeatNone RepeatMode = iota
	RepeatAll
	RepeatCurrent
	StopAfterCurrent
)

// String returns the repeat mode name.
func (m RepeatMode) String() string {
	switch m {
	case RepeatNone:
		return "none"
	case RepeatAll:
		return "all"
	case RepeatCurrent:
		return "current"
	case StopAfterCurrent:
		return "stop-after-current"
	default:
		return "unknown"
	}
}

// Next returns the mode that follows m in the user-facing cycle.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatNone:
		return RepeatAll
	case RepeatAll:
		return RepeatCurrent
	case RepeatCurrent:
		return StopAfterCurrent
	default:
		return RepeatNone
	}
}

// ParseRepeatMode parses a name as returned by String.
func ParseRepeatMode(s string) (RepeatMode, bool) {
	for m := RepeatNone; m <= StopAfterCurrent; m++ {
		if strings.EqualFold(s, m.String()) {
			return m, true
		}
	}
	return RepeatNone, false
}

// repeatModeFromInt maps a persisted value back to a mode. Unknown values
// fall back to RepeatNone.
func repeatModeFromInt(v int) RepeatMode {
	m := RepeatMode(v)
	if m < RepeatNone || m > StopAfterCurrent {
		return RepeatNone
	}
	return m
}
