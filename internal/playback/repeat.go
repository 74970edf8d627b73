package playback

import "github.com/llehouerou/playq/internal/queue"

// Action is what to do when the playing track ends.
type Action int

const (
	ActionStop Action = iota
	ActionAdvance
	ActionReplay
)

func (a Action) String() string {
	switch a {
	case ActionStop:
		return "stop"
	case ActionAdvance:
		return "advance"
	case ActionReplay:
		return "replay"
	default:
		return "unknown"
	}
}

// Decision is the outcome of Decide. Position is the cursor to apply; for
// ActionStop it is where the cursor stays.
type Decision struct {
	Action   Action
	Position int
}

// Decide returns the automatic follow-up for a track ending at pos in a
// queue of the given length. Manual navigation does not go through here.
func Decide(mode RepeatMode, pos, length int) Decision {
	if length <= 0 || pos < 0 || pos >= length {
		return Decision{Action: ActionStop, Position: queue.NoPosition}
	}

	switch mode {
	case RepeatCurrent:
		return Decision{Action: ActionReplay, Position: pos}
	case StopAfterCurrent:
		return Decision{Action: ActionStop, Position: pos}
	case RepeatAll:
		next := pos + 1
		if next >= length {
			next = 0
		}
		return Decision{Action: ActionAdvance, Position: next}
	default:
		if pos+1 >= length {
			return Decision{Action: ActionStop, Position: pos}
		}
		return Decision{Action: ActionAdvance, Position: pos + 1}
	}
}
