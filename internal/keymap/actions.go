// Package keymap defines the words accepted by the interactive session and
// the actions they trigger.
package keymap

// Action represents a user-triggerable action.
type Action string

const (
	ActionQuit Action = "quit"
	ActionHelp Action = "help"
	ActionList Action = "list"

	// Playback
	ActionPlayPause Action = "play_pause"
	ActionStop      Action = "stop"
	ActionNextTrack Action = "next_track"
	ActionPrevTrack Action = "prev_track"
	ActionSeek      Action = "seek"
	ActionJump      Action = "jump"
	ActionRepeat    Action = "repeat"

	// Queue history
	ActionUndo Action = "undo"
	ActionRedo Action = "redo"
)
