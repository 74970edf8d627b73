// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Library operations
	OpLibraryOpen   Op = "open library"
	OpLibraryImport Op = "import file"
	OpLibraryRemove Op = "remove track from library"
	OpImportTags    Op = "read file tags"

	// Queue operations
	OpQueueLoad       Op = "load queue"
	OpQueueSave       Op = "save queue"
	OpQueueAdd        Op = "add to queue"
	OpQueueMove       Op = "move queue entry"
	OpQueueRemove     Op = "remove from queue"
	OpQueueInterleave Op = "interleave tracks"
	OpQueueShuffle    Op = "shuffle queue"
	OpQueueDedup      Op = "remove duplicates"
	OpQueueClear      Op = "clear queue"
	OpQueueRepeat     Op = "set repeat mode"
	OpQueueRequery    Op = "refresh queue"
	OpQueueUndo       Op = "undo queue change"
	OpQueueRedo       Op = "redo queue change"

	// Playback operations
	OpPlaybackStart Op = "start playback"
	OpPlaybackJump  Op = "jump to entry"
	OpPlaybackSeek  Op = "seek"

	// Initialization
	OpConfigLoad Op = "load configuration"
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
