package keymap

import (
	"fmt"
	"strings"
)

// Binding maps input words to an action.
type Binding struct {
	Action      Action
	Keys        []string
	Args        string // argument synopsis, e.g. "<seconds>"
	Description string
}

// Session holds the interactive session bindings. An empty line is bound
// to play/pause.
var Session = []Binding{
	{ActionNextTrack, []string{"n", "next"}, "", "Next entry"},
	{ActionPrevTrack, []string{"p", "prev", "previous"}, "", "Previous entry, or restart the track"},
	{ActionPlayPause, []string{"", "t", "toggle", "space"}, "", "Play/pause"},
	{ActionStop, []string{"s", "stop"}, "", "Stop"},
	{ActionSeek, []string{"seek"}, "<seconds>", "Seek within the track"},
	{ActionJump, []string{"j", "jump"}, "<entry>", "Play an entry"},
	{ActionUndo, []string{"u", "undo"}, "", "Undo the last queue edit"},
	{ActionRedo, []string{"r", "redo"}, "", "Redo"},
	{ActionRepeat, []string{"repeat"}, "[mode]", "Cycle or set the repeat mode"},
	{ActionList, []string{"l", "ls", "list"}, "", "Show the queue"},
	{ActionHelp, []string{"h", "help", "?"}, "", "Show this help"},
	{ActionQuit, []string{"q", "quit", "exit"}, "", "Quit"},
}

// Help renders bindings as an aligned two-column listing.
func Help(bindings []Binding) string {
	usages := make([]string, len(bindings))
	width := 0
	for i, b := range bindings {
		keys := make([]string, 0, len(b.Keys))
		for _, k := range b.Keys {
			if k == "" {
				k = "enter"
			}
			keys = append(keys, k)
		}
		usages[i] = strings.Join(keys, ", ")
		if b.Args != "" {
			usages[i] += " " + b.Args
		}
		width = max(width, len(usages[i]))
	}

	var sb strings.Builder
	for i, b := range bindings {
		fmt.Fprintf(&sb, "  %-*s  %s\n", width, usages[i], b.Description)
	}
	return sb.String()
}
