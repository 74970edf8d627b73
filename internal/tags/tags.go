// Package tags reads the metadata the library stores for an audio file.
package tags

import (
	"path/filepath"
	"strings"
	"time"
)

// File extensions the player can decode.
const (
	ExtMP3  = ".mp3"
	ExtFLAC = ".flac"
	ExtOGG  = ".ogg"
	ExtWAV  = ".wav"
)

// id3Magic is the magic bytes for ID3v2 header detection.
const id3Magic = "ID3"

// Tag is what Read extracts from a file.
type Tag struct {
	Path     string
	Title    string
	Artist   string
	Album    string
	Duration time.Duration
	MimeType string
}

// MimeType returns the media type for a supported extension, or "" if the
// extension is not supported.
func MimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtMP3:
		return "audio/mpeg"
	case ExtFLAC:
		return "audio/flac"
	case ExtOGG:
		return "audio/ogg"
	case ExtWAV:
		return "audio/wav"
	default:
		return ""
	}
}

// IsMusicFile returns true if the path has a supported music file extension.
func IsMusicFile(path string) bool {
	return MimeType(path) != ""
}

// titleFromPath is the fallback title for untagged files.
func titleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
