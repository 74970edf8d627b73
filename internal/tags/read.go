package tags

import (
	"bytes"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/dhowden/tag"
	zlog "github.com/rs/zerolog/log"

	"github.com/llehouerou/playq/internal/player"
)

// ErrUnsupported is returned for files the player cannot decode.
var ErrUnsupported = errors.New("unsupported audio format")

// Read reads tag metadata and the stream length of a music file.
// Files without readable tags are titled after their file name. A stream
// that cannot be measured is reported with zero duration.
func Read(path string) (*Tag, error) {
	mime := MimeType(path)
	if mime == "" {
		return nil, errors.Wrapf(ErrUnsupported, "%s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	t := &Tag{
		Path:     path,
		Title:    titleFromPath(path),
		MimeType: mime,
	}

	if m, err := tag.ReadFrom(f); err == nil {
		if m.Title() != "" {
			t.Title = m.Title()
		}
		t.Artist = m.Artist()
		if t.Artist == "" {
			t.Artist = m.AlbumArtist()
		}
		t.Album = m.Album()
	} else if hasID3(f) {
		zlog.Debug().Err(err).Str("path", path).Msg("unreadable ID3 tag")
	}

	d, err := player.Probe(path)
	if err != nil {
		zlog.Debug().Err(err).Str("path", path).Msg("could not measure stream")
	}
	t.Duration = d

	return t, nil
}

// hasID3 reports whether r starts with an ID3v2 header.
func hasID3(r io.ReadSeeker) bool {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return false
	}
	magic := make([]byte, len(id3Magic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return false
	}
	return bytes.Equal(magic, []byte(id3Magic))
}
