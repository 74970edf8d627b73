package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/llehouerou/playq/internal/library"
	"github.com/llehouerou/playq/internal/playback"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	currentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	footerStyle  = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(lipgloss.Color("240"))
)

// column renders s on a single line of exactly width cells, truncating
// with an ellipsis.
func column(s string, width int, align lipgloss.Position) string {
	s = runewidth.Truncate(s, width, "…")
	return lipgloss.NewStyle().
		Width(width).
		MaxWidth(width).
		MaxHeight(1).
		Align(align).
		Render(s)
}

func queueLine(marker, num, title, artist, album, length string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		column(marker, 2, lipgloss.Left),
		column(num, 5, lipgloss.Right),
		"  ",
		column(title, 32, lipgloss.Left),
		" ",
		column(artist, 22, lipgloss.Left),
		" ",
		column(album, 22, lipgloss.Left),
		" ",
		column(length, 6, lipgloss.Right),
	)
}

func renderQueue(w io.Writer, svc playback.Service) {
	ids := svc.IDs()
	if len(ids) == 0 {
		fmt.Fprintln(w, dimStyle.Render("Queue is empty"))
		return
	}
	pos, playing := svc.Position()

	var b strings.Builder
	b.WriteString(headerStyle.Render(queueLine("", "#", "Title", "Artist", "Album", "Time")))
	b.WriteByte('\n')

	var total time.Duration
	for i, id := range ids {
		marker := ""
		if playing && i == pos {
			marker = "▶"
		}
		t, err := svc.RowAt(i)
		if err != nil {
			line := queueLine(marker, fmt.Sprint(i+1), fmt.Sprintf("track %d (unavailable)", id), "", "", "")
			b.WriteString(dimStyle.Render(line))
			b.WriteByte('\n')
			continue
		}
		total += t.Duration
		line := queueLine(marker, fmt.Sprint(i+1), t.Title, t.Artist, t.Album, formatDuration(t.Duration))
		if playing && i == pos {
			line = currentStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	summary := fmt.Sprintf("%s %s, %s, repeat %s",
		humanize.Comma(int64(len(ids))), plural(len(ids), "entry"),
		formatDuration(total), svc.RepeatMode())
	if playing {
		summary += fmt.Sprintf(", at the %s", humanize.Ordinal(pos+1))
	}
	b.WriteString(footerStyle.Render(summary))
	fmt.Fprintln(w, b.String())
}

func trackLabel(t library.Track) string {
	if t.Artist == "" {
		return t.Title
	}
	return t.Artist + " - " + t.Title
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
