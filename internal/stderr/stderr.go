//go:build !windows

// Package stderr captures output that C audio libraries (ALSA) write
// directly to file descriptor 2, bypassing os.Stderr.
package stderr

import (
	"bufio"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
)

// Capture redirects fd 2 into a pipe until Stop.
type Capture struct {
	orig     int
	original *os.File
	r, w     *os.File
	done     chan struct{}
}

// Start redirects fd 2 and passes every non-empty line to sink on a
// background goroutine. Must be called before the audio device is opened.
func Start(sink func(line string)) (*Capture, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, errors.Wrap(err, "create pipe")
	}

	orig, err := syscall.Dup(int(os.Stderr.Fd()))
	if err != nil {
		r.Close()
		w.Close()
		return nil, errors.Wrap(err, "dup stderr")
	}

	if err := syscall.Dup2(int(w.Fd()), int(os.Stderr.Fd())); err != nil {
		syscall.Close(orig)
		r.Close()
		w.Close()
		return nil, errors.Wrap(err, "redirect stderr")
	}

	c := &Capture{
		orig:     orig,
		original: os.NewFile(uintptr(orig), "stderr"),
		r:        r,
		w:        w,
		done:     make(chan struct{}),
	}
	go c.pump(sink)
	return c, nil
}

func (c *Capture) pump(sink func(string)) {
	defer close(c.done)
	sc := bufio.NewScanner(c.r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			sink(line)
		}
	}
}

// Original writes to the terminal's stderr, bypassing the capture.
func (c *Capture) Original() io.Writer {
	return c.original
}

// Stop restores fd 2 and waits for buffered lines to reach the sink.
func (c *Capture) Stop() {
	_ = syscall.Dup2(c.orig, int(os.Stderr.Fd()))
	c.w.Close()
	<-c.done
	c.r.Close()
	c.original.Close()
}
