//go:build windows

// Package stderr is a no-op on Windows, where the audio backend does not
// write to the console.
package stderr

import (
	"io"
	"os"
)

type Capture struct{}

func Start(_ func(line string)) (*Capture, error) {
	return &Capture{}, nil
}

func (c *Capture) Original() io.Writer { return os.Stderr }

func (c *Capture) Stop() {}
