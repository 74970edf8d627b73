//go:build !linux

package mpris

import (
	"context"

	"github.com/llehouerou/playq/internal/playback"
)

// Adapter is a no-op on non-Linux platforms.
type Adapter struct{}

func New(_ context.Context, _ playback.Service) (*Adapter, error) {
	return &Adapter{}, nil
}

func (a *Adapter) Close() error {
	return nil
}
