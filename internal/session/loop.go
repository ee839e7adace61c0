package session

import (
	"context"
	"fmt"

	"github.com/audiolibrelab/soundboard/internal/audio"
)

// Looper starts and stops looping playbacks
type Looper struct {
	platform audio.Platform
	gate     *Gate
}

func NewLooper(platform audio.Platform, gate *Gate) *Looper {
	return &Looper{platform: platform, gate: gate}
}

func (l *Looper) Start(ctx context.Context, ref audio.Reference) (audio.Playback, error) {
	if err := l.gate.Ensure(ctx); err != nil {
		return nil, err
	}

	pb, err := l.platform.Play(ctx, ref, true)
	if err != nil {
		return nil, fmt.Errorf("loop %s: %w", ref, err)
	}

	return pb, nil
}

// Stop releases the loop; the handle must not be reused
func (l *Looper) Stop(ctx context.Context, pb audio.Playback) error {
	if err := pb.Stop(ctx); err != nil {
		return fmt.Errorf("stop loop %s: %w", pb.ID(), err)
	}

	return nil
}
