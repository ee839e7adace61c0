package session

import (
	"context"
	"fmt"

	"github.com/audiolibrelab/soundboard/internal/audio"
)

// Recorder starts and ends captures
type Recorder struct {
	platform audio.Platform
	gate     *Gate
	quality  audio.Quality
}

func NewRecorder(platform audio.Platform, gate *Gate, quality audio.Quality) *Recorder {
	return &Recorder{platform: platform, gate: gate, quality: quality}
}

// Begin acquires permission and switches to capture mode before starting
func (r *Recorder) Begin(ctx context.Context) (audio.Capture, error) {
	if err := r.gate.Ensure(ctx); err != nil {
		return nil, err
	}

	if err := r.platform.SetMode(ctx, audio.ModeCaptureAndPlayback); err != nil {
		return nil, fmt.Errorf("set audio mode: %w", err)
	}

	capture, err := r.platform.StartCapture(ctx, r.quality)
	if err != nil {
		return nil, fmt.Errorf("start capture: %w", err)
	}

	return capture, nil
}

func (r *Recorder) End(ctx context.Context, capture audio.Capture) (audio.Reference, error) {
	ref, err := capture.Stop(ctx)
	if err != nil {
		return "", fmt.Errorf("stop capture: %w", err)
	}

	return ref, nil
}
