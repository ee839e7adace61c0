package audio

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrPermissionDenied is returned when audio capture access is refused.
	ErrPermissionDenied = errors.New("audio permission denied")
	// ErrUnavailable is returned when the platform cannot create a capture
	// or playback resource.
	ErrUnavailable = errors.New("audio resource unavailable")
)

const fileScheme = "file://"

// Reference is an opaque locator for recorded or bundled audio, normally a
// file:// URI.
type Reference string

// FileReference builds a file:// reference for a local path.
func FileReference(path string) Reference {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return Reference(fileScheme + path)
}

// Path resolves the reference to a local file path. Bare paths are accepted.
func (r Reference) Path() (string, error) {
	s := string(r)
	if s == "" {
		return "", fmt.Errorf("empty audio reference")
	}
	if strings.HasPrefix(s, fileScheme) {
		s = strings.TrimPrefix(s, fileScheme)
		if s == "" {
			return "", fmt.Errorf("audio reference %q has no path", string(r))
		}
		return s, nil
	}
	if strings.Contains(s, "://") {
		return "", fmt.Errorf("unsupported audio reference scheme: %s", string(r))
	}
	return s, nil
}

func (r Reference) String() string {
	return string(r)
}

// Quality is a capture preset.
type Quality struct {
	Name       string
	SampleRate int
	Channels   int
	Format     string
}

var (
	QualityHigh = Quality{Name: "high", SampleRate: 44100, Channels: 2, Format: "s16"}
	QualityLow  = Quality{Name: "low", SampleRate: 22050, Channels: 1, Format: "s16"}
)

// ParseQuality resolves a preset name. An empty name selects QualityHigh.
func ParseQuality(name string) (Quality, error) {
	switch strings.ToLower(name) {
	case "", "high":
		return QualityHigh, nil
	case "low":
		return QualityLow, nil
	default:
		return Quality{}, fmt.Errorf("unknown quality preset: %s", name)
	}
}

// Mode is the platform audio mode.
type Mode string

const (
	ModePlayback           Mode = "playback"
	ModeCaptureAndPlayback Mode = "capture+playback"
)

// Capture is an in-progress recording.
type Capture interface {
	// Stop ends the recording, releases the capture resource and returns a
	// reference to the recorded audio.
	Stop(ctx context.Context) (Reference, error)
}

// Playback is sound being rendered, once or looping.
type Playback interface {
	ID() string
	// Stop ends playback and releases the resource. Stopping a finished
	// playback is a no-op.
	Stop(ctx context.Context) error
	// Done is closed when playback has finished or was stopped.
	Done() <-chan struct{}
}

// Permissions reports and requests access to audio capture.
type Permissions interface {
	CheckPermission(ctx context.Context) (bool, error)
	RequestPermission(ctx context.Context) (bool, error)
}

// Platform is the audio capability surface the session engine depends on.
type Platform interface {
	Permissions

	SetMode(ctx context.Context, mode Mode) error
	StartCapture(ctx context.Context, quality Quality) (Capture, error)
	Play(ctx context.Context, ref Reference, loop bool) (Playback, error)
}
