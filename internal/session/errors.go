package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/audiolibrelab/soundboard/internal/audio"
)

// Kind classifies a failed operation
type Kind int

const (
	KindResourceUnavailable Kind = iota
	KindPermissionDenied
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindPermissionDenied:
		return "permission-denied"
	case KindPersistence:
		return "persistence-failure"
	default:
		return "resource-unavailable"
	}
}

// Failure describes an operation that did not take effect
type Failure struct {
	Op    string
	Slot  int // -1 for bundled clips
	Label string
	Kind  Kind
	Err   error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s %q: %s: %v", f.Op, f.Label, f.Kind, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

type FailureHandler func(Failure)

// LogFailure is the default FailureHandler
func LogFailure(f Failure) {
	level := slog.LevelError
	if f.Kind == KindPermissionDenied {
		level = slog.LevelWarn
	}

	slog.Log(context.Background(), level, "Soundboard operation failed",
		"op", f.Op,
		"slot", f.Slot,
		"label", f.Label,
		"kind", f.Kind.String(),
		"error", f.Err)
}

func classify(err error) Kind {
	if errors.Is(err, audio.ErrPermissionDenied) {
		return KindPermissionDenied
	}
	return KindResourceUnavailable
}
