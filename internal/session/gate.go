package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/audiolibrelab/soundboard/internal/audio"
)

// Gate holds the process-wide audio permission, requested on first use.
// A refusal is not remembered
type Gate struct {
	perms audio.Permissions

	mu      sync.Mutex
	granted bool
}

func NewGate(perms audio.Permissions) *Gate {
	return &Gate{perms: perms}
}

func (g *Gate) Ensure(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.granted {
		return nil
	}

	ok, err := g.perms.CheckPermission(ctx)
	if err != nil {
		return fmt.Errorf("check audio permission: %w", err)
	}

	if !ok {
		slog.Debug("Requesting audio permission")
		ok, err = g.perms.RequestPermission(ctx)
		if err != nil {
			return fmt.Errorf("request audio permission: %w", err)
		}
		if !ok {
			return audio.ErrPermissionDenied
		}
	}

	g.granted = true
	slog.Debug("Audio permission granted")
	return nil
}

func (g *Gate) Granted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.granted
}
