package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/audiolibrelab/soundboard/internal/audio"
)

// Player plays references once. Each playback is released when it reports
// completion
type Player struct {
	platform audio.Platform
	gate     *Gate

	mu      sync.Mutex
	live    map[string]audio.Playback
	pending inflight
}

func NewPlayer(platform audio.Platform, gate *Gate) *Player {
	return &Player{
		platform: platform,
		gate:     gate,
		live:     make(map[string]audio.Playback),
	}
}

func (p *Player) Play(ctx context.Context, ref audio.Reference) error {
	if err := p.gate.Ensure(ctx); err != nil {
		return err
	}

	pb, err := p.platform.Play(ctx, ref, false)
	if err != nil {
		return fmt.Errorf("play %s: %w", ref, err)
	}

	p.mu.Lock()
	p.live[pb.ID()] = pb
	p.mu.Unlock()
	p.pending.add()

	go p.release(pb)

	return nil
}

func (p *Player) release(pb audio.Playback) {
	defer p.pending.done()

	<-pb.Done()

	if err := pb.Stop(context.Background()); err != nil {
		slog.Debug("Releasing one-shot playback failed", "id", pb.ID(), "error", err)
	}

	p.mu.Lock()
	delete(p.live, pb.ID())
	p.mu.Unlock()
}

// Live returns the number of playbacks not yet released
func (p *Player) Live() int {
	return p.pending.count()
}

func (p *Player) Wait(ctx context.Context) error {
	return p.pending.wait(ctx)
}

func (p *Player) Close(ctx context.Context) error {
	p.mu.Lock()
	live := make([]audio.Playback, 0, len(p.live))
	for _, pb := range p.live {
		live = append(live, pb)
	}
	p.mu.Unlock()

	var errs []error
	for _, pb := range live {
		if err := pb.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop playback %s: %w", pb.ID(), err))
		}
	}

	if err := p.Wait(ctx); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
