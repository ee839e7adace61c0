package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/audiolibrelab/soundboard/internal/audio"
)

const defaultWriteTimeout = 10 * time.Second

type slot struct {
	// held for the whole of every operation, so presses on a slot queue up
	mu sync.Mutex

	recording audio.Capture
	reference audio.Reference
	loop      audio.Playback
}

type SlotState struct {
	Index     int
	Name      string
	Recording bool
	Looping   bool
	Reference audio.Reference
}

// Registry owns a fixed number of slots. Operations never return errors:
// failures go to the FailureHandler and leave the slot unchanged
type Registry struct {
	slots []*slot

	recorder *Recorder
	player   *Player
	looper   *Looper

	sink         Sink
	onFailure    FailureHandler
	writeTimeout time.Duration
	writes       inflight

	closed atomic.Bool
}

type Option func(*Registry)

func WithSink(sink Sink) Option {
	return func(r *Registry) {
		r.sink = sink
	}
}

// WithFailureHandler replaces LogFailure
func WithFailureHandler(h FailureHandler) Option {
	return func(r *Registry) {
		r.onFailure = h
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(r *Registry) {
		r.writeTimeout = d
	}
}

// NewRegistry creates n idle slots sharing one permission gate
func NewRegistry(n int, platform audio.Platform, quality audio.Quality, opts ...Option) *Registry {
	if n <= 0 {
		panic(fmt.Sprintf("session: slot count must be positive, got %d", n))
	}

	gate := NewGate(platform)
	r := &Registry{
		slots:        make([]*slot, n),
		recorder:     NewRecorder(platform, gate, quality),
		player:       NewPlayer(platform, gate),
		looper:       NewLooper(platform, gate),
		sink:         discardSink{},
		onFailure:    LogFailure,
		writeTimeout: defaultWriteTimeout,
	}
	for i := range r.slots {
		r.slots[i] = &slot{}
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *Registry) Len() int {
	return len(r.slots)
}

func (r *Registry) slot(i int) *slot {
	if i < 0 || i >= len(r.slots) {
		panic(fmt.Sprintf("session: slot index %d out of range [0, %d)", i, len(r.slots)))
	}
	return r.slots[i]
}

func (r *Registry) report(op string, i int, kind Kind, err error) {
	label := ""
	if i >= 0 {
		label = RecordingName(i)
	}
	r.onFailure(Failure{Op: op, Slot: i, Label: label, Kind: kind, Err: err})
}

// StartRecording is a no-op while the slot is already recording
func (r *Registry) StartRecording(ctx context.Context, i int) {
	s := r.slot(i)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Close may have released this slot while we waited for it
	if r.closed.Load() {
		return
	}
	if s.recording != nil {
		slog.Debug("Slot already recording", "slot", i)
		return
	}

	capture, err := r.recorder.Begin(ctx)
	if err != nil {
		r.report("start-recording", i, classify(err), err)
		return
	}

	s.recording = capture
	slog.Info("Recording started", "slot", i, "label", RecordingName(i))
}

// StopRecording stores the new reference, then persists it in the background
func (r *Registry) StopRecording(ctx context.Context, i int) {
	s := r.slot(i)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.recording == nil {
		return
	}

	// The handle is spent whatever Stop returns
	capture := s.recording
	s.recording = nil

	ref, err := r.recorder.End(ctx, capture)
	if err != nil {
		r.report("stop-recording", i, classify(err), err)
		return
	}

	s.reference = ref
	slog.Info("Recording stopped", "slot", i, "label", RecordingName(i), "uri", ref.String())

	r.persist(i, ref)
}

func (r *Registry) persist(i int, ref audio.Reference) {
	name := RecordingName(i)

	r.writes.add()
	go func() {
		defer r.writes.done()

		ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
		defer cancel()

		if err := r.sink.Record(ctx, name, ref.String()); err != nil {
			r.report("persist", i, KindPersistence, err)
			return
		}
		slog.Debug("Recording persisted", "slot", i, "label", name, "uri", ref.String())
	}()
}

// PlayOnce never changes slot state
func (r *Registry) PlayOnce(ctx context.Context, i int) {
	s := r.slot(i)

	s.mu.Lock()
	ref := s.reference
	s.mu.Unlock()

	if ref == "" || r.closed.Load() {
		return
	}

	if err := r.player.Play(ctx, ref); err != nil {
		r.report("play-once", i, classify(err), err)
	}
}

func (r *Registry) PlayBundled(ctx context.Context, label string, ref audio.Reference) {
	if r.closed.Load() {
		return
	}

	if err := r.player.Play(ctx, ref); err != nil {
		r.onFailure(Failure{Op: "play-clip", Slot: -1, Label: label, Kind: classify(err), Err: err})
	}
}

// ToggleLoop stops the slot's loop, or starts looping its last recording
func (r *Registry) ToggleLoop(ctx context.Context, i int) {
	s := r.slot(i)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loop != nil {
		pb := s.loop
		s.loop = nil
		if err := r.looper.Stop(ctx, pb); err != nil {
			r.report("stop-loop", i, KindResourceUnavailable, err)
		}
		slog.Info("Loop stopped", "slot", i)
		return
	}

	if r.closed.Load() || s.reference == "" {
		return
	}

	pb, err := r.looper.Start(ctx, s.reference)
	if err != nil {
		r.report("start-loop", i, classify(err), err)
		return
	}

	s.loop = pb
	slog.Info("Loop started", "slot", i, "uri", s.reference.String())

	go r.watchLoop(i, s, pb)
}

// watchLoop clears the slot when its loop ends without being toggled off
func (r *Registry) watchLoop(i int, s *slot, pb audio.Playback) {
	<-pb.Done()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loop != pb {
		return
	}
	s.loop = nil

	cause := errors.New("loop playback ended unexpectedly")
	if p, ok := pb.(interface{ Err() error }); ok && p.Err() != nil {
		cause = fmt.Errorf("%w: %w", cause, p.Err())
	}
	r.report("loop", i, KindResourceUnavailable, cause)
}

func (r *Registry) Snapshot(i int) SlotState {
	s := r.slot(i)

	s.mu.Lock()
	defer s.mu.Unlock()

	return SlotState{
		Index:     i,
		Name:      RecordingName(i),
		Recording: s.recording != nil,
		Looping:   s.loop != nil,
		Reference: s.reference,
	}
}

func (r *Registry) Snapshots() []SlotState {
	states := make([]SlotState, len(r.slots))
	for i := range r.slots {
		states[i] = r.Snapshot(i)
	}
	return states
}

func (r *Registry) Player() *Player {
	return r.player
}

// Flush waits for pending persistence writes
func (r *Registry) Flush(ctx context.Context) error {
	return r.writes.wait(ctx)
}

// Close releases all audio resources and waits for pending writes.
// Captures still running are discarded, not persisted
func (r *Registry) Close(ctx context.Context) error {
	r.closed.Store(true)

	var errs []error
	for i, s := range r.slots {
		s.mu.Lock()
		if s.recording != nil {
			if _, err := s.recording.Stop(ctx); err != nil {
				errs = append(errs, fmt.Errorf("slot %d: release capture: %w", i, err))
			}
			s.recording = nil
		}
		if s.loop != nil {
			if err := s.loop.Stop(ctx); err != nil {
				errs = append(errs, fmt.Errorf("slot %d: release loop: %w", i, err))
			}
			s.loop = nil
		}
		s.mu.Unlock()
	}

	if err := r.player.Close(ctx); err != nil {
		errs = append(errs, err)
	}

	if err := r.Flush(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush recordings: %w", err))
	}

	return errors.Join(errs...)
}
