package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/audiolibrelab/soundboard/internal/audio"
	"github.com/audiolibrelab/soundboard/internal/clips"
	"github.com/audiolibrelab/soundboard/internal/config"
	"github.com/audiolibrelab/soundboard/internal/session"
	"github.com/audiolibrelab/soundboard/internal/store"
)

// ErrUnknownClip is returned when a bundled clip lookup fails.
var ErrUnknownClip = errors.New("unknown clip")

// Service represents the soundboard as seen by its front ends
type Service interface {
	// Slot operations, forwarded 1:1 to the registry
	StartRecording(ctx context.Context, slot int)
	StopRecording(ctx context.Context, slot int)
	PlayOnce(ctx context.Context, slot int)
	ToggleLoop(ctx context.Context, slot int)

	// Bundled clip operations
	Clips() []clips.Clip
	PlayClip(ctx context.Context, key string) error

	// Information operations
	Slots() int
	Status() []session.SlotState
	History(ctx context.Context, limit int) ([]store.Sound, error)
	GetLastError() string
	GetConfig() *config.Config

	// WaitPlayback blocks until every one-shot playback has finished
	WaitPlayback(ctx context.Context) error
	Close(ctx context.Context) error
}

// Option customises a SoundboardService
type Option func(*options)

type options struct {
	platform  audio.Platform
	onFailure session.FailureHandler
}

// WithPlatform replaces the configured audio backend
func WithPlatform(p audio.Platform) Option {
	return func(o *options) {
		o.platform = p
	}
}

// WithFailureHandler is called for every failed operation, after logging
func WithFailureHandler(h session.FailureHandler) Option {
	return func(o *options) {
		o.onFailure = h
	}
}

var _ Service = (*SoundboardService)(nil)

// SoundboardService is the main service implementation
type SoundboardService struct {
	cfg      *config.Config
	registry *session.Registry
	store    *store.Store
	catalog  *clips.Catalog

	onFailure session.FailureHandler

	// Error tracking
	lastError      string
	lastErrorMutex sync.RWMutex
}

// New opens the store, the audio platform and the clip catalog and builds
// a registry of cfg.Slots slots on top of them.
func New(cfg *config.Config, logWriter io.Writer, opts ...Option) (*SoundboardService, error) {
	if logWriter == nil {
		logWriter = io.Discard
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	quality, err := audio.ParseQuality(cfg.Audio.Quality)
	if err != nil {
		return nil, err
	}

	platform := o.platform
	if platform == nil {
		platform, err = audio.NewPlatform(cfg, logWriter)
		if err != nil {
			return nil, fmt.Errorf("failed to create audio platform: %w", err)
		}
	}

	catalog, err := clips.Load(cfg.Clips, cfg.SupportedExtensions)
	if err != nil {
		return nil, fmt.Errorf("failed to load clips: %w", err)
	}

	st, err := store.Open(store.Options{Path: cfg.Store.Path})
	if err != nil {
		return nil, err
	}

	s := &SoundboardService{
		cfg:       cfg,
		store:     st,
		catalog:   catalog,
		onFailure: o.onFailure,
	}
	s.registry = session.NewRegistry(cfg.Slots, platform, quality,
		session.WithSink(st),
		session.WithFailureHandler(s.handleFailure),
	)

	slog.Debug("Soundboard ready",
		"slots", cfg.Slots,
		"clips", catalog.Len(),
		"quality", quality.Name,
		"store", st.Path())

	return s, nil
}

func (s *SoundboardService) handleFailure(f session.Failure) {
	session.LogFailure(f)
	s.setLastError(f.Error())
	if s.onFailure != nil {
		s.onFailure(f)
	}
}

func (s *SoundboardService) StartRecording(ctx context.Context, slot int) {
	s.clearLastError()
	s.registry.StartRecording(ctx, slot)
}

func (s *SoundboardService) StopRecording(ctx context.Context, slot int) {
	s.clearLastError()
	s.registry.StopRecording(ctx, slot)
}

func (s *SoundboardService) PlayOnce(ctx context.Context, slot int) {
	s.clearLastError()
	s.registry.PlayOnce(ctx, slot)
}

func (s *SoundboardService) ToggleLoop(ctx context.Context, slot int) {
	s.clearLastError()
	s.registry.ToggleLoop(ctx, slot)
}

func (s *SoundboardService) Clips() []clips.Clip {
	return s.catalog.List()
}

// PlayClip plays a bundled clip by label or 1-based position. Only an
// unknown key is returned as an error; playback failures go to the
// failure handler like every other press.
func (s *SoundboardService) PlayClip(ctx context.Context, key string) error {
	clip, ok := s.catalog.Lookup(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownClip, key)
	}

	s.clearLastError()
	s.registry.PlayBundled(ctx, clip.Label, clip.Reference)
	return nil
}

func (s *SoundboardService) Slots() int {
	return s.registry.Len()
}

func (s *SoundboardService) Status() []session.SlotState {
	return s.registry.Snapshots()
}

// History lists persisted recordings, newest first
func (s *SoundboardService) History(ctx context.Context, limit int) ([]store.Sound, error) {
	if err := s.registry.Flush(ctx); err != nil {
		return nil, err
	}
	return s.store.List(ctx, limit)
}

func (s *SoundboardService) GetConfig() *config.Config {
	return s.cfg
}

func (s *SoundboardService) WaitPlayback(ctx context.Context) error {
	return s.registry.Player().Wait(ctx)
}

// Close releases every audio resource, waits for pending writes and closes
// the store.
func (s *SoundboardService) Close(ctx context.Context) error {
	var errs []error
	if err := s.registry.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close store: %w", err))
	}
	return errors.Join(errs...)
}

// GetLastError returns the last failure reported since the last operation
func (s *SoundboardService) GetLastError() string {
	s.lastErrorMutex.RLock()
	defer s.lastErrorMutex.RUnlock()
	return s.lastError
}

func (s *SoundboardService) setLastError(msg string) {
	s.lastErrorMutex.Lock()
	defer s.lastErrorMutex.Unlock()
	s.lastError = msg
}

func (s *SoundboardService) clearLastError() {
	s.lastErrorMutex.Lock()
	defer s.lastErrorMutex.Unlock()
	s.lastError = ""
}
