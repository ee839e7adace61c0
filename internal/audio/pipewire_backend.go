package audio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/audiolibrelab/soundboard/internal/config"
	"github.com/audiolibrelab/soundboard/internal/play"
)

// PipeWireBackend implements the AudioBackend interface for PipeWire
type PipeWireBackend struct{}

// NewPlatform creates a PipeWire platform for the configured source and output directory
func (p *PipeWireBackend) NewPlatform(cfg *config.Config, logWriter io.Writer) (Platform, error) {
	return NewPipeWirePlatform(PipeWireOptions{
		Source:     cfg.Audio.Source,
		Directory:  cfg.Output.Directory,
		SampleRate: cfg.Audio.SampleRate,
		LogWriter:  logWriter,
	}), nil
}

// ListSources returns available PipeWire capture nodes
func (p *PipeWireBackend) ListSources() ([]string, error) {
	return NewPipeWire().ListNodes()
}

// ValidateSource validates a PipeWire node or port
func (p *PipeWireBackend) ValidateSource(source string) error {
	if source == "" {
		return nil
	}

	return NewPipeWire().ValidatePort(source)
}

// GetType returns the backend type
func (p *PipeWireBackend) GetType() BackendType {
	return BackendTypePipeWire
}

// PipeWireOptions configures a PipeWirePlatform.
type PipeWireOptions struct {
	Source     string // capture target, empty = default node
	Directory  string // where recordings are written
	SampleRate int    // overrides the quality preset when set
	LogWriter  io.Writer
}

// PipeWirePlatform records with pw-record and plays through a system player.
type PipeWirePlatform struct {
	opts     PipeWireOptions
	pipewire *PipeWire

	mu       sync.Mutex
	mode     Mode
	launcher *play.Launcher
}

// NewPipeWirePlatform creates the platform. No process is started until
// a capture or playback is requested.
func NewPipeWirePlatform(opts PipeWireOptions) *PipeWirePlatform {
	if opts.LogWriter == nil {
		opts.LogWriter = io.Discard
	}

	return &PipeWirePlatform{
		opts:     opts,
		pipewire: NewPipeWire(),
		mode:     ModePlayback,
	}
}

// CheckPermission reports whether capture is possible right now: the
// capture tool is installed, the configured source exists and the
// recordings directory is present.
func (p *PipeWirePlatform) CheckPermission(ctx context.Context) (bool, error) {
	if !available("pw-record") {
		return false, nil
	}

	if info, err := os.Stat(p.opts.Directory); err != nil || !info.IsDir() {
		return false, nil
	}

	if err := p.validateSource(); err != nil {
		slog.Debug("Capture source not available", "source", p.opts.Source, "error", err)
		return false, nil
	}

	return true, nil
}

// RequestPermission prepares the recordings directory and re-checks access.
func (p *PipeWirePlatform) RequestPermission(ctx context.Context) (bool, error) {
	if err := os.MkdirAll(p.opts.Directory, 0755); err != nil {
		return false, fmt.Errorf("failed to create recordings directory: %w", err)
	}

	if !available("pw-record") {
		slog.Warn("pw-record is not installed, capture is unavailable")
		return false, nil
	}

	if err := p.validateSource(); err != nil {
		slog.Warn("Capture source refused", "source", p.opts.Source, "error", err)
		return false, nil
	}

	return true, nil
}

func (p *PipeWirePlatform) validateSource() error {
	if p.opts.Source == "" {
		return nil
	}
	return p.pipewire.ValidatePort(p.opts.Source)
}

// SetMode switches the platform audio mode. Capture mode requires a
// playback tool as well, since recordings are played back on the same board.
func (p *PipeWirePlatform) SetMode(ctx context.Context, mode Mode) error {
	switch mode {
	case ModePlayback, ModeCaptureAndPlayback:
	default:
		return fmt.Errorf("unsupported audio mode: %s", mode)
	}

	if _, err := p.playbackLauncher(); err != nil {
		return err
	}

	p.mu.Lock()
	p.mode = mode
	p.mu.Unlock()

	slog.Debug("Audio mode set", "mode", mode)
	return nil
}

// Mode returns the current audio mode.
func (p *PipeWirePlatform) Mode() Mode {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.mode
}

// StartCapture starts pw-record writing a new WAV file in the recordings directory.
func (p *PipeWirePlatform) StartCapture(ctx context.Context, quality Quality) (Capture, error) {
	if p.Mode() != ModeCaptureAndPlayback {
		return nil, fmt.Errorf("%w: capture requested in %s mode", ErrUnavailable, p.Mode())
	}

	if quality.SampleRate == 0 {
		quality = QualityHigh
	}
	if p.opts.SampleRate > 0 {
		quality.SampleRate = p.opts.SampleRate
	}

	capture, err := startPipeWireCapture(p.opts.Directory, p.opts.Source, quality, p.opts.LogWriter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return capture, nil
}

// Play loads the referenced file into a new playback process.
func (p *PipeWirePlatform) Play(ctx context.Context, ref Reference, loop bool) (Playback, error) {
	path, err := ref.Path()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	launcher, err := p.playbackLauncher()
	if err != nil {
		return nil, err
	}

	proc, err := launcher.Start(path, loop)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return proc, nil
}

func (p *PipeWirePlatform) playbackLauncher() (*play.Launcher, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.launcher != nil {
		return p.launcher, nil
	}

	launcher, err := play.New(p.opts.LogWriter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	p.launcher = launcher

	slog.Debug("Playback launcher ready", "player", launcher.Player())
	return launcher, nil
}
