package audio

import (
	"fmt"
	"io"
	"strings"

	"github.com/audiolibrelab/soundboard/internal/config"
)

// BackendType represents the type of audio backend
type BackendType string

const (
	BackendTypePipeWire BackendType = "pipewire"
	BackendTypeAuto     BackendType = "auto"
)

// AudioBackend defines the interface for audio backend implementations
type AudioBackend interface {
	// Create the platform capability for the resolved configuration
	NewPlatform(cfg *config.Config, logWriter io.Writer) (Platform, error)

	// List available capture sources
	ListSources() ([]string, error)

	// Validate if a source is available
	ValidateSource(source string) error

	// Get the backend type
	GetType() BackendType
}

// NewPlatform creates the audio capability using the backend selected by configuration
func NewPlatform(cfg *config.Config, logWriter io.Writer) (Platform, error) {
	backend, err := NewBackend(cfg)
	if err != nil {
		return nil, err
	}

	return backend.NewPlatform(cfg, logWriter)
}

// NewBackend returns the backend selected by configuration
func NewBackend(cfg *config.Config) (AudioBackend, error) {
	switch determineBackend(cfg) {
	case BackendTypePipeWire:
		return &PipeWireBackend{}, nil
	default:
		return nil, fmt.Errorf("unsupported audio backend: %s", cfg.Audio.Backend)
	}
}

// determineBackend determines which backend to use based on configuration
func determineBackend(cfg *config.Config) BackendType {
	if cfg == nil {
		return BackendTypePipeWire
	}

	switch strings.ToLower(cfg.Audio.Backend) {
	case "", "auto", "pipewire":
		// PipeWire is the only backend, auto resolves to it
		return BackendTypePipeWire
	default:
		return BackendType(cfg.Audio.Backend)
	}
}

// GetAvailableBackends returns list of available backends on current system
func GetAvailableBackends() []BackendType {
	return []BackendType{BackendTypePipeWire}
}
