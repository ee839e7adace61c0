package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiolibrelab/soundboard/internal/config"
)

func TestReference_Path(t *testing.T) {
	tests := []struct {
		name    string
		ref     Reference
		want    string
		wantErr bool
	}{
		{name: "file uri", ref: "file:///tmp/clip1.wav", want: "/tmp/clip1.wav"},
		{name: "bare path", ref: "/tmp/clip1.wav", want: "/tmp/clip1.wav"},
		{name: "empty", ref: "", wantErr: true},
		{name: "scheme only", ref: "file://", wantErr: true},
		{name: "remote", ref: "https://example.com/a.wav", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.ref.Path()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileReference_Absolute(t *testing.T) {
	ref := FileReference("relative/clip.wav")

	path, err := ref.Path()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path), "expected absolute path, got %s", path)
}

func TestParseQuality(t *testing.T) {
	q, err := ParseQuality("")
	require.NoError(t, err)
	assert.Equal(t, QualityHigh, q)

	q, err = ParseQuality("LOW")
	require.NoError(t, err)
	assert.Equal(t, QualityLow, q)

	_, err = ParseQuality("lossless")
	assert.Error(t, err)
}

func TestCaptureArgs(t *testing.T) {
	args := captureArgs("alsa_input.usb-mic", QualityHigh, "/rec/a.wav")
	assert.Equal(t, []string{
		"pw-record", "--rate", "44100", "--channels", "2", "--format", "s16",
		"--target", "alsa_input.usb-mic", "/rec/a.wav",
	}, args)

	args = captureArgs("", QualityLow, "/rec/b.wav")
	assert.NotContains(t, args, "--target")
	assert.Equal(t, "/rec/b.wav", args[len(args)-1])
}

func TestValidateOutputFile(t *testing.T) {
	dir := t.TempDir()

	empty := &pipeWireCapture{path: filepath.Join(dir, "empty.wav")}
	require.NoError(t, os.WriteFile(empty.path, make([]byte, wavHeaderSize), 0644))
	err := empty.validateOutputFile()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
	_, statErr := os.Stat(empty.path)
	assert.True(t, os.IsNotExist(statErr), "empty recording should be removed")

	full := &pipeWireCapture{path: filepath.Join(dir, "full.wav")}
	require.NoError(t, os.WriteFile(full.path, make([]byte, 4096), 0644))
	assert.NoError(t, full.validateOutputFile())

	missing := &pipeWireCapture{path: filepath.Join(dir, "missing.wav")}
	assert.Error(t, missing.validateOutputFile())
}

func TestDetermineBackend(t *testing.T) {
	tests := []struct {
		backend string
		want    BackendType
	}{
		{"", BackendTypePipeWire},
		{"auto", BackendTypePipeWire},
		{"PipeWire", BackendTypePipeWire},
		{"coreaudio", BackendType("coreaudio")},
	}

	for _, tt := range tests {
		cfg := &config.Config{Audio: config.AudioConfig{Backend: tt.backend}}
		assert.Equal(t, tt.want, determineBackend(cfg), "backend %q", tt.backend)
	}

	_, err := NewBackend(&config.Config{Audio: config.AudioConfig{Backend: "coreaudio"}})
	assert.Error(t, err)
}

func TestPipeWirePlatform_StartCaptureRequiresCaptureMode(t *testing.T) {
	p := NewPipeWirePlatform(PipeWireOptions{Directory: t.TempDir()})

	_, err := p.StartCapture(context.Background(), QualityHigh)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Equal(t, ModePlayback, p.Mode())
}

func TestPipeWirePlatform_PlayRejectsBadReference(t *testing.T) {
	p := NewPipeWirePlatform(PipeWireOptions{Directory: t.TempDir()})

	_, err := p.Play(context.Background(), "https://example.com/a.wav", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestPipeWireBackend_ValidateSourceDefault(t *testing.T) {
	var backend AudioBackend = &PipeWireBackend{}

	assert.NoError(t, backend.ValidateSource(""), "empty source means the default input")
	assert.Equal(t, BackendTypePipeWire, backend.GetType())
}
