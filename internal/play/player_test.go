package play

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindAudioPlayer_Preference(t *testing.T) {
	available := map[string]bool{"mpv": true, "aplay": true}
	lookPath := func(name string) (string, error) {
		if available[name] {
			return "/usr/bin/" + name, nil
		}
		return "", exec.ErrNotFound
	}

	player, err := findAudioPlayer(lookPath)
	require.NoError(t, err)
	assert.Equal(t, "mpv", player)
}

func TestFindAudioPlayer_NoneAvailable(t *testing.T) {
	lookPath := func(string) (string, error) { return "", exec.ErrNotFound }

	_, err := findAudioPlayer(lookPath)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoPlayer))
}

func TestPlayerArgs(t *testing.T) {
	tests := []struct {
		player string
		want   []string
	}{
		{"pw-play", []string{"pw-play", "/a.wav"}},
		{"ffplay", []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", "/a.wav"}},
		{"mpv", []string{"mpv", "--no-video", "--really-quiet", "/a.wav"}},
		{"aplay", []string{"aplay", "-q", "/a.wav"}},
	}

	for _, tt := range tests {
		t.Run(tt.player, func(t *testing.T) {
			args, err := playerArgs(tt.player, "/a.wav")
			require.NoError(t, err)
			assert.Equal(t, tt.want, args)
		})
	}

	_, err := NewWithPlayer("winamp", nil)
	assert.Error(t, err)
}

func TestProcess_OneShotFinishes(t *testing.T) {
	l := testLauncher(t, "true")

	p, err := l.Start(testAudioFile(t), false)
	require.NoError(t, err)

	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("one-shot playback did not finish")
	}
	assert.NoError(t, p.Err())
	assert.NotEmpty(t, p.ID())

	// Stop after completion is a no-op
	assert.NoError(t, p.Stop(context.Background()))
}

func TestProcess_LoopRepeatsUntilStopped(t *testing.T) {
	l := testLauncher(t, "true")

	p, err := l.Start(testAudioFile(t), true)
	require.NoError(t, err)

	select {
	case <-p.Done():
		t.Fatal("looping playback ended on its own")
	case <-time.After(200 * time.Millisecond):
	}

	require.NoError(t, p.Stop(context.Background()))

	select {
	case <-p.Done():
	default:
		t.Fatal("Done not closed after Stop")
	}

	// Second stop is harmless
	assert.NoError(t, p.Stop(context.Background()))
}

func TestProcess_StopInterruptsLongPlayback(t *testing.T) {
	l := testLauncher(t, "sleep")
	l.argv = func(string) []string { return []string{"sleep", "30"} }

	p, err := l.Start(testAudioFile(t), false)
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, p.Stop(context.Background()))
	assert.Less(t, time.Since(start), stopTimeout+time.Second)
	assert.NoError(t, p.Err())
}

func TestProcess_FailingPlayerDoesNotRespawn(t *testing.T) {
	l := testLauncher(t, "false")

	p, err := l.Start(testAudioFile(t), true)
	require.NoError(t, err)

	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("failing loop did not end")
	}
	assert.Error(t, p.Err())
}

func TestLauncher_MissingFile(t *testing.T) {
	l := testLauncher(t, "true")

	_, err := l.Start(filepath.Join(t.TempDir(), "missing.wav"), false)
	assert.Error(t, err)
}

func testLauncher(t *testing.T, binary string) *Launcher {
	t.Helper()

	if _, err := exec.LookPath(binary); err != nil {
		t.Skipf("%s not available", binary)
	}

	return &Launcher{
		player:    binary,
		logWriter: nil,
		argv:      func(string) []string { return []string{binary} },
	}
}

func testAudioFile(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0644))

	return path
}
