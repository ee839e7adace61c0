package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiolibrelab/soundboard/internal/audio"
)

func TestPlayer_OverlappingPlaybacks(t *testing.T) {
	platform := newFakePlatform()
	player := NewPlayer(platform, NewGate(platform))
	ctx := context.Background()

	require.NoError(t, player.Play(ctx, "file:///a.wav"))
	require.NoError(t, player.Play(ctx, "file:///a.wav"))

	assert.Equal(t, 2, player.Live())
	require.Equal(t, 2, platform.playbackCount())
	assert.NotEqual(t, platform.playbacks[0].ID(), platform.playbacks[1].ID())

	platform.playbacks[0].finish()
	require.Eventually(t, func() bool { return player.Live() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, platform.playbacks[0].stopCount(), "finished playback must be released")

	platform.playbacks[1].finish()

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, player.Wait(waitCtx))
	assert.Zero(t, player.Live())
}

func TestPlayer_PlayError(t *testing.T) {
	platform := newFakePlatform()
	platform.playErr = audio.ErrUnavailable
	player := NewPlayer(platform, NewGate(platform))

	err := player.Play(context.Background(), "file:///a.wav")
	require.ErrorIs(t, err, audio.ErrUnavailable)
	assert.Zero(t, player.Live())
}

func TestPlayer_CloseStopsLivePlaybacks(t *testing.T) {
	platform := newFakePlatform()
	player := NewPlayer(platform, NewGate(platform))
	ctx := context.Background()

	require.NoError(t, player.Play(ctx, "file:///long.wav"))
	require.NoError(t, player.Close(ctx))

	assert.Zero(t, player.Live())
	assert.GreaterOrEqual(t, platform.playbacks[0].stopCount(), 1)
}

func TestPlayer_WaitHonoursContext(t *testing.T) {
	platform := newFakePlatform()
	player := NewPlayer(platform, NewGate(platform))

	require.NoError(t, player.Play(context.Background(), "file:///long.wav"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, player.Wait(ctx), context.DeadlineExceeded)

	require.NoError(t, player.Close(context.Background()))
}
