package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiolibrelab/soundboard/internal/audio"
)

func TestGate_AlreadyGranted(t *testing.T) {
	platform := newFakePlatform()
	platform.granted = true
	gate := NewGate(platform)

	require.NoError(t, gate.Ensure(context.Background()))
	assert.True(t, gate.Granted())
	assert.Equal(t, 1, platform.checks)
	assert.Zero(t, platform.requests)
}

func TestGate_RequestsOnce(t *testing.T) {
	platform := newFakePlatform()
	gate := NewGate(platform)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, gate.Ensure(ctx))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, platform.requests)
	assert.Equal(t, 1, platform.checks)
}

func TestGate_DenialIsNotRemembered(t *testing.T) {
	platform := newFakePlatform()
	platform.grantOnAsk = false
	gate := NewGate(platform)
	ctx := context.Background()

	err := gate.Ensure(ctx)
	require.ErrorIs(t, err, audio.ErrPermissionDenied)
	assert.False(t, gate.Granted())

	platform.grantOnAsk = true
	require.NoError(t, gate.Ensure(ctx))
	assert.True(t, gate.Granted())
	assert.Equal(t, 2, platform.requests)
}

type errPermissions struct{ err error }

func (p errPermissions) CheckPermission(context.Context) (bool, error) {
	return false, p.err
}

func (p errPermissions) RequestPermission(context.Context) (bool, error) {
	return false, p.err
}

func TestGate_CheckError(t *testing.T) {
	boom := errors.New("bus unavailable")
	gate := NewGate(errPermissions{err: boom})

	err := gate.Ensure(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, KindResourceUnavailable, classify(err))
}
