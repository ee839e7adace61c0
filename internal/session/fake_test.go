package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/audiolibrelab/soundboard/internal/audio"
)

// fakePlatform records every call so tests can assert on resource lifecycle.
type fakePlatform struct {
	mu sync.Mutex

	granted        bool
	grantOnAsk     bool
	checks         int
	requests       int
	mode           audio.Mode
	captureErr     error
	playErr        error
	captures       []*fakeCapture
	playbacks      []*fakePlayback
	nextCapture    int
	finishOneShots bool
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{grantOnAsk: true}
}

func (f *fakePlatform) CheckPermission(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.checks++
	return f.granted, nil
}

func (f *fakePlatform) RequestPermission(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests++
	f.granted = f.grantOnAsk
	return f.granted, nil
}

func (f *fakePlatform) SetMode(_ context.Context, mode audio.Mode) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.mode = mode
	return nil
}

func (f *fakePlatform) StartCapture(context.Context, audio.Quality) (audio.Capture, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.captureErr != nil {
		return nil, f.captureErr
	}

	f.nextCapture++
	c := &fakeCapture{ref: audio.Reference(fmt.Sprintf("file:///rec/%d.wav", f.nextCapture))}
	f.captures = append(f.captures, c)
	return c, nil
}

func (f *fakePlatform) Play(_ context.Context, ref audio.Reference, loop bool) (audio.Playback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.playErr != nil {
		return nil, f.playErr
	}

	pb := &fakePlayback{id: uuid.NewString(), ref: ref, loop: loop, done: make(chan struct{})}
	f.playbacks = append(f.playbacks, pb)
	if !loop && f.finishOneShots {
		pb.finish()
	}
	return pb, nil
}

func (f *fakePlatform) loops() []*fakePlayback {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*fakePlayback
	for _, pb := range f.playbacks {
		if pb.loop {
			out = append(out, pb)
		}
	}
	return out
}

func (f *fakePlatform) captureCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.captures)
}

func (f *fakePlatform) playbackCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.playbacks)
}

type fakeCapture struct {
	mu      sync.Mutex
	ref     audio.Reference
	stopErr error
	stops   int
}

func (c *fakeCapture) Stop(context.Context) (audio.Reference, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stops++
	if c.stops > 1 {
		return "", errors.New("capture stopped twice")
	}
	if c.stopErr != nil {
		return "", c.stopErr
	}
	return c.ref, nil
}

func (c *fakeCapture) stopCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stops
}

type fakePlayback struct {
	id   string
	ref  audio.Reference
	loop bool

	mu    sync.Mutex
	stops int
	err   error
	once  sync.Once
	done  chan struct{}
}

func (p *fakePlayback) ID() string { return p.id }

func (p *fakePlayback) Done() <-chan struct{} { return p.done }

func (p *fakePlayback) Stop(context.Context) error {
	p.mu.Lock()
	p.stops++
	p.mu.Unlock()

	p.finish()
	return nil
}

func (p *fakePlayback) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.err
}

func (p *fakePlayback) crash(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()

	p.finish()
}

func (p *fakePlayback) finish() {
	p.once.Do(func() { close(p.done) })
}

func (p *fakePlayback) stopCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.stops
}

// fakeSink records persisted rows.
type fakeSink struct {
	mu   sync.Mutex
	rows []row
	err  error
}

type row struct {
	name string
	uri  string
}

func (s *fakeSink) Record(_ context.Context, name, uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.rows = append(s.rows, row{name: name, uri: uri})
	return nil
}

func (s *fakeSink) all() []row {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]row(nil), s.rows...)
}

// failures collects reported failures.
type failures struct {
	mu   sync.Mutex
	list []Failure
}

func (f *failures) handle(failure Failure) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.list = append(f.list, failure)
}

func (f *failures) all() []Failure {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]Failure(nil), f.list...)
}
