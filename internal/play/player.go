package play

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// stopTimeout bounds how long Stop waits for a player to exit after SIGINT.
const stopTimeout = 3 * time.Second

// ErrNoPlayer is returned when no supported audio player is installed.
var ErrNoPlayer = errors.New("no audio player found")

// preferredPlayers lists supported players in order of preference
var preferredPlayers = []string{"pw-play", "ffplay", "mpv", "aplay", "vlc"}

// Launcher starts playback processes with one system audio player.
type Launcher struct {
	player    string
	logWriter io.Writer

	// argv builds the command line for a file; replaced in tests.
	argv func(path string) []string
}

// New picks the first available player.
func New(logWriter io.Writer) (*Launcher, error) {
	player, err := findAudioPlayer(exec.LookPath)
	if err != nil {
		return nil, err
	}

	return NewWithPlayer(player, logWriter)
}

// NewWithPlayer creates a launcher for an explicitly chosen player.
func NewWithPlayer(player string, logWriter io.Writer) (*Launcher, error) {
	if logWriter == nil {
		logWriter = io.Discard
	}

	l := &Launcher{player: player, logWriter: logWriter}
	if _, err := playerArgs(player, "probe"); err != nil {
		return nil, err
	}
	l.argv = func(path string) []string {
		args, _ := playerArgs(l.player, path)
		return args
	}

	return l, nil
}

// Player returns the name of the player binary in use.
func (l *Launcher) Player() string {
	return l.player
}

// Start launches playback of path. With loop set the file is replayed
// until Stop is called.
func (l *Launcher) Start(path string, loop bool) (*Process, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("audio file not found: %s: %w", path, err)
	}

	p := &Process{
		id:       uuid.NewString(),
		path:     path,
		loop:     loop,
		launcher: l,
		done:     make(chan struct{}),
	}

	cmd, err := l.spawn(path)
	if err != nil {
		return nil, err
	}
	p.cmd = cmd

	slog.Debug("Playback started", "player", l.player, "path", path, "loop", loop, "id", p.id)

	go p.run(cmd)

	return p, nil
}

func (l *Launcher) spawn(path string) (*exec.Cmd, error) {
	args := l.argv(path)
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdout = l.logWriter
	cmd.Stderr = l.logWriter

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", l.player, err)
	}

	return cmd, nil
}

// Process is one playback, possibly looping.
type Process struct {
	id       string
	path     string
	loop     bool
	launcher *Launcher

	mu      sync.Mutex
	cmd     *exec.Cmd
	stopped bool
	err     error

	done chan struct{}
}

// ID identifies the playback in logs.
func (p *Process) ID() string {
	return p.id
}

// Done is closed once the playback has finished or was stopped.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Err reports why playback ended early, if it did. Valid after Done.
func (p *Process) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.err
}

func (p *Process) run(cmd *exec.Cmd) {
	defer close(p.done)

	for {
		waitErr := cmd.Wait()

		p.mu.Lock()
		if p.stopped {
			p.cmd = nil
			p.mu.Unlock()
			return
		}
		if waitErr != nil {
			// A failing player would otherwise respawn in a tight loop
			p.err = fmt.Errorf("%s exited: %w", p.launcher.player, waitErr)
			p.cmd = nil
			p.mu.Unlock()
			return
		}
		if !p.loop {
			p.cmd = nil
			p.mu.Unlock()
			return
		}

		next, err := p.launcher.spawn(p.path)
		if err != nil {
			p.err = err
			p.cmd = nil
			p.mu.Unlock()
			return
		}
		p.cmd = next
		p.mu.Unlock()

		cmd = next
	}
}

// Stop ends playback and waits for the player to exit. Calling Stop on a
// finished playback is a no-op.
func (p *Process) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		<-p.done
		return nil
	}
	p.stopped = true
	cmd := p.cmd
	p.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		<-p.done
		return nil
	}

	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		slog.Debug("Failed to interrupt player", "id", p.id, "error", err)
	}

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-p.done
		return ctx.Err()
	case <-time.After(stopTimeout):
		slog.Warn("Player did not exit within timeout, force killing", "id", p.id, "player", p.launcher.player)
		_ = cmd.Process.Kill()
		<-p.done
		return nil
	}
}

func playerArgs(player, audioFile string) ([]string, error) {
	switch player {
	case "pw-play":
		return []string{"pw-play", audioFile}, nil
	case "ffplay":
		return []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", audioFile}, nil
	case "mpv":
		return []string{"mpv", "--no-video", "--really-quiet", audioFile}, nil
	case "aplay":
		return []string{"aplay", "-q", audioFile}, nil
	case "vlc":
		return []string{"vlc", "--intf", "dummy", "--play-and-exit", audioFile}, nil
	default:
		return nil, fmt.Errorf("unsupported player: %s", player)
	}
}

func findAudioPlayer(lookPath func(string) (string, error)) (string, error) {
	for _, player := range preferredPlayers {
		if _, err := lookPath(player); err == nil {
			return player, nil
		}
	}

	return "", fmt.Errorf("%w (tried: %s)", ErrNoPlayer, strings.Join(preferredPlayers, ", "))
}
