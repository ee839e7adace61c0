package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// wavHeaderSize is the size of a canonical WAV header; a file no larger
	// than this holds no samples.
	wavHeaderSize = 44

	captureStopTimeout = 5 * time.Second
)

// pipeWireCapture is a running pw-record process.
type pipeWireCapture struct {
	path string
	cmd  *exec.Cmd

	stderrBuf bytes.Buffer

	mu      sync.Mutex
	stopped bool
}

func startPipeWireCapture(dir, source string, quality Quality, logWriter io.Writer) (*pipeWireCapture, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create recordings directory: %w", err)
	}

	c := &pipeWireCapture{
		path: filepath.Join(dir, "rec-"+uuid.NewString()+".wav"),
	}

	args := captureArgs(source, quality, c.path)
	c.cmd = exec.Command(args[0], args[1:]...)
	c.cmd.Stdout = logWriter
	c.cmd.Stderr = io.MultiWriter(logWriter, &c.stderrBuf)

	slog.Debug("Starting pw-record", "args", args)

	if err := c.cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start pw-record: %w", err)
	}

	slog.Info("Capture started", "file", c.path, "quality", quality.Name, "rate", quality.SampleRate)
	return c, nil
}

func captureArgs(source string, quality Quality, path string) []string {
	args := []string{
		"pw-record",
		"--rate", strconv.Itoa(quality.SampleRate),
		"--channels", strconv.Itoa(quality.Channels),
		"--format", quality.Format,
	}
	if source != "" {
		args = append(args, "--target", source)
	}
	return append(args, path)
}

// Stop interrupts pw-record so it finalises the WAV header, then checks
// that audio was actually written.
func (c *pipeWireCapture) Stop(ctx context.Context) (Reference, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return "", fmt.Errorf("capture already stopped")
	}
	c.stopped = true

	if err := c.stopProcess(ctx); err != nil {
		return "", err
	}

	if err := c.validateOutputFile(); err != nil {
		return "", err
	}

	return FileReference(c.path), nil
}

func (c *pipeWireCapture) stopProcess(ctx context.Context) error {
	if c.cmd.Process == nil {
		return nil
	}

	if err := c.cmd.Process.Signal(os.Interrupt); err != nil {
		slog.Debug("Failed to send interrupt to pw-record, killing", "error", err)
		_ = c.cmd.Process.Kill()
	}

	done := make(chan error, 1)
	go func() {
		done <- c.cmd.Wait()
	}()

	select {
	case err := <-done:
		if err != nil && !interruptedExit(err) {
			slog.Debug("pw-record stderr", "output", c.stderrBuf.String())
			return fmt.Errorf("%w: pw-record failed: %v", ErrUnavailable, err)
		}
		return nil

	case <-ctx.Done():
		_ = c.cmd.Process.Kill()
		<-done
		return ctx.Err()

	case <-time.After(captureStopTimeout):
		slog.Warn("pw-record did not exit within timeout, force killing")
		_ = c.cmd.Process.Kill()
		<-done
		return nil
	}
}

// interruptedExit reports whether the process ended because we interrupted it
func interruptedExit(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ProcessState == nil {
		return false
	}

	state := exitErr.ProcessState.String()
	return state == "signal: interrupt" || state == "signal: killed" || exitErr.ExitCode() == 130
}

func (c *pipeWireCapture) validateOutputFile() error {
	fileInfo, err := os.Stat(c.path)
	if err != nil {
		return fmt.Errorf("%w: recording file not found: %s", ErrUnavailable, c.path)
	}

	if fileInfo.Size() <= wavHeaderSize {
		_ = os.Remove(c.path)
		return fmt.Errorf("%w: recording is empty (%d bytes)", ErrUnavailable, fileInfo.Size())
	}

	slog.Debug("Recording file validated", "file", c.path, "size", fileInfo.Size())
	return nil
}
