// Package mpv implements the audio source port on top of mpv's JSON-IPC
// protocol. Each opened resource runs its own mpv process so that a full
// reload produces byte-identical starting conditions.
package mpv

import (
	"context"
	"crypto/rand"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/murattal/recite/internal/domain"
	"github.com/sirupsen/logrus"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond

	// statusInterval drives the per-update callback. It runs faster than
	// the engine's coarse sample loop because end-of-range trimming needs
	// tighter granularity than verse highlighting.
	statusInterval = 50 * time.Millisecond
)

// Source opens mpv-backed audio resources.
type Source struct{}

func NewSource() *Source {
	return &Source{}
}

// Open starts an mpv process for the URL, paused, positioned at startMs.
func (s *Source) Open(ctx context.Context, url string, startMs int64) (domain.AudioResource, error) {
	r := &Resource{
		exited:  make(chan struct{}),
		stopped: make(chan struct{}),
	}
	if err := r.start(ctx, url, startMs); err != nil {
		return nil, err
	}
	return r, nil
}

// Resource is one open mpv playback stream.
type Resource struct {
	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{} // closed when the mpv process exits

	mu       sync.Mutex
	callback func(domain.StatusUpdate)
	finished bool // didJustFinish already delivered
	unloaded bool
	stopped  chan struct{} // signals the status loop to stop
}

func (r *Resource) start(ctx context.Context, url string, startMs int64) error {
	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return fmt.Errorf("generate socket name: %w", err)
	}
	r.socketPath = filepath.Join(os.TempDir(), fmt.Sprintf("recite-%x.sock", randomBytes))

	args := []string{
		"--no-terminal",
		"--really-quiet",
		"--no-video",
		"--pause",
		"--keep-open=yes",
		fmt.Sprintf("--input-ipc-server=%s", r.socketPath),
	}
	if startMs > 0 {
		args = append(args, fmt.Sprintf("--start=%.3f", float64(startMs)/1000))
	}
	args = append(args, url)

	r.cmd = exec.CommandContext(ctx, "mpv", args...)
	r.cmd.Stdout = nil
	r.cmd.Stderr = nil
	r.cmd.Stdin = nil

	if err := r.cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}

	// Reap the process to prevent zombies
	go func() {
		_ = r.cmd.Wait()
		close(r.exited)
	}()

	if err := r.waitForSocket(); err != nil {
		select {
		case <-r.exited:
		default:
			logrus.Warn("killing mpv: socket never became ready")
			_ = r.cmd.Process.Kill()
		}
		return fmt.Errorf("mpv socket not ready: %w", err)
	}

	go r.statusLoop()

	return nil
}

// waitForSocket polls until the mpv IPC socket is accepting connections.
func (r *Resource) waitForSocket() error {
	for i := 0; i < socketWaitRetries; i++ {
		time.Sleep(socketWaitDelay)

		select {
		case <-r.exited:
			return fmt.Errorf("mpv exited before socket was ready")
		default:
		}

		conn, err := net.Dial("unix", r.socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", r.socketPath, socketWaitRetries)
}

// Play resumes playback.
func (r *Resource) Play() error {
	_, err := sendCommand(r.socketPath, []interface{}{"set_property", "pause", false})
	if err != nil {
		return fmt.Errorf("resume: %w", err)
	}
	r.mu.Lock()
	r.finished = false
	r.mu.Unlock()
	return nil
}

// Pause suspends playback.
func (r *Resource) Pause() error {
	_, err := sendCommand(r.socketPath, []interface{}{"set_property", "pause", true})
	if err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	return nil
}

// Seek moves playback to an absolute millisecond offset.
func (r *Resource) Seek(positionMs int64) error {
	_, err := sendCommand(r.socketPath, []interface{}{"seek", float64(positionMs) / 1000, "absolute"})
	if err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	r.mu.Lock()
	r.finished = false
	r.mu.Unlock()
	return nil
}

// Position returns the current playback position in milliseconds.
func (r *Resource) Position() (int64, error) {
	return r.getMsProperty("time-pos")
}

// Duration returns the stream duration in milliseconds. The property is not
// available until mpv has probed the stream, so this retries briefly.
func (r *Resource) Duration() (int64, error) {
	var lastErr error
	for i := 0; i < socketWaitRetries; i++ {
		ms, err := r.getMsProperty("duration")
		if err == nil {
			return ms, nil
		}
		lastErr = err
		if !strings.Contains(err.Error(), "property unavailable") {
			break
		}
		time.Sleep(socketWaitDelay)
	}
	return 0, lastErr
}

func (r *Resource) getMsProperty(name string) (int64, error) {
	data, err := sendCommand(r.socketPath, []interface{}{"get_property", name})
	if err != nil {
		return 0, err
	}
	seconds, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("unexpected %s value: %v", name, data)
	}
	return int64(seconds * 1000), nil
}

// OnUpdate registers the status callback, replacing any previous one.
func (r *Resource) OnUpdate(fn func(domain.StatusUpdate)) {
	r.mu.Lock()
	r.callback = fn
	r.mu.Unlock()
}

// Unload stops playback and releases the mpv process. Never returns an error
// for an already-gone process.
func (r *Resource) Unload() error {
	r.mu.Lock()
	if r.unloaded {
		r.mu.Unlock()
		return nil
	}
	r.unloaded = true
	close(r.stopped)
	r.mu.Unlock()

	_, _ = sendCommand(r.socketPath, []interface{}{"quit"})

	select {
	case <-r.exited:
	case <-time.After(2 * time.Second):
		if r.cmd.Process != nil {
			_ = r.cmd.Process.Kill()
		}
	}

	_ = os.Remove(r.socketPath)
	return nil
}

// statusLoop delivers StatusUpdate callbacks until the resource is unloaded
// or the process exits.
func (r *Resource) statusLoop() {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopped:
			return
		case <-r.exited:
			return
		case <-ticker.C:
		}

		update := r.sample()

		r.mu.Lock()
		cb := r.callback
		if update.DidJustFinish {
			if r.finished {
				update.DidJustFinish = false
			} else {
				r.finished = true
			}
		}
		r.mu.Unlock()

		if cb != nil {
			cb(update)
		}
	}
}

func (r *Resource) sample() domain.StatusUpdate {
	update := domain.StatusUpdate{}

	pos, err := r.getMsProperty("time-pos")
	if err != nil {
		return update
	}
	update.PositionMs = pos
	update.IsLoaded = true

	data, err := sendCommand(r.socketPath, []interface{}{"get_property", "eof-reached"})
	if err == nil {
		if eof, ok := data.(bool); ok && eof {
			update.DidJustFinish = true
		}
	}

	return update
}
