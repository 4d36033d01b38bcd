package recorder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/voxjournal/voxjournal/internal/common"
)

// startWindow is how long Start watches for an immediate arecord exit. ALSA
// reports unusable devices ("audio open error", busy card) on stderr only
// after the process has launched, so a successful exec alone proves nothing.
const startWindow = 200 * time.Millisecond

// stopFlush bounds how long Stop waits for arecord to flush after SIGINT.
const stopFlush = 2 * time.Second

// ArecordSource captures from the default ALSA microphone by running arecord
// and streaming its stdout.
type ArecordSource struct {
	mu          sync.Mutex
	cmd         *exec.Cmd
	stderr      *strings.Builder
	waitCh      chan error
	quit        chan struct{}
	quitOnce    *sync.Once
	highQuality bool
}

func NewArecordSource(highQuality bool) *ArecordSource {
	return &ArecordSource{highQuality: highQuality}
}

// chunkWriter forwards stdout writes to the capture channel. A closed quit
// channel aborts pending sends so a stuck consumer cannot wedge Stop.
type chunkWriter struct {
	ch   chan []byte
	quit chan struct{}
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	chunk := make([]byte, len(p))
	copy(chunk, p)
	select {
	case w.ch <- chunk:
		return len(p), nil
	case <-w.quit:
		return 0, io.ErrClosedPipe
	}
}

// Start launches arecord writing WAV to stdout and returns a channel of raw
// chunks. Device errors surface on stderr right after launch, so Start holds
// a short watch window and treats an exit inside it as a start failure,
// mapped to the capture-stage sentinels.
func (a *ArecordSource) Start(ctx context.Context) (<-chan []byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cmd != nil {
		return nil, fmt.Errorf("already recording")
	}

	if _, err := exec.LookPath("arecord"); err != nil {
		return nil, fmt.Errorf("%w: arecord not installed", common.ErrDeviceNotFound)
	}

	// Voice notes default to 16 kHz mono; the high-quality toggle switches
	// to CD format.
	args := []string{"-f", "S16_LE", "-r", "16000", "-c", "1", "-t", "wav", "-"}
	if a.highQuality {
		args = []string{"-f", "cd", "-t", "wav", "-"}
	}
	cmd := exec.CommandContext(ctx, "arecord", args...)
	stderr := &strings.Builder{}
	cmd.Stderr = stderr

	ch := make(chan []byte)
	quit := make(chan struct{})
	cmd.Stdout = &chunkWriter{ch: ch, quit: quit}

	if err := cmd.Start(); err != nil {
		return nil, mapStartError(err, stderr.String())
	}

	waitCh := make(chan error, 1)
	go func() {
		waitCh <- cmd.Wait()
		close(ch)
	}()

	select {
	case err := <-waitCh:
		if err == nil {
			err = fmt.Errorf("arecord exited before capturing")
		}
		return nil, mapStartError(err, stderr.String())
	case <-time.After(startWindow):
	}

	a.cmd = cmd
	a.stderr = stderr
	a.waitCh = waitCh
	a.quit = quit
	a.quitOnce = &sync.Once{}
	return ch, nil
}

// Stop interrupts arecord so it can flush and close the stream, then reports
// how the process actually ended. A capture that died on a device error is
// returned mapped, not swallowed.
func (a *ArecordSource) Stop() error {
	a.mu.Lock()
	cmd := a.cmd
	stderr := a.stderr
	waitCh := a.waitCh
	quit := a.quit
	quitOnce := a.quitOnce
	a.cmd = nil
	a.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return fmt.Errorf("not recording")
	}

	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		_ = cmd.Process.Kill()
	}

	var waitErr error
	select {
	case waitErr = <-waitCh:
	case <-time.After(stopFlush):
		quitOnce.Do(func() { close(quit) })
		_ = cmd.Process.Kill()
		waitErr = <-waitCh
	}

	if waitErr != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return mapStartError(waitErr, msg)
		}
	}
	return nil
}

func mapStartError(err error, stderr string) error {
	detail := err.Error()
	if s := strings.TrimSpace(stderr); s != "" {
		detail = s
	}
	msg := strings.ToLower(stderr + " " + err.Error())
	switch {
	case errors.Is(err, os.ErrPermission) || strings.Contains(msg, "permission denied"):
		return fmt.Errorf("%w: %s", common.ErrPermissionDenied, detail)
	case strings.Contains(msg, "no such device") || strings.Contains(msg, "no such file") ||
		strings.Contains(msg, "resource busy"):
		return fmt.Errorf("%w: %s", common.ErrDeviceNotFound, detail)
	case strings.Contains(msg, "sample format") || strings.Contains(msg, "wrong format"):
		return fmt.Errorf("%w: %s", common.ErrFormatUnsupported, detail)
	default:
		if s := strings.TrimSpace(stderr); s != "" {
			return fmt.Errorf("%s: %w", s, err)
		}
		return err
	}
}
