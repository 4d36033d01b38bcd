// Package recorder owns the client-side recording session: capturing
// microphone audio into one finalized blob with a trustworthy duration.
//
// The duration is measured by an independent wall-clock ticker, never derived
// from the captured stream. The value frozen at stop time is what the server
// stores; media metadata is not consulted.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/voxjournal/voxjournal/internal/common"
)

// State of a recording session.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateFinalized
	StateUploading
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateFinalized:
		return "finalized"
	case StateUploading:
		return "uploading"
	}
	return "unknown"
}

// CaptureSource produces chunks of encoded audio from the microphone.
// Implementations must map device errors onto common.ErrPermissionDenied,
// common.ErrDeviceNotFound or common.ErrFormatUnsupported so the session can
// show a distinct message per cause.
type CaptureSource interface {
	// Start acquires the device and returns a channel of audio chunks.
	// The channel is closed after Stop.
	Start(ctx context.Context) (<-chan []byte, error)
	// Stop halts capture, flushes pending chunks, and releases the device.
	Stop() error
}

// Clock drives the session's duration counter, one tick per second.
type Clock interface {
	Ticks(ctx context.Context) <-chan time.Time
}

type wallClock struct{}

func (wallClock) Ticks(ctx context.Context) <-chan time.Time {
	out := make(chan time.Time)
	ticker := time.NewTicker(time.Second)
	go func() {
		defer ticker.Stop()
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				out <- t
			}
		}
	}()
	return out
}

// WallClock returns the real once-per-second clock.
func WallClock() Clock { return wallClock{} }

// Session is the recording state machine:
//
//	Idle -> Recording -> Finalized -> (Idle | Uploading)
//
// Recording goes back to Idle only via Discard. A failed Start leaves the
// session Idle with Err populated.
type Session struct {
	mu sync.Mutex

	src   CaptureSource
	clock Clock

	state       State
	chunks      [][]byte
	blob        []byte
	elapsedSec  int
	durationSec int
	err         error

	cancel context.CancelFunc
	done   chan struct{}
}

func NewSession(src CaptureSource, clock Clock) *Session {
	return &Session{src: src, clock: clock, state: StateIdle}
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error from the last failed Start, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Start acquires the capture device and begins accumulating chunks while the
// wall-clock ticker counts seconds. On failure the state stays Idle.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return fmt.Errorf("cannot start recording from state %s", s.state)
	}

	chunkCh, err := s.src.Start(ctx)
	if err != nil {
		s.err = err
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.chunks = nil
	s.elapsedSec = 0
	s.err = nil
	s.state = StateRecording

	ticks := s.clock.Ticks(runCtx)
	go s.run(chunkCh, ticks)

	return nil
}

func (s *Session) run(chunks <-chan []byte, ticks <-chan time.Time) {
	defer close(s.done)
	for chunks != nil || ticks != nil {
		select {
		case c, ok := <-chunks:
			if !ok {
				chunks = nil
				continue
			}
			s.mu.Lock()
			s.chunks = append(s.chunks, c)
			s.mu.Unlock()
		case _, ok := <-ticks:
			if !ok {
				ticks = nil
				continue
			}
			s.mu.Lock()
			if s.state == StateRecording {
				s.elapsedSec++
			}
			s.mu.Unlock()
		}
	}
}

// ElapsedSec reports the running wall-clock count.
func (s *Session) ElapsedSec() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsedSec
}

// Stop halts capture, concatenates accumulated chunks into one blob, and
// freezes the current tick count as the recording's duration.
func (s *Session) Stop() error {
	s.mu.Lock()
	if s.state != StateRecording {
		s.mu.Unlock()
		return fmt.Errorf("cannot stop from state %s", s.state)
	}
	s.mu.Unlock()

	stopErr := s.src.Stop()
	s.cancel()
	<-s.done

	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, c := range s.chunks {
		total += len(c)
	}
	blob := make([]byte, 0, total)
	for _, c := range s.chunks {
		blob = append(blob, c...)
	}

	s.blob = blob
	s.chunks = nil
	s.durationSec = s.elapsedSec
	s.state = StateFinalized
	return stopErr
}

// Blob returns the finalized recording.
func (s *Session) Blob() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blob
}

// DurationSec returns the frozen wall-clock duration of the finalized blob.
func (s *Session) DurationSec() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.durationSec
}

// Discard drops any in-progress or finalized blob and resets to Idle.
func (s *Session) Discard() error {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	if state == StateRecording {
		_ = s.src.Stop()
		s.cancel()
		<-s.done
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateUploading {
		return fmt.Errorf("cannot discard while uploading")
	}
	s.blob = nil
	s.chunks = nil
	s.elapsedSec = 0
	s.durationSec = 0
	s.state = StateIdle
	return nil
}

// BeginUpload marks the finalized blob as handed off to the upload stage.
func (s *Session) BeginUpload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateFinalized {
		return fmt.Errorf("cannot upload from state %s", s.state)
	}
	s.state = StateUploading
	return nil
}

// Close releases the ticker and, if still capturing, the device. Leaving a
// session unclosed leaks a live microphone handle.
func (s *Session) Close() error {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	if state == StateRecording {
		err := s.src.Stop()
		s.cancel()
		<-s.done
		s.mu.Lock()
		s.state = StateIdle
		s.mu.Unlock()
		return err
	}
	return nil
}

// UserMessage renders a capture-stage error as the distinct user-facing
// message for its cause.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, common.ErrPermissionDenied):
		return "Microphone access was denied. Allow access and try again."
	case errors.Is(err, common.ErrDeviceNotFound):
		return "No microphone was found. Connect one and try again."
	case errors.Is(err, common.ErrFormatUnsupported):
		return "The audio format is not supported on this device."
	default:
		return "Recording could not be started: " + err.Error()
	}
}
