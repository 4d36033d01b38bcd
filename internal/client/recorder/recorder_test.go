package recorder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxjournal/voxjournal/internal/common"
)

type fakeSource struct {
	startErr error
	ch       chan []byte
	stopped  bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{ch: make(chan []byte, 16)}
}

func (f *fakeSource) Start(ctx context.Context) (<-chan []byte, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	return f.ch, nil
}

func (f *fakeSource) Stop() error {
	f.stopped = true
	close(f.ch)
	return nil
}

type fakeClock struct {
	ch chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{ch: make(chan time.Time)}
}

func (f *fakeClock) Ticks(ctx context.Context) <-chan time.Time {
	out := make(chan time.Time)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-f.ch:
				out <- t
			}
		}
	}()
	return out
}

// tick advances the session's duration counter by n seconds.
func (f *fakeClock) tick(n int) {
	for i := 0; i < n; i++ {
		f.ch <- time.Now()
	}
}

func TestSession_RecordStopFreezesDuration(t *testing.T) {
	src := newFakeSource()
	clk := newFakeClock()
	s := NewSession(src, clk)

	require.NoError(t, s.Start(context.Background()))
	require.Equal(t, StateRecording, s.State())

	src.ch <- []byte("chunk-1 ")
	src.ch <- []byte("chunk-2")
	clk.tick(12)

	require.Eventually(t, func() bool { return s.ElapsedSec() == 12 },
		time.Second, time.Millisecond)

	require.NoError(t, s.Stop())
	assert.Equal(t, StateFinalized, s.State())
	assert.Equal(t, 12, s.DurationSec())
	assert.Equal(t, []byte("chunk-1 chunk-2"), s.Blob())
	assert.True(t, src.stopped, "device must be released on stop")
}

func TestSession_StartFailureStaysIdle(t *testing.T) {
	src := newFakeSource()
	src.startErr = common.ErrPermissionDenied
	s := NewSession(src, newFakeClock())

	err := s.Start(context.Background())
	assert.ErrorIs(t, err, common.ErrPermissionDenied)
	assert.Equal(t, StateIdle, s.State())
	assert.ErrorIs(t, s.Err(), common.ErrPermissionDenied)
}

func TestSession_CannotStartTwice(t *testing.T) {
	src := newFakeSource()
	s := NewSession(src, newFakeClock())

	require.NoError(t, s.Start(context.Background()))
	assert.Error(t, s.Start(context.Background()))
	require.NoError(t, s.Stop())
}

func TestSession_DiscardWhileRecording(t *testing.T) {
	src := newFakeSource()
	clk := newFakeClock()
	s := NewSession(src, clk)

	require.NoError(t, s.Start(context.Background()))
	src.ch <- []byte("chunk")
	clk.tick(3)

	require.NoError(t, s.Discard())
	assert.Equal(t, StateIdle, s.State())
	assert.Nil(t, s.Blob())
	assert.Zero(t, s.DurationSec())
	assert.True(t, src.stopped, "device must be released on discard")
}

func TestSession_DiscardFinalized(t *testing.T) {
	src := newFakeSource()
	s := NewSession(src, newFakeClock())

	require.NoError(t, s.Start(context.Background()))
	src.ch <- []byte("chunk")
	require.NoError(t, s.Stop())
	require.Equal(t, StateFinalized, s.State())

	require.NoError(t, s.Discard())
	assert.Equal(t, StateIdle, s.State())
	assert.Nil(t, s.Blob())
}

func TestSession_BeginUpload(t *testing.T) {
	src := newFakeSource()
	s := NewSession(src, newFakeClock())

	assert.Error(t, s.BeginUpload(), "upload requires a finalized blob")

	require.NoError(t, s.Start(context.Background()))
	src.ch <- []byte("chunk")
	require.NoError(t, s.Stop())

	require.NoError(t, s.BeginUpload())
	assert.Equal(t, StateUploading, s.State())
	assert.Error(t, s.Discard(), "cannot discard mid-upload")
}

func TestSession_CloseReleasesActiveCapture(t *testing.T) {
	src := newFakeSource()
	s := NewSession(src, newFakeClock())

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Close())
	assert.True(t, src.stopped)
	assert.Equal(t, StateIdle, s.State())
}

func TestSession_CloseIdleIsNoop(t *testing.T) {
	s := NewSession(newFakeSource(), newFakeClock())
	assert.NoError(t, s.Close())
}

func TestUserMessage(t *testing.T) {
	assert.Contains(t, UserMessage(common.ErrPermissionDenied), "denied")
	assert.Contains(t, UserMessage(common.ErrDeviceNotFound), "microphone")
	assert.Contains(t, UserMessage(common.ErrFormatUnsupported), "format")
	assert.Contains(t, UserMessage(errors.New("boom")), "boom")
	assert.Empty(t, UserMessage(nil))
}

func TestMapStartError(t *testing.T) {
	assert.ErrorIs(t, mapStartError(errors.New("exec"), "arecord: Permission denied"), common.ErrPermissionDenied)
	assert.ErrorIs(t, mapStartError(errors.New("exec"), "arecord: No such device"), common.ErrDeviceNotFound)
	assert.ErrorIs(t, mapStartError(errors.New("exec"), "audio open error: Device or resource busy"), common.ErrDeviceNotFound)
	assert.ErrorIs(t, mapStartError(errors.New("exec"), "wrong format setting"), common.ErrFormatUnsupported)
	err := errors.New("something else")
	assert.Equal(t, err, mapStartError(err, ""))
}
