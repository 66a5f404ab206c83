// Package voice wraps the manually toggled recording window: while
// active it streams raw microphone chunks into a sink, and it
// guarantees the capture device is released by the time Stop
// returns. What the transcription of the window turns into is the
// caller's business.
package voice

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Capturer is the microphone half of an audio client. Both the
// miniaudio and portaudio clients satisfy it.
type Capturer interface {
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
}

// CaptureSession owns one microphone window at a time. Starting
// while active and stopping while inactive are no-ops.
type CaptureSession struct {
	capturer Capturer
	sink     func(chunk []byte) error
	onError  func(error)

	active atomic.Bool
	mu     sync.Mutex
}

type Option func(*CaptureSession)

// WithErrorCallback is invoked when streaming a chunk fails; the
// window is aborted before the callback runs.
func WithErrorCallback(callback func(error)) Option {
	return func(s *CaptureSession) { s.onError = callback }
}

func NewCaptureSession(capturer Capturer, sink func(chunk []byte) error, opts ...Option) *CaptureSession {
	session := &CaptureSession{
		capturer: capturer,
		sink:     sink,
		onError:  func(error) {},
	}
	for _, opt := range opts {
		opt(session)
	}
	return session
}

// Start opens the recording window. Chunks flow into the sink until
// Stop; a sink failure aborts the window and reports through the
// error callback.
func (s *CaptureSession) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active.Load() {
		return nil
	}

	if err := s.capturer.StartCapture(ctx, s.forward); err != nil {
		return fmt.Errorf("failed to start voice capture: %w", err)
	}

	s.active.Store(true)
	return nil
}

func (s *CaptureSession) forward(chunk []byte) {
	if !s.active.Load() {
		return
	}

	if err := s.sink(chunk); err != nil {
		err = fmt.Errorf("failed to stream voice chunk: %w", err)
		if stopErr := s.Stop(); stopErr != nil {
			err = fmt.Errorf("%w (capture release also failed: %v)", err, stopErr)
		}
		s.onError(err)
	}
}

// Stop closes the window and releases the microphone before
// returning.
func (s *CaptureSession) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active.Load() {
		return nil
	}

	s.active.Store(false)
	if err := s.capturer.StopCapture(); err != nil {
		return fmt.Errorf("failed to stop voice capture: %w", err)
	}
	return nil
}

// Active reports whether a recording window is open.
func (s *CaptureSession) Active() bool {
	return s.active.Load()
}
