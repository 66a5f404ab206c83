package miniaudio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/calehall/tutor-core/core/audio"
)

// playbackClient owns the speaker device. Queued audio drains into
// the device callback; marks record positions in the queue so a
// caller can learn when everything queued before a point has been
// handed to the hardware. Narration end detection rides on that.
type playbackClient struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device
	config       malgo.DeviceConfig

	pending []byte
	marks   []playbackMark

	mu      sync.Mutex
	audioMu sync.Mutex
	marksMu sync.Mutex
}

type playbackMark struct {
	name     string
	position int
	callback func(string)
}

func (c *playbackClient) Init(audioContext *malgo.AllocatedContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sampleRate := uint32(audio.PlaybackSampleRate)
	channels := 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	c.config = malgo.DefaultDeviceConfig(malgo.Playback)
	c.config.SampleRate = sampleRate
	c.config.Playback.Format = format
	c.config.Playback.Channels = uint32(channels)
	c.config.Alsa.NoMMap = 1
	c.config.PeriodSizeInFrames = sampleRate / 10 // ~100ms of audio
	c.config.Periods = 4

	c.audioContext = audioContext

	var err error
	if c.device, err = malgo.InitDevice(
		c.audioContext.Context,
		c.config,
		malgo.DeviceCallbacks{Data: c.feedDevice(bytesPerFrame)},
	); err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	return nil
}

func (c *playbackClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("playback device not initialized")
	}

	if err := c.device.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}

	return nil
}

// Stop halts the device and drops whatever was still queued; a
// stopped narration must not resume mid-clip on the next start.
func (c *playbackClient) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("playback device not initialized")
	}

	if err := c.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop playback device: %w", err)
	}

	c.ClearBuffer()
	return nil
}

func (c *playbackClient) SendAudio(chunk []byte) error {
	if c.device == nil {
		return fmt.Errorf("playback device not initialized")
	} else if !c.device.IsStarted() {
		return fmt.Errorf("playback device not started")
	}

	c.audioMu.Lock()
	defer c.audioMu.Unlock()
	c.pending = append(c.pending, chunk...)
	return nil
}

// ClearBuffer drops the queue and every registered mark. Pending
// mark callbacks are never invoked after a clear.
func (c *playbackClient) ClearBuffer() {
	c.audioMu.Lock()
	c.marksMu.Lock()
	defer c.audioMu.Unlock()
	defer c.marksMu.Unlock()
	c.pending = make([]byte, 0)
	c.marks = nil
}

// AwaitMark blocks until every sample queued before the call has
// been handed to the device. Narration uses it to learn when a clip
// finished.
func (c *playbackClient) AwaitMark() error {
	wg := sync.WaitGroup{}
	wg.Add(1)
	go c.Mark("", func(string) { wg.Done() })
	wg.Wait()
	return nil
}

// Mark registers a callback for the current end of the queue; the
// callback fires once playback drains past it.
func (c *playbackClient) Mark(mark string, callback func(string)) error {
	c.marksMu.Lock()
	defer c.marksMu.Unlock()
	c.marks = append(c.marks, playbackMark{
		name:     mark,
		position: len(c.pending),
		callback: callback,
	})
	return nil
}

func (c *playbackClient) Uninit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil {
		return fmt.Errorf("playback device not initialized")
	}

	c.device.Uninit()
	c.device = nil

	return nil
}

func (c *playbackClient) feedDevice(bytesPerFrame int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		need := int(frameCount) * bytesPerFrame
		c.drainMarks(need)

		if len(c.pending) == 0 {
			return
		}

		if len(c.pending) < need {
			_ = copy(pOutput, c.pending)
			c.audioMu.Lock()
			c.pending = nil
			c.audioMu.Unlock()
			return
		}

		_ = copy(pOutput, c.pending[:need])
		c.audioMu.Lock()
		c.pending = c.pending[need:]
		c.audioMu.Unlock()
	}
}

// drainMarks shifts mark positions by the bytes handed to the device
// this period and fires the callbacks of marks playback moved past.
func (c *playbackClient) drainMarks(until int) {
	passed := 0
	for i, mark := range c.marks {
		if mark.position >= until {
			c.marks[i].position -= until
		} else {
			passed++
		}
	}
	if passed > 0 {
		c.marksMu.Lock()
		toCall := c.marks[:passed]
		c.marks = c.marks[passed:]
		defer c.marksMu.Unlock()
		go func() {
			for _, mark := range toCall {
				mark.callback(mark.name)
			}
		}()
	}
}
