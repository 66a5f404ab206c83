package session

import (
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/calehall/tutor-core/core/transport"
)

const sessionFrameQueueCapacity = 32

type frameQueueItem struct {
	msg      transport.Message
	queuedAt time.Time
}

// sessionRuntime runs the single-threaded event loop: frames are
// queued by the transport's delivery goroutine and processed one at
// a time, each handler running to completion before the next frame
// is taken.
type sessionRuntime struct {
	queue   chan frameQueueItem
	closeCh chan struct{}
	done    chan struct{}

	startOnce sync.Once
	endOnce   sync.Once

	started atomic.Bool
}

func newSessionRuntime() *sessionRuntime {
	return &sessionRuntime{
		queue:   make(chan frameQueueItem, sessionFrameQueueCapacity),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (runtime *sessionRuntime) start(s *Session) (started bool) {
	if runtime == nil || runtime.isClosed() {
		return false
	}

	runtime.startOnce.Do(func() {
		if runtime.isClosed() {
			return
		}

		started = true
		runtime.started.Store(true)
		go func() {
			defer close(runtime.done)

			for {
				select {
				case <-runtime.closeCh:
					return
				case queuedFrame := <-runtime.queue:
					if runtime.isClosed() {
						return
					}
					runtime.processQueuedFrame(s, queuedFrame)
				}
			}
		}()
	})

	return started
}

func (runtime *sessionRuntime) end() {
	if runtime == nil {
		return
	}

	runtime.endOnce.Do(func() {
		close(runtime.closeCh)
	})
}

func (runtime *sessionRuntime) waitUntilEnded() {
	if runtime == nil {
		return
	}

	if runtime.started.Load() {
		<-runtime.done
	}
}

func (runtime *sessionRuntime) enqueue(msg transport.Message) bool {
	if runtime == nil || runtime.isClosed() {
		return false
	}

	queueItem := frameQueueItem{msg: msg, queuedAt: time.Now()}
	select {
	case <-runtime.closeCh:
		return false
	case runtime.queue <- queueItem:
		return true
	}
}

func (runtime *sessionRuntime) isClosed() bool {
	if runtime == nil {
		return false
	}

	select {
	case <-runtime.closeCh:
		return true
	default:
		return false
	}
}

func (runtime *sessionRuntime) queuedFrameCount() int {
	if runtime == nil {
		return 0
	}

	return len(runtime.queue)
}

func (runtime *sessionRuntime) processQueuedFrame(s *Session, queuedFrame frameQueueItem) {
	if runtime == nil || s == nil {
		return
	}

	ctx, span := tracer.Start(s.baseContext, "process frame")
	defer span.End()

	queuedTime := time.Since(queuedFrame.queuedAt).Seconds()
	span.AddEvent("taken out of queue", trace.WithAttributes(attribute.Float64("frame.queued_time", queuedTime)))
	span.SetAttributes(
		attribute.String("frame.kind", string(queuedFrame.msg.WireKind())),
		attribute.Float64("frame.queued_time", queuedTime),
		attribute.Int("frame.queued_frames", runtime.queuedFrameCount()),
	)

	s.handleFrame(ctx, queuedFrame.msg)
}
