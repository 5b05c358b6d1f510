package service

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/deptdocs/revisor/internal/domain"
	"github.com/deptdocs/revisor/internal/metrics"
)

var _ domain.Dispatcher = (*DispatchWorker)(nil)

// sinkWorker labels events lost to a panicking inner dispatcher.
const sinkWorker = "worker"

// DispatchWorker buffers lifecycle events and hands them to an inner
// Dispatcher from a single goroutine, so writers do not wait on the audit
// log or on notification fan-out. Once Run has stopped, Dispatch calls the
// inner dispatcher on the caller's goroutine instead of queueing.
type DispatchWorker struct {
	inner  domain.Dispatcher
	log    *logrus.Logger
	events chan domain.LifecycleEvent

	// mu orders enqueues against the stop in Run: an event is either queued
	// before drain starts or sees stopped.
	mu      sync.RWMutex
	stopped bool
}

// NewDispatchWorker creates a DispatchWorker with the given queue capacity.
func NewDispatchWorker(inner domain.Dispatcher, log *logrus.Logger, queueSize int) *DispatchWorker {
	if queueSize <= 0 {
		queueSize = 1000
	}

	return &DispatchWorker{
		inner:  inner,
		log:    log,
		events: make(chan domain.LifecycleEvent, queueSize),
	}
}

// Dispatch enqueues the event without blocking. A full queue drops the event.
func (w *DispatchWorker) Dispatch(ctx context.Context, evt domain.LifecycleEvent) {
	w.mu.RLock()
	if w.stopped {
		w.mu.RUnlock()
		w.process(context.WithoutCancel(ctx), evt)

		return
	}

	select {
	case w.events <- evt:
		metrics.DispatchQueueDepth.Set(float64(len(w.events)))
		w.mu.RUnlock()
	default:
		w.mu.RUnlock()
		metrics.DispatchDropped.Inc()
		w.log.WithFields(eventFields(evt)).Warn("dispatch queue full, dropping event")
	}
}

// Run processes events until ctx is cancelled, then drains what is queued.
func (w *DispatchWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			w.stopped = true
			w.mu.Unlock()

			w.drain()

			return
		case evt := <-w.events:
			w.process(context.Background(), evt)
		}
	}
}

func (w *DispatchWorker) drain() {
	for {
		select {
		case evt := <-w.events:
			w.process(context.Background(), evt)
		default:
			return
		}
	}
}

func (w *DispatchWorker) process(ctx context.Context, evt domain.LifecycleEvent) {
	defer func() {
		if r := recover(); r != nil {
			metrics.DispatchFailures.WithLabelValues(sinkWorker).Inc()
			w.log.WithFields(eventFields(evt)).WithField("panic", r).Error("dispatcher panicked")
		}
	}()

	metrics.DispatchQueueDepth.Set(float64(len(w.events)))
	w.inner.Dispatch(ctx, evt)
}

func eventFields(evt domain.LifecycleEvent) logrus.Fields {
	return logrus.Fields{
		"kind":       evt.Kind,
		"content_id": evt.Content.ID,
		"version":    evt.Version.VersionNumber,
	}
}
