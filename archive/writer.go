// Package archive moves completed hearings into archival storage off the request path.
package archive

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/causelist-api/models"
)

// Store persists a completed hearing. databases.ArchiveDatabase satisfies it.
type Store interface {
	Archive(ctx context.Context, hearing models.Hearing) error
}

// Writer queues completed hearings and writes them to the store from a single worker.
// Enqueue never blocks: when the queue is full the record is dropped and logged, since
// the registry has already committed the completion.
type Writer struct {
	store        Store
	queue        chan models.Hearing
	writeTimeout time.Duration

	startOnce sync.Once
	mu        sync.RWMutex
	stopped   bool
	done      chan struct{}
}

// NewWriter creates a writer with room for size pending records
func NewWriter(store Store, size int, writeTimeout time.Duration) *Writer {
	if size <= 0 {
		size = 100
	}
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &Writer{
		store:        store,
		queue:        make(chan models.Hearing, size),
		writeTimeout: writeTimeout,
		done:         make(chan struct{}),
	}
}

// Start launches the worker
func (w *Writer) Start() {
	w.startOnce.Do(func() {
		go w.run()
	})
}

// Enqueue hands a completed hearing to the worker. It reports false if the record was
// dropped, either because the queue is full or the writer has been stopped.
func (w *Writer) Enqueue(h models.Hearing) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		zap.S().Warnw("archive writer stopped, dropping hearing",
			"hearingId", h.ID,
			"caseNumber", h.CaseNumber)
		return false
	}
	select {
	case w.queue <- h:
		return true
	default:
		zap.S().Warnw("archive queue full, dropping hearing",
			"hearingId", h.ID,
			"caseNumber", h.CaseNumber)
		return false
	}
}

// Stop closes the queue and waits for the worker to drain it, or for ctx to end.
func (w *Writer) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.stopped {
		w.stopped = true
		close(w.queue)
	}
	w.mu.Unlock()
	w.Start()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Writer) run() {
	defer close(w.done)
	for h := range w.queue {
		w.write(h)
	}
}

func (w *Writer) write(h models.Hearing) {
	ctx, cancel := context.WithTimeout(context.Background(), w.writeTimeout)
	defer cancel()

	start := time.Now()
	if err := w.store.Archive(ctx, h); err != nil {
		zap.S().Errorw("failed to archive hearing",
			"hearingId", h.ID,
			"caseNumber", h.CaseNumber,
			"error", err)
		return
	}
	zap.S().Infow("hearing archived",
		"hearingId", h.ID,
		"caseNumber", h.CaseNumber,
		"duration", time.Since(start))
}
