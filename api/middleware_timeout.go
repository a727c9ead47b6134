package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

type timeoutWriterKey struct{}

// TimeoutMiddleware adds request timeout to prevent long-running requests. A handler that
// has called Commit is let finish and answers normally even past the deadline.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			tw := &timeoutWriter{w: w, h: make(http.Header)}
			r = r.WithContext(context.WithValue(ctx, timeoutWriterKey{}, tw))

			done := make(chan struct{}, 1)
			go func() {
				next.ServeHTTP(tw, r)
				done <- struct{}{}
			}()

			select {
			case <-done:
				tw.flush()
			case <-ctx.Done():
				tw.mu.Lock()
				if tw.committed {
					tw.mu.Unlock()
					<-done
					tw.flush()
					return
				}
				defer tw.mu.Unlock()
				tw.timedOut = true
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					zap.S().Warnw("Request timeout",
						"path", r.URL.Path,
						"method", r.Method,
						"timeout", timeout)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusRequestTimeout)
					w.Write([]byte(`{"error": "Request timeout", "message": "The request took too long to process"}`))
				}
			}
		})
	}
}

// Commit marks the request as past the point of no return, typically right before a
// state change. It reports false when the request has already timed out or been
// cancelled, in which case the handler must stop without changing anything.
func Commit(ctx context.Context) bool {
	tw, ok := ctx.Value(timeoutWriterKey{}).(*timeoutWriter)
	if !ok {
		return ctx.Err() == nil
	}
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut || ctx.Err() != nil {
		return false
	}
	tw.committed = true
	return true
}

// timeoutWriter buffers the handler's response so nothing reaches the client after
// the middleware has answered with a timeout.
type timeoutWriter struct {
	w        http.ResponseWriter
	h        http.Header
	mu       sync.Mutex
	body     []byte
	code     int
	timedOut bool

	committed bool
}

func (tw *timeoutWriter) Header() http.Header {
	return tw.h
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut || tw.code != 0 {
		return
	}
	tw.code = code
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	if tw.code == 0 {
		tw.code = http.StatusOK
	}
	tw.body = append(tw.body, b...)
	return len(b), nil
}

func (tw *timeoutWriter) flush() {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	dst := tw.w.Header()
	for k, v := range tw.h {
		dst[k] = v
	}
	if tw.code == 0 {
		tw.code = http.StatusOK
	}
	tw.w.WriteHeader(tw.code)
	tw.w.Write(tw.body)
}
