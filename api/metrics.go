package api

import (
	"sort"
	"sync"
	"time"
)

// RequestTrace tracks timing for a single request
type RequestTrace struct {
	RequestID     string        `json:"requestId"`
	Method        string        `json:"method"`
	Route         string        `json:"route"`
	Path          string        `json:"path"`
	Status        int           `json:"status"`
	StartTime     time.Time     `json:"startTime"`
	TotalDuration time.Duration `json:"totalDuration"`
	Error         string        `json:"error,omitempty"`
}

// RouteMetrics aggregates metrics for a specific route
type RouteMetrics struct {
	Method      string        `json:"method"`
	Route       string        `json:"route"`
	Count       int64         `json:"count"`
	ErrorCount  int64         `json:"errorCount"`
	TotalTime   time.Duration `json:"totalTime"`
	AvgTime     time.Duration `json:"avgTime"`
	MinTime     time.Duration `json:"minTime"`
	MaxTime     time.Duration `json:"maxTime"`
	LastRequest time.Time     `json:"lastRequest"`
}

// Summary is the overall view served to admins
type Summary struct {
	TotalRequests int64           `json:"totalRequests"`
	TotalErrors   int64           `json:"totalErrors"`
	ErrorRate     float64         `json:"errorRate"`
	WindowStart   time.Time       `json:"windowStart"`
	RouteCount    int             `json:"routeCount"`
	TraceCount    int             `json:"traceCount"`
	Dropped       int64           `json:"dropped"`
	SlowestRoutes []*RouteMetrics `json:"slowestRoutes"`
}

// MetricsCollector collects and aggregates request metrics. Recording never blocks a
// request: traces go through a buffered channel and are dropped when it is full.
type MetricsCollector struct {
	mu             sync.RWMutex
	traces         []RequestTrace
	maxTraces      int
	routeMetrics   map[string]*RouteMetrics
	windowStart    time.Time
	windowDuration time.Duration
	totalRequests  int64
	totalErrors    int64
	dropped        int64

	traceChan chan RequestTrace
	stopChan  chan struct{}
	stopOnce  sync.Once
	done      chan struct{}
}

// NewMetricsCollector creates a collector and starts its background processor
func NewMetricsCollector(maxTraces int, windowDuration time.Duration) *MetricsCollector {
	if maxTraces <= 0 {
		maxTraces = 10000
	}
	if windowDuration <= 0 {
		windowDuration = time.Hour
	}
	mc := &MetricsCollector{
		traces:         make([]RequestTrace, 0, 64),
		maxTraces:      maxTraces,
		routeMetrics:   make(map[string]*RouteMetrics),
		windowStart:    time.Now(),
		windowDuration: windowDuration,
		traceChan:      make(chan RequestTrace, 1000),
		stopChan:       make(chan struct{}),
		done:           make(chan struct{}),
	}
	go mc.processTraces()
	return mc
}

// Stop ends the background processor
func (mc *MetricsCollector) Stop() {
	mc.stopOnce.Do(func() {
		close(mc.stopChan)
	})
	<-mc.done
}

// RecordTrace queues a trace without blocking
func (mc *MetricsCollector) RecordTrace(trace RequestTrace) {
	select {
	case mc.traceChan <- trace:
	default:
		mc.mu.Lock()
		mc.dropped++
		mc.mu.Unlock()
	}
}

func (mc *MetricsCollector) processTraces() {
	defer close(mc.done)
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case trace := <-mc.traceChan:
			mc.processTrace(trace)
		case now := <-ticker.C:
			mc.cleanup(now)
		case <-mc.stopChan:
			return
		}
	}
}

func (mc *MetricsCollector) processTrace(trace RequestTrace) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if len(mc.traces) >= mc.maxTraces {
		mc.traces = mc.traces[1:]
	}
	mc.traces = append(mc.traces, trace)

	routeKey := trace.Method + " " + trace.Route
	metrics, exists := mc.routeMetrics[routeKey]
	if !exists {
		metrics = &RouteMetrics{
			Method:  trace.Method,
			Route:   trace.Route,
			MinTime: trace.TotalDuration,
		}
		mc.routeMetrics[routeKey] = metrics
	}

	metrics.Count++
	metrics.TotalTime += trace.TotalDuration
	metrics.AvgTime = metrics.TotalTime / time.Duration(metrics.Count)
	metrics.LastRequest = trace.StartTime
	if trace.TotalDuration < metrics.MinTime {
		metrics.MinTime = trace.TotalDuration
	}
	if trace.TotalDuration > metrics.MaxTime {
		metrics.MaxTime = trace.TotalDuration
	}

	mc.totalRequests++
	if trace.Status >= 400 {
		metrics.ErrorCount++
		mc.totalErrors++
	}
}

// cleanup removes traces older than the window. Once the window has run out the
// aggregates start over with a fresh window.
func (mc *MetricsCollector) cleanup(now time.Time) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	cutoff := now.Add(-mc.windowDuration)
	kept := mc.traces[:0]
	for _, trace := range mc.traces {
		if trace.StartTime.After(cutoff) {
			kept = append(kept, trace)
		}
	}
	mc.traces = kept

	if now.Sub(mc.windowStart) > mc.windowDuration {
		mc.windowStart = now
		mc.totalRequests = 0
		mc.totalErrors = 0
		mc.routeMetrics = make(map[string]*RouteMetrics)
	}
}

// GetTraces returns up to limit of the most recent traces, oldest first
func (mc *MetricsCollector) GetTraces(limit int) []RequestTrace {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	start := len(mc.traces) - limit
	if start < 0 || limit <= 0 {
		start = 0
	}
	out := make([]RequestTrace, len(mc.traces)-start)
	copy(out, mc.traces[start:])
	return out
}

// GetRouteMetrics returns a copy of the aggregated metrics for all routes
func (mc *MetricsCollector) GetRouteMetrics() map[string]*RouteMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	result := make(map[string]*RouteMetrics, len(mc.routeMetrics))
	for k, v := range mc.routeMetrics {
		metrics := *v
		result[k] = &metrics
	}
	return result
}

// GetSlowestRoutes returns routes by descending average time
func (mc *MetricsCollector) GetSlowestRoutes(limit int) []*RouteMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.slowest(limit)
}

func (mc *MetricsCollector) slowest(limit int) []*RouteMetrics {
	routes := make([]*RouteMetrics, 0, len(mc.routeMetrics))
	for _, v := range mc.routeMetrics {
		metrics := *v
		routes = append(routes, &metrics)
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].AvgTime != routes[j].AvgTime {
			return routes[i].AvgTime > routes[j].AvgTime
		}
		return routes[i].Method+routes[i].Route < routes[j].Method+routes[j].Route
	})
	if limit > 0 && limit < len(routes) {
		routes = routes[:limit]
	}
	return routes
}

// GetSummary returns overall summary metrics
func (mc *MetricsCollector) GetSummary() Summary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	var errorRate float64
	if mc.totalRequests > 0 {
		errorRate = float64(mc.totalErrors) / float64(mc.totalRequests)
	}
	return Summary{
		TotalRequests: mc.totalRequests,
		TotalErrors:   mc.totalErrors,
		ErrorRate:     errorRate,
		WindowStart:   mc.windowStart,
		RouteCount:    len(mc.routeMetrics),
		TraceCount:    len(mc.traces),
		Dropped:       mc.dropped,
		SlowestRoutes: mc.slowest(5),
	}
}
