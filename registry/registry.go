// Package registry owns the active set of hearings. It is the only writer of hearing
// status, readiness metadata and completion; everything else reads snapshots and
// submits intents through the methods below.
package registry

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/linesmerrill/causelist-api/models"
)

// OtherReason is the reason-picker entry that must be replaced by free text
const OtherReason = "Other"

// ReadinessReasons lists the enumerated reasons a lawyer can pick when declaring NOT_READY.
// Any other non-empty text is accepted as the free text of OtherReason.
var ReadinessReasons = []string{
	"Witness unavailable",
	"Documents pending",
	"Need more preparation time",
	"Opposing counsel unavailable",
}

const defaultMaxEvents = 50

// Registry holds the active hearings. Mutations are serialized by a single writer lock;
// reads load the last committed state and never wait on writers.
type Registry struct {
	mu        sync.Mutex
	state     atomic.Pointer[state]
	now       func() time.Time
	summary   models.CaseSummary
	maxEvents int
}

// state is immutable once stored
type state struct {
	hearings []models.Hearing // insertion order
	index    map[string]int
	stats    models.Stats
	events   []models.Alert // oldest first
}

// Option configures a Registry
type Option func(*Registry, *state)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(r *Registry, _ *state) {
		r.now = now
	}
}

// WithStats seeds the dashboard counters
func WithStats(stats models.Stats) Option {
	return func(_ *Registry, s *state) {
		s.stats = stats
	}
}

// WithCaseSummary seeds the pendency summary
func WithCaseSummary(summary models.CaseSummary) Option {
	return func(r *Registry, _ *state) {
		r.summary = summary
	}
}

// WithAlerts seeds the alert feed with alerts raised before the registry started
func WithAlerts(alerts []models.Alert) Option {
	return func(_ *Registry, s *state) {
		s.events = append(s.events, alerts...)
		sort.SliceStable(s.events, func(i, j int) bool {
			return s.events[i].CreatedAt.Before(s.events[j].CreatedAt)
		})
	}
}

// New builds a registry over the seeded hearings
func New(hearings []models.Hearing, opts ...Option) (*Registry, error) {
	s := &state{
		hearings: make([]models.Hearing, 0, len(hearings)),
		index:    make(map[string]int, len(hearings)),
	}
	for _, h := range hearings {
		if err := validateSeed(h); err != nil {
			return nil, err
		}
		if _, ok := s.index[h.ID]; ok {
			return nil, fmt.Errorf("duplicate hearing id %q", h.ID)
		}
		s.index[h.ID] = len(s.hearings)
		s.hearings = append(s.hearings, h.Clone())
	}

	r := &Registry{now: time.Now, maxEvents: defaultMaxEvents}
	for _, opt := range opts {
		opt(r, s)
	}
	s.events = trimEvents(s.events, r.maxEvents)
	r.state.Store(s)
	return r, nil
}

func validateSeed(h models.Hearing) error {
	if h.ID == "" {
		return fmt.Errorf("hearing %q has no id", h.CaseNumber)
	}
	if !h.Status.Valid() {
		return fmt.Errorf("hearing %s: unknown status %q", h.ID, h.Status)
	}
	if h.Status == models.StatusNotReady && strings.TrimSpace(h.ReadinessReason) == "" {
		return fmt.Errorf("hearing %s: %w: NOT_READY without a reason", h.ID, ErrInvalidReason)
	}
	if h.Status != models.StatusNotReady && h.ReadinessReason != "" {
		return fmt.Errorf("hearing %s: %w: reason set while %s", h.ID, ErrInvalidReason, h.Status)
	}
	if h.AttendanceCount < 0 {
		return fmt.Errorf("hearing %s: negative attendance count", h.ID)
	}
	return nil
}

// ListActiveHearings returns every active hearing, READY ones first, otherwise in the
// order they were scheduled.
func (r *Registry) ListActiveHearings() []models.Hearing {
	s := r.state.Load()
	out := make([]models.Hearing, len(s.hearings))
	for i, h := range s.hearings {
		out[i] = h.Clone()
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Status == models.StatusReady && out[j].Status != models.StatusReady
	})
	return out
}

// GetHearing returns the active hearing with the given id
func (r *Registry) GetHearing(id string) (models.Hearing, error) {
	s := r.state.Load()
	i, ok := s.index[id]
	if !ok {
		return models.Hearing{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.hearings[i].Clone(), nil
}

// DeclareReadiness records a lawyer's readiness declaration. Status and reason change
// together or not at all. Declaring READY clears any reason and marks the advocate present.
func (r *Registry) DeclareReadiness(id string, status models.ReadinessStatus, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.state.Load()
	i, ok := cur.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	h := cur.hearings[i].Clone()
	prev := h.Status

	switch status {
	case models.StatusReady:
		h.ReadinessReason = ""
		h.AdvocatePresent = true
	case models.StatusNotReady:
		reason = strings.TrimSpace(reason)
		if reason == "" || strings.EqualFold(reason, OtherReason) {
			return fmt.Errorf("%w: %s requires a reason", ErrInvalidReason, status)
		}
		h.ReadinessReason = reason
	case models.StatusPending:
		return fmt.Errorf("%w: %s to %s, a declaration cannot be withdrawn", ErrInvalidTransition, prev, status)
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, status)
	}
	h.Status = status

	next := cur.copyHearings()
	next.hearings[i] = h
	if status == models.StatusReady && prev != models.StatusReady {
		next.events = r.appendEvent(cur.events, models.AlertReadiness,
			fmt.Sprintf("%s Advocate confirmed readiness.", h.CaseNumber))
	}
	r.state.Store(next)
	return nil
}

// CompleteHearing attaches the outcome to the hearing, removes it from the active set and
// counts it towards today's disposals. The archived record is returned for the caller to
// hand to archival storage. Completing an id that is not active fails with ErrNotFound.
func (r *Registry) CompleteHearing(id string, transcript []models.TranscriptLine, finalOrder string) (models.Hearing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.state.Load()
	i, ok := cur.index[id]
	if !ok {
		return models.Hearing{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	now := r.now()
	done := cur.hearings[i].Clone()
	if len(transcript) > 0 {
		done.Transcript = make([]models.TranscriptLine, len(transcript))
		copy(done.Transcript, transcript)
	}
	done.FinalOrder = finalOrder
	done.CompletedAt = &now

	next := &state{
		hearings: make([]models.Hearing, 0, len(cur.hearings)-1),
		index:    make(map[string]int, len(cur.hearings)-1),
		stats:    cur.stats,
		events:   cur.events,
	}
	for j, h := range cur.hearings {
		if j == i {
			continue
		}
		next.index[h.ID] = len(next.hearings)
		next.hearings = append(next.hearings, h)
	}
	next.stats.Today++
	next.stats.Month++
	if finalOrder != "" {
		next.events = r.appendEvent(cur.events, models.AlertOrder,
			fmt.Sprintf("%s final order recorded.", done.CaseNumber))
	}
	r.state.Store(next)

	return done.Clone(), nil
}

// Stats returns the dashboard counters. Readiness compliance is the share of active
// hearings that carry a declaration.
func (r *Registry) Stats() models.Stats {
	s := r.state.Load()
	st := s.stats
	if n := len(s.hearings); n > 0 {
		declared := 0
		for _, h := range s.hearings {
			if h.Status != models.StatusPending {
				declared++
			}
		}
		st.ReadinessCompliance = int(math.Round(float64(declared) * 100 / float64(n)))
	}
	return st
}

// CaseSummary returns the pendency summary
func (r *Registry) CaseSummary() models.CaseSummary {
	return r.summary
}

// RolloverDay starts a new day of counting. On the first of the month the monthly
// counter is reset too.
func (r *Registry) RolloverDay(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.state.Load()
	next := *cur
	next.stats.Today = 0
	if now.Day() == 1 {
		next.stats.Month = 0
	}
	r.state.Store(&next)
}

func (s *state) copyHearings() *state {
	next := *s
	next.hearings = make([]models.Hearing, len(s.hearings))
	copy(next.hearings, s.hearings)
	return &next
}

func (r *Registry) appendEvent(events []models.Alert, typ models.AlertType, msg string) []models.Alert {
	out := append(events[:len(events):len(events)], models.Alert{
		ID:        uuid.New().String(),
		Type:      typ,
		Message:   msg,
		CreatedAt: r.now(),
	})
	return trimEvents(out, r.maxEvents)
}

func trimEvents(events []models.Alert, limit int) []models.Alert {
	if len(events) > limit {
		return events[len(events)-limit:]
	}
	return events
}
