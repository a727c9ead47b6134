// Package session buffers the transcript of hearings in progress and fans new lines
// out to anyone watching.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/linesmerrill/causelist-api/models"
)

// Event types delivered to subscribers
const (
	EventLine      = "transcript_line"
	EventCompleted = "hearing_completed"
)

const subscriberBuffer = 64

// ErrEnded is returned for a hearing whose session has been ended. Ended sessions are
// never reopened.
var ErrEnded = errors.New("hearing session has ended")

// Event is one message on a subscription
type Event struct {
	Type string                 `json:"event"`
	Line *models.TranscriptLine `json:"data,omitempty"`
}

type session struct {
	lines   []models.TranscriptLine
	subs    map[int]chan Event
	nextSub int
}

// Manager holds the live sessions, keyed by hearing id
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session
	ended    map[string]struct{}
}

// NewManager creates an empty manager
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*session),
		ended:    make(map[string]struct{}),
	}
}

func (m *Manager) get(hearingID string) *session {
	s, ok := m.sessions[hearingID]
	if !ok {
		s = &session{subs: make(map[int]chan Event)}
		m.sessions[hearingID] = s
	}
	return s
}

// Append validates the line, gives it an id if it has none and appends it to the
// hearing's transcript in arrival order. Subscribers that cannot keep up are dropped.
func (m *Manager) Append(hearingID string, line models.TranscriptLine) (models.TranscriptLine, error) {
	if err := line.Validate(); err != nil {
		return models.TranscriptLine{}, fmt.Errorf("invalid transcript line: %w", err)
	}
	if line.ID == "" {
		line.ID = uuid.New().String()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.ended[hearingID]; ok {
		return models.TranscriptLine{}, fmt.Errorf("%w: %s", ErrEnded, hearingID)
	}
	s := m.get(hearingID)
	s.lines = append(s.lines, line)
	for id, ch := range s.subs {
		l := line
		select {
		case ch <- Event{Type: EventLine, Line: &l}:
		default:
			close(ch)
			delete(s.subs, id)
		}
	}
	return line, nil
}

// Transcript returns the lines buffered so far
func (m *Manager) Transcript(hearingID string) []models.TranscriptLine {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[hearingID]
	if !ok {
		return nil
	}
	out := make([]models.TranscriptLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// Subscribe returns a channel of events for the hearing and a func to cancel the
// subscription. The channel is closed on cancel, on End, or when the subscriber falls behind.
func (m *Manager) Subscribe(hearingID string) (<-chan Event, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.ended[hearingID]; ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrEnded, hearingID)
	}
	ch, cancel := m.subscribe(hearingID)
	return ch, cancel, nil
}

// Follow is Subscribe plus the lines buffered before the subscription began. No line
// is both in the backlog and on the channel.
func (m *Manager) Follow(hearingID string) ([]models.TranscriptLine, <-chan Event, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.ended[hearingID]; ok {
		return nil, nil, nil, fmt.Errorf("%w: %s", ErrEnded, hearingID)
	}
	ch, cancel := m.subscribe(hearingID)
	s := m.sessions[hearingID]
	backlog := make([]models.TranscriptLine, len(s.lines))
	copy(backlog, s.lines)
	return backlog, ch, cancel, nil
}

func (m *Manager) subscribe(hearingID string) (<-chan Event, func()) {
	s := m.get(hearingID)
	id := s.nextSub
	s.nextSub++
	ch := make(chan Event, subscriberBuffer)
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if cur, ok := m.sessions[hearingID]; ok && cur == s {
				if c, ok := s.subs[id]; ok {
					close(c)
					delete(s.subs, id)
				}
			}
		})
	}
	return ch, cancel
}

// End removes the hearing's session, tells subscribers it completed and returns the
// buffered transcript. After End the hearing takes no more lines or subscribers.
func (m *Manager) End(hearingID string) []models.TranscriptLine {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ended[hearingID] = struct{}{}
	s, ok := m.sessions[hearingID]
	if !ok {
		return nil
	}
	delete(m.sessions, hearingID)
	for id, ch := range s.subs {
		select {
		case ch <- Event{Type: EventCompleted}:
		default:
		}
		close(ch)
		delete(s.subs, id)
	}
	return s.lines
}
