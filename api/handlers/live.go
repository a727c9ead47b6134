package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/linesmerrill/causelist-api/config"
	"github.com/linesmerrill/causelist-api/models"
	"github.com/linesmerrill/causelist-api/registry"
	"github.com/linesmerrill/causelist-api/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Live serves the transcript of hearings in progress
type Live struct {
	Registry *registry.Registry
	Sessions *session.Manager
}

// AppendTranscriptHandler adds one line to a hearing's live transcript
func (l Live) AppendTranscriptHandler(w http.ResponseWriter, r *http.Request) {
	hearingID := mux.Vars(r)["hearing_id"]

	if _, err := l.Registry.GetHearing(hearingID); err != nil {
		registryErrorStatus("failed to get hearing by ID", w, err)
		return
	}

	var line models.TranscriptLine
	if err := json.NewDecoder(r.Body).Decode(&line); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	stored, err := l.Sessions.Append(hearingID, line)
	if errors.Is(err, session.ErrEnded) {
		registryErrorStatus("failed to append transcript line", w, err)
		return
	}
	if err != nil {
		config.ErrorStatus("invalid transcript line", http.StatusBadRequest, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

// TranscriptHandler returns the transcript captured so far
func (l Live) TranscriptHandler(w http.ResponseWriter, r *http.Request) {
	hearingID := mux.Vars(r)["hearing_id"]

	if _, err := l.Registry.GetHearing(hearingID); err != nil {
		registryErrorStatus("failed to get hearing by ID", w, err)
		return
	}

	lines := l.Sessions.Transcript(hearingID)
	if lines == nil {
		lines = []models.TranscriptLine{}
	}
	writeJSON(w, http.StatusOK, lines)
}

// StreamHandler upgrades to a websocket and streams the hearing's transcript: first the
// lines captured so far, then each new line, then a completion event when the hearing
// is closed
func (l Live) StreamHandler(w http.ResponseWriter, r *http.Request) {
	hearingID := mux.Vars(r)["hearing_id"]

	if _, err := l.Registry.GetHearing(hearingID); err != nil {
		registryErrorStatus("failed to get hearing by ID", w, err)
		return
	}

	backlog, events, cancel, err := l.Sessions.Follow(hearingID)
	if err != nil {
		registryErrorStatus("failed to follow hearing", w, err)
		return
	}
	defer cancel()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("websocket upgrade error", "hearingId", hearingID, "error", err)
		return
	}
	defer conn.Close()
	zap.S().Infow("viewer connected", "hearingId", hearingID)

	gone := make(chan struct{})
	go readPump(conn, gone)

	for i := range backlog {
		if err := writeEvent(conn, session.Event{Type: session.EventLine, Line: &backlog[i]}); err != nil {
			return
		}
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := writeEvent(conn, ev); err != nil {
				zap.S().Warnw("failed to send transcript event", "hearingId", hearingID, "error", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-gone:
			zap.S().Infow("viewer disconnected", "hearingId", hearingID)
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, ev session.Event) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(ev)
}

// readPump discards client messages and closes gone once the peer goes away
func readPump(conn *websocket.Conn, gone chan<- struct{}) {
	defer close(gone)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}
