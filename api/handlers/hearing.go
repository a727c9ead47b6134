package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/causelist-api/api"
	"github.com/linesmerrill/causelist-api/config"
	"github.com/linesmerrill/causelist-api/models"
	"github.com/linesmerrill/causelist-api/registry"
	"github.com/linesmerrill/causelist-api/session"
	"github.com/linesmerrill/causelist-api/summarize"
)

// Archiver accepts completed hearings for archival. archive.Writer satisfies it.
type Archiver interface {
	Enqueue(h models.Hearing) bool
}

// Hearing exported for testing purposes
type Hearing struct {
	Registry   *registry.Registry
	Sessions   *session.Manager
	Archive    Archiver
	Summarizer summarize.Summarizer
}

// ReadinessRequest is the body of a readiness declaration
type ReadinessRequest struct {
	Status models.ReadinessStatus `json:"status"`
	Reason string                 `json:"reason"`
}

// CompleteRequest is the body of a completion. When Transcript is empty the live
// session's transcript is used; when FinalOrder is empty and GenerateOrder is set the
// order is drafted from the transcript.
type CompleteRequest struct {
	Transcript    []models.TranscriptLine `json:"transcript"`
	FinalOrder    string                  `json:"finalOrder"`
	GenerateOrder bool                    `json:"generateOrder"`
}

// OrderDraftRequest is the optional body of an order draft
type OrderDraftRequest struct {
	Transcript []models.TranscriptLine `json:"transcript"`
}

// OrderDraftResponse carries a drafted final order
type OrderDraftResponse struct {
	FinalOrder string `json:"finalOrder"`
}

// ReadinessReasonsResponse lists the reasons offered when declaring NOT_READY. Other
// is the entry that must be replaced by free text.
type ReadinessReasonsResponse struct {
	Reasons []string `json:"reasons"`
	Other   string   `json:"other"`
}

// ReadinessReasonsHandler returns the reason picker for readiness declarations
func (h Hearing) ReadinessReasonsHandler(w http.ResponseWriter, r *http.Request) {
	reasons := make([]string, len(registry.ReadinessReasons))
	copy(reasons, registry.ReadinessReasons)
	writeJSON(w, http.StatusOK, ReadinessReasonsResponse{Reasons: reasons, Other: registry.OtherReason})
}

// HearingsHandler returns the active cause list, READY hearings first
func (h Hearing) HearingsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Registry.ListActiveHearings())
}

// HearingByIDHandler returns one active hearing
func (h Hearing) HearingByIDHandler(w http.ResponseWriter, r *http.Request) {
	hearingID := mux.Vars(r)["hearing_id"]

	hearing, err := h.Registry.GetHearing(hearingID)
	if err != nil {
		registryErrorStatus("failed to get hearing by ID", w, err)
		return
	}
	writeJSON(w, http.StatusOK, hearing)
}

// DeclareReadinessHandler records counsel's readiness declaration
func (h Hearing) DeclareReadinessHandler(w http.ResponseWriter, r *http.Request) {
	hearingID := mux.Vars(r)["hearing_id"]

	var req ReadinessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if err := h.Registry.DeclareReadiness(hearingID, req.Status, req.Reason); err != nil {
		registryErrorStatus("failed to declare readiness", w, err)
		return
	}

	hearing, err := h.Registry.GetHearing(hearingID)
	if err != nil {
		registryErrorStatus("failed to get hearing by ID", w, err)
		return
	}
	zap.S().Infow("readiness declared",
		"hearingId", hearingID,
		"caseNumber", hearing.CaseNumber,
		"status", hearing.Status)
	writeJSON(w, http.StatusOK, hearing)
}

// OrderDraftHandler drafts a final order from the supplied or live transcript. It
// always answers with an order; the fallback text stands in when drafting fails.
func (h Hearing) OrderDraftHandler(w http.ResponseWriter, r *http.Request) {
	hearingID := mux.Vars(r)["hearing_id"]

	if _, err := h.Registry.GetHearing(hearingID); err != nil {
		registryErrorStatus("failed to get hearing by ID", w, err)
		return
	}

	var req OrderDraftRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
			return
		}
	}
	transcript, err := h.transcriptFor(hearingID, req.Transcript)
	if err != nil {
		config.ErrorStatus("invalid transcript", http.StatusBadRequest, w, err)
		return
	}

	order, _ := h.Summarizer.Summarize(r.Context(), transcript)
	writeJSON(w, http.StatusOK, OrderDraftResponse{FinalOrder: order})
}

// CompleteHearingHandler closes a hearing: it records the outcome, ends the live
// session and queues the record for archival
func (h Hearing) CompleteHearingHandler(w http.ResponseWriter, r *http.Request) {
	hearingID := mux.Vars(r)["hearing_id"]

	var req CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if _, err := h.Registry.GetHearing(hearingID); err != nil {
		registryErrorStatus("failed to complete hearing", w, err)
		return
	}

	transcript, err := h.transcriptFor(hearingID, req.Transcript)
	if err != nil {
		config.ErrorStatus("invalid transcript", http.StatusBadRequest, w, err)
		return
	}

	finalOrder := req.FinalOrder
	if finalOrder == "" && req.GenerateOrder {
		finalOrder, _ = h.Summarizer.Summarize(r.Context(), transcript)
	}

	if !api.Commit(r.Context()) {
		zap.S().Warnw("hearing completion abandoned",
			"hearingId", hearingID,
			"error", r.Context().Err())
		return
	}

	// Closing the session first keeps lines that arrived while the order was drafted
	live := h.Sessions.End(hearingID)
	if len(req.Transcript) == 0 {
		transcript = live
	}

	archived, err := h.Registry.CompleteHearing(hearingID, transcript, finalOrder)
	if err != nil {
		registryErrorStatus("failed to complete hearing", w, err)
		return
	}

	if h.Archive != nil {
		h.Archive.Enqueue(archived)
	}

	zap.S().Infow("hearing completed",
		"hearingId", archived.ID,
		"caseNumber", archived.CaseNumber,
		"transcriptLines", len(archived.Transcript),
		"hasOrder", archived.FinalOrder != "")
	writeJSON(w, http.StatusOK, archived)
}

// transcriptFor returns the supplied lines after validating them, or the live
// session's transcript when none were supplied
func (h Hearing) transcriptFor(hearingID string, supplied []models.TranscriptLine) ([]models.TranscriptLine, error) {
	if len(supplied) == 0 {
		return h.Sessions.Transcript(hearingID), nil
	}
	for _, l := range supplied {
		if err := l.Validate(); err != nil {
			return nil, err
		}
	}
	return supplied, nil
}

// registryErrorStatus maps registry errors onto HTTP statuses. An ended session means
// the hearing has left the active set.
func registryErrorStatus(message string, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrNotFound), errors.Is(err, session.ErrEnded):
		config.ErrorStatus(message, http.StatusNotFound, w, err)
	case errors.Is(err, registry.ErrInvalidReason):
		config.ErrorStatus(message, http.StatusBadRequest, w, err)
	case errors.Is(err, registry.ErrInvalidTransition):
		config.ErrorStatus(message, http.StatusConflict, w, err)
	default:
		config.ErrorStatus(message, http.StatusInternalServerError, w, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}
