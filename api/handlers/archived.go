package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/linesmerrill/causelist-api/api"
	"github.com/linesmerrill/causelist-api/config"
	"github.com/linesmerrill/causelist-api/databases"
	"github.com/linesmerrill/causelist-api/models"
)

// Archived serves completed hearings from archival storage
type Archived struct {
	DB databases.ArchiveDatabase
}

// ArchivedHearingsHandler returns a page of completed hearings, most recent first
func (a Archived) ArchivedHearingsHandler(w http.ResponseWriter, r *http.Request) {
	if a.DB == nil {
		config.ErrorStatus("archive storage is not configured", http.StatusServiceUnavailable, w, nil)
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		zap.S().Debugw("limit not set, using default", "error", err)
	}
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		zap.S().Debugw("page not set, using default", "error", err)
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	hearings, err := a.DB.List(ctx, limit, page)
	if err != nil {
		config.ErrorStatus("failed to get archived hearings", http.StatusInternalServerError, w, err)
		return
	}
	if len(hearings) == 0 {
		hearings = []models.Hearing{}
	}
	writeJSON(w, http.StatusOK, hearings)
}

// ArchivedHearingHandler returns one completed hearing with its transcript and order
func (a Archived) ArchivedHearingHandler(w http.ResponseWriter, r *http.Request) {
	if a.DB == nil {
		config.ErrorStatus("archive storage is not configured", http.StatusServiceUnavailable, w, nil)
		return
	}
	hearingID := mux.Vars(r)["hearing_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	hearing, err := a.DB.FindOne(ctx, bson.M{"_id": hearingID})
	if errors.Is(err, mongo.ErrNoDocuments) {
		config.ErrorStatus("archived hearing not found", http.StatusNotFound, w, err)
		return
	}
	if err != nil {
		config.ErrorStatus("failed to get archived hearing", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, hearing)
}
