package handlers

import (
	"net/http"

	"github.com/linesmerrill/causelist-api/api"
	"github.com/linesmerrill/causelist-api/models"
	"github.com/linesmerrill/causelist-api/registry"
)

const recentTraceLimit = 50

// Dashboard serves the bench and admin dashboards
type Dashboard struct {
	Registry *registry.Registry
	Metrics  *api.MetricsCollector
}

// MetricsResponse is the admin view of request metrics
type MetricsResponse struct {
	Summary api.Summary                  `json:"summary"`
	Routes  map[string]*api.RouteMetrics `json:"routes"`
	Recent  []api.RequestTrace           `json:"recent"`
}

// AlertsHandler returns the live alert feed, most recent first
func (d Dashboard) AlertsHandler(w http.ResponseWriter, r *http.Request) {
	alerts := d.Registry.ComputeDerivedAlerts()
	if alerts == nil {
		alerts = []models.Alert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

// StatsHandler returns the disposal and compliance counters
func (d Dashboard) StatsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, d.Registry.Stats())
}

// CaseSummaryHandler returns the pendency summary by case age
func (d Dashboard) CaseSummaryHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, d.Registry.CaseSummary())
}

// MetricsHandler returns request metrics
func (d Dashboard) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MetricsResponse{
		Summary: d.Metrics.GetSummary(),
		Routes:  d.Metrics.GetRouteMetrics(),
		Recent:  d.Metrics.GetTraces(recentTraceLimit),
	})
}
