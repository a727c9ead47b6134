package api

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"
)

// New creates a new mux router with the unauthenticated routes
func New() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", HealthCheckHandler).Methods("GET")

	return r
}

// HealthCheckHandler reports that the process is up
func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, `{"alive": true}`)
}
