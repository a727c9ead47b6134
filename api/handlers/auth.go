package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/linesmerrill/causelist-api/api"
	"github.com/linesmerrill/causelist-api/config"
	"github.com/linesmerrill/causelist-api/models"
)

// Auth issues role tokens
type Auth struct {
	Authorizer *api.Authorizer
}

// RoleRequest picks the dashboard role to act as
type RoleRequest struct {
	Role models.Role `json:"role"`
}

// RoleTokenResponse carries the issued token
type RoleTokenResponse struct {
	Token     string      `json:"token"`
	Role      models.Role `json:"role"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// RoleTokenHandler issues a token for the selected role
func (a Auth) RoleTokenHandler(w http.ResponseWriter, r *http.Request) {
	var req RoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if !req.Role.Valid() {
		config.ErrorStatus("unknown role", http.StatusBadRequest, w, nil)
		return
	}

	token, expiresAt, err := a.Authorizer.IssueToken(req.Role)
	if err != nil {
		config.ErrorStatus("failed to issue token", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, RoleTokenResponse{Token: token, Role: req.Role, ExpiresAt: expiresAt})
}
