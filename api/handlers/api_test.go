package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/causelist-api/api"
	"github.com/linesmerrill/causelist-api/config"
	"github.com/linesmerrill/causelist-api/databases/mocks"
	"github.com/linesmerrill/causelist-api/models"
	"github.com/linesmerrill/causelist-api/registry"
	"github.com/linesmerrill/causelist-api/seed"
	"github.com/linesmerrill/causelist-api/summarize"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	data := seed.Default(time.Now())
	reg, err := registry.New(data.Hearings, data.Options()...)
	require.NoError(t, err)

	a := &App{
		Config:   config.Config{RequestTimeout: 5 * time.Second},
		Registry: reg,
		Auth:     api.NewAuthorizer("test-secret", time.Hour),
	}
	a.Router = a.New()
	t.Cleanup(a.Metrics.Stop)
	return a
}

func executeRequest(a *App, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	a.Router.ServeHTTP(rr, req)
	return rr
}

func checkResponseCode(t *testing.T, expected, actual int) {
	t.Helper()
	if expected != actual {
		t.Errorf("Expected response code %d. Got %d\n", expected, actual)
	}
}

func roleToken(t *testing.T, a *App, role models.Role) string {
	t.Helper()
	body, _ := json.Marshal(RoleRequest{Role: role})
	req, _ := http.NewRequest("POST", "/api/v1/auth/role", bytes.NewReader(body))
	response := executeRequest(a, req)
	checkResponseCode(t, http.StatusOK, response.Code)

	var resp RoleTokenResponse
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &resp))
	assert.Equal(t, role, resp.Role)
	return resp.Token
}

func authed(method, path, token string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestUnknownRoute(t *testing.T) {
	a := newTestApp(t)
	req, _ := http.NewRequest("GET", "/asdf", nil)
	response := executeRequest(a, req)

	checkResponseCode(t, http.StatusNotFound, response.Code)
}

func TestHealthCheckRoute(t *testing.T) {
	a := newTestApp(t)
	req, _ := http.NewRequest("GET", "/health", nil)
	response := executeRequest(a, req)

	checkResponseCode(t, http.StatusOK, response.Code)
	if !strings.Contains(response.Body.String(), "alive") {
		t.Errorf("Expected 'alive' in the reponse. Got '%s'", response.Body.String())
	}
}

func TestApp_HearingsUnauthorized(t *testing.T) {
	a := newTestApp(t)
	req, _ := http.NewRequest("GET", "/api/v1/hearings", nil)
	response := executeRequest(a, req)
	checkResponseCode(t, http.StatusUnauthorized, response.Code)

	req.Header.Set("Authorization", "Bearer asdfasdf")
	response = executeRequest(a, req)
	checkResponseCode(t, http.StatusUnauthorized, response.Code)
}

func TestApp_RoleTokenRejectsUnknownRole(t *testing.T) {
	a := newTestApp(t)
	req, _ := http.NewRequest("POST", "/api/v1/auth/role", strings.NewReader(`{"role":"CLERK"}`))
	checkResponseCode(t, http.StatusBadRequest, executeRequest(a, req).Code)

	req, _ = http.NewRequest("POST", "/api/v1/auth/role", strings.NewReader(`{`))
	checkResponseCode(t, http.StatusBadRequest, executeRequest(a, req).Code)
}

func TestApp_RoleChecks(t *testing.T) {
	a := newTestApp(t)
	lawyer := roleToken(t, a, models.RoleLawyer)
	judge := roleToken(t, a, models.RoleJudge)
	admin := roleToken(t, a, models.RoleAdmin)

	tests := []struct {
		name  string
		req   *http.Request
		wants int
	}{
		{"lawyer reads cause list", authed("GET", "/api/v1/hearings", lawyer, nil), http.StatusOK},
		{"lawyer cannot read stats", authed("GET", "/api/v1/stats", lawyer, nil), http.StatusForbidden},
		{"lawyer cannot complete", authed("POST", "/api/v1/hearings/h1/complete", lawyer, CompleteRequest{}), http.StatusForbidden},
		{"judge cannot declare readiness", authed("PUT", "/api/v1/hearings/h4/readiness", judge, ReadinessRequest{Status: models.StatusReady}), http.StatusForbidden},
		{"judge reads alerts", authed("GET", "/api/v1/alerts", judge, nil), http.StatusOK},
		{"judge cannot read metrics", authed("GET", "/api/v1/metrics", judge, nil), http.StatusForbidden},
		{"admin reads metrics", authed("GET", "/api/v1/metrics", admin, nil), http.StatusOK},
		{"lawyer reads readiness reasons", authed("GET", "/api/v1/readiness-reasons", lawyer, nil), http.StatusOK},
		{"judge cannot read readiness reasons", authed("GET", "/api/v1/readiness-reasons", judge, nil), http.StatusForbidden},
		{"admin reads case summary", authed("GET", "/api/v1/case-summary", admin, nil), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkResponseCode(t, tt.wants, executeRequest(a, tt.req).Code)
		})
	}
}

func TestApp_CauseListOrder(t *testing.T) {
	a := newTestApp(t)
	lawyer := roleToken(t, a, models.RoleLawyer)

	// h4 becomes READY and moves ahead of h3
	response := executeRequest(a, authed("PUT", "/api/v1/hearings/h4/readiness", lawyer, ReadinessRequest{Status: models.StatusReady}))
	checkResponseCode(t, http.StatusOK, response.Code)

	response = executeRequest(a, authed("GET", "/api/v1/hearings", lawyer, nil))
	checkResponseCode(t, http.StatusOK, response.Code)

	var hearings []models.Hearing
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &hearings))
	var ids []string
	for _, h := range hearings {
		ids = append(ids, h.ID)
	}
	assert.Equal(t, []string{"h1", "h2", "h4", "h3"}, ids)
}

func TestApp_CompleteFlow(t *testing.T) {
	a := newTestApp(t)
	judge := roleToken(t, a, models.RoleJudge)

	line := models.TranscriptLine{Speaker: models.SpeakerJudge, Text: "Heard both sides.", Timestamp: "10:31:02", Confidence: 0.97}
	response := executeRequest(a, authed("POST", "/api/v1/hearings/h1/transcript", judge, line))
	checkResponseCode(t, http.StatusCreated, response.Code)

	response = executeRequest(a, authed("POST", "/api/v1/hearings/h1/complete", judge, CompleteRequest{GenerateOrder: true}))
	checkResponseCode(t, http.StatusOK, response.Code)

	var archived models.Hearing
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &archived))
	assert.Equal(t, summarize.FallbackOrder, archived.FinalOrder)
	require.Len(t, archived.Transcript, 1)
	assert.Equal(t, "Heard both sides.", archived.Transcript[0].Text)
	assert.NotNil(t, archived.CompletedAt)

	checkResponseCode(t, http.StatusNotFound, executeRequest(a, authed("GET", "/api/v1/hearings/h1", judge, nil)).Code)
	checkResponseCode(t, http.StatusNotFound, executeRequest(a, authed("POST", "/api/v1/hearings/h1/complete", judge, CompleteRequest{})).Code)

	response = executeRequest(a, authed("GET", "/api/v1/stats", judge, nil))
	var stats models.Stats
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &stats))
	assert.Equal(t, 13, stats.Today)

	response = executeRequest(a, authed("GET", "/api/v1/alerts", judge, nil))
	assert.Contains(t, response.Body.String(), "WP/2241/2022 final order recorded.")
}

func TestApp_Initialize(t *testing.T) {
	a := &App{}
	assert.Error(t, a.Initialize(context.Background()), "JWT_SECRET is required")

	a = &App{Config: config.Config{JWTSecret: "s3cret", SeedFile: "../../seed/testdata/docket.yaml"}}
	require.NoError(t, a.Initialize(context.Background()))
	defer a.Close(context.Background())

	assert.Nil(t, a.Archive, "no database, no archive")
	_, err := a.Registry.GetHearing("h10")
	assert.NoError(t, err)
	assert.Equal(t, 3, a.Registry.Stats().Today)
	assert.IsType(t, summarize.Fallback{}, a.Summarizer)

	req, _ := http.NewRequest("GET", "/health", nil)
	checkResponseCode(t, http.StatusOK, executeRequest(a, req).Code)
}

func TestApp_InitializeBadSeedFile(t *testing.T) {
	a := &App{Config: config.Config{JWTSecret: "s3cret", SeedFile: "does-not-exist.yaml"}}
	assert.Error(t, a.Initialize(context.Background()))
}

func TestStoredHearings(t *testing.T) {
	stored := []models.Hearing{{ID: "m1", CaseNumber: "WP/1/2024", Status: models.StatusPending}}

	hdb := &mocks.HearingDatabase{}
	hdb.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(1), nil)
	hdb.On("Find", mock.Anything, mock.Anything).Return(stored, nil)

	got, err := storedHearings(context.Background(), hdb)
	require.NoError(t, err)
	assert.Equal(t, stored, got)
	hdb.AssertExpectations(t)
}

func TestStoredHearings_EmptyCollection(t *testing.T) {
	hdb := &mocks.HearingDatabase{}
	hdb.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), nil)

	got, err := storedHearings(context.Background(), hdb)
	require.NoError(t, err)
	assert.Nil(t, got)
	hdb.AssertNotCalled(t, "Find", mock.Anything, mock.Anything)
}

func TestStoredHearings_CountError(t *testing.T) {
	hdb := &mocks.HearingDatabase{}
	hdb.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), errors.New("server selection timeout"))

	_, err := storedHearings(context.Background(), hdb)
	assert.EqualError(t, err, "server selection timeout")
}
