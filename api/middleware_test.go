package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/causelist-api/api"
	"github.com/linesmerrill/causelist-api/models"
)

func TestHealthCheckHandler(t *testing.T) {
	req, err := http.NewRequest("GET", "/health", nil)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	api.New().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"alive": true}`, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}

func roleEcho(w http.ResponseWriter, r *http.Request) {
	role, _ := api.RoleFromContext(r.Context())
	w.Write([]byte(role))
}

func TestAuthorizer_IssueAndParse(t *testing.T) {
	a := api.NewAuthorizer("secret", time.Hour)

	token, exp, err := a.IssueToken(models.RoleLawyer)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	role, err := a.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleLawyer, role)

	_, _, err = a.IssueToken(models.Role("CLERK"))
	assert.Error(t, err)
}

func TestAuthorizer_ParseRejects(t *testing.T) {
	a := api.NewAuthorizer("secret", time.Hour)
	other := api.NewAuthorizer("other-secret", time.Hour)
	foreign, _, err := other.IssueToken(models.RoleJudge)
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": "JUDGE",
		"exp":  time.Now().Add(-time.Minute).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": "JUDGE",
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": "CLERK",
		"exp":  time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"empty":        "",
		"garbage":      "not-a-token",
		"wrong secret": foreign,
		"expired":      expired,
		"no expiry":    noExp,
		"unknown role": badRole,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := a.ParseToken(tok)
			assert.ErrorIs(t, err, api.ErrUnauthorized)
		})
	}
}

func TestAuthorizer_Require(t *testing.T) {
	a := api.NewAuthorizer("secret", time.Hour)
	judge, _, _ := a.IssueToken(models.RoleJudge)
	lawyer, _, _ := a.IssueToken(models.RoleLawyer)
	foreign, _, _ := api.NewAuthorizer("other-secret", time.Hour).IssueToken(models.RoleJudge)

	h := a.Require(models.RoleJudge, models.RoleAdmin)(http.HandlerFunc(roleEcho))

	tests := []struct {
		name     string
		header   string
		query    string
		wantCode int
		wantBody string
	}{
		{"missing token", "", "", http.StatusUnauthorized, `{"error": "unauthorized"}`},
		{"bad token", "Bearer abc123", "", http.StatusUnauthorized, `{"error": "unauthorized"}`},
		{"wrong role", "Bearer " + lawyer, "", http.StatusForbidden, `{"error": "forbidden"}`},
		{"allowed role", "Bearer " + judge, "", http.StatusOK, "JUDGE"},
		{"query token", "", "?token=" + judge, http.StatusOK, "JUDGE"},
		{"cached token", "Bearer " + judge, "", http.StatusOK, "JUDGE"},
		{"foreign token", "Bearer " + foreign, "", http.StatusUnauthorized, `{"error": "unauthorized"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/stats"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantCode, rr.Code)
			assert.Equal(t, tt.wantBody, rr.Body.String())
		})
	}
}

func TestAuthorizer_RequireAnyRole(t *testing.T) {
	a := api.NewAuthorizer("secret", time.Hour)
	lawyer, _, _ := a.IssueToken(models.RoleLawyer)

	req := httptest.NewRequest("GET", "/api/v1/hearings", nil)
	req.Header.Set("Authorization", "Bearer "+lawyer)
	rr := httptest.NewRecorder()
	a.Require()(http.HandlerFunc(roleEcho)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "LAWYER", rr.Body.String())
}

func TestTimeoutMiddleware(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		w.WriteHeader(http.StatusTeapot)
	})
	rr := httptest.NewRecorder()
	api.TimeoutMiddleware(10*time.Millisecond)(slow).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusRequestTimeout, rr.Code)
	assert.Contains(t, rr.Body.String(), "Request timeout")

	fast := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok":true}`))
	})
	rr = httptest.NewRecorder()
	api.TimeoutMiddleware(time.Second)(fast).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, `{"ok":true}`, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}

func TestTimeoutMiddleware_Commit(t *testing.T) {
	committed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !api.Commit(r.Context()) {
			return
		}
		<-r.Context().Done()
		w.WriteHeader(http.StatusCreated)
	})
	rr := httptest.NewRecorder()
	api.TimeoutMiddleware(10*time.Millisecond)(committed).ServeHTTP(rr, httptest.NewRequest("POST", "/", nil))
	assert.Equal(t, http.StatusCreated, rr.Code, "a committed request answers past the deadline")

	var late bool
	tooLate := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		late = !api.Commit(r.Context())
	})
	rr = httptest.NewRecorder()
	done := make(chan struct{})
	api.TimeoutMiddleware(10*time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer close(done)
		tooLate(w, r)
	})).ServeHTTP(rr, httptest.NewRequest("POST", "/", nil))
	<-done
	assert.Equal(t, http.StatusRequestTimeout, rr.Code)
	assert.True(t, late, "Commit refuses once the request timed out")

	assert.True(t, api.Commit(context.Background()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, api.Commit(ctx))
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := api.WithQueryTimeout(context.Background())
	defer cancel()
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(api.QueryTimeout), deadline, time.Second)

	ctx, cancel = api.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	deadline, _ = ctx.Deadline()
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, time.Second)
}
