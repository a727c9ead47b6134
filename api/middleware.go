package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.uber.org/zap"

	"github.com/linesmerrill/causelist-api/models"
)

// DefaultTokenTTL is how long an issued role token stays valid
const DefaultTokenTTL = 12 * time.Hour

// tokenCacheTTL bounds how long a verified token is trusted without re-parsing it
const tokenCacheTTL = time.Minute

// ErrUnauthorized is returned for a missing, malformed or expired token
var ErrUnauthorized = errors.New("unauthorized")

type roleContextKey struct{}

// Authorizer issues and checks role tokens. A token names the dashboard role the
// caller picked; it carries no identity.
type Authorizer struct {
	Secret []byte
	TTL    time.Duration
	now    func() time.Time

	authenticator auth.Authenticator
}

// NewAuthorizer creates an authorizer signing with secret
func NewAuthorizer(secret string, ttl time.Duration) *Authorizer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	a := &Authorizer{Secret: []byte(secret), TTL: ttl, now: time.Now}

	a.authenticator = auth.New()
	cache := store.NewFIFO(context.Background(), tokenCacheTTL)
	a.authenticator.EnableStrategy(bearer.CachedStrategyKey, bearer.New(a.validateToken, cache))
	return a
}

// IssueToken returns a signed HS256 token for role and its expiry
func (a *Authorizer) IssueToken(role models.Role) (string, time.Time, error) {
	if !role.Valid() {
		return "", time.Time{}, fmt.Errorf("unknown role %q", role)
	}
	now := a.now()
	expiresAt := now.Add(a.TTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": string(role),
		"jti":  uuid.New().String(),
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	})
	signed, err := token.SignedString(a.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseToken validates the token and returns the role it carries
func (a *Authorizer) ParseToken(tokenString string) (models.Role, error) {
	role, _, err := a.parse(tokenString)
	return role, err
}

// validateToken backs the bearer strategy. The token's jti becomes the user id and its
// role the only group.
func (a *Authorizer) validateToken(ctx context.Context, r *http.Request, tokenString string) (auth.Info, error) {
	role, jti, err := a.parse(tokenString)
	if err != nil {
		return nil, err
	}
	return auth.NewDefaultUser(string(role), jti, []string{string(role)}, nil), nil
}

func (a *Authorizer) parse(tokenString string) (models.Role, string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return a.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", ErrUnauthorized
	}
	s, _ := claims["role"].(string)
	role := models.Role(s)
	if !role.Valid() {
		return "", "", fmt.Errorf("%w: unknown role %q", ErrUnauthorized, s)
	}
	jti, _ := claims["jti"].(string)
	return role, jti, nil
}

// Require only lets requests through whose token carries one of roles. With no roles
// any valid token is accepted. The token comes from the Authorization header, or the
// token query parameter for websocket clients that cannot set headers.
func (a *Authorizer) Require(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			info, err := a.authenticator.Authenticate(bearerRequest(r))
			if err != nil {
				zap.S().Errorw("unauthorized",
					"url", r.URL,
					"error", err)
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error": "unauthorized"}`))
				return
			}
			role := roleOf(info)
			zap.S().Debugf("Role %s Authenticated\n", info.UserName())
			if !allowed(role, roles) {
				zap.S().Warnw("forbidden",
					"url", r.URL,
					"role", role)
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error": "forbidden"}`))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithRole(r.Context(), role)))
		})
	}
}

// WithRole stores the caller's role in ctx
func WithRole(ctx context.Context, role models.Role) context.Context {
	return context.WithValue(ctx, roleContextKey{}, role)
}

// RoleFromContext returns the role stored by Require
func RoleFromContext(ctx context.Context) (models.Role, bool) {
	role, ok := ctx.Value(roleContextKey{}).(models.Role)
	return role, ok
}

// bearerRequest returns r, or a copy carrying the token query parameter as a bearer
// header when r has no Authorization header
func bearerRequest(r *http.Request) *http.Request {
	if strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		return r
	}
	tok := r.URL.Query().Get("token")
	if tok == "" {
		return r
	}
	c := r.Clone(r.Context())
	c.Header.Set("Authorization", "Bearer "+tok)
	return c
}

func roleOf(info auth.Info) models.Role {
	for _, g := range info.Groups() {
		if role := models.Role(g); role.Valid() {
			return role
		}
	}
	return ""
}

func allowed(role models.Role, roles []models.Role) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
