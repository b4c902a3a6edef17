package middleware_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/LegalDragon/Pickleball-Community-sub007/middleware"
	"github.com/LegalDragon/Pickleball-Community-sub007/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const secret = "test-secret"

func echoActor(t *testing.T, seen *models.Actor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		require.NoError(t, err)
		*seen = actor
		w.WriteHeader(http.StatusNoContent)
	})
}

func newAuthenticator(t *testing.T, operatorKey string) *middleware.Authenticator {
	t.Helper()
	hash := ""
	if operatorKey != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(operatorKey), bcrypt.MinCost)
		require.NoError(t, err)
		hash = string(h)
	}
	return middleware.NewAuthenticator(secret, hash, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAuthenticate(t *testing.T) {
	auth := newAuthenticator(t, "op-key")

	valid, err := middleware.IssueToken(secret, models.Actor{UserID: "u1", Role: models.PlatformUser}, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	require.NoError(t, err)
	admin, err := middleware.IssueToken(secret, models.Actor{UserID: "a1", Role: models.PlatformAdmin}, nil)
	require.NoError(t, err)
	expired, err := middleware.IssueToken(secret, models.Actor{UserID: "u1"}, jwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix()})
	require.NoError(t, err)
	forged, err := middleware.IssueToken("other-secret", models.Actor{UserID: "u1"}, nil)
	require.NoError(t, err)
	numeric, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": 42, "role": "organizer"}).SignedString([]byte(secret))
	require.NoError(t, err)

	tests := []struct {
		name    string
		headers map[string]string
		status  int
		actor   models.Actor
	}{
		{"bearer token", map[string]string{"Authorization": "Bearer " + valid}, http.StatusNoContent, models.Actor{UserID: "u1", Role: models.PlatformUser}},
		{"admin token", map[string]string{"Authorization": "Bearer " + admin}, http.StatusNoContent, models.Actor{UserID: "a1", Role: models.PlatformAdmin}},
		{"numeric user id", map[string]string{"Authorization": "Bearer " + numeric}, http.StatusNoContent, models.Actor{UserID: "42", Role: models.PlatformUser}},
		{"operator key", map[string]string{middleware.OperatorHeader: "op-key"}, http.StatusNoContent, models.Actor{UserID: "operator", Role: models.PlatformAdmin}},
		{"wrong operator key", map[string]string{middleware.OperatorHeader: "nope"}, http.StatusUnauthorized, models.Actor{}},
		{"missing token", nil, http.StatusUnauthorized, models.Actor{}},
		{"expired token", map[string]string{"Authorization": "Bearer " + expired}, http.StatusUnauthorized, models.Actor{}},
		{"forged token", map[string]string{"Authorization": "Bearer " + forged}, http.StatusUnauthorized, models.Actor{}},
		{"not bearer", map[string]string{"Authorization": "Basic abc"}, http.StatusUnauthorized, models.Actor{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen models.Actor
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			auth.Authenticate(echoActor(t, &seen)).ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.actor, seen)
		})
	}
}

func TestOperatorKeyDisabled(t *testing.T) {
	auth := newAuthenticator(t, "")
	var seen models.Actor
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.OperatorHeader, "anything")
	rec := httptest.NewRecorder()
	auth.Authenticate(echoActor(t, &seen)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	middleware.RequireAdmin(ok).ServeHTTP(rec, req.WithContext(middleware.WithActor(req.Context(), models.Actor{UserID: "u1", Role: models.PlatformUser})))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	middleware.RequireAdmin(ok).ServeHTTP(rec, req.WithContext(middleware.WithActor(req.Context(), models.Actor{UserID: "a1", Role: models.PlatformAdmin})))
	assert.Equal(t, http.StatusOK, rec.Code)
}
