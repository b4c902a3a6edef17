package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/LegalDragon/Pickleball-Community-sub007/models"
	"github.com/LegalDragon/Pickleball-Community-sub007/utils"
	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const actorContextKey contextKey = "actor"

// OperatorHeader carries the CLI operator key. A valid key acts as a platform admin.
const OperatorHeader = "X-Operator-Key"

const operatorUserID = "operator"

// Authenticator verifies bearer tokens and the operator key.
type Authenticator struct {
	secret          []byte
	operatorKeyHash string
	logger          *slog.Logger
}

func NewAuthenticator(jwtSecret, operatorKeyHash string, logger *slog.Logger) *Authenticator {
	return &Authenticator{secret: []byte(jwtSecret), operatorKeyHash: operatorKeyHash, logger: logger}
}

// Authenticate puts the caller's Actor into the request context or answers 401.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := a.actorFor(r)
		if err != nil {
			a.logger.Debug("authentication failed", slog.String("path", r.URL.Path), slog.Any("error", err))
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

func (a *Authenticator) actorFor(r *http.Request) (models.Actor, error) {
	if key := r.Header.Get(OperatorHeader); key != "" {
		if a.operatorKeyHash == "" {
			return models.Actor{}, errors.New("operator key is not enabled")
		}
		if !utils.CheckOperatorKey(key, a.operatorKeyHash) {
			return models.Actor{}, errors.New("invalid operator key")
		}
		return models.Actor{UserID: operatorUserID, Role: models.PlatformAdmin}, nil
	}

	header := r.Header.Get("Authorization")
	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenString == "" {
		return models.Actor{}, errors.New("missing bearer token")
	}
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return models.Actor{}, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return models.Actor{}, errors.New("invalid token claims")
	}
	return actorFromClaims(claims)
}

// RequireAdmin rejects callers that are not platform admins.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := ActorFromContext(r.Context())
		if err != nil {
			unauthorized(w)
			return
		}
		if !actor.IsAdmin() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":{"code":"forbidden","message":"platform admin required"}}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":{"code":"unauthorized","message":"authentication required"}}` + "\n"))
}

// IssueToken signs a token for a user. Used by tests and local tooling; the profile system
// issues production tokens with the same claims.
func IssueToken(secret string, actor models.Actor, claims jwt.MapClaims) (string, error) {
	all := jwt.MapClaims{jwtClaimUserID: actor.UserID, jwtClaimRole: string(actor.Role)}
	for k, v := range claims {
		all[k] = v
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, all).SignedString([]byte(secret))
}

func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}
