package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/LegalDragon/Pickleball-Community-sub007/models"
	"github.com/golang-jwt/jwt/v4"
)

const (
	jwtClaimUserID = "user_id"
	jwtClaimRole   = "role"
)

// ActorFromContext returns the caller put there by Authenticate.
func ActorFromContext(ctx context.Context) (models.Actor, error) {
	actor, ok := ctx.Value(actorContextKey).(models.Actor)
	if !ok {
		return models.Actor{}, errors.New("actor not found in context")
	}
	return actor, nil
}

func actorFromClaims(claims jwt.MapClaims) (models.Actor, error) {
	userIDClaim, ok := claims[jwtClaimUserID]
	if !ok {
		userIDClaim, ok = claims["sub"]
	}
	if !ok {
		return models.Actor{}, fmt.Errorf("missing '%s' claim in token", jwtClaimUserID)
	}

	var userID string
	switch v := userIDClaim.(type) {
	case string:
		userID = v
	case float64:
		if v != float64(int64(v)) {
			return models.Actor{}, fmt.Errorf("'%s' claim is not an integer: %f", jwtClaimUserID, v)
		}
		userID = strconv.FormatInt(int64(v), 10)
	default:
		return models.Actor{}, fmt.Errorf("invalid type for '%s' claim: got %T", jwtClaimUserID, userIDClaim)
	}
	if userID == "" {
		return models.Actor{}, fmt.Errorf("empty '%s' claim", jwtClaimUserID)
	}

	role := models.PlatformUser
	if roleClaim, ok := claims[jwtClaimRole]; ok {
		roleStr, ok := roleClaim.(string)
		if !ok {
			return models.Actor{}, fmt.Errorf("invalid type for '%s' claim: expected string, got %T", jwtClaimRole, roleClaim)
		}
		switch models.PlatformRole(roleStr) {
		case models.PlatformAdmin:
			role = models.PlatformAdmin
		case models.PlatformUser, "":
		default:
			// Other platform roles carry no extra rights here.
		}
	}
	return models.Actor{UserID: userID, Role: role}, nil
}
