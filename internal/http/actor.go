package http

import (
	"net/http"

	"predpraznik_backend/internal/access"
	"predpraznik_backend/platform/apperr"
	"predpraznik_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// MustGetActor turns the token identity into an access.Actor. It aborts with
// 401 when unauthenticated and 403 when the role claim is outside the closed set.
func MustGetActor(c *gin.Context) (access.Actor, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return access.Actor{}, false
	}

	role, err := access.ParseRole(identity.Role())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusForbidden, httpkit.ErrorResponse{
			Error: "unknown role",
			Kind:  apperr.KindForbidden.String(),
		})
		return access.Actor{}, false
	}

	return access.Actor{
		UserID:     identity.UserID(),
		Role:       role,
		CodePrefix: identity.CodePrefix(),
	}, true
}

// RequireRole returns middleware admitting only the given roles.
func RequireRole(roles ...access.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := MustGetActor(c)
		if !ok {
			return
		}
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, httpkit.ErrorResponse{
			Error: "forbidden",
			Kind:  apperr.KindForbidden.String(),
		})
	}
}
