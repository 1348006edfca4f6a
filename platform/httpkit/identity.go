// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity represents the authenticated caller as asserted by the token.
// The role is carried as its raw claim value; callers parse it into the
// closed role set.
type Identity interface {
	UserID() uuid.UUID
	Role() string
	// CodePrefix is the salesperson's QR code prefix, empty when unset.
	CodePrefix() string
	IsAuthenticated() bool
}

type identity struct {
	userID        uuid.UUID
	role          string
	codePrefix    string
	authenticated bool
}

func (i *identity) UserID() uuid.UUID     { return i.userID }
func (i *identity) Role() string          { return i.role }
func (i *identity) CodePrefix() string    { return i.codePrefix }
func (i *identity) IsAuthenticated() bool { return i.authenticated }

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if user info is not present.
func GetIdentity(c *gin.Context) Identity {
	userID, userOK := c.Get(ContextUserIDKey)
	if !userOK {
		return &identity{}
	}

	uid, ok := userID.(uuid.UUID)
	if !ok {
		return &identity{}
	}

	role := c.GetString(ContextRoleKey)
	prefix := c.GetString(ContextCodePrefixKey)

	return &identity{
		userID:        uid,
		role:          role,
		codePrefix:    prefix,
		authenticated: true,
	}
}

// MustGetIdentity extracts the Identity from a Gin context.
// If the user is not authenticated, it aborts with 401 Unauthorized and returns nil.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Kind: "unauthorized"})
		return nil
	}
	return id
}
