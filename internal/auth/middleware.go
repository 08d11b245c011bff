package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const identityKey = "userId"

// Middleware gates a route group behind bearer-token auth and stores the
// caller's identity in the gin context.
func Middleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := Authenticate(secret, c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(identityKey, userID)
		c.Next()
	}
}

// IdentityFrom returns the authenticated user id bound by Middleware.
func IdentityFrom(c *gin.Context) string {
	return c.GetString(identityKey)
}
