package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/mithilsmehta/TaskFlow/internal/models"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// TokenValidator validates a signed credential
type TokenValidator interface {
	ValidateToken(tokenString string) (*models.Claims, error)
}

// JWTAuth requires a valid "Authorization: Bearer <token>" header and stores
// the caller identity in the context
func JWTAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "Unauthorized",
				"message": "Not authorized, no token",
			})
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			log.Printf("[AUTH] JWTAuth: token rejected from %s - %v", c.ClientIP(), err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "Unauthorized",
				"message": "Not authorized, token failed",
			})
			return
		}

		c.Set(identityKey, claims.Identity())
		c.Next()
	}
}

// AdminOnly rejects callers without the admin role. It must run after JWTAuth.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok || !identity.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "Forbidden",
				"message": "Access denied, admin only",
			})
			return
		}
		c.Next()
	}
}

// GetIdentity returns the caller identity stored by JWTAuth
func GetIdentity(c *gin.Context) (models.Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return models.Identity{}, false
	}
	identity, ok := value.(models.Identity)
	return identity, ok
}
