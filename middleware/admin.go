package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"modu-consult/utils"
)

// SessionCookie is the cookie the admin console stores its token in. The
// same token is accepted as a bearer header so the listing API can be used
// without a browser.
const SessionCookie = "admin_session"

const sessionKeyPrefix = "admin_session:"

// SessionKey builds the Redis key holding an issued admin token.
func SessionKey(token string) string {
	return sessionKeyPrefix + token
}

// RequireAdmin rejects requests that do not carry a live admin session token.
// The check runs before any lifecycle call; an expired or unknown token gets
// a plain 401 with no detail.
func RequireAdmin(cache utils.RedisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "admin authentication required",
			})
			return
		}

		if _, err := cache.GetFromCache(c.Request.Context(), SessionKey(token)); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "admin authentication required",
			})
			return
		}

		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
