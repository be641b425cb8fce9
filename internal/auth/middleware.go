package auth

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userKey = "auth.user"

// UserLookup resolves the account behind a verified token.
type UserLookup interface {
	Get(ctx context.Context, id int64) (User, error)
}

// RequireUser rejects requests without a valid bearer token or whose user no
// longer exists, and stores the caller on the context.
func RequireUser(issuer *Issuer, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			unauthorized(c, "Not authenticated")
			return
		}

		claims, err := issuer.Verify(token)
		if err != nil {
			unauthorized(c, ErrInvalidToken.Error())
			return
		}

		user, err := users.Get(c.Request.Context(), claims.UserID)
		if errors.Is(err, ErrUserNotFound) {
			unauthorized(c, "User not found")
			return
		}
		if err != nil {
			log.Printf("Failed to load user %d: %v", claims.UserID, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

func unauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detail})
}

// CurrentUser returns the account stored by RequireUser.
func CurrentUser(c *gin.Context) (User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return User{}, false
	}
	u, ok := v.(User)
	return u, ok
}

// UserID returns the id of the account stored by RequireUser.
func UserID(c *gin.Context) (int64, bool) {
	u, ok := CurrentUser(c)
	return u.ID, ok
}
