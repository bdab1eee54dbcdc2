package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"quickcourt/internal/logger"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID    = "user_id"
	ctxUserEmail = "user_email"
	ctxUserRole  = "user_role"
	ctxTokenID   = "token_id"
	ctxTokenExp  = "token_exp"
)

// Identity is the caller resolved from a verified access token.
type Identity struct {
	UserID    int
	Email     string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

func (i Identity) IsStaff() bool { return i.Role == RoleAdmin || i.Role == RoleFacilityOwner }

// AuthMiddleware verifies the bearer token on every request. store may be nil,
// in which case revocation is not checked.
func AuthMiddleware(accessTokenSecret string, store TokenStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(strings.TrimSpace(parts[0]), "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token is empty"})
			return
		}

		claims, err := ValidateToken(tokenString, accessTokenSecret)
		if err != nil {
			switch {
			case errors.Is(err, ErrTokenExpired):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
			default:
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or malformed token"})
			}
			return
		}

		if claims.TokenType != TokenTypeAccess {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
			return
		}

		if store != nil {
			revoked, err := store.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				logger.Error("token revocation check failed", "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				return
			}
			if revoked {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token revoked"})
				return
			}
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUserEmail, claims.Email)
		c.Set(ctxUserRole, claims.Role)
		c.Set(ctxTokenID, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(ctxTokenExp, claims.ExpiresAt.Time)
		}

		c.Next()
	}
}

// RequireRole lets the request through when the caller has any of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ctxUserRole)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User role not found"})
			return
		}

		roleStr, ok := role.(string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid role type"})
			return
		}

		for _, r := range roles {
			if roleStr == r {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
	}
}

func GetUserID(c *gin.Context) (int, bool) {
	userID, exists := c.Get(ctxUserID)
	if !exists {
		return 0, false
	}

	id, ok := userID.(int)
	if !ok {
		return 0, false
	}

	return id, true
}

// CurrentIdentity returns the authenticated caller set by AuthMiddleware.
func CurrentIdentity(c *gin.Context) (Identity, bool) {
	id, ok := GetUserID(c)
	if !ok {
		return Identity{}, false
	}

	identity := Identity{
		UserID:  id,
		Email:   c.GetString(ctxUserEmail),
		Role:    c.GetString(ctxUserRole),
		TokenID: c.GetString(ctxTokenID),
	}
	if exp, ok := c.Get(ctxTokenExp); ok {
		identity.ExpiresAt, _ = exp.(time.Time)
	}
	return identity, true
}
