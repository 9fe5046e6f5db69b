package middleware

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Jaychangani2005/StackIt/internal/models"
)

// Context keys set by the auth middleware.
const (
	UserIDKey   = "user_id"
	UserRoleKey = "user_role"
)

func jwtSecret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

func parseBearer(c *gin.Context) (jwt.MapClaims, error) {
	header := c.GetHeader("Authorization")
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || raw == "" {
		return nil, jwt.ErrTokenMalformed
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		secret := jwtSecret()
		// Never verify against an empty key; a token signed with an
		// empty secret would otherwise pass when JWT_SECRET is unset.
		if len(secret) == 0 {
			return nil, jwt.ErrTokenUnverifiable
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func setIdentity(c *gin.Context, claims jwt.MapClaims) bool {
	id, ok := claims["user_id"].(float64)
	if !ok {
		return false
	}
	c.Set(UserIDKey, int(id))

	role := models.RoleUser
	if r, ok := claims["role"].(string); ok && r != "" {
		role = r
	}
	c.Set(UserRoleKey, role)
	return true
}

// AuthMiddleware rejects requests without a valid bearer token and
// attaches the authenticated identity to the context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := parseBearer(c)
		if err != nil || !setIdentity(c, claims) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Valid access token required",
			})
			return
		}
		c.Next()
	}
}

// OptionalAuth attaches the identity when a valid bearer token is
// present and lets the request through anonymously otherwise. Used on
// public reads so responses can carry the caller's own vote.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := parseBearer(c); err == nil {
			setIdentity(c, claims)
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user id, if any.
func CurrentUser(c *gin.Context) (int, bool) {
	raw, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case uint:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// IsAdmin reports whether the authenticated user carries the admin role.
func IsAdmin(c *gin.Context) bool {
	role, exists := c.Get(UserRoleKey)
	return exists && role == models.RoleAdmin
}
