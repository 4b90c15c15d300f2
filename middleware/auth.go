package middleware

import (
	"net/http"
	"strings"

	"github.com/Victorbatista2/Projeto-Delivery-sub000/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ctxUserID       = "userID"
	ctxRole         = "role"
	ctxRestaurantID = "restaurantID"
)

// Claims are issued by the accounts service. This service only verifies them.
type Claims struct {
	UserID       uint            `json:"user_id"`
	Role         models.UserRole `json:"role"`
	RestaurantID uint            `json:"restaurant_id,omitempty"`
	jwt.RegisteredClaims
}

// AuthRequired validates the HS256 JWT and injects claims into context
func AuthRequired(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		// browsers cannot set headers on websocket handshakes
		if authHeader == "" && c.Query("access_token") != "" {
			authHeader = "Bearer " + c.Query("access_token")
		}
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Authorization header required (Bearer <token>)",
			})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid or expired token"})
			return
		}
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, string(claims.Role))
		if claims.RestaurantID != 0 {
			c.Set(ctxRestaurantID, claims.RestaurantID)
		}
		c.Next()
	}
}

// RoleRequired enforces that caller has one of the allowed roles
func RoleRequired(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		callerRole, ok := GetRole(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Role not found in context"})
			return
		}
		for _, r := range roles {
			if callerRole == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "Access denied. Required role(s): " + rolesString(roles),
		})
	}
}

func rolesString(roles []models.UserRole) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}

// GetUserID extracts caller user ID from context. ok is false when the
// request was not authenticated.
func GetUserID(c *gin.Context) (uint, bool) {
	val, ok := c.Get(ctxUserID)
	if !ok {
		return 0, false
	}
	id, ok := val.(uint)
	return id, ok
}

// GetRole extracts caller role from context
func GetRole(c *gin.Context) (models.UserRole, bool) {
	val, ok := c.Get(ctxRole)
	if !ok {
		return "", false
	}
	s, ok := val.(string)
	return models.UserRole(s), ok
}

// GetRestaurantID returns the restaurant a restaurant token acts for.
func GetRestaurantID(c *gin.Context) (uint, bool) {
	val, ok := c.Get(ctxRestaurantID)
	if !ok {
		return 0, false
	}
	id, ok := val.(uint)
	return id, ok
}
