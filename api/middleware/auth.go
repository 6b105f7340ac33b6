package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/alert-arbiter/internal/auth"
)

const (
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "
	OperatorKey         = "operator"
	RoleKey             = "role"
	claimsKey           = "claims"
)

func JWTAuth(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(AuthorizationHeader)
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing authorization header",
			})
			return
		}

		if !strings.HasPrefix(header, BearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid authorization header format",
			})
			return
		}

		token := strings.TrimPrefix(header, BearerPrefix)
		claims, err := authService.ValidateToken(token)
		if err != nil {
			message := "invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				message = "token expired"
			}

			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": message,
			})
			return
		}

		c.Set(OperatorKey, claims.Operator)
		c.Set(RoleKey, claims.Role)
		c.Set(claimsKey, claims)

		c.Next()
	}
}

// RequireRole must run after JWTAuth.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil || !claims.Allows(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": auth.ErrForbidden.Error(),
			})
			return
		}
		c.Next()
	}
}

func GetClaims(c *gin.Context) *auth.Claims {
	claims, exists := c.Get(claimsKey)
	if !exists {
		return nil
	}
	return claims.(*auth.Claims)
}

func GetOperator(c *gin.Context) string {
	operator, exists := c.Get(OperatorKey)
	if !exists {
		return ""
	}
	return operator.(string)
}
