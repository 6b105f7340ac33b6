package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/alert-arbiter/api/middleware"
	"github.com/OldStager01/alert-arbiter/internal/auth"
)

type AuthHandler struct {
	authService *auth.Service
}

func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
	Operator  string `json:"operator"`
	Role      string `json:"role"`
}

// WhoAmI echoes the caller's claims.
func (h *AuthHandler) WhoAmI(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	resp := gin.H{
		"operator": claims.Operator,
		"role":     claims.Role,
	}
	if claims.ExpiresAt != nil {
		resp["expires_at"] = claims.ExpiresAt.Time
	}
	c.JSON(http.StatusOK, resp)
}

// Refresh issues a new token with the same operator and role.
func (h *AuthHandler) Refresh(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	token, err := h.authService.GenerateToken(claims.Operator, claims.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, TokenResponse{
		Token:     token,
		ExpiresIn: int(h.authService.Duration().Seconds()),
		Operator:  claims.Operator,
		Role:      claims.Role,
	})
}
