package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrForbidden    = errors.New("insufficient role")
)

const (
	RoleViewer   = "viewer"
	RoleOperator = "operator"
)

type Claims struct {
	Operator string `json:"operator"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Allows reports whether the claims carry at least the given role.
func (c *Claims) Allows(role string) bool {
	if role == RoleViewer {
		return c.Role == RoleViewer || c.Role == RoleOperator
	}
	return c.Role == role
}

// Service issues and checks the HS256 tokens that guard the engagement API.
type Service struct {
	secret   []byte
	issuer   string
	duration time.Duration
}

func NewService(secret, issuer string, duration time.Duration) *Service {
	return &Service{
		secret:   []byte(secret),
		issuer:   issuer,
		duration: duration,
	}
}

func (s *Service) GenerateToken(operator, role string) (string, error) {
	if role != RoleViewer && role != RoleOperator {
		return "", fmt.Errorf("unknown role %q", role)
	}

	now := time.Now()
	claims := &Claims{
		Operator: operator,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operator,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.duration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *Service) Duration() time.Duration {
	return s.duration
}
