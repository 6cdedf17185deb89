package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"breakfast-order-service/internal/order"
)

type TerminalRole string

const (
	RoleStaff TerminalRole = "STAFF"
	RoleKiosk TerminalRole = "KIOSK"
)

// Claims identify the terminal and, for staff, who is signed in.
type Claims struct {
	Role TerminalRole `json:"role"`
	Name string       `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Actor maps the token onto the order actor. Unknown roles are treated as kiosks.
func (c *Claims) Actor() order.Actor {
	if c != nil && c.Role == RoleStaff {
		return order.Staff(strings.TrimSpace(c.Name))
	}
	return order.Guest()
}

func ParseBearerToken(authHeader string) string {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func VerifyAccessToken(tokenString string, secret string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("token required")
	}

	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))
	_, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(time.Now()) {
		return nil, errors.New("token expired")
	}
	switch claims.Role {
	case RoleStaff, RoleKiosk:
	default:
		return nil, errors.New("unknown terminal role")
	}
	return claims, nil
}

// IssueToken signs an HS256 terminal token valid for ttl.
func IssueToken(secret string, role TerminalRole, subject, name string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", errors.New("jwt secret is not configured")
	}
	now := time.Now()
	claims := Claims{
		Role: role,
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
