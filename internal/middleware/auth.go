package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"breakfast-order-service/internal/auth"
	"breakfast-order-service/internal/order"
)

type contextKey string

const authContextKey contextKey = "authContext"

type AuthContext struct {
	Subject string
	Role    auth.TerminalRole
	Actor   order.Actor
}

func (a *AuthContext) IsStaff() bool {
	return a != nil && a.Role == auth.RoleStaff
}

func WithAuthContext(ctx context.Context, authCtx *AuthContext) context.Context {
	fillIdentitySlot(ctx, authCtx)
	return context.WithValue(ctx, authContextKey, authCtx)
}

func GetAuthContext(ctx context.Context) (*AuthContext, bool) {
	value := ctx.Value(authContextKey)
	if value == nil {
		return nil, false
	}
	ac, ok := value.(*AuthContext)
	return ac, ok
}

// ActorFrom returns the request actor, or a guest when the request is anonymous.
func ActorFrom(ctx context.Context) order.Actor {
	if ac, ok := GetAuthContext(ctx); ok && ac != nil {
		return ac.Actor
	}
	return order.Guest()
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	writeAuthErrorDebug(w, status, message, "")
}

func writeAuthErrorDebug(w http.ResponseWriter, status int, message string, debug string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	code := "UNAUTHORIZED"
	if status == http.StatusForbidden {
		code = "FORBIDDEN"
	}
	payload := map[string]any{
		"success": false,
		"error":   code,
		"message": message,
	}

	if os.Getenv("APP_ENV") == "development" && strings.TrimSpace(debug) != "" {
		payload["debug"] = debug
	}

	_ = json.NewEncoder(w).Encode(payload)
}

// ClaimsToContext builds the request identity from verified claims.
func ClaimsToContext(claims *auth.Claims) *AuthContext {
	return &AuthContext{
		Subject: claims.Subject,
		Role:    claims.Role,
		Actor:   claims.Actor(),
	}
}

// TerminalAuth verifies the bearer token of a staff or kiosk terminal and
// rejects kiosk calls to staff-only routes.
func TerminalAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ParseBearerToken(r.Header.Get("Authorization"))
			claims, err := auth.VerifyAccessToken(token, jwtSecret)
			if err != nil {
				writeAuthErrorDebug(w, http.StatusUnauthorized, "Authorization token required", err.Error())
				return
			}

			authCtx := ClaimsToContext(claims)
			if !authCtx.IsStaff() && auth.StaffOnly(r.Method, r.URL.Path) {
				writeAuthError(w, http.StatusForbidden, "Staff access required")
				return
			}

			ctx := WithAuthContext(r.Context(), authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireStaff guards a route group independently of the route table.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := GetAuthContext(r.Context())
		if !ok || !ac.IsStaff() {
			writeAuthError(w, http.StatusForbidden, "Staff access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
