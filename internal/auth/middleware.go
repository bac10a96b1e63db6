// internal/auth/middleware.go

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/imadgeboyega/projectmatch-backend/internal/common/utils"
)

type contextKey string

const (
	userIDKey contextKey = "userID"
	emailKey  contextKey = "email"
)

// Middleware validates access tokens issued by the identity service
type Middleware struct {
	jwtSecret string
}

// NewMiddleware creates a new auth middleware
func NewMiddleware(jwtSecret string) *Middleware {
	return &Middleware{jwtSecret: jwtSecret}
}

// Authenticate is the main middleware function that protects routes
// It verifies the JWT token and adds user information to the request context
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. Extract token from Authorization header
		token := extractToken(r)
		if token == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Missing or invalid authorization header")
			return
		}

		// 2. Validate token
		claims, err := utils.ValidateJWT(token, m.jwtSecret)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		// 3. Check if it's an access token (not refresh)
		if claims.Type != utils.TokenTypeAccess {
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid token type")
			return
		}

		// 4. Add user information to request context
		ctx := WithUser(r.Context(), claims.UserID, claims.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken extracts the JWT token from the Authorization header
// Supports "Bearer <token>" format. Websocket handshakes from browsers cannot
// set headers, so they may pass the token as the "token" query parameter.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			return r.URL.Query().Get("token")
		}
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// WithUser stores the authenticated user on ctx
func WithUser(ctx context.Context, userID int64, email string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, emailKey, email)
}

// GetUserIDFromContext extracts user ID from request context
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDKey).(int64)
	return userID, ok
}

// GetEmailFromContext extracts email from request context
func GetEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailKey).(string)
	return email, ok
}
