package middleware

import (
	"context"
	"net/http"
	"strings"

	"task-management-service/logging"
	"task-management-service/models"
	"task-management-service/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type contextKey string

const principalKey contextKey = "principal"

// TokenChecker reports whether a token has been revoked by logout.
type TokenChecker interface {
	IsRevoked(token string) bool
}

// PrincipalFromContext returns the authenticated principal stored by
// JWTAuthMiddleware.
func PrincipalFromContext(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalKey).(models.Principal)
	return p, ok
}

// TokenFromRequest extracts the bearer token from the Authorization header.
func TokenFromRequest(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	return strings.TrimPrefix(authHeader, "Bearer ")
}

// JWTAuthMiddleware validates the bearer token and stores the resolved
// principal in the request context.
func JWTAuthMiddleware(revoked TokenChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logging.Logger.Warnf("Event ID: JWT_AUTH_MISSING_HEADER, Description: Authorization header missing for request to %s %s", r.Method, r.URL.Path)
				http.Error(w, "Authorization header missing", http.StatusUnauthorized)
				return
			}

			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenStr == authHeader {
				logging.Logger.Warnf("Event ID: JWT_AUTH_BEARER_PREFIX_MISSING, Description: Bearer prefix missing in Authorization header for request to %s %s", r.Method, r.URL.Path)
			}

			if revoked != nil && revoked.IsRevoked(tokenStr) {
				http.Error(w, "Token has been revoked", http.StatusUnauthorized)
				return
			}

			claims, err := utils.ValidateToken(tokenStr)
			if err != nil {
				logging.Logger.Warnf("Event ID: JWT_AUTH_INVALID_TOKEN, Description: Invalid token provided for request to %s %s: %v", r.Method, r.URL.Path, err)
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			userID, err := primitive.ObjectIDFromHex(claims.UserID)
			if err != nil {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			role, ok := models.ParseRole(claims.Role)
			if !ok {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			principal := models.Principal{ID: userID, Role: role}
			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoleAtLeast gates a handler behind a minimum role. It expects
// JWTAuthMiddleware to have run first.
func RequireRoleAtLeast(role models.Role, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok {
			http.Error(w, "Authorization required", http.StatusUnauthorized)
			return
		}
		if !principal.Role.AtLeast(role) {
			http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

// EnableCORS applies the permissive CORS policy used by the frontend.
func EnableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
