package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"task-management-service/models"
	"task-management-service/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubRevoker struct {
	revoked map[string]bool
}

func (s stubRevoker) IsRevoked(token string) bool { return s.revoked[token] }

func authRequest(t *testing.T, token string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestJWTAuthMiddlewareMissingHeader(t *testing.T) {
	handler := JWTAuthMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authRequest(t, ""))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestJWTAuthMiddlewareResolvesPrincipal(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	userID := primitive.NewObjectID()
	token, err := utils.GenerateToken(userID.Hex(), "manager")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got models.Principal
	handler := JWTAuthMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok {
			t.Fatal("principal missing from context")
		}
		got = p
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authRequest(t, token))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got.ID != userID {
		t.Errorf("principal id = %s, want %s", got.ID.Hex(), userID.Hex())
	}
	if got.Role != models.RoleManager {
		t.Errorf("principal role = %s, want manager", got.Role)
	}
}

func TestJWTAuthMiddlewareRevokedToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := utils.GenerateToken(primitive.NewObjectID().Hex(), "user")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	handler := JWTAuthMiddleware(stubRevoker{revoked: map[string]bool{token: true}})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authRequest(t, token))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireRoleAtLeast(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cases := []struct {
		role     string
		floor    models.Role
		wantCode int
	}{
		{"user", models.RoleManager, http.StatusForbidden},
		{"manager", models.RoleManager, http.StatusOK},
		{"admin", models.RoleManager, http.StatusOK},
		{"manager", models.RoleAdmin, http.StatusForbidden},
		{"admin", models.RoleAdmin, http.StatusOK},
	}

	for _, c := range cases {
		token, err := utils.GenerateToken(primitive.NewObjectID().Hex(), c.role)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		gated := RequireRoleAtLeast(c.floor, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		handler := JWTAuthMiddleware(nil)(gated)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authRequest(t, token))

		if rec.Code != c.wantCode {
			t.Errorf("role %s with floor %s: status = %d, want %d", c.role, c.floor, rec.Code, c.wantCode)
		}
	}
}
