package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateToken("655f1c8e2f8b9a0012345678", "manager")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != "655f1c8e2f8b9a0012345678" {
		t.Errorf("user id = %q", claims.UserID)
	}
	if claims.Role != "manager" {
		t.Errorf("role = %q", claims.Role)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	claims := &Claims{
		UserID: "655f1c8e2f8b9a0012345678",
		Role:   "user",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := ValidateToken(token); err == nil {
		t.Error("expired token accepted")
	}
}

func TestTokenWrongSecretRejected(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	token, err := GenerateToken("655f1c8e2f8b9a0012345678", "user")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Setenv("JWT_SECRET", "other-secret")
	if _, err := ValidateToken(token); err == nil {
		t.Error("token signed with a different secret accepted")
	}
}
