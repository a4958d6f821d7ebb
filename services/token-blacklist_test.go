package services

import "testing"

func TestTokenBlacklist(t *testing.T) {
	b := NewTokenBlacklist()

	if b.IsRevoked("abc") {
		t.Error("fresh blacklist should not report tokens as revoked")
	}

	b.Revoke("abc")
	if !b.IsRevoked("abc") {
		t.Error("revoked token not reported")
	}
	if b.IsRevoked("def") {
		t.Error("unrelated token reported as revoked")
	}
}
