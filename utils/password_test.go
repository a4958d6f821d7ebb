package utils

import (
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		password string
		wantErr  string
	}{
		{"Sh0rt.!", "at least 8 characters"},
		{"alllower1.", "uppercase"},
		{"ALLUPPER1.", "lowercase"},
		{"NoDigits.", "number"},
		{"NoSpecial1", "special"},
		{"GoodPass1.", ""},
	}

	for _, c := range cases {
		err := ValidatePassword(c.password, nil)
		if c.wantErr == "" {
			if err != nil {
				t.Errorf("ValidatePassword(%q) = %v, want nil", c.password, err)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), c.wantErr) {
			t.Errorf("ValidatePassword(%q) = %v, want error containing %q", c.password, err, c.wantErr)
		}
	}
}

func TestValidatePasswordBlacklist(t *testing.T) {
	blackList := map[string]bool{"Password1.": true}

	if err := ValidatePassword("Password1.", blackList); err == nil {
		t.Error("blacklisted password should be rejected")
	}
	if err := ValidatePassword("Different1.", blackList); err != nil {
		t.Errorf("non-blacklisted password rejected: %v", err)
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hashed, err := HashPassword("GoodPass1.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hashed == "GoodPass1." {
		t.Fatal("password stored in plain text")
	}

	if !CheckPassword(hashed, "GoodPass1.") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hashed, "WrongPass1.") {
		t.Error("wrong password accepted")
	}
}
