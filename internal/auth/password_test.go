package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"valid password", "validpassword123", nil},
		{"password too short", "short", ErrPasswordTooShort},
		{"password at minimum length", "123456789012", nil},
		{"password too long", strings.Repeat("a", 73), ErrPasswordTooLong},
		{"password at maximum length", strings.Repeat("a", 72), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password, bcrypt.MinCost)
			if err != tt.wantErr {
				t.Errorf("HashPassword() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr == nil && hash == "" {
				t.Error("HashPassword() returned empty hash for valid password")
			}
		})
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if err := CheckPassword("correct horse battery", hash); err != nil {
		t.Errorf("CheckPassword() with right password error = %v", err)
	}
	if err := CheckPassword("wrong horse battery", hash); err != ErrInvalidPassword {
		t.Errorf("CheckPassword() with wrong password error = %v, want %v", err, ErrInvalidPassword)
	}
	if err := CheckPassword("anything", "not-a-hash"); err == nil {
		t.Error("CheckPassword() with malformed hash should fail")
	}
}

func TestGenerateSessionSecret(t *testing.T) {
	a, err := GenerateSessionSecret()
	if err != nil {
		t.Fatalf("GenerateSessionSecret() error = %v", err)
	}
	b, _ := GenerateSessionSecret()

	if len(a) != 64 {
		t.Errorf("secret length = %d, want 64", len(a))
	}
	if a == b {
		t.Error("two secrets should differ")
	}
}
