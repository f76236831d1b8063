package auth

import (
	"errors"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	m, err := NewTokenManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	token, err := m.Generate(7, "runner@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != 7 || claims.Email != "runner@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestExpiredTokenIsDistinct(t *testing.T) {
	m, err := NewTokenManager("test-secret", -time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	token, err := m.Generate(1, "a@b.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = m.Verify(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTamperedTokenIsInvalid(t *testing.T) {
	m, _ := NewTokenManager("test-secret", time.Hour)
	other, _ := NewTokenManager("different-secret", time.Hour)

	token, err := other.Generate(1, "a@b.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := m.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}

	if _, err := m.Verify("not-a-token"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for garbage, got %v", err)
	}
}

func TestEmptySecretRejected(t *testing.T) {
	if _, err := NewTokenManager("", time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash == "hunter22" {
		t.Fatal("hash must not equal plaintext")
	}
	if !CheckPassword("hunter22", hash) {
		t.Fatal("correct password must verify")
	}
	if CheckPassword("hunter23", hash) {
		t.Fatal("wrong password must not verify")
	}
}
