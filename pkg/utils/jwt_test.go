package utils

import (
	"testing"
	"time"
)

func TestGenerateAndParseJWT(t *testing.T) {
	SetJWTSecret("test-secret")

	token, err := GenerateJWT(42, "ADMIN", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}

	claims, err := ParseJWT(token)
	if err != nil {
		t.Fatalf("ParseJWT() error = %v", err)
	}
	if claims.UserID != "42" || claims.Role != "ADMIN" {
		t.Errorf("claims = %+v, want user 42 ADMIN", claims)
	}

	SetJWTSecret("other-secret")
	if _, err := ParseJWT(token); err == nil {
		t.Errorf("ParseJWT() with wrong secret error = nil")
	}
}

func TestParseJWT_Expired(t *testing.T) {
	SetJWTSecret("test-secret")
	token, err := GenerateJWT(1, "USER", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}
	if _, err := ParseJWT(token); err == nil {
		t.Errorf("ParseJWT(expired) error = nil")
	}
}
