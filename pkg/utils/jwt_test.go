package utils

import (
	"testing"
)

func TestTokenPairRoundTrip(t *testing.T) {
	svc := NewJWTService("unit-test-secret")

	access, refresh, expiresIn, err := svc.GenerateTokenPair("user-1", "alice@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if access == "" || refresh == "" || expiresIn <= 0 {
		t.Fatal("incomplete token pair")
	}

	claims, err := svc.ValidateToken(access)
	if err != nil {
		t.Fatalf("access token invalid: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "alice@example.com" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Type != "access" {
		t.Errorf("type = %q, want access", claims.Type)
	}

	if _, err := svc.ValidateRefreshToken(refresh); err != nil {
		t.Fatalf("refresh token invalid: %v", err)
	}
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	svc := NewJWTService("unit-test-secret")
	access, refresh, _, err := svc.GenerateTokenPair("user-1", "alice@example.com")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.ValidateRefreshToken(access); err == nil {
		t.Error("access token accepted as refresh token")
	}
	if _, err := svc.ValidateToken(refresh); err == nil {
		t.Error("refresh token accepted as access token")
	}
}

func TestTokensRejectWrongSecret(t *testing.T) {
	access, _, _, err := NewJWTService("secret-a").GenerateTokenPair("user-1", "alice@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewJWTService("secret-b").ValidateToken(access); err == nil {
		t.Error("token signed with another secret was accepted")
	}
}

func TestRefreshAccessToken(t *testing.T) {
	svc := NewJWTService("unit-test-secret")
	_, refresh, _, err := svc.GenerateTokenPair("user-1", "alice@example.com")
	if err != nil {
		t.Fatal(err)
	}

	access, expiresIn, err := svc.RefreshAccessToken(refresh)
	if err != nil {
		t.Fatal(err)
	}
	if expiresIn <= 0 {
		t.Error("expires_in not set")
	}
	claims, err := svc.ValidateToken(access)
	if err != nil {
		t.Fatalf("refreshed token invalid: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("user_id = %q", claims.UserID)
	}
}

func TestGenerateOTPCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateOTPCode()
		if err != nil {
			t.Fatal(err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q, want 6 digits", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("code %q contains a non-digit", code)
			}
		}
	}
}
