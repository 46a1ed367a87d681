package auth

import (
	"testing"
	"time"

	"opsdeck/internal/platform/config"
)

func newTestTokenService() *TokenService {
	return NewTokenService(config.JWTConfig{
		Secret:          "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
}

func TestTokenService_AccessToken(t *testing.T) {
	svc := newTestTokenService()

	token, err := svc.GenerateAccessToken("usr_1", "org_1", "admin", "ada@example.com")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}
	if claims.UserID != "usr_1" || claims.OrganizationID != "org_1" || claims.Role != "admin" {
		t.Errorf("Unexpected claims: %+v", claims)
	}
}

func TestTokenService_RejectsBadToken(t *testing.T) {
	svc := newTestTokenService()

	if _, err := svc.ValidateToken("not-a-token"); err == nil {
		t.Error("Expected error for malformed token")
	}

	other := NewTokenService(config.JWTConfig{
		Secret:          "different-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	token, _ := other.GenerateAccessToken("usr_1", "org_1", "admin", "ada@example.com")
	if _, err := svc.ValidateToken(token); err == nil {
		t.Error("Expected error for token signed with another secret")
	}
}

func TestTokenService_SetupToken(t *testing.T) {
	svc := newTestTokenService()

	token, err := svc.GenerateSetupToken("usr_1")
	if err != nil {
		t.Fatalf("Failed to generate setup token: %v", err)
	}

	userID, err := svc.ValidateSetupToken(token)
	if err != nil {
		t.Fatalf("Failed to validate setup token: %v", err)
	}
	if userID != "usr_1" {
		t.Errorf("Expected usr_1, got %s", userID)
	}

	// An access token must not pass as a setup token.
	access, _ := svc.GenerateAccessToken("usr_1", "org_1", "admin", "ada@example.com")
	if _, err := svc.ValidateSetupToken(access); err == nil {
		t.Error("Expected access token to be rejected as setup token")
	}
}
