package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/bookman/internal/model"
)

func newTestService() *Service {
	return NewService(ServiceConfig{
		APIKey:        "test-api-key",
		TokenSecret:   "test-token-secret-32bytes-long!!",
		TokenExpiry:   30 * time.Minute,
		AdminUser:     "admin",
		AdminPassword: "admin",
	})
}

func TestIssueToken_ValidCredentials(t *testing.T) {
	s := newTestService()

	token, err := s.IssueToken("admin", "admin")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if token.AccessToken == "" {
		t.Error("expected non-empty access token")
	}
	if token.TokenType != "bearer" {
		t.Errorf("TokenType = %q, want %q", token.TokenType, "bearer")
	}
	if token.ExpiresIn != 1800 {
		t.Errorf("ExpiresIn = %d, want %d", token.ExpiresIn, 1800)
	}
}

func TestIssueToken_InvalidCredentials(t *testing.T) {
	s := newTestService()

	tests := []struct {
		name     string
		user     string
		password string
	}{
		{"wrong password", "admin", "wrong"},
		{"wrong user", "root", "admin"},
		{"both empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.IssueToken(tt.user, tt.password)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *model.APIError, got %v", err)
			}
			if apiErr.Code != model.ErrCodeInvalidCredentials {
				t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeInvalidCredentials)
			}
		})
	}
}

func TestVerifyToken_RoundTrip(t *testing.T) {
	s := newTestService()

	token, err := s.IssueToken("admin", "admin")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	subject, err := s.VerifyToken(token.AccessToken)
	if err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
	if subject != "admin" {
		t.Errorf("subject = %q, want %q", subject, "admin")
	}
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	s := newTestService()

	signed, err := GenerateToken("another-secret", "admin", time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	if _, err := s.VerifyToken(signed); err == nil {
		t.Error("expected error for token signed with wrong secret")
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	s := newTestService()

	signed, err := GenerateToken("test-token-secret-32bytes-long!!", "admin", -time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	if _, err := s.VerifyToken(signed); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestVerifyToken_Garbage(t *testing.T) {
	s := newTestService()

	if _, err := s.VerifyToken("not.a.token"); err == nil {
		t.Error("expected error for malformed token")
	}
}

func TestVerifyAPIKey(t *testing.T) {
	s := newTestService()

	if !s.VerifyAPIKey("test-api-key") {
		t.Error("expected matching key to verify")
	}
	if s.VerifyAPIKey("wrong-key") {
		t.Error("expected non-matching key to fail")
	}
	if s.VerifyAPIKey("") {
		t.Error("expected empty key to fail")
	}
}

func TestVerifyAPIKey_DisabledWhenUnset(t *testing.T) {
	s := NewService(ServiceConfig{
		TokenSecret: "secret",
		TokenExpiry: time.Minute,
	})

	if s.VerifyAPIKey("anything") {
		t.Error("API key auth should be disabled when no key is configured")
	}
}
