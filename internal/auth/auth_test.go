package auth

import (
	"errors"
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	service := NewService("test-secret")
	service.RegisterAPICredentials("participant-1", "secret-1")

	token, err := service.GenerateToken(Credentials{APIKey: "participant-1", APISecret: "secret-1"})
	if err != nil {
		t.Fatalf("token generation failed: %v", err)
	}

	claims, err := service.ValidateToken(token.Token)
	if err != nil {
		t.Fatalf("token validation failed: %v", err)
	}
	if claims.ParticipantID != "participant-1" {
		t.Fatalf("unexpected participant ID %q", claims.ParticipantID)
	}
}

func TestInvalidCredentials(t *testing.T) {
	service := NewService("test-secret")
	service.RegisterAPICredentials("participant-1", "secret-1")

	_, err := service.GenerateToken(Credentials{APIKey: "participant-1", APISecret: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	_, err = service.GenerateToken(Credentials{APIKey: "unknown", APISecret: "secret-1"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestValidateRejectsForeignToken(t *testing.T) {
	issuer := NewService("secret-a")
	issuer.RegisterAPICredentials("participant-1", "secret-1")
	verifier := NewService("secret-b")

	token, err := issuer.GenerateToken(Credentials{APIKey: "participant-1", APISecret: "secret-1"})
	if err != nil {
		t.Fatalf("token generation failed: %v", err)
	}

	if _, err := verifier.ValidateToken(token.Token); err == nil {
		t.Fatalf("token signed with a different secret validated")
	}
}
