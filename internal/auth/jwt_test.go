package auth

import (
	"errors"
	"testing"
	"time"
)

func TestJWTGenerateValidate(t *testing.T) {
	manager := NewJWTManager("secret", time.Hour, "issuer")
	jwtToken, err := manager.Generate("user-1", "organizer")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := manager.Validate(jwtToken)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.Subject != "user-1" || claims.Role != "organizer" {
		t.Fatalf("unexpected claims: %#v", claims)
	}
}

func TestJWTGenerateInvalid(t *testing.T) {
	manager := NewJWTManager("secret", time.Hour, "issuer")
	if _, err := manager.Generate("", "organizer"); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected invalid credential error, got %v", err)
	}
}

func TestJWTValidateMissing(t *testing.T) {
	manager := NewJWTManager("secret", time.Hour, "issuer")
	if _, err := manager.Validate(""); !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected missing token error, got %v", err)
	}
}

func TestJWTValidateExpired(t *testing.T) {
	manager := NewJWTManager("secret", -time.Minute, "issuer")
	token, err := manager.Generate("user-1", "attendee")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := manager.Validate(token); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected invalid credential error, got %v", err)
	}
}

func TestJWTValidateWrongSecret(t *testing.T) {
	token, err := NewJWTManager("secret", time.Hour, "issuer").Generate("user-1", "attendee")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := NewJWTManager("other", time.Hour, "issuer").Validate(token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated error, got %v", err)
	}
}

func TestTokenFromHeader(t *testing.T) {
	if _, err := TokenFromHeader(""); !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected missing token error, got %v", err)
	}
	if _, err := TokenFromHeader("nope"); !errors.Is(err, ErrMalformedCredential) {
		t.Fatalf("expected malformed token error, got %v", err)
	}
	if _, err := TokenFromHeader("Basic abc"); !errors.Is(err, ErrMalformedCredential) {
		t.Fatalf("expected malformed token error, got %v", err)
	}
	if _, err := TokenFromHeader("Bearer a b"); !errors.Is(err, ErrMalformedCredential) {
		t.Fatalf("expected malformed token error, got %v", err)
	}
	if token, err := TokenFromHeader("Bearer token"); err != nil || token != "token" {
		t.Fatalf("expected token, got %s err %v", token, err)
	}
}
