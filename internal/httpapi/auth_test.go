package httpapi

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"farmacia-bermat/backend/internal/domain"
	"farmacia-bermat/backend/internal/service"
)

type authenticatorStub struct {
	hash  string
	actor domain.Actor
	calls int
}

func (s *authenticatorStub) Authenticate(_ context.Context, username string, password string) (domain.Actor, error) {
	s.calls++
	if username != s.actor.Username || bcrypt.CompareHashAndPassword([]byte(s.hash), []byte(password)) != nil {
		return domain.Actor{}, service.ErrInvalidCredentials
	}
	return s.actor, nil
}

// mustHashPassword generates a bcrypt hash of the given password or fails the test.
func mustHashPassword(t *testing.T, plain string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(hash)
}

func newStubManager(t *testing.T) (*AuthManager, *authenticatorStub) {
	t.Helper()
	stub := &authenticatorStub{
		hash:  mustHashPassword(t, "admin123"),
		actor: domain.Actor{UserID: "u1", Username: "admin", Role: domain.RoleAdmin},
	}
	return NewAuthManager("test-secret", time.Hour, stub), stub
}

func TestLoginIssuesTokenCarryingActor(t *testing.T) {
	manager, _ := newStubManager(t)

	resp, err := manager.Login(context.Background(), domain.LoginRequest{Username: " admin ", Password: "admin123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if len(resp.Modules) != 8 {
		t.Fatalf("expected every module for admin, got %v", resp.Modules)
	}

	actor, err := manager.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if actor.UserID != "u1" || actor.Username != "admin" || actor.Role != domain.RoleAdmin {
		t.Fatalf("unexpected actor %+v", actor)
	}
}

func TestLoginRejectsBadInput(t *testing.T) {
	manager, stub := newStubManager(t)

	if _, err := manager.Login(context.Background(), domain.LoginRequest{Username: "admin"}); !errors.Is(err, service.ErrInvalidCredentials) {
		t.Fatalf("expected empty password to be rejected as invalid credentials, got %v", err)
	}
	if stub.calls != 0 {
		t.Fatalf("empty password must not reach the authenticator")
	}
	if _, err := manager.Login(context.Background(), domain.LoginRequest{Username: "admin", Password: "wrong"}); !errors.Is(err, service.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestParseTokenRejectsForeignSecretAndExpiry(t *testing.T) {
	manager, _ := newStubManager(t)
	other := NewAuthManager("another-secret", time.Hour, nil)

	token, err := other.sign(domain.Actor{UserID: "u1", Username: "admin", Role: domain.RoleAdmin}, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := manager.ParseToken(token); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}

	expired, err := manager.sign(domain.Actor{UserID: "u1", Username: "admin", Role: domain.RoleAdmin}, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := manager.ParseToken(expired); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestParseTokenRequiresUserID(t *testing.T) {
	manager, _ := newStubManager(t)

	claims := posCustomClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   "admin",
			Issuer:    tokenIssuer,
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: domain.RoleAdmin,
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := manager.ParseToken(token); err == nil || !strings.Contains(err.Error(), "subject") {
		t.Fatalf("expected missing user id to be rejected, got %v", err)
	}
}
