package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestManager() *Manager {
	return NewManager(Config{
		Secret:      "test-secret",
		Issuer:      "direct-chat",
		Audience:    "chat-users",
		TokenExpiry: 15 * time.Minute,
	})
}

func TestGenerateAndVerify(t *testing.T) {
	m := newTestManager()
	token, err := m.Generate("alice")
	if err != nil {
		t.Fatal(err)
	}
	user, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if user != "alice" {
		t.Errorf("user = %q, want alice", user)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.ID == "" || claims.Issuer != "direct-chat" {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestVerifyRejects(t *testing.T) {
	m := newTestManager()
	token, _ := m.Generate("alice")

	other := NewManager(Config{Secret: "other", Issuer: "direct-chat", Audience: "chat-users", TokenExpiry: time.Minute})
	if _, err := other.Verify(token); err == nil {
		t.Error("token signed with another secret must be rejected")
	}

	wrongAud := NewManager(Config{Secret: "test-secret", Issuer: "direct-chat", Audience: "admins", TokenExpiry: time.Minute})
	if _, err := wrongAud.Verify(token); err == nil {
		t.Error("token with wrong audience must be rejected")
	}

	if _, err := m.Verify("not-a-token"); err == nil {
		t.Error("garbage must be rejected")
	}

	blank, _ := m.Generate("  ")
	if _, err := m.Verify(blank); !errors.Is(err, ErrEmptyUser) {
		t.Errorf("blank user: err = %v, want ErrEmptyUser", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	m := newTestManager()
	issued := time.Now().Add(-time.Hour)
	m.now = func() time.Time { return issued }
	token, err := m.Generate("alice")
	if err != nil {
		t.Fatal(err)
	}

	m.now = time.Now
	if _, err := m.Verify(token); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}
