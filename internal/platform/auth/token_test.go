package auth

import (
	"slices"
	"testing"
	"time"
)

func TestIssueToken_AcceptedByMiddleware(t *testing.T) {
	cfg := JWTConfig{Issuer: "smartdent", SigningKey: testSigningKey}
	token, err := IssueToken(cfg, TokenRequest{
		Subject: "dr-ana",
		Name:    "Ana Souza",
		Roles:   []string{RoleDentist},
	}, time.Now())
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	c, called, err := runMiddleware(t, JWTMiddleware(cfg), "Bearer "+token)
	if err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if !called {
		t.Fatal("handler should run")
	}
	ctx := c.Request().Context()
	if got := UserIDFromContext(ctx); got != "dr-ana" {
		t.Errorf("expected subject dr-ana, got %q", got)
	}
	if !slices.Contains(RolesFromContext(ctx), RoleDentist) {
		t.Errorf("expected dentist role, got %v", RolesFromContext(ctx))
	}
}

func TestIssueToken_Expired(t *testing.T) {
	cfg := JWTConfig{Issuer: "smartdent", SigningKey: testSigningKey}
	token, err := IssueToken(cfg, TokenRequest{
		Subject: "svc",
		Roles:   []string{RoleAnalyst},
		TTL:     time.Minute,
	}, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	_, called, err := runMiddleware(t, JWTMiddleware(cfg), "Bearer "+token)
	if called || err == nil {
		t.Fatal("expired token should be rejected")
	}
}

func TestIssueToken_Errors(t *testing.T) {
	cfg := JWTConfig{SigningKey: testSigningKey}
	tests := []struct {
		name string
		cfg  JWTConfig
		req  TokenRequest
	}{
		{"no key", JWTConfig{}, TokenRequest{Subject: "a", Roles: []string{RoleAdmin}}},
		{"no subject", cfg, TokenRequest{Roles: []string{RoleAdmin}}},
		{"no roles", cfg, TokenRequest{Subject: "a"}},
		{"unknown role", cfg, TokenRequest{Subject: "a", Roles: []string{"janitor"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := IssueToken(tt.cfg, tt.req, time.Now()); err == nil {
				t.Error("expected error")
			}
		})
	}
}
