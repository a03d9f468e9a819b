package config

import "testing"

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("SEED_ADMIN_PASSWORD", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
	if cfg.SeedAdminPassword != "" {
		t.Fatalf("expected empty SEED_ADMIN_PASSWORD when unset, got %q", cfg.SeedAdminPassword)
	}
}

func TestLoadReadsEnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "30")
	t.Setenv("AI_PROVIDER", " Gemini ")
	t.Setenv("AUDIT_CACHE_TTL_SECONDS", "-5")

	cfg := Load()
	if cfg.Address() != ":9090" {
		t.Fatalf("expected :9090, got %s", cfg.Address())
	}
	if cfg.AccessTokenTTLMinutes != 30 {
		t.Fatalf("expected token ttl 30, got %d", cfg.AccessTokenTTLMinutes)
	}
	if cfg.AIProvider != "gemini" {
		t.Fatalf("expected normalized provider gemini, got %q", cfg.AIProvider)
	}
	if cfg.AuditCacheTTLSeconds != 600 {
		t.Fatalf("expected invalid audit ttl to fall back to 600, got %d", cfg.AuditCacheTTLSeconds)
	}
}
