package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"farmacia-bermat/backend/internal/audit"
	"farmacia-bermat/backend/internal/config"
	"farmacia-bermat/backend/internal/domain"
	"farmacia-bermat/backend/internal/service"
	"farmacia-bermat/backend/internal/store/memory"
)

func TestValidateSecurityConfigRejectsWeakValues(t *testing.T) {
	if err := validateSecurityConfig(config.Config{AuthSecret: "short"}); err == nil {
		t.Fatalf("expected short auth secret to be rejected")
	}
	err := validateSecurityConfig(config.Config{AuthSecret: "0123456789abcdef0123456789abcdef", SeedAdminPassword: "admin123"})
	if err == nil {
		t.Fatalf("expected common seed password to be rejected")
	}
	err = validateSecurityConfig(config.Config{AuthSecret: "0123456789abcdef0123456789abcdef", SeedOperatorPassword: "zzzzzzzzzz"})
	if err == nil {
		t.Fatalf("expected repeated-character seed password to be rejected")
	}
}

func TestValidateSecurityConfigAcceptsStrongValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{
		AuthSecret:           "0123456789abcdef0123456789abcdef",
		SeedAdminPassword:    "Bermat-Admin-2026",
		SeedOperatorPassword: "Turno-Noite-77",
	})
	if err != nil {
		t.Fatalf("expected strong config to pass, got %v", err)
	}
	if err := validateSecurityConfig(config.Config{AuthSecret: "0123456789abcdef0123456789abcdef"}); err != nil {
		t.Fatalf("unset seed passwords should pass, got %v", err)
	}
}

func TestRunAuditPrintsFallbackWithoutProvider(t *testing.T) {
	repo := memory.NewSeeded(time.Now(), memory.SeedCredentials{})
	svc := service.New(repo, nil)

	var out bytes.Buffer
	if err := runAudit(context.Background(), svc, &out, false); err != nil {
		t.Fatalf("run audit: %v", err)
	}
	if !strings.Contains(out.String(), audit.FallbackMessage) {
		t.Fatalf("expected fallback message, got %q", out.String())
	}

	out.Reset()
	if err := runAudit(context.Background(), svc, &out, true); err != nil {
		t.Fatalf("run audit json: %v", err)
	}
	var report domain.AuditReport
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("decode json output: %v", err)
	}
	if !report.Fallback {
		t.Fatalf("expected fallback report, got %+v", report)
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "audit"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("expected %s subcommand, got %v (%v)", name, cmd, err)
		}
	}
}
