package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"farmacia-bermat/backend/internal/audit"
	"farmacia-bermat/backend/internal/cache"
	"farmacia-bermat/backend/internal/config"
	"farmacia-bermat/backend/internal/httpapi"
	"farmacia-bermat/backend/internal/logger"
	"farmacia-bermat/backend/internal/service"
	"farmacia-bermat/backend/internal/store/memory"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "farmacia-server",
		Short:         "Farmácia Bermat point-of-sale and inventory backend",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP API (default)",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context())
			},
		},
		newAuditCmd(),
	)
	return root
}

type app struct {
	cfg     config.Config
	service *service.Service
	closers []func() error
}

func (a *app) close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			log.Warn().Err(err).Msg("close error")
		}
	}
}

// bootstrap loads configuration, sets up logging and wires the service with
// its store, cache and audit provider.
func bootstrap(ctx context.Context) (*app, error) {
	cfg := config.Load()
	if err := logger.Setup(cfg.LoggerConfig()); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	mainLog := logger.WithComponent("main")

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	a := &app{cfg: cfg}

	repo := memory.NewSeeded(time.Now(), memory.SeedCredentials{
		AdminPassword:    cfg.SeedAdminPassword,
		OperatorPassword: cfg.SeedOperatorPassword,
	})
	mainLog.Info().Msg("repository: in-memory")

	cacheStore := cache.AuditCache(cache.NoopAuditCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisAuditCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(initCtx); err != nil {
			mainLog.Warn().Err(err).Msg("redis unavailable, using noop cache")
			_ = redisCache.Close()
		} else {
			cacheStore = redisCache
			a.closers = append(a.closers, redisCache.Close)
			mainLog.Info().Str("addr", cfg.RedisAddr).Msg("cache: redis")
		}
	} else {
		mainLog.Info().Msg("cache: noop")
	}

	analyzer, closeAnalyzer, err := audit.NewAnalyzer(initCtx, audit.ProviderConfig{
		Provider:     cfg.AIProvider,
		GeminiAPIKey: cfg.GeminiAPIKey,
		GeminiModel:  cfg.GeminiModel,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
		OpenAIModel:  cfg.OpenAIModel,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("audit provider: %w", err)
	}
	a.closers = append(a.closers, closeAnalyzer)
	if analyzer == nil {
		mainLog.Info().Msg("audit: no provider configured")
	} else {
		mainLog.Info().Str("provider", analyzer.Provider()).Msg("audit: provider ready")
	}

	engine := audit.NewEngine(analyzer, cacheStore, time.Duration(cfg.AuditCacheTTLSeconds)*time.Second)
	a.service = service.New(repo, engine)
	return a, nil
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := validateSecurityConfig(a.cfg); err != nil {
		return fmt.Errorf("invalid security configuration: %w", err)
	}
	mainLog := logger.WithComponent("main")

	auth := httpapi.NewAuthManager(a.cfg.AuthSecret, time.Duration(a.cfg.AccessTokenTTLMinutes)*time.Minute, a.service)
	api := httpapi.New(a.service, auth, a.cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              a.cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		mainLog.Info().Str("addr", a.cfg.Address()).Msg("pharmacy backend listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		mainLog.Error().Err(err).Msg("shutdown error")
	}
	mainLog.Info().Msg("server stopped")
	return nil
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.SeedAdminPassword != "" {
		if err := validatePasswordStrength(cfg.SeedAdminPassword); err != nil {
			return fmt.Errorf("SEED_ADMIN_PASSWORD is too weak: %w", err)
		}
	}
	if cfg.SeedOperatorPassword != "" {
		if err := validatePasswordStrength(cfg.SeedOperatorPassword); err != nil {
			return fmt.Errorf("SEED_OPERATOR_PASSWORD is too weak: %w", err)
		}
	}
	return nil
}

// validatePasswordStrength rejects short passwords, passwords made of a
// single repeated character and a list of common ones.
func validatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("at least 8 characters required")
	}
	known := map[string]bool{
		"password": true, "12345678": true, "123456789": true, "admin123": true,
		"farmacia123": true, "qwertyui": true, "11111111": true, "abcdefgh": true,
	}
	if known[strings.ToLower(password)] {
		return fmt.Errorf("common password not allowed")
	}

	allSame := true
	for i := 1; i < len(password); i++ {
		if password[i] != password[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return fmt.Errorf("single repeated character not allowed")
	}
	return nil
}
