package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"farmacia-bermat/backend/internal/logger"
)

type Config struct {
	Port                  string
	AllowedOrigin         string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	AuthSecret            string
	AccessTokenTTLMinutes int
	AuditCacheTTLSeconds  int
	AIProvider            string
	GeminiAPIKey          string
	GeminiModel           string
	OpenAIAPIKey          string
	OpenAIModel           string
	SeedAdminPassword     string
	SeedOperatorPassword  string
	LogLevel              string
	LogFormat             string
	LogOutput             string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8080")
	v.SetDefault("ALLOWED_ORIGIN", "http://127.0.0.1:3000")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ACCESS_TOKEN_TTL_MINUTES", 480)
	v.SetDefault("AUDIT_CACHE_TTL_SECONDS", 600)
	v.SetDefault("GEMINI_MODEL", "gemini-2.0-flash-001")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_OUTPUT", "stdout")

	tokenTTL := v.GetInt("ACCESS_TOKEN_TTL_MINUTES")
	if tokenTTL < 1 {
		tokenTTL = 480
	}
	auditTTL := v.GetInt("AUDIT_CACHE_TTL_SECONDS")
	if auditTTL < 1 {
		auditTTL = 600
	}

	return Config{
		Port:                  v.GetString("PORT"),
		AllowedOrigin:         v.GetString("ALLOWED_ORIGIN"),
		RedisAddr:             v.GetString("REDIS_ADDR"),
		RedisPassword:         v.GetString("REDIS_PASSWORD"),
		RedisDB:               v.GetInt("REDIS_DB"),
		AuthSecret:            strings.TrimSpace(v.GetString("AUTH_SECRET")),
		AccessTokenTTLMinutes: tokenTTL,
		AuditCacheTTLSeconds:  auditTTL,
		AIProvider:            strings.ToLower(strings.TrimSpace(v.GetString("AI_PROVIDER"))),
		GeminiAPIKey:          strings.TrimSpace(v.GetString("GEMINI_API_KEY")),
		GeminiModel:           v.GetString("GEMINI_MODEL"),
		OpenAIAPIKey:          strings.TrimSpace(v.GetString("OPENAI_API_KEY")),
		OpenAIModel:           v.GetString("OPENAI_MODEL"),
		SeedAdminPassword:     v.GetString("SEED_ADMIN_PASSWORD"),
		SeedOperatorPassword:  v.GetString("SEED_OPERATOR_PASSWORD"),
		LogLevel:              v.GetString("LOG_LEVEL"),
		LogFormat:             v.GetString("LOG_FORMAT"),
		LogOutput:             v.GetString("LOG_OUTPUT"),
	}
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) LoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:  c.LogLevel,
		Format: c.LogFormat,
		Output: c.LogOutput,
	}
}
