package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	DB        DBConfig        `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Ranking   RankingConfig   `mapstructure:"ranking"`
	Generate  GenerateConfig  `mapstructure:"generate"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	LogLevel  string          `mapstructure:"log_level"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// DBConfig configures the Postgres connection.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// RedisConfig configures the Redis connection.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	URL      string `mapstructure:"url"`
}

// EmbeddingConfig configures the embedding provider client.
type EmbeddingConfig struct {
	APIURL     string        `mapstructure:"api_url"`
	APIKey     string        `mapstructure:"api_key"`
	Model      string        `mapstructure:"model"`
	Dimensions int           `mapstructure:"dimensions"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Retries    int           `mapstructure:"retries"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
}

// LLMConfig configures the text-generation provider client.
type LLMConfig struct {
	APIURL      string        `mapstructure:"api_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Retries     int           `mapstructure:"retries"`
	RatePerSec  float64       `mapstructure:"rate_per_sec"`
}

// RetrievalConfig bounds the vector index query.
type RetrievalConfig struct {
	OverfetchFactor int     `mapstructure:"overfetch_factor"`
	MinK            int     `mapstructure:"min_k"`
	MinSimilarity   float64 `mapstructure:"min_similarity"`
}

// RankingConfig holds the composite score weights.
type RankingConfig struct {
	SimilarityWeight float64 `mapstructure:"similarity_weight"`
	OverlapWeight    float64 `mapstructure:"overlap_weight"`
	MissingPenalty   float64 `mapstructure:"missing_penalty"`
}

// GenerateConfig controls the generation fan-out.
type GenerateConfig struct {
	MaxConcurrent     int    `mapstructure:"max_concurrent"`
	FailurePolicy     string `mapstructure:"failure_policy"` // "drop" or "fallback"
	AllowPartial      bool   `mapstructure:"allow_partial"`
	InstructionBudget int    `mapstructure:"instruction_budget"`
	MaxMissingPrompt  int    `mapstructure:"max_missing_prompt"`
}

// AuthConfig configures service-token auth for ingestion endpoints.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// RateLimitConfig configures request rate limiting on the suggest endpoint.
type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Limit   int           `mapstructure:"limit"`
	Window  time.Duration `mapstructure:"window"`
}

// LoadConfig reads configuration from the environment (and an optional .env
// file) with defaults for everything that is tunable, then validates it.
func LoadConfig() (*Config, error) {
	// .env is optional; real deployments inject environment variables.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FRIDGECHEF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string]string{
		"db.host":            "DB_HOST",
		"db.port":            "DB_PORT",
		"db.user":            "DB_USER",
		"db.password":        "DB_PASSWORD",
		"db.name":            "DB_NAME",
		"db.ssl_mode":        "DB_SSL_MODE",
		"redis.host":         "REDIS_HOST",
		"redis.port":         "REDIS_PORT",
		"redis.password":     "REDIS_PASSWORD",
		"redis.url":          "REDIS_URL",
		"embedding.api_key":  "EMBEDDING_API_KEY",
		"embedding.api_url":  "EMBEDDING_API_URL",
		"embedding.model":    "EMBEDDING_MODEL",
		"llm.api_key":        "LLM_API_KEY",
		"llm.api_url":        "LLM_API_URL",
		"llm.model":          "LLM_MODEL",
		"auth.jwt_secret":    "JWT_SECRET",
		"server.port":        "SERVER_PORT",
		"server.host":        "SERVER_HOST",
		"log_level":          "LOG_LEVEL",
		"rate_limit.enabled": "RATE_LIMIT_ENABLED",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.request_timeout", "45s")
	v.SetDefault("server.allowed_origins", []string{})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.ssl_mode", "disable")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("embedding.api_url", "https://api.openai.com/v1/embeddings")
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.dimensions", 1536)
	v.SetDefault("embedding.timeout", "15s")
	v.SetDefault("embedding.retries", 3)
	v.SetDefault("embedding.cache_ttl", "24h")

	v.SetDefault("llm.api_url", "https://api.deepseek.com/v1/chat/completions")
	v.SetDefault("llm.model", "deepseek-chat")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.retries", 3)
	v.SetDefault("llm.rate_per_sec", 5)

	v.SetDefault("retrieval.overfetch_factor", 3)
	v.SetDefault("retrieval.min_k", 10)
	v.SetDefault("retrieval.min_similarity", 0.4)

	v.SetDefault("ranking.similarity_weight", 0.5)
	v.SetDefault("ranking.overlap_weight", 0.4)
	v.SetDefault("ranking.missing_penalty", 0.1)

	v.SetDefault("generate.max_concurrent", 5)
	v.SetDefault("generate.failure_policy", "fallback")
	v.SetDefault("generate.allow_partial", false)
	v.SetDefault("generate.instruction_budget", 2000)
	v.SetDefault("generate.max_missing_prompt", 3)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.limit", 30)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("log_level", "info")
}

// ValidateConfig checks that the configuration is internally consistent.
func ValidateConfig(cfg *Config) error {
	if cfg.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if cfg.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding dimensions must be positive")
	}
	if cfg.Retrieval.OverfetchFactor < 1 {
		return fmt.Errorf("overfetch factor must be at least 1")
	}
	if cfg.Retrieval.MinK <= 0 {
		return fmt.Errorf("retrieval min_k must be positive")
	}
	if cfg.Ranking.SimilarityWeight < 0 || cfg.Ranking.OverlapWeight < 0 || cfg.Ranking.MissingPenalty < 0 {
		return fmt.Errorf("ranking weights must be non-negative")
	}
	if cfg.Generate.MaxConcurrent <= 0 {
		return fmt.Errorf("generate max_concurrent must be positive")
	}
	switch cfg.Generate.FailurePolicy {
	case "drop", "fallback":
	default:
		return fmt.Errorf("generate failure_policy must be %q or %q, got %q", "drop", "fallback", cfg.Generate.FailurePolicy)
	}
	if cfg.RateLimit.Enabled && cfg.RateLimit.Limit <= 0 {
		return fmt.Errorf("rate limit must be positive when enabled")
	}
	return nil
}
