package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	pkgRetry "github.com/futig/rag-assistant/internal/pkg/retry"
	"github.com/joho/godotenv"
)

// Store backends
const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"
)

// Embedding providers
const (
	EmbeddingProviderOpenAI = "openai"
	EmbeddingProviderOllama = "ollama"
	EmbeddingProviderHash   = "hash"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR" envDefault:":8080"`

	// Storage backends
	StoreBackend   string `env:"STORE_BACKEND" envDefault:"postgres"`
	StorageDir     string `env:"STORAGE_DIR" envDefault:"./data/uploads"`
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"file://internal/repository/migrations"`

	// Database configuration
	DatabaseURL         string        `env:"DATABASE_URL"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	FileUploadCfg FileUploadConfig `envPrefix:"FILE_UPLOAD_"`
	ChunkingCfg   ChunkingConfig   `envPrefix:"CHUNK_"`
	EmbeddingCfg  EmbeddingConfig  `envPrefix:"EMBEDDING_"`
	LLMCfg        LLMConfig        `envPrefix:"LLM_"`
	SearchCfg     SearchConfig     `envPrefix:"SEARCH_"`

	DocumentCacheTTL time.Duration `env:"DOCUMENT_CACHE_TTL" envDefault:"30s"`
	SystemPromptFile string        `env:"SYSTEM_PROMPT_FILE" envDefault:"internal/config/system_prompt.txt"`
	UnidocLicenseKey string        `env:"UNIDOC_LICENSE_KEY"`

	// Loaded from SystemPromptFile, empty means the built-in prompt
	SystemPrompt string

	// Environment (set from flag, not from env var)
	Environment string
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"60s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"60s"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL"`
}

// FileUploadConfig holds file upload limits
type FileUploadConfig struct {
	MaxFileSize   int64 `env:"MAX_FILE_SIZE" envDefault:"20971520"`   // 20 MiB
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"33554432"` // 32 MiB
}

type ChunkingConfig struct {
	Size    int `env:"SIZE" envDefault:"1000"`
	Overlap int `env:"OVERLAP" envDefault:"200"`
}

type EmbeddingConfig struct {
	HTTPClientConfig
	Provider      string               `env:"PROVIDER" envDefault:"hash"`
	Model         string               `env:"MODEL" envDefault:"text-embedding-3-small"`
	Dimensions    int                  `env:"DIMENSIONS" envDefault:"384"`
	BatchSize     int                  `env:"BATCH_SIZE" envDefault:"64"`
	AllowFallback bool                 `env:"ALLOW_FALLBACK" envDefault:"true"`
	CacheTTL      time.Duration        `env:"CACHE_TTL" envDefault:"10m"`
	Retry         pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type LLMConfig struct {
	HTTPClientConfig
	Model          string               `env:"MODEL" envDefault:"llama-3.1-8b-instant"`
	Temperature    float64              `env:"TEMPERATURE" envDefault:"0.2"`
	MaxTokens      int                  `env:"MAX_TOKENS" envDefault:"1024"`
	RateLimitRPS   float64              `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int                  `env:"RATE_LIMIT_BURST" envDefault:"5"`
	Retry          pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type SearchConfig struct {
	MatchCount int     `env:"MATCH_COUNT" envDefault:"10"`
	Threshold  float64 `env:"THRESHOLD" envDefault:"0"`
	TopK       int     `env:"TOP_K" envDefault:"3"`
}

const defaultLLMServiceURL = "https://api.groq.com/openai/v1"

var defaultEmbeddingServiceURLs = map[string]string{
	EmbeddingProviderOpenAI: "https://api.openai.com/v1",
	EmbeddingProviderOllama: "http://localhost:11434",
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg, err := Parse()
	if err != nil {
		return nil, err
	}
	cfg.Environment = *envFlag

	if err := loadSystemPrompt(cfg); err != nil {
		return nil, fmt.Errorf("load system prompt: %w", err)
	}

	return cfg, nil
}

// Parse reads the configuration from the process environment and validates it.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	cfg.StoreBackend = strings.ToLower(cfg.StoreBackend)
	cfg.EmbeddingCfg.Provider = strings.ToLower(cfg.EmbeddingCfg.Provider)

	if cfg.LLMCfg.Url == "" {
		cfg.LLMCfg.Url = defaultLLMServiceURL
	}
	if cfg.EmbeddingCfg.Url == "" {
		cfg.EmbeddingCfg.Url = defaultEmbeddingServiceURLs[cfg.EmbeddingCfg.Provider]
	}
}

func validateConfig(cfg *Config) error {
	var errs []string

	switch cfg.StoreBackend {
	case StoreBackendPostgres:
		if cfg.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	case StoreBackendMemory:
	default:
		errs = append(errs, fmt.Sprintf("STORE_BACKEND must be postgres or memory, got %q", cfg.StoreBackend))
	}

	// Validate Database configuration
	if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns))
	}

	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		errs = append(errs, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns))
	}

	if cfg.ChunkingCfg.Size <= 0 || cfg.ChunkingCfg.Overlap < 0 || cfg.ChunkingCfg.Size <= cfg.ChunkingCfg.Overlap {
		errs = append(errs, fmt.Sprintf("CHUNK_SIZE (%d) must be positive and greater than CHUNK_OVERLAP (%d)", cfg.ChunkingCfg.Size, cfg.ChunkingCfg.Overlap))
	}

	switch cfg.EmbeddingCfg.Provider {
	case EmbeddingProviderOpenAI, EmbeddingProviderOllama:
		if cfg.EmbeddingCfg.Model == "" {
			errs = append(errs, "EMBEDDING_MODEL is required for remote embedding providers")
		}
	case EmbeddingProviderHash:
	default:
		errs = append(errs, fmt.Sprintf("EMBEDDING_PROVIDER must be openai, ollama or hash, got %q", cfg.EmbeddingCfg.Provider))
	}

	if cfg.EmbeddingCfg.Dimensions < 8 || cfg.EmbeddingCfg.Dimensions > 4096 {
		errs = append(errs, fmt.Sprintf("EMBEDDING_DIMENSIONS must be between 8 and 4096, got %d", cfg.EmbeddingCfg.Dimensions))
	}

	if cfg.EmbeddingCfg.BatchSize < 1 {
		errs = append(errs, fmt.Sprintf("EMBEDDING_BATCH_SIZE must be positive, got %d", cfg.EmbeddingCfg.BatchSize))
	}

	if cfg.LLMCfg.Model == "" {
		errs = append(errs, "LLM_MODEL must not be empty")
	}

	if cfg.LLMCfg.RateLimitRPS < 0 || cfg.LLMCfg.RateLimitBurst < 1 {
		errs = append(errs, "LLM_RATE_LIMIT_RPS must not be negative and LLM_RATE_LIMIT_BURST must be positive")
	}

	if cfg.SearchCfg.MatchCount < 1 || cfg.SearchCfg.TopK < 1 {
		errs = append(errs, fmt.Sprintf("SEARCH_MATCH_COUNT (%d) and SEARCH_TOP_K (%d) must be positive", cfg.SearchCfg.MatchCount, cfg.SearchCfg.TopK))
	}

	if cfg.SearchCfg.Threshold < -1 || cfg.SearchCfg.Threshold > 1 {
		errs = append(errs, fmt.Sprintf("SEARCH_THRESHOLD must be between -1 and 1, got %v", cfg.SearchCfg.Threshold))
	}

	if cfg.FileUploadCfg.MaxFileSize <= 0 || cfg.FileUploadCfg.MaxUploadSize < cfg.FileUploadCfg.MaxFileSize {
		errs = append(errs, "FILE_UPLOAD_MAX_UPLOAD_SIZE must be at least FILE_UPLOAD_MAX_FILE_SIZE and both positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func loadSystemPrompt(cfg *Config) error {
	if cfg.SystemPromptFile == "" {
		return nil
	}

	data, err := os.ReadFile(cfg.SystemPromptFile)
	if errors.Is(err, os.ErrNotExist) {
		fmt.Printf("Warning: system prompt file not found at %s, using default prompt\n", cfg.SystemPromptFile)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read system prompt file: %w", err)
	}

	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return fmt.Errorf("system prompt file is empty: %s", cfg.SystemPromptFile)
	}

	cfg.SystemPrompt = prompt
	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
