package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	LLM      LLMConfig
	Search   SearchConfig
	Storage  StorageConfig
	Session  SessionConfig
	Ingest   IngestConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	RateLimitRPS   float64
	RateLimitBurst int
	CORSOrigins    []string
}

type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string // empty disables bearer auth
}

type LLMConfig struct {
	OpenAIKey         string
	AnthropicKey      string
	OllamaURL         string
	DefaultProvider   string
	DefaultModel      string
	EmbeddingProvider string // empty means DefaultProvider
	EmbeddingModel    string

	AzureEndpoint        string
	AzureKey             string
	AzureAPIVersion      string
	AzureDeployment      string
	AzureEmbedDeployment string
}

type SearchConfig struct {
	Backend        string // "azure" or "pgvector"
	Endpoint       string
	APIKey         string
	IndexName      string
	APIVersion     string
	SemanticConfig string
	EmbeddingDim   int
	Hybrid         bool // send a vector query alongside the semantic query
}

type StorageConfig struct {
	Backend     string // "azure" or "supabase"
	Account     string
	AccountKey  string
	Container   string
	Endpoint    string
	SupabaseURL string
	SupabaseKey string
	SASExpiry   time.Duration
}

type SessionConfig struct {
	Backend       string // "memory" or "redis"
	TTL           time.Duration
	SelectionMode string // "single" or "multi"
	CatalogPath   string
}

type IngestConfig struct {
	CSVPath     string
	BatchSize   int
	SampleQuery string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	rps, err := getEnvFloat("RATE_LIMIT_RPS", 100)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	burst, err := getEnvInt("RATE_LIMIT_BURST", 200)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 2)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	embedDim, err := getEnvInt("EMBED_DIM", 1536)
	if err != nil {
		return nil, fmt.Errorf("invalid EMBED_DIM: %w", err)
	}

	hybrid, err := getEnvBool("SEARCH_HYBRID", false)
	if err != nil {
		return nil, fmt.Errorf("invalid SEARCH_HYBRID: %w", err)
	}

	sasExpiry, err := getEnvDuration("SAS_EXPIRY", 60*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid SAS_EXPIRY: %w", err)
	}

	sessionTTL, err := getEnvDuration("SESSION_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}

	batchSize, err := getEnvInt("INGEST_BATCH_SIZE", 64)
	if err != nil {
		return nil, fmt.Errorf("invalid INGEST_BATCH_SIZE: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           port,
			RateLimitRPS:   rps,
			RateLimitBurst: burst,
			CORSOrigins:    getEnvList("CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			MaxConns: maxConns,
			MinConns: minConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		},
		LLM: LLMConfig{
			OpenAIKey:            getEnv("OPENAI_API_KEY", ""),
			AnthropicKey:         getEnv("ANTHROPIC_API_KEY", ""),
			OllamaURL:            getEnv("OLLAMA_URL", ""),
			DefaultProvider:      getEnv("LLM_DEFAULT_PROVIDER", "azure"),
			DefaultModel:         getEnv("LLM_DEFAULT_MODEL", "gpt-4o-mini"),
			EmbeddingProvider:    getEnv("LLM_EMBEDDING_PROVIDER", ""),
			EmbeddingModel:       getEnv("LLM_EMBEDDING_MODEL", "text-embedding-3-small"),
			AzureEndpoint:        getEnv("AZURE_OPENAI_ENDPOINT", ""),
			AzureKey:             getEnv("AZURE_OPENAI_API_KEY", ""),
			AzureAPIVersion:      getEnv("AZURE_OPENAI_API_VERSION", "2024-06-01"),
			AzureDeployment:      getEnv("AZURE_OPENAI_DEPLOYMENT", ""),
			AzureEmbedDeployment: getEnv("AZURE_OPENAI_EMBED_DEPLOYMENT", ""),
		},
		Search: SearchConfig{
			Backend:        getEnv("SEARCH_BACKEND", "azure"),
			Endpoint:       getEnv("AZURE_SEARCH_ENDPOINT", ""),
			APIKey:         getEnv("AZURE_SEARCH_API_KEY", ""),
			IndexName:      getEnv("AZURE_SEARCH_INDEX_NAME", "reviews"),
			APIVersion:     getEnv("AZURE_SEARCH_API_VERSION", "2024-07-01"),
			SemanticConfig: getEnv("AZURE_SEARCH_SEMANTIC_CONFIG", "sem-config"),
			EmbeddingDim:   embedDim,
			Hybrid:         hybrid,
		},
		Storage: StorageConfig{
			Backend:     getEnv("STORAGE_BACKEND", "azure"),
			Account:     getEnv("AZURE_STORAGE_ACCOUNT", ""),
			AccountKey:  getEnv("AZURE_STORAGE_KEY", ""),
			Container:   getEnv("AZURE_STORAGE_CONTAINER", ""),
			Endpoint:    getEnv("AZURE_STORAGE_ENDPOINT", ""),
			SupabaseURL: getEnv("SUPABASE_URL", ""),
			SupabaseKey: getEnv("SUPABASE_SERVICE_KEY", ""),
			SASExpiry:   sasExpiry,
		},
		Session: SessionConfig{
			Backend:       getEnv("SESSION_BACKEND", "memory"),
			TTL:           sessionTTL,
			SelectionMode: getEnv("SELECTION_MODE", "single"),
			CatalogPath:   getEnv("CATEGORY_CONFIG_PATH", ""),
		},
		Ingest: IngestConfig{
			CSVPath:     getEnv("CSV_PATH", ""),
			BatchSize:   batchSize,
			SampleQuery: getEnv("INGEST_SAMPLE_QUERY", ""),
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate reports the settings the selected backends cannot run without.
func (c *Config) Validate() error {
	var missing []string

	switch c.Search.Backend {
	case "azure":
		if c.Search.Endpoint == "" {
			missing = append(missing, "AZURE_SEARCH_ENDPOINT")
		}
		if c.Search.APIKey == "" {
			missing = append(missing, "AZURE_SEARCH_API_KEY")
		}
	case "pgvector":
		if c.Database.URL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown SEARCH_BACKEND %q", c.Search.Backend)
	}

	if c.LLM.DefaultProvider == "azure" {
		if c.LLM.AzureEndpoint == "" {
			missing = append(missing, "AZURE_OPENAI_ENDPOINT")
		}
		if c.LLM.AzureKey == "" {
			missing = append(missing, "AZURE_OPENAI_API_KEY")
		}
		if c.LLM.AzureDeployment == "" {
			missing = append(missing, "AZURE_OPENAI_DEPLOYMENT")
		}
	}

	switch c.Session.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.Session.Backend)
	}

	switch c.Session.SelectionMode {
	case "single", "multi":
	default:
		return fmt.Errorf("unknown SELECTION_MODE %q", c.Session.SelectionMode)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseBool(v)
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// getEnvDuration accepts Go durations ("90m") or bare minutes ("60").
func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Minute, nil
	}
	return time.ParseDuration(v)
}
