package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	IndexBackendDir   = "dir"
	IndexBackendMySQL = "mysql"

	EmbeddingProviderHashing = "hashing"
	EmbeddingProviderOpenAI  = "openai"
)

var (
	ErrMissingLLMKey    = errors.New("llm api key is not set")
	ErrMissingJWTSecret = errors.New("auth jwt_secret is not set")
)

type Config struct {
	App       AppConfig       `toml:"app"`
	Log       LogConfig       `toml:"log"`
	Paths     PathsConfig     `toml:"paths"`
	Chunk     ChunkConfig     `toml:"chunk"`
	Index     IndexConfig     `toml:"index"`
	Embedding EmbeddingConfig `toml:"embedding"`
	LLM       LLMConfig       `toml:"llm"`
	Auth      AuthConfig      `toml:"auth"`
	MySQL     MySQLConfig     `toml:"mysql"`
	Redis     RedisConfig     `toml:"redis"`
	RabbitMQ  RabbitMQConfig  `toml:"rabbitmq"`
}

type AppConfig struct {
	Name    string `toml:"name"`
	Env     string `toml:"env"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	GinMode string `toml:"gin_mode"`
	WebDir  string `toml:"web_dir"`
}

type LogConfig struct {
	Level string `toml:"level"`
	JSON  bool   `toml:"json"`
}

type PathsConfig struct {
	// DataDir bounds the documents that queued index jobs may read.
	DataDir   string `toml:"data_dir"`
	Document  string `toml:"document"`
	ChunkFile string `toml:"chunk_file"`
	IndexDir  string `toml:"index_dir"`
}

type ChunkConfig struct {
	Size    int `toml:"size"`
	Overlap int `toml:"overlap"`
}

type IndexConfig struct {
	Backend string `toml:"backend"`
	TopK    int    `toml:"top_k"`
}

type EmbeddingConfig struct {
	Provider  string `toml:"provider"`
	Model     string `toml:"model"`
	Dimension int    `toml:"dimension"`
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	BatchSize int    `toml:"batch_size"`
}

type LLMConfig struct {
	BaseURL        string  `toml:"base_url"`
	APIKey         string  `toml:"api_key"`
	Model          string  `toml:"model"`
	Temperature    float64 `toml:"temperature"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

type AuthConfig struct {
	JWTSecret       string `toml:"jwt_secret"`
	JWTExpireMinute int    `toml:"jwt_expire_minute"`
	// AdminToken guards index jobs and engine reloads. Empty disables them.
	AdminToken string `toml:"admin_token"`
}

type MySQLConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	DB       string `toml:"db"`
	Params   string `toml:"params"`
}

type RedisConfig struct {
	Enabled                  bool   `toml:"enabled"`
	Addr                     string `toml:"addr"`
	Password                 string `toml:"password"`
	DB                       int    `toml:"db"`
	EmbeddingCacheTTLSeconds int    `toml:"embedding_cache_ttl_seconds"`
}

type RabbitMQConfig struct {
	URL           string `toml:"url"`
	IndexJobQueue string `toml:"index_job_queue"`
}

func Load() (*Config, error) {
	return LoadFile(getEnv("CONFIG_FILE", "configs/config.toml"))
}

// LoadFile applies defaults, then the TOML file at path if it exists, then env overrides.
func LoadFile(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("decode config file failed: %w", err)
			}
		}
	}

	overrideByEnv(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		c.MySQL.User,
		c.MySQL.Password,
		c.MySQL.Host,
		c.MySQL.Port,
		c.MySQL.DB,
		c.MySQL.Params,
	)
}

func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

func (c *Config) EmbeddingCacheTTL() time.Duration {
	return time.Duration(c.Redis.EmbeddingCacheTTLSeconds) * time.Second
}

func (c *Config) JWTExpiration() time.Duration {
	return time.Duration(c.Auth.JWTExpireMinute) * time.Minute
}

// ValidateLLM reports whether the generation model can be called at all.
func (c *Config) ValidateLLM() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return ErrMissingLLMKey
	}
	return nil
}

func (c *Config) ValidateServer() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("%w: set JWT_SECRET before starting the server", ErrMissingJWTSecret)
	}
	return nil
}

func (c *Config) validate() error {
	if c.Chunk.Size <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.Chunk.Size)
	}
	if c.Chunk.Overlap < 0 || c.Chunk.Overlap >= c.Chunk.Size {
		return fmt.Errorf("chunk overlap must be in [0, %d), got %d", c.Chunk.Size, c.Chunk.Overlap)
	}
	if c.Index.TopK <= 0 {
		return fmt.Errorf("index top_k must be positive, got %d", c.Index.TopK)
	}
	switch c.Index.Backend {
	case IndexBackendDir, IndexBackendMySQL:
	default:
		return fmt.Errorf("unknown index backend %q", c.Index.Backend)
	}
	switch c.Embedding.Provider {
	case EmbeddingProviderHashing, EmbeddingProviderOpenAI:
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:    "gopherai-rag",
			Env:     "dev",
			Host:    "0.0.0.0",
			Port:    8080,
			GinMode: "debug",
			WebDir:  "web",
		},
		Log: LogConfig{
			Level: "info",
		},
		Paths: PathsConfig{
			DataDir:   "data",
			Document:  "data/document.pdf",
			ChunkFile: "outputs/chunks.json",
			IndexDir:  "outputs/index",
		},
		Chunk: ChunkConfig{
			Size:    1000,
			Overlap: 200,
		},
		Index: IndexConfig{
			Backend: IndexBackendDir,
			TopK:    3,
		},
		Embedding: EmbeddingConfig{
			Provider:  EmbeddingProviderHashing,
			Model:     "text-embedding-3-small",
			Dimension: 384,
			BaseURL:   "https://api.openai.com/v1",
			BatchSize: 10,
		},
		LLM: LLMConfig{
			BaseURL:        "https://generativelanguage.googleapis.com/v1beta/openai/",
			Model:          "gemini-1.5-flash",
			Temperature:    0.1,
			TimeoutSeconds: 60,
		},
		Auth: AuthConfig{
			JWTExpireMinute: 120,
		},
		MySQL: MySQLConfig{
			Host:   "127.0.0.1",
			Port:   3306,
			User:   "root",
			DB:     "gopherai_rag",
			Params: "parseTime=true&loc=Local&charset=utf8mb4",
		},
		Redis: RedisConfig{
			Addr:                     "127.0.0.1:6379",
			EmbeddingCacheTTLSeconds: 3600,
		},
		RabbitMQ: RabbitMQConfig{
			IndexJobQueue: "rag.index.build",
		},
	}
}

func overrideByEnv(cfg *Config) {
	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Host = getEnv("APP_HOST", cfg.App.Host)
	cfg.App.Port = getEnvAsInt("APP_PORT", cfg.App.Port)
	cfg.App.GinMode = getEnv("GIN_MODE", cfg.App.GinMode)
	cfg.App.WebDir = getEnv("APP_WEB_DIR", cfg.App.WebDir)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.JSON = getEnvAsBool("LOG_JSON", cfg.Log.JSON)

	cfg.Paths.DataDir = getEnv("RAG_DATA_DIR", cfg.Paths.DataDir)
	cfg.Paths.Document = getEnv("RAG_DOCUMENT", cfg.Paths.Document)
	cfg.Paths.ChunkFile = getEnv("RAG_CHUNK_FILE", cfg.Paths.ChunkFile)
	cfg.Paths.IndexDir = getEnv("RAG_INDEX_DIR", cfg.Paths.IndexDir)

	cfg.Chunk.Size = getEnvAsInt("CHUNK_SIZE", cfg.Chunk.Size)
	cfg.Chunk.Overlap = getEnvAsInt("CHUNK_OVERLAP", cfg.Chunk.Overlap)

	cfg.Index.Backend = getEnv("INDEX_BACKEND", cfg.Index.Backend)
	cfg.Index.TopK = getEnvAsInt("INDEX_TOP_K", cfg.Index.TopK)

	cfg.Embedding.Provider = getEnv("EMBEDDING_PROVIDER", cfg.Embedding.Provider)
	cfg.Embedding.Model = getEnv("EMBEDDING_MODEL", cfg.Embedding.Model)
	cfg.Embedding.Dimension = getEnvAsInt("EMBEDDING_DIMENSION", cfg.Embedding.Dimension)
	cfg.Embedding.BaseURL = getEnv("EMBEDDING_BASE_URL", cfg.Embedding.BaseURL)
	cfg.Embedding.APIKey = getEnv("EMBEDDING_API_KEY", cfg.Embedding.APIKey)
	cfg.Embedding.BatchSize = getEnvAsInt("EMBEDDING_BATCH_SIZE", cfg.Embedding.BatchSize)

	cfg.LLM.BaseURL = getEnv("LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.APIKey = getEnv("GOOGLE_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.APIKey = getEnv("LLM_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.Model = getEnv("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.Temperature = getEnvAsFloat("LLM_TEMPERATURE", cfg.LLM.Temperature)
	cfg.LLM.TimeoutSeconds = getEnvAsInt("LLM_TIMEOUT_SECONDS", cfg.LLM.TimeoutSeconds)

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.JWTExpireMinute = getEnvAsInt("JWT_EXPIRE_MINUTE", cfg.Auth.JWTExpireMinute)
	cfg.Auth.AdminToken = getEnv("ADMIN_TOKEN", cfg.Auth.AdminToken)

	cfg.MySQL.Host = getEnv("MYSQL_HOST", cfg.MySQL.Host)
	cfg.MySQL.Port = getEnvAsInt("MYSQL_PORT", cfg.MySQL.Port)
	cfg.MySQL.User = getEnv("MYSQL_USER", cfg.MySQL.User)
	cfg.MySQL.Password = getEnv("MYSQL_PASSWORD", cfg.MySQL.Password)
	cfg.MySQL.DB = getEnv("MYSQL_DB", cfg.MySQL.DB)
	cfg.MySQL.Params = getEnv("MYSQL_PARAMS", cfg.MySQL.Params)

	cfg.Redis.Enabled = getEnvAsBool("REDIS_ENABLED", cfg.Redis.Enabled)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.EmbeddingCacheTTLSeconds = getEnvAsInt("REDIS_EMBEDDING_CACHE_TTL_SECONDS", cfg.Redis.EmbeddingCacheTTLSeconds)

	cfg.RabbitMQ.URL = getEnv("RABBITMQ_URL", cfg.RabbitMQ.URL)
	cfg.RabbitMQ.IndexJobQueue = getEnv("RABBITMQ_INDEX_JOB_QUEUE", cfg.RabbitMQ.IndexJobQueue)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
