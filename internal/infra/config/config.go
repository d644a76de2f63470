package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config carries every runtime knob of the service. Environment variables
// are the base layer; a YAML file named by RAG_CONFIG_FILE overrides them.
type Config struct {
	Env  string `yaml:"env"`
	Port string `yaml:"port"`

	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`

	OllamaURL       string `yaml:"ollama_url"`
	EmbeddingModel  string `yaml:"embedding_model"`
	EmbeddingDim    int    `yaml:"embedding_dim"`
	GenerationModel string `yaml:"generation_model"`
	RerankerURL     string `yaml:"reranker_url"`
	RerankerModel   string `yaml:"reranker_model"`

	AnswerMaxTokens int     `yaml:"answer_max_tokens"`
	DefaultK        int     `yaml:"default_k"`
	EmbedRPS        float64 `yaml:"embed_rps"`
	CacheSize       int     `yaml:"cache_size"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// Load reads environment variables and applies the optional YAML overlay.
func Load() (*Config, error) {
	cfg := &Config{
		Env:             getEnv("ENV", "development"),
		Port:            getEnv("PORT", "9020"),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          getEnv("DB_USER", "rag_user"),
		DBPassword:      getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "rag_password"),
		DBName:          getEnv("DB_NAME", "rag_db"),
		OllamaURL:       getEnv("OLLAMA_URL", "http://localhost:11434"),
		EmbeddingModel:  getEnv("EMBEDDING_MODEL", "embeddinggemma"),
		EmbeddingDim:    getEnvInt("EMBEDDING_DIM", 768),
		GenerationModel: getEnv("GENERATION_MODEL", "gemma3"),
		RerankerURL:     getEnv("RERANKER_URL", "http://localhost:8001"),
		RerankerModel:   getEnv("RERANKER_MODEL", "bge-reranker-v2-m3"),
		AnswerMaxTokens: getEnvInt("RAG_MAX_TOKENS", 768),
		DefaultK:        getEnvInt("RAG_DEFAULT_K", 5),
		EmbedRPS:        getEnvFloat("RAG_EMBED_RPS", 4),
		CacheSize:       getEnvInt("RAG_CACHE_SIZE", 128),
		CacheTTLSeconds: getEnvInt("RAG_CACHE_TTL_SECONDS", 300),
	}

	if path, ok := os.LookupEnv("RAG_CONFIG_FILE"); ok && path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return cfg, nil
}

// DSN assembles the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
