// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Provider names accepted by EMBED_PROVIDER and LLM_PROVIDER.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Config holds all configuration for icdrag.
type Config struct {
	Source SourceConfig
	// DataDir holds the corpus and vector artifacts.
	DataDir string

	Embed EmbedConfig
	LLM   LLMConfig

	OllamaURL string
	OpenAI    OpenAIConfig

	StrictAnswers bool
	DefaultTopK   int
	HTTPAddr      string

	Log LogConfig
}

// SourceConfig describes the semicolon source table.
type SourceConfig struct {
	Path       string
	Encoding   string
	CodeField  int
	TitleField int
	MinFields  int
}

// EmbedConfig selects the embedding backend.
type EmbedConfig struct {
	Provider  string
	Model     string
	BatchSize int
}

// LLMConfig selects the generation backend.
type LLMConfig struct {
	Provider string
	Model    string
	Timeout  time.Duration
	Format   string // Ollama "format"; "json" also enables JSON mode for OpenAI
}

// OpenAIConfig is shared by the OpenAI-compatible embed and chat adapters.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads envFile (if present) and then the environment.
// Variables already set in the environment take precedence over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{
		Source: SourceConfig{
			Path:       getEnv("ICD_SOURCE_PATH", "icd102019enMeta/icd102019syst_codes.txt"),
			Encoding:   getEnv("ICD_SOURCE_ENCODING", "latin1"),
			CodeField:  getEnvInt("ICD_CODE_FIELD", 5),
			TitleField: getEnvInt("ICD_TITLE_FIELD", 8),
			MinFields:  getEnvInt("ICD_MIN_FIELDS", 9),
		},
		DataDir: getEnv("ICD_DATA_DIR", "."),
		Embed: EmbedConfig{
			Provider:  strings.ToLower(getEnv("EMBED_PROVIDER", ProviderOllama)),
			Model:     getEnv("EMBED_MODEL", "all-minilm"),
			BatchSize: getEnvInt("EMBED_BATCH_SIZE", 64),
		},
		LLM: LLMConfig{
			Provider: strings.ToLower(getEnv("LLM_PROVIDER", ProviderOllama)),
			Model:    getEnv("LLM_MODEL", "deepseek-r1:1.5b"),
			Timeout:  getEnvDuration("LLM_TIMEOUT", 120*time.Second),
			Format:   os.Getenv("LLM_FORMAT"),
		},
		OllamaURL: strings.TrimRight(getEnv("OLLAMA_URL", "http://localhost:11434"), "/"),
		OpenAI: OpenAIConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
		},
		StrictAnswers: getEnvBool("ICD_STRICT_ANSWERS", true),
		DefaultTopK:   getEnvInt("ICD_DEFAULT_TOP_K", 10),
		HTTPAddr:      getEnv("HTTP_ADDR", ":8000"),
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks value ranges and provider requirements.
func (c *Config) Validate() error {
	switch c.Source.Encoding {
	case "latin1", "utf8":
	default:
		return fmt.Errorf("ICD_SOURCE_ENCODING must be latin1 or utf8, got %q", c.Source.Encoding)
	}
	if c.Source.CodeField < 0 || c.Source.TitleField < 0 {
		return fmt.Errorf("ICD_CODE_FIELD and ICD_TITLE_FIELD must be >= 0")
	}
	if c.Source.MinFields <= c.Source.CodeField || c.Source.MinFields <= c.Source.TitleField {
		return fmt.Errorf("ICD_MIN_FIELDS (%d) must exceed both field indexes", c.Source.MinFields)
	}
	if c.Embed.BatchSize <= 0 {
		return fmt.Errorf("EMBED_BATCH_SIZE must be positive, got %d", c.Embed.BatchSize)
	}
	if c.DefaultTopK <= 0 {
		return fmt.Errorf("ICD_DEFAULT_TOP_K must be positive, got %d", c.DefaultTopK)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive, got %v", c.LLM.Timeout)
	}
	for name, p := range map[string]string{"EMBED_PROVIDER": c.Embed.Provider, "LLM_PROVIDER": c.LLM.Provider} {
		switch p {
		case ProviderOllama:
		case ProviderOpenAI:
			if c.OpenAI.APIKey == "" {
				return fmt.Errorf("%s=openai requires OPENAI_API_KEY", name)
			}
		default:
			return fmt.Errorf("%s must be ollama or openai, got %q", name, p)
		}
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.Log.Format)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
