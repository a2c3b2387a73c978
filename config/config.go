package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ProjectDir   string `json:"project_dir"`
	LogDir       string `json:"log_dir"`
	ReportsDir   string `json:"reports_dir"`
	DataDir      string `json:"data_dir"`
	DataCacheDir string `json:"data_cache_dir"`

	LLMProvider    string `json:"llm_provider"`
	OpenAIAPIKey   string `json:"openai_api_key"`
	OpenAIBaseURL  string `json:"openai_base_url"`
	OpenAIModel    string `json:"openai_model"`
	DeepSeekAPIKey string `json:"deepseek_api_key"`
	DeepSeekModel  string `json:"deepseek_model"`
	MaxTokens      int    `json:"max_tokens"`

	// Data provider API keys
	FMPAPIKey    string `json:"fmp_api_key"`
	TavilyAPIKey string `json:"tavily_api_key"`

	// Session bounds. A run is aborted once either is exceeded.
	MaxIterations  int           `json:"max_iterations"`
	SessionTimeout time.Duration `json:"session_timeout"`

	CacheEnabled bool `json:"cache_enabled"`
	Debug        bool `json:"debug"`

	// Eino Debug configuration
	EinoDebugEnabled bool `json:"eino_debug_enabled"`
	EinoDebugPort    int  `json:"eino_debug_port"`
}

func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()
	cfg := DefaultConfigWithRoot(currentDir)

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg.loadFromEnv()
	return cfg
}

// DefaultConfigWithRoot returns the defaults with every directory rooted
// under root, without consulting the environment.
func DefaultConfigWithRoot(root string) *Config {
	return &Config{
		ProjectDir:   root,
		LogDir:       filepath.Join(root, "logs"),
		ReportsDir:   filepath.Join(root, "reports"),
		DataDir:      filepath.Join(root, "data"),
		DataCacheDir: filepath.Join(root, "data", "cache"),

		LLMProvider:   "openai",
		OpenAIModel:   "gpt-5-mini",
		DeepSeekModel: "deepseek-chat",
		MaxTokens:     8192,

		MaxIterations:  10,
		SessionTimeout: 10 * time.Minute,

		CacheEnabled: true,
		Debug:        false,

		EinoDebugEnabled: false,
		EinoDebugPort:    52538,
	}
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("PROJECT_DIR"); val != "" {
		c.ProjectDir = val
	}
	if val := os.Getenv("EQUITYGO_LOG_DIR"); val != "" {
		c.LogDir = val
	}
	if val := os.Getenv("EQUITYGO_REPORTS_DIR"); val != "" {
		c.ReportsDir = val
	}
	if val := os.Getenv("EQUITYGO_DATA_DIR"); val != "" {
		c.DataDir = val
	}
	if val := os.Getenv("DATA_CACHE_DIR"); val != "" {
		c.DataCacheDir = val
	}

	if val := os.Getenv("LLM_PROVIDER"); val != "" {
		c.LLMProvider = strings.ToLower(val)
	}
	if val := os.Getenv("OPENAI_API_KEY"); val != "" {
		c.OpenAIAPIKey = val
	}
	if val := os.Getenv("OPENAI_BASE_URL"); val != "" {
		c.OpenAIBaseURL = val
	}
	if val := os.Getenv("OPENAI_MODEL"); val != "" {
		c.OpenAIModel = val
	}
	if val := os.Getenv("DEEPSEEK_API_KEY"); val != "" {
		c.DeepSeekAPIKey = val
	}
	if val := os.Getenv("DEEPSEEK_MODEL"); val != "" {
		c.DeepSeekModel = val
	}
	if val := os.Getenv("LLM_MAX_TOKENS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.MaxTokens = v
		}
	}

	if val := os.Getenv("FMP_API_KEY"); val != "" {
		c.FMPAPIKey = val
	}
	if val := os.Getenv("TAVILY_API_KEY"); val != "" {
		c.TavilyAPIKey = val
	}

	if val := os.Getenv("EQUITYGO_MAX_ITERATIONS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.MaxIterations = v
		}
	}
	if val := os.Getenv("EQUITYGO_SESSION_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.SessionTimeout = d
		}
	}

	if val := os.Getenv("CACHE_ENABLED"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.CacheEnabled = enabled
		}
	}
	if val := os.Getenv("EQUITYGO_DEBUG"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Debug = enabled
		}
	}

	if val := os.Getenv("EINO_DEBUG_ENABLED"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.EinoDebugEnabled = enabled
		}
	}
	if val := os.Getenv("EINO_DEBUG_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.EinoDebugPort = port
		}
	}
}

// Validate checks structural settings. Credentials are not checked here;
// whether a key is required depends on the pipeline being run.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case "openai", "deepseek":
	default:
		return fmt.Errorf("unsupported llm provider %q (want openai or deepseek)", c.LLMProvider)
	}

	if c.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be at least 1, got %d", c.MaxIterations)
	}
	if c.SessionTimeout <= 0 {
		return fmt.Errorf("session_timeout must be positive, got %s", c.SessionTimeout)
	}
	return nil
}

// LLMAPIKey returns the credential for the active provider.
func (c *Config) LLMAPIKey() string {
	if c.LLMProvider == "deepseek" {
		return c.DeepSeekAPIKey
	}
	return c.OpenAIAPIKey
}

// LLMModel returns the model name for the active provider.
func (c *Config) LLMModel() string {
	if c.LLMProvider == "deepseek" {
		return c.DeepSeekModel
	}
	return c.OpenAIModel
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.ProjectDir, c.LogDir, c.ReportsDir, c.DataDir, c.DataCacheDir}
	for _, dir := range dirs {
		path := strings.TrimSpace(dir)
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	return nil
}
