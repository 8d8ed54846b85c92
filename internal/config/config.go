package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr           string          `yaml:"addr"`
	Environment    string          `yaml:"environment"`
	JWTSecret      string          `yaml:"jwt_secret"`
	APITimeout     time.Duration   `yaml:"timeout"`
	DatabasePath   string          `yaml:"database_path"`
	TokenDuration  time.Duration   `yaml:"token_duration"`
	AllowedOrigins []string        `yaml:"allowed_origins"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
	LLM            LLMConfig       `yaml:"llm"`
	Voice          VoiceConfig     `yaml:"voice"`
}

type RateLimitConfig struct {
	Window       time.Duration `yaml:"window"`
	AuthLimit    int           `yaml:"auth_limit"`
	GeneralLimit int           `yaml:"general_limit"`
}

type LLMConfig struct {
	Provider string       `yaml:"provider"`
	Gemini   GeminiConfig `yaml:"gemini"`
	Ollama   OllamaConfig `yaml:"ollama"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type OllamaConfig struct {
	BaseURL                 string        `yaml:"base_url"`
	Model                   string        `yaml:"model"`
	Timeout                 time.Duration `yaml:"timeout"`
	Retries                 int           `yaml:"retries"`
	Backoff                 time.Duration `yaml:"backoff"`
	CircuitFailureThreshold int           `yaml:"circuit_failure_threshold"`
	CircuitReset            time.Duration `yaml:"circuit_reset"`
}

// VoiceConfig holds the credentials the session controller hands to the
// external voice agent.
type VoiceConfig struct {
	Token      string `yaml:"token"`
	WorkflowID string `yaml:"workflow_id"`
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Addr:          getEnv("VOXPREP_ADDR", ":4000"),
		Environment:   getEnv("VOXPREP_ENV", "development"),
		JWTSecret:     os.Getenv("VOXPREP_JWT_SECRET"),
		APITimeout:    15 * time.Second,
		DatabasePath:  getEnv("VOXPREP_DATABASE_PATH", "voxprep.db"),
		TokenDuration: 7 * 24 * time.Hour,
		RateLimit: RateLimitConfig{
			Window:    15 * time.Minute,
			AuthLimit: 5,
		},
		LLM: LLMConfig{
			Provider: getEnv("VOXPREP_LLM_PROVIDER", "gemini"),
			Gemini: GeminiConfig{
				APIKey: os.Getenv("GEMINI_API_KEY"),
				Model:  getEnv("GEMINI_MODEL", "gemini-2.0-flash-001"),
			},
			Ollama: OllamaConfig{
				BaseURL:                 getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
				Model:                   os.Getenv("OLLAMA_MODEL"),
				Timeout:                 60 * time.Second,
				Retries:                 1,
				Backoff:                 time.Second,
				CircuitFailureThreshold: 5,
				CircuitReset:            30 * time.Second,
			},
		},
		Voice: VoiceConfig{
			Token:      os.Getenv("VAPI_WEB_TOKEN"),
			WorkflowID: os.Getenv("VAPI_WORKFLOW_ID"),
		},
	}
	if v := os.Getenv("VOXPREP_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitOrigins(v)
	}

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.RateLimit.GeneralLimit == 0 {
		if cfg.IsProduction() {
			cfg.RateLimit.GeneralLimit = 100
		} else {
			cfg.RateLimit.GeneralLimit = 1000
		}
	}

	return cfg, nil
}

// IsProduction reports whether the deployment mode flag is set to production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Validate checks startup preconditions. A missing JWT secret or missing
// credentials for the selected LLM provider are configuration errors, not
// per-request errors, and must abort process startup.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt secret is not set")
	}
	if c.TokenDuration <= 0 {
		return fmt.Errorf("token duration must be positive")
	}

	switch c.LLM.Provider {
	case "gemini":
		if c.LLM.Gemini.APIKey == "" {
			return fmt.Errorf("gemini provider selected but GEMINI_API_KEY is not set")
		}
	case "ollama":
		if c.LLM.Ollama.BaseURL == "" || c.LLM.Ollama.Model == "" {
			return fmt.Errorf("ollama provider selected but base url or model is not set")
		}
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}

	return nil
}

func splitOrigins(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
