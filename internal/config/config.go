package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

const (
	ProviderMock      = "mock"
	ProviderVertex    = "vertex"
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

const (
	ArchiveNone      = "none"
	ArchiveMemory    = "memory"
	ArchiveFirestore = "firestore"
)

type Config struct {
	Mode Mode `yaml:"mode" validate:"oneof=local gcp"`

	Server  ServerConfig  `yaml:"server"`
	LLM     LLMConfig     `yaml:"llm"`
	Session SessionConfig `yaml:"session"`
	Archive ArchiveConfig `yaml:"archive"`
	Logging LoggingConfig `yaml:"logging"`
	Tracing TracingConfig `yaml:"tracing"`
}

type ServerConfig struct {
	Port            string        `yaml:"port" validate:"required,numeric"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gte=0"`
}

type LLMConfig struct {
	Provider string `yaml:"provider" validate:"oneof=mock vertex gemini openai anthropic"`
	Model    string `yaml:"model"`

	GCPProjectID string `yaml:"gcp_project" validate:"required_if=Provider vertex"`
	GCPLocation  string `yaml:"gcp_location" validate:"required_if=Provider vertex"`

	// APIKey is used by the gemini, openai and anthropic providers.
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`

	Timeout         time.Duration `yaml:"timeout" validate:"gte=0"`
	Temperature     float32       `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxOutputTokens int           `yaml:"max_output_tokens" validate:"gte=0"`
}

type SessionConfig struct {
	MaxSourceChars   int           `yaml:"max_source_chars" validate:"gte=0"`
	ReflectionDelay  time.Duration `yaml:"reflection_delay" validate:"gte=0"`
	AdvisoryDelay    time.Duration `yaml:"advisory_delay" validate:"gte=0"`
	ReadyToEndAfter  int           `yaml:"ready_to_end_after" validate:"gte=1"`
	FallbackPoolFile string        `yaml:"fallback_pool_file"`
	RandomFallback   bool          `yaml:"random_fallback"`
}

type ArchiveConfig struct {
	Backend      string `yaml:"backend" validate:"oneof=none memory firestore"`
	GCPProjectID string `yaml:"gcp_project" validate:"required_if=Backend firestore"`
	Collection   string `yaml:"collection" validate:"required"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

type TracingConfig struct {
	Exporter     string `yaml:"exporter" validate:"oneof=none stdout otlp"`
	OTLPEndpoint string `yaml:"otlp_endpoint" validate:"required_if=Exporter otlp"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
	ServiceName  string `yaml:"service_name" validate:"required"`
}

// Default returns the configuration used when no file or env vars are set.
func Default() *Config {
	return &Config{
		Mode: ModeLocal,
		Server: ServerConfig{
			Port:            "8080",
			ShutdownTimeout: 10 * time.Second,
		},
		LLM: LLMConfig{
			Provider:    ProviderMock,
			GCPLocation: "us-central1",
			Timeout:     60 * time.Second,
			Temperature: 0.7,
		},
		Session: SessionConfig{
			MaxSourceChars:  24000,
			ReflectionDelay: 1500 * time.Millisecond,
			AdvisoryDelay:   time.Second,
			ReadyToEndAfter: 8,
		},
		Archive: ArchiveConfig{
			Backend:    ArchiveMemory,
			Collection: "session_reports",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Exporter:     "none",
			OTLPEndpoint: "localhost:4317",
			OTLPInsecure: true,
			ServiceName:  "socratic-dialogue",
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

func getIntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// Load reads the optional YAML file at path, applies env overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decoding config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	switch getEnv("DIALOGUE_MODE", string(c.Mode)) {
	case "gcp":
		c.Mode = ModeGCP
	default:
		c.Mode = ModeLocal
	}

	c.Server.Port = getEnv("PORT", getEnv("DIALOGUE_PORT", c.Server.Port))

	c.LLM.Provider = getEnv("DIALOGUE_LLM_PROVIDER", c.LLM.Provider)
	c.LLM.Model = getEnv("DIALOGUE_MODEL_NAME", c.LLM.Model)
	c.LLM.GCPProjectID = getEnv("DIALOGUE_GCP_PROJECT", c.LLM.GCPProjectID)
	c.LLM.GCPLocation = getEnv("DIALOGUE_GCP_LOCATION", c.LLM.GCPLocation)
	c.LLM.BaseURL = getEnv("DIALOGUE_LLM_BASE_URL", c.LLM.BaseURL)
	c.LLM.Timeout = getDurationEnv("DIALOGUE_LLM_TIMEOUT", c.LLM.Timeout)
	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case ProviderOpenAI:
			c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case ProviderAnthropic:
			c.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case ProviderGemini:
			c.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
	// Mock stays the default in local mode; this forces it anywhere.
	if getBoolEnv("DIALOGUE_USE_MOCK_LLM", false) {
		c.LLM.Provider = ProviderMock
	}

	c.Session.MaxSourceChars = getIntEnv("DIALOGUE_MAX_SOURCE_CHARS", c.Session.MaxSourceChars)
	c.Session.ReflectionDelay = getDurationEnv("DIALOGUE_REFLECTION_DELAY", c.Session.ReflectionDelay)
	c.Session.AdvisoryDelay = getDurationEnv("DIALOGUE_ADVISORY_DELAY", c.Session.AdvisoryDelay)
	c.Session.ReadyToEndAfter = getIntEnv("DIALOGUE_READY_TO_END_AFTER", c.Session.ReadyToEndAfter)
	c.Session.FallbackPoolFile = getEnv("DIALOGUE_FALLBACK_POOL_FILE", c.Session.FallbackPoolFile)

	c.Archive.Backend = getEnv("DIALOGUE_ARCHIVE_BACKEND", c.Archive.Backend)
	c.Archive.GCPProjectID = getEnv("DIALOGUE_ARCHIVE_GCP_PROJECT", getEnv("DIALOGUE_GCP_PROJECT", c.Archive.GCPProjectID))

	c.Logging.Level = getEnv("DIALOGUE_LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("DIALOGUE_LOG_FORMAT", c.Logging.Format)

	c.Tracing.Exporter = getEnv("DIALOGUE_TRACE_EXPORTER", c.Tracing.Exporter)
	c.Tracing.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Tracing.OTLPEndpoint)
	c.Tracing.OTLPInsecure = getBoolEnv("DIALOGUE_OTLP_INSECURE", c.Tracing.OTLPInsecure)
}

var validate = validator.New()

// Validate checks field constraints and provider requirements.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config: %s failed %q validation", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("config: %w", err)
	}

	switch c.LLM.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("config: llm.api_key is required for provider %q", c.LLM.Provider)
		}
	}
	return nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}
