package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigins string

	// Logging
	LogLevel    string
	LogFormat   string // "json" or "text"
	LogDir      string // empty disables the log file
	LogMaxFiles int

	// Model providers
	GeminiAPIKey      string
	AnthropicAPIKey   string
	TextProvider      string // gemini, anthropic, fake
	ImageProvider     string // gemini, fake
	SpeechProvider    string // gemini, elevenlabs, fake
	ElevenLabsAPIKey  string
	ElevenLabsVoiceID string
	GenerationTimeout time.Duration

	// ModelOverrides maps a capability name to a model id, read from
	// MODEL_<CAPABILITY> variables.
	ModelOverrides map[string]string

	// Circuit breaker around model backends
	BreakerEnabled     bool
	BreakerMaxFailures uint32
	BreakerTimeout     time.Duration

	// Orchestrator behaviour
	Suggestions           bool
	Greeting              bool
	PreserveRejectedInput bool

	// Conversation storage
	StoreBackend          string // memory or postgres
	DatabaseURL           string
	TablePrefix           string
	StoreMaxConversations int
	StoreTTL              time.Duration

	// Auth is enabled when a JWKS URL is configured.
	AuthJWKSURL      string
	AuthRequiredRole string // empty accepts any role claim

	TracingEnabled  bool
	TracingExporter string
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),

		LogLevel:    getEnv("LOG_LEVEL", getDefaultLogLevel(env)),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: getInt("LOG_MAX_FILES", 5),

		GeminiAPIKey:      getEnv("GEMINI_API_KEY", os.Getenv("GOOGLE_API_KEY")),
		AnthropicAPIKey:   getEnv("ANTHROPIC_API_KEY", ""),
		TextProvider:      getEnv("TEXT_PROVIDER", "gemini"),
		ImageProvider:     getEnv("IMAGE_PROVIDER", "gemini"),
		SpeechProvider:    getEnv("SPEECH_PROVIDER", "gemini"),
		ElevenLabsAPIKey:  getEnv("ELEVENLABS_API_KEY", ""),
		ElevenLabsVoiceID: getEnv("ELEVENLABS_VOICE_ID", ""),
		GenerationTimeout: getDuration("GENERATION_TIMEOUT", 60*time.Second),
		ModelOverrides:    getModelOverrides(),

		BreakerEnabled:     getBool("BREAKER_ENABLED", false),
		BreakerMaxFailures: uint32(getInt("BREAKER_MAX_FAILURES", 5)),
		BreakerTimeout:     getDuration("BREAKER_TIMEOUT", 30*time.Second),

		Suggestions:           getBool("CHAT_SUGGESTIONS", true),
		Greeting:              getBool("CHAT_GREETING", true),
		PreserveRejectedInput: getBool("CHAT_PRESERVE_REJECTED_INPUT", true),

		StoreBackend:          getEnv("STORE_BACKEND", "memory"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		TablePrefix:           getTablePrefix(env),
		StoreMaxConversations: getInt("STORE_MAX_CONVERSATIONS", 1000),
		StoreTTL:              getDuration("STORE_TTL", 24*time.Hour),

		AuthJWKSURL:      getEnv("AUTH_JWKS_URL", ""),
		AuthRequiredRole: getEnv("AUTH_REQUIRED_ROLE", "authenticated"),

		TracingEnabled:  getBool("TRACING_ENABLED", false),
		TracingExporter: getEnv("TRACING_EXPORTER", "stdout"),
	}
}

// AuthEnabled reports whether bearer tokens are verified.
func (c *Config) AuthEnabled() bool {
	return c.AuthJWKSURL != ""
}

func getDefaultLogLevel(env string) string {
	if env == "dev" {
		return "debug"
	}
	return "info"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

// getModelOverrides collects MODEL_<CAPABILITY>=<model id> variables.
func getModelOverrides() map[string]string {
	overrides := make(map[string]string)
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" {
			continue
		}
		name, ok := strings.CutPrefix(key, "MODEL_")
		if !ok || name == "" {
			continue
		}
		overrides[strings.ToLower(name)] = value
	}
	return overrides
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return v
}

func getInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}
