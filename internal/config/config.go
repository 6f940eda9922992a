package config

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/talktotj/chat/backend/internal/model/persona"
	"github.com/talktotj/chat/backend/internal/provider/gemini"
)

// Supported values of AI_PROVIDER.
const (
	ProviderOpenAI = "openai"
	ProviderArk    = "ark"
	ProviderGemini = "gemini"
)

const (
	defaultAITimeout     = 30 * time.Second
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
)

// Config aggregates every setting of the service.
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	Persona PersonaConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: ai, Persona: loadPersonaConfig()}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr          string
	AllowedOrigin string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	origin := getEnvOrDefault("CORS_ALLOWED_ORIGIN", "*")

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		return ServerConfig{Addr: port, AllowedOrigin: origin}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigin: origin}, nil
}

// PersonaConfig selects the behavior profile.
type PersonaConfig struct {
	File string
	ID   string
}

func loadPersonaConfig() PersonaConfig {
	return PersonaConfig{
		File: strings.TrimSpace(os.Getenv("PERSONA_FILE")),
		ID:   getEnvOrDefault("PERSONA_ID", persona.DefaultID),
	}
}

// AIConfig describes the completion provider. Credentials are not validated here:
// a missing key surfaces as a provider error on the first relay call.
type AIConfig struct {
	Provider    string
	Timeout     time.Duration
	Temperature *float64
	TopP        *float64
	MaxTokens   *int

	OpenAI OpenAIConfig
	Ark    ArkConfig
	Gemini GeminiConfig
}

// OpenAIConfig holds the OpenAI chat completions settings.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// ArkConfig holds the Volcengine Ark settings.
type ArkConfig struct {
	APIKey    string
	AccessKey string
	SecretKey string
	Model     string
	BaseURL   string
	Region    string
}

// GeminiConfig holds the Google Gemini settings.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// ProviderName returns the human-readable provider name used in error payloads.
func (c AIConfig) ProviderName() string {
	switch c.Provider {
	case ProviderArk:
		return "Ark"
	case ProviderGemini:
		return "Gemini"
	default:
		return "OpenAI"
	}
}

// ModelName returns the configured model identifier of the active provider.
func (c AIConfig) ModelName() string {
	switch c.Provider {
	case ProviderArk:
		return c.Ark.Model
	case ProviderGemini:
		return c.Gemini.Model
	default:
		return c.OpenAI.Model
	}
}

// NewChatModel builds the chat model of the configured provider.
func (c AIConfig) NewChatModel(ctx context.Context) (model.BaseChatModel, error) {
	temperature := toFloat32(c.Temperature)
	topP := toFloat32(c.TopP)

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	switch c.Provider {
	case ProviderArk:
		cfg := &ark.ChatModelConfig{
			BaseURL:     c.Ark.BaseURL,
			Region:      c.Ark.Region,
			APIKey:      c.Ark.APIKey,
			AccessKey:   c.Ark.AccessKey,
			SecretKey:   c.Ark.SecretKey,
			Model:       c.Ark.Model,
			MaxTokens:   maxTokens,
			Temperature: temperature,
			TopP:        topP,
		}
		return ark.NewChatModel(ctx, cfg)
	case ProviderGemini:
		return gemini.NewChatModel(ctx, gemini.Config{
			APIKey:      c.Gemini.APIKey,
			Model:       c.Gemini.Model,
			Temperature: temperature,
			TopP:        topP,
			MaxTokens:   maxTokens,
		})
	case ProviderOpenAI:
		cfg := &openai.ChatModelConfig{
			APIKey:      c.OpenAI.APIKey,
			BaseURL:     c.OpenAI.BaseURL,
			Model:       c.OpenAI.Model,
			MaxTokens:   maxTokens,
			Temperature: temperature,
			TopP:        topP,
		}
		return openai.NewChatModel(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported AI_PROVIDER %q", c.Provider)
	}
}

func loadAIConfig() (AIConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("AI_PROVIDER", ProviderOpenAI))
	switch provider {
	case ProviderOpenAI, ProviderArk, ProviderGemini:
	default:
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value %q", provider)
	}

	temperature, err := parseOptionalFloatEnv("AI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("AI_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("AI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}
	if maxTokens != nil && (*maxTokens <= 0 || *maxTokens > math.MaxInt32) {
		return AIConfig{}, fmt.Errorf("invalid AI_MAX_TOKENS value %d: must be between 1 and %d", *maxTokens, math.MaxInt32)
	}

	timeout, err := parseDurationEnv("AI_TIMEOUT", defaultAITimeout)
	if err != nil {
		return AIConfig{}, err
	}
	if timeout <= 0 {
		return AIConfig{}, fmt.Errorf("invalid AI_TIMEOUT value %q: must be positive", os.Getenv("AI_TIMEOUT"))
	}

	return AIConfig{
		Provider:    provider,
		Timeout:     timeout,
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
		OpenAI: OpenAIConfig{
			APIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			BaseURL: getEnvOrDefault("OPENAI_BASE_URL", defaultOpenAIBaseURL),
			Model:   getEnvOrDefault("OPENAI_MODEL", "gpt-3.5-turbo"),
		},
		Ark: ArkConfig{
			APIKey:    strings.TrimSpace(os.Getenv("ARK_API_KEY")),
			AccessKey: strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
			SecretKey: strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
			Model:     strings.TrimSpace(os.Getenv("ARK_MODEL")),
			BaseURL:   getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
			Region:    getEnvOrDefault("ARK_REGION", "cn-beijing"),
		},
		Gemini: GeminiConfig{
			APIKey: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			Model:  getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		},
	}, nil
}

func toFloat32(v *float64) *float32 {
	if v == nil {
		return nil
	}
	val := float32(*v)
	return &val
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	// Bare integers are seconds.
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
