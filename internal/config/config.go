// Package config defines fixxy's settings, their defaults, and how they
// are decoded from viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/joescharf/fixxy/internal/catalog"
	"github.com/joescharf/fixxy/internal/models"
	"github.com/joescharf/fixxy/internal/session"
)

// EnvPrefix is prepended to every environment override, e.g.
// FIXXY_SERVICE_ENDPOINT.
const EnvPrefix = "FIXXY"

// Catalog backends.
const (
	CatalogBuiltin = "builtin"
	CatalogSQLite  = "sqlite"
)

// LLM providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config is the decoded configuration.
type Config struct {
	StateDir  string          `mapstructure:"state_dir" validate:"required"`
	DBPath    string          `mapstructure:"db_path" validate:"required"`
	Service   ServiceConfig   `mapstructure:"service"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Serve     ServeConfig     `mapstructure:"serve"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServiceConfig locates the inference service the chat talks to.
type ServiceConfig struct {
	Endpoint string        `mapstructure:"endpoint" validate:"required,url"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// ChatConfig holds the chat front-end's startup state.
type ChatConfig struct {
	Task          string        `mapstructure:"task" validate:"required"`
	Language      string        `mapstructure:"language" validate:"required"`
	Set           string        `mapstructure:"set"`
	Theme         string        `mapstructure:"theme" validate:"oneof=light dark"`
	Sidebar       bool          `mapstructure:"sidebar"`
	Tick          time.Duration `mapstructure:"tick" validate:"gt=0"`
	LateResponses string        `mapstructure:"late_responses" validate:"oneof=append drop"`
}

type CatalogConfig struct {
	Backend string `mapstructure:"backend" validate:"oneof=builtin sqlite"`
}

type ServeConfig struct {
	Port      int     `mapstructure:"port" validate:"gt=0,lte=65535"`
	RateLimit float64 `mapstructure:"rate_limit" validate:"gte=0"`
	Burst     int     `mapstructure:"burst" validate:"gte=0"`
}

type LLMConfig struct {
	Provider    string  `mapstructure:"provider" validate:"oneof=openai anthropic"`
	BaseURL     string  `mapstructure:"base_url" validate:"omitempty,url"`
	Model       string  `mapstructure:"model" validate:"required"`
	APIKey      string  `mapstructure:"api_key"`
	Temperature float64 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `mapstructure:"max_tokens" validate:"gt=0"`
}

type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
	File   string `mapstructure:"file"`
}

// DefaultDir returns ~/.config/fixxy.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "fixxy"), nil
}

// SetDefaults registers every key's default on v, rooted at dir.
func SetDefaults(v *viper.Viper, dir string) {
	v.SetDefault("state_dir", dir)
	v.SetDefault("db_path", filepath.Join(dir, "fixxy.db"))

	v.SetDefault("service.endpoint", "http://localhost:8000")
	v.SetDefault("service.timeout", "60s")

	v.SetDefault("chat.task", models.TaskExplain.String())
	v.SetDefault("chat.language", models.DefaultLanguage.String())
	v.SetDefault("chat.set", catalog.DefaultSetID)
	v.SetDefault("chat.theme", "light")
	v.SetDefault("chat.sidebar", true)
	v.SetDefault("chat.tick", "15ms")
	v.SetDefault("chat.late_responses", session.LateAppend.String())

	v.SetDefault("catalog.backend", CatalogBuiltin)

	v.SetDefault("serve.port", 8000)
	v.SetDefault("serve.rate_limit", 5.0)
	v.SetDefault("serve.burst", 10)

	v.SetDefault("llm.provider", ProviderOpenAI)
	v.SetDefault("llm.base_url", "https://api.together.xyz/v1")
	v.SetDefault("llm.model", "meta-llama/Llama-3.3-70B-Instruct-Turbo-Free")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 1024)

	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
}

// BindEnv enables FIXXY_* overrides for every key, with dots mapped to
// underscores.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// EnvVar returns the environment variable that overrides key.
func EnvVar(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Load decodes and validates v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and the enum-valued chat settings.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := models.ParseTaskMode(c.Chat.Task); err != nil {
		return fmt.Errorf("invalid config: chat.task: %w", err)
	}
	if _, err := models.ParseLanguage(c.Chat.Language); err != nil {
		return fmt.Errorf("invalid config: chat.language: %w", err)
	}
	return nil
}

// TaskMode returns the parsed startup task.
func (c *Config) TaskMode() models.TaskMode {
	m, err := models.ParseTaskMode(c.Chat.Task)
	if err != nil {
		return models.TaskExplain
	}
	return m
}

// Language returns the parsed startup language.
func (c *Config) Language() models.Language {
	l, err := models.ParseLanguage(c.Chat.Language)
	if err != nil {
		return models.DefaultLanguage
	}
	return l
}

// LatePolicy returns the parsed late-response policy.
func (c *Config) LatePolicy() session.LatePolicy {
	p, err := session.ParseLatePolicy(c.Chat.LateResponses)
	if err != nil {
		return session.LateAppend
	}
	return p
}

// LLMAPIKey returns llm.api_key, falling back to TOGETHER_API_KEY and then
// OPENAI_API_KEY.
func (c *Config) LLMAPIKey() string {
	if c.LLM.APIKey != "" {
		return c.LLM.APIKey
	}
	if key := os.Getenv("TOGETHER_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("OPENAI_API_KEY")
}

// AnthropicAPIKey returns anthropic.api_key, falling back to
// ANTHROPIC_API_KEY.
func (c *Config) AnthropicAPIKey() string {
	if c.Anthropic.APIKey != "" {
		return c.Anthropic.APIKey
	}
	return os.Getenv("ANTHROPIC_API_KEY")
}
