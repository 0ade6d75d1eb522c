// Package config provides configuration loading for go-folio commands.
// Values come from environment variables first; an optional YAML file
// can override them.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	DefaultAddr        = ":8080"
	DefaultSiteURL     = "http://localhost:3000"
	DefaultContactFrom = "noreply@jacobrafal.com"
	DefaultContactTo   = "rafaljacobmatthew@gmail.com"
	DefaultOllamaURL   = "http://localhost:11434/v1"
)

// Config holds all configuration for the folio server and CLI.
// Flag parsing is done in cmd/; this struct is data only.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Site      SiteConfig      `yaml:"site"`
	Assistant AssistantConfig `yaml:"assistant"`
	Contact   ContactConfig   `yaml:"contact"`
	Chat      ChatConfig      `yaml:"chat"`
}

// ServerConfig configures the HTTP listener and logging.
type ServerConfig struct {
	Addr     string `yaml:"addr"`
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
	Debug    bool   `yaml:"debug"`
}

// SiteConfig mirrors the public site metadata.
type SiteConfig struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	URL         string `yaml:"url" json:"url"`
	GitHub      string `yaml:"github" json:"github"`
	LinkedIn    string `yaml:"linkedin" json:"linkedin"`
	Twitter     string `yaml:"twitter" json:"twitter,omitempty"`
	Calendly    string `yaml:"calendly" json:"calendly"`
	Email       string `yaml:"email" json:"email"`
}

// AssistantConfig configures the chat gateway and the assistant backend.
type AssistantConfig struct {
	// WebhookURL is the external automation webhook the widget forwards to.
	// Empty means the server's own assistant backend answers directly.
	WebhookURL     string        `yaml:"webhook_url"`
	WebhookToken   string        `yaml:"webhook_token"`
	WebhookTimeout time.Duration `yaml:"webhook_timeout"`

	KnowledgePath string `yaml:"knowledge_path"`

	GroqKey     string `yaml:"groq_key"`
	TogetherKey string `yaml:"together_key"`
	UseOllama   bool   `yaml:"use_ollama"`
	OllamaURL   string `yaml:"ollama_url"`
}

// ContactConfig configures the contact relay.
type ContactConfig struct {
	ResendKey string        `yaml:"resend_key"`
	From      string        `yaml:"from"`
	To        string        `yaml:"to"`
	MaxSkew   time.Duration `yaml:"max_skew"`
}

// ChatConfig tunes the turn controller.
type ChatConfig struct {
	SettleDelay time.Duration `yaml:"settle_delay"`
	TurnTimeout time.Duration `yaml:"turn_timeout"`
	SessionTTL  time.Duration `yaml:"session_ttl"`
	Continuous  bool          `yaml:"continuous"`
}

// Default returns sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:     DefaultAddr,
			LogLevel: "info",
		},
		Site: SiteConfig{
			Name:        "Jacob Rafal",
			Description: "AI Engineer specializing in DevTools & Productivity SaaS, agents-first development, NLP, and MLOps.",
			URL:         DefaultSiteURL,
			GitHub:      "https://github.com/JakeCob",
			LinkedIn:    "https://www.linkedin.com/in/jacob-matthew-rafal-b94399217/",
			Calendly:    "https://calendly.com/rafaljacobmatthew/30min",
			Email:       DefaultContactTo,
		},
		Assistant: AssistantConfig{
			WebhookTimeout: 15 * time.Second,
			OllamaURL:      DefaultOllamaURL,
		},
		Contact: ContactConfig{
			From:    DefaultContactFrom,
			To:      DefaultContactTo,
			MaxSkew: time.Hour,
		},
		Chat: ChatConfig{
			SettleDelay: 2 * time.Second,
			TurnTimeout: 20 * time.Second,
			SessionTTL:  30 * time.Minute,
			Continuous:  true,
		},
	}
}

// Load returns the defaults with environment overrides applied.
func Load() Config {
	cfg := Default()
	cfg.LoadEnv()
	return cfg
}

// LoadFile reads a YAML file on top of the environment configuration.
func LoadFile(path string) (Config, error) {
	cfg := Load()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadEnv applies environment variable overrides.
func (c *Config) LoadEnv() {
	c.Server.Addr = getEnv("FOLIO_ADDR", c.Server.Addr)
	c.Server.LogLevel = getEnv("FOLIO_LOG_LEVEL", c.Server.LogLevel)
	c.Server.LogFile = getEnv("FOLIO_LOG_FILE", c.Server.LogFile)
	c.Server.Debug = getBoolEnv("FOLIO_DEBUG", c.Server.Debug)

	c.Site.Name = getEnv("SITE_NAME", c.Site.Name)
	c.Site.Description = getEnv("SITE_DESCRIPTION", c.Site.Description)
	c.Site.URL = getEnv("SITE_URL", c.Site.URL)
	c.Site.GitHub = getEnv("GITHUB_URL", c.Site.GitHub)
	c.Site.LinkedIn = getEnv("LINKEDIN_URL", c.Site.LinkedIn)
	c.Site.Twitter = getEnv("TWITTER_URL", c.Site.Twitter)
	c.Site.Calendly = getEnv("CALENDLY_URL", c.Site.Calendly)

	c.Assistant.WebhookURL = getEnv("N8N_WEBHOOK_URL", c.Assistant.WebhookURL)
	c.Assistant.WebhookToken = getEnv("N8N_WEBHOOK_TOKEN", c.Assistant.WebhookToken)
	c.Assistant.WebhookTimeout = getDurationEnv("FOLIO_WEBHOOK_TIMEOUT", c.Assistant.WebhookTimeout)
	c.Assistant.KnowledgePath = getEnv("FOLIO_KNOWLEDGE", c.Assistant.KnowledgePath)
	c.Assistant.GroqKey = getEnv("GROQ_API_KEY", c.Assistant.GroqKey)
	c.Assistant.TogetherKey = getEnv("TOGETHER_API_KEY", c.Assistant.TogetherKey)
	c.Assistant.UseOllama = getBoolEnv("USE_OLLAMA", c.Assistant.UseOllama)
	c.Assistant.OllamaURL = getEnv("OLLAMA_URL", c.Assistant.OllamaURL)

	c.Contact.ResendKey = getEnv("RESEND_API_KEY", c.Contact.ResendKey)
	c.Contact.From = getEnv("CONTACT_FROM", c.Contact.From)
	c.Contact.To = getEnv("CONTACT_TO", c.Contact.To)

	c.Chat.SettleDelay = getDurationEnv("FOLIO_SETTLE_DELAY", c.Chat.SettleDelay)
	c.Chat.TurnTimeout = getDurationEnv("FOLIO_TURN_TIMEOUT", c.Chat.TurnTimeout)
	c.Chat.SessionTTL = getDurationEnv("FOLIO_SESSION_TTL", c.Chat.SessionTTL)
	c.Chat.Continuous = getBoolEnv("FOLIO_CONTINUOUS", c.Chat.Continuous)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return &ConfigError{Field: "Server.Addr", Message: "listen address is required"}
	}
	if c.Chat.TurnTimeout <= 0 {
		return &ConfigError{Field: "Chat.TurnTimeout", Message: "turn timeout must be positive"}
	}
	if c.Chat.SettleDelay < 0 {
		return &ConfigError{Field: "Chat.SettleDelay", Message: "settle delay cannot be negative"}
	}
	if c.Assistant.WebhookTimeout <= 0 {
		return &ConfigError{Field: "Assistant.WebhookTimeout", Message: "webhook timeout must be positive"}
	}
	if c.Contact.To == "" {
		return &ConfigError{Field: "Contact.To", Message: "CONTACT_TO is required"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config: " + e.Field + ": " + e.Message
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// getDurationEnv accepts Go durations ("2s") or bare milliseconds ("2000").
func getDurationEnv(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return def
}
