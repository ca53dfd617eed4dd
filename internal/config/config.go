package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Telegram Telegram `yaml:"telegram"`
	LLM      LLM      `yaml:"llm"`
	GitHub   GitHub   `yaml:"github"`
	Storage  Storage  `yaml:"storage"`
	Server   Server   `yaml:"server"`
	Logging  Logging  `yaml:"logging"`
}

// Telegram configures the bot front end. Secrets are referenced by
// environment variable name, never stored in the file.
type Telegram struct {
	TokenEnv      string `yaml:"token_env"`
	AllowedUserID int64  `yaml:"allowed_user_id"`
	PollTimeout   int    `yaml:"poll_timeout_seconds"`
}

type LLM struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	OllamaURL   string `yaml:"ollama_url"`
	OpenAIModel string `yaml:"openai_model"`
	APIKeyEnv   string `yaml:"api_key_env"`
	MaxTokens   int    `yaml:"max_tokens"`
}

// GitHub configures the archive repository the publisher commits to.
type GitHub struct {
	TokenEnv string `yaml:"token_env"`
	Repo     string `yaml:"repo"`
	APIURL   string `yaml:"api_url"`
}

type Storage struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for brainbox.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "brainbox")
}

// DataDir returns the XDG data directory for brainbox.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "brainbox")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/brainbox/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'brainbox init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Telegram: Telegram{
			TokenEnv:    "TELEGRAM_BOT_TOKEN",
			PollTimeout: 30,
		},
		LLM: LLM{
			Provider:    "ollama",
			Model:       "qwen2.5:7b",
			OllamaURL:   "http://localhost:11434",
			OpenAIModel: "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			MaxTokens:   512,
		},
		GitHub: GitHub{
			TokenEnv: "GITHUB_TOKEN",
			APIURL:   "https://api.github.com",
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir
	}
	return DataDir()
}

// TelegramToken returns the bot token from the configured env var.
func (c *Config) TelegramToken() string {
	return os.Getenv(c.Telegram.TokenEnv)
}

// GitHubToken returns the GitHub token from the configured env var.
func (c *Config) GitHubToken() string {
	return os.Getenv(c.GitHub.TokenEnv)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
