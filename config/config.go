package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds configuration for the Telegram MCP server.
type Config struct {
	Global   GlobalConfig   `yaml:"global"`
	Telegram TelegramConfig `yaml:"telegram"`
	Files    FilesConfig    `yaml:"files"`
	Chats    ChatsConfig    `yaml:"chats"`
	Messages MessagesConfig `yaml:"messages"`
	Contacts ContactsConfig `yaml:"contacts"`
	Profile  ProfileConfig  `yaml:"profile"`
	Admin    AdminConfig    `yaml:"admin"`
	Media    MediaConfig    `yaml:"media"`
	Folders  FoldersConfig  `yaml:"folders"`
	Misc     MiscConfig     `yaml:"misc"`
}

// GlobalConfig holds settings shared by all tool modules.
type GlobalConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	ErrorLog  string `yaml:"error_log"`
}

// TelegramConfig holds MTProto credentials and connection settings.
type TelegramConfig struct {
	APIID             int    `yaml:"api_id"`
	APIHash           string `yaml:"api_hash"`
	SessionString     string `yaml:"session_string"`
	SessionName       string `yaml:"session_name"`
	ProxyURL          string `yaml:"proxy_url"`
	RequestIntervalMs int    `yaml:"request_interval_ms"`
	RequestBurst      int    `yaml:"request_burst"`
}

// FilesConfig holds the server-side roots used for upload and download
// paths when the connected client does not provide its own.
type FilesConfig struct {
	AllowedRoots []string `yaml:"allowed_roots"`
}

type ChatsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type MessagesConfig struct {
	Enabled bool `yaml:"enabled"`
}

type ContactsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type ProfileConfig struct {
	Enabled bool `yaml:"enabled"`
}

type AdminConfig struct {
	Enabled bool `yaml:"enabled"`
}

type MediaConfig struct {
	Enabled bool `yaml:"enabled"`
}

type FoldersConfig struct {
	Enabled bool `yaml:"enabled"`
}

type MiscConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Global: GlobalConfig{
			LogLevel:  "info",
			LogFormat: "text",
			ErrorLog:  "mcp_errors.log",
		},
		Telegram: TelegramConfig{
			SessionName:       "telegram_session",
			RequestIntervalMs: 100,
			RequestBurst:      5,
		},
		Files: FilesConfig{
			AllowedRoots: []string{},
		},
		Chats:    ChatsConfig{Enabled: true},
		Messages: MessagesConfig{Enabled: true},
		Contacts: ContactsConfig{Enabled: true},
		Profile:  ProfileConfig{Enabled: true},
		Admin:    AdminConfig{Enabled: true},
		Media:    MediaConfig{Enabled: true},
		Folders:  FoldersConfig{Enabled: true},
		Misc:     MiscConfig{Enabled: true},
	}
}

// LoadConfig loads configuration from the given path, falling back to
// the default location if path is empty.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		configDir, err := os.UserConfigDir()
		if err == nil {
			path = filepath.Join(configDir, "telegram-mcp", "config.yaml")
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TELEGRAM_API_ID"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			c.Telegram.APIID = id
		}
	}
	if v := os.Getenv("TELEGRAM_API_HASH"); v != "" {
		c.Telegram.APIHash = v
	}
	if v := os.Getenv("TELEGRAM_SESSION_STRING"); v != "" {
		c.Telegram.SessionString = v
	}
	if v := os.Getenv("TELEGRAM_SESSION_NAME"); v != "" {
		c.Telegram.SessionName = v
	}
	if v := os.Getenv("TELEGRAM_MCP_PROXY"); v != "" {
		c.Telegram.ProxyURL = v
	}
	if v := os.Getenv("TELEGRAM_MCP_LOG_LEVEL"); v != "" {
		c.Global.LogLevel = v
	}
	if v := os.Getenv("TELEGRAM_MCP_LOG_FORMAT"); v != "" {
		c.Global.LogFormat = v
	}
	if v := os.Getenv("TELEGRAM_MCP_ERROR_LOG"); v != "" {
		c.Global.ErrorLog = v
	}
	if v := os.Getenv("TELEGRAM_MCP_ALLOWED_ROOTS"); v != "" {
		c.Files.AllowedRoots = strings.Split(v, ":")
	}
}

// ExpandPaths expands environment variables in path configurations.
func (c *Config) ExpandPaths() {
	for i, p := range c.Files.AllowedRoots {
		c.Files.AllowedRoots[i] = os.ExpandEnv(p)
	}
	c.Global.ErrorLog = os.ExpandEnv(c.Global.ErrorLog)
	c.Telegram.SessionName = os.ExpandEnv(c.Telegram.SessionName)
}
