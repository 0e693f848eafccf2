package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/yiblet/clipq/internal/datadir"
	"gopkg.in/yaml.v3"
)

// Config represents the clipq process configuration
type Config struct {
	HistoryLimit      int    `yaml:"history_limit"`
	SuppressionWindow string `yaml:"suppression_window"`
	DBPath            string `yaml:"db_path,omitempty"`
	ListenAddr        string `yaml:"listen_addr"`
	LogLevel          string `yaml:"log_level"`
	ThumbnailSize     int    `yaml:"thumbnail_size"`
}

const (
	DefaultHistoryLimit      = 50
	MaxHistoryLimit          = 1000
	DefaultSuppressionWindow = "500ms"
	DefaultListenAddr        = "127.0.0.1:7645"
	DefaultLogLevel          = "info"
	DefaultThumbnailSize     = 200
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		HistoryLimit:      DefaultHistoryLimit,
		SuppressionWindow: DefaultSuppressionWindow,
		ListenAddr:        DefaultListenAddr,
		LogLevel:          DefaultLogLevel,
		ThumbnailSize:     DefaultThumbnailSize,
	}
}

// Window parses SuppressionWindow.
func (c *Config) Window() time.Duration {
	d, err := time.ParseDuration(c.SuppressionWindow)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultSuppressionWindow)
	}
	return d
}

// ConfigManager manages configuration persistence
type ConfigManager struct {
	configPath string
}

// NewConfigManager creates a config manager for ~/.config/clipq/config.yaml
func NewConfigManager() (*ConfigManager, error) {
	dir, err := datadir.New()
	if err != nil {
		return nil, err
	}
	return &ConfigManager{configPath: dir.ConfigPath()}, nil
}

// NewConfigManagerWithPath creates a config manager with custom config path
func NewConfigManagerWithPath(configPath string) *ConfigManager {
	return &ConfigManager{
		configPath: configPath,
	}
}

// Load reads the configuration from file, or returns default if file doesn't exist
func (cm *ConfigManager) Load() (*Config, error) {
	data, err := os.ReadFile(cm.configPath)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Missing keys keep their defaults
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Save writes the configuration to file
func (cm *ConfigManager) Save(config *Config) error {
	if err := validate(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	configDir := filepath.Dir(cm.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(cm.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func validate(config *Config) error {
	if config.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be greater than 0")
	}
	if config.HistoryLimit > MaxHistoryLimit {
		return fmt.Errorf("history_limit cannot exceed %d items", MaxHistoryLimit)
	}
	if d, err := time.ParseDuration(config.SuppressionWindow); err != nil || d <= 0 {
		return fmt.Errorf("suppression_window must be a positive duration, got %q", config.SuppressionWindow)
	}
	if config.ThumbnailSize < 16 || config.ThumbnailSize > 2048 {
		return fmt.Errorf("thumbnail_size must be between 16 and 2048")
	}
	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error")
	}
	if config.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	return nil
}

// GetConfigPath returns the path to the config file
func (cm *ConfigManager) GetConfigPath() string {
	return cm.configPath
}

// Update modifies a specific configuration value
func (cm *ConfigManager) Update(key, value string) error {
	config, err := cm.Load()
	if err != nil {
		return err
	}

	switch key {
	case "history-limit":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for history-limit: %s", value)
		}
		config.HistoryLimit = n
	case "suppression-window":
		config.SuppressionWindow = value
	case "db-path":
		config.DBPath = value
	case "listen-addr":
		config.ListenAddr = value
	case "log-level":
		config.LogLevel = strings.ToLower(value)
	case "thumbnail-size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for thumbnail-size: %s", value)
		}
		config.ThumbnailSize = n
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}

	return cm.Save(config)
}

// Get returns the value for a specific configuration key
func (cm *ConfigManager) Get(key string) (string, error) {
	values, err := cm.List()
	if err != nil {
		return "", err
	}
	value, ok := values[key]
	if !ok {
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
	return value, nil
}

// List returns all configuration keys and values
func (cm *ConfigManager) List() (map[string]string, error) {
	config, err := cm.Load()
	if err != nil {
		return nil, err
	}

	result := map[string]string{
		"history-limit":      strconv.Itoa(config.HistoryLimit),
		"suppression-window": config.SuppressionWindow,
		"db-path":            config.DBPath,
		"listen-addr":        config.ListenAddr,
		"log-level":          config.LogLevel,
		"thumbnail-size":     strconv.Itoa(config.ThumbnailSize),
	}

	if result["db-path"] == "" {
		result["db-path"] = "[default]"
	}

	return result, nil
}
