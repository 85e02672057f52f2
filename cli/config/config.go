package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Host     string `yaml:"host"`
		HTTPPort int    `yaml:"http_port"`
		TLS      bool   `yaml:"tls"`
	} `yaml:"server"`
	User struct {
		UserID      string `yaml:"user_id"`
		Email       string `yaml:"email"`
		DisplayName string `yaml:"display_name"`
		Token       string `yaml:"token"`
	} `yaml:"user"`
	Reader struct {
		Width       int  `yaml:"width"`
		FinePointer bool `yaml:"fine_pointer"`
	} `yaml:"reader"`
}

var GlobalConfig *Config

// ErrNotInitialized is returned by Load before Init has written a file.
var ErrNotInitialized = errors.New("configuration not initialized")

// GetConfigDir honours NOCTURNE_HOME, falling back to ~/.nocturne.
func GetConfigDir() (string, error) {
	if dir := os.Getenv("NOCTURNE_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".nocturne"), nil
}

func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

func Default() *Config {
	cfg := &Config{}
	cfg.Server.Host = "localhost"
	cfg.Server.HTTPPort = 8080
	cfg.Reader.Width = 1280
	cfg.Reader.FinePointer = true
	return cfg
}

func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	GlobalConfig = config
	return config, nil
}

func Save(config *Config) error {
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The file holds a bearer token.
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	GlobalConfig = config
	return nil
}

// Init writes the default configuration. An existing file is kept unless
// force is set.
func Init(force bool) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("config already exists at %s", configPath)
	}
	return Save(Default())
}

func UpdateUserToken(userID, email, displayName, token string) error {
	config, err := Load()
	if err != nil {
		return err
	}

	config.User.UserID = userID
	config.User.Email = email
	config.User.DisplayName = displayName
	config.User.Token = token

	return Save(config)
}

func ClearUserToken() error {
	config, err := Load()
	if err != nil {
		return err
	}

	config.User.UserID = ""
	config.User.Token = ""

	return Save(config)
}

func GetServerURL() (string, error) {
	config, err := Load()
	if err != nil {
		return "", err
	}
	return config.ServerURL(), nil
}

func (c *Config) ServerURL() string {
	scheme := "http"
	if c.Server.TLS {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Server.Host, c.Server.HTTPPort)
}

// WebSocketURL is the live reader endpoint on the same server.
func (c *Config) WebSocketURL() string {
	scheme := "ws"
	if c.Server.TLS {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s:%d/ws/read", scheme, c.Server.Host, c.Server.HTTPPort)
}
