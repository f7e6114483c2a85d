package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vvka-141/conncache/pkg/conncache"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// ConnectionConfig is the connection section. ConnectTimeout is a Go
// duration string such as "5s".
type ConnectionConfig struct {
	URI            string `yaml:"uri"`
	AppName        string `yaml:"app_name,omitempty"`
	ConnectTimeout string `yaml:"connect_timeout,omitempty"`
}

// ServerConfig holds the health and metrics server settings.
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// LogConfig selects the log format ("text" or "json") and verbosity.
type LogConfig struct {
	Format  string `yaml:"format,omitempty"`
	Verbose bool   `yaml:"verbose,omitempty"`
}

// ProjectConfig is the parsed contents of ConfigFileName.
type ProjectConfig struct {
	Connection  ConnectionConfig `yaml:"connection"`
	Environment string           `yaml:"environment,omitempty"`
	Server      ServerConfig     `yaml:"server"`
	Log         LogConfig        `yaml:"log"`
}

// ConfigFileName is the project config file looked up in the working directory.
const ConfigFileName = "conncache.yaml"

// Load reads ConfigFileName from dir.
func Load(dir string) (*ProjectConfig, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads the config file at path.
func LoadFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &conncache.ConfigError{Reason: fmt.Sprintf("invalid %s", filepath.Base(path)), Err: err}
	}
	return &cfg, nil
}

// ConnectTimeout parses connection.connect_timeout. An empty value yields
// conncache.DefaultConnectTimeout.
func (c *ProjectConfig) ConnectTimeout() (time.Duration, error) {
	if c == nil || c.Connection.ConnectTimeout == "" {
		return conncache.DefaultConnectTimeout, nil
	}
	d, err := time.ParseDuration(c.Connection.ConnectTimeout)
	if err != nil {
		return 0, &conncache.ConfigError{Reason: fmt.Sprintf("invalid connect_timeout %q", c.Connection.ConnectTimeout), Err: err}
	}
	if d <= 0 {
		return 0, &conncache.ConfigError{Reason: fmt.Sprintf("connect_timeout must be positive, got %s", d)}
	}
	return d, nil
}
