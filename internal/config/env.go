package config

import (
	"os"
	"strings"

	"github.com/vvka-141/conncache/pkg/conncache"
)

// URI environment variables, in lookup order.
var uriEnvVars = []string{"CONNCACHE_URI", "MONGODB_URI", "DATABASE_URL"}

// Environment name variables, in lookup order.
var environmentEnvVars = []string{"CONNCACHE_ENV", "APP_ENV"}

// ResolveURI picks the connection string: the flag value first, then the
// environment, then connection.uri from cfg. Returns "" when none is set;
// the cache reports that as a configuration error.
func ResolveURI(flagValue string, cfg *ProjectConfig) string {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v
	}
	if v := firstEnv(uriEnvVars); v != "" {
		return v
	}
	if cfg != nil {
		return strings.TrimSpace(cfg.Connection.URI)
	}
	return ""
}

// ResolveEnvironment returns the deployment environment name used in
// connection records.
func ResolveEnvironment(cfg *ProjectConfig) string {
	if v := firstEnv(environmentEnvVars); v != "" {
		return v
	}
	if cfg != nil && strings.TrimSpace(cfg.Environment) != "" {
		return strings.TrimSpace(cfg.Environment)
	}
	return conncache.DefaultEnvironment
}

// ResolveAppName returns connection.app_name or conncache.DefaultAppName.
func ResolveAppName(cfg *ProjectConfig) string {
	if cfg != nil && cfg.Connection.AppName != "" {
		return cfg.Connection.AppName
	}
	return conncache.DefaultAppName
}

func firstEnv(names []string) string {
	for _, name := range names {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}
