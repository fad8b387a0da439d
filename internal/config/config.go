// Package config loads Typeboard configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/typeboard/typeboard/internal/domain"
)

// Prefix is prepended to every environment variable name.
const Prefix = "TYPEBOARD_"

// Load reads an optional .env file, picks the profile defaults and overlays
// any TYPEBOARD_* variables on top.
func Load(files ...string) (*domain.Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		// Missing files are fine; variables already set are never overwritten.
		_ = godotenv.Load(f)
	}
	return FromEnvironment(envMap())
}

// FromEnvironment builds a configuration from the supplied variables only.
func FromEnvironment(vars map[string]string) (*domain.Config, error) {
	cfg := domain.DefaultConfig()
	if domain.Profile(strings.ToLower(vars[Prefix+"PROFILE"])) == domain.ProfileCluster {
		cfg = domain.ClusterConfig()
	}

	if err := env.ParseWithOptions(cfg, env.Options{
		Prefix:      Prefix,
		Environment: vars,
	}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *domain.Config) error {
	switch cfg.Profile {
	case domain.ProfileStandalone, domain.ProfileCluster:
	default:
		return fmt.Errorf("unsupported profile: %s", cfg.Profile)
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	if cfg.Dashboard.ExportLimit < 0 {
		return fmt.Errorf("export limit must not be negative")
	}
	return nil
}

func envMap() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			out[k] = v
		}
	}
	return out
}
