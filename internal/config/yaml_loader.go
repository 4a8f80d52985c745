// Package config provides configuration management for the session service.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// applyYAMLOverlay loads operational tuning values from YAML files based on
// the environment and merges them into the config. It first loads
// defaults.yaml, then overlays environment-specific configuration
// (local.yaml, nonprod.yaml, or prod.yaml). Both files are optional;
// values set through environment variables are not overridden.
func applyYAMLOverlay(cfg *Config) error {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("defaults")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../configs")
	v.AddConfigPath("../../configs")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// No tuning files shipped; env defaults stand.
			return nil
		}
		return fmt.Errorf("failed to read defaults config: %w", err)
	}

	envViper := viper.New()
	envViper.SetConfigType("yaml")
	envViper.SetConfigName(envConfigName(cfg.Environment.Environment))
	envViper.AddConfigPath("./configs")
	envViper.AddConfigPath("../configs")
	envViper.AddConfigPath("../../configs")

	if err := envViper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read environment config: %w", err)
		}
	} else {
		if mergeErr := v.MergeConfigMap(envViper.AllSettings()); mergeErr != nil {
			return fmt.Errorf("failed to merge environment config: %w", mergeErr)
		}
	}

	overlaySessionSettings(v, cfg)
	overlayResilienceSettings(v, cfg)

	return nil
}

// envConfigName maps the environment to its YAML config file name.
func envConfigName(env Environment) string {
	switch env {
	case NonProd:
		return "nonprod"
	case Prod:
		return "prod"
	case Local:
		fallthrough
	default:
		return "local"
	}
}

func overlaySessionSettings(v *viper.Viper, cfg *Config) {
	if v.IsSet("session.ttl") {
		if d := v.GetDuration("session.ttl"); d >= time.Minute {
			cfg.Session.TTL = d
		}
	}
	if v.IsSet("session.max_per_user") {
		if n := v.GetInt("session.max_per_user"); n > 0 {
			cfg.Session.MaxPerUser = n
		}
	}
	if v.IsSet("session.cleanup_interval") {
		if d := v.GetDuration("session.cleanup_interval"); d > 0 {
			cfg.Session.CleanupInterval = d
		}
	}
}

func overlayResilienceSettings(v *viper.Viper, cfg *Config) {
	if v.IsSet("resilience.retry_attempts") {
		if n := v.GetInt("resilience.retry_attempts"); n >= 0 {
			cfg.Resilience.RetryAttempts = n
		}
	}
	if v.IsSet("resilience.retry_delay") {
		if d := v.GetDuration("resilience.retry_delay"); d > 0 {
			cfg.Resilience.RetryDelay = d
		}
	}
	if v.IsSet("resilience.auto_logout_delay") {
		if d := v.GetDuration("resilience.auto_logout_delay"); d > 0 {
			cfg.Resilience.AutoLogoutDelay = d
		}
	}
}
