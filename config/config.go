// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	configPath = pflag.String("config", ".", "Directory to look for a config.toml file in")

	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}
	validProviders = []string{"gemini", "openai"}
)

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(*configPath)

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("host.port", "host_port")

	v.BindEnv("db.driver", "db_driver")
	v.BindEnv("db.path", "db_path")
	v.BindEnv("db.dsn", "db_dsn")

	v.BindEnv("generation.provider", "generation_provider")
	v.BindEnv("generation.api_key", "generation_api_key")
	v.BindEnv("generation.model", "generation_model")
	v.BindEnv("generation.base_url", "generation_base_url")
	v.BindEnv("generation.system_prompt", "generation_system_prompt")
	v.BindEnv("generation.temperature", "generation_temperature")
	v.BindEnv("generation.max_tokens", "generation_max_tokens")

	v.BindEnv("tts.url", "tts_url")
	v.BindEnv("tts.language", "tts_language")
	v.BindEnv("tts.speaker", "tts_speaker")

	v.BindEnv("quota.free_limit", "quota_free_limit")
	v.BindEnv("quota.pro_limit", "quota_pro_limit")
	v.BindEnv("quota.enterprise_limit", "quota_enterprise_limit")
	v.BindEnv("quota.key_ttl_days", "quota_key_ttl_days")

	v.BindEnv("auth.rate_limit.rps", "auth_rate_limit_rps")
	v.BindEnv("auth.rate_limit.burst", "auth_rate_limit_burst")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8000)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.path", "obala_users.db")

	v.SetDefault("generation.provider", "gemini")
	v.SetDefault("generation.model", "gemini-2.0-flash")
	v.SetDefault("generation.system_prompt", "You are OBALA, an Akan Twi-speaking assistant developed by WAIT Technologies. Always respond in Akan Twi.")
	v.SetDefault("generation.temperature", 0.4)
	v.SetDefault("generation.max_tokens", 400)

	v.SetDefault("tts.language", "Asante Twi")
	v.SetDefault("tts.speaker", "Male (Low)")

	v.SetDefault("quota.free_limit", 200)
	v.SetDefault("quota.pro_limit", 5000)
	v.SetDefault("quota.enterprise_limit", 50000)
	v.SetDefault("quota.key_ttl_days", 30)

	v.SetDefault("auth.rate_limit.rps", 5)
	v.SetDefault("auth.rate_limit.burst", 10)

	if err := v.ReadInConfig(); err != nil {
		// A config file is optional, everything can come from envs
		if _, ok := err.(v.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file, %w", err)
		}
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	switch v.GetString("db.driver") {
	case "sqlite":
		if v.GetString("db.path") == "" {
			return errors.New("db.path can't be empty")
		}
	case "postgres":
		if v.GetString("db.dsn") == "" {
			return errors.New("db.dsn can't be empty")
		}
	default:
		return errors.New("invalid db driver provided")
	}

	if !slices.Contains(validProviders, v.GetString("generation.provider")) {
		return errors.New("invalid generation provider provided")
	}

	// Never a source literal. Must come from the environment or the
	// config file
	if v.GetString("generation.api_key") == "" {
		return errors.New("generation.api_key is missing")
	}

	if v.GetString("generation.provider") == "openai" && v.GetString("generation.base_url") == "" {
		return errors.New("generation.base_url is required for the openai provider")
	}

	if v.GetString("tts.url") == "" {
		return errors.New("tts.url is missing")
	}

	for _, k := range []string{"quota.free_limit", "quota.pro_limit", "quota.enterprise_limit", "quota.key_ttl_days"} {
		if v.GetInt(k) <= 0 {
			return fmt.Errorf("%s must be bigger than 0", k)
		}
	}

	return nil
}
