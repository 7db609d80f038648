package config

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/viper"
)

/* Config is resolved once at startup and passed explicitly into the
 * components that need it; nothing else reads the environment
 */

type Config struct {
	Port          string `mapstructure:"PORT"`
	SessionKey    string `mapstructure:"SESSION_KEY"`
	APIURL        string `mapstructure:"API_URL"`
	MetricsPort   string `mapstructure:"METRICS_PORT"`
	WebhookSecret string `mapstructure:"WEBHOOK_SECRET"`
	ForwardsFile  string `mapstructure:"FORWARDS_FILE"`

	DispatchTimeoutSeconds int `mapstructure:"DISPATCH_TIMEOUT_SECONDS"`
	DispatchMaxRetries     int `mapstructure:"DISPATCH_MAX_RETRIES"`
	DedupeTTLHours         int `mapstructure:"DEDUPE_TTL_HOURS"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
}

func GetConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("toml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Defaults also register the keys so AutomaticEnv picks them up
	viper.SetDefault("PORT", "3030")
	viper.SetDefault("SESSION_KEY", "")
	viper.SetDefault("API_URL", "")
	viper.SetDefault("METRICS_PORT", "")
	viper.SetDefault("WEBHOOK_SECRET", "")
	viper.SetDefault("FORWARDS_FILE", "")
	viper.SetDefault("DISPATCH_TIMEOUT_SECONDS", 10)
	viper.SetDefault("DISPATCH_MAX_RETRIES", 3)
	viper.SetDefault("DEDUPE_TTL_HOURS", 24)
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var config Config
	err = viper.Unmarshal(&config)
	if err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}

	if config.SessionKey == "" {
		return nil, fmt.Errorf("SESSION_KEY is required")
	}

	// An unparseable port falls back to the default rather than failing startup
	if _, err := strconv.Atoi(config.Port); err != nil {
		config.Port = "3030"
	}

	if config.DispatchMaxRetries < 0 {
		return nil, fmt.Errorf("DISPATCH_MAX_RETRIES cannot be negative")
	}

	return &config, nil
}
