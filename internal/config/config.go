package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFileEnvName = "SHOP_CONFIG_FILE"

// Config holds the application settings. Every key can be overridden
// through the environment variable of the same name.
type Config struct {
	AppPort        string        `mapstructure:"APP_PORT"`
	DatabaseDriver string        `mapstructure:"DATABASE_DRIVER"`
	DatabaseDSN    string        `mapstructure:"DATABASE_DSN"`
	SessionSecret  string        `mapstructure:"SESSION_SECRET"`
	SessionLength  time.Duration `mapstructure:"SESSION_LENGTH"`
	RabbitMQURL    string        `mapstructure:"RABBITMQ_URL"`
	ProxyTimeout   time.Duration `mapstructure:"PROXY_TIMEOUT"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	LogFormat      string        `mapstructure:"LOG_FORMAT"`
}

// Load reads the configuration from defaults, an optional config file
// (--config flag or SHOP_CONFIG_FILE) and the environment, in that order of
// increasing precedence.
func Load(args []string) (Config, error) {
	v := viper.New()
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "shop.db")
	v.SetDefault("SESSION_SECRET", "change-me")
	v.SetDefault("SESSION_LENGTH", "336h")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("PROXY_TIMEOUT", "10s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	flags := pflag.NewFlagSet("footballshop", pflag.ContinueOnError)
	configFile := flags.String("config", "", "config file (yaml, toml or json)")
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}
	_ = v.BindEnv("config", configFileEnvName)
	if *configFile == "" {
		*configFile = v.GetString("config")
	}
	if *configFile != "" {
		v.SetConfigFile(*configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", *configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.ProxyTimeout <= 0 {
		return fmt.Errorf("PROXY_TIMEOUT must be positive, got %s", c.ProxyTimeout)
	}
	return nil
}
