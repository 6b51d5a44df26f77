package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rpattn/metaemit/internal/emitter"
	"github.com/rpattn/metaemit/internal/logger"
	"github.com/rpattn/metaemit/internal/transport"

	"github.com/spf13/viper"
)

// Config is the full process configuration.
type Config struct {
	Emitter emitter.Config
	Client  transport.ClientConfig
	Server  ServerConfig
	Log     logger.Config

	// Source is the config file that was read, empty when only defaults and
	// environment variables were used.
	Source string
}

// ServerConfig configures the HTTP front.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// Default returns the configuration used when no file or env override exists.
func Default() Config {
	client := transport.DefaultClientConfig()
	client.Server = "http://localhost:8080"
	return Config{
		Emitter: emitter.DefaultConfig(),
		Client:  client,
		Server: ServerConfig{
			Addr:           ":8090",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Log: logger.Config{
			Environment: "development",
			Level:       "info",
			ServiceName: "metaemit",
		},
	}
}

var envKeys = []string{
	"datahub.gms_server",
	"datahub.token",
	"datahub.actor",
	"datahub.env",
	"datahub.dataset_platform",
	"datahub.dashboard_platform",
	"client.timeout",
	"client.max_retries",
	"client.retry_initial_interval",
	"client.rate_limit",
	"client.rate_burst",
	"client.user_agent",
	"server.addr",
	"server.allowed_origins",
	"log.level",
	"log.environment",
}

// Load reads config.yaml from configPath, then applies METAEMIT_* environment
// overrides (e.g. METAEMIT_DATAHUB_TOKEN). A missing file is not an error.
func Load(configPath string) (Config, error) {
	// Start with default
	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.SetEnvPrefix("METAEMIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return cfg, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if configPath != "" {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return cfg, fmt.Errorf("read config: %w", err)
			}
		} else {
			cfg.Source = v.ConfigFileUsed()
		}
	}

	// Override defaults if values exist
	if v.IsSet("datahub.gms_server") {
		cfg.Emitter.GMSServer = v.GetString("datahub.gms_server")
		cfg.Client.Server = cfg.Emitter.GMSServer
	} else {
		cfg.Emitter.GMSServer = cfg.Client.Server
	}
	if v.IsSet("datahub.token") {
		cfg.Emitter.Token = v.GetString("datahub.token")
		cfg.Client.Token = cfg.Emitter.Token
	}
	if v.IsSet("datahub.actor") {
		cfg.Emitter.Actor = v.GetString("datahub.actor")
	}
	if v.IsSet("datahub.env") {
		cfg.Emitter.Env = v.GetString("datahub.env")
	}
	if v.IsSet("datahub.dataset_platform") {
		cfg.Emitter.DatasetPlatform = v.GetString("datahub.dataset_platform")
	}
	if v.IsSet("datahub.dashboard_platform") {
		cfg.Emitter.DashboardPlatform = v.GetString("datahub.dashboard_platform")
	}

	if v.IsSet("client.timeout") {
		cfg.Client.Timeout = v.GetDuration("client.timeout")
	}
	if v.IsSet("client.max_retries") {
		// The client treats 0 as unset; an explicit 0 here means no retries.
		cfg.Client.MaxRetries = v.GetInt("client.max_retries")
		if cfg.Client.MaxRetries == 0 {
			cfg.Client.MaxRetries = -1
		}
	}
	if v.IsSet("client.retry_initial_interval") {
		cfg.Client.RetryInitialInterval = v.GetDuration("client.retry_initial_interval")
	}
	if v.IsSet("client.rate_limit") {
		cfg.Client.RateLimit = v.GetFloat64("client.rate_limit")
	}
	if v.IsSet("client.rate_burst") {
		cfg.Client.RateBurst = v.GetInt("client.rate_burst")
	}
	if v.IsSet("client.user_agent") {
		cfg.Client.UserAgent = v.GetString("client.user_agent")
	}

	if v.IsSet("server.addr") {
		cfg.Server.Addr = v.GetString("server.addr")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}

	if v.IsSet("log.level") {
		cfg.Log.Level = v.GetString("log.level")
	}
	if v.IsSet("log.environment") {
		cfg.Log.Environment = v.GetString("log.environment")
	}

	if strings.TrimSpace(cfg.Emitter.GMSServer) == "" {
		return cfg, errors.New("datahub.gms_server must not be empty")
	}

	return cfg, nil
}
