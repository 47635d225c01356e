package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/MrNobodyNowhere/secure-chat-app/pkg/database"
	"github.com/MrNobodyNowhere/secure-chat-app/pkg/log"
)

// Config is the full service configuration.
type Config struct {
	Environment string `mapstructure:"environment"`
	Server      ServerConfig
	WebSocket   WebSocketConfig
	Database    database.Config
	Auth        AuthConfig
	Log         log.Config
}

type ServerConfig struct {
	Host string
	Port int
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	SendBufferSize int           `mapstructure:"send_buffer_size"`
}

type AuthConfig struct {
	Secret   string        `mapstructure:"secret"`
	Issuer   string        `mapstructure:"issuer"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

// Load reads configuration from ./config/config.yaml (if present) and
// environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file; rely on defaults and env vars.
	}

	v.SetDefault("environment", "development")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("websocket.send_buffer_size", 256)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.file_path", "chat.db")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.issuer", "secure-chat")
	v.SetDefault("auth.token_ttl", "168h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.BindEnv("environment", "ENVIRONMENT")
	v.BindEnv("server.port", "PORT")
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.file_path", "DATABASE_FILE_PATH")
	v.BindEnv("auth.secret", "AUTH_SECRET")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)
	cfg.Auth.TokenTTL = parseDuration(v, "auth.token_ttl", 168*time.Hour)

	if cfg.Auth.Secret == "" {
		if cfg.Environment != "development" {
			return nil, errors.New("auth.secret is required outside development")
		}
		cfg.Auth.Secret = "dev-secret-change-me"
	}

	return &cfg, nil
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return defaultVal
	}
	return d
}
