/*
Package env loads the process configuration from the environment.
*/
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the process configuration.
type Config struct {
	Addr         string `envconfig:"ADDR" default:":8000" validate:"required"`
	DatabasePath string `envconfig:"DATABASE_PATH" default:"forum.db" validate:"required"`

	// Each authenticator is enabled only when its setting is present.
	JWTSecret string `envconfig:"JWT_SECRET"`
	AuthURL   string `envconfig:"AUTH_URL" validate:"omitempty,url"`

	// Broadcasts are relayed between processes only when set.
	RabbitMQURL string `envconfig:"RABBITMQ_URL" validate:"omitempty,url"`

	SendBuffer     int           `envconfig:"SEND_BUFFER" default:"192" validate:"min=1"`
	WriteWait      time.Duration `envconfig:"WRITE_WAIT" default:"10s" validate:"gt=0"`
	PongWait       time.Duration `envconfig:"PONG_WAIT" default:"60s" validate:"gte=1s"`
	MaxMessageSize int64         `envconfig:"MAX_MESSAGE_SIZE" default:"4096" validate:"min=64"`

	PersistTimeout    time.Duration `envconfig:"PERSIST_TIMEOUT" default:"5s" validate:"gt=0"`
	MaxInflightWrites int64         `envconfig:"MAX_INFLIGHT_WRITES" default:"16" validate:"min=1"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s" validate:"gt=0"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
}

/*
Load reads the dotenv file at path into the environment, if it exists, and then
decodes and validates the configuration.  Variables already set in the
environment take precedence over the file.
*/
func Load(path string) (Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("cannot decode config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SlogLevel converts LogLevel to a slog level.
func (c Config) SlogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}
