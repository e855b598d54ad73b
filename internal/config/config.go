// Package config loads the conshell configuration: built-in defaults, then an
// optional YAML file, then CONSHELL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aretw0/conshell/internal/logging"
	"github.com/aretw0/conshell/pkg/domain"
	"github.com/caarlos0/env/v11"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CONSHELL_"

// PathEnv names the variable holding the config file path.
const PathEnv = EnvPrefix + "CONFIG"

const configFlag = "--config="

// Lock backends.
const (
	LockFile  = "file"
	LockRedis = "redis"
	LockNone  = "none"
)

// LockConfig selects the single-instance lock.
type LockConfig struct {
	Name      string `mapstructure:"name" env:"NAME"`
	Backend   string `mapstructure:"backend" env:"BACKEND"`
	Dir       string `mapstructure:"dir" env:"DIR"`
	RedisAddr string `mapstructure:"redis_addr" env:"REDIS_ADDR"`
}

// Config is the full runtime configuration.
type Config struct {
	Title        string        `mapstructure:"title" env:"TITLE"`
	Author       string        `mapstructure:"author" env:"AUTHOR"`
	Copyright    string        `mapstructure:"copyright" env:"COPYRIGHT"`
	Prompt       string        `mapstructure:"prompt" env:"PROMPT"`
	Marker       string        `mapstructure:"marker" env:"MARKER"`
	Host         string        `mapstructure:"host" env:"HOST"`
	Port         int           `mapstructure:"port" env:"PORT"`
	AllowInput   bool          `mapstructure:"allow_input" env:"ALLOW_INPUT"`
	Encoding     string        `mapstructure:"encoding" env:"ENCODING"`
	Reply        bool          `mapstructure:"reply" env:"REPLY"`
	MaxInputSize int           `mapstructure:"max_input_size" env:"MAX_INPUT_SIZE"`
	FlushDelay   time.Duration `mapstructure:"flush_delay" env:"FLUSH_DELAY"`
	DrainTimeout time.Duration `mapstructure:"drain_timeout" env:"DRAIN_TIMEOUT"`
	StatusAddr   string        `mapstructure:"status_addr" env:"STATUS_ADDR"`
	LogLevel     string        `mapstructure:"log_level" env:"LOG_LEVEL"`
	Lock         LockConfig    `mapstructure:"lock" envPrefix:"LOCK_"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Title:        "Console Application",
		Prompt:       "Input",
		Marker:       "-",
		Port:         6101,
		AllowInput:   true,
		Encoding:     "utf-8",
		MaxInputSize: 4096,
		FlushDelay:   500 * time.Millisecond,
		DrainTimeout: 5 * time.Second,
		Lock:         LockConfig{Backend: LockFile},
	}
}

// Load layers the file at path (optional) and the environment over Default.
// A nil environ reads the process environment.
func Load(path string, environ map[string]string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	opts := env.Options{Prefix: EnvPrefix, Environment: environ}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return cfg, fmt.Errorf("%w: parse env: %v", domain.ErrValidation, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: parse config %s: %v", domain.ErrValidation, path, err)
	}
	if raw == nil {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("%w: decode config %s: %v", domain.ErrValidation, path, err)
	}
	return nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if strings.TrimSpace(c.Marker) == "" {
		errs = append(errs, errors.New("marker must not be empty"))
	}
	if strings.TrimSpace(c.Prompt) == "" {
		errs = append(errs, errors.New("prompt must not be empty"))
	}
	switch c.Lock.Backend {
	case LockFile, LockNone:
	case LockRedis:
		if c.Lock.RedisAddr == "" {
			errs = append(errs, errors.New("lock.redis_addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown lock backend %q", c.Lock.Backend))
	}
	if c.MaxInputSize < 1 {
		errs = append(errs, fmt.Errorf("max_input_size %d must be positive", c.MaxInputSize))
	}
	if c.FlushDelay < 0 || c.DrainTimeout < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	if _, _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrValidation, errors.Join(errs...))
	}
	return nil
}

// SplitPath extracts a leading --config=<path> token from args.
func SplitPath(args []string) (path string, rest []string) {
	if len(args) > 0 && strings.HasPrefix(args[0], configFlag) {
		return strings.TrimPrefix(args[0], configFlag), args[1:]
	}
	return "", args
}

// Path returns the config file path named by args or, failing that, by
// CONSHELL_CONFIG in environ. A nil environ reads the process environment.
func Path(args []string, environ map[string]string) (path string, rest []string) {
	path, rest = SplitPath(args)
	if path != "" {
		return path, rest
	}
	if environ == nil {
		return os.Getenv(PathEnv), rest
	}
	return environ[PathEnv], rest
}
