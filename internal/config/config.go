// Package config loads controller settings from a YAML file, environment
// overrides and defaults, in that order of precedence (env wins).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/action"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/eval"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/mission"
)

const (
	BackendKinematic = "kinematic"
	BackendGRPC      = "grpc"
)

var validate = validator.New()

// #region types
// Config is the full controller configuration.
type Config struct {
	DBPath  string `yaml:"db_path" validate:"required"`
	Backend string `yaml:"backend" validate:"oneof=kinematic grpc"`
	SimAddr string `yaml:"sim_addr" validate:"required_if=Backend grpc"`
	// ScenePath points at a JSON scene description (targets, containers, goal).
	ScenePath   string        `yaml:"scene_path"`
	RPCTimeout  time.Duration `yaml:"rpc_timeout" validate:"gt=0"`
	MetricsAddr string        `yaml:"metrics_addr"`
	Trace       bool          `yaml:"trace"`

	Log     LogConfig       `yaml:"log"`
	Action  action.Config   `yaml:"action"`
	Goal    eval.EvalConfig `yaml:"goal"`
	Mission mission.Config  `yaml:"mission"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// #endregion types

// #region defaults
// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		DBPath:     "transport.db",
		Backend:    BackendKinematic,
		SimAddr:    "localhost:50051",
		RPCTimeout: 30 * time.Second,
		Log:        LogConfig{Level: "info", Format: "text"},
		Action:     action.DefaultConfig(),
		Goal:       eval.DefaultEvalConfig(),
		Mission:    mission.DefaultConfig(),
	}
}

// #endregion defaults

// #region load
// Load reads path (if non-empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.DBPath = envOr("TRANSPORT_DB", cfg.DBPath)
	cfg.Backend = envOr("TRANSPORT_BACKEND", cfg.Backend)
	cfg.SimAddr = envOr("SIM_ADDR", cfg.SimAddr)
	cfg.ScenePath = envOr("TRANSPORT_SCENE", cfg.ScenePath)
	cfg.Log.Level = envOr("TRANSPORT_LOG_LEVEL", cfg.Log.Level)
}

// #endregion load

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
