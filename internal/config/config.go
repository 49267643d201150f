package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"slices"
	"strings"

	errbuilder "github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/caarlos0/env/v11"
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/rs/zerolog/log"

	"github.com/ZanzyTHEbar/taskgraph/internal/domain"
)

// EnvPrefix prefixes every environment override, e.g. TASKGRAPH_ENGINE_WORKERS.
const EnvPrefix = "TASKGRAPH_"

// Strategies accepted by EngineConfig.Strategy.
var Strategies = []string{"serial", "spawn", "spin", "sleep"}

// Config holds all configuration settings for taskgraph.
type Config struct {
	System   SystemConfig   `json:"system" envPrefix:"SYSTEM_"`
	Engine   EngineConfig   `json:"engine" envPrefix:"ENGINE_"`
	Workload WorkloadConfig `json:"workload" envPrefix:"WORKLOAD_"`
	EventBus EventBusConfig `json:"eventBus" envPrefix:"EVENTBUS_"`
}

// SystemConfig holds general system settings.
type SystemConfig struct {
	LogLevel     string `json:"logLevel" env:"LOG_LEVEL"`         // trace, debug, info, warn, error
	LogFormat    string `json:"logFormat" env:"LOG_FORMAT"`       // console or json
	StatsEnabled bool   `json:"statsEnabled" env:"STATS_ENABLED"` // log group statistics after each run
}

// EngineConfig selects the scheduling strategy.
type EngineConfig struct {
	Strategy string `json:"strategy" env:"STRATEGY"`
	Workers  int    `json:"workers" env:"WORKERS"` // 0 = one per CPU
}

// WorkloadConfig describes the work driven through the engine by the CLI.
type WorkloadConfig struct {
	Name       string `json:"name" env:"NAME"`
	Size       int    `json:"size" env:"SIZE"`             // workload-specific problem size
	Iterations int    `json:"iterations" env:"ITERATIONS"` // timed repetitions per strategy; the fastest is reported
}

// EventBusConfig holds settings for the event bus.
type EventBusConfig struct {
	DefaultBufferSize int `json:"defaultBufferSize" env:"DEFAULT_BUFFER_SIZE"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		System: SystemConfig{
			LogLevel:  "info",
			LogFormat: "console",
		},
		Engine: EngineConfig{
			Strategy: "sleep",
			Workers:  min(runtime.NumCPU(), domain.MaxWorkers),
		},
		Workload: WorkloadConfig{
			Name:       "mandelbrot",
			Size:       400,
			Iterations: 3,
		},
		EventBus: EventBusConfig{
			DefaultBufferSize: 64,
		},
	}
}

// Load reads filePath (if it exists) over the defaults, then applies
// TASKGRAPH_* environment overrides.
func Load(filePath string) (*Config, error) {
	cfg, err := LoadFromFile(filePath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a JSON file. A missing file yields
// the defaults.
func LoadFromFile(filePath string) (*Config, error) {
	config := DefaultConfig()
	if filePath == "" {
		return config, nil
	}

	data, err := os.ReadFile(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug().Str("path", filePath).Msg("config file not found, using defaults")
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	log.Debug().Str("path", filePath).Msg("loaded configuration")
	return config, nil
}

// ApplyEnv overrides fields from TASKGRAPH_* environment variables.
func (c *Config) ApplyEnv() error {
	return env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix})
}

// SaveToFile saves the configuration to a JSON file.
func (c *Config) SaveToFile(filePath string) error {
	data, err := json.Marshal(c, jsontext.WithIndent("  "))
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	log.Debug().Str("path", filePath).Msg("saved configuration")
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf(format, args...))
	}

	switch strings.ToLower(c.System.LogFormat) {
	case "console", "json":
	default:
		return invalid("logFormat must be console or json, got %q", c.System.LogFormat)
	}

	if !slices.Contains(Strategies, strings.ToLower(c.Engine.Strategy)) {
		return invalid("strategy must be one of %s, got %q", strings.Join(Strategies, ", "), c.Engine.Strategy)
	}
	if c.Engine.Workers > domain.MaxWorkers {
		return invalid("workers must be at most %d, got %d", domain.MaxWorkers, c.Engine.Workers)
	}

	if c.Workload.Name == "" {
		return invalid("workload name must be set")
	}
	if c.Workload.Size < 1 {
		return invalid("workload size must be at least 1")
	}
	if c.Workload.Iterations < 1 {
		return invalid("iterations must be at least 1")
	}

	if c.EventBus.DefaultBufferSize < 1 {
		return invalid("defaultBufferSize must be at least 1")
	}
	return nil
}
