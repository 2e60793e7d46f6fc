package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. WEEKPLAN_SERVER_GRPC_ADDR.
const EnvPrefix = "WEEKPLAN_"

// ErrInvalidConfig is returned when configuration values are out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" envPrefix:"SERVER_"`
	Storage   StorageConfig   `yaml:"storage" envPrefix:"STORAGE_"`
	Planner   PlannerConfig   `yaml:"planner" envPrefix:"PLANNER_"`
	Advisor   AdvisorConfig   `yaml:"advisor" envPrefix:"ADVISOR_"`
	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
	Telemetry TelemetryConfig `yaml:"telemetry" envPrefix:"TELEMETRY_"`
}

// ServerConfig holds listener addresses.
type ServerConfig struct {
	GRPCAddr  string `yaml:"grpc_addr" env:"GRPC_ADDR"`
	HTTPAddr  string `yaml:"http_addr" env:"HTTP_ADDR"`
	DebugAddr string `yaml:"debug_addr" env:"DEBUG_ADDR"`
}

// StorageConfig points at the catalog database.
type StorageConfig struct {
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH"`
}

// PlannerConfig holds the knobs of a planning run.
type PlannerConfig struct {
	// BufferHours is reserved for meetings and overhead before project
	// allocation.
	BufferHours float64 `yaml:"buffer_hours" env:"BUFFER_HOURS"`

	// OverloadThreshold is the utilization above which a plan is flagged.
	OverloadThreshold float64 `yaml:"overload_threshold" env:"OVERLOAD_THRESHOLD"`

	// ProposalTimeout bounds each advisory call.
	ProposalTimeout time.Duration `yaml:"proposal_timeout" env:"PROPOSAL_TIMEOUT"`

	// ProposalRetries is the number of extra attempts after a retryable failure.
	ProposalRetries int `yaml:"proposal_retries" env:"PROPOSAL_RETRIES"`

	// RetryInitialInterval is the first backoff delay between attempts.
	RetryInitialInterval time.Duration `yaml:"retry_initial_interval" env:"RETRY_INITIAL_INTERVAL"`

	Schedule ScheduleConfig `yaml:"schedule" envPrefix:"SCHEDULE_"`
}

// ScheduleConfig controls slot allocation.
type ScheduleConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// Days is the number of consecutive days from the week start that
	// receive slots.
	Days          int           `yaml:"days" env:"DAYS"`
	DayStartHour  int           `yaml:"day_start_hour" env:"DAY_START_HOUR"`
	DailyCapHours float64       `yaml:"daily_cap_hours" env:"DAILY_CAP_HOURS"`
	SlotMinutes   int           `yaml:"slot_minutes" env:"SLOT_MINUTES"`
	MaxIterations int           `yaml:"max_iterations" env:"MAX_ITERATIONS"`
	TimeBudget    time.Duration `yaml:"time_budget" env:"TIME_BUDGET"`
}

// AdvisorConfig selects the advisory service.
type AdvisorConfig struct {
	// Provider is "genai" or "static".
	Provider string `yaml:"provider" env:"PROVIDER"`
	APIKey   string `yaml:"api_key" env:"API_KEY"`
	Model    string `yaml:"model" env:"MODEL"`

	// FixturePath is the YAML file served by the static provider.
	FixturePath string `yaml:"fixture_path" env:"FIXTURE_PATH"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// TelemetryConfig controls OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled" env:"ENABLED"`
	Endpoint    string `yaml:"endpoint" env:"ENDPOINT"`
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			GRPCAddr:  ":50051",
			HTTPAddr:  ":8080",
			DebugAddr: ":6060",
		},
		Storage: StorageConfig{
			SQLitePath: "weekplan.db",
		},
		Planner: PlannerConfig{
			BufferHours:          5.0,
			OverloadThreshold:    0.9,
			ProposalTimeout:      30 * time.Second,
			ProposalRetries:      1,
			RetryInitialInterval: 500 * time.Millisecond,
			Schedule: ScheduleConfig{
				Enabled:       false,
				Days:          5,
				DayStartHour:  9,
				DailyCapHours: 8,
				SlotMinutes:   30,
				MaxIterations: 10000,
				TimeBudget:    250 * time.Millisecond,
			},
		},
		Advisor: AdvisorConfig{
			Provider: "genai",
			Model:    "gemini-2.5-flash",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "weekplan",
		},
	}
}

// Load builds configuration from defaults, then the YAML file at path (if
// non-empty), then WEEKPLAN_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	p := c.Planner
	if p.BufferHours < 0 || math.IsNaN(p.BufferHours) || math.IsInf(p.BufferHours, 0) {
		return fmt.Errorf("%w: planner.buffer_hours must be a finite value >= 0, got %v",
			ErrInvalidConfig, p.BufferHours)
	}
	if p.OverloadThreshold <= 0 || math.IsNaN(p.OverloadThreshold) {
		return fmt.Errorf("%w: planner.overload_threshold must be > 0, got %v",
			ErrInvalidConfig, p.OverloadThreshold)
	}
	if p.ProposalTimeout <= 0 {
		return fmt.Errorf("%w: planner.proposal_timeout must be positive, got %s",
			ErrInvalidConfig, p.ProposalTimeout)
	}
	if p.ProposalRetries < 0 {
		return fmt.Errorf("%w: planner.proposal_retries must be >= 0, got %d",
			ErrInvalidConfig, p.ProposalRetries)
	}

	s := p.Schedule
	if s.Enabled {
		if s.Days < 1 || s.Days > 7 {
			return fmt.Errorf("%w: planner.schedule.days must be in [1,7], got %d",
				ErrInvalidConfig, s.Days)
		}
		if s.DayStartHour < 0 || s.DayStartHour > 23 {
			return fmt.Errorf("%w: planner.schedule.day_start_hour must be in [0,23], got %d",
				ErrInvalidConfig, s.DayStartHour)
		}
		if s.SlotMinutes <= 0 || s.SlotMinutes > 24*60 {
			return fmt.Errorf("%w: planner.schedule.slot_minutes must be in (0,1440], got %d",
				ErrInvalidConfig, s.SlotMinutes)
		}
		if s.DailyCapHours < 0 || float64(s.DayStartHour)+s.DailyCapHours > 24 {
			return fmt.Errorf("%w: planner.schedule.daily_cap_hours must fit in the day, got %v from hour %d",
				ErrInvalidConfig, s.DailyCapHours, s.DayStartHour)
		}
	}

	switch c.Advisor.Provider {
	case "genai", "static":
	default:
		return fmt.Errorf("%w: advisor.provider must be genai or static, got %q",
			ErrInvalidConfig, c.Advisor.Provider)
	}
	return nil
}
