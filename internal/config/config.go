package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// GatingConfig holds the confidence thresholds and escalation bounds.
type GatingConfig struct {
	// ProceedThreshold is the aggregate confidence at or above which the
	// engine proceeds automatically (absent a risk override).
	ProceedThreshold int `yaml:"proceed_threshold"`

	// PresentThreshold is the aggregate confidence at or above which the
	// engine presents options instead of escalating.
	PresentThreshold int `yaml:"present_threshold"`

	// EscalationCap bounds the escalation loop's iteration count.
	EscalationCap int `yaml:"escalation_cap"`

	// CriticalPenalty is subtracted from the aggregate when a CRITICAL
	// finding is present without high per-finding confidence.
	CriticalPenalty int `yaml:"critical_penalty"`
}

// CalibrationConfig configures the familiarity store.
type CalibrationConfig struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"db_path"`

	// MinFamiliarRuns is the validated-run count below which a worker's
	// contribution is adjusted down by one point.
	MinFamiliarRuns int `yaml:"min_familiar_runs"`

	// KeepDays is the retention window for invocation records.
	KeepDays int `yaml:"keep_days"`
}

// Config holds delegator configuration.
type Config struct {
	// WorkerTimeout bounds each worker invocation.
	WorkerTimeout time.Duration `yaml:"worker_timeout"`

	// MaxConcurrency bounds concurrent worker invocations per dispatch
	// (0 = one slot per worker).
	MaxConcurrency int `yaml:"max_concurrency"`

	// WorkersDir is the directory scanned for worker definition files.
	WorkersDir string `yaml:"workers_dir"`

	// ContractOverrides is an optional schema contract override file.
	ContractOverrides string `yaml:"contract_overrides"`

	// RepoDir is the working tree the context provider snapshots
	// (empty = current directory).
	RepoDir string `yaml:"repo_dir"`

	LogLevel string `yaml:"log_level"`
	LogDir   string `yaml:"log_dir"`

	Gating      GatingConfig      `yaml:"gating"`
	Calibration CalibrationConfig `yaml:"calibration"`
}

// DefaultConfig returns a Config with the documented default values.
func DefaultConfig() *Config {
	return &Config{
		WorkerTimeout:  10 * time.Minute,
		MaxConcurrency: 0,
		WorkersDir:     "", // resolved against the delegator home
		LogLevel:       "info",
		LogDir:         ".delegator/logs",
		Gating: GatingConfig{
			ProceedThreshold: 8,
			PresentThreshold: 5,
			EscalationCap:    3,
			CriticalPenalty:  2,
		},
		Calibration: CalibrationConfig{
			Enabled:         true,
			DBPath:          ".delegator/calibration.db",
			MinFamiliarRuns: 3,
			KeepDays:        90,
		},
	}
}

// LoadConfig reads a YAML config file over the defaults. A missing file
// returns the defaults unchanged.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration is internally consistent.
func (c *Config) Validate() error {
	g := c.Gating
	if g.ProceedThreshold < 1 || g.ProceedThreshold > 10 {
		return fmt.Errorf("proceed_threshold must be within [1,10], got %d", g.ProceedThreshold)
	}
	if g.PresentThreshold < 1 || g.PresentThreshold > 10 {
		return fmt.Errorf("present_threshold must be within [1,10], got %d", g.PresentThreshold)
	}
	if g.PresentThreshold >= g.ProceedThreshold {
		return fmt.Errorf("present_threshold (%d) must be below proceed_threshold (%d)",
			g.PresentThreshold, g.ProceedThreshold)
	}
	if g.EscalationCap < 1 {
		return fmt.Errorf("escalation_cap must be at least 1, got %d", g.EscalationCap)
	}
	if g.CriticalPenalty < 0 {
		return fmt.Errorf("critical_penalty cannot be negative, got %d", g.CriticalPenalty)
	}
	if c.WorkerTimeout <= 0 {
		return fmt.Errorf("worker_timeout must be positive, got %s", c.WorkerTimeout)
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency cannot be negative, got %d", c.MaxConcurrency)
	}
	return nil
}
