package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/rotagrid/rotagrid/pkg/core/model"
)

// TransitionConfig names a forbidden day-to-day shift transition.
type TransitionConfig struct {
	From string `yaml:"from" validate:"required"`
	To   string `yaml:"to" validate:"required"`
}

// SolverConfig holds the CP-SAT invocation knobs.
type SolverConfig struct {
	TimeLimitSeconds int `yaml:"timeLimitSeconds" validate:"min=1"`
	Workers          int `yaml:"workers" validate:"min=1"`
	RandomSeed       int `yaml:"randomSeed"`
}

// RestConfig holds the rest-time rules.
type RestConfig struct {
	MinRestHours         int                `yaml:"minRestHours" validate:"min=0,max=24"`
	ForbiddenTransitions []TransitionConfig `yaml:"forbiddenTransitions" validate:"dive"`
}

// Config represents the application configuration
type Config struct {
	DatabaseURL        string       `yaml:"databaseURL" validate:"required"`
	DefaultRotation    []string     `yaml:"defaultRotation" validate:"required,min=1"`
	WeekendTotalCap    int          `yaml:"weekendTotalCap" validate:"min=1"`
	MaxConsecutiveDays int          `yaml:"maxConsecutiveDays" validate:"min=1"`
	MinMonthlyHours    int          `yaml:"minMonthlyHours" validate:"min=0"`
	Solver             SolverConfig `yaml:"solver"`
	Rest               RestConfig   `yaml:"rest"`
	LogDir             string       `yaml:"logDir,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// LoadWithEnv loads and validates the configuration with an environment suffix
// For example, env="test" will look for "rotagrid.test.yaml"
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration struct
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Settings maps the configuration onto the solver settings of the input
// bundle.
func (c *Config) Settings() model.Settings {
	s := model.DefaultSettings()
	s.DefaultRotation = c.DefaultRotation
	s.WeekendTotalCap = c.WeekendTotalCap
	s.MaxConsecutiveDays = c.MaxConsecutiveDays
	if c.MinMonthlyHours > 0 {
		s.MinMonthlyHours = c.MinMonthlyHours
	}
	s.TimeLimit = time.Duration(c.Solver.TimeLimitSeconds) * time.Second
	s.Workers = c.Solver.Workers
	s.RandomSeed = c.Solver.RandomSeed
	s.MinRestHours = c.Rest.MinRestHours
	if len(c.Rest.ForbiddenTransitions) > 0 {
		s.RestTransitions = nil
		for _, t := range c.Rest.ForbiddenTransitions {
			s.RestTransitions = append(s.RestTransitions, model.ShiftTransition{From: t.From, To: t.To})
		}
	}
	return s
}

func defaults() *Config {
	return &Config{
		DefaultRotation:    []string{"F", "N", "S"},
		WeekendTotalCap:    12,
		MaxConsecutiveDays: 6,
		MinMonthlyHours:    192,
		Solver: SolverConfig{
			TimeLimitSeconds: 300,
			Workers:          8,
		},
		Rest: RestConfig{
			MinRestHours: 11,
			ForbiddenTransitions: []TransitionConfig{
				{From: "S", To: "F"},
				{From: "N", To: "F"},
			},
		},
	}
}

// findConfigFile searches for config file in current directory and home directory
// If env is provided, it adds it as an extension (e.g., "rotagrid.test.yaml")
func findConfigFile(env string) (string, error) {
	configFileName := "rotagrid.yaml"
	if env != "" {
		configFileName = "rotagrid." + env + ".yaml"
	}

	// Check current directory
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file not found in current directory or home directory")
}
