package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "carepath/internal/platform/errors"
)

const (
	DefaultAPIBaseURL = "http://localhost:3000"
	DefaultTimeout    = 30 * time.Second
	fileName          = "config.yaml"
)

type Endpoints struct {
	Prescriptions     string `yaml:"prescriptions"`
	PrescriptionStart string `yaml:"prescription_start"`
	Habits            string `yaml:"habits"`
	HabitProgress     string `yaml:"habit_progress"`
}

type Config struct {
	HomeDir         string
	ConfigPath      string
	CredentialsPath string
	APIBaseURL      string
	Timeout         time.Duration
	LogLevel        string
	LogFile         string
	Endpoints       Endpoints
	// EnvToken comes from CAREPATH_TOKEN and is never written to disk.
	EnvToken        string
}

type fileConfig struct {
	APIBaseURL string    `yaml:"api_base_url"`
	Timeout    string    `yaml:"timeout"`
	LogLevel   string    `yaml:"log_level"`
	LogFile    string    `yaml:"log_file"`
	Endpoints  Endpoints `yaml:"endpoints"`
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		Prescriptions:     "/api/patient/prescriptions",
		PrescriptionStart: "/api/patient/prescriptions/{id}/start",
		Habits:            "/api/habits",
		HabitProgress:     "/api/habits/progress",
	}
}

// HomeDir resolves $CAREPATH_HOME, falling back to ~/.carepath.
func HomeDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("CAREPATH_HOME")); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".carepath"), nil
}

// New loads configPath (or the default location when empty). A missing file
// yields defaults; environment variables override the file.
func New(configPath string) (Config, error) {
	home, err := HomeDir()
	if err != nil {
		return Config{}, err
	}
	if configPath == "" {
		configPath = filepath.Join(home, fileName)
	}
	cfg := Config{
		HomeDir:         home,
		ConfigPath:      configPath,
		CredentialsPath: filepath.Join(home, "credentials.json"),
		APIBaseURL:      DefaultAPIBaseURL,
		Timeout:         DefaultTimeout,
		LogLevel:        "info",
		LogFile:         filepath.Join(home, "carepath.log"),
		Endpoints:       DefaultEndpoints(),
	}

	raw, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := cfg.apply(raw); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", configPath, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if v := strings.TrimSpace(os.Getenv("CAREPATH_API_URL")); v != "" {
		cfg.APIBaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("CAREPATH_LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	cfg.EnvToken = strings.TrimSpace(os.Getenv("CAREPATH_TOKEN"))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) apply(raw []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return err
	}
	if fc.APIBaseURL != "" {
		c.APIBaseURL = fc.APIBaseURL
	}
	if fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return fmt.Errorf("%w: timeout %q", apperrors.ErrInvalidInput, fc.Timeout)
		}
		c.Timeout = d
	}
	if fc.LogLevel != "" {
		c.LogLevel = fc.LogLevel
	}
	if fc.LogFile != "" {
		c.LogFile = fc.LogFile
	}
	if fc.Endpoints.Prescriptions != "" {
		c.Endpoints.Prescriptions = fc.Endpoints.Prescriptions
	}
	if fc.Endpoints.PrescriptionStart != "" {
		c.Endpoints.PrescriptionStart = fc.Endpoints.PrescriptionStart
	}
	if fc.Endpoints.Habits != "" {
		c.Endpoints.Habits = fc.Endpoints.Habits
	}
	if fc.Endpoints.HabitProgress != "" {
		c.Endpoints.HabitProgress = fc.Endpoints.HabitProgress
	}
	return nil
}

func (c Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: api_base_url %q", apperrors.ErrInvalidInput, c.APIBaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", apperrors.ErrInvalidInput)
	}
	if !strings.Contains(c.Endpoints.PrescriptionStart, "{id}") {
		return fmt.Errorf("%w: prescription_start must contain {id}", apperrors.ErrInvalidInput)
	}
	return nil
}

// Save writes the file-backed settings to ConfigPath.
func (c Config) Save() error {
	fc := fileConfig{
		APIBaseURL: c.APIBaseURL,
		Timeout:    c.Timeout.String(),
		LogLevel:   c.LogLevel,
		LogFile:    c.LogFile,
		Endpoints:  c.Endpoints,
	}
	raw, err := yaml.Marshal(fc)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.ConfigPath), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(c.ConfigPath, raw, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
