package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

const (
	HeaderCompact  = "compact"
	HeaderDetailed = "detailed"

	LayoutList = "list"
	LayoutGrid = "grid"

	defaultTestURL = "https://www.gstatic.com/generate_204"
)

type Config struct {
	Controller      Controller `json:"controller" validate:"required"`
	VergeConfigPath string     `json:"verge_config_path" validate:"required"`
	IconCacheDir    string     `json:"icon_cache_dir" validate:"required,dir"`
	RefreshInterval int        `json:"refresh_interval" validate:"gte=0"`
	View            View       `json:"view"`
	Probe           Probe      `json:"probe"`
	API             API        `json:"api"`
}

type Controller struct {
	URL       string `json:"url" validate:"required,url"`
	Secret    string `json:"secret"`
	TimeoutMs int    `json:"timeout_ms" validate:"gte=100"`
}

type View struct {
	Header  string `json:"header" validate:"header"`
	Layout  string `json:"layout" validate:"layout"`
	Columns int    `json:"columns" validate:"gte=1,lte=8"`
	Indent  bool   `json:"indent"`
}

type Probe struct {
	TestURL           string `json:"test_url" validate:"url"`
	TimeoutMs         int    `json:"timeout_ms" validate:"gte=100"`
	AutoCheckInterval int    `json:"auto_check_interval" validate:"gte=0"`
}

type API struct {
	Addr        string `json:"addr" validate:"required"`
	MetricsPath string `json:"metrics_path" validate:"required,startswith=/"`
}

func (c Controller) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

func (p Probe) Timeout() time.Duration {
	return time.Duration(p.TimeoutMs) * time.Millisecond
}

// AutoCheckEvery is the minimum spacing between automatic probes of one group.
// Zero disables repeats after the first automatic probe.
func (p Probe) AutoCheckEvery() time.Duration {
	return time.Duration(p.AutoCheckInterval) * time.Second
}

func (c *Config) RefreshEvery() time.Duration {
	return time.Duration(c.RefreshInterval) * time.Second
}

// NewConfig creates a new Config instance from the environment
func NewConfig() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	return Parse(data)
}

// Parse decodes, defaults and validates a JSON configuration document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	applyDefaults(&cfg)

	// Create required directories if they don't exist
	if err := ensureDirectories(&cfg); err != nil {
		return nil, fmt.Errorf("failed to create required directories: %w", err)
	}

	// Validate the configuration
	if err := validate.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return nil, formatValidationErrors(validationErrors)
		}
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Controller.TimeoutMs == 0 {
		cfg.Controller.TimeoutMs = 5000
	}
	if cfg.View.Header == "" {
		cfg.View.Header = HeaderCompact
	}
	if cfg.View.Layout == "" {
		cfg.View.Layout = LayoutGrid
	}
	if cfg.View.Columns == 0 {
		cfg.View.Columns = 2
	}
	if cfg.Probe.TestURL == "" {
		cfg.Probe.TestURL = defaultTestURL
	}
	if cfg.Probe.TimeoutMs == 0 {
		cfg.Probe.TimeoutMs = 10000
	}
	if cfg.API.Addr == "" {
		cfg.API.Addr = "127.0.0.1:9098"
	}
	if cfg.API.MetricsPath == "" {
		cfg.API.MetricsPath = "/metrics"
	}
}

// ensureDirectories creates required directories if they don't exist
func ensureDirectories(cfg *Config) error {
	dirs := []struct {
		path string
		name string
	}{
		{cfg.IconCacheDir, "icon cache"},
	}
	if cfg.VergeConfigPath != "" {
		dirs = append(dirs, struct {
			path string
			name string
		}{filepath.Dir(cfg.VergeConfigPath), "verge config"})
	}

	for _, dir := range dirs {
		if dir.path == "" {
			continue
		}
		if err := os.MkdirAll(dir.path, 0755); err != nil {
			return fmt.Errorf("failed to create %s directory at %s: %w",
				dir.name, dir.path, err)
		}
	}

	return nil
}

// Custom validators
func init() {
	validate = validator.New()

	if err := validate.RegisterValidation("dir", validateDir); err != nil {
		panic(fmt.Sprintf("failed to register dir validator: %v", err))
	}
	if err := validate.RegisterValidation("header", validateHeader); err != nil {
		panic(fmt.Sprintf("failed to register header validator: %v", err))
	}
	if err := validate.RegisterValidation("layout", validateLayout); err != nil {
		panic(fmt.Sprintf("failed to register layout validator: %v", err))
	}
}

func validateDir(fl validator.FieldLevel) bool {
	path := fl.Field().String()
	if info, err := os.Stat(path); err != nil {
		return false
	} else {
		return info.IsDir()
	}
}

func validateHeader(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case HeaderCompact, HeaderDetailed:
		return true
	default:
		return false
	}
}

func validateLayout(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case LayoutList, LayoutGrid:
		return true
	default:
		return false
	}
}

// formatValidationErrors formats validation errors into a user-friendly error message
func formatValidationErrors(errors validator.ValidationErrors) error {
	var errMsgs []string
	for _, err := range errors {
		errMsgs = append(errMsgs, fmt.Sprintf(
			"field '%s' failed validation: %s",
			err.Field(),
			err.Tag(),
		))
	}
	return fmt.Errorf("validation errors: %v", errMsgs)
}
