package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-yaml/yaml"
)

// Defaults for anything the config file and environment leave unset.
const (
	DefaultPageSize  = 10
	DefaultThreshold = 0.70

	DefaultHTTPTimeout      = 30 * time.Second
	DefaultValidatorTimeout = 15 * time.Second
)

// Config holds everything the console needs to reach its collaborators.
// The confidence threshold is a deployment constant: different deployments
// of the classifier have run at 0.70 and 0.80, so it is never hard-coded.
type Config struct {
	APIBase       string `yaml:"apiBase"`
	ValidatorBase string `yaml:"validatorBase"`

	ConfidenceThreshold float64 `yaml:"confidenceThreshold"`
	PageSize            int     `yaml:"pageSize"`

	HTTPTimeout      time.Duration `yaml:"httpTimeout"`
	ValidatorTimeout time.Duration `yaml:"validatorTimeout"`

	// CaptureCommand is an external camera-capture command invoked with a
	// destination path, e.g. "libcamera-still -o". Empty means no camera.
	CaptureCommand string `yaml:"captureCommand"`

	// DBPath is the local client-state database (session, settings, owner
	// cache).
	DBPath string `yaml:"dbPath"`
}

// Load reads the YAML config file (if path is non-empty and the file
// exists), applies environment overrides, and fills in defaults.
func Load(path string) (Config, error) {
	var cfg Config

	if path != "" {
		file, err := os.Open(path)
		if err == nil {
			defer file.Close()
			if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
				return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("opening config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if cfg.ConfidenceThreshold <= 0 || cfg.ConfidenceThreshold > 1 {
		return Config{}, fmt.Errorf("confidence threshold %v out of range (0, 1]", cfg.ConfidenceThreshold)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("HERDBOOK_API_BASE"); v != "" {
		cfg.APIBase = v
	}
	if v := os.Getenv("HERDBOOK_VALIDATOR_BASE"); v != "" {
		cfg.ValidatorBase = v
	}
	if v := os.Getenv("HERDBOOK_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.ConfidenceThreshold = f
		}
	}
	if v := os.Getenv("HERDBOOK_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PageSize = n
		}
	}
	if v := os.Getenv("HERDBOOK_CAPTURE_COMMAND"); v != "" {
		cfg.CaptureCommand = v
	}
	if v := os.Getenv("HERDBOOK_DB"); v != "" {
		cfg.DBPath = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.ConfidenceThreshold == 0 {
		cfg.ConfidenceThreshold = DefaultThreshold
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = DefaultHTTPTimeout
	}
	if cfg.ValidatorTimeout <= 0 {
		cfg.ValidatorTimeout = DefaultValidatorTimeout
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "herdbook.sqlite3"
	}
}
