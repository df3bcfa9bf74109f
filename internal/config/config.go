package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath overrides the default config file location.
const EnvConfigPath = "DOCSWAP_CONFIG"

type PDFConfig struct {
	FontName         string  `yaml:"font_name"`
	FallbackFontSize float64 `yaml:"fallback_font_size"`
	BaselineOffset   float64 `yaml:"baseline_offset"`
}

type XPTConfig struct {
	Version int `yaml:"version"`
}

type CleanupConfig struct {
	ExtractionDir bool `yaml:"extraction_dir"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	ModifiedSuffix  string        `yaml:"modified_suffix"`
	ExtractSuffix   string        `yaml:"extract_suffix"`
	PDF             PDFConfig     `yaml:"pdf"`
	XPT             XPTConfig     `yaml:"xpt"`
	Cleanup         CleanupConfig `yaml:"cleanup"`
	Report          bool          `yaml:"report"`
	MetricsTextfile string        `yaml:"metrics_textfile"`
	Log             LogConfig     `yaml:"log"`
}

func DefaultConfig() (*Config, error) {
	return &Config{
		ModifiedSuffix: "_modified",
		ExtractSuffix:  "_extracted",
		PDF: PDFConfig{
			FontName:         "Times-Roman",
			FallbackFontSize: 12,
			BaselineOffset:   2.5,
		},
		XPT: XPTConfig{Version: 8},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}, nil
}

// ConfigPath returns the config file location, honouring DOCSWAP_CONFIG.
func ConfigPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return ExpandPath(p)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".docswap", "config.yaml"), nil
}

func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path layered over the defaults.
// A missing file yields the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg, err := DefaultConfig()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if c.ModifiedSuffix == "" {
		return errors.New("modified_suffix must not be empty")
	}
	if c.ExtractSuffix == "" {
		return errors.New("extract_suffix must not be empty")
	}
	if c.ModifiedSuffix == c.ExtractSuffix {
		return errors.New("modified_suffix and extract_suffix must differ")
	}
	if c.PDF.FontName == "" {
		return errors.New("pdf.font_name must not be empty")
	}
	if c.PDF.FallbackFontSize <= 0 {
		return fmt.Errorf("pdf.fallback_font_size must be positive, got %v", c.PDF.FallbackFontSize)
	}
	if c.XPT.Version != 5 && c.XPT.Version != 8 {
		return fmt.Errorf("xpt.version must be 5 or 8, got %d", c.XPT.Version)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}

// ExpandPath expands ~ to home directory
func ExpandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot expand ~: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}
