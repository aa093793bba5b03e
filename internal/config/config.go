package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/annotator/internal/domain"
	"github.com/kailas-cloud/annotator/internal/domain/annotation"
)

// Config holds the annotator service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Render   RenderConfig   `yaml:"render"`
	HitTest  HitTestConfig  `yaml:"hit_test"`
	Import   ImportConfig   `yaml:"import"`
	Taxonomy TaxonomyConfig `yaml:"taxonomy"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds taxonomy store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, sqlite (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	SQLitePath       string   `yaml:"sqlite_path"`
}

// RenderConfig holds page layout and document limits.
type RenderConfig struct {
	Scale            float64 `yaml:"scale"`
	PageGap          float64 `yaml:"page_gap"`
	ContainerLeft    float64 `yaml:"container_left"`
	LabelOffset      float64 `yaml:"label_offset"`
	ChooserGap       float64 `yaml:"chooser_gap"`
	ChooserWidth     float64 `yaml:"chooser_width"`
	ChooserHeight    float64 `yaml:"chooser_height"`
	DefaultColor     string  `yaml:"default_color"`
	MaxDocumentBytes int64   `yaml:"max_document_bytes"`
}

// HitTestConfig holds pointer hit-test settings.
type HitTestConfig struct {
	Tolerance float64 `yaml:"tolerance"`
}

// ImportConfig bounds annotation file uploads.
type ImportConfig struct {
	MaxBytes int64 `yaml:"max_bytes"`
}

// TaxonomyConfig holds the catalog written to an empty store on startup.
type TaxonomyConfig struct {
	SeedLabels []string          `yaml:"seed_labels"`
	SeedColors []SeedColorConfig `yaml:"seed_colors"`
}

// SeedColorConfig is one named color of the seed catalog.
type SeedColorConfig struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// Engine converts the render and hit-test sections into engine tuning.
func (c *Config) Engine() domain.EngineConfig {
	return domain.EngineConfig{
		Scale:         c.Render.Scale,
		PageGap:       c.Render.PageGap,
		ContainerLeft: c.Render.ContainerLeft,
		HitTolerance:  c.HitTest.Tolerance,
		LabelOffset:   c.Render.LabelOffset,
		ChooserGap:    c.Render.ChooserGap,
		ChooserWidth:  c.Render.ChooserWidth,
		ChooserHeight: c.Render.ChooserHeight,
		DefaultColor:  c.Render.DefaultColor,
	}
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "annotator.db"
	}

	d := domain.DefaultEngineConfig()
	if c.Render.Scale <= 0 {
		c.Render.Scale = d.Scale
	}
	if c.Render.PageGap <= 0 {
		c.Render.PageGap = d.PageGap
	}
	if c.Render.LabelOffset <= 0 {
		c.Render.LabelOffset = d.LabelOffset
	}
	if c.Render.ChooserGap <= 0 {
		c.Render.ChooserGap = d.ChooserGap
	}
	if c.Render.ChooserWidth <= 0 {
		c.Render.ChooserWidth = d.ChooserWidth
	}
	if c.Render.ChooserHeight <= 0 {
		c.Render.ChooserHeight = d.ChooserHeight
	}
	if c.Render.DefaultColor == "" {
		c.Render.DefaultColor = d.DefaultColor
	}
	if c.Render.MaxDocumentBytes <= 0 {
		c.Render.MaxDocumentBytes = 64 << 20
	}
	if c.HitTest.Tolerance <= 0 {
		c.HitTest.Tolerance = d.HitTolerance
	}
	if c.Import.MaxBytes <= 0 {
		c.Import.MaxBytes = 8 << 20
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = domain.KeyPrefix
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "valkey", "redis":
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	case "sqlite":
	default:
		return fmt.Errorf("database.driver must be \"valkey\", \"redis\" or \"sqlite\", got %q", c.Database.Driver)
	}
	if _, err := annotation.NormalizeColor(c.Render.DefaultColor); err != nil {
		return fmt.Errorf("render.default_color: %w", err)
	}
	for i, sc := range c.Taxonomy.SeedColors {
		if _, err := annotation.NormalizeColor(sc.Value); err != nil {
			return fmt.Errorf("taxonomy.seed_colors[%d]: %w", i, err)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
