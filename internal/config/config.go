package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Site contains connection settings for the remote catalog.
type Site struct {
	BaseURL        string `toml:"base_url"`
	ConsumerKey    string `toml:"consumer_key"`
	ConsumerSecret string `toml:"consumer_secret"`
	Username       string `toml:"username"`
	AppPassword    string `toml:"app_password"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Products contains the default fields applied to every created product.
type Products struct {
	Status            string `toml:"status"`
	RegularPrice      string `toml:"regular_price"`
	SalePrice         string `toml:"sale_price"`
	ManageStock       bool   `toml:"manage_stock"`
	StockQuantity     int    `toml:"stock_quantity"`
	StockStatus       string `toml:"stock_status"`
	DefaultCategoryID int64  `toml:"default_category_id"`
}

// Upload contains scheduling knobs for the bulk upload engine.
type Upload struct {
	Concurrent       bool `toml:"concurrent"`
	MaxWorkers       int  `toml:"max_workers"`
	ItemDelaySeconds int  `toml:"item_delay_seconds"`
	WorkerStartDelay int  `toml:"worker_start_delay_ms"`
	DrainTimeout     int  `toml:"drain_timeout_ms"`
	MaxImagesPerItem int  `toml:"max_images_per_item"`
	MaxPixelDim      int  `toml:"max_pixel_dim"`
}

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for stockist.
//
// Configuration sections by subsystem:
//   - Site: remote catalog endpoint and credentials
//   - Products: default fields stamped onto created products
//   - Upload: worker pool sizing, delays, and image limits
//   - Paths: data and log directories
//   - Logging: log format and level
type Config struct {
	Site     Site     `toml:"site"`
	Products Products `toml:"products"`
	Upload   Upload   `toml:"upload"`
	Paths    Paths    `toml:"paths"`
	Logging  Logging  `toml:"logging"`
}

// SampleConfig returns the embedded sample configuration file contents.
func SampleConfig() string {
	return sampleConfig
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/stockist/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("STOCKIST_CONSUMER_KEY")); v != "" {
		cfg.Site.ConsumerKey = v
	}
	if v := strings.TrimSpace(os.Getenv("STOCKIST_CONSUMER_SECRET")); v != "" {
		cfg.Site.ConsumerSecret = v
	}
	if v := strings.TrimSpace(os.Getenv("STOCKIST_APP_PASSWORD")); v != "" {
		cfg.Site.AppPassword = v
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("stockist.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// StorePath returns the SQLite database location backing both stores.
func (c *Config) StorePath() string {
	return filepath.Join(c.Paths.DataDir, "stockist.db")
}

// LockPath returns the lock file guarding against concurrent runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "stockist.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
