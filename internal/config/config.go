package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/hong9883/ai-drug-approval-test/internal/models"
)

// DefaultBackendURL is the API root of a locally running backend.
// Override at build time with: go build -ldflags "-X github.com/hong9883/ai-drug-approval-test/internal/config.DefaultBackendURL=https://review.example.com/api"
var DefaultBackendURL = "http://localhost:8080/api"

const (
	envPrefix      = "REVIEWDESK"
	configFileName = "config.yaml"
)

// Config represents the application configuration
type Config struct {
	BackendURL     string        `yaml:"backend_url" mapstructure:"backend_url"`
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
	DownloadDir    string        `yaml:"download_dir" mapstructure:"download_dir"`
	MetricsAddr    string        `yaml:"metrics_addr,omitempty" mapstructure:"metrics_addr"`

	// The reviewer identity attached to queries and uploads
	User UserConfig `yaml:"user" mapstructure:"user"`

	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
}

type UserConfig struct {
	Name       string `yaml:"name" mapstructure:"name"`
	Department string `yaml:"department" mapstructure:"department"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text or json
	// File is relative to the config directory unless absolute
	File string `yaml:"file" mapstructure:"file"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// Default returns the configuration written on first run.
func Default() *Config {
	return &Config{
		BackendURL:     DefaultBackendURL,
		RequestTimeout: 2 * time.Minute,
		DownloadDir:    defaultDownloadDir(),
		User: UserConfig{
			Name:       "홍길동",
			Department: "의약품안전국",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File:   filepath.Join("logs", "reviewdesk.log"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 5,
			Burst:             10,
		},
	}
}

// CurrentUser is the fixed identity shared read-only with every component.
func (c *Config) CurrentUser() models.User {
	return models.User{Name: c.User.Name, Department: c.User.Department}
}

// LogFilePath resolves Log.File against dir.
func (c *Config) LogFilePath(dir string) string {
	if c.Log.File == "" || filepath.IsAbs(c.Log.File) {
		return c.Log.File
	}
	return filepath.Join(dir, c.Log.File)
}

// Validate checks the fields every command depends on.
func (c *Config) Validate() error {
	var errs []error
	u, err := url.Parse(strings.TrimSpace(c.BackendURL))
	switch {
	case strings.TrimSpace(c.BackendURL) == "":
		errs = append(errs, errors.New("backend_url is required"))
	case err != nil:
		errs = append(errs, fmt.Errorf("backend_url: %w", err))
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, fmt.Errorf("backend_url %q must use http or https", c.BackendURL))
	}
	if strings.TrimSpace(c.User.Name) == "" {
		errs = append(errs, errors.New("user.name is required"))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, errors.New("request_timeout must not be negative"))
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		errs = append(errs, errors.New("rate_limit values must not be negative"))
	}
	return errors.Join(errs...)
}

var configDir string

func init() {
	// When running under sudo, os.UserHomeDir() returns /root.
	// Check SUDO_USER to resolve the real user's home directory.
	configDir = filepath.Join(homeDir(), ".reviewdesk")
}

func homeDir() string {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" {
		if u, err := user.Lookup(sudoUser); err == nil {
			return u.HomeDir
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

func defaultDownloadDir() string {
	return filepath.Join(homeDir(), "Downloads")
}

// GetConfigDir returns the config directory
func GetConfigDir() string {
	return configDir
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	return filepath.Join(configDir, configFileName)
}

// Load reads ~/.reviewdesk/config.yaml, creating it with defaults on first run.
func Load() (*Config, error) {
	return LoadFrom(configDir)
}

// LoadFrom is Load rooted at dir. A .env file in the working directory is
// applied first; REVIEWDESK_* variables override file values
// (REVIEWDESK_BACKEND_URL, REVIEWDESK_USER_NAME, ...).
func LoadFrom(dir string) (*Config, error) {
	// Missing .env is the normal case.
	_ = godotenv.Load()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	path := filepath.Join(dir, configFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := SaveTo(dir, Default()); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Every key needs a default so AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("backend_url", d.BackendURL)
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("download_dir", d.DownloadDir)
	v.SetDefault("metrics_addr", d.MetricsAddr)
	v.SetDefault("user.name", d.User.Name)
	v.SetDefault("user.department", d.User.Department)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("rate_limit.requests_per_second", d.RateLimit.RequestsPerSecond)
	v.SetDefault("rate_limit.burst", d.RateLimit.Burst)
}

// Save saves the configuration to the default location.
func Save(cfg *Config) error {
	return SaveTo(configDir, cfg)
}

// SaveTo writes cfg as YAML into dir.
func SaveTo(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, configFileName), data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
