// Package config loads daylab configuration from flags, environment
// variables, .env files and an optional YAML config file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"daylab/internal/logger"
	"daylab/internal/version"
)

// Naming schemes for experiment directories.
const (
	SchemeDay  = "day"  // day_<N>_<slug>
	SchemeDate = "date" // <YYYY-MM-DD>_<slug>
)

// Config holds all runtime settings for the daylab runner.
type Config struct {
	// Experiments store
	ExperimentsDir string `mapstructure:"experiments_dir"`
	RunLogPath     string `mapstructure:"run_log_path"`
	NamingScheme   string `mapstructure:"naming_scheme"`

	// Assistant invocation
	AssistantCommand    string        `mapstructure:"assistant_command"`
	AssistantModel      string        `mapstructure:"assistant_model"`
	AssistantMinVersion string        `mapstructure:"assistant_min_version"`
	AssistantTimeout    time.Duration `mapstructure:"assistant_timeout"`

	// Idea generation
	IdeaMode        string `mapstructure:"idea_mode"`
	IdeaProvider    string `mapstructure:"idea_provider"`
	IdeaModel       string `mapstructure:"idea_model"`
	IdeaCatalogPath string `mapstructure:"idea_catalog"`

	// Prompt construction
	ImplementationLevel string `mapstructure:"implementation_level"`

	// Verification
	VerifyGrace    time.Duration `mapstructure:"verify_grace"`
	SkipVerify     bool          `mapstructure:"skip_verify"`
	RetryOnFailure bool          `mapstructure:"retry_on_failure"`

	// Daemon mode
	DaemonInterval time.Duration `mapstructure:"daemon_interval"`
}

// setDefaults registers default values for every config key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("experiments_dir", "experiments")
	v.SetDefault("run_log_path", filepath.Join("experiments", "runs.jsonl"))
	v.SetDefault("naming_scheme", SchemeDay)
	v.SetDefault("assistant_command", "claude")
	v.SetDefault("assistant_model", "")
	v.SetDefault("assistant_min_version", "1.0.0")
	v.SetDefault("assistant_timeout", 20*time.Minute)
	v.SetDefault("idea_mode", "random")
	v.SetDefault("idea_provider", "anthropic")
	v.SetDefault("idea_model", "")
	v.SetDefault("idea_catalog", "")
	v.SetDefault("implementation_level", "mvp")
	v.SetDefault("verify_grace", 3*time.Second)
	v.SetDefault("skip_verify", false)
	v.SetDefault("retry_on_failure", true)
	v.SetDefault("daemon_interval", 24*time.Hour)
}

// Load builds the configuration with the usual precedence:
// environment variables > local .env > config-dir .env > config file > defaults.
// configFile may be empty, in which case ~/.daylab/config.yaml is tried.
func Load(configFile string) (*Config, error) {
	loadDotEnvFiles()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DAYLAB")
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else if dir, err := userConfigDir(); err == nil {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		// A missing default config file is fine.
		if err := v.ReadInConfig(); err == nil {
			logger.Debug("Loaded config file", "path", v.ConfigFileUsed())
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadDotEnvFiles loads .env files without overriding variables that are
// already set, so the local .env wins over the config-dir one and real
// environment variables win over both.
func loadDotEnvFiles() {
	if err := godotenv.Load(".env"); err == nil {
		logger.Debug("Loaded local .env file")
	}
	if dir, err := userConfigDir(); err == nil {
		if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
			logger.Debug("Loaded config-dir .env file", "dir", dir)
		}
	}
}

// userConfigDir returns the daylab config directory, honoring
// DAYLAB_CONFIG_DIR for test isolation.
func userConfigDir() (string, error) {
	if dir := os.Getenv("DAYLAB_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".daylab"), nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.ExperimentsDir == "" {
		return fmt.Errorf("experiments_dir must not be empty")
	}
	if c.RunLogPath == "" {
		return fmt.Errorf("run_log_path must not be empty")
	}
	if c.NamingScheme != SchemeDay && c.NamingScheme != SchemeDate {
		return fmt.Errorf("unsupported naming_scheme %q (expected %q or %q)", c.NamingScheme, SchemeDay, SchemeDate)
	}
	if c.AssistantCommand == "" {
		return fmt.Errorf("assistant_command must not be empty")
	}
	if c.AssistantMinVersion != "" && !version.IsValid(c.AssistantMinVersion) {
		return fmt.Errorf("assistant_min_version %q is not a valid semantic version", c.AssistantMinVersion)
	}
	if c.AssistantTimeout <= 0 {
		return fmt.Errorf("assistant_timeout must be positive, got %s", c.AssistantTimeout)
	}
	if c.DaemonInterval < time.Minute {
		return fmt.Errorf("daemon_interval must be at least one minute, got %s", c.DaemonInterval)
	}
	switch c.IdeaMode {
	case "random", "structured", "ai", "structured_ai":
	default:
		return fmt.Errorf("unsupported idea_mode %q", c.IdeaMode)
	}
	switch c.ImplementationLevel {
	case "simple_test", "mvp", "full_scenario":
	default:
		return fmt.Errorf("unsupported implementation_level %q", c.ImplementationLevel)
	}
	return nil
}

// APIKeyFor returns the API key for the given idea provider, looking at the
// conventional environment variables.
func APIKeyFor(provider string) string {
	switch provider {
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "gemini":
		return os.Getenv("GOOGLE_API_KEY")
	default:
		return ""
	}
}
