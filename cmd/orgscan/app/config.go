package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/orgscan/pkg/scm"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool

	// Config file
	ConfigFile string

	// Organization configuration
	Root       string
	Folder     string
	Navigators []NavigatorConfig

	// Orphan handling
	Prune    bool
	KeepDays int
	KeepMax  int

	// Child rescan trigger
	TriggerInterval time.Duration

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// NavigatorConfig declares one fixed-project navigator.
type NavigatorConfig struct {
	ID      string   `mapstructure:"id"`
	Project string   `mapstructure:"project"`
	Sources []string `mapstructure:"sources"`
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (~/.orgscan.yaml or ./.orgscan.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	configFile := viper.GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".orgscan")
	}

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()

	config := &Config{
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),
		NoColor: viper.GetBool("no-color"),

		ConfigFile: viper.ConfigFileUsed(),

		Root:   viper.GetString("root"),
		Folder: viper.GetString("folder"),

		Prune:    viper.GetBool("orphans.prune"),
		KeepDays: viper.GetInt("orphans.keep_days"),
		KeepMax:  viper.GetInt("orphans.keep_max"),

		TriggerInterval: viper.GetDuration("trigger"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	if err := viper.UnmarshalKey("navigators", &config.Navigators); err != nil {
		return nil, err
	}

	// Defaults
	if config.Root == "" {
		config.Root = "."
	}
	if config.TriggerInterval == 0 {
		config.TriggerInterval = scm.DefaultTrigger().Interval
	}

	return config, nil
}

// OrphanPolicy returns the configured orphan policy.
func (c *Config) OrphanPolicy() scm.OrphanPolicy {
	return scm.OrphanPolicy{
		Prune:    c.Prune,
		KeepDays: c.KeepDays,
		KeepMax:  c.KeepMax,
	}
}

// Trigger returns the configured child rescan trigger.
func (c *Config) Trigger() scm.Trigger {
	return scm.Trigger{Interval: c.TriggerInterval}
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env.
func loadEnvFiles() {
	envFiles := []string{
		".env",
		".env.local",
	}

	for _, envFile := range envFiles {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
