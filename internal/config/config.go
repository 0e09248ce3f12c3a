package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete claudia configuration
type Config struct {
	Child      ChildConfig      `mapstructure:"child" yaml:"child"`
	Supervisor SupervisorConfig `mapstructure:"supervisor" yaml:"supervisor"`
	Window     WindowConfig     `mapstructure:"window" yaml:"window"`
	Checklist  ChecklistConfig  `mapstructure:"checklist" yaml:"checklist"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`

	// Debug raises the log level to DEBUG and logs every injected command
	// and detection. It is read once at startup and passed down explicitly.
	Debug bool `mapstructure:"debug" yaml:"debug"`
}

// ChildConfig describes the supervised process
type ChildConfig struct {
	// Command is the executable looked up on PATH (default: "claude")
	Command string `mapstructure:"command" yaml:"command"`
	// Args are passed to Command verbatim
	Args []string `mapstructure:"args" yaml:"args"`
	// Rows and Cols size the pseudo-terminal
	Rows int `mapstructure:"rows" yaml:"rows"`
	Cols int `mapstructure:"cols" yaml:"cols"`
}

// SupervisorConfig controls the control loop's timing and limits
type SupervisorConfig struct {
	// PollIntervalMs is the delay between supervisor ticks
	PollIntervalMs int `mapstructure:"poll_interval_ms" yaml:"poll_interval_ms"`
	// IdleTimeoutSeconds is how long the child may stay silent, with no busy
	// marker, before the supervisor intervenes
	IdleTimeoutSeconds int `mapstructure:"idle_timeout_seconds" yaml:"idle_timeout_seconds"`
	// MaxContinues is the hard cap on synthetic "Continue" commands
	MaxContinues int `mapstructure:"max_continues" yaml:"max_continues"`
	// SettleDelayMs separates injected text from its carriage return
	SettleDelayMs int `mapstructure:"settle_delay_ms" yaml:"settle_delay_ms"`
	// StartupDelayMs is waited after the initial prompt is submitted
	StartupDelayMs int `mapstructure:"startup_delay_ms" yaml:"startup_delay_ms"`
	// CountdownStepSeconds caps each sleep while waiting out a usage limit
	CountdownStepSeconds int `mapstructure:"countdown_step_seconds" yaml:"countdown_step_seconds"`
}

// WindowConfig sizes the output window and the suffixes each detector reads
type WindowConfig struct {
	// Size is the maximum number of characters retained
	Size int `mapstructure:"size" yaml:"size"`
	// BusySuffix is scanned for the "esc to interrupt" marker
	BusySuffix int `mapstructure:"busy_suffix" yaml:"busy_suffix"`
	// PermissionSuffix is scanned for the bypass-permissions prompt
	PermissionSuffix int `mapstructure:"permission_suffix" yaml:"permission_suffix"`
	// UsageSuffix is scanned for usage-limit messages
	UsageSuffix int `mapstructure:"usage_suffix" yaml:"usage_suffix"`
	// RepetitionSuffix is snapshotted for repetition detection
	RepetitionSuffix int `mapstructure:"repetition_suffix" yaml:"repetition_suffix"`
}

// ChecklistConfig controls handling of the Markdown task document
type ChecklistConfig struct {
	// Normalize adds missing checkboxes to list items before starting
	Normalize bool `mapstructure:"normalize" yaml:"normalize"`
	// Watch logs checklist progress as the child edits the document
	Watch bool `mapstructure:"watch" yaml:"watch"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Level sets the minimum log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level" yaml:"level"`
	// Dir overrides the log directory (default: $XDG_STATE_HOME/claudia)
	Dir string `mapstructure:"dir" yaml:"dir"`
	// MaxSizeMB is the maximum size of claudia.log before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	// MaxBackups is the number of rotated files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`
	// Compress gzips rotated files (default: false)
	Compress bool `mapstructure:"compress" yaml:"compress"`
}

// MetricsConfig controls the optional Prometheus endpoint
type MetricsConfig struct {
	// Enabled starts an HTTP listener serving /metrics (default: false)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Addr is the listen address (default: "127.0.0.1:9464")
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Child: ChildConfig{
			Command: "claude",
			Args:    []string{"--dangerously-skip-permissions"},
			Rows:    40,
			Cols:    120,
		},
		Supervisor: SupervisorConfig{
			PollIntervalMs:       100,
			IdleTimeoutSeconds:   60,
			MaxContinues:         50,
			SettleDelayMs:        50,
			StartupDelayMs:       100,
			CountdownStepSeconds: 30,
		},
		Window: WindowConfig{
			Size:             2000,
			BusySuffix:       200,
			PermissionSuffix: 1500,
			UsageSuffix:      2000,
			RepetitionSuffix: 500,
		},
		Checklist: ChecklistConfig{
			Normalize: true,
			Watch:     true,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			Compress:   false,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9464",
		},
	}
}

// PollInterval returns the supervisor tick interval as a time.Duration
func (c *SupervisorConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// IdleTimeout returns the stagnation threshold as a time.Duration
func (c *SupervisorConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutSeconds) * time.Second
}

// SettleDelay returns the text-to-CR delay as a time.Duration
func (c *SupervisorConfig) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelayMs) * time.Millisecond
}

// StartupDelay returns the post-prompt delay as a time.Duration
func (c *SupervisorConfig) StartupDelay() time.Duration {
	return time.Duration(c.StartupDelayMs) * time.Millisecond
}

// CountdownStep returns the maximum usage-limit sleep step as a time.Duration
func (c *SupervisorConfig) CountdownStep() time.Duration {
	return time.Duration(c.CountdownStepSeconds) * time.Second
}

// EffectiveLevel returns the log level after applying the debug flag.
func (c *Config) EffectiveLevel() string {
	if c.Debug {
		return "debug"
	}
	return c.Logging.Level
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Child defaults
	viper.SetDefault("child.command", defaults.Child.Command)
	viper.SetDefault("child.args", defaults.Child.Args)
	viper.SetDefault("child.rows", defaults.Child.Rows)
	viper.SetDefault("child.cols", defaults.Child.Cols)

	// Supervisor defaults
	viper.SetDefault("supervisor.poll_interval_ms", defaults.Supervisor.PollIntervalMs)
	viper.SetDefault("supervisor.idle_timeout_seconds", defaults.Supervisor.IdleTimeoutSeconds)
	viper.SetDefault("supervisor.max_continues", defaults.Supervisor.MaxContinues)
	viper.SetDefault("supervisor.settle_delay_ms", defaults.Supervisor.SettleDelayMs)
	viper.SetDefault("supervisor.startup_delay_ms", defaults.Supervisor.StartupDelayMs)
	viper.SetDefault("supervisor.countdown_step_seconds", defaults.Supervisor.CountdownStepSeconds)

	// Window defaults
	viper.SetDefault("window.size", defaults.Window.Size)
	viper.SetDefault("window.busy_suffix", defaults.Window.BusySuffix)
	viper.SetDefault("window.permission_suffix", defaults.Window.PermissionSuffix)
	viper.SetDefault("window.usage_suffix", defaults.Window.UsageSuffix)
	viper.SetDefault("window.repetition_suffix", defaults.Window.RepetitionSuffix)

	// Checklist defaults
	viper.SetDefault("checklist.normalize", defaults.Checklist.Normalize)
	viper.SetDefault("checklist.watch", defaults.Checklist.Watch)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)

	// Metrics defaults
	viper.SetDefault("metrics.enabled", defaults.Metrics.Enabled)
	viper.SetDefault("metrics.addr", defaults.Metrics.Addr)

	viper.SetDefault("debug", defaults.Debug)
}

// Load reads the configuration from viper and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration, falling back to defaults if it
// cannot be loaded
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the directory holding config.yaml
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "claudia")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".claudia"
	}
	return filepath.Join(home, ".config", "claudia")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// LogDir returns the directory for claudia.log. An explicit logging.dir wins;
// otherwise $XDG_STATE_HOME/claudia or ~/.local/state/claudia.
func (c *LoggingConfig) LogDir() string {
	if c.Dir != "" {
		return c.Dir
	}
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "claudia")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".claudia", "logs")
	}
	return filepath.Join(home, ".local", "state", "claudia")
}
