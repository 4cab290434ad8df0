package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Compositor IPC configuration
	Compositor CompositorConfig

	// ActivityWatch server configuration
	Sink SinkConfig

	// Local heartbeat journal configuration
	Journal JournalConfig

	// Daemon configuration
	Daemon DaemonConfig

	// Logging configuration
	Log LogConfig
}

// CompositorConfig holds the sway IPC connection settings
type CompositorConfig struct {
	SocketPath string `envconfig:"SWAYSOCK" required:"true"`
}

// SinkConfig holds ActivityWatch client settings
type SinkConfig struct {
	Host       string        `envconfig:"FOCUSWATCH_AW_HOST"`
	Port       int           `envconfig:"FOCUSWATCH_AW_PORT"`
	Hostname   string        `envconfig:"FOCUSWATCH_HOSTNAME"` // Host identifier used in bucket ids
	ClientName string        `envconfig:"FOCUSWATCH_CLIENT_NAME"`
	Timeout    time.Duration `envconfig:"FOCUSWATCH_AW_TIMEOUT"`
	RetryMax   int           `envconfig:"FOCUSWATCH_AW_RETRIES"`
}

// JournalConfig holds the sqlite journal settings
type JournalConfig struct {
	Path string `envconfig:"FOCUSWATCH_JOURNAL_PATH"` // Empty disables the journal
}

// DaemonConfig holds daemon process configuration
type DaemonConfig struct {
	PIDFile string `envconfig:"FOCUSWATCH_PID_FILE"` // Empty means no PID file
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level       string `envconfig:"FOCUSWATCH_LOG_LEVEL"`
	Development bool   `envconfig:"FOCUSWATCH_LOG_DEV"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	return &Config{
		Sink: SinkConfig{
			Host:       "127.0.0.1",
			Port:       5600,
			Hostname:   hostname,
			ClientName: "aw-watcher-sway",
			Timeout:    10 * time.Second,
			RetryMax:   3,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Compositor.SocketPath == "" {
		return fmt.Errorf("compositor socket path cannot be empty (set SWAYSOCK)")
	}

	if c.Sink.Host == "" {
		return fmt.Errorf("activitywatch host cannot be empty")
	}

	if c.Sink.Port < 1 || c.Sink.Port > 65535 {
		return fmt.Errorf("activitywatch port must be between 1 and 65535, got %d", c.Sink.Port)
	}

	if c.Sink.Hostname == "" {
		return fmt.Errorf("hostname cannot be empty")
	}

	if c.Sink.Timeout <= 0 {
		return fmt.Errorf("activitywatch timeout must be positive, got %v", c.Sink.Timeout)
	}

	if c.Sink.RetryMax < 0 {
		return fmt.Errorf("retry count cannot be negative")
	}

	return nil
}

// BaseURL returns the ActivityWatch server root URL
func (c *Config) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Sink.Host, c.Sink.Port)
}

// WindowBucket returns the bucket id for focused-window heartbeats
func (c *Config) WindowBucket() string {
	return "aw-watcher-window_" + c.Sink.Hostname
}

// AFKBucket returns the bucket id for not-afk heartbeats
func (c *Config) AFKBucket() string {
	return "aw-watcher-afk_" + c.Sink.Hostname
}

// JournalEnabled reports whether heartbeats are also written locally
func (c *Config) JournalEnabled() bool {
	return c.Journal.Path != ""
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Compositor:
    Socket: %s
  ActivityWatch:
    URL: %s
    Hostname: %s
    Client: %s
    Timeout: %v
    Retries: %d
  Journal:
    Path: %s
  Daemon:
    PID File: %s
  Log:
    Level: %s
    Development: %v`,
		c.Compositor.SocketPath,
		c.BaseURL(),
		c.Sink.Hostname,
		c.Sink.ClientName,
		c.Sink.Timeout,
		c.Sink.RetryMax,
		c.Journal.Path,
		c.Daemon.PIDFile,
		c.Log.Level,
		c.Log.Development,
	)
}
