// Package config loads the wikipron server configuration.
package config

import (
	"io"
	"log/slog"
	"path/filepath"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Lexicons LexiconsConfig `yaml:"lexicons"`
	Sources  SourcesConfig  `yaml:"sources"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP and QUIC listener settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"             env:"WIKIPRON_ADDR"             env-default:":8420"`
	TLS             bool          `yaml:"tls"              env:"WIKIPRON_TLS"              env-default:"false"`
	CertFile        string        `yaml:"cert_file"        env:"WIKIPRON_CERT_FILE"`
	KeyFile         string        `yaml:"key_file"         env:"WIKIPRON_KEY_FILE"`
	// NoMCP turns off the MCP endpoints; a false default survives YAML
	// overrides, which a true env-default would not.
	NoMCP           bool          `yaml:"no_mcp"           env:"WIKIPRON_NO_MCP"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"WIKIPRON_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// LexiconsConfig locates the harvested lexicons.
type LexiconsConfig struct {
	Dir string `yaml:"dir" env:"WIKIPRON_LEXICONS_DIR" env-default:"lexicons"`
}

// SourcesConfig controls the harvest source table and its availability checker.
type SourcesConfig struct {
	// DB defaults to <lexicons.dir>/sources.db.
	DB            string        `yaml:"db"             env:"WIKIPRON_SOURCES_DB"`
	Check         bool          `yaml:"check"          env:"WIKIPRON_SOURCES_CHECK"          env-default:"false"`
	CheckInterval time.Duration `yaml:"check_interval" env:"WIKIPRON_SOURCES_CHECK_INTERVAL" env-default:"24h"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"WIKIPRON_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"WIKIPRON_LOG_FORMAT" env-default:"text"`
}

// SourcesDB returns the effective path of the sources database.
func (c *Config) SourcesDB() string {
	if c.Sources.DB != "" {
		return c.Sources.DB
	}
	return filepath.Join(c.Lexicons.Dir, "sources.db")
}

// NewLogger builds the slog logger described by c, writing to w.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.level()}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (c LogConfig) level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
