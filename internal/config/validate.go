package config

import (
	"fmt"
	"log/slog"
)

// Validate checks values the struct tags cannot express.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if (c.Server.CertFile == "") != (c.Server.KeyFile == "") {
		return fmt.Errorf("server.cert_file and server.key_file must be set together")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0 (got %s)", c.Server.ShutdownTimeout)
	}
	if c.Lexicons.Dir == "" {
		return fmt.Errorf("lexicons.dir is required")
	}
	if c.Sources.Check && c.Sources.CheckInterval <= 0 {
		return fmt.Errorf("sources.check_interval must be > 0 (got %s)", c.Sources.CheckInterval)
	}

	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json (got %q)", c.Log.Format)
	}
	return nil
}
