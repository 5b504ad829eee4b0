package config

import (
	"fmt"
	"time"
)

// Validate checks structural invariants after defaults are applied.
// Command-specific requirements (a garden URL for publish, for example) are
// enforced by the command using them.
func Validate(cfg *Config) error {
	if cfg.Vault.Path == "" {
		return fmt.Errorf("vault.path is required")
	}
	if err := validateCompile(&cfg.Compile); err != nil {
		return err
	}
	if err := validateAuth(cfg.Garden.Auth); err != nil {
		return err
	}
	if err := validateDaemon(&cfg.Daemon); err != nil {
		return err
	}
	return nil
}

func validateCompile(c *CompileConfig) error {
	for i, r := range c.RewriteRules {
		if r.From == "" {
			return fmt.Errorf("compile.rewrite_rules[%d]: from must not be empty", i)
		}
	}
	return nil
}

func validateAuth(a *AuthConfig) error {
	if a == nil {
		return nil
	}
	switch a.Type {
	case "", "none", "ssh", "token", "basic":
		return nil
	default:
		return fmt.Errorf("garden.auth.type: unsupported type %q (want none, ssh, token or basic)", a.Type)
	}
}

func validateDaemon(d *DaemonConfig) error {
	if d.WatchDebounce == nil {
		return nil
	}
	quiet, err := time.ParseDuration(d.WatchDebounce.QuietWindow)
	if err != nil {
		return fmt.Errorf("daemon.watch_debounce.quiet_window: %w", err)
	}
	maxDelay, err := time.ParseDuration(d.WatchDebounce.MaxDelay)
	if err != nil {
		return fmt.Errorf("daemon.watch_debounce.max_delay: %w", err)
	}
	if quiet <= 0 {
		return fmt.Errorf("daemon.watch_debounce.quiet_window must be positive, got %s", quiet)
	}
	if maxDelay < quiet {
		return fmt.Errorf("daemon.watch_debounce.max_delay (%s) must be at least quiet_window (%s)", maxDelay, quiet)
	}
	return nil
}
