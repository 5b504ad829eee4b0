package config

import "time"

// DaemonConfig configures watch-and-publish mode.
type DaemonConfig struct {
	// SyncSchedule is a cron expression for periodic full publishes,
	// independent of filesystem events.
	SyncSchedule  string               `yaml:"sync_schedule,omitempty"`
	WatchDebounce *WatchDebounceConfig `yaml:"watch_debounce,omitempty"`
	Metrics       MetricsConfig        `yaml:"metrics"`
	EventStore    EventStoreConfig     `yaml:"event_store"`
	NATS          *NATSConfig          `yaml:"nats,omitempty"`
}

// WatchDebounceConfig coalesces bursts of vault file events into a single
// publish. Durations are Go duration strings ("2s", "1m30s").
type WatchDebounceConfig struct {
	// QuietWindow is how long the vault must stay quiet before a pending
	// publish fires.
	QuietWindow string `yaml:"quiet_window,omitempty"`
	// MaxDelay caps how long a publish can be deferred by continuous
	// editing activity.
	MaxDelay string `yaml:"max_delay,omitempty"`
}

// Durations returns the parsed quiet-window and max-delay values.
// Validate guarantees both parse for loaded configurations.
func (c *WatchDebounceConfig) Durations() (quiet, maxDelay time.Duration, err error) {
	quiet, err = time.ParseDuration(c.QuietWindow)
	if err != nil {
		return 0, 0, err
	}
	maxDelay, err = time.ParseDuration(c.MaxDelay)
	if err != nil {
		return 0, 0, err
	}
	return quiet, maxDelay, nil
}

// MetricsConfig exposes Prometheus metrics from the daemon.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// EventStoreConfig persists the publish-run journal.
type EventStoreConfig struct {
	Path string `yaml:"path,omitempty"`
}

// NATSConfig optionally broadcasts publish events to a JetStream stream.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Stream  string `yaml:"stream,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}
