package config

const (
	defaultBranch          = "main"
	defaultNotesDir        = "src/site/notes"
	defaultImagesDir       = "src/site/img/user"
	defaultOutputDir       = "./garden"
	defaultNoteIconKey     = "dg-note-icon"
	defaultCreatedKey      = "created"
	defaultUpdatedKey      = "updated"
	defaultTimestampFormat = "2006-01-02T15:04:05"
	defaultSyncSchedule    = "0 * * * *"
	defaultQuietWindow     = "2s"
	defaultMaxDelay        = "30s"
	defaultMetricsAddr     = ":9090"
	defaultMetricsPath     = "/metrics"
	defaultEventStorePath  = "gardenbuilder.db"
	defaultNATSStream      = "GARDEN"
	defaultNATSSubject     = "garden.publish"
)

func applyDefaults(cfg *Config) {
	applyGardenDefaults(cfg)
	applyCompileDefaults(cfg)
	applyOutputDefaults(cfg)
	applyDaemonDefaults(cfg)
}

func applyGardenDefaults(cfg *Config) {
	if cfg.Garden.Branch == "" {
		cfg.Garden.Branch = defaultBranch
	}
	if cfg.Garden.NotesDir == "" {
		cfg.Garden.NotesDir = defaultNotesDir
	}
	if cfg.Garden.ImagesDir == "" {
		cfg.Garden.ImagesDir = defaultImagesDir
	}
}

func applyCompileDefaults(cfg *Config) {
	c := &cfg.Compile
	if c.NoteSettings == nil {
		c.NoteSettings = DefaultNoteSettings()
	}
	if c.NoteIcon.Key == "" {
		c.NoteIcon.Key = defaultNoteIconKey
	}
	if c.Timestamps.CreatedKey == "" {
		c.Timestamps.CreatedKey = defaultCreatedKey
	}
	if c.Timestamps.UpdatedKey == "" {
		c.Timestamps.UpdatedKey = defaultUpdatedKey
	}
	if c.Timestamps.Format == "" {
		c.Timestamps.Format = defaultTimestampFormat
	}
}

func applyOutputDefaults(cfg *Config) {
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = defaultOutputDir
	}
}

func applyDaemonDefaults(cfg *Config) {
	d := &cfg.Daemon
	if d.SyncSchedule == "" {
		d.SyncSchedule = defaultSyncSchedule
	}
	if d.WatchDebounce == nil {
		d.WatchDebounce = &WatchDebounceConfig{}
	}
	if d.WatchDebounce.QuietWindow == "" {
		d.WatchDebounce.QuietWindow = defaultQuietWindow
	}
	if d.WatchDebounce.MaxDelay == "" {
		d.WatchDebounce.MaxDelay = defaultMaxDelay
	}
	if d.Metrics.Addr == "" {
		d.Metrics.Addr = defaultMetricsAddr
	}
	if d.Metrics.Path == "" {
		d.Metrics.Path = defaultMetricsPath
	}
	if d.EventStore.Path == "" {
		d.EventStore.Path = defaultEventStorePath
	}
	if d.NATS != nil {
		if d.NATS.Stream == "" {
			d.NATS.Stream = defaultNATSStream
		}
		if d.NATS.Subject == "" {
			d.NATS.Subject = defaultNATSSubject
		}
	}
}
