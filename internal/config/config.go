package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/A1i98/obsidian-digital-garden/internal/logfields"
)

// Config represents the full gardenbuilder configuration.
type Config struct {
	Vault   VaultConfig   `yaml:"vault"`
	Garden  GardenConfig  `yaml:"garden"`
	Compile CompileConfig `yaml:"compile"`
	Output  OutputConfig  `yaml:"output"`
	Daemon  DaemonConfig  `yaml:"daemon"`
}

// VaultConfig locates the Obsidian vault to read notes from.
type VaultConfig struct {
	Path string `yaml:"path"`
	// IgnorePrefixes lists vault-relative path prefixes to skip during
	// scanning, in addition to hidden files/directories.
	IgnorePrefixes []string `yaml:"ignore_prefixes,omitempty"`
}

// OutputConfig controls where `build` writes compiled notes.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"` // Clean output directory before build
}

// Load loads configuration from the specified file.
//
// Environment layering: .env/.env.local are loaded first (existing process
// env always wins), then ${VAR} references inside the YAML are expanded.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse unmarshals raw YAML configuration, expands ${VAR} references,
// applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadEnvFiles loads .env then .env.local when present. godotenv never
// overrides variables already set in the process environment, so .env takes
// precedence over .env.local and both yield to the real environment.
func loadEnvFiles() {
	for _, name := range []string{".env", ".env.local"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			slog.Warn("could not load env file", logfields.File(name), logfields.Error(err))
		}
	}
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

const exampleConfig = `# gardenbuilder configuration

vault:
  # Path to the Obsidian vault containing your notes.
  path: ${HOME}/vault
  # Vault-relative prefixes to skip (hidden files are always skipped).
  ignore_prefixes:
    - templates/

garden:
  # Digital-garden site repository to publish into.
  url: https://github.com/example/digital-garden.git
  branch: main
  # auth:
  #   type: token
  #   token: ${GARDEN_TOKEN}

compile:
  # Ordered path rewrite rules; the first matching prefix wins.
  rewrite_rules:
    - from: Blog/
      to: posts/
  # Lowercase, diacritic-free, dash-separated permalinks.
  slugify: true
  # Frontmatter key whose value becomes the published contentClasses field.
  # content_classes_key: dg-content-classes
  note_icon:
    key: dg-note-icon
    # default: "1"
    show_on_title: false
    show_in_file_tree: false
    show_on_internal_links: false
    show_on_backlinks: false
  timestamps:
    show_created: false
    show_updated: false
    format: 2006-01-02T15:04:05

output:
  directory: ./garden
  clean: true

daemon:
  sync_schedule: "0 * * * *"
  watch_debounce:
    quiet_window: 2s
    max_delay: 30s
  metrics:
    enabled: true
    addr: :9090
  event_store:
    path: gardenbuilder.db
  # nats:
  #   url: nats://127.0.0.1:4222
  #   stream: GARDEN
  #   subject: garden.publish
`
