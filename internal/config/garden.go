package config

// GardenConfig identifies the digital-garden site repository compiled notes
// are published into.
type GardenConfig struct {
	URL    string      `yaml:"url"`
	Branch string      `yaml:"branch,omitempty"`
	Auth   *AuthConfig `yaml:"auth,omitempty"`
	// NotesDir is the repository-relative directory holding published notes.
	NotesDir string `yaml:"notes_dir,omitempty"`
	// ImagesDir is the repository-relative directory holding published
	// images referenced by notes.
	ImagesDir string `yaml:"images_dir,omitempty"`
}

// AuthConfig represents authentication for the garden repository.
type AuthConfig struct {
	Type     string `yaml:"type"` // "ssh", "token", "basic"
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Token    string `yaml:"token,omitempty"`
	KeyPath  string `yaml:"key_path,omitempty"`
}
