// Package config handles gltftool configuration loading and management.
package config

// Config holds all tool settings.
type Config struct {
	Import  ImportConfig  `yaml:"import" toml:"import"`
	Assets  AssetsConfig  `yaml:"assets" toml:"assets"`
	Export  ExportConfig  `yaml:"export" toml:"export"`
	Watch   WatchConfig   `yaml:"watch" toml:"watch"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// ImportConfig holds import pipeline settings.
type ImportConfig struct {
	Workers         int    `yaml:"workers" toml:"workers"`                   // 0 = GOMAXPROCS
	DefaultColor    string `yaml:"default_color" toml:"default_color"`       // "white" or "black"
	MaxDepth        int    `yaml:"max_depth" toml:"max_depth"`               // node nesting limit
	Strict          bool   `yaml:"strict" toml:"strict"`                     // skipped primitives fail the import
	GenerateNormals bool   `yaml:"generate_normals" toml:"generate_normals"` // for primitives without NORMAL
	ShareTextures   bool   `yaml:"share_textures" toml:"share_textures"`     // one texture cache across imports
}

// AssetsConfig holds external resource lookup settings.
type AssetsConfig struct {
	SearchPaths []string `yaml:"search_paths" toml:"search_paths"` // extra roots after the document's directory
}

// ExportConfig holds texture export settings.
type ExportConfig struct {
	Dir    string `yaml:"dir" toml:"dir"`
	Format string `yaml:"format" toml:"format"` // "webp" or "png"
}

// WatchConfig holds file watching settings.
type WatchConfig struct {
	DebounceMS int      `yaml:"debounce_ms" toml:"debounce_ms"`
	Extensions []string `yaml:"extensions" toml:"extensions"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Import: ImportConfig{
			Workers:      0,
			DefaultColor: "white",
			MaxDepth:     1024,
		},
		Export: ExportConfig{
			Dir:    "textures",
			Format: "webp",
		},
		Watch: WatchConfig{
			DebounceMS: 250,
			Extensions: []string{".gltf", ".glb", ".bin", ".png", ".jpg", ".jpeg", ".webp"},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
