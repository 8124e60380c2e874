package config

import (
	"flag"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Test import defaults
	if cfg.Import.Workers != 0 {
		t.Errorf("expected workers 0, got %d", cfg.Import.Workers)
	}
	if cfg.Import.DefaultColor != "white" {
		t.Errorf("expected default color 'white', got %s", cfg.Import.DefaultColor)
	}
	if cfg.Import.MaxDepth != 1024 {
		t.Errorf("expected max depth 1024, got %d", cfg.Import.MaxDepth)
	}
	if cfg.Import.Strict {
		t.Error("expected strict to be false by default")
	}

	// Test export defaults
	if cfg.Export.Format != "webp" {
		t.Errorf("expected export format 'webp', got %s", cfg.Export.Format)
	}

	// Test watch defaults
	if cfg.Watch.DebounceMS != 250 {
		t.Errorf("expected debounce 250ms, got %d", cfg.Watch.DebounceMS)
	}
	if len(cfg.Watch.Extensions) == 0 {
		t.Error("expected default watch extensions")
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "gltftool.yaml",
			content: `
import:
  workers: 4
  default_color: black
  max_depth: 64
  strict: true
  generate_normals: true

assets:
  search_paths: ["shared", "vendor/textures"]

watch:
  debounce_ms: 500

logging:
  level: "debug"
  log_file: "import.log"
`,
		},
		{
			name: "toml",
			file: "gltftool.toml",
			content: `
[import]
workers = 4
default_color = "black"
max_depth = 64
strict = true
generate_normals = true

[assets]
search_paths = ["shared", "vendor/textures"]

[watch]
debounce_ms = 500

[logging]
level = "debug"
log_file = "import.log"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}

			cfg := Default()
			if err := loadFromFile(cfg, configPath); err != nil {
				t.Fatalf("failed to load config: %v", err)
			}

			if cfg.Import.Workers != 4 {
				t.Errorf("expected workers 4, got %d", cfg.Import.Workers)
			}
			if cfg.Import.DefaultColor != "black" {
				t.Errorf("expected default color 'black', got %s", cfg.Import.DefaultColor)
			}
			if cfg.Import.MaxDepth != 64 {
				t.Errorf("expected max depth 64, got %d", cfg.Import.MaxDepth)
			}
			if !cfg.Import.Strict || !cfg.Import.GenerateNormals {
				t.Errorf("expected strict and generate_normals, got %+v", cfg.Import)
			}
			if want := []string{"shared", "vendor/textures"}; !reflect.DeepEqual(cfg.Assets.SearchPaths, want) {
				t.Errorf("expected search paths %v, got %v", want, cfg.Assets.SearchPaths)
			}
			if cfg.Watch.DebounceMS != 500 {
				t.Errorf("expected debounce 500, got %d", cfg.Watch.DebounceMS)
			}
			if cfg.Logging.Level != "debug" || cfg.Logging.LogFile != "import.log" {
				t.Errorf("unexpected logging config: %+v", cfg.Logging)
			}

			// Unset keys keep their defaults
			if cfg.Export.Format != "webp" {
				t.Errorf("expected export format 'webp', got %s", cfg.Export.Format)
			}
		})
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tests := []struct {
		file    string
		content string
	}{
		{"invalid.yaml", "import:\n  workers: not a number\n  invalid syntax here\n"},
		{"invalid.toml", "[import]\nworkers = \"four\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}

			cfg := Default()
			if err := loadFromFile(cfg, configPath); err == nil {
				t.Error("expected error loading invalid config, got nil")
			}
		})
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/gltftool.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	// Actual path depends on OS
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if filepath.Base(dir) != "gltftool" {
		t.Errorf("expected gltftool directory, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	// No config file exists - should return empty
	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	// TOML is found too
	if err := os.WriteFile("gltftool.toml", []byte("[import]\nworkers = 2\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); filepath.Base(path) != "gltftool.toml" {
		t.Errorf("expected gltftool.toml, got %q", path)
	}

	// YAML wins over TOML in the same directory
	if err := os.WriteFile("gltftool.yaml", []byte("import:\n  workers: 3\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); filepath.Base(path) != "gltftool.yaml" {
		t.Errorf("expected gltftool.yaml, got %q", path)
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		verify  func(*testing.T, *Config)
		wantErr bool
	}{
		{
			name: "debug flag",
			args: []string{"-debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "workers and strict",
			args: []string{"-workers", "8", "-strict"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Import.Workers != 8 {
					t.Errorf("expected workers 8, got %d", cfg.Import.Workers)
				}
				if !cfg.Import.Strict {
					t.Error("expected strict with -strict")
				}
			},
		},
		{
			name: "color flag",
			args: []string{"-color", "Black"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Import.DefaultColor != "black" {
					t.Errorf("expected default color 'black', got %s", cfg.Import.DefaultColor)
				}
			},
		},
		{
			name:    "invalid color",
			args:    []string{"-color", "purple"},
			wantErr: true,
		},
		{
			name: "assets flag",
			args: []string{"-assets", "a, b,,c"},
			verify: func(t *testing.T, cfg *Config) {
				if want := []string{"a", "b", "c"}; !reflect.DeepEqual(cfg.Assets.SearchPaths, want) {
					t.Errorf("expected search paths %v, got %v", want, cfg.Assets.SearchPaths)
				}
			},
		},
		{
			name: "log flag",
			args: []string{"-log", "out.log"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.LogFile != "out.log" {
					t.Errorf("expected log file 'out.log', got %s", cfg.Logging.LogFile)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			f := BindFlags(fs)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("parse failed: %v", err)
			}

			cfg := Default()
			err := f.apply(cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("apply failed: %v", err)
			}
			tt.verify(t, cfg)
		})
	}
}

func TestApplyFlagsNil(t *testing.T) {
	var f *Flags
	cfg := Default()
	if err := f.apply(cfg); err != nil {
		t.Fatalf("apply on nil flags failed: %v", err)
	}
	if f.ConfigPath() != "" {
		t.Error("expected empty config path for nil flags")
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "custom.yaml")
	yamlContent := `
import:
  workers: 2
  max_depth: 16
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := BindFlags(fs)
	if err := fs.Parse([]string{"-config", configPath, "-workers", "6"}); err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	cfg, err := Load(f)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Workers should be from flag (6), not file (2)
	if cfg.Import.Workers != 6 {
		t.Errorf("expected workers 6 from flag, got %d", cfg.Import.Workers)
	}

	// Max depth should be from file (16) since no flag override
	if cfg.Import.MaxDepth != 16 {
		t.Errorf("expected max depth 16 from file, got %d", cfg.Import.MaxDepth)
	}
}

func TestSaveTo(t *testing.T) {
	for _, name := range []string{"out.yaml", "out.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			cfg := Default()
			cfg.Import.Workers = 3
			cfg.Assets.SearchPaths = []string{"shared"}
			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("SaveTo failed: %v", err)
			}

			loaded := &Config{}
			if err := loadFromFile(loaded, path); err != nil {
				t.Fatalf("reload failed: %v", err)
			}
			if !reflect.DeepEqual(cfg, loaded) {
				t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
			}
		})
	}
}
