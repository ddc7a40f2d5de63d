package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ytq/internal/storage"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"YTQ_API_KEY", "YOUTUBE_API_KEY", "YTQ_MODE", "YTQ_OFFLINE", "YTQ_HOME"} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), FileName), nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Mode != storage.ModeQueue || !cfg.Offline || cfg.APIKey != "" {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoad_FileAndEnvPriority(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), FileName)
	content := `{"mode":"stack","offline":false,"youtube_api_key":"from-file"}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Mode != storage.ModeStack || cfg.Offline || cfg.APIKey != "from-file" {
		t.Errorf("Load() = %+v, want file values", cfg)
	}

	t.Setenv("YOUTUBE_API_KEY", "generic")
	cfg, _ = Load(path, nil)
	if cfg.APIKey != "generic" {
		t.Errorf("APIKey = %q, want YOUTUBE_API_KEY to override the file", cfg.APIKey)
	}

	t.Setenv("YTQ_API_KEY", "specific")
	t.Setenv("YTQ_MODE", "queue")
	t.Setenv("YTQ_OFFLINE", "true")
	cfg, _ = Load(path, nil)
	if cfg.APIKey != "specific" || cfg.Mode != storage.ModeQueue || !cfg.Offline {
		t.Errorf("Load() = %+v, want env overrides", cfg)
	}

	// LoadFile ignores the environment so a save never persists env values.
	fileOnly, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if fileOnly.APIKey != "from-file" {
		t.Errorf("LoadFile().APIKey = %q, want from-file", fileOnly.APIKey)
	}
}

func TestLoad_InvalidFileFallsBack(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	corrupt := filepath.Join(dir, "corrupt.json")
	os.WriteFile(corrupt, []byte("{mode"), 0o644)
	if _, err := LoadFile(corrupt); !errors.Is(err, storage.ErrStorageCorrupt) {
		t.Errorf("LoadFile(corrupt) error = %v, want ErrStorageCorrupt", err)
	}
	cfg, err := Load(corrupt, nil)
	if err != nil {
		t.Fatalf("Load(corrupt) error = %v, want defaults", err)
	}
	if cfg.Mode != storage.ModeQueue || !cfg.Offline {
		t.Errorf("Load(corrupt) = %+v, want defaults", cfg)
	}

	badMode := filepath.Join(dir, "bad.json")
	os.WriteFile(badMode, []byte(`{"mode":"fifo","offline":false,"youtube_api_key":"keep"}`), 0o644)
	cfg, err = Load(badMode, nil)
	if err != nil {
		t.Fatalf("Load(bad mode) error = %v", err)
	}
	if cfg.Mode != storage.ModeQueue || cfg.Offline || cfg.APIKey != "keep" {
		t.Errorf("Load(bad mode) = %+v, want mode reset and other values kept", cfg)
	}

	t.Setenv("YTQ_MODE", "stack")
	cfg, _ = Load(badMode, nil)
	if cfg.Mode != storage.ModeStack {
		t.Errorf("Load(bad mode) with YTQ_MODE=stack: mode = %q", cfg.Mode)
	}
}

func TestConfig_Repair(t *testing.T) {
	cfg := &Config{Mode: "fifo"}
	fixes := cfg.Repair()
	if len(fixes) != 1 || cfg.Mode != storage.ModeQueue {
		t.Errorf("Repair() = %v, mode %q", fixes, cfg.Mode)
	}
	if fixes := Default().Repair(); len(fixes) != 0 {
		t.Errorf("Repair() on defaults = %v, want none", fixes)
	}
}

func TestConfig_Set(t *testing.T) {
	tests := []struct {
		key, value string
		wantErr    bool
		check      func(*Config) bool
	}{
		{"mode", "stack", false, func(c *Config) bool { return c.Mode == storage.ModeStack }},
		{"MODE", " Queue ", false, func(c *Config) bool { return c.Mode == storage.ModeQueue }},
		{"mode", "random", true, nil},
		{"offline", "false", false, func(c *Config) bool { return !c.Offline }},
		{"offline", "maybe", true, nil},
		{"youtube_api_key", "abc", false, func(c *Config) bool { return c.APIKey == "abc" }},
		{"api_key", "xyz", false, func(c *Config) bool { return c.APIKey == "xyz" }},
		{"colour", "red", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := Default()
			err := cfg.Set(tt.key, tt.value)
			if tt.wantErr {
				if !errors.Is(err, ErrConfig) {
					t.Errorf("Set() error = %v, want ErrConfig", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if !tt.check(cfg) {
				t.Errorf("Set(%q, %q) gave %+v", tt.key, tt.value, cfg)
			}
		})
	}
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", FileName)

	cfg := Default()
	cfg.Set("mode", "stack")
	cfg.Set("youtube_api_key", "secret-key")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("Load() = %+v, want %+v", loaded, cfg)
	}
}

func TestMaskKey(t *testing.T) {
	tests := map[string]string{
		"":              "(not set)",
		"abc":           "***",
		"AIzaSyExample": "*********mple",
	}
	for in, want := range tests {
		if got := MaskKey(in); got != want {
			t.Errorf("MaskKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	if err := LoadDotEnv(dir); err != nil {
		t.Fatalf("LoadDotEnv() without file error = %v", err)
	}

	os.WriteFile(filepath.Join(dir, ".env"), []byte("YTQ_API_KEY=from-dotenv\n"), 0o600)
	t.Setenv("YTQ_API_KEY", "")
	os.Unsetenv("YTQ_API_KEY")
	if err := LoadDotEnv(dir); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv("YTQ_API_KEY"); got != "from-dotenv" {
		t.Errorf("YTQ_API_KEY = %q, want from-dotenv", got)
	}
}

func TestResolvePaths(t *testing.T) {
	clearEnv(t)

	t.Run("YTQ_HOME", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("YTQ_HOME", home)
		paths, err := ResolvePaths()
		if err != nil {
			t.Fatal(err)
		}
		if paths.ConfigDir != home || paths.DataDir != home {
			t.Errorf("ResolvePaths() = %+v, want both %s", paths, home)
		}
		if paths.ConfigFile() != filepath.Join(home, FileName) {
			t.Errorf("ConfigFile() = %s", paths.ConfigFile())
		}
	})

	t.Run("XDG", func(t *testing.T) {
		t.Setenv("YTQ_HOME", "")
		data := t.TempDir()
		t.Setenv("XDG_DATA_HOME", data)
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		paths, err := ResolvePaths()
		if err != nil {
			t.Fatal(err)
		}
		if paths.DataDir != filepath.Join(data, "ytq") {
			t.Errorf("DataDir = %s, want under XDG_DATA_HOME", paths.DataDir)
		}
		if filepath.Base(paths.ConfigDir) != "ytq" {
			t.Errorf("ConfigDir = %s, want ytq directory", paths.ConfigDir)
		}
	})
}
