package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/trezero/docTomd/htmldoc"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if !cfg.IgnoreImages || !cfg.Metadata || cfg.Pattern != "*" {
		t.Errorf("Default() = %+v", cfg)
	}

	opts := cfg.Options()
	if !opts.IgnoreImages || opts.Navigation != htmldoc.NavigationExclusionStandard || len(opts.Encodings) != 3 {
		t.Errorf("Options() = %+v", opts)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "doctomd.yaml",
			content: "ignoreLinks: true\nbodyWidth: 72\nencodings: [cp1252, utf-8]\n" +
				"navigation: aggressive\nworkers: 3\n",
		},
		{
			name: "json",
			file: "doctomd.json",
			content: `{"ignoreLinks": true, "bodyWidth": 72, "encodings": ["cp1252", "utf-8"],
				"navigation": "aggressive", "workers": 3}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			if err := cfg.LoadFile(writeFile(t, tt.file, tt.content)); err != nil {
				t.Fatalf("LoadFile() error = %v", err)
			}
			if err := cfg.Validate(); err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if !cfg.IgnoreLinks || cfg.BodyWidth != 72 || cfg.Workers != 3 {
				t.Errorf("cfg = %+v", cfg)
			}
			if !cfg.IgnoreImages || !cfg.Metadata {
				t.Error("fields missing from the file should keep their defaults")
			}
			opts := cfg.Options()
			if opts.Navigation != htmldoc.NavigationExclusionAggressive || opts.Encodings[0] != "cp1252" {
				t.Errorf("Options() = %+v", opts)
			}
		})
	}
}

func TestLoadFile_Errors(t *testing.T) {
	cfg := Default()
	if err := cfg.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadFile(missing) error = %v", err)
	}
	if err := cfg.LoadFile(writeFile(t, "bad.yaml", "workers: [")); err == nil {
		t.Error("LoadFile(bad yaml) error = nil")
	}
	if err := cfg.LoadFile(writeFile(t, "bad.json", "{")); err == nil {
		t.Error("LoadFile(bad json) error = nil")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"DOCTOMD_IGNORE_IMAGES": "false",
		"DOCTOMD_IGNORE_LINKS":  "1",
		"DOCTOMD_BODY_WIDTH":    "100",
		"DOCTOMD_WORKERS":       "8",
		"DOCTOMD_ENCODINGS":     " latin-1 , utf-8,",
		"DOCTOMD_NAVIGATION":    "None",
		"DOCTOMD_OCR":           "true",
		"DOCTOMD_OCR_LANGUAGE":  "eng+deu",
		"DOCTOMD_PATTERN":       "*.doc",
		"DOCTOMD_RECURSIVE":     "true",
		"DOCTOMD_METADATA":      "false",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.IgnoreImages || !cfg.IgnoreLinks || cfg.BodyWidth != 100 || cfg.Workers != 8 {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.Encodings) != 2 || cfg.Encodings[0] != "latin-1" || cfg.Encodings[1] != "utf-8" {
		t.Errorf("Encodings = %q", cfg.Encodings)
	}
	if cfg.Navigation != "none" || !cfg.OCR || cfg.OCRLanguage != "eng+deu" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Pattern != "*.doc" || !cfg.Recursive || cfg.Metadata {
		t.Errorf("cfg = %+v", cfg)
	}

	opts := cfg.Options()
	if !opts.OCRImages || opts.OCRLanguage != "eng+deu" || opts.Navigation != htmldoc.NavigationExclusionNone {
		t.Errorf("Options() = %+v", opts)
	}
}

func TestApplyEnv_Invalid(t *testing.T) {
	for _, kv := range [][2]string{
		{"DOCTOMD_WORKERS", "many"},
		{"DOCTOMD_OCR", "maybe"},
	} {
		cfg := Default()
		err := cfg.ApplyEnv(func(k string) (string, bool) {
			if k == kv[0] {
				return kv[1], true
			}
			return "", false
		})
		if err == nil {
			t.Errorf("ApplyEnv(%s=%s) error = nil", kv[0], kv[1])
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Config)
		field string
	}{
		{"negative body width", func(c *Config) { c.BodyWidth = -1 }, "bodyWidth"},
		{"zero workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"too many workers", func(c *Config) { c.Workers = MaxWorkers + 1 }, "workers"},
		{"unknown encoding", func(c *Config) { c.Encodings = []string{"utf-8", "klingon-8"} }, "encodings"},
		{"no encodings", func(c *Config) { c.Encodings = nil }, "encodings"},
		{"unknown navigation", func(c *Config) { c.Navigation = "sideways" }, "navigation"},
		{"bad pattern", func(c *Config) { c.Pattern = "[" }, "pattern"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.edit(&cfg)
			err := cfg.Validate()
			var verrs validation.Errors
			if !errors.As(err, &verrs) {
				t.Fatalf("Validate() error = %v, want validation.Errors", err)
			}
			if verrs[tt.field] == nil {
				t.Errorf("Validate() = %v, want an error for %s", verrs, tt.field)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "c.yaml", "bodyWidth: 60\nworkers: 2\n")
	t.Setenv("DOCTOMD_WORKERS", "5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BodyWidth != 60 {
		t.Errorf("BodyWidth = %d, want 60 from the file", cfg.BodyWidth)
	}
	if cfg.Workers != 5 {
		t.Errorf("Workers = %d, want 5 from the environment", cfg.Workers)
	}

	t.Setenv("DOCTOMD_WORKERS", "0")
	if _, err := Load(path); err == nil {
		t.Error("Load() with zero workers error = nil")
	}
}

func TestLoadDotEnv(t *testing.T) {
	// Register cleanup for a variable the .env file will set.
	t.Setenv("DOCTOMD_PATTERN", "")
	os.Unsetenv("DOCTOMD_PATTERN")

	path := writeFile(t, ".env", "DOCTOMD_PATTERN=*.mht\n")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv("DOCTOMD_PATTERN"); got != "*.mht" {
		t.Errorf("DOCTOMD_PATTERN = %q, want %q", got, "*.mht")
	}

	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("LoadDotEnv(missing) error = %v", err)
	}
}
