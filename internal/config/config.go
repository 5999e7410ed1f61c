// Package config loads converter settings from a YAML or JSON file, a .env
// file and DOCTOMD_* environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	yaml "gopkg.in/yaml.v3"

	"github.com/trezero/docTomd"
	"github.com/trezero/docTomd/htmldoc"
	"github.com/trezero/docTomd/textenc"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DOCTOMD_"

// MaxWorkers bounds the batch worker pool.
const MaxWorkers = 64

// Config is the file schema. Zero values in a file keep the defaults only
// for fields the file does not mention.
type Config struct {
	IgnoreImages   bool     `yaml:"ignoreImages" json:"ignoreImages"`
	IgnoreLinks    bool     `yaml:"ignoreLinks" json:"ignoreLinks"`
	IgnoreEmphasis bool     `yaml:"ignoreEmphasis" json:"ignoreEmphasis"`
	BodyWidth      int      `yaml:"bodyWidth" json:"bodyWidth"`
	Encodings      []string `yaml:"encodings" json:"encodings"`
	Navigation     string   `yaml:"navigation" json:"navigation"`

	OCR         bool   `yaml:"ocr" json:"ocr"`
	OCRLanguage string `yaml:"ocrLanguage" json:"ocrLanguage"`

	Pattern   string `yaml:"pattern" json:"pattern"`
	Recursive bool   `yaml:"recursive" json:"recursive"`
	Workers   int    `yaml:"workers" json:"workers"`
	Metadata  bool   `yaml:"metadata" json:"metadata"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		IgnoreImages: true,
		Encodings:    append([]string(nil), textenc.DefaultChain...),
		Navigation:   htmldoc.NavigationExclusionStandard.String(),
		OCRLanguage:  "eng",
		Pattern:      "*",
		Workers:      min(runtime.NumCPU(), MaxWorkers),
		Metadata:     true,
	}
}

// Load builds the configuration: defaults, then the file at path (if not
// empty), then the .env file in the working directory (if present), then
// the process environment. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return cfg, err
		}
	}
	if err := LoadDotEnv(".env"); err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// LoadFile merges a YAML or JSON file into c. Files without a .json
// extension are read as YAML, which also accepts JSON.
func (c *Config) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(b, c); err != nil {
			return fmt.Errorf("parse json: %w", err)
		}
		return nil
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

// LoadDotEnv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from DOCTOMD_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return strings.TrimSpace(v), ok
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"IGNORE_IMAGES", &c.IgnoreImages},
		{"IGNORE_LINKS", &c.IgnoreLinks},
		{"IGNORE_EMPHASIS", &c.IgnoreEmphasis},
		{"OCR", &c.OCR},
		{"RECURSIVE", &c.Recursive},
		{"METADATA", &c.Metadata},
	}
	for _, b := range bools {
		if v, ok := get(b.name); ok {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, b.name, err)
			}
			*b.dst = parsed
		}
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"BODY_WIDTH", &c.BodyWidth},
		{"WORKERS", &c.Workers},
	}
	for _, i := range ints {
		if v, ok := get(i.name); ok {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, i.name, err)
			}
			*i.dst = parsed
		}
	}

	if v, ok := get("ENCODINGS"); ok {
		c.Encodings = nil
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				c.Encodings = append(c.Encodings, name)
			}
		}
	}
	if v, ok := get("NAVIGATION"); ok {
		c.Navigation = strings.ToLower(v)
	}
	if v, ok := get("OCR_LANGUAGE"); ok {
		c.OCRLanguage = v
	}
	if v, ok := get("PATTERN"); ok {
		c.Pattern = v
	}
	return nil
}

var navigationModes = []htmldoc.NavigationExclusionMode{
	htmldoc.NavigationExclusionNone,
	htmldoc.NavigationExclusionExplicit,
	htmldoc.NavigationExclusionStandard,
	htmldoc.NavigationExclusionAggressive,
}

func navigationNames() []any {
	names := make([]any, len(navigationModes))
	for i, m := range navigationModes {
		names[i] = m.String()
	}
	return names
}

// Validate checks value ranges and that every encoding name is known.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BodyWidth, validation.Min(0)),
		validation.Field(&c.Workers, validation.Required, validation.Min(1), validation.Max(MaxWorkers)),
		validation.Field(&c.Encodings, validation.Required, validation.Each(validation.By(func(value any) error {
			name, _ := value.(string)
			if !textenc.Valid(name) {
				return fmt.Errorf("unknown encoding %q", name)
			}
			return nil
		}))),
		validation.Field(&c.Navigation, validation.Required, validation.In(navigationNames()...)),
		validation.Field(&c.Pattern, validation.Required, validation.By(func(value any) error {
			pattern, _ := value.(string)
			if _, err := filepath.Match(pattern, ""); err != nil {
				return fmt.Errorf("invalid pattern %q", pattern)
			}
			return nil
		})),
	)
}

// Options maps the configuration onto converter options. c should be valid.
func (c Config) Options() doctomd.Options {
	opts := doctomd.DefaultOptions()
	opts.IgnoreImages = c.IgnoreImages
	opts.IgnoreLinks = c.IgnoreLinks
	opts.IgnoreEmphasis = c.IgnoreEmphasis
	opts.BodyWidth = c.BodyWidth
	opts.Encodings = append([]string(nil), c.Encodings...)
	opts.OCRImages = c.OCR
	if c.OCRLanguage != "" {
		opts.OCRLanguage = c.OCRLanguage
	}
	for _, m := range navigationModes {
		if m.String() == c.Navigation {
			opts.Navigation = m
		}
	}
	return opts
}
