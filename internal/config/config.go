package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "github.com/OldUser101/tars/internal/foundation/errors"
)

// DefaultFile is the configuration file name used when --config is not given.
const DefaultFile = "tars.yaml"

// Config is the in-memory representation of a tars.yaml file.
type Config struct {
	Site    SiteConfig     `yaml:"site"`
	Build   BuildConfig    `yaml:"build"`
	Serve   ServeConfig    `yaml:"serve"`
	Extra   map[string]any `yaml:"extra,omitempty"`
	Plugins []Plugin       `yaml:"plugin,omitempty" validate:"dive"`

	// Path is the absolute path the configuration was loaded from. The
	// builder copies this file into every sandbox.
	Path string `yaml:"-"`
}

// SiteConfig holds site metadata exposed to templates as `site`.
type SiteConfig struct {
	Title           string `yaml:"title,omitempty"`
	BaseURL         string `yaml:"base_url,omitempty"`
	Author          string `yaml:"author,omitempty"`
	Description     string `yaml:"description,omitempty"`
	DefaultTemplate string `yaml:"default_template"`
}

// BuildConfig holds input and output locations plus build switches.
type BuildConfig struct {
	ContentDir    string `yaml:"content_dir" validate:"required"`
	TemplateDir   string `yaml:"template_dir" validate:"required"`
	StaticDir     string `yaml:"static_dir" validate:"required"`
	OutputDir     string `yaml:"output_dir" validate:"required"`
	PluginDir     string `yaml:"plugin_dir" validate:"required"`
	StaticPrefix  string `yaml:"static_prefix"`
	IncludeDrafts bool   `yaml:"include_drafts"`
	NoVerify      bool   `yaml:"no_verify"`
}

// ServeConfig holds the dev server address and rebuild batching window.
type ServeConfig struct {
	Host     string        `yaml:"host" validate:"required"`
	Port     int           `yaml:"port" validate:"min=1,max=65535"`
	Debounce time.Duration `yaml:"debounce"`
}

// Addr returns the host:port listen address.
func (s ServeConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Default returns a configuration with every field defaulted and paths left relative.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads, defaults, resolves and validates the configuration at path.
// Directory paths are made absolute against the process working directory.
func Load(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, ferrors.ConfigError("resolve configuration path").WithCause(err).
			WithContext("path", path).Build()
	}

	loadEnvFile(filepath.Dir(absPath))

	data, err := os.ReadFile(absPath)
	if err != nil {
		msg := "failed to read configuration file"
		if errors.Is(err, os.ErrNotExist) {
			msg = "configuration file not found"
		}
		return nil, ferrors.ConfigError(msg).WithCause(err).
			WithContext("path", absPath).Build()
	}

	// Expand environment variables in the YAML content
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, ferrors.ConfigError("failed to parse configuration file").WithCause(err).
			WithContext("path", absPath).Build()
	}

	applyDefaults(&cfg)
	if err := cfg.resolvePaths(); err != nil {
		return nil, ferrors.ConfigError("failed to resolve build paths").WithCause(err).
			WithContext("path", absPath).Build()
	}
	cfg.Path = absPath

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills every unset field. Directory values stay relative here.
func applyDefaults(cfg *Config) {
	if cfg.Site.DefaultTemplate == "" {
		cfg.Site.DefaultTemplate = "default.html"
	}

	b := &cfg.Build
	if b.ContentDir == "" {
		b.ContentDir = "content"
	}
	if b.TemplateDir == "" {
		b.TemplateDir = "template"
	}
	if b.StaticDir == "" {
		b.StaticDir = "static"
	}
	if b.OutputDir == "" {
		b.OutputDir = "build"
	}
	if b.PluginDir == "" {
		b.PluginDir = "plugin"
	}
	if b.StaticPrefix == "" {
		b.StaticPrefix = filepath.Base(b.StaticDir)
	}
	b.StaticPrefix = strings.Trim(filepath.ToSlash(b.StaticPrefix), "/")

	if cfg.Serve.Host == "" {
		cfg.Serve.Host = "127.0.0.1"
	}
	if cfg.Serve.Port == 0 {
		cfg.Serve.Port = 8000
	}
	if cfg.Serve.Debounce <= 0 {
		cfg.Serve.Debounce = 100 * time.Millisecond
	}

	if cfg.Extra == nil {
		cfg.Extra = map[string]any{}
	}
}

func (c *Config) resolvePaths() error {
	for _, p := range []*string{
		&c.Build.ContentDir,
		&c.Build.TemplateDir,
		&c.Build.StaticDir,
		&c.Build.OutputDir,
		&c.Build.PluginDir,
	} {
		abs, err := filepath.Abs(*p)
		if err != nil {
			return err
		}
		*p = abs
	}
	return nil
}

// PluginsFor returns the plugins bound to hook, in manifest order.
func (c *Config) PluginsFor(hook Hook) []Plugin {
	var out []Plugin
	for _, p := range c.Plugins {
		if p.Hook == hook {
			out = append(out, p)
		}
	}
	return out
}
