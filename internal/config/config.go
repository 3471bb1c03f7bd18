// Package config loads the bookform runtime configuration from YAML.
package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-bookform/pkg/client"
	"github.com/goliatone/go-bookform/pkg/download"
	"github.com/goliatone/go-bookform/pkg/render"
)

// Run modes.
const (
	ModeTUI  = "tui"
	ModeWeb  = "web"
	ModeOnce = "once"
)

const defaultAddr = ":8080"

// Config is the full runtime configuration.
type Config struct {
	Mode      string        `yaml:"mode"`
	Endpoint  string        `yaml:"endpoint"`
	Locale    string        `yaml:"locale"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	Schema    bool          `yaml:"schema"`
	Output    OutputConfig  `yaml:"output"`
	Web       WebConfig     `yaml:"web"`
	Log       LogConfig     `yaml:"log"`
}

// OutputConfig selects where generated books are saved.
type OutputConfig struct {
	Dir       string            `yaml:"dir"`
	Filename  string            `yaml:"filename"`
	VerifyPDF bool              `yaml:"verify_pdf"`
	S3        download.S3Config `yaml:"s3"`
}

// WebConfig configures the HTTP front-end.
type WebConfig struct {
	Addr         string `yaml:"addr"`
	Theme        string `yaml:"theme"`
	ThemeVariant string `yaml:"theme_variant"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Mode  string `yaml:"mode"`
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Mode:     ModeTUI,
		Endpoint: client.DefaultEndpoint,
		Locale:   render.DefaultLocale,
		Schema:   true,
		Output: OutputConfig{
			Dir:      ".",
			Filename: download.DefaultFilename,
		},
		Web: WebConfig{
			Addr: defaultAddr,
		},
		Log: LogConfig{
			Mode:  "development",
			Level: "info",
		},
	}
}

// Load reads path over the defaults. An empty path returns Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	path = strings.TrimSpace(path)
	if path == "" {
		return &cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}
	if err := decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	return &cfg, nil
}

func decode(content []byte, cfg *Config) error {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil
	}
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	return decoder.Decode(cfg)
}

// Validate checks the values flags and files can get wrong.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeTUI, ModeWeb, ModeOnce:
	default:
		return fmt.Errorf("invalid mode %q, expected tui, web or once", c.Mode)
	}

	u, err := url.Parse(strings.TrimSpace(c.Endpoint))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid endpoint %q, expected an absolute http(s) URL", c.Endpoint)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout %s, expected >= 0", c.Timeout)
	}
	if strings.TrimSpace(c.Output.Filename) == "" {
		return fmt.Errorf("output.filename is required")
	}
	if !c.Output.S3.Enabled() && strings.TrimSpace(c.Output.Dir) == "" {
		return fmt.Errorf("output.dir is required when no s3 bucket is set")
	}
	if c.Mode == ModeWeb && strings.TrimSpace(c.Web.Addr) == "" {
		return fmt.Errorf("web.addr is required in web mode")
	}
	switch c.Log.Mode {
	case "development", "production":
	default:
		return fmt.Errorf("invalid log.mode %q, expected development or production", c.Log.Mode)
	}
	return nil
}
