// Package config holds the process configuration for the docsection server
// and CLI.
package config

import (
	"bytes"
	"os"
	"strconv"
	"strings"
	"time"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/benjaminschreck/go-docsection/pkg/section"
)

// Config contains all configuration options for the docsection service.
type Config struct {
	// Port is the TCP port the HTTP server listens on.
	Port int `yaml:"port"`
	// StorageDir receives generated documents served by /download.
	StorageDir string `yaml:"storage_dir"`
	// LogLevel controls the verbosity of logging (debug, info, warn, error, off)
	LogLevel string `yaml:"log_level"`
	// LogFormat is json or console.
	LogFormat string `yaml:"log_format"`

	// Preset is the style preset used when a request names none.
	Preset string `yaml:"preset"`
	// PresetDir holds additional YAML presets. Empty means builtins only.
	PresetDir string `yaml:"preset_dir"`
	// WatchPresets reloads PresetDir when its files change.
	WatchPresets bool `yaml:"watch_presets"`

	StartMarker string `yaml:"start_marker"`
	EndMarker   string `yaml:"end_marker"`

	// MaxUploadBytes bounds a decoded input document.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
	// Retention is how long generated files are kept. 0 keeps them forever.
	Retention time.Duration `yaml:"retention"`
	// JanitorInterval is how often expired files are swept.
	JanitorInterval time.Duration `yaml:"janitor_interval"`
	// UploadTTL expires idle chunked uploads.
	UploadTTL time.Duration `yaml:"upload_ttl"`
	// MaxUploads caps concurrent chunked upload sessions.
	MaxUploads int `yaml:"max_uploads"`
}

var (
	validLogLevels = map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"off":   true,
	}
	validLogFormats = map[string]bool{
		"json":    true,
		"console": true,
	}
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Port:            5000,
		StorageDir:      "generated_files",
		LogLevel:        "info",
		LogFormat:       "json",
		Preset:          section.DefaultPresetName,
		StartMarker:     section.DefaultStartMarker,
		EndMarker:       section.DefaultEndMarker,
		MaxUploadBytes:  32 << 20,
		Retention:       24 * time.Hour,
		JanitorInterval: 10 * time.Minute,
		UploadTTL:       15 * time.Minute,
		MaxUploads:      64,
	}
}

// FromEnvironment applies environment variables on top of the defaults.
func FromEnvironment() *Config {
	config := DefaultConfig()
	config.ApplyEnvironment(os.LookupEnv)
	return config
}

// ApplyEnvironment overrides fields from variables returned by lookup.
// Malformed numbers and durations are ignored.
func (c *Config) ApplyEnvironment(lookup func(string) (string, bool)) {
	get := func(key string) string {
		val, ok := lookup(key)
		if !ok {
			return ""
		}
		return strings.TrimSpace(val)
	}

	// PORT is honored for platforms that inject it.
	if val := get("PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.Port = port
		}
	}
	if val := get("DOCSECTION_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.Port = port
		}
	}
	if val := get("DOCSECTION_STORAGE_DIR"); val != "" {
		c.StorageDir = val
	}
	if val := get("DOCSECTION_LOG_LEVEL"); val != "" {
		c.LogLevel = strings.ToLower(val)
	}
	if val := get("DOCSECTION_LOG_FORMAT"); val != "" {
		c.LogFormat = strings.ToLower(val)
	}
	if val := get("DOCSECTION_PRESET"); val != "" {
		c.Preset = val
	}
	if val := get("DOCSECTION_PRESET_DIR"); val != "" {
		c.PresetDir = val
	}
	if val := get("DOCSECTION_WATCH_PRESETS"); val != "" {
		c.WatchPresets = parseBool(val)
	}
	if val := get("DOCSECTION_START_MARKER"); val != "" {
		c.StartMarker = val
	}
	if val, ok := lookup("DOCSECTION_END_MARKER"); ok {
		// an explicit empty value means the section runs to the end
		c.EndMarker = val
	}
	if val := get("DOCSECTION_MAX_UPLOAD_BYTES"); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			c.MaxUploadBytes = n
		}
	}
	if val := get("DOCSECTION_RETENTION"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.Retention = d
		}
	}
	if val := get("DOCSECTION_JANITOR_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.JanitorInterval = d
		}
	}
	if val := get("DOCSECTION_UPLOAD_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.UploadTTL = d
		}
	}
	if val := get("DOCSECTION_MAX_UPLOADS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.MaxUploads = n
		}
	}
}

// LoadFile reads a YAML configuration file on top of the defaults.
// Unknown keys are rejected.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config %s: %w", path, err)
	}
	config, err := Parse(data)
	if err != nil {
		return nil, errors.Errorf("config %s: %w", path, err)
	}
	return config, nil
}

// Parse decodes YAML configuration on top of the defaults.
func Parse(data []byte) (*Config, error) {
	config := DefaultConfig()
	if len(bytes.TrimSpace(data)) == 0 {
		return config, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(config); err != nil {
		return nil, errors.Errorf("decoding yaml: %w", err)
	}
	config.LogLevel = strings.ToLower(config.LogLevel)
	config.LogFormat = strings.ToLower(config.LogFormat)
	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return errors.Errorf("port %d out of range", c.Port)
	}
	if c.StorageDir == "" {
		return errors.New("storage dir cannot be empty")
	}
	if !validLogLevels[c.LogLevel] {
		return errors.Errorf("invalid log level %q", c.LogLevel)
	}
	if !validLogFormats[c.LogFormat] {
		return errors.Errorf("invalid log format %q", c.LogFormat)
	}
	if c.Preset == "" {
		return errors.New("preset cannot be empty")
	}
	if c.StartMarker == "" {
		return errors.New("start marker cannot be empty")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("max upload bytes must be positive")
	}
	if c.Retention < 0 {
		return errors.New("retention cannot be negative")
	}
	if c.Retention > 0 && c.JanitorInterval <= 0 {
		return errors.New("janitor interval must be positive when retention is set")
	}
	if c.UploadTTL < 0 {
		return errors.New("upload ttl cannot be negative")
	}
	if c.MaxUploads < 1 {
		return errors.New("max uploads must be at least 1")
	}
	return nil
}

// Addr returns the listen address for Port.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// parseBool parses a boolean value from a string
func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}
