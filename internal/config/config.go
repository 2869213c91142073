// Package config loads server settings and the named map presets.
package config

import (
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
)

// Config holds the full application configuration.
type Config struct {
	Server  ServerConfig      `yaml:"server" mapstructure:"server"`
	Log     LogConfig         `yaml:"log" mapstructure:"log"`
	Map     MapConfig         `yaml:"map" mapstructure:"map"`
	Presets map[string]Preset `yaml:"presets" mapstructure:"presets"`
}

// ServerConfig configures the HTTP listener and data directory.
type ServerConfig struct {
	Host    string `yaml:"host" mapstructure:"host"`
	Port    int    `yaml:"port" mapstructure:"port"`
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// MapConfig selects the preset and runtime behavior of the map.
type MapConfig struct {
	Preset        string        `yaml:"preset" mapstructure:"preset"`
	HexSource     string        `yaml:"hex_source" mapstructure:"hex_source"`
	PlacesURL     string        `yaml:"places_url" mapstructure:"places_url"`
	PopupPolicy   string        `yaml:"popup_policy" mapstructure:"popup_policy"`
	ScaleDebounce time.Duration `yaml:"scale_debounce" mapstructure:"scale_debounce"`
	QueryTimeout  time.Duration `yaml:"query_timeout" mapstructure:"query_timeout"`
}

// Hex sources.
const (
	HexSourceLocal  = "local"
	HexSourceRemote = "remote"
)

// Load reads configuration from an optional YAML file and HAZARD_* env vars.
// An empty path looks for hazard.yaml in the working directory.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("hazard")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("HAZARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8087)
	v.SetDefault("server.data_dir", ".data")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("map.preset", "v1")
	v.SetDefault("map.hex_source", HexSourceLocal)
	v.SetDefault("map.places_url", "")
	v.SetDefault("map.popup_policy", "hex-supersedes")
	v.SetDefault("map.scale_debounce", "0s")
	v.SetDefault("map.query_timeout", "10s")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	presets := Builtin()
	for name, p := range cfg.Presets {
		p.Name = name
		presets[name] = p
	}
	cfg.Presets = presets

	switch cfg.Map.HexSource {
	case HexSourceLocal, HexSourceRemote:
	default:
		return nil, eris.Errorf("config: map.hex_source must be %q or %q (got %q)", HexSourceLocal, HexSourceRemote, cfg.Map.HexSource)
	}

	return &cfg, nil
}

// Preset returns the named preset, or the configured one when name is empty.
func (c *Config) Preset(name string) (Preset, error) {
	if name == "" {
		name = c.Map.Preset
	}
	p, ok := c.Presets[name]
	if !ok {
		return Preset{}, eris.Errorf("config: unknown preset %q (have %s)", name, strings.Join(c.PresetNames(), ", "))
	}
	return p, nil
}

// PresetNames lists preset names in order.
func (c *Config) PresetNames() []string {
	names := make([]string, 0, len(c.Presets))
	for n := range c.Presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
