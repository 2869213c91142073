package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-hazard/internal/hazard"
	"github.com/joeblew999/plat-hazard/internal/symbology"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8087, cfg.Server.Port)
	assert.Equal(t, ".data", cfg.Server.DataDir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "v1", cfg.Map.Preset)
	assert.Equal(t, HexSourceLocal, cfg.Map.HexSource)
	assert.Equal(t, 10*time.Second, cfg.Map.QueryTimeout)
	assert.Equal(t, []string{"compact", "v1", "v2"}, cfg.PresetNames())

	p, err := cfg.Preset("")
	require.NoError(t, err)
	assert.Equal(t, "v1", p.Name)
	assert.Equal(t, hazard.BandsStandard, p.Bands)
	assert.Equal(t, "500px", p.Panels.ExpandedWidth)
	assert.InDelta(t, 0.9, p.Symbols.ScaleFactor, 1e-9)
	assert.Len(t, p.Rules, 3)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hazard.yaml")
	yaml := `
server:
  port: 9000
log:
  level: debug
map:
  preset: custom
  popup_policy: last-write-wins
  scale_debounce: 150ms
presets:
  custom:
    bands:
      severe: 95
      high: 75
      moderate: 55
    panels:
      collapsedHeight: 40px
      collapsedWidth: 200px
      expandedHeight: 400px
      expandedWidth: 400px
    symbols:
      n: 3
      radius: 12
      scaleFactor: 1
      palette: ["#ff0000", "#00ff00", "#0000ff"]
      colorPermutation: [2, 1, 0]
      fieldPermutation: [1, 2, 3]
    rules:
      - layerId: hex
        thresholds:
          - maxScale: 1000000
            opacity: 0.4
        default:
          opacity: 0.02
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "last-write-wins", cfg.Map.PopupPolicy)
	assert.Equal(t, 150*time.Millisecond, cfg.Map.ScaleDebounce)

	p, err := cfg.Preset("")
	require.NoError(t, err)
	assert.Equal(t, "custom", p.Name)
	assert.Equal(t, 95.0, p.Bands.Severe)
	assert.Equal(t, "400px", p.Panels.ExpandedHeight)
	assert.Equal(t, 3, p.Symbols.N)
	assert.Equal(t, []int{2, 1, 0}, p.Symbols.ColorPermutation)

	placements, err := symbology.Generate(p.Symbols)
	require.NoError(t, err)
	assert.Len(t, placements, 3)

	require.Len(t, p.Rules, 1)
	assert.Equal(t, 0.4, p.Rules[0].Resolve(500000).Opacity)
	assert.Equal(t, 0.02, p.Rules[0].Resolve(5000000).Opacity)

	// builtins survive alongside file presets
	_, err = cfg.Preset("v2")
	require.NoError(t, err)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestUnknownPreset(t *testing.T) {
	cfg := &Config{Presets: Builtin()}
	_, err := cfg.Preset("v9")
	assert.ErrorContains(t, err, "unknown preset")
}

func TestBuiltinPresetsValid(t *testing.T) {
	for name, p := range Builtin() {
		_, err := symbology.Generate(p.Symbols)
		assert.NoError(t, err, name)
		assert.Equal(t, name, p.Name)
	}
	assert.Equal(t, hazard.BandsWide, Builtin()["v2"].Bands)
	assert.Equal(t, "300px", Builtin()["compact"].Panels.ExpandedWidth)
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: "warn"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(-1))

	l, err = NewLogger(LogConfig{Level: "bogus", Format: "console"})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(0))
}
