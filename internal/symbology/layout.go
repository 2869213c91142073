// Package symbology arranges the hazard point symbols in a ring around
// each location and describes their visual variables.
package symbology

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"

	"github.com/joeblew999/plat-hazard/internal/hazard"
)

// ErrInvalidConfiguration is returned when layout parameters are inconsistent.
var ErrInvalidConfiguration = eris.New("invalid symbol configuration")

// ConfigError names the parameter that failed validation.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidConfiguration, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfiguration
}

func invalid(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Params configures Generate.
//
// ColorPermutation indexes Palette (0-based). FieldPermutation holds hazard
// numbers, 1..N.
type Params struct {
	N                int      `json:"n" yaml:"n" mapstructure:"n" doc:"Number of symbols in the ring" example:"18"`
	Radius           float64  `json:"radius" yaml:"radius" mapstructure:"radius" doc:"Ring radius in points" example:"10"`
	ScaleFactor      float64  `json:"scaleFactor" yaml:"scaleFactor" mapstructure:"scaleFactor" doc:"Multiplier applied to both offsets" example:"0.9"`
	Palette          []string `json:"palette" yaml:"palette" mapstructure:"palette" doc:"CSS colors"`
	ColorPermutation []int    `json:"colorPermutation" yaml:"colorPermutation" mapstructure:"colorPermutation" doc:"Palette index per ring slot"`
	FieldPermutation []int    `json:"fieldPermutation" yaml:"fieldPermutation" mapstructure:"fieldPermutation" doc:"Hazard number per ring slot"`
}

// Placement is one symbol of the ring.
type Placement struct {
	Index        int     `json:"index" doc:"Ring slot"`
	AngleDegrees float64 `json:"angleDegrees" doc:"Angle from the positive x axis"`
	OffsetX      float64 `json:"offsetX" doc:"Horizontal symbol offset"`
	OffsetY      float64 `json:"offsetY" doc:"Vertical symbol offset"`
	Color        string  `json:"color" doc:"Symbol color" example:"#d86826"`
	ScoreField   string  `json:"scoreField" doc:"Attribute driving symbol opacity" example:"score7"`
}

// DefaultPalette is the 18-color ramp from red through blue to magenta.
var DefaultPalette = []string{
	"#d82626", "#d84726", "#d86826", "#d88926", "#d8ae26", "#c0d826",
	"#7ed826", "#3cd826", "#26d84e", "#26d890", "#26d8d2", "#269cd8",
	"#265ad8", "#3326d8", "#7626d8", "#b826d8", "#d826b7", "#d82675",
}

// DefaultParams returns the ring used by the published map.
func DefaultParams() Params {
	return Params{
		N:                hazard.Count,
		Radius:           10,
		ScaleFactor:      0.9,
		Palette:          append([]string(nil), DefaultPalette...),
		ColorPermutation: []int{2, 1, 0, 17, 16, 15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3},
		FieldPermutation: []int{7, 8, 14, 13, 11, 6, 9, 18, 3, 1, 12, 2, 10, 15, 5, 16, 17, 4},
	}
}

// Validate checks the parameters without generating anything.
func (p Params) Validate() error {
	if p.N <= 0 {
		return invalid("n", "must be positive, got %d", p.N)
	}
	if len(p.Palette) < p.N {
		return invalid("palette", "has %d colors, need %d", len(p.Palette), p.N)
	}
	if len(p.ColorPermutation) != p.N {
		return invalid("colorPermutation", "has %d entries, need %d", len(p.ColorPermutation), p.N)
	}
	if len(p.FieldPermutation) != p.N {
		return invalid("fieldPermutation", "has %d entries, need %d", len(p.FieldPermutation), p.N)
	}
	for i, c := range p.ColorPermutation {
		if c < 0 || c >= len(p.Palette) {
			return invalid("colorPermutation", "entry %d is %d, outside palette", i, c)
		}
	}
	for i, f := range p.FieldPermutation {
		if f < 1 || f > p.N {
			return invalid("fieldPermutation", "entry %d is %d, outside 1..%d", i, f, p.N)
		}
	}
	return nil
}

// Generate computes the ring placements. It returns exactly p.N entries or
// an error wrapping ErrInvalidConfiguration.
func Generate(p Params) ([]Placement, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	step := 360 / float64(p.N)
	out := make([]Placement, p.N)
	for i := range p.N {
		angle := float64(i) * step
		rad := angle * math.Pi / 180
		out[i] = Placement{
			Index:        i,
			AngleDegrees: angle,
			OffsetX:      p.Radius * math.Cos(rad) * p.ScaleFactor,
			OffsetY:      p.Radius * math.Sin(rad) * p.ScaleFactor,
			Color:        p.Palette[p.ColorPermutation[i]],
			ScoreField:   hazard.Field(p.FieldPermutation[i]),
		}
	}
	return out, nil
}
